package main

import "github/chapool/hw-bridge/cmd"

func main() {
	cmd.Execute()
}
