package config

import (
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
)

const (
	// EnvPrefix namespaces every configuration variable.
	EnvPrefix = "BRIDGE"

	// DevelopmentMnemonic seeds the simulated devices unless BRIDGE_DEVICE_MNEMONIC is set.
	//nolint:dupword
	DevelopmentMnemonic = "test test test test test test test test test test test junk"

	dotEnvFileVar = EnvPrefix + "_DOTENV_FILE"
)

type env struct {
	*viper.Viper
}

// newEnv resolves keys from the process environment, then an optional .env file, then defaults.
func newEnv() env {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, value := range defaults() {
		v.SetDefault(key, value)
	}

	for key, value := range readDotEnv() {
		v.SetDefault(key, value)
	}

	return env{Viper: v}
}

// readDotEnv reads prefixed variables from the .env file without touching the process environment.
func readDotEnv() map[string]string {
	path := os.Getenv(dotEnvFileVar)
	if path == "" {
		path = ".env"
	}

	f, err := os.Open(path)
	if err != nil {
		if !os.IsNotExist(err) {
			logConfigError(err, "Failed to open dotenv file")
		}
		return nil
	}
	defer f.Close()

	parsed, err := gotenv.StrictParse(f)
	if err != nil {
		logConfigError(err, "Failed to parse dotenv file")
		return nil
	}

	out := make(map[string]string, len(parsed))
	for key, value := range parsed {
		if stripped, ok := strings.CutPrefix(key, EnvPrefix+"_"); ok {
			out[stripped] = value
		}
	}

	return out
}

func (e env) level(key string) zerolog.Level {
	raw := e.GetString(key)
	lvl, err := zerolog.ParseLevel(raw)
	if err != nil {
		logConfigError(err, "Invalid log level, falling back to debug")
		return zerolog.DebugLevel
	}

	return lvl
}

func logConfigError(err error, msg string) {
	log.Warn().Err(err).Msg(msg)
}
