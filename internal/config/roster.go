package config

import (
	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
	"github/chapool/hw-bridge/internal/device"
)

type rosterFile struct {
	Devices []device.Settings `toml:"device"`
}

// LoadRoster reads the simulated device roster from a TOML file:
//
//	[[device]]
//	type = "ledger"
//	connected = true
//	hd_path = "m/44'/60'/0'/0"
func LoadRoster(path string) ([]device.Settings, error) {
	var f rosterFile
	meta, err := toml.DecodeFile(path, &f)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to decode roster file %s", path)
	}

	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, errors.Errorf("unknown roster keys: %v", undecoded)
	}

	if len(f.Devices) == 0 {
		return nil, errors.Errorf("roster file %s lists no devices", path)
	}

	return f.Devices, nil
}
