package node

import (
	"fmt"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/mauiiK/cosmos-p2p-bootstrapper/statesync"
	"github.com/mauiiK/cosmos-p2p-bootstrapper/tomlpatch"
)

// AppConfig is the subset of app.toml managed by the bootstrap.
type AppConfig struct {
	MinGasPrices string `toml:"minimum-gas-prices"`
}

// CometConfig is the subset of config.toml managed by the bootstrap.
type CometConfig struct {
	P2P struct {
		PersistentPeers string `toml:"persistent_peers"`
	} `toml:"p2p"`
	StateSync struct {
		Enable      bool   `toml:"enable"`
		RPCServers  string `toml:"rpc_servers"`
		TrustHeight int64  `toml:"trust_height"`
		TrustHash   string `toml:"trust_hash"`
	} `toml:"statesync"`
}

func (n *Node) AppConfigFile() string {
	return filepath.Join(n.ConfigDir(), "app.toml")
}

func (n *Node) CometConfigFile() string {
	return filepath.Join(n.ConfigDir(), "config.toml")
}

func (n *Node) GenesisFile() string {
	return filepath.Join(n.ConfigDir(), "genesis.json")
}

// SetMinimumGasPrices writes minimum-gas-prices into app.toml, replacing the
// existing entry or adding it to the root table.
func (n *Node) SetMinimumGasPrices(gas string) error {
	return tomlpatch.Patch(n.AppConfigFile(), func(d *tomlpatch.Document) error {
		return d.Ensure("minimum-gas-prices", gas)
	})
}

// SetPersistentPeers writes p2p.persistent_peers into config.toml.
func (n *Node) SetPersistentPeers(peers string) error {
	return tomlpatch.Patch(n.CometConfigFile(), func(d *tomlpatch.Document) error {
		return d.Ensure("p2p.persistent_peers", peers)
	})
}

// SetStateSync writes the state sync checkpoint into config.toml.
func (n *Node) SetStateSync(p statesync.Params) error {
	return tomlpatch.Patch(n.CometConfigFile(), func(d *tomlpatch.Document) error {
		for _, kv := range []struct {
			key   string
			value any
		}{
			{"statesync.enable", p.Enable},
			{"statesync.rpc_servers", p.RPCServersValue()},
			{"statesync.trust_height", p.TrustHeight},
			{"statesync.trust_hash", p.TrustHash},
		} {
			if err := d.Ensure(kv.key, kv.value); err != nil {
				return err
			}
		}
		return nil
	})
}

// ReadAppConfig decodes the managed part of app.toml.
func (n *Node) ReadAppConfig() (AppConfig, error) {
	var c AppConfig
	if _, err := toml.DecodeFile(n.AppConfigFile(), &c); err != nil {
		return AppConfig{}, fmt.Errorf("read app config: %w", err)
	}
	return c, nil
}

// ReadCometConfig decodes the managed part of config.toml.
func (n *Node) ReadCometConfig() (CometConfig, error) {
	var c CometConfig
	if _, err := toml.DecodeFile(n.CometConfigFile(), &c); err != nil {
		return CometConfig{}, fmt.Errorf("read comet config: %w", err)
	}
	return c, nil
}
