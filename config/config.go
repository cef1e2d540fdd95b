package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/ghodss/yaml"
)

var (
	// DefaultConfigPath is the config file looked up when --config is not given.
	DefaultConfigPath = "bootstrapper.toml"

	// DefaultTools are the external tools the workflow shells out to.
	DefaultTools = []string{"curl", "jq", "gzip", "tar", "sed", "tmux", "git", "make", "g++"}

	// DefaultGenesisURLs are tried in order until one yields a valid genesis file.
	DefaultGenesisURLs = []string{
		"https://cosmoshub.snapshots.nodestake.top/genesis.json",
		"https://cosmoshub.stake.link/genesis.json",
	}

	// DefaultPersistentPeers are public Cosmos Hub seed nodes. They may change over time.
	DefaultPersistentPeers = "ba3bacc714817218562f743178228f23678b2873@public-seed-node.cosmoshub.certus.one:26656," +
		"ade4d8bc8cbe0146ebdf3cb7b1e9ad36f412c0@seeds.polkachu.com:14956"
)

const (
	DefaultChainID        = "cosmoshub-4"
	DefaultMoniker        = "my-node"
	DefaultMinGasPrices   = "0.025uatom"
	DefaultBinary         = "gaiad"
	DefaultRepository     = "https://github.com/cosmos/gaia.git"
	DefaultTag            = "v24.0.0"
	DefaultRPC            = "https://rpc.cosmos.network:443"
	DefaultTrustOffset    = int64(5000)
	DefaultRPCTimeout     = int64(5)
	DefaultGenesisTimeout = int64(600)
	DefaultSessionName    = "gaia_node"
	DefaultKeyringBackend = "test"
	DefaultAddressPrefix  = "cosmos"
)

// Config defines all necessary configuration parameters for one bootstrap run.
type Config struct {
	Node      NodeConfig      `toml:"node" json:"node"`
	Source    SourceConfig    `toml:"source" json:"source"`
	Genesis   GenesisConfig   `toml:"genesis" json:"genesis"`
	P2P       P2PConfig       `toml:"p2p" json:"p2p"`
	StateSync StateSyncConfig `toml:"statesync" json:"statesync"`
	Session   SessionConfig   `toml:"session" json:"session"`
	Deps      DepsConfig      `toml:"deps" json:"deps"`
	Wallet    WalletConfig    `toml:"wallet" json:"wallet"`
}

// NodeConfig describes the local node home and identity.
type NodeConfig struct {
	Home         string `toml:"home" json:"home"`
	ChainID      string `toml:"chain_id" json:"chain_id"`
	Moniker      string `toml:"moniker" json:"moniker"`
	MinGasPrices string `toml:"minimum_gas_prices" json:"minimum_gas_prices"`
	Binary       string `toml:"binary" json:"binary"`
	StartFlags   string `toml:"start_flags" json:"start_flags"`
}

// SourceConfig pins the node source code to build.
type SourceConfig struct {
	Repository string `toml:"repository" json:"repository"`
	Dir        string `toml:"dir" json:"dir"`
	Tag        string `toml:"tag" json:"tag"`
}

// GenesisConfig lists the genesis download candidates.
type GenesisConfig struct {
	URLs    []string `toml:"urls" json:"urls"`
	Timeout int64    `toml:"timeout" json:"timeout"` // seconds
}

type P2PConfig struct {
	PersistentPeers string `toml:"persistent_peers" json:"persistent_peers"`
}

// StateSyncConfig points at the RPC endpoint used to derive the trust checkpoint.
type StateSyncConfig struct {
	RPC         string `toml:"rpc" json:"rpc"`
	TrustOffset int64  `toml:"trust_offset" json:"trust_offset"`
	Timeout     int64  `toml:"timeout" json:"timeout"` // seconds
}

type SessionConfig struct {
	Name string `toml:"name" json:"name"`
}

type DepsConfig struct {
	Tools []string `toml:"tools" json:"tools"`
	Sudo  bool     `toml:"sudo" json:"sudo"`
}

type WalletConfig struct {
	KeyringBackend string `toml:"keyring_backend" json:"keyring_backend"`
	AddressPrefix  string `toml:"address_prefix" json:"address_prefix"`
}

// DefaultConfig returns the configuration of the stock Cosmos Hub bootstrap.
func DefaultConfig() *Config {
	home := userHome()
	return &Config{
		Node: NodeConfig{
			Home:         filepath.Join(home, ".gaia"),
			ChainID:      DefaultChainID,
			Moniker:      DefaultMoniker,
			MinGasPrices: DefaultMinGasPrices,
			Binary:       DefaultBinary,
		},
		Source: SourceConfig{
			Repository: DefaultRepository,
			Dir:        filepath.Join(home, "cosmos", "gaia"),
			Tag:        DefaultTag,
		},
		Genesis: GenesisConfig{
			URLs:    append([]string(nil), DefaultGenesisURLs...),
			Timeout: DefaultGenesisTimeout,
		},
		P2P: P2PConfig{
			PersistentPeers: DefaultPersistentPeers,
		},
		StateSync: StateSyncConfig{
			RPC:         DefaultRPC,
			TrustOffset: DefaultTrustOffset,
			Timeout:     DefaultRPCTimeout,
		},
		Session: SessionConfig{
			Name: DefaultSessionName,
		},
		Deps: DepsConfig{
			Tools: append([]string(nil), DefaultTools...),
			Sudo:  true,
		},
		Wallet: WalletConfig{
			KeyringBackend: DefaultKeyringBackend,
			AddressPrefix:  DefaultAddressPrefix,
		},
	}
}

// Read reads the configuration file and overlays it on the defaults.
// A missing file at DefaultConfigPath yields the defaults.
func Read(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	f, err := os.ReadFile(configPath)
	switch {
	case errors.Is(err, os.ErrNotExist) && configPath == DefaultConfigPath:
		return cfg, nil
	case err != nil:
		return nil, fmt.Errorf("read config file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(configPath)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(f, cfg); err != nil {
			return nil, fmt.Errorf("decode config file %s: %w", configPath, err)
		}
	default:
		meta, err := toml.Decode(string(f), cfg)
		if err != nil {
			return nil, fmt.Errorf("decode config file %s: %w", configPath, err)
		}
		if undecoded := meta.Undecoded(); len(undecoded) > 0 {
			return nil, fmt.Errorf("config file %s: unknown key %q", configPath, undecoded[0].String())
		}
	}

	cfg.expandHome()
	return cfg, nil
}

// Validate reports the first missing or malformed value.
func (c *Config) Validate() error {
	required := []struct{ name, value string }{
		{"node.home", c.Node.Home},
		{"node.chain_id", c.Node.ChainID},
		{"node.moniker", c.Node.Moniker},
		{"node.minimum_gas_prices", c.Node.MinGasPrices},
		{"node.binary", c.Node.Binary},
		{"source.repository", c.Source.Repository},
		{"source.dir", c.Source.Dir},
		{"source.tag", c.Source.Tag},
		{"statesync.rpc", c.StateSync.RPC},
		{"session.name", c.Session.Name},
		{"wallet.keyring_backend", c.Wallet.KeyringBackend},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return fmt.Errorf("%s must not be empty", r.name)
		}
	}

	if len(c.Genesis.URLs) == 0 {
		return fmt.Errorf("genesis.urls must list at least one URL")
	}
	if c.Genesis.Timeout <= 0 {
		return fmt.Errorf("genesis.timeout must be positive")
	}
	if c.StateSync.Timeout <= 0 {
		return fmt.Errorf("statesync.timeout must be positive")
	}
	return nil
}

// GenesisFile returns the path the genesis document is downloaded to.
func (c *Config) GenesisFile() string {
	return filepath.Join(c.Node.Home, "config", "genesis.json")
}

// AppConfigFile returns the path of the node's app.toml.
func (c *Config) AppConfigFile() string {
	return filepath.Join(c.Node.Home, "config", "app.toml")
}

// CometConfigFile returns the path of the node's config.toml.
func (c *Config) CometConfigFile() string {
	return filepath.Join(c.Node.Home, "config", "config.toml")
}

func (c *Config) expandHome() {
	c.Node.Home = expand(c.Node.Home)
	c.Source.Dir = expand(c.Source.Dir)
}

func expand(p string) string {
	if p == "~" || strings.HasPrefix(p, "~/") {
		return filepath.Join(userHome(), strings.TrimPrefix(p, "~"))
	}
	return os.ExpandEnv(p)
}

func userHome() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
