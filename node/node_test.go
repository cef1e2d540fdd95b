package node_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mauiiK/cosmos-p2p-bootstrapper/config"
	"github.com/mauiiK/cosmos-p2p-bootstrapper/node"
	"github.com/mauiiK/cosmos-p2p-bootstrapper/runner"
	"github.com/mauiiK/cosmos-p2p-bootstrapper/runner/runnertest"
	"github.com/mauiiK/cosmos-p2p-bootstrapper/statesync"
)

const cometTOML = `# This is a TOML config file.
proxy_app = "tcp://127.0.0.1:26658"
moniker = "my-node"

#######################################################
###           P2P Configuration Options             ###
#######################################################
[p2p]

# Comma separated list of nodes to keep persistent connections to
persistent_peers = ""

#######################################################
###         State Sync Configuration Options        ###
#######################################################
[statesync]
# State sync rapidly bootstraps a new node by discovering, fetching, and restoring a state machine
# snapshot from peers instead of fetching and replaying historical blocks.
enable = false

rpc_servers = ""
trust_height = 0
trust_hash = ""
trust_period = "168h0m0s"

[instrumentation]
prometheus = false
`

const appTOML = `# This is a TOML config file.
minimum-gas-prices = ""

[api]
enable = false
`

func newNode(t *testing.T) (*node.Node, *runnertest.Fake, config.NodeConfig) {
	cfg := config.DefaultConfig().Node
	cfg.Home = filepath.Join(t.TempDir(), ".gaia")
	fake := runnertest.New()
	return node.New(fake, cfg), fake, cfg
}

func writeConfigs(t *testing.T, n *node.Node, app, comet string) {
	require.NoError(t, os.MkdirAll(n.ConfigDir(), 0o755))
	require.NoError(t, os.WriteFile(n.AppConfigFile(), []byte(app), 0o644))
	require.NoError(t, os.WriteFile(n.CometConfigFile(), []byte(comet), 0o644))
}

func TestResetAndInit(t *testing.T) {
	n, fake, cfg := newNode(t)
	writeConfigs(t, n, appTOML, cometTOML)

	require.NoError(t, n.Reset())
	_, err := os.Stat(cfg.Home)
	require.ErrorIs(t, err, os.ErrNotExist)

	// resetting a missing home is fine
	require.NoError(t, n.Reset())

	require.NoError(t, n.Init(context.Background()))
	require.Equal(t, []string{
		"gaiad init my-node --chain-id cosmoshub-4 --home " + cfg.Home,
	}, fake.Commands())
}

func TestInitFailure(t *testing.T) {
	n, fake, _ := newNode(t)
	fake.Handler = func(c runner.Cmd) ([]byte, error) { return nil, runnertest.Fail(c, 1) }

	err := n.Init(context.Background())
	require.ErrorContains(t, err, "init node")
	require.True(t, runner.IsExitError(err))
}

func TestVersion(t *testing.T) {
	n, fake, _ := newNode(t)
	fake.Handler = func(c runner.Cmd) ([]byte, error) { return []byte("v24.0.0\n"), nil }

	v, err := n.Version(context.Background())
	require.NoError(t, err)
	require.Equal(t, "v24.0.0", v)
}

func TestStartCommand(t *testing.T) {
	cfg := config.DefaultConfig().Node
	cfg.Home = "/home/op/.gaia"

	s, err := node.New(runnertest.New(), cfg).StartCommand()
	require.NoError(t, err)
	require.Equal(t, "gaiad start --home /home/op/.gaia --minimum-gas-prices=0.025uatom", s)

	cfg.Home = "/home/op/my gaia"
	cfg.StartFlags = `--log_level info --moniker "it's me"`
	s, err = node.New(runnertest.New(), cfg).StartCommand()
	require.NoError(t, err)
	require.Equal(t, `gaiad start --home '/home/op/my gaia' --minimum-gas-prices=0.025uatom --log_level info --moniker 'it'\''s me'`, s)

	cfg.StartFlags = `--moniker "unterminated`
	_, err = node.New(runnertest.New(), cfg).StartCommand()
	require.Error(t, err)
}

func TestSetMinimumGasPrices(t *testing.T) {
	n, _, _ := newNode(t)
	writeConfigs(t, n, appTOML, cometTOML)

	require.NoError(t, n.SetMinimumGasPrices("0.025uatom"))
	require.NoError(t, n.SetMinimumGasPrices("0.05uatom"))

	c, err := n.ReadAppConfig()
	require.NoError(t, err)
	require.Equal(t, "0.05uatom", c.MinGasPrices)

	b, err := os.ReadFile(n.AppConfigFile())
	require.NoError(t, err)
	require.Equal(t, 1, strings.Count(string(b), "minimum-gas-prices"))
}

func TestSetMinimumGasPricesAbsent(t *testing.T) {
	n, _, _ := newNode(t)
	writeConfigs(t, n, "[api]\nenable = false\n", cometTOML)

	require.NoError(t, n.SetMinimumGasPrices("0.025uatom"))
	require.NoError(t, n.SetMinimumGasPrices("0.025uatom"))

	c, err := n.ReadAppConfig()
	require.NoError(t, err)
	require.Equal(t, "0.025uatom", c.MinGasPrices)

	b, err := os.ReadFile(n.AppConfigFile())
	require.NoError(t, err)
	require.Equal(t, 1, strings.Count(string(b), "minimum-gas-prices"))
}

func TestSetPeersAndStateSync(t *testing.T) {
	n, _, _ := newNode(t)
	writeConfigs(t, n, appTOML, cometTOML)

	require.NoError(t, n.SetPersistentPeers(config.DefaultPersistentPeers))
	require.NoError(t, n.SetStateSync(statesync.Params{
		Enable:      true,
		RPCServers:  []string{"https://rpc.cosmos.network:443", "https://rpc.cosmos.network:443"},
		TrustHeight: 995_000,
		TrustHash:   "ABCDEF",
	}))

	c, err := n.ReadCometConfig()
	require.NoError(t, err)
	require.Equal(t, config.DefaultPersistentPeers, c.P2P.PersistentPeers)
	require.True(t, c.StateSync.Enable)
	require.Equal(t, "https://rpc.cosmos.network:443,https://rpc.cosmos.network:443", c.StateSync.RPCServers)
	require.Equal(t, int64(995_000), c.StateSync.TrustHeight)
	require.Equal(t, "ABCDEF", c.StateSync.TrustHash)

	b, err := os.ReadFile(n.CometConfigFile())
	require.NoError(t, err)
	s := string(b)
	require.Contains(t, s, "# State sync rapidly bootstraps a new node")
	require.Contains(t, s, `trust_period = "168h0m0s"`)
	require.Contains(t, s, "prometheus = false")
	require.Equal(t, 1, strings.Count(s, "trust_height"))
}

func TestSetStateSyncMissingFile(t *testing.T) {
	n, _, _ := newNode(t)
	require.Error(t, n.SetStateSync(statesync.Params{}))
}
