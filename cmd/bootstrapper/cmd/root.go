package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"slices"
	"strings"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mauiiK/cosmos-p2p-bootstrapper/bootstrap"
	"github.com/mauiiK/cosmos-p2p-bootstrapper/client"
	"github.com/mauiiK/cosmos-p2p-bootstrapper/config"
	"github.com/mauiiK/cosmos-p2p-bootstrapper/runner"
)

// EnvPrefix prefixes the environment variables that override flags.
const EnvPrefix = "BOOTSTRAPPER"

var (
	configPath string
	logLevel   string
	logFile    string

	settings *viper.Viper
)

// overrides maps flags that may also be given as environment variables to
// the config field they replace.
var overrides = []struct {
	flag  string
	usage string
	apply func(cfg *config.Config, v string)
}{
	{"home", "node home directory", func(c *config.Config, v string) { c.Node.Home = v }},
	{"chain-id", "chain id passed to init", func(c *config.Config, v string) { c.Node.ChainID = v }},
	{"moniker", "node moniker", func(c *config.Config, v string) { c.Node.Moniker = v }},
	{"min-gas-prices", "minimum gas prices written to app.toml", func(c *config.Config, v string) { c.Node.MinGasPrices = v }},
	{"tag", "release tag to build", func(c *config.Config, v string) { c.Source.Tag = v }},
	{"rpc", "RPC endpoint used for state sync", func(c *config.Config, v string) { c.StateSync.RPC = v }},
	{"session", "tmux session name", func(c *config.Config, v string) { c.Session.Name = v }},
}

func RootCmd() *cobra.Command {
	settings = viper.New()
	settings.SetEnvPrefix(EnvPrefix)
	settings.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	settings.AutomaticEnv()

	cmd := &cobra.Command{
		Use:   "bootstrapper",
		Short: "bootstrap a Cosmos Hub full node with state sync",
		Long: `Installs the required tools, builds the node binary at a pinned release,
initializes a fresh home directory, downloads genesis, configures peers and
state sync, starts the node in tmux and creates a wallet.

Example:
		$ bootstrapper --moniker my-node
		$ bootstrapper run --skip deps,build
		$ bootstrapper wallet --recover
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSteps(cmd, nil)
		},
	}

	f := cmd.PersistentFlags()
	f.StringVar(&configPath, "config", config.DefaultConfigPath, "path to the config file (toml or yaml)")
	f.StringVar(&logLevel, "log-level", zerolog.InfoLevel.String(), "logging level")
	f.StringVar(&logFile, "log-file", "", "also write logs to this file")
	for _, o := range overrides {
		f.String(o.flag, "", fmt.Sprintf("%s [%s_%s]", o.usage, EnvPrefix, envName(o.flag)))
		settings.BindPFlag(o.flag, f.Lookup(o.flag)) // nolint: errcheck
	}

	cmd.AddCommand(
		RunCmd(),
		DepsCmd(),
		BuildCmd(),
		InitCmd(),
		GenesisCmd(),
		ConfigureCmd(),
		StartCmd(),
		WalletCmd(),
		ConfigCmd(),
		VersionCmd(),
	)
	return cmd
}

func envName(flag string) string {
	return strings.ToUpper(strings.ReplaceAll(flag, "-", "_"))
}

// loadConfig reads the config file and applies flag and environment overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Read(configPath)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	for _, o := range overrides {
		if settings.IsSet(o.flag) {
			o.apply(cfg, settings.GetString(o.flag))
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// setup prepares logging, config and collaborators shared by every step command.
func setup(cmd *cobra.Command, recoverWallet bool) (*bootstrap.Bootstrapper, func(), error) {
	cmd.SilenceUsage = true

	if err := SetLogger(logLevel, logFile); err != nil {
		return nil, nil, fmt.Errorf("set logger: %w", err)
	}

	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}

	c, err := client.NewClient(cfg.StateSync.RPC, cfg.StateSync.Timeout)
	if err != nil {
		return nil, nil, fmt.Errorf("new client: %w", err)
	}
	stop := func() {
		if err := c.Stop(); err != nil {
			log.Debug().Err(err).Msg("stop client")
		}
	}

	b := bootstrap.New(cfg, bootstrap.Options{
		Runner:  runner.New(cmd.InOrStdin(), os.Stdout, os.Stderr),
		Chain:   c.GetRPCClient(),
		In:      cmd.InOrStdin(),
		Out:     cmd.OutOrStdout(),
		Recover: recoverWallet,
	})

	return b, stop, nil
}

func warnKeyring(cfg *config.Config) {
	if cfg.Wallet.KeyringBackend == "test" {
		Warnf("keyring backend %q stores keys unencrypted on disk", cfg.Wallet.KeyringBackend)
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func runSteps(cmd *cobra.Command, skip []string) error {
	b, stop, err := setup(cmd, false)
	if err != nil {
		return err
	}
	defer stop()

	if !slices.Contains(skip, bootstrap.StepWallet) {
		warnKeyring(b.Config())
	}

	ctx, cancel := signalContext()
	defer cancel()

	if err := b.Run(ctx, skip...); err != nil {
		log.Error().Err(err).Msg("Bootstrap failed")
		return err
	}
	return nil
}
