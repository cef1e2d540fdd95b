package cmd

import (
	"fmt"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/mauiiK/cosmos-p2p-bootstrapper/bootstrap"
)

// Version is set at build time with -ldflags.
var Version = "dev"

func stepCmd(name, short string) *cobra.Command {
	return &cobra.Command{
		Use:   name,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStep(cmd, name, false)
		},
	}
}

func runStep(cmd *cobra.Command, name string, recoverWallet bool) error {
	b, stop, err := setup(cmd, recoverWallet)
	if err != nil {
		return err
	}
	defer stop()

	if name == bootstrap.StepWallet {
		warnKeyring(b.Config())
	}

	ctx, cancel := signalContext()
	defer cancel()

	if err := b.RunStep(ctx, name); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

func DepsCmd() *cobra.Command {
	return stepCmd(bootstrap.StepDeps, "install missing tools with apt")
}

func BuildCmd() *cobra.Command {
	return stepCmd(bootstrap.StepBuild, "check out the pinned release and run make install")
}

func InitCmd() *cobra.Command {
	return stepCmd(bootstrap.StepInit, "wipe the node home and run init")
}

func GenesisCmd() *cobra.Command {
	return stepCmd(bootstrap.StepGenesis, "download genesis.json from the first working mirror")
}

func ConfigureCmd() *cobra.Command {
	return stepCmd(bootstrap.StepConfigure, "set gas prices, persistent peers and state sync")
}

func StartCmd() *cobra.Command {
	return stepCmd(bootstrap.StepStart, "start the node in tmux or attach to the running session")
}

func WalletCmd() *cobra.Command {
	var recoverWallet bool

	cmd := &cobra.Command{
		Use:   bootstrap.StepWallet,
		Short: "create a wallet and print its address",
		Long: `Prompts for a wallet name and creates a key in the node keyring.

Example:
		$ bootstrapper wallet
		$ bootstrapper wallet --recover
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStep(cmd, bootstrap.StepWallet, recoverWallet)
		},
	}
	cmd.Flags().BoolVar(&recoverWallet, "recover", false, "import the key from a bip39 mnemonic")
	return cmd
}

// ConfigCmd prints the effective configuration after overrides.
func ConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return toml.NewEncoder(cmd.OutOrStdout()).Encode(cfg)
		},
	}
}

func VersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "print the bootstrapper version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), Version)
		},
	}
}
