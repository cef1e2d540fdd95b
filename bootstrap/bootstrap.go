package bootstrap

import (
	"context"
	"fmt"
	"io"
	"os"
	"slices"
	"time"

	"github.com/fatih/color"
	"github.com/rs/zerolog/log"

	"github.com/mauiiK/cosmos-p2p-bootstrapper/config"
	"github.com/mauiiK/cosmos-p2p-bootstrapper/deps"
	"github.com/mauiiK/cosmos-p2p-bootstrapper/genesis"
	"github.com/mauiiK/cosmos-p2p-bootstrapper/node"
	"github.com/mauiiK/cosmos-p2p-bootstrapper/runner"
	"github.com/mauiiK/cosmos-p2p-bootstrapper/session"
	"github.com/mauiiK/cosmos-p2p-bootstrapper/source"
	"github.com/mauiiK/cosmos-p2p-bootstrapper/statesync"
	"github.com/mauiiK/cosmos-p2p-bootstrapper/wallet"
)

const (
	StepDeps      = "deps"
	StepBuild     = "build"
	StepInit      = "init"
	StepGenesis   = "genesis"
	StepConfigure = "configure"
	StepStart     = "start"
	StepWallet    = "wallet"
)

// StepNames lists the workflow steps in execution order.
var StepNames = []string{StepDeps, StepBuild, StepInit, StepGenesis, StepConfigure, StepStart, StepWallet}

// Step is one phase of the workflow.
type Step struct {
	Name string
	Run  func(ctx context.Context) error
}

// Options carries the collaborators of a Bootstrapper.
type Options struct {
	Runner runner.Runner
	Chain  statesync.ChainClient
	In     io.Reader
	Out    io.Writer

	// IsTerminal overrides the TTY check used before attaching to tmux.
	IsTerminal func() bool

	// Recover imports the wallet from a mnemonic instead of generating one.
	Recover bool
}

// Bootstrapper runs the node bootstrap workflow.
type Bootstrapper struct {
	cfg  *config.Config
	opts Options

	deps    *deps.Installer
	source  *source.Builder
	node    *node.Node
	genesis *genesis.Fetcher
	tmux    *session.Tmux
	keyring *wallet.Keyring
}

func New(cfg *config.Config, opts Options) *Bootstrapper {
	if opts.In == nil {
		opts.In = os.Stdin
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}

	b := &Bootstrapper{
		cfg:     cfg,
		opts:    opts,
		deps:    deps.NewInstaller(opts.Runner, cfg.Deps.Sudo),
		source:  source.NewBuilder(opts.Runner, cfg.Source),
		node:    node.New(opts.Runner, cfg.Node),
		genesis: genesis.NewFetcher(time.Duration(cfg.Genesis.Timeout) * time.Second),
		tmux:    session.NewTmux(opts.Runner, cfg.Session.Name),
		keyring: wallet.NewKeyring(opts.Runner, cfg.Node.Binary, cfg.Node.Home, cfg.Wallet.KeyringBackend, cfg.Wallet.AddressPrefix),
	}
	if opts.IsTerminal != nil {
		b.tmux.IsTerminal = opts.IsTerminal
	}
	return b
}

func (b *Bootstrapper) Config() *config.Config {
	return b.cfg
}

// Steps returns the workflow in execution order.
func (b *Bootstrapper) Steps() []Step {
	return []Step{
		{StepDeps, b.Deps},
		{StepBuild, b.Build},
		{StepInit, b.Init},
		{StepGenesis, b.Genesis},
		{StepConfigure, b.Configure},
		{StepStart, b.Start},
		{StepWallet, b.Wallet},
	}
}

// Run executes every step in order, except those named in skip, and stops
// at the first failure.
func (b *Bootstrapper) Run(ctx context.Context, skip ...string) error {
	for _, name := range skip {
		if !slices.Contains(StepNames, name) {
			return fmt.Errorf("unknown step %q", name)
		}
	}

	for _, step := range b.Steps() {
		if slices.Contains(skip, step.Name) {
			log.Info().Msgf("Skipping step %s", step.Name)
			continue
		}
		if err := step.Run(ctx); err != nil {
			return fmt.Errorf("%s: %w", step.Name, err)
		}
	}

	log.Info().Msg("=== DONE ===")
	return nil
}

// RunStep executes a single named step.
func (b *Bootstrapper) RunStep(ctx context.Context, name string) error {
	for _, step := range b.Steps() {
		if step.Name == name {
			return step.Run(ctx)
		}
	}
	return fmt.Errorf("unknown step %q", name)
}

func banner(title string) {
	log.Info().Msg(color.BlueString("=== %s ===", title))
}

func (b *Bootstrapper) Deps(ctx context.Context) error {
	banner("Checking required tools")
	return b.deps.Ensure(ctx, b.cfg.Deps.Tools)
}

func (b *Bootstrapper) Build(ctx context.Context) error {
	banner(fmt.Sprintf("Cloning and building %s", b.cfg.Source.Tag))
	if _, err := b.source.Checkout(ctx); err != nil {
		return err
	}
	if err := b.source.Install(ctx); err != nil {
		return err
	}

	v, err := b.node.Version(ctx)
	if err != nil {
		return err
	}
	log.Info().Msgf("Node version: %s", v)
	return nil
}

func (b *Bootstrapper) Init(ctx context.Context) error {
	banner("Cleaning old data")
	if err := b.node.Reset(); err != nil {
		return err
	}

	banner("Initializing node")
	return b.node.Init(ctx)
}

func (b *Bootstrapper) Genesis(ctx context.Context) error {
	banner("Downloading genesis.json")
	_, err := b.genesis.Fetch(ctx, b.cfg.Genesis.URLs, b.node.GenesisFile())
	return err
}

func (b *Bootstrapper) Configure(ctx context.Context) error {
	banner("Setting minimum gas prices")
	if err := b.node.SetMinimumGasPrices(b.cfg.Node.MinGasPrices); err != nil {
		return err
	}

	banner("Adding persistent peers")
	if err := b.node.SetPersistentPeers(b.cfg.P2P.PersistentPeers); err != nil {
		return err
	}

	banner("Enabling state sync")
	params, err := statesync.Derive(ctx, b.opts.Chain, b.cfg.StateSync.RPC, b.cfg.StateSync.TrustOffset)
	if err != nil {
		return err
	}
	if err := b.node.SetStateSync(params); err != nil {
		return err
	}

	banner("Config summary")
	return b.summary()
}

func (b *Bootstrapper) summary() error {
	c, err := b.node.ReadCometConfig()
	if err != nil {
		return err
	}
	log.Info().
		Str("persistent_peers", c.P2P.PersistentPeers).
		Bool("statesync.enable", c.StateSync.Enable).
		Str("statesync.rpc_servers", c.StateSync.RPCServers).
		Int64("statesync.trust_height", c.StateSync.TrustHeight).
		Str("statesync.trust_hash", c.StateSync.TrustHash).
		Msg("config.toml")

	entries, err := os.ReadDir(b.node.ConfigDir())
	if err != nil {
		return fmt.Errorf("list config dir: %w", err)
	}
	for _, e := range entries {
		info, err := e.Info()
		if err != nil {
			return err
		}
		log.Info().Str("mode", info.Mode().String()).Int64("size", info.Size()).Msg(e.Name())
	}
	return nil
}

func (b *Bootstrapper) Start(ctx context.Context) error {
	cmd, err := b.node.StartCommand()
	if err != nil {
		return err
	}
	return b.tmux.Launch(ctx, cmd)
}

func (b *Bootstrapper) Wallet(ctx context.Context) error {
	p := wallet.NewPrompter(b.opts.In, b.opts.Out)
	name, err := p.Name()
	if err != nil {
		return err
	}

	var addr string
	if b.opts.Recover {
		m, err := p.Mnemonic()
		if err != nil {
			return err
		}
		addr, err = b.keyring.Recover(ctx, name, m)
		if err != nil {
			return err
		}
	} else {
		addr, err = b.keyring.Create(ctx, name)
		if err != nil {
			return err
		}
	}

	log.Info().Msgf("Your wallet address is: %s", addr)
	b.hints(addr)
	return nil
}

func (b *Bootstrapper) hints(addr string) {
	n := b.cfg.Node
	bold := color.New(color.Bold)
	fmt.Fprintln(b.opts.Out, "You can now check balance once synced:")
	bold.Fprintf(b.opts.Out, "  %s query bank balances %s --home %s\n", n.Binary, addr, n.Home) //nolint:errcheck
	fmt.Fprintln(b.opts.Out, "Send txs like:")
	bold.Fprintf(b.opts.Out, "  %s tx bank send %s <to_address> 10uatom --home %s --gas-prices %s --chain-id %s\n", //nolint:errcheck
		n.Binary, addr, n.Home, n.MinGasPrices, n.ChainID)
}
