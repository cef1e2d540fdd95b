package node

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mattn/go-shellwords"
	"github.com/rs/zerolog/log"

	"github.com/mauiiK/cosmos-p2p-bootstrapper/config"
	"github.com/mauiiK/cosmos-p2p-bootstrapper/runner"
)

// Node drives the node binary for a single home directory.
type Node struct {
	r   runner.Runner
	cfg config.NodeConfig
}

func New(r runner.Runner, cfg config.NodeConfig) *Node {
	return &Node{r: r, cfg: cfg}
}

// ConfigDir returns the path to the config directory within the home directory.
func (n *Node) ConfigDir() string {
	return filepath.Join(n.cfg.Home, "config")
}

// Reset deletes the home directory and everything in it.
func (n *Node) Reset() error {
	log.Info().Msgf("Deleting %s", n.cfg.Home)
	if err := os.RemoveAll(n.cfg.Home); err != nil {
		return fmt.Errorf("remove node home: %w", err)
	}
	return nil
}

// Init generates a fresh node identity and default config files.
func (n *Node) Init(ctx context.Context) error {
	c := runner.Command(n.cfg.Binary, "init", n.cfg.Moniker, "--chain-id", n.cfg.ChainID, "--home", n.cfg.Home)
	if err := n.r.Run(ctx, c); err != nil {
		return fmt.Errorf("init node: %w", err)
	}
	return nil
}

// Version returns the output of `<binary> version`.
func (n *Node) Version(ctx context.Context) (string, error) {
	b, err := n.r.Output(ctx, runner.Command(n.cfg.Binary, "version"))
	if err != nil {
		return "", fmt.Errorf("get node version: %w", err)
	}
	return strings.TrimSpace(string(b)), nil
}

// StartCommand returns the shell command line that runs the node. It is
// meant to be handed to a terminal multiplexer, so every argument is quoted.
func (n *Node) StartCommand() (string, error) {
	args := []string{
		n.cfg.Binary, "start",
		"--home", n.cfg.Home,
		"--minimum-gas-prices=" + n.cfg.MinGasPrices,
	}

	if n.cfg.StartFlags != "" {
		extra, err := shellwords.Parse(n.cfg.StartFlags)
		if err != nil {
			return "", fmt.Errorf("parse start flags %q: %w", n.cfg.StartFlags, err)
		}
		args = append(args, extra...)
	}

	quoted := make([]string, len(args))
	for i, a := range args {
		quoted[i] = shellQuote(a)
	}
	return strings.Join(quoted, " "), nil
}

// shellQuote single-quotes s unless it consists only of safe characters.
func shellQuote(s string) string {
	if s == "" {
		return "''"
	}
	safe := true
	for _, r := range s {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || strings.ContainsRune("-_./=:,@+%", r)) {
			safe = false
			break
		}
	}
	if safe {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
