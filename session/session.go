package session

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"golang.org/x/term"

	"github.com/mauiiK/cosmos-p2p-bootstrapper/runner"
)

// Tmux manages one named tmux session.
type Tmux struct {
	r    runner.Runner
	name string

	// IsTerminal reports whether attaching is possible.
	IsTerminal func() bool
}

func NewTmux(r runner.Runner, name string) *Tmux {
	return &Tmux{
		r:          r,
		name:       name,
		IsTerminal: func() bool { return term.IsTerminal(int(os.Stdin.Fd())) },
	}
}

// Exists reports whether the session is running.
func (t *Tmux) Exists(ctx context.Context) (bool, error) {
	_, err := t.r.Output(ctx, runner.Command("tmux", "has-session", "-t", t.name))
	switch {
	case err == nil:
		return true, nil
	case runner.IsExitError(err):
		return false, nil
	default:
		return false, fmt.Errorf("check tmux session: %w", err)
	}
}

// Start runs command in a new detached session.
func (t *Tmux) Start(ctx context.Context, command string) error {
	if err := t.r.Run(ctx, runner.Command("tmux", "new-session", "-d", "-s", t.name, command)); err != nil {
		return fmt.Errorf("start tmux session: %w", err)
	}
	return nil
}

// Attach blocks until the user detaches from the session.
func (t *Tmux) Attach(ctx context.Context) error {
	if err := t.r.Run(ctx, runner.Command("tmux", "attach", "-t", t.name)); err != nil {
		return fmt.Errorf("attach tmux session: %w", err)
	}
	return nil
}

// Launch starts command in the session, or reattaches when the session is
// already running so that a second instance is never started.
func (t *Tmux) Launch(ctx context.Context, command string) error {
	exists, err := t.Exists(ctx)
	if err != nil {
		return err
	}

	if exists {
		if !t.IsTerminal() {
			log.Info().Msgf("Tmux session %s already exists. Not a terminal, skipping attach.", t.name)
			return nil
		}
		log.Info().Msg("Tmux session already exists. Attaching...")
		return t.Attach(ctx)
	}

	log.Info().Msgf("Starting node in tmux session: %s", t.name)
	if err := t.Start(ctx, command); err != nil {
		return err
	}
	log.Info().Msg("Node started in tmux session.")
	log.Info().Msgf("Attach at any time with: tmux attach -t %s", t.name)
	return nil
}
