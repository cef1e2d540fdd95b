package session_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mauiiK/cosmos-p2p-bootstrapper/runner"
	"github.com/mauiiK/cosmos-p2p-bootstrapper/runner/runnertest"
	"github.com/mauiiK/cosmos-p2p-bootstrapper/session"
)

const startCmd = "gaiad start --home /root/.gaia --minimum-gas-prices=0.025uatom"

// tmuxFake simulates tmux: has-session succeeds once the session was created.
func tmuxFake(running bool) *runnertest.Fake {
	fake := runnertest.New("tmux")
	fake.Handler = func(c runner.Cmd) ([]byte, error) {
		switch c.Args[0] {
		case "has-session":
			if !running {
				return nil, runnertest.Fail(c, 1)
			}
		case "new-session":
			running = true
		}
		return nil, nil
	}
	return fake
}

func TestLaunchStartsDetached(t *testing.T) {
	fake := tmuxFake(false)
	s := session.NewTmux(fake, "gaia_node")

	require.NoError(t, s.Launch(context.Background(), startCmd))
	require.Equal(t, []string{
		"tmux has-session -t gaia_node",
		"tmux new-session -d -s gaia_node " + startCmd,
	}, fake.Commands())

	// the whole node command line is a single argument to tmux
	calls := fake.Calls()
	require.Equal(t, startCmd, calls[1].Args[len(calls[1].Args)-1])
}

func TestLaunchReattaches(t *testing.T) {
	fake := tmuxFake(true)
	s := session.NewTmux(fake, "gaia_node")
	s.IsTerminal = func() bool { return true }

	require.NoError(t, s.Launch(context.Background(), startCmd))
	require.Equal(t, []string{
		"tmux has-session -t gaia_node",
		"tmux attach -t gaia_node",
	}, fake.Commands())
}

func TestLaunchTwiceStartsOnce(t *testing.T) {
	fake := tmuxFake(false)
	s := session.NewTmux(fake, "gaia_node")
	s.IsTerminal = func() bool { return true }

	require.NoError(t, s.Launch(context.Background(), startCmd))
	require.NoError(t, s.Launch(context.Background(), startCmd))

	var starts int
	for _, c := range fake.Commands() {
		if c == "tmux new-session -d -s gaia_node "+startCmd {
			starts++
		}
	}
	require.Equal(t, 1, starts)
	require.True(t, fake.Ran("tmux attach -t gaia_node"))
}

func TestLaunchNoTerminal(t *testing.T) {
	fake := tmuxFake(true)
	s := session.NewTmux(fake, "gaia_node")
	s.IsTerminal = func() bool { return false }

	require.NoError(t, s.Launch(context.Background(), startCmd))
	require.Equal(t, []string{"tmux has-session -t gaia_node"}, fake.Commands())
}

func TestExistsRunnerFailure(t *testing.T) {
	fake := runnertest.New()
	fake.Handler = func(c runner.Cmd) ([]byte, error) { return nil, errors.New("exec: \"tmux\": executable file not found in $PATH") }

	_, err := session.NewTmux(fake, "gaia_node").Exists(context.Background())
	require.ErrorContains(t, err, "check tmux session")
}

func TestLaunchStartFailure(t *testing.T) {
	fake := runnertest.New()
	fake.Handler = func(c runner.Cmd) ([]byte, error) { return nil, runnertest.Fail(c, 1) }

	err := session.NewTmux(fake, "gaia_node").Launch(context.Background(), startCmd)
	require.ErrorContains(t, err, "start tmux session")
}
