package deps_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mauiiK/cosmos-p2p-bootstrapper/deps"
	"github.com/mauiiK/cosmos-p2p-bootstrapper/runner"
	"github.com/mauiiK/cosmos-p2p-bootstrapper/runner/runnertest"
)

func TestEnsureAllPresent(t *testing.T) {
	fake := runnertest.New("curl", "jq", "tmux")

	require.NoError(t, deps.NewInstaller(fake, true).Ensure(context.Background(), []string{"curl", "jq", "tmux"}))
	require.Empty(t, fake.Calls())
}

func TestEnsureInstallsMissing(t *testing.T) {
	fake := runnertest.New("curl")

	i := deps.NewInstaller(fake, true)
	require.Equal(t, []string{"jq", "tmux"}, i.Missing([]string{"curl", "jq", "tmux"}))
	require.NoError(t, i.Ensure(context.Background(), []string{"curl", "jq", "tmux"}))
	require.Equal(t, []string{
		"sudo apt update",
		"sudo apt install -y jq",
		"sudo apt install -y tmux",
	}, fake.Commands())
}

func TestEnsureWithoutSudo(t *testing.T) {
	fake := runnertest.New()

	require.NoError(t, deps.NewInstaller(fake, false).Ensure(context.Background(), []string{"g++"}))
	require.Equal(t, []string{"apt update", "apt install -y g++"}, fake.Commands())
}

func TestEnsureInstallFailure(t *testing.T) {
	fake := runnertest.New()
	fake.Handler = func(c runner.Cmd) ([]byte, error) {
		if c.Args[len(c.Args)-1] == "jq" {
			return nil, runnertest.Fail(c, 100)
		}
		return nil, nil
	}

	err := deps.NewInstaller(fake, true).Ensure(context.Background(), []string{"jq", "tmux"})
	require.ErrorContains(t, err, "install jq")
	require.False(t, fake.Ran("sudo apt install -y tmux"), "must stop at the first failure")
}
