package runner_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mauiiK/cosmos-p2p-bootstrapper/runner"
)

func TestExecRun(t *testing.T) {
	var out bytes.Buffer
	r := runner.New(strings.NewReader(""), &out, &out)

	require.NoError(t, r.Run(context.Background(), runner.Command("sh", "-c", "echo hello")))
	require.Equal(t, "hello\n", out.String())
}

func TestExecRunQuiet(t *testing.T) {
	var out bytes.Buffer
	r := runner.New(strings.NewReader(""), &out, &out)

	c := runner.Command("sh", "-c", "echo hidden")
	c.Quiet = true
	require.NoError(t, r.Run(context.Background(), c))
	require.Empty(t, out.String())
}

func TestExecOutputStdin(t *testing.T) {
	r := runner.New(strings.NewReader("unused"), nil, nil)

	c := runner.Command("cat")
	c.Stdin = strings.NewReader("from stdin")
	b, err := r.Output(context.Background(), c)
	require.NoError(t, err)
	require.Equal(t, "from stdin", string(b))
}

func TestExecDir(t *testing.T) {
	dir := t.TempDir()
	r := runner.New(nil, nil, nil)

	c := runner.Command("pwd")
	c.Dir = dir
	b, err := r.Output(context.Background(), c)
	require.NoError(t, err)
	require.Contains(t, string(b), dir)
}

func TestExecExitError(t *testing.T) {
	r := runner.New(nil, nil, nil)

	_, err := r.Output(context.Background(), runner.Command("sh", "-c", "echo boom >&2; exit 3"))
	require.Error(t, err)
	require.True(t, runner.IsExitError(err))

	var ee *runner.ExitError
	require.ErrorAs(t, err, &ee)
	require.Equal(t, 3, ee.Code)
	require.Equal(t, "boom", ee.Stderr)
}

func TestExecNotFound(t *testing.T) {
	r := runner.New(nil, nil, nil)

	err := r.Run(context.Background(), runner.Command("definitely-not-a-real-tool-4242"))
	require.Error(t, err)
	require.False(t, runner.IsExitError(err))

	_, err = r.LookPath("definitely-not-a-real-tool-4242")
	require.Error(t, err)
}

func TestCmdString(t *testing.T) {
	require.Equal(t, "tmux has-session -t gaia_node", runner.Command("tmux", "has-session", "-t", "gaia_node").String())
	require.Equal(t, "make", runner.Command("make").String())
}
