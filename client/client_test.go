package client_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mauiiK/cosmos-p2p-bootstrapper/client"
)

func TestNewClient(t *testing.T) {
	c, err := client.NewClient("http://127.0.0.1:26657", 0)
	require.NoError(t, err)
	require.NotNil(t, c.GetRPCClient())

	// never started, so stopping is a no-op
	require.NoError(t, c.Stop())
}

func TestNewClientBadURL(t *testing.T) {
	_, err := client.NewClient("://missing-scheme", 5)
	require.Error(t, err)
}
