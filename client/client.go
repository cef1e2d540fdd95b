package client

import (
	"github.com/mauiiK/cosmos-p2p-bootstrapper/client/rpc"
)

var (
	DefaultRPCTimeout = int64(5)
)

// Client is a wrapper for the clients talking to the remote chain.
type Client struct {
	RPC *rpc.Client
}

// NewClient creates a new Client with the given configuration.
// A non-positive timeout falls back to DefaultRPCTimeout.
func NewClient(rpcURL string, timeout int64) (*Client, error) {
	if timeout <= 0 {
		timeout = DefaultRPCTimeout
	}

	rpcClient, err := rpc.NewClient(rpcURL, timeout)
	if err != nil {
		return &Client{}, err
	}

	return &Client{
		RPC: rpcClient,
	}, nil
}

// GetRPCClient returns RPC client.
func (c *Client) GetRPCClient() *rpc.Client {
	return c.RPC
}

// Stop stops the RPC client's websocket events service if it was started.
func (c *Client) Stop() error {
	if c.RPC == nil || !c.RPC.IsRunning() {
		return nil
	}
	return c.RPC.Stop()
}
