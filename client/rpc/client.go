package rpc

import (
	"context"
	"fmt"
	"time"

	rpchttp "github.com/cometbft/cometbft/rpc/client/http"
)

// Client wraps the CometBFT RPC HTTP client.
type Client struct {
	*rpchttp.HTTP
	timeout time.Duration
}

// NewClient creates a RPC client for rpcURL. timeout is in seconds and bounds
// every request.
func NewClient(rpcURL string, timeout int64) (*Client, error) {
	c, err := rpchttp.NewWithTimeout(rpcURL, "/websocket", uint(timeout))
	if err != nil {
		return nil, fmt.Errorf("new rpc client: %w", err)
	}

	return &Client{
		HTTP:    c,
		timeout: time.Duration(timeout) * time.Second,
	}, nil
}

// LatestHeight returns sync_info.latest_block_height from /status.
func (c *Client) LatestHeight(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	status, err := c.Status(ctx)
	if err != nil {
		return 0, err
	}
	return status.SyncInfo.LatestBlockHeight, nil
}

// BlockHash returns block_id.hash of the block at height from /block.
func (c *Client) BlockHash(ctx context.Context, height int64) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	block, err := c.Block(ctx, &height)
	if err != nil {
		return "", err
	}
	return block.BlockID.Hash.String(), nil
}
