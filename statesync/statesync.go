package statesync

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
)

// ChainClient queries the chain for the trust checkpoint.
type ChainClient interface {
	LatestHeight(ctx context.Context) (int64, error)
	BlockHash(ctx context.Context, height int64) (string, error)
}

// Params are the state sync values written into config.toml.
type Params struct {
	Enable       bool
	RPCServers   []string
	LatestHeight int64
	TrustHeight  int64
	TrustHash    string
}

// RPCServersValue renders RPCServers the way CometBFT expects them:
// a single comma separated string.
func (p Params) RPCServersValue() string {
	return strings.Join(p.RPCServers, ",")
}

// TrustHeight picks a recent but settled block. There is no lower bound:
// a chain younger than offset yields zero or a negative height.
func TrustHeight(latest, offset int64) int64 {
	return latest - offset
}

// Derive queries rpc for its latest height and the hash of the block offset
// blocks earlier. The endpoint is listed twice in RPCServers because the light
// client requires at least two servers.
func Derive(ctx context.Context, c ChainClient, rpcURL string, offset int64) (Params, error) {
	latest, err := c.LatestHeight(ctx)
	if err != nil {
		return Params{}, fmt.Errorf("get latest height: %w", err)
	}

	trustHeight := TrustHeight(latest, offset)
	if trustHeight <= 0 {
		log.Warn().Int64("latest", latest).Int64("offset", offset).Msg("trust height is not positive, state sync will likely fail")
	}

	hash, err := c.BlockHash(ctx, trustHeight)
	if err != nil {
		return Params{}, fmt.Errorf("get block hash at height %d: %w", trustHeight, err)
	}

	log.Info().Msgf("Latest height: %d", latest)
	log.Info().Msgf("Using trust_height: %d", trustHeight)
	log.Info().Msgf("Using trust_hash: %s", hash)

	return Params{
		Enable:       true,
		RPCServers:   []string{rpcURL, rpcURL},
		LatestHeight: latest,
		TrustHeight:  trustHeight,
		TrustHash:    hash,
	}, nil
}
