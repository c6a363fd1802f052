package handlers

import (
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"gojedibridge/chains"
	"gojedibridge/redis"
)

// API serves the bridge deployments of the network over HTTP.
type API struct {
	network *chains.Network
	rdb     *redis.Client
	faucet  bool
	log     *zap.SugaredLogger
}

func New(network *chains.Network, rdb *redis.Client, faucet bool, logger *zap.SugaredLogger) *API {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &API{
		network: network,
		rdb:     rdb,
		faucet:  faucet,
		log:     logger.With("worker", "http"),
	}
}

func parseUint(s, name string) (uint64, error) {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid %s %q", errBadRequest, name, s)
	}
	return v, nil
}
