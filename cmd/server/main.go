package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"gojedibridge/attestation"
	"gojedibridge/chains"
	"gojedibridge/config"
	"gojedibridge/redis"
	"gojedibridge/workers"
)

func newLogger(dir string) (*zap.SugaredLogger, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.OutputPaths = []string{
		"stdout",
		filepath.Join(dir, fmt.Sprintf("log_%s.txt", time.Now().Format("2006-01-02"))),
	}
	logger, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return logger.Sugar(), nil
}

func main() {
	config.Init("config.yml")
	cfg := &config.Config

	log, err := newLogger(cfg.Server.LogDir)
	if err != nil {
		fmt.Printf("error opening log file for writing: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	log.Info("Starting lock/mint bridge")

	signer, err := attestation.NewSignerFromHex(cfg.Validator.PrivateKey)
	if err != nil {
		log.Fatalf("Cannot load validator key: %s", err)
	}
	if signer.Address() != common.HexToAddress(cfg.Validator.PublicAddress) {
		log.Fatalf("Validator key is for %s, configured validator is %s", signer.Address().Hex(), cfg.Validator.PublicAddress)
	}

	// the operations journal always lives in redis, the memory store keeps
	// it in an embedded server that is gone on exit
	var rdb *redis.Client
	if cfg.Server.Store == config.STORE_MEMORY {
		mr, err := miniredis.Run()
		if err != nil {
			log.Fatalf("Cannot start embedded redis: %s", err)
		}
		defer mr.Close()
		rdb = redis.NewAddr(mr.Addr(), log)
	} else {
		rdb = redis.New(cfg.Server.RedisHost, cfg.Server.RedisPort, log)
	}
	defer rdb.Close()

	// without persistence do not continue
	if err := rdb.Ping(); err != nil {
		log.Fatalf("Cannot connect to redis: %s", err)
	}

	network, err := chains.Build(cfg, rdb, log)
	if err != nil {
		log.Fatalf("Cannot deploy chains: %s", err)
	}

	env := &workers.Env{
		Config:  cfg,
		Network: network,
		Redis:   rdb,
		Signer:  signer,
		Log:     log,
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// worker threads:
	// * one validator per chain, attesting its swaps
	// * the relayer, redeeming attested swaps on their destination
	// * confirmations, closing operations redeemed by their users
	// * the API server (serves as main worker thread)
	var wg sync.WaitGroup
	for _, id := range network.IDs() {
		wg.Add(1)
		go func(id uint64) {
			defer wg.Done()
			workers.Worker_validator(ctx, env, id)
		}(id)
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		workers.Worker_relayer(ctx, env)
	}()
	wg.Add(1)
	go func() {
		defer wg.Done()
		workers.Worker_confirmations(ctx, env)
	}()

	if err := workers.Worker_HTTP(ctx, stop, env); err != nil {
		log.Errorf("HTTP service: %s", err)
	}
	wg.Wait()
	log.Info("Bridge stopped")
}
