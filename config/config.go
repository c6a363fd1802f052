package config

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

type Configuration struct {
	// Server config
	Server struct {
		UseSSL    bool   `yaml:"ssl" envconfig:"SSL"`
		Port      int    `yaml:"port"`
		RedisPort int    `yaml:"redis_port" envconfig:"REDIS_PORT"`
		RedisHost string `yaml:"redis_host" envconfig:"REDIS_HOST"`
		Store     string `yaml:"store"` // "redis" or "memory"
		LogDir    string `yaml:"log_dir" envconfig:"LOG_DIR"`
	} `yaml:"server"`
	// validator signing key, both chains trust its address
	Validator struct {
		PublicAddress string `yaml:"address"`
		// important private stuff, better passed as BRIDGE_VALIDATOR_PRIVATE_KEY
		PrivateKey string `yaml:"private_key" envconfig:"PRIVATE_KEY"`
	} `yaml:"validator"`
	Chains []ChainConfig `yaml:"chains" ignored:"true"`
	// faucet endpoint mints test tokens, devnets only
	Faucet              bool `yaml:"faucet"`
	RelayRetries        uint `yaml:"relay_retries" envconfig:"RELAY_RETRIES"`
	ScanIntervalSeconds int  `yaml:"scan_interval" envconfig:"SCAN_INTERVAL"`
}

// ChainConfig describes one bridge deployment served by this process.
type ChainConfig struct {
	Name          string        `yaml:"name"`
	ChainID       uint64        `yaml:"chain_id"`
	Owner         string        `yaml:"owner"`
	BridgeAddress string        `yaml:"bridge_address"` // derived from owner when empty
	Tokens        []TokenConfig `yaml:"tokens"`
	DestChains    []uint64      `yaml:"dest_chains"` // whitelisted at startup
}

// TokenConfig is a token deployed on a chain. Tokens with the same symbol on
// two chains are the two sides of a bridged pair.
type TokenConfig struct {
	Name    string `yaml:"name"`
	Symbol  string `yaml:"symbol"`
	Address string `yaml:"address"` // derived from owner when empty
	Include bool   `yaml:"include"` // whitelist at startup
}

var Config Configuration

const (
	STORE_REDIS  = "redis"
	STORE_MEMORY = "memory"
)

func setDefaults(cfg *Configuration) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.Store == "" {
		cfg.Server.Store = STORE_REDIS
	}
	if cfg.Server.LogDir == "" {
		cfg.Server.LogDir = "logs"
	}
	if cfg.RelayRetries == 0 {
		cfg.RelayRetries = 3
	}
	if cfg.ScanIntervalSeconds == 0 {
		cfg.ScanIntervalSeconds = 3
	}
}

func (cfg *Configuration) Validate() error {
	if cfg.Server.Store != STORE_REDIS && cfg.Server.Store != STORE_MEMORY {
		return fmt.Errorf("unknown store %q", cfg.Server.Store)
	}
	if !common.IsHexAddress(cfg.Validator.PublicAddress) {
		return fmt.Errorf("invalid validator address %q", cfg.Validator.PublicAddress)
	}
	if len(cfg.Chains) == 0 {
		return errors.New("no chains configured")
	}

	seen := make(map[uint64]bool)
	for _, ch := range cfg.Chains {
		if seen[ch.ChainID] {
			return fmt.Errorf("chain %d configured twice", ch.ChainID)
		}
		seen[ch.ChainID] = true

		if !common.IsHexAddress(ch.Owner) {
			return fmt.Errorf("chain %d: invalid owner address %q", ch.ChainID, ch.Owner)
		}
		if ch.BridgeAddress != "" && !common.IsHexAddress(ch.BridgeAddress) {
			return fmt.Errorf("chain %d: invalid bridge address %q", ch.ChainID, ch.BridgeAddress)
		}
		symbols := make(map[string]bool)
		for _, t := range ch.Tokens {
			if t.Symbol == "" {
				return fmt.Errorf("chain %d: token without symbol", ch.ChainID)
			}
			if symbols[t.Symbol] {
				return fmt.Errorf("chain %d: token %s configured twice", ch.ChainID, t.Symbol)
			}
			symbols[t.Symbol] = true
			if t.Address != "" && !common.IsHexAddress(t.Address) {
				return fmt.Errorf("chain %d: invalid %s token address %q", ch.ChainID, t.Symbol, t.Address)
			}
		}
	}
	return nil
}

// Chain returns the configuration of chainID.
func (cfg *Configuration) Chain(chainID uint64) (ChainConfig, bool) {
	for _, ch := range cfg.Chains {
		if ch.ChainID == chainID {
			return ch, true
		}
	}
	return ChainConfig{}, false
}
