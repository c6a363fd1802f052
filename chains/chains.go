package chains

import (
	"errors"
	"fmt"
	"sort"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"go.uber.org/zap"

	"gojedibridge/bridge"
	"gojedibridge/config"
	"gojedibridge/redis"
	"gojedibridge/token"
)

var (
	ErrUnknownChain = errors.New("unknown chain")
	ErrNoRoute      = errors.New("no destination token for route")
)

// Chain is one bridge deployment with the tokens living on its chain.
type Chain struct {
	ID     uint64
	Name   string
	Bridge *bridge.Bridge
	Bank   *token.Bank
}

// Network holds every chain deployment served by this process.
type Network struct {
	chains map[uint64]*Chain
}

func NewNetwork(chains ...*Chain) *Network {
	n := &Network{chains: make(map[uint64]*Chain)}
	for _, c := range chains {
		n.chains[c.ID] = c
	}
	return n
}

func (n *Network) Chain(chainID uint64) (*Chain, error) {
	c, ok := n.chains[chainID]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownChain, chainID)
	}
	return c, nil
}

// IDs in ascending order.
func (n *Network) IDs() []uint64 {
	ids := make([]uint64, 0, len(n.chains))
	for id := range n.chains {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// WithChain runs f against the deployment of chainID.
func WithChain[T any](n *Network, chainID uint64, f func(c *Chain) (T, error)) (res T, err error) {
	c, err := n.Chain(chainID)
	if err != nil {
		return res, err
	}
	return f(c)
}

// RouteToken finds the token on chainTo paired with token on chainFrom:
// the one with the same symbol.
func (n *Network) RouteToken(chainFrom uint64, tok common.Address, chainTo uint64) (common.Address, error) {
	src, err := n.Chain(chainFrom)
	if err != nil {
		return common.Address{}, err
	}
	dst, err := n.Chain(chainTo)
	if err != nil {
		return common.Address{}, err
	}

	t, err := src.Bank.Token(tok)
	if err != nil {
		return common.Address{}, err
	}
	for _, candidate := range dst.Bank.Tokens() {
		if candidate.Symbol == t.Symbol {
			return candidate.Address, nil
		}
	}
	return common.Address{}, fmt.Errorf("%w: %s from chain %d to chain %d", ErrNoRoute, t.Symbol, chainFrom, chainTo)
}

// Build deploys the configured chains. Each gets its own store, token bank and
// bridge; the bridge is made minter/burner of its tokens and the configured
// whitelists are applied with the owner's rights.
func Build(cfg *config.Configuration, rdb *redis.Client, logger *zap.SugaredLogger) (*Network, error) {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	validator := common.HexToAddress(cfg.Validator.PublicAddress)
	n := NewNetwork()

	for _, chCfg := range cfg.Chains {
		owner := common.HexToAddress(chCfg.Owner)

		bridgeAddress := crypto.CreateAddress(owner, chCfg.ChainID)
		if chCfg.BridgeAddress != "" {
			bridgeAddress = common.HexToAddress(chCfg.BridgeAddress)
		}

		var store bridge.Store
		if cfg.Server.Store == config.STORE_MEMORY {
			store = bridge.NewMemoryStore()
		} else {
			if rdb == nil {
				return nil, errors.New("redis store configured without a redis client")
			}
			store = rdb.BridgeStore(chCfg.ChainID)
		}

		bank := token.NewBank()
		b := bridge.New(bridge.Config{
			ChainID:   chCfg.ChainID,
			Address:   bridgeAddress,
			Owner:     owner,
			Validator: validator,
		}, store, bank.Operator(bridgeAddress), logger)

		for _, tCfg := range chCfg.Tokens {
			var t *token.Token
			if tCfg.Address != "" {
				t = token.New(tCfg.Name, tCfg.Symbol, common.HexToAddress(tCfg.Address), owner)
				bank.Add(t)
			} else {
				t = bank.Deploy(tCfg.Name, tCfg.Symbol, owner)
			}
			if cfg.Server.Store == config.STORE_REDIS {
				if err := t.UseStore(rdb.TokenStore(chCfg.ChainID, t.Address)); err != nil {
					return nil, fmt.Errorf("chain %d: %w", chCfg.ChainID, err)
				}
			}
			if err := t.SetMinterBurner(owner, bridgeAddress); err != nil {
				return nil, err
			}
			if tCfg.Include {
				if err := b.IncludeToken(owner, t.Address); err != nil {
					return nil, fmt.Errorf("chain %d: cannot include %s: %w", chCfg.ChainID, tCfg.Symbol, err)
				}
			}
			logger.Infof("Chain %s(%d): token %s at %s", chCfg.Name, chCfg.ChainID, t.Symbol, t.Address.Hex())
		}

		for _, dest := range chCfg.DestChains {
			if err := b.UpdateChainByID(owner, dest); err != nil {
				return nil, fmt.Errorf("chain %d: cannot include chain %d: %w", chCfg.ChainID, dest, err)
			}
		}

		n.chains[chCfg.ChainID] = &Chain{
			ID:     chCfg.ChainID,
			Name:   chCfg.Name,
			Bridge: b,
			Bank:   bank,
		}
		logger.Infof("Chain %s(%d): bridge %s, owner %s, validator %s", chCfg.Name, chCfg.ChainID, bridgeAddress.Hex(), owner.Hex(), validator.Hex())
	}

	return n, nil
}
