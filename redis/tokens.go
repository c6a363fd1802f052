package redis

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gomodule/redigo/redis"
	"github.com/holiman/uint256"

	"gojedibridge/token"
)

// tokenStore keeps one token ledger under bridge:<chainID>:token:<address>:
// as a balances hash (holder -> decimal) and a supply key.
type tokenStore struct {
	c      *Client
	prefix string
}

// TokenStore returns the persistent ledger of the token at address on chainID.
func (c *Client) TokenStore(chainID uint64, address common.Address) token.Store {
	return &tokenStore{c: c, prefix: fmt.Sprintf("bridge:%d:token:%s:", chainID, address.Hex())}
}

var _ token.Store = (*tokenStore)(nil)

func (s *tokenStore) Load() (map[common.Address]*uint256.Int, *uint256.Int, error) {
	conn := s.c.pool.Get()
	defer conn.Close()

	raw, err := redis.StringMap(conn.Do("HGETALL", s.prefix+"balances"))
	if err != nil {
		s.c.log.Errorf("error Redis HGETALL: %s", err)
		return nil, nil, err
	}
	balances := make(map[common.Address]*uint256.Int, len(raw))
	for holder, dec := range raw {
		v, err := uint256.FromDecimal(dec)
		if err != nil {
			return nil, nil, fmt.Errorf("corrupt balance of %s: %w", holder, err)
		}
		balances[common.HexToAddress(holder)] = v
	}

	supply := new(uint256.Int)
	dec, err := redis.String(conn.Do("GET", s.prefix+"supply"))
	switch {
	case errors.Is(err, redis.ErrNil):
	case err != nil:
		s.c.log.Errorf("error Redis GET: %s", err)
		return nil, nil, err
	default:
		if supply, err = uint256.FromDecimal(dec); err != nil {
			return nil, nil, fmt.Errorf("corrupt supply: %w", err)
		}
	}
	return balances, supply, nil
}

func (s *tokenStore) Save(holder common.Address, balance, supply *uint256.Int) error {
	conn := s.c.pool.Get()
	defer conn.Close()

	conn.Send("MULTI")
	conn.Send("HSET", s.prefix+"balances", holder.Hex(), balance.Dec())
	conn.Send("SET", s.prefix+"supply", supply.Dec())
	if _, err := conn.Do("EXEC"); err != nil {
		s.c.log.Errorf("error Redis EXEC: %s", err)
		return err
	}
	return nil
}

// ClaimSwapRequest marks a signed swap request id of from as used. It reports
// false when the id was used before.
func (c *Client) ClaimSwapRequest(chainID uint64, from common.Address, requestID string) (bool, error) {
	conn := c.pool.Get()
	defer conn.Close()

	key := fmt.Sprintf("swaprequest:%d:%s:%s", chainID, from.Hex(), requestID)
	_, err := redis.String(conn.Do("SET", key, 1, "NX"))
	if errors.Is(err, redis.ErrNil) {
		return false, nil
	}
	if err != nil {
		c.log.Errorf("error Redis SET NX: %s", err)
		return false, err
	}
	return true, nil
}
