package redis

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gomodule/redigo/redis"

	"gojedibridge/bridge"
	"gojedibridge/types"
)

// nonce increment and log append in one step, the nonce starts at 0
var appendSwapScript = redis.NewScript(2, `
local n = redis.call('INCR', KEYS[1]) - 1
redis.call('HSET', KEYS[2], tostring(n), ARGV[1])
return n
`)

// chainStore keeps the state of one bridge instance under bridge:<chainID>:
type chainStore struct {
	c      *Client
	prefix string
}

// BridgeStore returns the persistent store of the bridge running as chainID.
func (c *Client) BridgeStore(chainID uint64) bridge.Store {
	return &chainStore{c: c, prefix: fmt.Sprintf("bridge:%d:", chainID)}
}

var _ bridge.Store = (*chainStore)(nil)

func (s *chainStore) key(name string) string { return s.prefix + name }

func (s *chainStore) do(cmd string, args ...interface{}) (interface{}, error) {
	conn := s.c.pool.Get()
	defer conn.Close()

	reply, err := conn.Do(cmd, args...)
	if err != nil {
		s.c.log.Errorf("error Redis %s: %s", cmd, err)
	}
	return reply, err
}

func (s *chainStore) AddToken(token common.Address) error {
	_, err := s.do("SADD", s.key("tokens"), token.Hex())
	return err
}

func (s *chainStore) RemoveToken(token common.Address) error {
	_, err := s.do("SREM", s.key("tokens"), token.Hex())
	return err
}

func (s *chainStore) HasToken(token common.Address) (bool, error) {
	return redis.Bool(s.do("SISMEMBER", s.key("tokens"), token.Hex()))
}

func (s *chainStore) Tokens() ([]common.Address, error) {
	members, err := redis.Strings(s.do("SMEMBERS", s.key("tokens")))
	if err != nil {
		return nil, err
	}
	res := make([]common.Address, 0, len(members))
	for _, m := range members {
		res = append(res, common.HexToAddress(m))
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Cmp(res[j]) < 0 })
	return res, nil
}

func (s *chainStore) AddChain(chainID uint64) error {
	_, err := s.do("SADD", s.key("chains"), chainID)
	return err
}

func (s *chainStore) RemoveChain(chainID uint64) error {
	_, err := s.do("SREM", s.key("chains"), chainID)
	return err
}

func (s *chainStore) HasChain(chainID uint64) (bool, error) {
	return redis.Bool(s.do("SISMEMBER", s.key("chains"), chainID))
}

func (s *chainStore) Chains() ([]uint64, error) {
	members, err := redis.Strings(s.do("SMEMBERS", s.key("chains")))
	if err != nil {
		return nil, err
	}
	res := make([]uint64, 0, len(members))
	for _, m := range members {
		id, err := strconv.ParseUint(m, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("corrupt chain id %q: %w", m, err)
		}
		res = append(res, id)
	}
	sort.Slice(res, func(i, j int) bool { return res[i] < res[j] })
	return res, nil
}

// AppendSwap stores the record under the next nonce; the nonce field of the
// stored JSON is not authoritative, the hash field is.
func (s *chainStore) AppendSwap(rec *types.SwapRecord) (uint64, error) {
	recJSON, err := json.Marshal(rec)
	if err != nil {
		return 0, fmt.Errorf("cannot marshal swap record to JSON: %w", err)
	}

	conn := s.c.pool.Get()
	defer conn.Close()

	nonce, err := redis.Uint64(appendSwapScript.Do(conn, s.key("nonce"), s.key("swaps"), recJSON))
	if err != nil {
		s.c.log.Errorf("error Redis append swap: %s", err)
		return 0, err
	}
	return nonce, nil
}

func (s *chainStore) SwapByNonce(nonce uint64) (*types.SwapRecord, error) {
	recJSON, err := redis.Bytes(s.do("HGET", s.key("swaps"), nonce))
	if errors.Is(err, redis.ErrNil) {
		return nil, bridge.ErrSwapNotFound
	}
	if err != nil {
		return nil, err
	}

	var rec types.SwapRecord
	if err := json.Unmarshal(recJSON, &rec); err != nil {
		return nil, err
	}
	rec.Nonce = nonce
	return &rec, nil
}

func (s *chainStore) NextNonce() (uint64, error) {
	next, err := redis.Uint64(s.do("GET", s.key("nonce")))
	if errors.Is(err, redis.ErrNil) {
		return 0, nil
	}
	return next, err
}

func (s *chainStore) IsConsumed(digest common.Hash) (bool, error) {
	return redis.Bool(s.do("SISMEMBER", s.key("consumed"), digest.Hex()))
}

// Consume relies on SADD reporting 1 only to the first writer.
func (s *chainStore) Consume(digest common.Hash) (bool, error) {
	added, err := redis.Int(s.do("SADD", s.key("consumed"), digest.Hex()))
	if err != nil {
		return false, err
	}
	return added == 1, nil
}

func (s *chainStore) Release(digest common.Hash) error {
	_, err := s.do("SREM", s.key("consumed"), digest.Hex())
	return err
}
