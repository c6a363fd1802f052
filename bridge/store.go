package bridge

import (
	"sort"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"gojedibridge/types"
)

// Store is the persistent state of one bridge instance.
// AppendSwap must assign the nonce and append the record as one step, and
// Consume must insert only if absent, reporting whether it inserted.
type Store interface {
	AddToken(token common.Address) error
	RemoveToken(token common.Address) error
	HasToken(token common.Address) (bool, error)
	Tokens() ([]common.Address, error)

	AddChain(chainID uint64) error
	RemoveChain(chainID uint64) error
	HasChain(chainID uint64) (bool, error)
	Chains() ([]uint64, error)

	AppendSwap(rec *types.SwapRecord) (uint64, error)
	SwapByNonce(nonce uint64) (*types.SwapRecord, error)
	NextNonce() (uint64, error)

	IsConsumed(digest common.Hash) (bool, error)
	Consume(digest common.Hash) (bool, error)
	Release(digest common.Hash) error
}

type memoryStore struct {
	mu       sync.RWMutex
	tokens   map[common.Address]struct{}
	chains   map[uint64]struct{}
	swaps    []types.SwapRecord
	consumed map[common.Hash]struct{}
}

// NewMemoryStore keeps the state in process memory.
func NewMemoryStore() Store {
	return &memoryStore{
		tokens:   make(map[common.Address]struct{}),
		chains:   make(map[uint64]struct{}),
		consumed: make(map[common.Hash]struct{}),
	}
}

func (m *memoryStore) AddToken(token common.Address) error {
	m.mu.Lock()
	m.tokens[token] = struct{}{}
	m.mu.Unlock()
	return nil
}

func (m *memoryStore) RemoveToken(token common.Address) error {
	m.mu.Lock()
	delete(m.tokens, token)
	m.mu.Unlock()
	return nil
}

func (m *memoryStore) HasToken(token common.Address) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.tokens[token]
	return ok, nil
}

func (m *memoryStore) Tokens() ([]common.Address, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]common.Address, 0, len(m.tokens))
	for t := range m.tokens {
		res = append(res, t)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Cmp(res[j]) < 0 })
	return res, nil
}

func (m *memoryStore) AddChain(chainID uint64) error {
	m.mu.Lock()
	m.chains[chainID] = struct{}{}
	m.mu.Unlock()
	return nil
}

func (m *memoryStore) RemoveChain(chainID uint64) error {
	m.mu.Lock()
	delete(m.chains, chainID)
	m.mu.Unlock()
	return nil
}

func (m *memoryStore) HasChain(chainID uint64) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.chains[chainID]
	return ok, nil
}

func (m *memoryStore) Chains() ([]uint64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]uint64, 0, len(m.chains))
	for c := range m.chains {
		res = append(res, c)
	}
	sort.Slice(res, func(i, j int) bool { return res[i] < res[j] })
	return res, nil
}

func (m *memoryStore) AppendSwap(rec *types.SwapRecord) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	nonce := uint64(len(m.swaps))
	stored := *rec
	stored.Nonce = nonce
	stored.Value = rec.Value.Clone()
	m.swaps = append(m.swaps, stored)
	return nonce, nil
}

func (m *memoryStore) SwapByNonce(nonce uint64) (*types.SwapRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if nonce >= uint64(len(m.swaps)) {
		return nil, ErrSwapNotFound
	}
	rec := m.swaps[nonce]
	rec.Value = rec.Value.Clone()
	return &rec, nil
}

func (m *memoryStore) NextNonce() (uint64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return uint64(len(m.swaps)), nil
}

func (m *memoryStore) IsConsumed(digest common.Hash) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.consumed[digest]
	return ok, nil
}

func (m *memoryStore) Consume(digest common.Hash) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.consumed[digest]; ok {
		return false, nil
	}
	m.consumed[digest] = struct{}{}
	return true, nil
}

func (m *memoryStore) Release(digest common.Hash) error {
	m.mu.Lock()
	delete(m.consumed, digest)
	m.mu.Unlock()
	return nil
}
