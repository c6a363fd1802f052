package token

import (
	"fmt"
	"sort"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
)

// Bank holds the tokens deployed on one chain, by address.
type Bank struct {
	mu     sync.RWMutex
	tokens map[common.Address]*Token
	issued uint64
}

func NewBank() *Bank {
	return &Bank{tokens: make(map[common.Address]*Token)}
}

// Deploy creates a token whose address is derived from the owner and the
// number of tokens deployed so far, like a contract creation address.
func (b *Bank) Deploy(name, symbol string, owner common.Address) *Token {
	b.mu.Lock()
	defer b.mu.Unlock()

	address := crypto.CreateAddress(owner, b.issued)
	b.issued++
	t := New(name, symbol, address, owner)
	b.tokens[address] = t
	return t
}

// Add registers an existing token, e.g. one with a configured address.
func (b *Bank) Add(t *Token) {
	b.mu.Lock()
	b.tokens[t.Address] = t
	b.mu.Unlock()
}

func (b *Bank) Token(address common.Address) (*Token, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	t, ok := b.tokens[address]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownToken, address.Hex())
	}
	return t, nil
}

func (b *Bank) Tokens() []*Token {
	b.mu.RLock()
	defer b.mu.RUnlock()
	res := make([]*Token, 0, len(b.tokens))
	for _, t := range b.tokens {
		res = append(res, t)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Symbol < res[j].Symbol })
	return res
}

// Operator returns a ledger acting with the rights of operator: debit burns
// and credit mints. The bridge instance uses it as its token collaborator.
func (b *Bank) Operator(operator common.Address) *Ledger {
	return &Ledger{bank: b, operator: operator}
}

type Ledger struct {
	bank     *Bank
	operator common.Address
}

func (l *Ledger) Debit(token, holder common.Address, amount *uint256.Int) error {
	t, err := l.bank.Token(token)
	if err != nil {
		return err
	}
	return t.Burn(l.operator, holder, amount)
}

func (l *Ledger) Credit(token, holder common.Address, amount *uint256.Int) error {
	t, err := l.bank.Token(token)
	if err != nil {
		return err
	}
	return t.Mint(l.operator, holder, amount)
}
