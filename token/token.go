package token

import (
	"errors"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

var (
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrNotMinter           = errors.New("caller is not minter/burner")
	ErrNotOwner            = errors.New("caller is not the token owner")
	ErrOverflow            = errors.New("amount overflows uint256")
	ErrUnknownToken        = errors.New("unknown token")
)

// Store persists a token ledger. Every change is one holder balance together
// with the new total supply.
type Store interface {
	Load() (balances map[common.Address]*uint256.Int, supply *uint256.Int, err error)
	Save(holder common.Address, balance, supply *uint256.Int) error
}

// Token is a mintable/burnable fungible token ledger. Mint and burn are
// restricted to operators registered by the owner (the bridge, usually).
type Token struct {
	Name    string
	Symbol  string
	Address common.Address
	Owner   common.Address

	mu          sync.RWMutex
	balances    map[common.Address]*uint256.Int
	totalSupply *uint256.Int
	minters     map[common.Address]bool
	store       Store // nil keeps the ledger in memory only
}

func New(name, symbol string, address, owner common.Address) *Token {
	return &Token{
		Name:        name,
		Symbol:      symbol,
		Address:     address,
		Owner:       owner,
		balances:    make(map[common.Address]*uint256.Int),
		totalSupply: new(uint256.Int),
		minters:     map[common.Address]bool{owner: true},
	}
}

// UseStore restores the ledger saved in store and writes every later change
// through to it. Call it before the token is used.
func (t *Token) UseStore(store Store) error {
	balances, supply, err := store.Load()
	if err != nil {
		return fmt.Errorf("cannot load %s ledger: %w", t.Symbol, err)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.balances = balances
	if t.balances == nil {
		t.balances = make(map[common.Address]*uint256.Int)
	}
	t.totalSupply = supply
	if t.totalSupply == nil {
		t.totalSupply = new(uint256.Int)
	}
	t.store = store
	return nil
}

// set updates holder and supply, the store first.
func (t *Token) set(holder common.Address, balance, supply *uint256.Int) error {
	if t.store != nil {
		if err := t.store.Save(holder, balance, supply); err != nil {
			return fmt.Errorf("cannot save %s ledger: %w", t.Symbol, err)
		}
	}
	t.balances[holder] = balance
	t.totalSupply = supply
	return nil
}

func (t *Token) SetMinterBurner(caller, operator common.Address) error {
	if caller != t.Owner {
		return ErrNotOwner
	}
	t.mu.Lock()
	t.minters[operator] = true
	t.mu.Unlock()
	return nil
}

func (t *Token) IsMinterBurner(operator common.Address) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.minters[operator]
}

func (t *Token) Mint(operator, to common.Address, amount *uint256.Int) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.minters[operator] {
		return ErrNotMinter
	}

	supply, overflow := new(uint256.Int).AddOverflow(t.totalSupply, amount)
	if overflow {
		return ErrOverflow
	}
	// balance <= supply, so it cannot overflow when supply does not
	return t.set(to, new(uint256.Int).Add(t.balanceOf(to), amount), supply)
}

func (t *Token) Burn(operator, holder common.Address, amount *uint256.Int) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.minters[operator] {
		return ErrNotMinter
	}

	balance := t.balanceOf(holder)
	if balance.Lt(amount) {
		return fmt.Errorf("%w: %s has %s, needs %s", ErrInsufficientBalance, holder.Hex(), balance.Dec(), amount.Dec())
	}
	return t.set(holder, new(uint256.Int).Sub(balance, amount), new(uint256.Int).Sub(t.totalSupply, amount))
}

func (t *Token) BalanceOf(holder common.Address) *uint256.Int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.balanceOf(holder).Clone()
}

func (t *Token) balanceOf(holder common.Address) *uint256.Int {
	if b, ok := t.balances[holder]; ok {
		return b
	}
	return new(uint256.Int)
}

func (t *Token) TotalSupply() *uint256.Int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.totalSupply.Clone()
}
