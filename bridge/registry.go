package bridge

import (
	"github.com/ethereum/go-ethereum/common"
)

// IncludeToken whitelists a token; including twice has no further effect.
func (b *Bridge) IncludeToken(caller, token common.Address) error {
	if err := RequireOwner(caller, b.cfg.Owner); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.store.AddToken(token); err != nil {
		return err
	}
	b.log.Infof("Included token %s", token.Hex())
	return nil
}

func (b *Bridge) ExcludeToken(caller, token common.Address) error {
	if err := RequireOwner(caller, b.cfg.Owner); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.store.RemoveToken(token); err != nil {
		return err
	}
	b.log.Infof("Excluded token %s", token.Hex())
	return nil
}

func (b *Bridge) IsTokenIncluded(token common.Address) (bool, error) {
	return b.store.HasToken(token)
}

func (b *Bridge) Tokens() ([]common.Address, error) {
	return b.store.Tokens()
}

// UpdateChainByID whitelists a destination chain id.
func (b *Bridge) UpdateChainByID(caller common.Address, chainID uint64) error {
	if err := RequireOwner(caller, b.cfg.Owner); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.store.AddChain(chainID); err != nil {
		return err
	}
	b.log.Infof("Included chain %d", chainID)
	return nil
}

func (b *Bridge) RemoveChainByID(caller common.Address, chainID uint64) error {
	if err := RequireOwner(caller, b.cfg.Owner); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.store.RemoveChain(chainID); err != nil {
		return err
	}
	b.log.Infof("Removed chain %d", chainID)
	return nil
}

func (b *Bridge) IsChainIncluded(chainID uint64) (bool, error) {
	return b.store.HasChain(chainID)
}

func (b *Bridge) Chains() ([]uint64, error) {
	return b.store.Chains()
}
