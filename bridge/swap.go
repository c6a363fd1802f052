package bridge

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"gojedibridge/types"
)

// Swap burns value of token from the sender and records the transfer for the
// validator. The nonce is assigned only after every check and the debit
// succeeded, so failed swaps never leave a gap.
func (b *Bridge) Swap(from, to, token common.Address, value *uint256.Int, chainTo uint64) (*types.SwapRecord, error) {
	rec, err := b.swap(from, to, token, value, chainTo)
	if err != nil {
		return nil, err
	}

	b.log.Infof("SwapInitialized nonce %d: %s -> %s on chain %d, %s of %s",
		rec.Nonce, rec.From.Hex(), rec.To.Hex(), rec.ChainTo, rec.Value.Dec(), rec.Token.Hex())
	b.swapFeed.Send(rec)
	return rec, nil
}

func (b *Bridge) swap(from, to, token common.Address, value *uint256.Int, chainTo uint64) (*types.SwapRecord, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ok, err := b.store.HasToken(token)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTokenNotWhitelisted, token.Hex())
	}

	ok, err = b.store.HasChain(chainTo)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrChainNotWhitelisted, chainTo)
	}

	if value == nil || value.IsZero() {
		return nil, ErrZeroAmount
	}

	if err := b.tokens.Debit(token, from, value); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidAmount, err)
	}

	rec := &types.SwapRecord{
		From:      from,
		To:        to,
		Token:     token,
		Value:     value.Clone(),
		ChainFrom: b.cfg.ChainID,
		ChainTo:   chainTo,
	}
	nonce, err := b.store.AppendSwap(rec)
	if err != nil {
		if cerr := b.tokens.Credit(token, from, value); cerr != nil {
			b.log.Errorf("Cannot give back %s of %s to %s after failed swap: %s", value.Dec(), token.Hex(), from.Hex(), cerr)
		}
		return nil, fmt.Errorf("cannot record swap: %w", err)
	}
	rec.Nonce = nonce
	return rec, nil
}
