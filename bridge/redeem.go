package bridge

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"gojedibridge/attestation"
	"gojedibridge/types"
)

// Redeem mints value of token to `to` if sig is the validator's attestation of
// the swap (from, to, token, value, chainFrom, this chain, nonce) and that
// attestation was not redeemed before. Checks run cheapest first:
// whitelist, replay, signature.
func (b *Bridge) Redeem(from, to, token common.Address, value *uint256.Int, nonce, chainFrom uint64, sig types.Signature) (*types.SwapRecord, error) {
	if value == nil {
		return nil, ErrZeroAmount
	}
	rec := &types.SwapRecord{
		From:      from,
		To:        to,
		Token:     token,
		Value:     value.Clone(),
		ChainFrom: chainFrom,
		ChainTo:   b.cfg.ChainID,
		Nonce:     nonce,
	}
	digest, err := b.redeem(rec, sig)
	if err != nil {
		return nil, err
	}

	b.log.Infof("Redeemed %s (chain %d nonce %d): %s of %s to %s",
		digest.Hex(), chainFrom, nonce, value.Dec(), token.Hex(), to.Hex())
	b.redeemFeed.Send(&RedeemedEvent{Record: *rec, Digest: digest})
	return rec, nil
}

// RedeemAttestation is Redeem with the arguments taken from an attestation.
// The digest is rebuilt with this chain's id, so an attestation for another
// chain fails the signature check.
func (b *Bridge) RedeemAttestation(att *types.Attestation) (*types.SwapRecord, error) {
	r := att.Record
	return b.Redeem(r.From, r.To, r.Token, r.Value, r.Nonce, r.ChainFrom, att.Signature)
}

func (b *Bridge) redeem(rec *types.SwapRecord, sig types.Signature) (common.Hash, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ok, err := b.store.HasToken(rec.Token)
	if err != nil {
		return common.Hash{}, err
	}
	if !ok {
		return common.Hash{}, fmt.Errorf("%w: %s", ErrTokenNotWhitelisted, rec.Token.Hex())
	}

	digest := attestation.Digest(rec)
	consumed, err := b.store.IsConsumed(digest)
	if err != nil {
		return common.Hash{}, err
	}
	if consumed {
		return common.Hash{}, fmt.Errorf("%w: %s", ErrReplayRejected, digest.Hex())
	}

	if err := attestation.Verify(digest, sig, b.cfg.Validator); err != nil {
		return common.Hash{}, err
	}

	// the store may be shared with another process, only the first insert wins
	inserted, err := b.store.Consume(digest)
	if err != nil {
		return common.Hash{}, err
	}
	if !inserted {
		return common.Hash{}, fmt.Errorf("%w: %s", ErrReplayRejected, digest.Hex())
	}

	if err := b.tokens.Credit(rec.Token, rec.To, rec.Value); err != nil {
		if rerr := b.store.Release(digest); rerr != nil {
			b.log.Errorf("Cannot release %s after failed mint: %s", digest.Hex(), rerr)
		}
		return common.Hash{}, fmt.Errorf("cannot mint: %w", err)
	}
	return digest, nil
}
