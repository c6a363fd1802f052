package workers

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"gojedibridge/attestation"
	"gojedibridge/types"
)

// Worker_validator attests every swap initialized on chainID. It wakes up on
// each SwapInitialized event and also polls, so swaps made while the worker
// was down are picked up from the persisted scanned nonce.
func Worker_validator(ctx context.Context, env *Env, chainID uint64) {
	log := env.Log.With("worker", "validator", "chain", chainID)

	c, err := env.Network.Chain(chainID)
	if err != nil {
		log.Errorf("Cannot start validator: %s", err)
		return
	}

	swaps := make(chan *types.SwapRecord, 64)
	sub := c.Bridge.SubscribeSwaps(swaps)
	defer sub.Unsubscribe()

	ticker := time.NewTicker(env.scanInterval())
	defer ticker.Stop()

	log.Infof("Validator %s watching chain %s(%d)", env.Signer.Address().Hex(), c.Name, chainID)
	for {
		if err := ScanSwaps(env, chainID); err != nil {
			log.Errorf("Error scanning swaps: %s", err)
		}

		select {
		case <-ctx.Done():
			log.Info("Validator stopped")
			return
		case err := <-sub.Err():
			log.Errorf("Swap subscription closed: %v", err)
			return
		case rec := <-swaps:
			log.Debugf("SwapInitialized nonce %d", rec.Nonce)
		case <-ticker.C:
		}
	}
}

// ScanSwaps attests the swaps of chainID logged after the last scanned nonce.
func ScanSwaps(env *Env, chainID uint64) error {
	c, err := env.Network.Chain(chainID)
	if err != nil {
		return err
	}

	scanned, err := env.Redis.GetScannedNonce(chainID)
	if err != nil {
		return fmt.Errorf("cannot get scanned nonce: %w", err)
	}
	next, err := c.Bridge.NextNonce()
	if err != nil {
		return fmt.Errorf("cannot get next nonce: %w", err)
	}

	for nonce := uint64(scanned + 1); nonce < next; nonce++ {
		rec, err := c.Bridge.SwapByNonce(nonce)
		if err != nil {
			return fmt.Errorf("cannot read swap %d: %w", nonce, err)
		}
		if err := attestSwap(env, rec); err != nil {
			return fmt.Errorf("cannot attest swap %d: %w", nonce, err)
		}
		if err := env.Redis.SetScannedNonce(chainID, nonce); err != nil {
			return fmt.Errorf("cannot save scanned nonce: %w", err)
		}
	}
	return nil
}

// attestSwap records one operation per source swap. The attested record
// carries the token paired on the destination chain, which is the token the
// destination bridge mints.
func attestSwap(env *Env, rec *types.SwapRecord) error {
	// never attest the same swap twice, a second signature would be harmless
	// on chain but would duplicate relaying
	id, claimed, err := env.Redis.ClaimSwap(rec.ChainFrom, rec.Nonce, uuid.New().String())
	if err != nil {
		return err
	}
	if !claimed {
		existing, err := env.Redis.FindOperationBySwap(rec.ChainFrom, rec.Nonce)
		if err != nil {
			return err
		}
		if existing != nil {
			env.Log.Debugf("Swap %d:%d already attested as %s", rec.ChainFrom, rec.Nonce, existing.ID)
			return nil
		}
		// claimed by a run that stopped before storing the operation
	}

	op := &types.Operation{
		ID:          id,
		ChainFrom:   rec.ChainFrom,
		ChainTo:     rec.ChainTo,
		Nonce:       rec.Nonce,
		From:        rec.From.Hex(),
		To:          rec.To.Hex(),
		SourceToken: rec.Token.Hex(),
		Amount:      rec.Value.Dec(),
		TsFound:     time.Now().Unix(),
	}

	destToken, err := env.Network.RouteToken(rec.ChainFrom, rec.Token, rec.ChainTo)
	if err != nil {
		op.Status = types.StatusFailed
		op.AddMessage(fmt.Sprintf("Cannot route token: %s", err))
		env.Log.Warnf("Swap %d:%d not attested: %s", rec.ChainFrom, rec.Nonce, err)
		return env.Redis.UpsertOperation(op)
	}

	out := *rec
	out.Token = destToken
	att, err := env.Signer.Attest(&out)
	if err != nil {
		return err
	}

	op.Status = types.StatusAttested
	op.DestToken = destToken.Hex()
	op.Digest = attestation.Digest(&out).Hex()
	op.Signature = att.Signature.Hex()

	env.Log.Infof("Attested swap %d:%d %s of %s to %s on chain %d, digest %s",
		rec.ChainFrom, rec.Nonce, op.Amount, op.DestToken, op.To, op.ChainTo, op.Digest)
	return env.Redis.UpsertOperation(op)
}
