package workers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/ethereum/go-ethereum/common"

	"gojedibridge/bridge"
	"gojedibridge/chains"
	"gojedibridge/token"
	"gojedibridge/types"
)

// Worker_relayer submits attested operations to their destination bridge.
func Worker_relayer(ctx context.Context, env *Env) {
	log := env.Log.With("worker", "relayer")
	log.Info("Relayer started")

	for {
		select {
		case <-ctx.Done():
			log.Info("Relayer stopped")
			return
		case <-time.After(env.scanInterval()):
		}

		for {
			relayed, err := RelayNext(ctx, env)
			if err != nil {
				// emergency exit to avoid looping over the same operation
				log.Errorf("Error relaying: %v, relayer exits", err)
				return
			}
			if !relayed {
				break
			}
		}
	}
}

// RelayNext redeems one attested operation and moves it to redeemed or failed.
// It reports false when nothing was waiting.
func RelayNext(ctx context.Context, env *Env) (bool, error) {
	op, err := env.Redis.FindOperationStatus(types.StatusAttested)
	if err != nil {
		return false, fmt.Errorf("cannot get attested operations: %w", err)
	}
	if op == nil {
		return false, nil
	}
	env.Log.Infof("Relaying operation %s, swap %d:%d to chain %d", op.ID, op.ChainFrom, op.Nonce, op.ChainTo)

	att, err := OperationAttestation(op)
	if err != nil {
		op.Status = types.StatusFailed
		op.AddMessage(fmt.Sprintf("Malformed attestation: %s", err))
	} else {
		err = redeem(ctx, env, att)
		switch {
		case err == nil:
			op.Status = types.StatusRedeemed
		case errors.Is(err, bridge.ErrReplayRejected):
			// someone relayed it first, the recipient has been credited
			op.Status = types.StatusRedeemed
			op.AddMessage("Already redeemed")
		case ctx.Err() != nil:
			return false, ctx.Err()
		default:
			op.Status = types.StatusFailed
			op.AddMessage(fmt.Sprintf("Redeem failed: %s", err))
		}
	}

	if op.Status == types.StatusRedeemed {
		env.Log.Infof("Redeemed swap %d:%d on chain %d, %s to %s", op.ChainFrom, op.Nonce, op.ChainTo, op.Amount, op.To)
	} else {
		env.Log.Warnf("Operation %s failed: %s", op.ID, op.Message)
	}

	if err := env.Redis.ChangeOperationStatus(op, types.StatusAttested); err != nil {
		return false, fmt.Errorf("cannot save operation %s: %w", op.ID, err)
	}
	return true, nil
}

func redeem(ctx context.Context, env *Env, att *types.Attestation) error {
	attempts := env.Config.RelayRetries
	if attempts == 0 {
		attempts = 1
	}
	return retry.Do(
		func() error {
			_, err := chains.WithChain(env.Network, att.Record.ChainTo, func(c *chains.Chain) (*types.SwapRecord, error) {
				return c.Bridge.RedeemAttestation(att)
			})
			return err
		},
		retry.Attempts(attempts),
		retry.RetryIf(isTransient),
		retry.LastErrorOnly(true),
		retry.Context(ctx),
		retry.DelayType(retry.FixedDelay),
		retry.Delay(500*time.Millisecond),
	)
}

// isTransient tells store failures, worth another attempt, from rejections
// that will not change on retry.
func isTransient(err error) bool {
	for _, rejection := range []error{
		bridge.ErrUnauthorized,
		bridge.ErrNotWhitelisted,
		bridge.ErrInvalidAmount,
		bridge.ErrReplayRejected,
		bridge.ErrInvalidSignature,
		chains.ErrUnknownChain,
		token.ErrNotMinter,
		token.ErrOverflow,
		token.ErrUnknownToken,
	} {
		if errors.Is(err, rejection) {
			return false
		}
	}
	return true
}

// OperationAttestation rebuilds the signed attestation stored in op.
func OperationAttestation(op *types.Operation) (*types.Attestation, error) {
	for name, addr := range map[string]string{"from": op.From, "to": op.To, "token": op.DestToken} {
		if !common.IsHexAddress(addr) {
			return nil, fmt.Errorf("invalid %s address %q", name, addr)
		}
	}
	value, err := types.ParseAmount(op.Amount)
	if err != nil {
		return nil, err
	}
	sig, err := types.ParseSignature(op.Signature)
	if err != nil {
		return nil, err
	}
	return &types.Attestation{
		Record: types.SwapRecord{
			From:      common.HexToAddress(op.From),
			To:        common.HexToAddress(op.To),
			Token:     common.HexToAddress(op.DestToken),
			Value:     value,
			ChainFrom: op.ChainFrom,
			ChainTo:   op.ChainTo,
			Nonce:     op.Nonce,
		},
		Signature: sig,
	}, nil
}
