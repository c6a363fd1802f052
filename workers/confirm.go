package workers

import (
	"context"

	"github.com/ethereum/go-ethereum/event"

	"gojedibridge/bridge"
	"gojedibridge/types"
)

// Worker_confirmations follows the Redeemed events of every chain and closes
// the attested operations they settle, including the ones redeemed by users
// directly rather than by the relayer.
func Worker_confirmations(ctx context.Context, env *Env) {
	log := env.Log.With("worker", "confirmations")

	redeemed := make(chan *bridge.RedeemedEvent, 64)
	var scope event.SubscriptionScope
	defer scope.Close()
	for _, id := range env.Network.IDs() {
		c, err := env.Network.Chain(id)
		if err != nil {
			log.Errorf("Cannot watch chain %d: %s", id, err)
			return
		}
		scope.Track(c.Bridge.SubscribeRedeemed(redeemed))
	}

	log.Infof("Watching redemptions on %d chains", scope.Count())
	for {
		select {
		case <-ctx.Done():
			log.Info("Confirmations stopped")
			return
		case ev := <-redeemed:
			if err := ConfirmRedeemed(env, ev); err != nil {
				log.Errorf("Cannot confirm swap %d:%d: %s", ev.Record.ChainFrom, ev.Record.Nonce, err)
			}
		}
	}
}

// ConfirmRedeemed moves the operation of a redeemed swap from attested to
// redeemed. Operations in any other state, or not recorded yet, are left to
// the validator and relayer.
func ConfirmRedeemed(env *Env, ev *bridge.RedeemedEvent) error {
	op, err := env.Redis.FindOperationBySwap(ev.Record.ChainFrom, ev.Record.Nonce)
	if err != nil {
		return err
	}
	if op == nil || op.Status != types.StatusAttested {
		return nil
	}
	if op.Digest != ev.Digest.Hex() {
		env.Log.Warnf("Operation %s attests %s, chain %d redeemed %s", op.ID, op.Digest, ev.Record.ChainTo, ev.Digest.Hex())
		return nil
	}

	op.Status = types.StatusRedeemed
	op.AddMessage("Redeemed on chain")
	env.Log.Infof("Confirmed swap %d:%d redeemed on chain %d", op.ChainFrom, op.Nonce, ev.Record.ChainTo)
	return env.Redis.ChangeOperationStatus(op, types.StatusAttested)
}
