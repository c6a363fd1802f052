package handlers

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"gojedibridge/attestation"
	"gojedibridge/bridge"
	"gojedibridge/types"
)

var errSignedByOther = fmt.Errorf("%w: signer is not the account", bridge.ErrInvalidSignature)

// Requests that act on behalf of an account are personal_sign'ed by it.
// The recovered signer is the caller.

func AdminTokenMessage(chainID uint64, tok common.Address, include bool) string {
	action := "include"
	if !include {
		action = "exclude"
	}
	return fmt.Sprintf("bridge %d: %s token %s", chainID, action, tok.Hex())
}

func AdminChainMessage(chainID, chain uint64, include bool) string {
	action := "include"
	if !include {
		action = "remove"
	}
	return fmt.Sprintf("bridge %d: %s chain %d", chainID, action, chain)
}

// SwapMessage is what the sender signs to swap. requestID is chosen by the
// client and accepted once per sender and chain.
func SwapMessage(chainID uint64, requestID string, to, tok common.Address, value *uint256.Int, chainTo uint64) string {
	return fmt.Sprintf("bridge %d: swap %s of %s to %s on chain %d, request %s",
		chainID, value.Dec(), tok.Hex(), to.Hex(), chainTo, requestID)
}

func recoverCaller(msg, sig string) (common.Address, error) {
	signature, err := types.ParseSignature(sig)
	if err != nil {
		return common.Address{}, fmt.Errorf("%w: %s", bridge.ErrInvalidSignature, err)
	}
	caller, err := attestation.RecoverMessage([]byte(msg), signature)
	if err != nil {
		return common.Address{}, fmt.Errorf("%w: %s", bridge.ErrInvalidSignature, err)
	}
	return caller, nil
}
