package bridge

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"gojedibridge/attestation"
)

// Every rejected call returns one of these (possibly wrapped) and leaves the
// instance state unchanged.
var (
	ErrUnauthorized     = errors.New("unauthorized: caller is not the owner")
	ErrNotWhitelisted   = errors.New("not whitelisted")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrReplayRejected   = errors.New("replay rejected: attestation already redeemed")
	ErrInvalidSignature = attestation.ErrInvalidSignature

	ErrTokenNotWhitelisted = fmt.Errorf("token %w", ErrNotWhitelisted)
	ErrChainNotWhitelisted = fmt.Errorf("chain %w", ErrNotWhitelisted)
	ErrZeroAmount          = fmt.Errorf("%w: zero value", ErrInvalidAmount)

	ErrSwapNotFound = errors.New("swap not found")
)

// RequireOwner is the authorization predicate of every administrative call.
func RequireOwner(caller, owner common.Address) error {
	if caller != owner {
		return fmt.Errorf("%w: %s", ErrUnauthorized, caller.Hex())
	}
	return nil
}
