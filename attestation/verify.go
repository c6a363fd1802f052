package attestation

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"gojedibridge/types"
)

var (
	// ErrInvalidSignature is returned when recovery fails or the recovered
	// signer is not the expected one.
	ErrInvalidSignature = errors.New("invalid signature")

	errRecoveryID = errors.New("wrong signature recovery id")
	errSigValues  = errors.New("signature values out of range")
)

// Recover returns the address that signed the personal-message hash of digest.
func Recover(digest common.Hash, sig types.Signature) (common.Address, error) {
	return recoverHash(PersonalHash(digest), sig)
}

// RecoverMessage returns the address that signed msg with personal_sign.
func RecoverMessage(msg []byte, sig types.Signature) (common.Address, error) {
	return recoverHash(common.BytesToHash(accounts.TextHash(msg)), sig)
}

func recoverHash(hash common.Hash, sig types.Signature) (common.Address, error) {
	v := sig.V()
	if v == 27 || v == 28 {
		v -= 27
	}
	if v != 0 && v != 1 {
		return common.Address{}, errRecoveryID
	}

	r := new(big.Int).SetBytes(sig[:32])
	s := new(big.Int).SetBytes(sig[32:64])
	// low-s only, a malleated copy of a signature does not verify
	if !crypto.ValidateSignatureValues(v, r, s, true) {
		return common.Address{}, errSigValues
	}

	normalized := make([]byte, len(sig))
	copy(normalized, sig[:])
	normalized[64] = v

	pub, err := crypto.SigToPub(hash.Bytes(), normalized)
	if err != nil {
		return common.Address{}, err
	}
	return crypto.PubkeyToAddress(*pub), nil
}

// Verify checks that sig over digest was produced by expected.
// Every failure is reported as ErrInvalidSignature.
func Verify(digest common.Hash, sig types.Signature, expected common.Address) error {
	signer, err := Recover(digest, sig)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidSignature, err)
	}
	if signer != expected {
		return fmt.Errorf("%w: recovered %s", ErrInvalidSignature, signer.Hex())
	}
	return nil
}

// VerifyRecord is Verify over the digest of a swap record.
func VerifyRecord(rec *types.SwapRecord, sig types.Signature, expected common.Address) error {
	return Verify(Digest(rec), sig, expected)
}
