package attestation

import (
	"crypto/ecdsa"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"gojedibridge/types"
)

// Signer is the validator key. It signs attestation digests the way an
// Ethereum wallet signs a 32-byte message.
type Signer struct {
	key     *ecdsa.PrivateKey
	address common.Address
}

func NewSigner(key *ecdsa.PrivateKey) *Signer {
	return &Signer{
		key:     key,
		address: crypto.PubkeyToAddress(key.PublicKey),
	}
}

// NewSignerFromHex accepts the key with or without 0x prefix.
func NewSignerFromHex(hexKey string) (*Signer, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(hexKey, "0x"))
	if err != nil {
		return nil, fmt.Errorf("error instantiating private key: %w", err)
	}
	return NewSigner(key), nil
}

func (s *Signer) Address() common.Address { return s.address }

// Sign produces a signature in [R || S || V] format where V is 27 or 28.
func (s *Signer) Sign(digest common.Hash) (types.Signature, error) {
	return s.signHash(PersonalHash(digest))
}

// SignMessage is personal_sign over an arbitrary text message.
func (s *Signer) SignMessage(msg []byte) (types.Signature, error) {
	return s.signHash(common.BytesToHash(accounts.TextHash(msg)))
}

func (s *Signer) signHash(hash common.Hash) (types.Signature, error) {
	var sig types.Signature
	sigRSV, err := crypto.Sign(hash.Bytes(), s.key)
	if err != nil {
		return sig, err
	}
	copy(sig[:], sigRSV)
	sig[64] += 27 // the V value must be 27 or 28 as an Ethereum convention
	return sig, nil
}

// Attest signs a swap record.
func (s *Signer) Attest(rec *types.SwapRecord) (*types.Attestation, error) {
	sig, err := s.Sign(Digest(rec))
	if err != nil {
		return nil, err
	}
	return &types.Attestation{Record: *rec, Signature: sig}, nil
}
