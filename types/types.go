package types

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"
)

// chain ids follow the EVM convention:
// Eth mainnet id 1, BNB id 56, hardhat/devnet 31337, etc.

// SwapRecord is the public record of a swap emitted as SwapInitialized.
// It is immutable once emitted.
type SwapRecord struct {
	From      common.Address
	To        common.Address
	Token     common.Address
	Value     *uint256.Int
	ChainFrom uint64
	ChainTo   uint64
	Nonce     uint64
}

type swapRecordJSON struct {
	From      common.Address `json:"from"`
	To        common.Address `json:"to"`
	Token     common.Address `json:"token"`
	Value     string         `json:"value"` // decimal
	ChainFrom uint64         `json:"chainFrom"`
	ChainTo   uint64         `json:"chainTo"`
	Nonce     uint64         `json:"nonce"`
}

func (r SwapRecord) MarshalJSON() ([]byte, error) {
	value := "0"
	if r.Value != nil {
		value = r.Value.Dec()
	}
	return json.Marshal(swapRecordJSON{
		From:      r.From,
		To:        r.To,
		Token:     r.Token,
		Value:     value,
		ChainFrom: r.ChainFrom,
		ChainTo:   r.ChainTo,
		Nonce:     r.Nonce,
	})
}

func (r *SwapRecord) UnmarshalJSON(data []byte) error {
	var raw swapRecordJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	value, err := ParseAmount(raw.Value)
	if err != nil {
		return err
	}
	*r = SwapRecord{
		From:      raw.From,
		To:        raw.To,
		Token:     raw.Token,
		Value:     value,
		ChainFrom: raw.ChainFrom,
		ChainTo:   raw.ChainTo,
		Nonce:     raw.Nonce,
	}
	return nil
}

// ParseAmount parses a base-10 token amount that must fit 256 bits.
func ParseAmount(s string) (*uint256.Int, error) {
	if s == "" {
		return nil, errors.New("empty amount")
	}
	v, err := uint256.FromDecimal(s)
	if err != nil {
		return nil, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return v, nil
}

// Signature in [R || S || V] format, V is either 0/1 or 27/28.
type Signature [65]byte

var ErrSignatureLength = errors.New("signature must be 65 bytes")

// SignatureFromVRS assembles the split (v, r, s) form into a signature blob.
func SignatureFromVRS(v uint8, r, s [32]byte) Signature {
	var sig Signature
	copy(sig[:32], r[:])
	copy(sig[32:64], s[:])
	sig[64] = v
	return sig
}

func ParseSignature(s string) (Signature, error) {
	var sig Signature
	b, err := hexutil.Decode(s)
	if err != nil {
		return sig, fmt.Errorf("invalid signature hex: %w", err)
	}
	if len(b) != len(sig) {
		return sig, ErrSignatureLength
	}
	copy(sig[:], b)
	return sig, nil
}

func (s Signature) V() uint8 { return s[64] }

func (s Signature) Hex() string { return hexutil.Encode(s[:]) }

func (s Signature) MarshalText() ([]byte, error) { return []byte(s.Hex()), nil }

func (s *Signature) UnmarshalText(text []byte) error {
	sig, err := ParseSignature(string(text))
	if err != nil {
		return err
	}
	*s = sig
	return nil
}

// Attestation is a swap record signed by the validator. Its identity for
// replay protection is the record alone, the signature is not part of it.
type Attestation struct {
	Record    SwapRecord `json:"record"`
	Signature Signature  `json:"signature"`
}

// Operation statuses, see OperationStatusSets
const (
	StatusAttested = "attested" // validator signed, waiting for the relayer
	StatusRedeemed = "redeemed" // destination bridge minted (or already had)
	StatusFailed   = "failed"   // cannot be attested or redeemed, needs a look
)

// Operation tracks one swap from the moment the validator has seen it
// until it is redeemed on the destination chain.
type Operation struct {
	ID          string
	Status      string
	ChainFrom   uint64
	ChainTo     uint64
	Nonce       uint64
	From        string
	To          string
	SourceToken string
	DestToken   string
	Amount      string // decimal, token base units
	Digest      string // attestation digest, hex
	Signature   string // hex, empty when not attested
	TsFound     int64
	Message     string // messages that help to track processing/errors
}

// AddMessage appends a processing note to the operation.
func (op *Operation) AddMessage(msg string) {
	if op.Message == "" {
		op.Message = msg
	} else {
		op.Message += "; " + msg
	}
}
