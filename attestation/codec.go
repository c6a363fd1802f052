package attestation

import (
	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"gojedibridge/types"
)

// EncodedLength is three 20-byte addresses followed by four 32-byte words.
const EncodedLength = 3*common.AddressLength + 4*32

// Encode packs the seven fields of a transfer in the order
// from, to, token, value, chainFrom, chainTo, nonce.
// Addresses are 20 bytes, integers are 32-byte big-endian words,
// which is the solidityKeccak256(address,address,address,uint256,uint256,uint256,uint256) layout.
// Both deployments must produce byte-identical output for the same tuple.
func Encode(rec *types.SwapRecord) []byte {
	buf := make([]byte, 0, EncodedLength)
	buf = append(buf, rec.From.Bytes()...)
	buf = append(buf, rec.To.Bytes()...)
	buf = append(buf, rec.Token.Bytes()...)

	var value [32]byte
	if rec.Value != nil {
		value = rec.Value.Bytes32()
	}
	buf = append(buf, value[:]...)
	buf = append(buf, word(rec.ChainFrom)...)
	buf = append(buf, word(rec.ChainTo)...)
	buf = append(buf, word(rec.Nonce)...)
	return buf
}

func word(v uint64) []byte {
	var w [32]byte
	for i := 0; i < 8; i++ {
		w[31-i] = byte(v >> (8 * i))
	}
	return w[:]
}

// Hash is keccak256.
func Hash(encoded []byte) common.Hash {
	return crypto.Keccak256Hash(encoded)
}

// Digest is the message the validator signs for a swap record, and the
// identity of the transfer for replay protection.
func Digest(rec *types.SwapRecord) common.Hash {
	return Hash(Encode(rec))
}

// PersonalHash applies the "\x19Ethereum Signed Message:\n32" prefix, the
// convention of wallets signing a 32-byte message (signMessage(arrayify(digest))).
func PersonalHash(digest common.Hash) common.Hash {
	return common.BytesToHash(accounts.TextHash(digest.Bytes()))
}
