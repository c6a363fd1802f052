package redis

import (
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"gojedibridge/attestation"
	"gojedibridge/bridge"
	"gojedibridge/token"
	"gojedibridge/types"
)

var (
	owner   = common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266")
	userOne = common.HexToAddress("0x70997970C51812dc3A010C7d01b50e0d17dc79C8")
	userTwo = common.HexToAddress("0x3C44CdDdB6a900fa2b585dd299e03d12FA4293BC")
	jdt     = common.HexToAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3")
)

func newTestClient(t *testing.T) (*Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	c := NewAddr(mr.Addr(), nil)
	t.Cleanup(func() { c.Close() })
	require.NoError(t, c.Ping())
	return c, mr
}

func TestChainStoreRegistries(t *testing.T) {
	require := require.New(t)
	c, _ := newTestClient(t)
	s := c.BridgeStore(31337)

	ok, err := s.HasToken(jdt)
	require.NoError(err)
	require.False(ok)

	require.NoError(s.AddToken(jdt))
	require.NoError(s.AddToken(jdt))
	ok, err = s.HasToken(jdt)
	require.NoError(err)
	require.True(ok)
	tokens, err := s.Tokens()
	require.NoError(err)
	require.Equal([]common.Address{jdt}, tokens)

	require.NoError(s.AddChain(56))
	require.NoError(s.AddChain(1))
	chains, err := s.Chains()
	require.NoError(err)
	require.Equal([]uint64{1, 56}, chains)
	require.NoError(s.RemoveChain(56))
	ok, err = s.HasChain(56)
	require.NoError(err)
	require.False(ok)

	// each chain id has its own registries
	other := c.BridgeStore(56)
	ok, err = other.HasToken(jdt)
	require.NoError(err)
	require.False(ok)
}

func TestChainStoreSwapLog(t *testing.T) {
	require := require.New(t)
	c, _ := newTestClient(t)
	s := c.BridgeStore(31337)

	next, err := s.NextNonce()
	require.NoError(err)
	require.Zero(next)

	for i := uint64(0); i < 3; i++ {
		nonce, err := s.AppendSwap(&types.SwapRecord{
			From: userOne, To: userTwo, Token: jdt,
			Value: uint256.NewInt(10 + i), ChainFrom: 31337, ChainTo: 56,
		})
		require.NoError(err)
		require.Equal(i, nonce)
	}

	next, err = s.NextNonce()
	require.NoError(err)
	require.Equal(uint64(3), next)

	rec, err := s.SwapByNonce(1)
	require.NoError(err)
	require.Equal(uint64(1), rec.Nonce)
	require.Equal(uint64(11), rec.Value.Uint64())
	require.Equal(userOne, rec.From)
	require.Equal(uint64(56), rec.ChainTo)

	_, err = s.SwapByNonce(3)
	require.ErrorIs(err, bridge.ErrSwapNotFound)
}

func TestChainStoreConsumeOnce(t *testing.T) {
	require := require.New(t)
	c, mr := newTestClient(t)
	s := c.BridgeStore(56)
	digest := common.HexToHash("0x01")

	ok, err := s.IsConsumed(digest)
	require.NoError(err)
	require.False(ok)

	inserted, err := s.Consume(digest)
	require.NoError(err)
	require.True(inserted)
	inserted, err = s.Consume(digest)
	require.NoError(err)
	require.False(inserted)

	// a second process sharing the same redis sees the entry too
	second := NewAddr(mr.Addr(), nil)
	defer second.Close()
	inserted, err = second.BridgeStore(56).Consume(digest)
	require.NoError(err)
	require.False(inserted)

	require.NoError(s.Release(digest))
	ok, err = s.IsConsumed(digest)
	require.NoError(err)
	require.False(ok)
}

func TestBridgeOverRedis(t *testing.T) {
	require := require.New(t)
	c, mr := newTestClient(t)

	key, err := crypto.GenerateKey()
	require.NoError(err)
	validator := attestation.NewSigner(key)

	bank := token.NewBank()
	tok := bank.Deploy("JediToken", "JDT", owner)
	bridgeAddr := crypto.CreateAddress(owner, 99)
	require.NoError(tok.SetMinterBurner(owner, bridgeAddr))
	cfg := bridge.Config{ChainID: 56, Address: bridgeAddr, Owner: owner, Validator: validator.Address()}

	b := bridge.New(cfg, c.BridgeStore(56), bank.Operator(bridgeAddr), nil)
	require.NoError(b.IncludeToken(owner, tok.Address))

	att, err := validator.Attest(&types.SwapRecord{
		From: userOne, To: userTwo, Token: tok.Address,
		Value: uint256.NewInt(100), ChainFrom: 31337, ChainTo: 56, Nonce: 0,
	})
	require.NoError(err)

	_, err = b.RedeemAttestation(att)
	require.NoError(err)
	require.Equal(uint64(100), tok.BalanceOf(userTwo).Uint64())

	// a restarted instance over the same redis still rejects the replay
	restarted := bridge.New(cfg, NewAddr(mr.Addr(), nil).BridgeStore(56), bank.Operator(bridgeAddr), nil)
	_, err = restarted.RedeemAttestation(att)
	require.ErrorIs(err, bridge.ErrReplayRejected)
	require.Equal(uint64(100), tok.BalanceOf(userTwo).Uint64())
}

func TestOperationsLifecycle(t *testing.T) {
	require := require.New(t)
	c, _ := newTestClient(t)

	op := &types.Operation{
		Status:    types.StatusAttested,
		ChainFrom: 31337,
		ChainTo:   56,
		Nonce:     4,
		Amount:    "100",
		Digest:    "0xabc",
	}

	id, claimed, err := c.ClaimSwap(op.ChainFrom, op.Nonce, "first")
	require.NoError(err)
	require.True(claimed)
	require.Equal("first", id)
	id, claimed, err = c.ClaimSwap(op.ChainFrom, op.Nonce, "second")
	require.NoError(err)
	require.False(claimed)
	require.Equal("first", id)
	op.ID = id

	require.NoError(c.UpsertOperation(op))
	require.Equal("first", op.ID)

	found, err := c.FindOperationStatus(types.StatusAttested)
	require.NoError(err)
	require.Equal(op, found)

	op.Status = types.StatusRedeemed
	require.NoError(c.ChangeOperationStatus(op, types.StatusAttested))

	found, err = c.FindOperationStatus(types.StatusAttested)
	require.NoError(err)
	require.Nil(found)

	redeemed, err := c.FindAllOperationsByStatus(types.StatusRedeemed)
	require.NoError(err)
	require.Len(redeemed, 1)
	require.Equal(op.ID, redeemed[0].ID)

	_, err = c.FindAllOperationsByStatus("unknown")
	require.Error(err)
	require.Error(c.UpsertOperation(&types.Operation{Status: "unknown"}))
	require.Error(c.UpsertOperation(nil))
}

func TestFindOperationBySwap(t *testing.T) {
	require := require.New(t)
	c, _ := newTestClient(t)

	found, err := c.FindOperationBySwap(31337, 2)
	require.NoError(err)
	require.Nil(found)

	op := &types.Operation{ID: "op-1", Status: types.StatusFailed, ChainFrom: 31337, Nonce: 2}
	_, claimed, err := c.ClaimSwap(op.ChainFrom, op.Nonce, op.ID)
	require.NoError(err)
	require.True(claimed)

	// claimed but not stored yet
	found, err = c.FindOperationBySwap(31337, 2)
	require.NoError(err)
	require.Nil(found)

	require.NoError(c.UpsertOperation(op))
	found, err = c.FindOperationBySwap(31337, 2)
	require.NoError(err)
	require.Equal(op, found)

	// upsert without id assigns one
	fresh := &types.Operation{Status: types.StatusAttested}
	require.NoError(c.UpsertOperation(fresh))
	require.NotEmpty(fresh.ID)
}

func TestScannedNonce(t *testing.T) {
	require := require.New(t)
	c, _ := newTestClient(t)

	n, err := c.GetScannedNonce(31337)
	require.NoError(err)
	require.Equal(int64(-1), n)

	require.NoError(c.SetScannedNonce(31337, 7))
	n, err = c.GetScannedNonce(31337)
	require.NoError(err)
	require.Equal(int64(7), n)
}

func TestTokenStore(t *testing.T) {
	require := require.New(t)
	c, _ := newTestClient(t)

	tok := token.New("JediToken", "JDT", jdt, owner)
	require.NoError(tok.UseStore(c.TokenStore(56, jdt)))
	require.True(tok.TotalSupply().IsZero())

	require.NoError(tok.Mint(owner, userOne, uint256.NewInt(70)))
	require.NoError(tok.Mint(owner, userTwo, uint256.NewInt(30)))
	require.NoError(tok.Burn(owner, userOne, uint256.NewInt(20)))

	balances, supply, err := c.TokenStore(56, jdt).Load()
	require.NoError(err)
	require.Equal(uint64(80), supply.Uint64())
	require.Equal(uint64(50), balances[userOne].Uint64())
	require.Equal(uint64(30), balances[userTwo].Uint64())

	// ledgers are per chain
	balances, supply, err = c.TokenStore(31337, jdt).Load()
	require.NoError(err)
	require.Empty(balances)
	require.True(supply.IsZero())
}

func TestClaimSwapRequest(t *testing.T) {
	require := require.New(t)
	c, _ := newTestClient(t)

	claimed, err := c.ClaimSwapRequest(31337, userOne, "r-1")
	require.NoError(err)
	require.True(claimed)
	claimed, err = c.ClaimSwapRequest(31337, userOne, "r-1")
	require.NoError(err)
	require.False(claimed)

	claimed, err = c.ClaimSwapRequest(31337, userTwo, "r-1")
	require.NoError(err)
	require.True(claimed)
}
