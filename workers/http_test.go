package workers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"gojedibridge/attestation"
	"gojedibridge/types"
	"gojedibridge/workers/handlers"
)

func doJSON(t *testing.T, srv *httptest.Server, method, path string, body interface{}, out interface{}) int {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, srv.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func signMessage(t *testing.T, s *attestation.Signer, msg string) string {
	t.Helper()
	sig, err := s.SignMessage([]byte(msg))
	require.NoError(t, err)
	return sig.Hex()
}

func TestHTTPState(t *testing.T) {
	require := require.New(t)
	env, acc := newTestEnv(t)
	srv := httptest.NewServer(NewRouter(env))
	defer srv.Close()

	var state handlers.APIStateResponse
	require.Equal(http.StatusOK, doJSON(t, srv, http.MethodGet, "/state", nil, &state))
	require.Equal("ok", state.Status)
	require.Len(state.Chains, 2)

	bnbState := state.Chains[0]
	require.Equal(bnb, bnbState.ChainID)
	require.Equal(acc.ownerKey.Address().Hex(), bnbState.Owner)
	require.Equal(env.Signer.Address().Hex(), bnbState.Validator)
	require.Equal([]uint64{hardhat}, bnbState.Chains)
	require.Len(bnbState.Tokens, 1)
	require.True(bnbState.Tokens[0].Included)

	var health handlers.APIResponse
	require.Equal(http.StatusOK, doJSON(t, srv, http.MethodGet, "/health", nil, &health))
}

func TestHTTPSwapFlow(t *testing.T) {
	require := require.New(t)
	env, acc := newTestEnv(t)
	srv := httptest.NewServer(NewRouter(env))
	defer srv.Close()

	alice := acc.aliceKey.Address()
	jdtA := tokenBySymbol(t, env, hardhat, "JDT")
	jdtB := tokenBySymbol(t, env, bnb, "JDT")

	// faucet
	var bal handlers.APIBalanceResponse
	require.Equal(http.StatusOK, doJSON(t, srv, http.MethodPost, "/faucet", &handlers.FaucetRequest{
		ChainID: hardhat, Token: jdtA.Address.Hex(), To: alice.Hex(), Value: "1000",
	}, &bal))
	require.Equal("1000", bal.Balance)
	require.Equal("JDT", bal.Symbol)

	req := &handlers.SwapRequest{
		ChainID: hardhat,
		From:    alice.Hex(),
		To:      acc.bob.Hex(),
		Token:   jdtA.Address.Hex(),
		Value:     "100",
		ChainTo:   bnb,
		RequestID: "first",
	}
	msg := handlers.SwapMessage(hardhat, "first", acc.bob, jdtA.Address, uint256.NewInt(100), bnb)

	// signed by someone else
	req.Signature = signMessage(t, acc.ownerKey, msg)
	require.Equal(http.StatusUnauthorized, doJSON(t, srv, http.MethodPost, "/swap", req, nil))

	req.Signature = signMessage(t, acc.aliceKey, msg)
	var swapped handlers.APISwapResponse
	require.Equal(http.StatusOK, doJSON(t, srv, http.MethodPost, "/swap", req, &swapped))
	require.Equal(uint64(0), swapped.Swap.Nonce)
	require.Equal(alice, swapped.Swap.From)
	require.Equal(uint64(100), swapped.Swap.Value.Uint64())

	// the same signed request cannot be replayed
	require.Equal(http.StatusConflict, doJSON(t, srv, http.MethodPost, "/swap", req, nil))

	require.Equal(http.StatusOK, doJSON(t, srv, http.MethodGet, "/balance/31337/"+jdtA.Address.Hex()+"/"+alice.Hex(), nil, &bal))
	require.Equal("900", bal.Balance)

	// validator attests, client redeems itself
	require.NoError(ScanSwaps(env, hardhat))
	var got handlers.APISwapResponse
	require.Equal(http.StatusOK, doJSON(t, srv, http.MethodGet, "/swaps/31337/0", nil, &got))
	require.NotNil(got.Operation)
	require.Equal(types.StatusAttested, got.Operation.Status)

	var attested []*types.Operation
	require.Equal(http.StatusOK, doJSON(t, srv, http.MethodGet, "/attestations/attested", nil, &attested))
	require.Len(attested, 1)

	att, err := OperationAttestation(got.Operation)
	require.NoError(err)
	redeem := &handlers.RedeemRequest{
		ChainID:   bnb,
		From:      att.Record.From.Hex(),
		To:        att.Record.To.Hex(),
		Token:     att.Record.Token.Hex(),
		Value:     att.Record.Value.Dec(),
		Nonce:     att.Record.Nonce,
		ChainFrom: att.Record.ChainFrom,
		V:         att.Signature.V(),
		R:         common.Bytes2Hex(att.Signature[:32]),
		S:         common.Bytes2Hex(att.Signature[32:64]),
	}
	redeem.R, redeem.S = "0x"+redeem.R, "0x"+redeem.S
	require.Equal(http.StatusOK, doJSON(t, srv, http.MethodPost, "/redeem", redeem, &got))
	require.Equal(jdtB.Address, got.Swap.Token)
	require.Equal(uint64(100), jdtB.BalanceOf(acc.bob).Uint64())

	// second submission, with the joined signature form
	redeem.Signature = att.Signature.Hex()
	require.Equal(http.StatusConflict, doJSON(t, srv, http.MethodPost, "/redeem", redeem, nil))

	// amount changed
	redeem.Value = "1000"
	require.Equal(http.StatusUnauthorized, doJSON(t, srv, http.MethodPost, "/redeem", redeem, nil))
	require.Equal(uint64(100), jdtB.BalanceOf(acc.bob).Uint64())
}

func TestHTTPSwapRequestSpentOnFailure(t *testing.T) {
	require := require.New(t)
	env, acc := newTestEnv(t)
	srv := httptest.NewServer(NewRouter(env))
	defer srv.Close()

	alice := acc.aliceKey.Address()
	jdtA := tokenBySymbol(t, env, hardhat, "JDT")
	req := &handlers.SwapRequest{
		ChainID: hardhat, From: alice.Hex(), To: alice.Hex(), Token: jdtA.Address.Hex(), Value: "50", ChainTo: bnb,
		RequestID: "a7f3c2e0",
		Signature: signMessage(t, acc.aliceKey, handlers.SwapMessage(hardhat, "a7f3c2e0", alice, jdtA.Address, uint256.NewInt(50), bnb)),
	}

	// nothing to burn yet
	require.Equal(http.StatusUnprocessableEntity, doJSON(t, srv, http.MethodPost, "/swap", req, nil))

	// funding later does not revive the signed request
	fund(t, jdtA, alice, 50)
	var resp handlers.APIResponse
	require.Equal(http.StatusConflict, doJSON(t, srv, http.MethodPost, "/swap", req, &resp))
	require.Equal(uint64(50), jdtA.BalanceOf(alice).Uint64())

	c, err := env.Network.Chain(hardhat)
	require.NoError(err)
	next, err := c.Bridge.NextNonce()
	require.NoError(err)
	require.Equal(uint64(0), next)

	// a fresh id signed again goes through
	req.RequestID = "b81d9e44"
	req.Signature = signMessage(t, acc.aliceKey, handlers.SwapMessage(hardhat, "b81d9e44", alice, jdtA.Address, uint256.NewInt(50), bnb))
	require.Equal(http.StatusOK, doJSON(t, srv, http.MethodPost, "/swap", req, nil))
	require.True(jdtA.BalanceOf(alice).IsZero())
}

func TestHTTPAdmin(t *testing.T) {
	require := require.New(t)
	env, acc := newTestEnv(t)
	srv := httptest.NewServer(NewRouter(env))
	defer srv.Close()

	jdtA := tokenBySymbol(t, env, hardhat, "JDT")
	c, err := env.Network.Chain(hardhat)
	require.NoError(err)

	exclude := &handlers.AdminTokenRequest{
		ChainID:   hardhat,
		Token:     jdtA.Address.Hex(),
		Signature: signMessage(t, acc.aliceKey, handlers.AdminTokenMessage(hardhat, jdtA.Address, false)),
	}
	require.Equal(http.StatusForbidden, doJSON(t, srv, http.MethodDelete, "/admin/token", exclude, nil))

	// an include signature does not authorize an exclude
	exclude.Signature = signMessage(t, acc.ownerKey, handlers.AdminTokenMessage(hardhat, jdtA.Address, true))
	var resp handlers.APIResponse
	require.Equal(http.StatusForbidden, doJSON(t, srv, http.MethodDelete, "/admin/token", exclude, &resp))

	exclude.Signature = signMessage(t, acc.ownerKey, handlers.AdminTokenMessage(hardhat, jdtA.Address, false))
	require.Equal(http.StatusOK, doJSON(t, srv, http.MethodDelete, "/admin/token", exclude, nil))
	included, err := c.Bridge.IsTokenIncluded(jdtA.Address)
	require.NoError(err)
	require.False(included)

	// swaps of an excluded token are not whitelisted
	alice := acc.aliceKey.Address()
	fund(t, jdtA, alice, 10)
	swapReq := &handlers.SwapRequest{
		ChainID: hardhat, From: alice.Hex(), To: alice.Hex(), Token: jdtA.Address.Hex(), Value: "10", ChainTo: bnb, RequestID: "excluded",
		Signature: signMessage(t, acc.aliceKey, handlers.SwapMessage(hardhat, "excluded", alice, jdtA.Address, uint256.NewInt(10), bnb)),
	}
	require.Equal(http.StatusUnprocessableEntity, doJSON(t, srv, http.MethodPost, "/swap", swapReq, nil))

	chainReq := &handlers.AdminChainRequest{
		ChainID:   hardhat,
		Chain:     10,
		Signature: signMessage(t, acc.ownerKey, handlers.AdminChainMessage(hardhat, 10, true)),
	}
	require.Equal(http.StatusOK, doJSON(t, srv, http.MethodPost, "/admin/chain", chainReq, nil))
	ok, err := c.Bridge.IsChainIncluded(10)
	require.NoError(err)
	require.True(ok)

	chainReq.Signature = signMessage(t, acc.ownerKey, handlers.AdminChainMessage(hardhat, 10, false))
	require.Equal(http.StatusOK, doJSON(t, srv, http.MethodDelete, "/admin/chain", chainReq, nil))
	ok, err = c.Bridge.IsChainIncluded(10)
	require.NoError(err)
	require.False(ok)
}

func TestHTTPBadRequests(t *testing.T) {
	require := require.New(t)
	env, acc := newTestEnv(t)
	srv := httptest.NewServer(NewRouter(env))
	defer srv.Close()
	jdtA := tokenBySymbol(t, env, hardhat, "JDT")

	var resp handlers.APIResponse
	require.Equal(http.StatusBadRequest, doJSON(t, srv, http.MethodPost, "/swap", &handlers.SwapRequest{
		ChainID: hardhat, From: "0x123", To: acc.bob.Hex(), Token: jdtA.Address.Hex(), Value: "1",
	}, &resp))
	require.Equal("from", resp.Field)

	require.Equal(http.StatusBadRequest, doJSON(t, srv, http.MethodPost, "/swap", &handlers.SwapRequest{
		ChainID: hardhat, From: acc.bob.Hex(), To: acc.bob.Hex(), Token: jdtA.Address.Hex(), Value: "1",
	}, &resp))
	require.Equal("requestId", resp.Field)

	require.Equal(http.StatusBadRequest, doJSON(t, srv, http.MethodPost, "/redeem", &handlers.RedeemRequest{
		ChainID: bnb, From: acc.bob.Hex(), To: acc.bob.Hex(), Token: jdtA.Address.Hex(), Value: "1", R: "0x01", S: "0x02",
	}, &resp))
	require.Equal("signature", resp.Field)

	require.Equal(http.StatusBadRequest, doJSON(t, srv, http.MethodGet, "/attestations/pending", nil, nil))
	require.Equal(http.StatusBadRequest, doJSON(t, srv, http.MethodGet, "/swaps/abc/0", nil, nil))
	require.Equal(http.StatusNotFound, doJSON(t, srv, http.MethodGet, "/swaps/31337/5", nil, nil))
	require.Equal(http.StatusNotFound, doJSON(t, srv, http.MethodGet, "/swaps/10/0", nil, nil))
	orp := tokenBySymbol(t, env, hardhat, "ORP")
	require.Equal(http.StatusNotFound, doJSON(t, srv, http.MethodGet, "/balance/56/"+orp.Address.Hex()+"/"+acc.bob.Hex(), nil, nil))

	env.Config.Faucet = false
	disabled := httptest.NewServer(NewRouter(env))
	defer disabled.Close()
	require.Equal(http.StatusNotFound, doJSON(t, disabled, http.MethodPost, "/faucet", &handlers.FaucetRequest{}, nil))
}

func TestHTTPAddressChecksum(t *testing.T) {
	require := require.New(t)
	env, acc := newTestEnv(t)
	srv := httptest.NewServer(NewRouter(env))
	defer srv.Close()
	jdtA := tokenBySymbol(t, env, hardhat, "JDT")
	path := "/balance/31337/" + jdtA.Address.Hex() + "/"

	checksummed := acc.bob.Hex()
	flipped := []byte(checksummed)
	for i := 2; i < len(flipped); i++ {
		if c := flipped[i]; c >= 'a' && c <= 'f' {
			flipped[i] = c - 'a' + 'A'
			break
		} else if c >= 'A' && c <= 'F' {
			flipped[i] = c - 'A' + 'a'
			break
		}
	}
	require.NotEqual(checksummed, string(flipped))

	var resp handlers.APIResponse
	require.Equal(http.StatusBadRequest, doJSON(t, srv, http.MethodGet, path+string(flipped), nil, &resp))
	require.Equal("address", resp.Field)

	require.Equal(http.StatusOK, doJSON(t, srv, http.MethodGet, path+checksummed, nil, nil))
	require.Equal(http.StatusOK, doJSON(t, srv, http.MethodGet, path+strings.ToLower(checksummed), nil, nil))
	require.Equal(http.StatusOK, doJSON(t, srv, http.MethodGet, path+"0x"+strings.ToUpper(checksummed[2:]), nil, nil))
}
