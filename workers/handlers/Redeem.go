package handlers

import (
	"fmt"
	"net/http"

	"github.com/ethereum/go-ethereum/common/hexutil"

	"gojedibridge/chains"
	"gojedibridge/types"
)

// Redeem lets anyone relay an attestation to the destination bridge.
func (a *API) Redeem(w http.ResponseWriter, r *http.Request) {
	var req RedeemRequest
	if !a.readRequest(w, r, &req) {
		return
	}

	from, err := parseAddress(req.From)
	if err != nil {
		a.responseError(w, err, "from")
		return
	}
	to, err := parseAddress(req.To)
	if err != nil {
		a.responseError(w, err, "to")
		return
	}
	tok, err := parseAddress(req.Token)
	if err != nil {
		a.responseError(w, err, "token")
		return
	}
	value, err := types.ParseAmount(req.Value)
	if err != nil {
		a.responseError(w, fmt.Errorf("%w: %s", errBadRequest, err), "value")
		return
	}
	sig, err := redeemSignature(&req)
	if err != nil {
		a.responseError(w, err, "signature")
		return
	}

	rec, err := chains.WithChain(a.network, req.ChainID, func(c *chains.Chain) (*types.SwapRecord, error) {
		return c.Bridge.Redeem(from, to, tok, value, req.Nonce, req.ChainFrom, sig)
	})
	if err != nil {
		a.log.Warnf("Redeem on chain %d of swap %d:%d rejected: %s", req.ChainID, req.ChainFrom, req.Nonce, err)
		a.responseError(w, err, "")
		return
	}

	responseJSON(w, &APISwapResponse{
		Status: "ok",
		Swap:   rec,
	}, http.StatusOK)
}

func redeemSignature(req *RedeemRequest) (types.Signature, error) {
	if req.Signature != "" {
		sig, err := types.ParseSignature(req.Signature)
		if err != nil {
			return sig, fmt.Errorf("%w: %s", errBadRequest, err)
		}
		return sig, nil
	}

	r, err := parseWord(req.R, "r")
	if err != nil {
		return types.Signature{}, err
	}
	s, err := parseWord(req.S, "s")
	if err != nil {
		return types.Signature{}, err
	}
	return types.SignatureFromVRS(req.V, r, s), nil
}

func parseWord(s, name string) ([32]byte, error) {
	var w [32]byte
	b, err := hexutil.Decode(s)
	if err != nil || len(b) != len(w) {
		return w, fmt.Errorf("%w: %s must be 32 bytes of hex", errBadRequest, name)
	}
	copy(w[:], b)
	return w, nil
}
