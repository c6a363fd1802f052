package handlers

import (
	"net/http"

	"github.com/go-chi/chi"

	"gojedibridge/chains"
	"gojedibridge/types"
)

// GetSwap returns a logged swap and, once the validator has seen it, its
// attestation operation.
func (a *API) GetSwap(w http.ResponseWriter, r *http.Request) {
	chainID, err := parseUint(chi.URLParam(r, "chain"), "chain")
	if err != nil {
		a.responseError(w, err, "chain")
		return
	}
	nonce, err := parseUint(chi.URLParam(r, "nonce"), "nonce")
	if err != nil {
		a.responseError(w, err, "nonce")
		return
	}

	rec, err := chains.WithChain(a.network, chainID, func(c *chains.Chain) (*types.SwapRecord, error) {
		return c.Bridge.SwapByNonce(nonce)
	})
	if err != nil {
		a.responseError(w, err, "")
		return
	}

	op, err := a.rdb.FindOperationBySwap(chainID, nonce)
	if err != nil {
		a.responseError(w, err, "")
		return
	}

	responseJSON(w, &APISwapResponse{
		Status:    "ok",
		Swap:      rec,
		Operation: op,
	}, http.StatusOK)
}
