package handlers

import (
	"fmt"
	"net/http"

	"gojedibridge/chains"
	"gojedibridge/types"
)

const maxRequestID = 64

func (a *API) Swap(w http.ResponseWriter, r *http.Request) {
	var req SwapRequest
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

	if req.RequestID == "" || len(req.RequestID) > maxRequestID {
		a.responseError(w, fmt.Errorf("%w: requestId must be 1 to %d characters", errBadRequest, maxRequestID), "requestId")
		return
	}

	rec, err := chains.WithChain(a.network, req.ChainID, func(c *chains.Chain) (*types.SwapRecord, error) {
		caller, err := recoverCaller(SwapMessage(req.ChainID, req.RequestID, to, tok, value, req.ChainTo), req.Signature)
		if err != nil {
			return nil, err
		}
		if caller != from {
			return nil, fmt.Errorf("%w: request signed by %s", errSignedByOther, caller.Hex())
		}
		// a signed request is spent even if the swap below fails
		fresh, err := a.rdb.ClaimSwapRequest(req.ChainID, from, req.RequestID)
		if err != nil {
			return nil, err
		}
		if !fresh {
			return nil, fmt.Errorf("%w: %q", errRequestUsed, req.RequestID)
		}
		return c.Bridge.Swap(from, to, tok, value, req.ChainTo)
	})
	if err != nil {
		a.log.Warnf("Swap on chain %d from %s rejected: %s", req.ChainID, from.Hex(), err)
		a.responseError(w, err, "")
		return
	}

	responseJSON(w, &APISwapResponse{
		Status: "ok",
		Swap:   rec,
	}, http.StatusOK)
}
