package handlers

import (
	"net/http"

	"gojedibridge/chains"
)

func (a *API) IncludeToken(w http.ResponseWriter, r *http.Request) { a.adminToken(w, r, true) }

func (a *API) ExcludeToken(w http.ResponseWriter, r *http.Request) { a.adminToken(w, r, false) }

func (a *API) UpdateChain(w http.ResponseWriter, r *http.Request) { a.adminChain(w, r, true) }

func (a *API) RemoveChain(w http.ResponseWriter, r *http.Request) { a.adminChain(w, r, false) }

func (a *API) adminToken(w http.ResponseWriter, r *http.Request, include bool) {
	var req AdminTokenRequest
	if !a.readRequest(w, r, &req) {
		return
	}
	tok, err := parseAddress(req.Token)
	if err != nil {
		a.responseError(w, err, "token")
		return
	}
	caller, err := recoverCaller(AdminTokenMessage(req.ChainID, tok, include), req.Signature)
	if err != nil {
		a.responseError(w, err, "signature")
		return
	}

	_, err = chains.WithChain(a.network, req.ChainID, func(c *chains.Chain) (struct{}, error) {
		if include {
			return struct{}{}, c.Bridge.IncludeToken(caller, tok)
		}
		return struct{}{}, c.Bridge.ExcludeToken(caller, tok)
	})
	if err != nil {
		a.log.Warnf("Token %s update on chain %d by %s rejected: %s", tok.Hex(), req.ChainID, caller.Hex(), err)
		a.responseError(w, err, "")
		return
	}

	responseJSON(w, &APIResponse{Status: "ok"}, http.StatusOK)
}

func (a *API) adminChain(w http.ResponseWriter, r *http.Request, include bool) {
	var req AdminChainRequest
	if !a.readRequest(w, r, &req) {
		return
	}
	caller, err := recoverCaller(AdminChainMessage(req.ChainID, req.Chain, include), req.Signature)
	if err != nil {
		a.responseError(w, err, "signature")
		return
	}

	_, err = chains.WithChain(a.network, req.ChainID, func(c *chains.Chain) (struct{}, error) {
		if include {
			return struct{}{}, c.Bridge.UpdateChainByID(caller, req.Chain)
		}
		return struct{}{}, c.Bridge.RemoveChainByID(caller, req.Chain)
	})
	if err != nil {
		a.log.Warnf("Chain %d update on chain %d by %s rejected: %s", req.Chain, req.ChainID, caller.Hex(), err)
		a.responseError(w, err, "")
		return
	}

	responseJSON(w, &APIResponse{Status: "ok"}, http.StatusOK)
}
