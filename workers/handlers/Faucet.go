package handlers

import (
	"fmt"
	"net/http"

	"gojedibridge/chains"
	"gojedibridge/types"
)

// Faucet mints test tokens with the token owner's rights. Devnets only.
func (a *API) Faucet(w http.ResponseWriter, r *http.Request) {
	if !a.faucet {
		responseJSON(w, &APIResponse{
			Status:  "error",
			Message: "Faucet is disabled",
		}, http.StatusNotFound)
		return
	}

	var req FaucetRequest
	if !a.readRequest(w, r, &req) {
		return
	}
	tok, err := parseAddress(req.Token)
	if err != nil {
		a.responseError(w, err, "token")
		return
	}
	to, err := parseAddress(req.To)
	if err != nil {
		a.responseError(w, err, "to")
		return
	}
	value, err := types.ParseAmount(req.Value)
	if err != nil {
		a.responseError(w, fmt.Errorf("%w: %s", errBadRequest, err), "value")
		return
	}

	resp, err := chains.WithChain(a.network, req.ChainID, func(c *chains.Chain) (*APIBalanceResponse, error) {
		t, err := c.Bank.Token(tok)
		if err != nil {
			return nil, err
		}
		if err := t.Mint(t.Owner, to, value); err != nil {
			return nil, err
		}
		return &APIBalanceResponse{
			Status:  "ok",
			Symbol:  t.Symbol,
			Balance: t.BalanceOf(to).Dec(),
		}, nil
	})
	if err != nil {
		a.responseError(w, err, "")
		return
	}

	a.log.Infof("Faucet minted %s %s to %s on chain %d", value.Dec(), resp.Symbol, to.Hex(), req.ChainID)
	responseJSON(w, resp, http.StatusOK)
}
