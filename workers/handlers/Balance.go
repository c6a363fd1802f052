package handlers

import (
	"net/http"

	"github.com/go-chi/chi"

	"gojedibridge/chains"
)

func (a *API) Balance(w http.ResponseWriter, r *http.Request) {
	chainID, err := parseUint(chi.URLParam(r, "chain"), "chain")
	if err != nil {
		a.responseError(w, err, "chain")
		return
	}
	tok, err := parseAddress(chi.URLParam(r, "token"))
	if err != nil {
		a.responseError(w, err, "token")
		return
	}
	holder, err := parseAddress(chi.URLParam(r, "address"))
	if err != nil {
		a.responseError(w, err, "address")
		return
	}

	resp, err := chains.WithChain(a.network, chainID, func(c *chains.Chain) (*APIBalanceResponse, error) {
		t, err := c.Bank.Token(tok)
		if err != nil {
			return nil, err
		}
		return &APIBalanceResponse{
			Status:  "ok",
			Symbol:  t.Symbol,
			Balance: t.BalanceOf(holder).Dec(),
		}, nil
	})
	if err != nil {
		a.responseError(w, err, "")
		return
	}

	responseJSON(w, resp, http.StatusOK)
}
