package handlers

import (
	"net/http"
)

func (a *API) State(w http.ResponseWriter, r *http.Request) {
	resp := &APIStateResponse{Status: "ok"}

	for _, id := range a.network.IDs() {
		c, err := a.network.Chain(id)
		if err != nil {
			a.responseError(w, err, "")
			return
		}
		b := c.Bridge

		next, err := b.NextNonce()
		if err != nil {
			a.responseError(w, err, "")
			return
		}
		dest, err := b.Chains()
		if err != nil {
			a.responseError(w, err, "")
			return
		}

		state := ChainState{
			ChainID:   id,
			Name:      c.Name,
			Bridge:    b.Address().Hex(),
			Owner:     b.Owner().Hex(),
			Validator: b.Validator().Hex(),
			NextNonce: next,
			Chains:    dest,
		}
		for _, t := range c.Bank.Tokens() {
			included, err := b.IsTokenIncluded(t.Address)
			if err != nil {
				a.responseError(w, err, "")
				return
			}
			state.Tokens = append(state.Tokens, TokenState{
				Address:  t.Address.Hex(),
				Name:     t.Name,
				Symbol:   t.Symbol,
				Included: included,
			})
		}
		resp.Chains = append(resp.Chains, state)
	}

	responseJSON(w, resp, http.StatusOK)
}
