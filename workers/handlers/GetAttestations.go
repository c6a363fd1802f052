package handlers

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi"

	"gojedibridge/redis"
)

func (a *API) GetAttestations(w http.ResponseWriter, r *http.Request) {
	status := chi.URLParam(r, "status")
	if _, ok := redis.OperationStatusSets[status]; !ok {
		a.responseError(w, fmt.Errorf("%w: unknown status %q", errBadRequest, status), "status")
		return
	}

	ops, err := a.rdb.FindAllOperationsByStatus(status)
	if err != nil {
		a.responseError(w, err, "")
		return
	}

	responseJSON(w, ops, http.StatusOK)
}
