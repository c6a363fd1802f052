package handlers

import (
	"net/http"
)

func (a *API) HealthCheck(w http.ResponseWriter, r *http.Request) {
	if err := a.rdb.Ping(); err != nil {
		a.log.Errorf("Health check: redis ping failed: %s", err)
		responseJSON(w, &APIResponse{
			Status:  "error",
			Message: "Redis is not available",
		}, http.StatusServiceUnavailable)
		return
	}
	responseJSON(w, &APIResponse{
		Status: "ok",
	}, http.StatusOK)
}
