package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	ethav "github.com/KOREAN139/ethereum-address-validator"
	"github.com/ethereum/go-ethereum/common"

	"gojedibridge/bridge"
	"gojedibridge/chains"
	"gojedibridge/token"
)

var (
	errBadRequest  = errors.New("bad request")
	errRequestUsed = errors.New("swap request already used")
)

func responseJSON(w http.ResponseWriter, data interface{}, code int) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(data)
}

func errorStatus(err error) int {
	switch {
	case errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, bridge.ErrUnauthorized), errors.Is(err, token.ErrNotOwner), errors.Is(err, token.ErrNotMinter):
		return http.StatusForbidden
	case errors.Is(err, bridge.ErrNotWhitelisted), errors.Is(err, bridge.ErrInvalidAmount),
		errors.Is(err, token.ErrOverflow), errors.Is(err, token.ErrInsufficientBalance):
		return http.StatusUnprocessableEntity
	case errors.Is(err, bridge.ErrReplayRejected), errors.Is(err, errRequestUsed):
		return http.StatusConflict
	case errors.Is(err, bridge.ErrInvalidSignature):
		return http.StatusUnauthorized
	case errors.Is(err, chains.ErrUnknownChain), errors.Is(err, bridge.ErrSwapNotFound), errors.Is(err, token.ErrUnknownToken):
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

func (a *API) responseError(w http.ResponseWriter, err error, field string) {
	code := errorStatus(err)
	msg := err.Error()
	if code == http.StatusInternalServerError {
		a.log.Errorf("Internal error: %s", err)
		msg = "Internal error"
	}
	responseJSON(w, &APIResponse{
		Status:  "error",
		Message: msg,
		Field:   field,
	}, code)
}

func (a *API) readRequest(w http.ResponseWriter, r *http.Request, req interface{}) bool {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		a.log.Warnf("Error reading request body: %s", err)
		responseJSON(w, &APIResponse{
			Status:  "error",
			Message: "Error reading request body",
		}, http.StatusBadRequest)
		return false
	}
	if err := json.Unmarshal(body, req); err != nil {
		a.log.Warnf("Error unmarshalling request body: %s", err)
		responseJSON(w, &APIResponse{
			Status:  "error",
			Message: "Cannot unmarshal input JSON",
		}, http.StatusBadRequest)
		return false
	}
	return true
}

func parseAddress(s string) (common.Address, error) {
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("%w: invalid address %q", errBadRequest, s)
	}
	addr := common.HexToAddress(s)
	body := strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if body == strings.ToLower(body) || body == strings.ToUpper(body) {
		// no checksum to verify
		return addr, nil
	}
	raw := "0x" + body
	if err := ethav.Validate(raw); err != nil {
		return common.Address{}, fmt.Errorf("%w: invalid address %q: %s", errBadRequest, s, err)
	}
	if raw != addr.Hex() {
		return common.Address{}, fmt.Errorf("%w: bad checksum in address %q", errBadRequest, s)
	}
	return addr, nil
}
