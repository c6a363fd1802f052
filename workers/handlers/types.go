package handlers

import (
	"gojedibridge/types"
)

type APIResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

type APIStateResponse struct {
	Status string       `json:"status"`
	Chains []ChainState `json:"chains"`
}

type ChainState struct {
	ChainID   uint64       `json:"chainId"`
	Name      string       `json:"name"`
	Bridge    string       `json:"bridge"`
	Owner     string       `json:"owner"`
	Validator string       `json:"validator"`
	NextNonce uint64       `json:"nextNonce"`
	Tokens    []TokenState `json:"tokens"`
	Chains    []uint64     `json:"chains"` // whitelisted destinations
}

type TokenState struct {
	Address  string `json:"address"`
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	Included bool   `json:"included"`
}

// SwapRequest is signed by From, see SwapMessage.
type SwapRequest struct {
	ChainID   uint64 `json:"chainId"`
	From      string `json:"from"`
	To        string `json:"to"`
	Token     string `json:"token"`
	Value     string `json:"value"`
	ChainTo   uint64 `json:"chainTo"`
	RequestID string `json:"requestId"`
	Signature string `json:"signature"`
}

// RedeemRequest carries the attestation either as a 65-byte signature or
// split into v, r and s.
type RedeemRequest struct {
	ChainID   uint64 `json:"chainId"`
	From      string `json:"from"`
	To        string `json:"to"`
	Token     string `json:"token"`
	Value     string `json:"value"`
	Nonce     uint64 `json:"nonce"`
	ChainFrom uint64 `json:"chainFrom"`
	Signature string `json:"signature,omitempty"`
	V         uint8  `json:"v,omitempty"`
	R         string `json:"r,omitempty"`
	S         string `json:"s,omitempty"`
}

type AdminTokenRequest struct {
	ChainID   uint64 `json:"chainId"`
	Token     string `json:"token"`
	Signature string `json:"signature"`
}

type AdminChainRequest struct {
	ChainID   uint64 `json:"chainId"`
	Chain     uint64 `json:"chain"`
	Signature string `json:"signature"`
}

type FaucetRequest struct {
	ChainID uint64 `json:"chainId"`
	Token   string `json:"token"`
	To      string `json:"to"`
	Value   string `json:"value"`
}

type APISwapResponse struct {
	Status    string            `json:"status"`
	Swap      *types.SwapRecord `json:"swap"`
	Operation *types.Operation  `json:"operation,omitempty"`
}

type APIBalanceResponse struct {
	Status  string `json:"status"`
	Symbol  string `json:"symbol"`
	Balance string `json:"balance"`
}
