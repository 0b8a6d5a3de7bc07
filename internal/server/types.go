package server

import "github.com/aman-zulfiqar/token-sweeper/internal/constants"

// ErrorResponse is the body of errors the service raises itself (validation,
// configuration, auth, flags). Code is the HTTP status. Relayed upstream
// rejections use upstream.ErrorResponse instead, whose code is whatever the
// provider sent.
type ErrorResponse struct {
	Error   string `json:"error"`             // Human-readable error message
	Code    int    `json:"code,omitempty"`    // HTTP status code
	Details any    `json:"details,omitempty"` // Additional error details (dev mode only)
}

// HealthResponse represents the health check response
type HealthResponse struct {
	OK    bool   `json:"ok"`
	Cache string `json:"cache,omitempty"` // "up" or "down" when a balance cache is wired
}

// ChainsResponse lists the EVM chains a sweep can target.
type ChainsResponse struct {
	Items []constants.ChainTargets `json:"items"`
}

// FlagUpsertRequest represents a request to create or update a flag
type FlagUpsertRequest struct {
	Key   string `json:"key"`
	Value bool   `json:"value"`
}

// FlagUpdateRequest represents a request to update an existing flag
type FlagUpdateRequest struct {
	Value bool `json:"value"`
}
