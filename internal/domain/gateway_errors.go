package domain

import "errors"

// Sentinel errors matched with errors.Is at the transport boundary and
// mapped to the status codes and envelope codes of spec §7.
var (
	ErrMissingTenant = errors.New("missing tenant identifier")
	ErrForbidden     = errors.New("forbidden")
	ErrBadRequest    = errors.New("bad request")
	ErrEngineError   = errors.New("engine error")
	ErrNotImplemented = errors.New("not implemented")
)

// Envelope codes returned in ErrorEnvelope.Code.
const (
	CodeMissingTenant = "MISSING_TENANT_ID"
	CodeForbidden     = "FORBIDDEN"
	CodeBadRequest    = "BAD_REQUEST"
	CodeEngineError   = "ENGINE_ERROR"
	CodeInternal      = "INTERNAL_ERROR"
)
