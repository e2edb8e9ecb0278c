package gateway

import (
	"errors"
	"strings"
)

// Sentinel errors for the gateway's failure taxonomy. Callers special-case
// classes with errors.Is; the wrapped messages carry the specifics.
var (
	ErrUnknownTool          = errors.New("unknown tool")
	ErrToolDisabled         = errors.New("tool disabled")
	ErrRateLimited          = errors.New("rate limit exceeded")
	ErrHandlerNotRegistered = errors.New("no implementation registered")
	ErrApprovalNotFound     = errors.New("approval not found")
	ErrApprovalDecided      = errors.New("approval already decided")
	ErrApprovalExpired      = errors.New("approval expired")
)

// ValidationError aggregates every parameter violation found in one pass,
// so a caller sees the full list instead of fixing one field at a time.
type ValidationError struct {
	Tool       string
	Violations []string
}

// Error implements error.
func (e *ValidationError) Error() string {
	return "invalid parameters for " + e.Tool + ": " + strings.Join(e.Violations, "; ")
}
