package usecase

import "errors"

// Sentinel errors for the engine's rejection taxonomy. Services wrap these
// with fmt.Errorf("%w: ...") so the HTTP layer can branch on reason codes
// without parsing prose.
var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrNotFound          = errors.New("resource not found")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrForbidden         = errors.New("forbidden")
	ErrConflict          = errors.New("conflicting state")
	ErrMarketClosed      = errors.New("market window is closed")
	ErrDuplicateProposal = errors.New("duplicate active proposal")
	ErrStoreUnavailable  = errors.New("ledger store unavailable")
)
