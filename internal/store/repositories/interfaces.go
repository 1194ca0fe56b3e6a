package repositories

import (
	"context"
	"errors"

	"imsidesk/internal/domain/request"
)

var (
	// ErrNotFound means no pending case exists for the operator and number
	ErrNotFound = errors.New("case not found")
	// ErrAlreadyAttached means the IMSI is already bound to another number
	ErrAlreadyAttached = errors.New("imsi already attached")
)

// CaseRepository defines the contract for pending request data access
type CaseRepository interface {
	// ListPending returns one page of cases still waiting for an IMSI,
	// ordered by request id, plus the total number of pending cases
	ListPending(ctx context.Context, operator string, limit, offset int) ([]request.Case, int, error)
	// ListAllPending returns every pending case for the bulk export
	ListAllPending(ctx context.Context, operator string) ([]request.Case, error)
	// Attach binds imsi to the pending case for msisdn
	Attach(ctx context.Context, operator, msisdn, imsi string) error
	// Seed inserts pending cases for an operator
	Seed(ctx context.Context, operator string, cases []request.Case) error
}
