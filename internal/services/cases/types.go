package cases

import (
	"math"

	"imsidesk/internal/domain/request"
)

// PageRequest is a first-page query. Start is the 1-based page number.
type PageRequest struct {
	Operator string `json:"mno"`
	Start    int    `json:"start"`
	Limit    int    `json:"limit"`
}

// MaxLimit caps the page size a client may ask for
const MaxLimit = 200

// Validate normalizes paging parameters
func (req *PageRequest) Validate() {
	if req.Limit <= 0 {
		req.Limit = request.DefaultPageSize
	}
	if req.Limit > MaxLimit {
		req.Limit = MaxLimit
	}
	if req.Start < 1 {
		req.Start = 1
	}
	// keep Offset within int; pages this far out are always empty
	if maxStart := math.MaxInt / req.Limit; req.Start > maxStart {
		req.Start = maxStart
	}
}

// Offset is the number of cases before the requested page
func (req PageRequest) Offset() int {
	return (req.Start - 1) * req.Limit
}

// ServiceError represents a case service error
type ServiceError struct {
	Op  string
	Err error
}

func (e *ServiceError) Error() string {
	return "case service " + e.Op + ": " + e.Err.Error()
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}
