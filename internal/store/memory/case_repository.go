package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"imsidesk/internal/domain/request"
	"imsidesk/internal/store/repositories"
)

type caseRecord struct {
	operator string
	c        request.Case
	imsi     string
}

// CaseRepository keeps cases in process memory
type CaseRepository struct {
	mu      sync.RWMutex
	records []*caseRecord
}

// NewCaseRepository creates an empty repository
func NewCaseRepository() *CaseRepository {
	return &CaseRepository{}
}

func (r *CaseRepository) pending(operator string) []request.Case {
	var out []request.Case
	for _, rec := range r.records {
		if rec.operator == operator && rec.imsi == "" {
			out = append(out, rec.c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RequestID < out[j].RequestID })
	return out
}

func (r *CaseRepository) ListPending(ctx context.Context, operator string, limit, offset int) ([]request.Case, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := r.pending(operator)
	if offset < 0 || offset >= len(all) || limit <= 0 {
		return []request.Case{}, len(all), nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return append([]request.Case(nil), all[offset:end]...), len(all), nil
}

func (r *CaseRepository) ListAllPending(ctx context.Context, operator string) ([]request.Case, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.pending(operator), nil
}

func (r *CaseRepository) Attach(ctx context.Context, operator, msisdn, imsi string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var target *caseRecord
	for _, rec := range r.records {
		if rec.imsi == imsi {
			return fmt.Errorf("%w: %s", repositories.ErrAlreadyAttached, imsi)
		}
		if target == nil && rec.operator == operator && rec.c.MSISDN == msisdn && rec.imsi == "" {
			target = rec
		}
	}
	if target == nil {
		return fmt.Errorf("%w: %s", repositories.ErrNotFound, msisdn)
	}
	target.imsi = imsi
	return nil
}

func (r *CaseRepository) Seed(ctx context.Context, operator string, cases []request.Case) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range cases {
		r.records = append(r.records, &caseRecord{operator: operator, c: c})
	}
	return nil
}
