package cases

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"

	"imsidesk/internal/domain/imsi"
	"imsidesk/internal/domain/request"
	"imsidesk/internal/store/repositories"

	"github.com/rs/zerolog/log"
)

// ErrInvalidRequest wraps client mistakes in an attach call
var ErrInvalidRequest = errors.New("invalid request")

// Service serves pending IMSI cases for the simulated operator API
type Service struct {
	caseRepo    repositories.CaseRepository
	countryCode string
}

// NewService creates a new case service
func NewService(caseRepo repositories.CaseRepository, countryCode string) *Service {
	return &Service{caseRepo: caseRepo, countryCode: countryCode}
}

// FirstPage returns one page of pending cases
func (s *Service) FirstPage(ctx context.Context, req PageRequest) (*request.Page, error) {
	req.Validate()

	found, total, err := s.caseRepo.ListPending(ctx, req.Operator, req.Limit, req.Offset())
	if err != nil {
		return nil, &ServiceError{Op: "first_page", Err: err}
	}
	if found == nil {
		found = []request.Case{}
	}
	return &request.Page{Cases: found, Count: total, CountryCode: s.countryCode}, nil
}

// ExportCSV writes every pending case for operator as CSV
func (s *Service) ExportCSV(ctx context.Context, operator string, w io.Writer) error {
	all, err := s.caseRepo.ListAllPending(ctx, operator)
	if err != nil {
		return &ServiceError{Op: "bulk_download", Err: err}
	}

	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Req_id", "MSISDN"}); err != nil {
		return err
	}
	for _, c := range all {
		if err := cw.Write([]string{strconv.FormatInt(c.RequestID, 10), c.MSISDN}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// Attach binds an IMSI to the subscriber's pending case and returns the
// confirmation shown to the operator
func (s *Service) Attach(ctx context.Context, operator string, req request.AttachIMSI) (string, error) {
	if req.Operator != operator {
		return "", fmt.Errorf("%w: mno %q does not match session", ErrInvalidRequest, req.Operator)
	}
	if req.Subscriber.CC != s.countryCode || req.Subscriber.SN == "" {
		return "", fmt.Errorf("%w: MSISDN must be CC %s plus subscriber number", ErrInvalidRequest, s.countryCode)
	}
	if err := imsi.Validate(imsi.Submission{IMSI: req.IMSI, ConfirmIMSI: req.IMSI}); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	msisdn := req.Subscriber.MSISDN()
	if err := s.caseRepo.Attach(ctx, operator, msisdn, req.IMSI); err != nil {
		return "", &ServiceError{Op: "single_upload", Err: err}
	}

	log.Info().Str("mno", operator).Str("msisdn", msisdn).Msg("simulator attached imsi")
	return fmt.Sprintf("IMSI %s has been added to %s", req.IMSI, msisdn), nil
}

// SeedDemo inserts n pending cases numbered from firstID
func (s *Service) SeedDemo(ctx context.Context, operator string, firstID int64, n int) error {
	demo := make([]request.Case, 0, n)
	for i := 0; i < n; i++ {
		id := firstID + int64(i)
		demo = append(demo, request.Case{
			RequestID: id,
			MSISDN:    fmt.Sprintf("%s300%07d", s.countryCode, id),
		})
	}
	if err := s.caseRepo.Seed(ctx, operator, demo); err != nil {
		return &ServiceError{Op: "seed", Err: err}
	}
	log.Info().Str("mno", operator).Int("cases", n).Msg("seeded pending cases")
	return nil
}
