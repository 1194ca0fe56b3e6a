package requests

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"imsidesk/internal/domain/imsi"
	"imsidesk/internal/domain/request"

	"github.com/rs/zerolog/log"
)

// Gateway is the operator API the screen drives
type Gateway interface {
	FirstPage(ctx context.Context, operator string, start, limit int) (*request.Page, error)
	BulkDownload(ctx context.Context, operator string) ([]byte, error)
	AttachIMSI(ctx context.Context, req request.AttachIMSI) (*request.AttachResult, error)
}

// Saver writes a downloaded export and returns where it ended up
type Saver interface {
	Save(name string, data []byte) (string, error)
}

// OperatorResolver names the operator the current user works for
type OperatorResolver interface {
	Operator() (string, error)
}

var (
	// ErrStale means a newer fetch superseded this one; its result was dropped
	ErrStale = errors.New("stale page response discarded")
	// ErrNotActivated is returned before Activate resolved an operator
	ErrNotActivated = errors.New("requests screen not activated")
	// ErrNoSaver is returned by BulkDownload when no Saver is configured
	ErrNoSaver = errors.New("no export destination configured")
)

// State is a snapshot of the screen for renderers
type State struct {
	Operator    string
	Window      request.Window
	Cases       []request.Case
	CountryCode string
	Loading     bool
	Loaded      bool
	Dialog      Dialog
}

// Empty reports whether a completed load returned no rows
func (s State) Empty() bool {
	return s.Loaded && len(s.Cases) == 0
}

// Screen holds the request list, paging and add-IMSI dialog. Methods are
// safe for concurrent use; every fetch is tagged with a sequence number
// and only the latest one may update the list.
type Screen struct {
	gateway  Gateway
	saver    Saver
	notifier Notifier
	reporter Reporter
	pageSize int

	mu          sync.Mutex
	seq         uint64
	operator    string
	window      request.Window
	cases       []request.Case
	countryCode string
	loading     bool
	loaded      bool
	dialog      Dialog
}

// Option configures a Screen
type Option func(*Screen)

// WithPageSize overrides request.DefaultPageSize
func WithPageSize(n int) Option { return func(s *Screen) { s.pageSize = n } }

// WithSaver sets where bulk downloads are written
func WithSaver(sv Saver) Option { return func(s *Screen) { s.saver = sv } }

// WithNotifier sets the success sink
func WithNotifier(n Notifier) Option { return func(s *Screen) { s.notifier = n } }

// WithReporter sets the error sink
func WithReporter(r Reporter) Option { return func(s *Screen) { s.reporter = r } }

// NewScreen creates a screen backed by gateway
func NewScreen(gateway Gateway, opts ...Option) *Screen {
	s := &Screen{
		gateway:  gateway,
		notifier: logNotifier{},
		reporter: logReporter{},
		pageSize: request.DefaultPageSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.window = request.NewWindow(s.pageSize)
	return s
}

// Activate resolves the operator and loads the first page
func (s *Screen) Activate(ctx context.Context, resolver OperatorResolver) error {
	operator, err := resolver.Operator()
	if err != nil {
		s.reporter.Error("activate", err)
		return fmt.Errorf("resolve operator: %w", err)
	}

	s.mu.Lock()
	s.operator = operator
	s.window = request.NewWindow(s.pageSize)
	s.cases = nil
	s.loaded = false
	s.mu.Unlock()

	log.Info().Str("mno", operator).Msg("requests screen activated")
	return s.FetchPage(ctx, 1)
}

// FetchPage loads page from the operator API. A response that arrives
// after a newer fetch started is discarded with ErrStale.
func (s *Screen) FetchPage(ctx context.Context, page int) error {
	s.mu.Lock()
	if s.operator == "" {
		s.mu.Unlock()
		return ErrNotActivated
	}
	if page < 1 {
		page = 1
	}
	s.seq++
	seq := s.seq
	s.window = s.window.WithPage(page)
	s.loading = true
	operator, start, limit := s.operator, s.window.StartIndex, s.window.PageSize
	s.mu.Unlock()

	result, err := s.gateway.FirstPage(ctx, operator, start, limit)

	s.mu.Lock()
	if seq != s.seq {
		s.mu.Unlock()
		log.Debug().Uint64("seq", seq).Int("page", page).Msg("dropping stale page response")
		return ErrStale
	}
	s.loading = false
	if err != nil {
		s.mu.Unlock()
		s.reporter.Error("fetch page", err)
		return err
	}
	s.window = s.window.WithTotal(result.Count)
	s.countryCode = result.CountryCode
	if len(result.Cases) == 0 && result.Count > 0 && page > s.window.Pages() {
		// the page emptied underneath us, e.g. the last row was attached
		last := s.window.Pages()
		s.mu.Unlock()
		log.Debug().Int("page", page).Int("last", last).Msg("page past the end, loading last page")
		return s.FetchPage(ctx, last)
	}
	s.cases = result.Cases
	s.loaded = true
	s.mu.Unlock()
	return nil
}

// ChangePage clamps page to the known page range and fetches it
func (s *Screen) ChangePage(ctx context.Context, page int) error {
	s.mu.Lock()
	page = s.window.Clamp(page)
	s.mu.Unlock()
	return s.FetchPage(ctx, page)
}

// Refresh re-fetches the current page
func (s *Screen) Refresh(ctx context.Context) error {
	s.mu.Lock()
	page := s.window.CurrentPage
	s.mu.Unlock()
	return s.FetchPage(ctx, page)
}

// SelectRow opens the add-IMSI dialog for c's phone number
func (s *Screen) SelectRow(c request.Case) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dialog.open(c.MSISDN)
}

// CancelDialog clears and closes the dialog without contacting the API
func (s *Screen) CancelDialog() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dialog.State == DialogSubmitting {
		return ErrDialogBusy
	}
	s.dialog.close()
	return nil
}

// BulkDownload saves the operator's full request export and returns the
// path it was written to
func (s *Screen) BulkDownload(ctx context.Context) (string, error) {
	s.mu.Lock()
	operator := s.operator
	s.mu.Unlock()
	if operator == "" {
		return "", ErrNotActivated
	}
	if s.saver == nil {
		return "", ErrNoSaver
	}

	data, err := s.gateway.BulkDownload(ctx, operator)
	if err != nil {
		s.reporter.Error("bulk download", err)
		return "", err
	}
	path, err := s.saver.Save(request.ExportFileName, data)
	if err != nil {
		s.reporter.Error("save export", err)
		return "", err
	}

	log.Info().Str("mno", operator).Str("path", path).Int("bytes", len(data)).Msg("request export saved")
	return path, nil
}

// SubmitIMSI validates form and attaches the IMSI to the selected number.
// On success the dialog closes, the list is re-fetched and the server's
// message is passed to the notifier. A failed attach keeps the dialog
// open. The form is cleared after every attempt that passed validation.
func (s *Screen) SubmitIMSI(ctx context.Context, form imsi.Submission) error {
	s.mu.Lock()
	if s.dialog.State == DialogClosed {
		s.mu.Unlock()
		return ErrDialogClosed
	}
	if err := imsi.Validate(form); err != nil {
		var verrs imsi.ValidationErrors
		if errors.As(err, &verrs) {
			s.dialog.reject(form, verrs)
		}
		s.mu.Unlock()
		return err
	}
	msisdn, err := s.dialog.begin()
	if err != nil {
		s.mu.Unlock()
		return err
	}
	operator, countryCode := s.operator, s.countryCode
	s.mu.Unlock()

	subscriber, err := request.SplitMSISDN(msisdn, countryCode)
	if err != nil {
		s.failSubmit("attach imsi", err)
		return err
	}

	res, err := s.gateway.AttachIMSI(ctx, request.AttachIMSI{
		Operator:   operator,
		Subscriber: subscriber,
		IMSI:       form.IMSI,
	})
	if err != nil {
		s.failSubmit("attach imsi", err)
		return err
	}

	s.mu.Lock()
	s.dialog.close()
	s.mu.Unlock()

	if err := s.Refresh(ctx); err != nil && !errors.Is(err, ErrStale) {
		log.Warn().Err(err).Msg("reload after imsi attach failed")
	}
	s.notifier.Success(res.Message)
	return nil
}

func (s *Screen) failSubmit(op string, err error) {
	s.mu.Lock()
	s.dialog.fail()
	s.mu.Unlock()
	s.reporter.Error(op, err)
}

// State returns a copy of the current screen state
func (s *Screen) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	cases := make([]request.Case, len(s.cases))
	copy(cases, s.cases)
	return State{
		Operator:    s.operator,
		Window:      s.window,
		Cases:       cases,
		CountryCode: s.countryCode,
		Loading:     s.loading,
		Loaded:      s.loaded,
		Dialog:      s.dialog,
	}
}
