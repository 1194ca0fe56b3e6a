package cases

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// IntakeWorker adds new pending cases on a timer so the console sees
// requests arrive while it is open
type IntakeWorker struct {
	svc       *Service
	operator  string
	nextID    int64
	pollEvery time.Duration
	batchSize int
}

// NewIntakeWorker creates a worker whose first case gets firstID
func NewIntakeWorker(svc *Service, operator string, firstID int64, pollEvery time.Duration, batchSize int) *IntakeWorker {
	if pollEvery == 0 {
		pollEvery = 30 * time.Second
	}
	if batchSize == 0 {
		batchSize = 1
	}
	return &IntakeWorker{
		svc:       svc,
		operator:  operator,
		nextID:    firstID,
		pollEvery: pollEvery,
		batchSize: batchSize,
	}
}

// Run adds a batch every tick until ctx is cancelled
func (w *IntakeWorker) Run(ctx context.Context) {
	log.Info().
		Dur("poll_every", w.pollEvery).
		Int("batch_size", w.batchSize).
		Msg("case intake worker started")

	ticker := time.NewTicker(w.pollEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("case intake worker stopping")
			return
		case <-ticker.C:
			if err := w.tick(ctx); err != nil {
				log.Error().Err(err).Msg("case intake failed")
			}
		}
	}
}

func (w *IntakeWorker) tick(ctx context.Context) error {
	if err := w.svc.SeedDemo(ctx, w.operator, w.nextID, w.batchSize); err != nil {
		return err
	}
	w.nextID += int64(w.batchSize)
	return nil
}
