package postgres

import (
	"context"
	"errors"
	"fmt"

	"imsidesk/internal/domain/request"
	"imsidesk/internal/store/repositories"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
CREATE TABLE IF NOT EXISTS mno_cases (
	req_id      BIGINT PRIMARY KEY,
	operator    TEXT NOT NULL,
	msisdn      TEXT NOT NULL,
	imsi        TEXT UNIQUE,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	attached_at TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS mno_cases_pending_idx ON mno_cases (operator, req_id) WHERE imsi IS NULL;
`

const uniqueViolation = "23505"

// CaseRepository implements repositories.CaseRepository on Postgres
type CaseRepository struct {
	db *pgxpool.Pool
}

// NewCaseRepository creates a new case repository
func NewCaseRepository(db *pgxpool.Pool) *CaseRepository {
	return &CaseRepository{db: db}
}

// EnsureSchema creates the cases table when missing
func (r *CaseRepository) EnsureSchema(ctx context.Context) error {
	_, err := r.db.Exec(ctx, schema)
	return err
}

// ListPending returns a page of cases without an IMSI
func (r *CaseRepository) ListPending(ctx context.Context, operator string, limit, offset int) ([]request.Case, int, error) {
	var total int
	if err := r.db.QueryRow(ctx, `
		SELECT count(*) FROM mno_cases
		WHERE operator = $1 AND imsi IS NULL`, operator).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.db.Query(ctx, `
		SELECT req_id, msisdn FROM mno_cases
		WHERE operator = $1 AND imsi IS NULL
		ORDER BY req_id
		LIMIT $2 OFFSET $3`, operator, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	cases, err := scanCases(rows)
	return cases, total, err
}

// ListAllPending returns every case without an IMSI
func (r *CaseRepository) ListAllPending(ctx context.Context, operator string) ([]request.Case, error) {
	rows, err := r.db.Query(ctx, `
		SELECT req_id, msisdn FROM mno_cases
		WHERE operator = $1 AND imsi IS NULL
		ORDER BY req_id`, operator)
	if err != nil {
		return nil, err
	}
	return scanCases(rows)
}

// Attach sets the IMSI on the oldest pending case for msisdn
func (r *CaseRepository) Attach(ctx context.Context, operator, msisdn, imsi string) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE mno_cases SET imsi = $3, attached_at = now()
		WHERE req_id = (
			SELECT req_id FROM mno_cases
			WHERE operator = $1 AND msisdn = $2 AND imsi IS NULL
			ORDER BY req_id
			LIMIT 1
		)`, operator, msisdn, imsi)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return fmt.Errorf("%w: %s", repositories.ErrAlreadyAttached, imsi)
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", repositories.ErrNotFound, msisdn)
	}
	return nil
}

// Seed inserts cases, skipping request ids that already exist
func (r *CaseRepository) Seed(ctx context.Context, operator string, cases []request.Case) error {
	batch := &pgx.Batch{}
	for _, c := range cases {
		batch.Queue(`
			INSERT INTO mno_cases (req_id, operator, msisdn)
			VALUES ($1, $2, $3)
			ON CONFLICT (req_id) DO NOTHING`, c.RequestID, operator, c.MSISDN)
	}
	return r.db.SendBatch(ctx, batch).Close()
}

func scanCases(rows pgx.Rows) ([]request.Case, error) {
	defer rows.Close()
	cases := []request.Case{}
	for rows.Next() {
		var c request.Case
		if err := rows.Scan(&c.RequestID, &c.MSISDN); err != nil {
			return nil, err
		}
		cases = append(cases, c)
	}
	return cases, rows.Err()
}
