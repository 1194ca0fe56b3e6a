package postgres

import (
	"context"
	"errors"
	"os"
	"testing"

	"imsidesk/internal/domain/request"
	"imsidesk/internal/store/repositories"

	"github.com/jackc/pgx/v5/pgxpool"
)

var _ repositories.CaseRepository = (*CaseRepository)(nil)

// Needs a disposable database: TEST_DB_DSN=postgres://... go test ./internal/store/postgres
func testRepo(t *testing.T) *CaseRepository {
	t.Helper()
	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN not set")
	}
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(pool.Close)

	repo := NewCaseRepository(pool)
	if err := repo.EnsureSchema(ctx); err != nil {
		t.Fatalf("schema: %v", err)
	}
	if _, err := pool.Exec(ctx, `DELETE FROM mno_cases WHERE operator = 'test-op'`); err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	return repo
}

func TestCaseRepositoryLifecycle(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	err := repo.Seed(ctx, "test-op", []request.Case{
		{RequestID: 900001, MSISDN: "923009000001"},
		{RequestID: 900002, MSISDN: "923009000002"},
		{RequestID: 900003, MSISDN: "923009000003"},
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	page, total, err := repo.ListPending(ctx, "test-op", 2, 0)
	if err != nil || total != 3 || len(page) != 2 || page[0].RequestID != 900001 {
		t.Fatalf("unexpected page %v total=%d err=%v", page, total, err)
	}

	if err := repo.Attach(ctx, "test-op", "923009000001", "410019000000001"); err != nil {
		t.Fatalf("attach: %v", err)
	}
	if err := repo.Attach(ctx, "test-op", "923009000002", "410019000000001"); !errors.Is(err, repositories.ErrAlreadyAttached) {
		t.Fatalf("expected ErrAlreadyAttached, got %v", err)
	}
	if err := repo.Attach(ctx, "test-op", "923009999999", "410019000000002"); !errors.Is(err, repositories.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	all, err := repo.ListAllPending(ctx, "test-op")
	if err != nil || len(all) != 2 {
		t.Fatalf("expected 2 pending, got %v (%v)", all, err)
	}
}
