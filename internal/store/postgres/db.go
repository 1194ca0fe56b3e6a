package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

func MustOpen(ctx context.Context, dsn string) *pgxpool.Pool {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		log.Fatal().Err(err).Msg("db connect fail")
	}
	if err := pool.Ping(ctx); err != nil {
		log.Fatal().Err(err).Msg("db ping fail")
	}
	return pool
}

// MustOpenCases opens the pool and makes sure the cases table exists
func MustOpenCases(ctx context.Context, dsn string) (*pgxpool.Pool, *CaseRepository) {
	pool := MustOpen(ctx, dsn)
	repo := NewCaseRepository(pool)
	if err := repo.EnsureSchema(ctx); err != nil {
		pool.Close()
		log.Fatal().Err(err).Msg("db schema fail")
	}
	return pool, repo
}
