// mnosim serves a stand-in for the operator request API and its token
// endpoint, backed by memory or Postgres.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"imsidesk/internal/auth"
	"imsidesk/internal/config"
	httpx "imsidesk/internal/http"
	"imsidesk/internal/services/cases"
	"imsidesk/internal/store/memory"
	"imsidesk/internal/store/postgres"
	"imsidesk/internal/store/repositories"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
)

func main() {
	cfg := config.Load()

	var operator, role string
	var seed int
	var printToken bool
	var intakeEvery time.Duration
	flagSet := pflag.NewFlagSet("mnosim", pflag.ExitOnError)
	flagSet.StringVar(&cfg.Sim.Port, "port", cfg.Sim.Port, "listen port")
	flagSet.StringVar(&cfg.Sim.DSN, "dsn", cfg.Sim.DSN, "Postgres DSN (default: in-memory store)")
	flagSet.StringVar(&operator, "mno", "jazz", "operator whose cases are seeded")
	flagSet.IntVar(&seed, "seed", cfg.Sim.SeedCases, "pending cases to seed")
	flagSet.StringVar(&role, "role", "", "operator role put in the printed token (default: --mno)")
	flagSet.BoolVar(&printToken, "print-token", true, "print a fresh access/refresh token pair on start")
	flagSet.DurationVar(&intakeEvery, "intake-every", 0, "add a new pending case at this interval (0 disables)")
	_ = flagSet.Parse(os.Args[1:])
	if role == "" {
		role = operator
	}

	zerolog.SetGlobalLevel(cfg.App.Level())
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Init store
	var repo repositories.CaseRepository
	if cfg.Sim.DSN != "" {
		pool, pgRepo := postgres.MustOpenCases(ctx, cfg.Sim.DSN)
		defer pool.Close()
		repo = pgRepo
	} else {
		repo = memory.NewCaseRepository()
	}

	svc := cases.NewService(repo, cfg.Sim.CountryCode)
	if seed > 0 {
		if err := svc.SeedDemo(ctx, operator, 1, seed); err != nil {
			log.Fatal().Err(err).Msg("seed failed")
		}
	}

	// Start case intake worker
	if intakeEvery > 0 {
		worker := cases.NewIntakeWorker(svc, operator, int64(seed)+1, intakeEvery, 1)
		go worker.Run(ctx)
	}

	iss := &auth.Issuer{
		Secret:    []byte(cfg.Sim.JWTSecret),
		ClientID:  cfg.Auth.ClientID,
		AccessTTL: cfg.Sim.AccessTTL,
	}
	if printToken {
		tok, err := iss.Issue("operator", []string{role})
		if err != nil {
			log.Fatal().Err(err).Msg("issue token")
		}
		fmt.Printf("AUTH_ACCESS_TOKEN=%s\nAUTH_REFRESH_TOKEN=%s\n", tok.AccessToken, tok.RefreshToken)
	}

	// Router
	r := httpx.NewRouter(httpx.RouterDependencies{
		Cases:         svc,
		Issuer:        iss,
		ReservedRoles: cfg.Auth.ReservedRoles,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Sim.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Info().Msgf("MNO simulator listening on :%s", cfg.Sim.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	cancel()
	ctx2, cancel2 := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)
	log.Info().Msg("server stopped")
}
