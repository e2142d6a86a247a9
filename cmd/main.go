package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/okian/squadup/internal/adapters/http/api"
	"github.com/okian/squadup/internal/adapters/http/site"
	"github.com/okian/squadup/internal/adapters/http/swagger"
	"github.com/okian/squadup/internal/adapters/repository"
	"github.com/okian/squadup/internal/adapters/repository/sqlite"
	app "github.com/okian/squadup/internal/app"
	"github.com/okian/squadup/internal/config"
	"github.com/okian/squadup/internal/domain/draft"
	"github.com/okian/squadup/internal/domain/stats"
	"github.com/okian/squadup/pkg/logger"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// HTTP server timeout constants.
const (
	readTimeout          = 10 * time.Second
	writeTimeout         = 10 * time.Second
	idleTimeout          = 60 * time.Second
	readHeaderTimeout    = 5 * time.Second
	shutdownTimeout      = 30 * time.Second
	statsRefreshInterval = 10 * time.Second
)

func main() {
	// Metrics are served from our own registry.
	prometheus.Unregister(collectors.NewGoCollector())
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		logger.Get().Error(ctx, "squadup exited", logger.Error(err))
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	if err := logger.SetFormat(cfg.LogFormat); err != nil {
		return err
	}
	log := logger.Get()
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	repo, err := openRepository(ctx, cfg)
	if err != nil {
		return err
	}

	svc := newService(cfg, repo, log)
	if err := svc.Start(ctx); err != nil {
		_ = repo.Close()
		return err
	}
	defer svc.Stop()

	go refreshStats(ctx, svc)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newMux(ctx, cfg, svc),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return err
	}
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}
	log.Info(ctx, "server stopped")
	return nil
}

// openRepository returns the SQLite store when a storage path is configured
// and the in-memory repository otherwise.
func openRepository(ctx context.Context, cfg *config.Config) (repository.Repository, error) {
	if cfg.StoragePath == "" {
		logger.Get().Warn(ctx, "no storage_path configured; data is kept in memory only")
		return repository.NewMemory(), nil
	}
	return sqlite.Open(ctx, cfg.StoragePath)
}

func newService(cfg *config.Config, repo repository.Repository, log logger.Logger) *app.Service {
	return app.New(
		app.WithLogger(log.Named("service")),
		app.WithRepository(repo),
		app.WithBalancer(draft.New(
			draft.WithMaxProposals(cfg.DraftMaxProposals),
			draft.WithMaxRoster(cfg.DraftMaxRoster),
			draft.WithMaxRosterThreeTeams(cfg.DraftMaxRosterThreeTeams),
			draft.WithCandidateLimit(cfg.DraftCandidateLimit),
			draft.WithSubstitution(cfg.DraftSubstitution),
			draft.WithRatingSigma(cfg.DraftRatingSigma),
		)),
		app.WithAggregator(stats.New(stats.WithHeadToHeadLength(cfg.HeadToHeadLength))),
	)
}

func newMux(ctx context.Context, cfg *config.Config, svc *app.Service) *http.ServeMux {
	mux := http.NewServeMux()
	site.Register(ctx, mux)
	swagger.Register(ctx, mux)
	api.NewServer(svc, svc, cfg.MaxLeaderboardLimit).Register(ctx, mux)
	return mux
}

// refreshStats periodically calls GetStats, which also updates the system
// gauges.
func refreshStats(ctx context.Context, svc *app.Service) {
	ticker := time.NewTicker(statsRefreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			svc.GetStats()
		}
	}
}
