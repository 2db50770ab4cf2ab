// Command console runs the Estudio Praxis operations console: the ALA
// watchlist-screening engine and its HTTP API.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/estudiopraxis/console/api"
	"github.com/estudiopraxis/console/internal/ala"
	"github.com/estudiopraxis/console/internal/ala/certificate"
	"github.com/estudiopraxis/console/internal/ala/ingest"
	"github.com/estudiopraxis/console/internal/ala/liststore"
	"github.com/estudiopraxis/console/internal/ala/screening"
	"github.com/estudiopraxis/console/internal/ala/store"
	"github.com/estudiopraxis/console/internal/ala/supplement"
	"github.com/estudiopraxis/console/internal/config"
	"github.com/estudiopraxis/console/internal/database"
	"github.com/estudiopraxis/console/pkg/logger"
)

func main() {
	// .env is optional; real deployments configure the environment.
	_ = godotenv.Load()

	log, err := logger.NewLogger(os.Getenv("LOG_LEVEL"))
	if err != nil {
		panic(err)
	}
	defer log.Sync()
	sugar := log.Sugar()

	cfg, err := config.LoadConfig()
	if err != nil {
		sugar.Fatalw("failed to load configuration", "error", err)
	}
	if cfg.Auth.JWTSecret == "" {
		sugar.Fatalw("JWT_SECRET must be set")
	}

	db, err := database.New(cfg.Database)
	if err != nil {
		sugar.Fatalw("failed to connect to database", "error", err)
	}

	var backup liststore.Backup
	if cfg.ALA.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.ALA.RedisAddr,
			Password: cfg.ALA.RedisPassword,
		})
		backup = liststore.NewRedisBackup(rdb, 7*24*time.Hour)
	}

	lists := liststore.NewStore(cfg.ALA.StaleAfter, backup, sugar)
	lists.Restore(context.Background())

	sourceClient := ingest.DefaultHTTPClient(cfg.ALA.SourceTimeout)
	manager := ingest.NewManager(lists, []ingest.SourceAdapter{
		ingest.NewPEPUYAdapter(sourceClient, cfg.ALA.PEPUYURL),
		ingest.NewUNAdapter(sourceClient, cfg.ALA.UNURL),
		ingest.NewOFACAdapter(sourceClient, cfg.ALA.OFACURL),
		ingest.NewEUAdapter(sourceClient, cfg.ALA.EUURL),
	}, cfg.ALA.SourceTimeout, sugar)

	matcher := screening.NewMatcher(lists, cfg.ALA.MatchThreshold, sugar)
	countryRisk := screening.NewCountryRiskTable(cfg.ALA.ExtraHighRiskCountries)

	records, err := store.NewRecordStore(db)
	if err != nil {
		sugar.Fatalw("failed to initialize record store", "error", err)
	}

	supplementClient := &http.Client{Timeout: cfg.ALA.SupplementTimeout}
	orchestrator := supplement.NewOrchestrator(records,
		supplement.NewWebSearchChannel(supplementClient, cfg.ALA.WebSearchURL),
		supplement.NewNewsSearchChannel(supplementClient, cfg.ALA.NewsSearchURL),
		supplement.NewEncyclopediaChannel(supplementClient, cfg.ALA.EncyclopediaURL),
		cfg.ALA.SupplementTimeout, sugar)

	issuer := certificate.NewIssuer("Estudio Praxis")

	service := ala.NewService(manager, matcher, countryRisk, records, orchestrator, issuer, sugar)

	refreshCtx, stopRefresh := context.WithCancel(context.Background())
	go refreshLoop(refreshCtx, manager, cfg.ALA.RefreshInterval, sugar)

	server := api.NewServer(cfg, service, log).HTTPServer()
	go func() {
		sugar.Infow("console listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			sugar.Fatalw("server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	sugar.Info("shutting down")

	stopRefresh()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		sugar.Errorw("forced shutdown", "error", err)
	}
}

// refreshLoop performs the initial list load and then refreshes on the
// configured interval until the context is cancelled.
func refreshLoop(ctx context.Context, manager *ingest.Manager, interval time.Duration, logger *zap.SugaredLogger) {
	manager.RefreshAll(ctx)

	if interval <= 0 {
		interval = 24 * time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			logger.Info("scheduled watchlist refresh")
			manager.RefreshAll(ctx)
		}
	}
}
