package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/BoweryJG/BoweryCreative-backend/internal/campaign"
	"github.com/BoweryJG/BoweryCreative-backend/internal/config"
	"github.com/BoweryJG/BoweryCreative-backend/internal/dispatch"
	"github.com/BoweryJG/BoweryCreative-backend/internal/domain"
	"github.com/BoweryJG/BoweryCreative-backend/internal/handler"
	"github.com/BoweryJG/BoweryCreative-backend/internal/infra/postgresql"
	"github.com/BoweryJG/BoweryCreative-backend/internal/infra/postgresql/migrations"
	infraredis "github.com/BoweryJG/BoweryCreative-backend/internal/infra/redis"
	"github.com/BoweryJG/BoweryCreative-backend/internal/mailer"
	"github.com/BoweryJG/BoweryCreative-backend/internal/observability"
	"github.com/BoweryJG/BoweryCreative-backend/internal/pool"
	"github.com/BoweryJG/BoweryCreative-backend/internal/repository"
	"github.com/BoweryJG/BoweryCreative-backend/internal/transport"
	"github.com/gofiber/fiber/v2"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("failed to load config", zap.Error(err))
	}

	logger, err := observability.NewLogger(cfg.LogLevel)
	if err != nil {
		log.Fatal("failed to initialize logger", zap.Error(err))
	}
	defer logger.Sync() //nolint:errcheck

	db, err := postgresql.NewPostgres(cfg.DatabaseDSN)
	if err != nil {
		logger.Fatal("postgres initialization failed", zap.Error(err))
	}

	if err := migrations.Migrate(db); err != nil {
		logger.Fatal("database migrations failed", zap.Error(err))
	}

	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("postgres underlying db init failed", zap.Error(err))
	}
	defer sqlDB.Close()

	var rdb *goredis.Client
	if cfg.RedisURL != "" {
		rdb, err = infraredis.NewRedis(cfg.RedisURL)
		if err != nil {
			logger.Fatal("redis initialization failed", zap.Error(err))
		}
		defer rdb.Close()
	}

	loc, err := cfg.Location()
	if err != nil {
		logger.Fatal("timezone resolution failed", zap.Error(err))
	}

	accountConfigs, err := cfg.MailAccounts()
	if err != nil {
		logger.Fatal("mail account config is malformed", zap.Error(err))
	}

	accountPool, err := pool.NewAccountPool(accountConfigs, pool.QuotaPolicy{
		WorkspaceDomain: cfg.WorkspaceDomain,
		StandardQuota:   cfg.StandardDailyQuota,
		HighVolumeQuota: cfg.HighVolumeDailyQuota,
	}, logger)
	if errors.Is(err, domain.ErrNoAccountsConfigured) {
		logger.Warn("no sending accounts configured, operating relay-only")
	} else if err != nil {
		logger.Fatal("account pool initialization failed", zap.Error(err))
	}

	var quota pool.QuotaStore
	if rdb != nil {
		quota, err = infraredis.NewRedisQuotaStore(rdb, accountPool.Accounts(), loc)
		if err != nil {
			logger.Fatal("redis quota store initialization failed", zap.Error(err))
		}
	} else {
		quota = pool.NewMemoryQuotaStore(accountPool.Accounts())
	}

	selector, err := pool.NewSelector(accountPool, quota)
	if err != nil {
		logger.Fatal("account selector initialization failed", zap.Error(err))
	}

	var relay mailer.Transport
	if cfg.RelayURL != "" {
		relayTransport, err := mailer.NewHTTPRelayTransport(cfg.RelayURL, cfg.RelayAPIKey)
		if err != nil {
			logger.Fatal("relay transport initialization failed", zap.Error(err))
		}
		relay = relayTransport
	}

	events := repository.NewGormEventRepo(db)

	engine, err := dispatch.NewEngine(accountPool, selector, quota, relay, cfg.RelayFrom, events, logger)
	if err != nil {
		logger.Fatal("dispatch engine initialization failed", zap.Error(err))
	}
	engine.SetDefaultBulkDelay(cfg.BulkDelay())

	metrics := observability.NewMetrics()
	engine.SetMetrics(metrics)

	campaigns := repository.NewGormCampaignRepo(db)
	campaignService, err := campaign.NewService(campaigns, logger)
	if err != nil {
		logger.Fatal("campaign service initialization failed", zap.Error(err))
	}

	waveScheduler, err := campaign.NewWaveScheduler(
		campaigns,
		engine,
		cfg.WaveScanInterval(),
		cfg.WaveScanLimit,
		logger,
	)
	if err != nil {
		logger.Fatal("wave scheduler initialization failed", zap.Error(err))
	}
	waveScheduler.SetMetrics(metrics)

	resetLoop, err := dispatch.NewResetLoop(quota, loc, logger)
	if err != nil {
		logger.Fatal("quota reset loop initialization failed", zap.Error(err))
	}

	app := fiber.New(fiber.Config{
		AppName:      "mail-dispatch",
		ErrorHandler: transport.ErrorHandler(logger),
	})
	app.Use(metrics.HTTPMiddleware())

	handler.RegisterHealthRoutes(app, sqlDB, rdb)
	if err := handler.RegisterMailRoutes(app, engine); err != nil {
		logger.Fatal("mail route registration failed", zap.Error(err))
	}
	if err := handler.RegisterCampaignRoutes(app, campaignService); err != nil {
		logger.Fatal("campaign route registration failed", zap.Error(err))
	}
	if err := handler.RegisterEventRoutes(app, events); err != nil {
		logger.Fatal("event route registration failed", zap.Error(err))
	}

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", metrics.Handler())
	metricsServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.MetricsPort),
		Handler: metricsMux,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, groupCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("api listening", zap.Int("port", cfg.APIPort))
		return app.Listen(fmt.Sprintf(":%d", cfg.APIPort))
	})
	g.Go(func() error {
		logger.Info("metrics listening", zap.Int("port", cfg.MetricsPort))
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return waveScheduler.Start(groupCtx)
	})
	g.Go(func() error {
		return resetLoop.Start(groupCtx)
	})
	g.Go(func() error {
		<-groupCtx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			logger.Error("api shutdown failed", zap.Error(err))
		}
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("metrics shutdown failed", zap.Error(err))
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Fatal("service terminated with error", zap.Error(err))
	}
	logger.Info("service stopped")
}
