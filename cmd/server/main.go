package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/tracelog"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/ogurasousui/rehire-eligibility/internal/adapters/repository/postgres"
	kafkasink "github.com/ogurasousui/rehire-eligibility/internal/adapters/sink/kafka"
	"github.com/ogurasousui/rehire-eligibility/internal/core/eligibility"
	"github.com/ogurasousui/rehire-eligibility/internal/platform/config"
	pg "github.com/ogurasousui/rehire-eligibility/internal/platform/db/postgres"
	"github.com/ogurasousui/rehire-eligibility/internal/platform/logger"
	"github.com/ogurasousui/rehire-eligibility/internal/platform/metrics"
	"github.com/ogurasousui/rehire-eligibility/internal/platform/opsserver"
	"github.com/ogurasousui/rehire-eligibility/internal/platform/server"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "assets/local.yaml"
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		bootLog := zerolog.New(os.Stderr)
		bootLog.Fatal().Err(err).Str("path", cfgPath).Msg("failed to load config")
	}

	log, err := logger.New(cfg.Logging)
	if err != nil {
		bootLog := zerolog.New(os.Stderr)
		bootLog.Fatal().Err(err).Msg("failed to initialize logger")
	}

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server stopped with error")
	}
	log.Info().Msg("server stopped")
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	dbPool, err := pg.NewPool(ctx, cfg.Database, pg.WithQueryLogger(log, tracelog.LogLevelError))
	if err != nil {
		return err
	}
	defer dbPool.Close()
	log.Info().Str("host", cfg.Database.Host).Str("database", cfg.Database.Name).Msg("database connection established")

	reg := metrics.NewRegistry()
	m := metrics.New(reg)

	opts := []eligibility.Option{
		eligibility.WithRules(eligibility.Rules{
			LowRatings:                 cfg.Rules.LowRatings,
			InvoluntarySeparationTypes: cfg.Rules.InvoluntarySeparationTypes,
		}),
		eligibility.WithHasher(eligibility.NewHasher(cfg.Eligibility.PersonalIDKey)),
		eligibility.WithObserver(m),
		eligibility.WithLookupTimeout(cfg.Eligibility.LookupTimeout),
		eligibility.WithBatchConcurrency(cfg.Eligibility.BatchConcurrency),
	}

	if cfg.Sink.Kafka.Enabled() {
		client, err := kafkasink.NewClient(cfg.Sink.Kafka)
		if err != nil {
			return err
		}
		defer client.Close()
		opts = append(opts, eligibility.WithReportSink(kafkasink.New(client, cfg.Sink.Kafka.Topic, kafkasink.WithLogger(log))))
		log.Info().Strs("brokers", cfg.Sink.Kafka.Brokers).Str("topic", cfg.Sink.Kafka.Topic).Msg("decision events enabled")
	}

	svc := eligibility.NewService(
		postgres.NewRecordStore(dbPool),
		nil,
		pg.NewTransactionManager(dbPool),
		opts...,
	)

	grpcServer := server.New(cfg.Server.ListenAddr, svc, log)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return grpcServer.Run(gctx)
	})

	if cfg.Ops.ListenAddr != "" {
		ops := opsserver.New(cfg.Ops.ListenAddr, opsserver.NewRouter(reg, map[string]opsserver.Pinger{"postgres": dbPool}))
		g.Go(func() error {
			log.Info().Str("addr", cfg.Ops.ListenAddr).Msg("ops server listening")
			if err := ops.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return ops.Shutdown(shutdownCtx)
		})
	}

	return g.Wait()
}
