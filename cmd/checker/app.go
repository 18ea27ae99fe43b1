package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"

	"github.com/ogurasousui/rehire-eligibility/internal/adapters/fixture"
	"github.com/ogurasousui/rehire-eligibility/internal/adapters/repository/memory"
	"github.com/ogurasousui/rehire-eligibility/internal/adapters/repository/postgres"
	"github.com/ogurasousui/rehire-eligibility/internal/core/eligibility"
	"github.com/ogurasousui/rehire-eligibility/internal/core/roster"
	"github.com/ogurasousui/rehire-eligibility/internal/platform/config"
	pg "github.com/ogurasousui/rehire-eligibility/internal/platform/db/postgres"
	"github.com/ogurasousui/rehire-eligibility/internal/platform/logger"
)

type appOptions struct {
	configPath   string
	fixturesPath string
}

// app は CLI の各コマンドが使う依存関係です。
type app struct {
	log         zerolog.Logger
	eligibility *eligibility.Service
	roster      *roster.Service
	concurrency int
	closers     []func()
}

func newApp(ctx context.Context, opts appOptions, stderr io.Writer) (*app, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}

	log, err := logger.NewWithWriter(cfg.Logging, stderr)
	if err != nil {
		return nil, err
	}

	hasher := eligibility.NewHasher(cfg.Eligibility.PersonalIDKey)
	svcOpts := []eligibility.Option{
		eligibility.WithRules(eligibility.Rules{
			LowRatings:                 cfg.Rules.LowRatings,
			InvoluntarySeparationTypes: cfg.Rules.InvoluntarySeparationTypes,
		}),
		eligibility.WithHasher(hasher),
		eligibility.WithLookupTimeout(cfg.Eligibility.LookupTimeout),
		eligibility.WithBatchConcurrency(cfg.Eligibility.BatchConcurrency),
	}

	a := &app{log: log, concurrency: cfg.Eligibility.BatchConcurrency}

	if opts.fixturesPath != "" {
		store := memory.NewStore()
		a.eligibility = eligibility.NewService(store, nil, store, svcOpts...)
		a.roster = roster.NewService(store, nil, store, hasher)

		in, err := fixture.LoadFile(opts.fixturesPath)
		if err != nil {
			return nil, err
		}
		summary, err := a.roster.Import(ctx, in)
		if err != nil {
			return nil, fmt.Errorf("load fixtures: %w", err)
		}
		log.Debug().
			Str("path", opts.fixturesPath).
			Int("employees", summary.Employees).
			Msg("fixtures loaded into memory store")
		return a, nil
	}

	pool, err := pg.NewPool(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, pool.Close)

	tx := pg.NewTransactionManager(pool)
	a.eligibility = eligibility.NewService(postgres.NewRecordStore(pool), nil, tx, svcOpts...)
	a.roster = roster.NewService(postgres.NewRosterRepository(pool), nil, tx, hasher)
	return a, nil
}

// loadConfig はフィクスチャ実行で設定ファイルが指定されていない場合、既定値だけで動かします。
func loadConfig(opts appOptions) (*config.Config, error) {
	path := opts.configPath
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	if path == "" && opts.fixturesPath != "" {
		return config.Defaults(), nil
	}
	if path == "" {
		path = "assets/local.yaml"
	}
	return config.Load(path)
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}
