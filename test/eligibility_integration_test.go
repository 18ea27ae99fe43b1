//go:build integration

package integration

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/ogurasousui/rehire-eligibility/internal/adapters/fixture"
	repo "github.com/ogurasousui/rehire-eligibility/internal/adapters/repository/postgres"
	"github.com/ogurasousui/rehire-eligibility/internal/core/eligibility"
	"github.com/ogurasousui/rehire-eligibility/internal/core/roster"
	pg "github.com/ogurasousui/rehire-eligibility/internal/platform/db/postgres"
)

const (
	migrationsDir = "../assets/migrations"
	fixturesFile  = "../assets/fixtures/sample.yaml"
)

func startPostgres(t *testing.T) string {
	t.Helper()

	ctx := context.Background()
	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("rehire"),
		tcpostgres.WithUsername("app"),
		tcpostgres.WithPassword("app"),
		tcpostgres.BasicWaitStrategies(),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}
	return dsn
}

func migrateUp(dsn, dir string) error {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return err
	}

	m, err := migrate.New("file://"+filepath.ToSlash(absDir), dsn)
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}

type stubClock struct {
	now time.Time
}

func (s stubClock) Now() time.Time {
	return s.now
}

func TestEligibilityAgainstPostgres(t *testing.T) {
	dsn := startPostgres(t)
	require.NoError(t, migrateUp(dsn, migrationsDir))

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	clock := stubClock{now: time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)}
	tx := pg.NewTransactionManager(pool)
	hasher := eligibility.NewHasher("")

	rosterSvc := roster.NewService(repo.NewRosterRepository(pool), clock, tx, hasher)
	in, err := fixture.LoadFile(fixturesFile)
	require.NoError(t, err)

	summary, err := rosterSvc.Import(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, 5, summary.Employees)

	svc := eligibility.NewService(repo.NewRecordStore(pool), clock, tx,
		eligibility.WithHasher(hasher),
		eligibility.WithBatchConcurrency(3),
	)

	t.Run("approved by personal id", func(t *testing.T) {
		report, err := svc.Evaluate(ctx, eligibility.Subject{PersonalID: "A123456789"})
		require.NoError(t, err)
		assert.Equal(t, eligibility.DecisionApproved, report.OverallStatus)
		assert.Equal(t, "E001", report.EmployeeID)
	})

	t.Run("latest separation wins", func(t *testing.T) {
		report, err := svc.Evaluate(ctx, eligibility.Subject{Name: "Erin Wu"})
		require.NoError(t, err)
		assert.Equal(t, eligibility.DecisionReviewRequired, report.OverallStatus)
		assert.Contains(t, report.ReviewNotes, "layoff")
	})

	t.Run("batch", func(t *testing.T) {
		result, err := svc.EvaluateBatch(ctx, []eligibility.Subject{
			{Name: "Alice Chen"},
			{Name: "Bob Lee"},
			{Name: "Carol Lin"},
			{Name: "Dave Park"},
			{Name: "Erin Wu"},
			{Name: "Zed Nobody"},
		})
		require.NoError(t, err)
		assert.Equal(t, map[eligibility.Decision]int{
			eligibility.DecisionApproved:       1,
			eligibility.DecisionReviewRequired: 3,
			eligibility.DecisionRejected:       1,
			eligibility.DecisionNotFound:       1,
		}, result.Counts)
		assert.Len(t, result.ByEmployeeID, 5)
	})

	t.Run("duplicate personal id rejected", func(t *testing.T) {
		_, err := rosterSvc.RegisterEmployee(ctx, roster.RegisterEmployeeInput{
			EmployeeID: "E900",
			Name:       "Copy Cat",
			PersonalID: "A123456789",
		})
		assert.ErrorIs(t, err, roster.ErrPersonalIDAlreadyRegistered)
	})
}

func TestStoreUnavailableWhenDatabaseIsGone(t *testing.T) {
	dsn := startPostgres(t)
	require.NoError(t, migrateUp(dsn, migrationsDir))

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)

	svc := eligibility.NewService(repo.NewRecordStore(pool), nil, nil, eligibility.WithLookupTimeout(2*time.Second))
	pool.Close()

	_, err = svc.Evaluate(ctx, eligibility.Subject{Name: "Alice Chen"})
	assert.ErrorIs(t, err, eligibility.ErrStoreUnavailable)
}
