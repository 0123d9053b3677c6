package app

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tbox/dashboard/config"
	"github.com/tbox/dashboard/internal/observability"
	"github.com/tbox/dashboard/repositories/postgres"
	"github.com/tbox/dashboard/services/audit"
	"go.uber.org/zap/zaptest"
)

func newMockDependencies(t *testing.T, cfg *config.Config) (*Dependencies, sqlmock.Sqlmock) {
	t.Helper()
	logger := zaptest.NewLogger(t)

	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	factory := postgres.NewRepositoryFactoryFromDB(postgres.NewDBFromConn(db, logger), logger)
	return NewDependenciesWithFactory(cfg, factory, logger), mock
}

func TestNewDependenciesWithFactory(t *testing.T) {
	t.Run("wires all components", func(t *testing.T) {
		deps, mock := newMockDependencies(t, testConfig())

		assert.NotNil(t, deps.DB)
		assert.NotNil(t, deps.Users)
		assert.NotNil(t, deps.Vehicles)
		assert.NotNil(t, deps.AuthEvents)
		assert.NotNil(t, deps.TxManager)
		assert.NotNil(t, deps.AuthService)
		assert.NotNil(t, deps.UserService)
		assert.NotNil(t, deps.VehicleService)
		assert.NotNil(t, deps.AuthMiddleware)
		assert.NotNil(t, deps.AuthHandler())
		assert.Equal(t, 24*time.Hour, deps.Issuer.TTL())
		assert.IsType(t, &observability.PrometheusMetrics{}, deps.Metrics)
		assert.Same(t, deps.Audit, deps.AuditRecorder)

		mock.ExpectClose()
		require.NoError(t, deps.Close(context.Background()))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("metrics and audit disabled", func(t *testing.T) {
		cfg := testConfig()
		cfg.Observability.MetricsEnabled = false
		cfg.Audit.Enabled = false

		deps, mock := newMockDependencies(t, cfg)

		assert.IsType(t, observability.NopMetrics{}, deps.Metrics)
		assert.IsType(t, audit.NopRecorder{}, deps.AuditRecorder)

		require.NoError(t, deps.Start())
		assert.False(t, deps.Audit.GetStats().Started)

		mock.ExpectClose()
		require.NoError(t, deps.Close(context.Background()))
	})
}

func TestDependencies_StartClose(t *testing.T) {
	deps, mock := newMockDependencies(t, testConfig())

	require.NoError(t, deps.Start())
	assert.True(t, deps.Audit.GetStats().Started)
	assert.Error(t, deps.Start())

	mock.ExpectClose()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, deps.Close(ctx))
	assert.False(t, deps.Audit.GetStats().Started)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNewDependencies_DatabaseUnavailable(t *testing.T) {
	cfg := testConfig()
	cfg.Database.Host = "127.0.0.1"
	cfg.Database.Port = 1

	deps, err := NewDependencies(context.Background(), cfg, zaptest.NewLogger(t))

	assert.Error(t, err)
	assert.Nil(t, deps)
	assert.Contains(t, err.Error(), "failed to initialize database")
}

func testConfig() *config.Config {
	return &config.Config{
		Environment: "test",
		Database: config.DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "tbox",
			Password: "tbox",
			Database: "tbox_test",
			SSLMode:  "disable",
		},
		Auth: config.AuthConfig{
			JWTSecret:  "dependencies-test-secret-32-chars!!",
			TokenTTL:   24 * time.Hour,
			CookieName: "authToken",
			SetCookie:  true,
			BcryptCost: 4,
		},
		Observability: config.ObservabilityConfig{
			LogLevel:       "debug",
			LogFormat:      "console",
			MetricsEnabled: true,
		},
		Audit: config.AuditConfig{
			Enabled:     true,
			BufferSize:  10,
			WorkerCount: 1,
		},
	}
}
