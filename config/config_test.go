package config

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		envVars map[string]string
		wantErr bool
		check   func(*testing.T, *Config)
	}{
		{
			name: "default configuration",
			envVars: map[string]string{
				"ENVIRONMENT": "development",
				"JWT_SECRET":  "dev-secret",
			},
			wantErr: false,
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "development", cfg.Environment)
				assert.Equal(t, "0.0.0.0", cfg.Server.Host)
				assert.Equal(t, 5000, cfg.Server.Port)
				assert.False(t, cfg.Server.TLS.Enabled)
				assert.Equal(t, "localhost", cfg.Database.Host)
				assert.Equal(t, 5432, cfg.Database.Port)
				assert.Equal(t, "tbox", cfg.Database.User)
				assert.Equal(t, 7*24*time.Hour, cfg.Auth.TokenTTL)
				assert.Equal(t, "authToken", cfg.Auth.CookieName)
				assert.True(t, cfg.Auth.SetCookie)
				assert.Equal(t, 10, cfg.Auth.BcryptCost)
				assert.Equal(t, []string{"http://localhost:5173"}, cfg.CORS.AllowedOrigins)
				assert.True(t, cfg.Observability.MetricsEnabled)
				assert.True(t, cfg.Audit.Enabled)
				assert.Equal(t, 1000, cfg.Audit.BufferSize)
				assert.Equal(t, 2, cfg.Audit.WorkerCount)
			},
		},
		{
			name: "production configuration",
			envVars: map[string]string{
				"ENVIRONMENT":          "production",
				"SERVER_PORT":          "9000",
				"DB_HOST":              "prod-db.example.com",
				"DB_PORT":              "5433",
				"JWT_SECRET":           "0123456789abcdef0123456789abcdef",
				"AUTH_COOKIE_SECURE":   "true",
				"CORS_ALLOWED_ORIGINS": "https://dash.example.com, https://ops.example.com",
			},
			wantErr: false,
			check: func(t *testing.T, cfg *Config) {
				assert.True(t, cfg.IsProduction())
				assert.False(t, cfg.IsDevelopment())
				assert.Equal(t, 9000, cfg.Server.Port)
				assert.Equal(t, "prod-db.example.com", cfg.Database.Host)
				assert.Equal(t, 5433, cfg.Database.Port)
				assert.True(t, cfg.Auth.CookieSecure)
				assert.Equal(t, []string{"https://dash.example.com", "https://ops.example.com"}, cfg.CORS.AllowedOrigins)
			},
		},
		{
			name: "PORT takes precedence over SERVER_PORT",
			envVars: map[string]string{
				"PORT":        "8080",
				"SERVER_PORT": "9000",
				"JWT_SECRET":  "dev-secret",
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 8080, cfg.Server.Port)
			},
		},
		{
			name: "DATABASE_URL overrides individual fields",
			envVars: map[string]string{
				"DATABASE_URL": "postgres://u:p@db.internal:6543/tbox?sslmode=require",
				"JWT_SECRET":   "dev-secret",
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "postgres://u:p@db.internal:6543/tbox?sslmode=require", cfg.Database.DSN())
				assert.Equal(t, "host=db.internal port=6543 database=tbox", cfg.Database.LogString())
			},
		},
		{
			name: "custom token ttl",
			envVars: map[string]string{
				"JWT_SECRET": "dev-secret",
				"TOKEN_TTL":  "1h",
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, time.Hour, cfg.Auth.TokenTTL)
			},
		},
		{
			name:    "missing jwt secret",
			envVars: map[string]string{"ENVIRONMENT": "development"},
			wantErr: true,
		},
		{
			name: "short jwt secret in production",
			envVars: map[string]string{
				"ENVIRONMENT": "production",
				"JWT_SECRET":  "short",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Clear environment
			os.Clearenv()

			// Set test environment variables
			for k, v := range tt.envVars {
				os.Setenv(k, v)
			}

			// Create config
			cfg, err := New(context.Background())

			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			require.NotNil(t, cfg)

			if tt.check != nil {
				tt.check(t, cfg)
			}
		})
	}
}

func TestNewClient(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		os.Clearenv()
		os.Setenv("TBOX_SESSION_DB", "/tmp/session.db")

		cfg, err := NewClient()
		require.NoError(t, err)
		assert.Equal(t, "http://localhost:5000", cfg.APIBaseURL)
		assert.Equal(t, 5*time.Second, cfg.VerifyTimeout)
		assert.Equal(t, "/tmp/session.db", cfg.StorePath)
	})

	t.Run("trims trailing slash", func(t *testing.T) {
		os.Clearenv()
		os.Setenv("TBOX_API_URL", "https://api.example.com/")

		cfg, err := NewClient()
		require.NoError(t, err)
		assert.Equal(t, "https://api.example.com", cfg.APIBaseURL)
	})

	t.Run("invalid url", func(t *testing.T) {
		os.Clearenv()
		os.Setenv("TBOX_API_URL", "not a url")

		_, err := NewClient()
		assert.Error(t, err)
	})
}

func validConfig() *Config {
	return &Config{
		Environment: "development",
		Database: DatabaseConfig{
			Host:     "localhost",
			User:     "user",
			Database: "db",
		},
		Auth: AuthConfig{
			JWTSecret:  "secret",
			TokenTTL:   time.Hour,
			CookieName: "authToken",
		},
		Observability: ObservabilityConfig{
			LogLevel: "info",
		},
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
		errMsg  string
	}{
		{
			name:    "valid development config",
			mutate:  func(*Config) {},
			wantErr: false,
		},
		{
			name:    "missing database host",
			mutate:  func(c *Config) { c.Database.Host = "" },
			wantErr: true,
			errMsg:  "database configuration required",
		},
		{
			name:    "missing database user",
			mutate:  func(c *Config) { c.Database.User = "" },
			wantErr: true,
			errMsg:  "database user is required",
		},
		{
			name:    "missing jwt secret",
			mutate:  func(c *Config) { c.Auth.JWTSecret = "" },
			wantErr: true,
			errMsg:  "JWT_SECRET is required",
		},
		{
			name:    "non-positive ttl",
			mutate:  func(c *Config) { c.Auth.TokenTTL = 0 },
			wantErr: true,
			errMsg:  "token TTL must be positive",
		},
		{
			name: "audit enabled without workers",
			mutate: func(c *Config) {
				c.Audit = AuditConfig{Enabled: true, BufferSize: 10}
			},
			wantErr: true,
			errMsg:  "audit buffer size and worker count must be positive",
		},
		{
			name:    "missing cookie name",
			mutate:  func(c *Config) { c.Auth.CookieName = "" },
			wantErr: true,
			errMsg:  "auth cookie name is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()

			if tt.wantErr {
				assert.Error(t, err)
				if tt.errMsg != "" {
					assert.Contains(t, err.Error(), tt.errMsg)
				}
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfig_IsProduction(t *testing.T) {
	tests := []struct {
		name        string
		environment string
		want        bool
	}{
		{"production", "production", true},
		{"prod", "prod", true},
		{"development", "development", false},
		{"dev", "dev", false},
		{"staging", "staging", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{Environment: tt.environment}
			assert.Equal(t, tt.want, cfg.IsProduction())
		})
	}
}

func TestConfig_IsDevelopment(t *testing.T) {
	tests := []struct {
		name        string
		environment string
		want        bool
	}{
		{"development", "development", true},
		{"dev", "dev", true},
		{"production", "production", false},
		{"staging", "staging", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{Environment: tt.environment}
			assert.Equal(t, tt.want, cfg.IsDevelopment())
		})
	}
}

func TestDatabaseConfig_DSN(t *testing.T) {
	cfg := DatabaseConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "testuser",
		Password: "testpass",
		Database: "testdb",
		SSLMode:  "disable",
	}

	expected := "host=localhost port=5432 user=testuser password=testpass dbname=testdb sslmode=disable"
	assert.Equal(t, expected, cfg.DSN())
	assert.NotContains(t, cfg.LogString(), "testpass")
}

func TestServerConfig_Address(t *testing.T) {
	cfg := ServerConfig{
		Host: "0.0.0.0",
		Port: 5000,
	}

	assert.Equal(t, "0.0.0.0:5000", cfg.Address())
}

func TestGetEnvAsInt(t *testing.T) {
	tests := []struct {
		name         string
		key          string
		value        string
		defaultValue int
		want         int
	}{
		{"valid int", "TEST_INT", "42", 10, 42},
		{"empty value", "TEST_INT", "", 10, 10},
		{"invalid int", "TEST_INT", "not-a-number", 10, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Clearenv()
			if tt.value != "" {
				os.Setenv(tt.key, tt.value)
			}
			got := getEnvAsInt(tt.key, tt.defaultValue)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGetEnvAsBool(t *testing.T) {
	tests := []struct {
		name         string
		key          string
		value        string
		defaultValue bool
		want         bool
	}{
		{"true", "TEST_BOOL", "true", false, true},
		{"false", "TEST_BOOL", "false", true, false},
		{"empty value", "TEST_BOOL", "", true, true},
		{"invalid bool", "TEST_BOOL", "not-a-bool", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Clearenv()
			if tt.value != "" {
				os.Setenv(tt.key, tt.value)
			}
			got := getEnvAsBool(tt.key, tt.defaultValue)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGetEnvAsDuration(t *testing.T) {
	tests := []struct {
		name         string
		key          string
		value        string
		defaultValue time.Duration
		want         time.Duration
	}{
		{"valid duration", "TEST_DURATION", "30s", 10 * time.Second, 30 * time.Second},
		{"empty value", "TEST_DURATION", "", 10 * time.Second, 10 * time.Second},
		{"invalid duration", "TEST_DURATION", "not-a-duration", 10 * time.Second, 10 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Clearenv()
			if tt.value != "" {
				os.Setenv(tt.key, tt.value)
			}
			got := getEnvAsDuration(tt.key, tt.defaultValue)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGetEnvAsList(t *testing.T) {
	os.Clearenv()
	assert.Equal(t, []string{"a"}, getEnvAsList("TEST_LIST", []string{"a"}))

	os.Setenv("TEST_LIST", " x , ,y ")
	assert.Equal(t, []string{"x", "y"}, getEnvAsList("TEST_LIST", []string{"a"}))

	os.Setenv("TEST_LIST", " , ")
	assert.Equal(t, []string{"a"}, getEnvAsList("TEST_LIST", []string{"a"}))
}
