package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewManager_Defaults(t *testing.T) {
	m, err := NewManager()
	require.NoError(t, err)

	cfg := m.GetConfig()
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, int64(42), cfg.Classifier.Seed)
	assert.True(t, cfg.Classifier.TrainOnStartup)
	assert.Equal(t, "memory", cfg.Cache.Backend)
	assert.Equal(t, "info", cfg.Logging.Level)

	assert.NoError(t, m.Validate())
}

func TestNewManager_EnvOverride(t *testing.T) {
	t.Setenv("MYHEALTH_SERVER_PORT", "9999")
	t.Setenv("MYHEALTH_DATABASE_DRIVER", "postgres")
	t.Setenv("MYHEALTH_DATABASE_PASSWORD", "secret")

	m, err := NewManager()
	require.NoError(t, err)

	cfg := m.GetConfig()
	assert.Equal(t, 9999, cfg.Server.Port)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "secret", cfg.Database.Password)
}

func TestValidate(t *testing.T) {
	newValid := func() *Manager {
		m, err := NewManager()
		require.NoError(t, err)
		return m
	}

	tests := []struct {
		name   string
		mutate func(c *Config)
		ok     bool
	}{
		{"defaults are valid", func(c *Config) {}, true},
		{"invalid port", func(c *Config) { c.Server.Port = 0 }, false},
		{"port out of range", func(c *Config) { c.Server.Port = 70000 }, false},
		{"sqlite without path", func(c *Config) { c.Database.Path = "" }, false},
		{"unknown driver", func(c *Config) { c.Database.Driver = "oracle" }, false},
		{"postgres without host", func(c *Config) {
			c.Database.Driver = "postgres"
			c.Database.Host = ""
		}, false},
		{"missing artifact path", func(c *Config) { c.Classifier.ArtifactPath = "" }, false},
		{"redis without url", func(c *Config) {
			c.Cache.Backend = "redis"
			c.Cache.RedisURL = ""
		}, false},
		{"unknown cache backend", func(c *Config) { c.Cache.Backend = "memcached" }, false},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }, false},
		{"postgres fully specified", func(c *Config) { c.Database.Driver = "postgres" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newValid()
			tt.mutate(m.config)
			err := m.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestGetDatabaseConnectionString(t *testing.T) {
	m, err := NewManager()
	require.NoError(t, err)
	m.config.Database = DatabaseConfig{
		Driver: "postgres", Host: "db.internal", Port: 5433,
		Database: "health", Username: "app", Password: "pw", SSLMode: "require",
	}

	dsn := m.GetDatabaseConnectionString()

	assert.Contains(t, dsn, "host=db.internal")
	assert.Contains(t, dsn, "port=5433")
	assert.Contains(t, dsn, "dbname=health")
	assert.Contains(t, dsn, "sslmode=require")
}

func TestEnvironmentModes(t *testing.T) {
	m, err := NewManager()
	require.NoError(t, err)

	m.config.Environment = ""
	assert.True(t, m.IsDevelopment())
	assert.False(t, m.IsProduction())

	m.config.Environment = "production"
	assert.True(t, m.IsProduction())
	assert.False(t, m.IsDevelopment())
}
