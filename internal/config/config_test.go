package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("OWNER_EMAIL", "owner@shop.test")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "owner@shop.test", cfg.Auth.OwnerEmail)
	assert.Equal(t, "0.0.0.0:8080", cfg.App.Addr())
	assert.Equal(t, 30*time.Second, cfg.App.RequestTimeout())
	assert.Equal(t, time.Hour, cfg.Auth.AccessTokenTTL())
	assert.Equal(t, 5, cfg.Lifecycle.MaxFailedAttempts)
	assert.Equal(t, 24*time.Hour, cfg.Lifecycle.LockoutDuration)
	assert.Equal(t, 60, cfg.Lifecycle.InactivityDays)
	assert.Equal(t, 7, cfg.Lifecycle.DefaultSuspensionDays)
	assert.Equal(t, "storefront.identity", cfg.Events.Exchange)
	assert.False(t, cfg.Worker.ReconcileEnabled)
	assert.Equal(t, 15*time.Minute, cfg.Worker.ReconcileInterval)
	assert.Equal(t, 10*time.Minute, cfg.RateLimit.IdleTTL)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("OWNER_EMAIL", "boss@shop.test")
	t.Setenv("APP_PORT", "9090")
	t.Setenv("LIFECYCLE_LOCKOUT_DURATION", "2h")
	t.Setenv("LIFECYCLE_MAX_FAILED_ATTEMPTS", "3")
	t.Setenv("WORKER_RECONCILE_ENABLED", "true")
	t.Setenv("POSTGRES_MAX_CONNS", "25")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:9090", cfg.App.Addr())
	assert.Equal(t, 2*time.Hour, cfg.Lifecycle.LockoutDuration)
	assert.Equal(t, 3, cfg.Lifecycle.MaxFailedAttempts)
	assert.True(t, cfg.Worker.ReconcileEnabled)
	assert.Equal(t, int32(25), cfg.Postgres.MaxConns)
}

func TestLoadRequiresOwnerEmail(t *testing.T) {
	t.Setenv("OWNER_EMAIL", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "owner email without at", mutate: func(c *Config) { c.Auth.OwnerEmail = "owner" }, wantErr: true},
		{name: "zero attempts", mutate: func(c *Config) { c.Lifecycle.MaxFailedAttempts = 0 }, wantErr: true},
		{name: "negative suspension days", mutate: func(c *Config) { c.Lifecycle.DefaultSuspensionDays = -1 }, wantErr: true},
		{name: "suspension days over cap", mutate: func(c *Config) { c.Lifecycle.DefaultSuspensionDays = MaxSuspensionDays + 1 }, wantErr: true},
		{name: "zero lockout", mutate: func(c *Config) { c.Lifecycle.LockoutDuration = 0 }, wantErr: true},
		{name: "negative lockout", mutate: func(c *Config) { c.Lifecycle.LockoutDuration = -time.Hour }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Config{
				Auth:      AuthConfig{OwnerEmail: "owner@shop.test"},
				Lifecycle: LifecycleConfig{MaxFailedAttempts: 5, LockoutDuration: 24 * time.Hour, DefaultSuspensionDays: 7},
			}
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
