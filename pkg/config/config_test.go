package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/travel-commerce-api/pkg/config"
)

func TestLoad_ValoresPorDefecto(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("JWT_SECRET", "s")
	t.Setenv("PAYMENT_WEBHOOK_SECRET", "w")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, "stub", cfg.Payment.Mode)
	assert.Equal(t, "razorpay", cfg.Payment.Provider)
	assert.Equal(t, "INR", cfg.Payment.Currency)
	assert.Equal(t, 48*time.Hour, cfg.Booking.CancellationCutoff)
	assert.Equal(t, time.Hour, cfg.JWT.TTL())
	assert.Equal(t, "0.0.0.0:8080", cfg.HTTP.Addr())
	assert.NoError(t, cfg.Validate())
}

func TestLoad_ProduccionExigeModoLive(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_SECRET", "s")
	t.Setenv("PAYMENT_WEBHOOK_SECRET", "w")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, "live", cfg.Payment.Mode)
	assert.ErrorContains(t, cfg.Validate(), "PAYMENT_KEY_ID")

	t.Setenv("PAYMENT_KEY_ID", "rzp_live_x")
	t.Setenv("PAYMENT_KEY_SECRET", "secret")
	cfg, err = config.Load()
	require.NoError(t, err)
	assert.NoError(t, cfg.Validate())
}

func TestValidate_ReportaTodo(t *testing.T) {
	cfg := &config.Config{
		App:     config.AppConfig{Env: "production", Storage: "memory"},
		Payment: config.PaymentConfig{Mode: "stub"},
	}
	err := cfg.Validate()
	require.Error(t, err)
	for _, want := range []string{"JWT_SECRET", "PAYMENT_WEBHOOK_SECRET", "stub", "memory"} {
		assert.Contains(t, err.Error(), want)
	}
}

func TestDSN_EscapaPassword(t *testing.T) {
	c := config.DBConfig{Host: "db", Port: 5432, User: "app", Password: "p@ss:w/rd", DBName: "travel", SSLMode: "disable"}
	assert.Equal(t, "postgres://app:p%40ss%3Aw%2Frd@db:5432/travel?sslmode=disable", c.DSN())

	c.DatabaseURL = "postgres://x"
	assert.Equal(t, "postgres://x", c.ConnectionString())
}
