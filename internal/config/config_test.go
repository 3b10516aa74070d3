package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.LowStockThreshold)
	assert.Equal(t, "UTC", cfg.ReportTimezone)
	assert.Equal(t, 10*time.Second, cfg.TxTimeout())
	assert.Equal(t, 5*time.Minute, cfg.ReportCacheTTL())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "9100")
	t.Setenv("REPORT_TIMEZONE", "America/Argentina/Buenos_Aires")
	t.Setenv("LOW_STOCK_THRESHOLD", "5")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.Port)
	assert.Equal(t, 5, cfg.LowStockThreshold)
	assert.Equal(t, "America/Argentina/Buenos_Aires", cfg.Location().String())
}

func TestLocationFallsBackToUTC(t *testing.T) {
	cfg := &Config{ReportTimezone: "Not/AZone"}
	assert.Equal(t, time.UTC, cfg.Location())
}
