package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qvariance-lab/internal/domain"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 120_000, cfg.Sim.NDays)
	assert.Equal(t, 0.02, cfg.Sim.Kappa)
	assert.Equal(t, 10.0, cfg.Sim.CInt)
	assert.Equal(t, int64(3), cfg.Sim.Seed)
	assert.Equal(t, 100_000, cfg.ExportDays)
	assert.Equal(t, "DRAGON", cfg.Ticker)
	assert.Len(t, cfg.Horizons, 26)
	assert.NoError(t, cfg.Validate())
	assert.False(t, cfg.Persistent())
}

func TestFromEnv(t *testing.T) {
	t.Setenv("QV_N_DAYS", "5000")
	t.Setenv("QV_KAPPA", "0.5")
	t.Setenv("QV_SEEDS", "1, 2,3")
	t.Setenv("QV_HORIZONS", "5,10")
	t.Setenv("QV_TICKER", "TIGER")
	t.Setenv("QV_USE_MEMORY", "true")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, 5000, cfg.Sim.NDays)
	assert.Equal(t, 0.5, cfg.Sim.Kappa)
	assert.Equal(t, []int64{1, 2, 3}, cfg.Seeds)
	assert.Equal(t, domain.HorizonSet{5, 10}, cfg.Horizons)
	assert.Equal(t, "TIGER", cfg.Ticker)
	assert.True(t, cfg.UseMemory)
	assert.Equal(t, []int64{1, 2, 3}, cfg.RunSeeds())
}

func TestFromEnv_Malformed(t *testing.T) {
	t.Setenv("QV_N_DAYS", "many")

	_, err := FromEnv()
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)
}

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(path, []byte("QV_TEST_FROM_FILE=file\nQV_TEST_PRESET=file\n"), 0o600))

	t.Setenv("QV_TEST_PRESET", "env")
	t.Cleanup(func() { os.Unsetenv("QV_TEST_FROM_FILE") })

	require.NoError(t, LoadEnvFile(path, filepath.Join(dir, "missing.env")))

	assert.Equal(t, "file", os.Getenv("QV_TEST_FROM_FILE"))
	assert.Equal(t, "env", os.Getenv("QV_TEST_PRESET"), "existing variables must not be overridden")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"bad sim", func(c *Config) { c.Sim.NDays = 0 }},
		{"empty horizons", func(c *Config) { c.Horizons = nil }},
		{"blank ticker", func(c *Config) { c.Ticker = "  " }},
		{"negative bins", func(c *Config) { c.CurveBins = -1 }},
		{"duplicate seeds", func(c *Config) { c.Seeds = []int64{1, 1} }},
		{"half persistent", func(c *Config) { c.PostgresDSN = "postgres://x" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			assert.ErrorIs(t, cfg.Validate(), domain.ErrInvalidConfig)
		})
	}
}

func TestParseHorizons(t *testing.T) {
	hs, err := ParseHorizons("official")
	require.NoError(t, err)
	assert.Equal(t, domain.OfficialHorizons(), hs)

	hs, err = ParseHorizons("1, 5")
	require.NoError(t, err)
	assert.Equal(t, domain.HorizonSet{1, 5}, hs)

	_, err = ParseHorizons("5,x")
	assert.Error(t, err)

	_, err = ParseHorizons("5,-1")
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)
}

func TestParseSeeds(t *testing.T) {
	_, err := ParseSeeds(" , ")
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)
}
