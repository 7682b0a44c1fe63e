package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"normalizer/pkg/options"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "normalizer.yaml")
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, options.DefaultOptions, cfg.CorrectorOptions())
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadFile(t *testing.T) {
	p := writeConfig(t, `
http_addr: ":9000"
vocab_path: /data/tokenizer.json
max_candidates: 200
min_ratio: 0.7
max_distance: 3
length_slack: 4
redis:
  addr: redis:6379
  db: 2
log:
  level: debug
`)
	cfg, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.HTTPAddr)
	assert.Equal(t, "/data/tokenizer.json", cfg.VocabPath)
	assert.Equal(t, "redis:6379", cfg.Redis.Addr)
	assert.Equal(t, 2, cfg.Redis.DB)
	assert.Equal(t, Default().Redis.Key, cfg.Redis.Key, "unset keys keep defaults")
	assert.True(t, cfg.CorrectionEnabled)

	o := cfg.CorrectorOptions()
	assert.Equal(t, options.Build(options.WithLenientMatching()), o)
}

func TestLoadProfile(t *testing.T) {
	cfg, err := Load(writeConfig(t, "profile: lenient\n"))
	require.NoError(t, err)
	assert.Equal(t, "lenient", cfg.Profile)
	assert.Equal(t, options.Build(options.WithLenientMatching()), cfg.CorrectorOptions())

	cfg, err = Load(writeConfig(t, "profile: lenient\nmax_candidates: 80\n"))
	require.NoError(t, err)
	assert.Equal(t, 80, cfg.MaxCandidates, "explicit keys override the preset")
	assert.Equal(t, 0.70, cfg.MinRatio)

	cfg, err = Load(writeConfig(t, "max_distance: 3\nprofile: strict\n"))
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.MaxDistance, "key order in the file does not matter")
	assert.Equal(t, options.DefaultOptions.MinRatio, cfg.MinRatio)
}

func TestLoadEnvOverrides(t *testing.T) {
	p := writeConfig(t, "http_addr: \":9000\"\n")
	t.Setenv("HTTP_ADDR", ":7000")
	t.Setenv("VOCAB_PATH", "/tmp/vocab.txt")
	t.Setenv("REDIS_ADDR", "localhost:6380")
	t.Setenv("REDIS_PASSWORD", "secret")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("LOG_LEVEL", "warn")
	t.Setenv("LOG_FILE", "/var/log/normalizer.log")
	t.Setenv("CORRECTION_ENABLED", "false")

	cfg, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, ":7000", cfg.HTTPAddr)
	assert.Equal(t, "/tmp/vocab.txt", cfg.VocabPath)
	assert.Equal(t, Redis{Addr: "localhost:6380", Password: "secret", DB: 3, Key: Default().Redis.Key}, cfg.Redis)
	assert.Equal(t, Log{Level: "warn", File: "/var/log/normalizer.log"}, cfg.Log)
	assert.False(t, cfg.CorrectorOptions().CorrectionEnabled)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		env  map[string]string
	}{
		{name: "bad yaml", yaml: "max_candidates: [1"},
		{name: "unknown profile", yaml: "profile: fuzzy"},
		{name: "bad ratio", yaml: "min_ratio: 1.5"},
		{name: "zero cache", yaml: "cache_capacity: 0"},
		{name: "zero sequence", yaml: "max_sequence_len: 0"},
		{name: "bad level", yaml: "log:\n  level: loud"},
		{name: "bad db env", env: map[string]string{"REDIS_DB": "two"}},
		{name: "negative db", yaml: "redis:\n  db: -1"},
		{name: "bad bool env", env: map[string]string{"CORRECTION_ENABLED": "maybe"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load(writeConfig(t, tt.yaml))
			assert.Error(t, err)
		})
	}
}
