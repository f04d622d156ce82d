package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"subsweep/internal/scan"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, scan.DefaultQuery, cfg.Scan.Query)
	assert.EqualValues(t, scan.DefaultMaxResults, cfg.Scan.MaxResults)
	assert.Equal(t, "file", cfg.Auth.TokenStore)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, filepath.Join(dir, "subsweep.db"), cfg.DBPath)
	assert.Equal(t, filepath.Join(dir, "subsweep.log"), cfg.Log.File)
	assert.Equal(t, dir, cfg.Dir)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	yaml := `
db_path: /var/lib/subsweep/data.db
scan:
  query: "in:inbox newsletter"
  max_results: 25
auth:
  token_store: keyring
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o600))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/subsweep/data.db", cfg.DBPath)
	assert.Equal(t, "in:inbox newsletter", cfg.Scan.Query)
	assert.EqualValues(t, 25, cfg.Scan.MaxResults)
	assert.Equal(t, "keyring", cfg.Auth.TokenStore)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("scan:\n  max_results: 25\n"), 0o600))
	t.Setenv("SUBSWEEP_SCAN_MAX_RESULTS", "7")

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.EqualValues(t, 7, cfg.Scan.MaxResults)
}

func TestLoad_Invalid(t *testing.T) {
	cases := map[string]string{
		"bad yaml":      "scan: [unclosed\n",
		"zero max":      "scan:\n  max_results: 0\n",
		"unknown store": "auth:\n  token_store: vault\n",
		"empty query":   "scan:\n  query: \"  \"\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(body), 0o600))
			_, err := Load(dir)
			assert.Error(t, err)
		})
	}
}
