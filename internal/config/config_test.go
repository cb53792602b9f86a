package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(WithSearchDirs(t.TempDir()))
	require.NoError(t, err)
	assert.Equal(t, Default(), *cfg)
}

func TestLoad_ConfigFile(t *testing.T) {
	path := writeFile(t, t.TempDir(), "custom.yaml", `
format: json
db: rewrites.db
raw_map: true
verify:
  min: -5
  max: 5
`)

	cfg, err := Load(WithConfigFile(path))
	require.NoError(t, err)
	assert.Equal(t, Config{
		Format: "json",
		DB:     "rewrites.db",
		RawMap: true,
		Verify: VerifyConfig{Min: -5, Max: 5},
	}, *cfg)
}

func TestLoad_SearchesForDefaultName(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "callchain.yaml", "db: found.db\n")

	cfg, err := Load(WithSearchDirs(dir))
	require.NoError(t, err)
	assert.Equal(t, "found.db", cfg.DB)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeFile(t, t.TempDir(), "custom.yaml", "db: file.db\nverify:\n  max: 5\n")
	t.Setenv("CALLCHAIN_DB", "env.db")
	t.Setenv("CALLCHAIN_VERIFY_MAX", "7")

	cfg, err := Load(WithConfigFile(path))
	require.NoError(t, err)
	assert.Equal(t, "env.db", cfg.DB)
	assert.Equal(t, int64(7), cfg.Verify.Max)
}

func TestLoad_EnvFile(t *testing.T) {
	dir := t.TempDir()
	envFile := writeFile(t, dir, ".env", "CALLCHAIN_RAW_MAP=true\nCALLCHAIN_VERIFY_MIN=-3\nUNRELATED=1\n")

	cfg, err := Load(WithSearchDirs(dir), WithEnvFile(envFile))
	require.NoError(t, err)
	assert.True(t, cfg.RawMap)
	assert.Equal(t, int64(-3), cfg.Verify.Min)
	assert.Equal(t, int64(20), cfg.Verify.Max)
}

func TestLoad_EnvFileDoesNotLeak(t *testing.T) {
	dir := t.TempDir()
	envFile := writeFile(t, dir, ".env", "CALLCHAIN_DB=from-env-file.db\n")

	cfg, err := Load(WithSearchDirs(dir), WithEnvFile(envFile))
	require.NoError(t, err)
	assert.Equal(t, "from-env-file.db", cfg.DB)

	_, set := os.LookupEnv("CALLCHAIN_DB")
	assert.False(t, set, "process environment is unchanged")

	cfg, err = Load(WithSearchDirs(dir))
	require.NoError(t, err)
	assert.Empty(t, cfg.DB, "a later load without the file sees none of its values")
}

func TestLoad_Precedence(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "custom.yaml", "db: file.db\nformat: json\nverify:\n  min: -1\n")
	envFile := writeFile(t, dir, ".env", "CALLCHAIN_DB=dotenv.db\nCALLCHAIN_FORMAT=text\n")
	t.Setenv("CALLCHAIN_DB", "env.db")

	cfg, err := Load(WithConfigFile(path), WithEnvFile(envFile))
	require.NoError(t, err)
	assert.Equal(t, "env.db", cfg.DB, "environment beats .env")
	assert.Equal(t, "text", cfg.Format, ".env beats the config file")
	assert.Equal(t, int64(-1), cfg.Verify.Min, "config file beats defaults")
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()
	badFormat := writeFile(t, dir, "bad-format.yaml", "format: xml\n")
	badRange := writeFile(t, dir, "bad-range.yaml", "verify:\n  min: 3\n  max: 1\n")
	badYAML := writeFile(t, dir, "bad.yaml", "format: [\n")

	tests := []struct {
		name    string
		opts    []LoaderOption
		wantErr string
	}{
		{"missing explicit file", []LoaderOption{WithConfigFile(filepath.Join(dir, "missing.yaml"))}, "failed to read config file"},
		{"missing env file", []LoaderOption{WithSearchDirs(dir), WithEnvFile(filepath.Join(dir, "missing.env"))}, "failed to load env file"},
		{"invalid format", []LoaderOption{WithConfigFile(badFormat)}, "format must be one of"},
		{"inverted range", []LoaderOption{WithConfigFile(badRange)}, "verify.min (3) must not exceed verify.max (1)"},
		{"malformed yaml", []LoaderOption{WithConfigFile(badYAML)}, "failed to read config file"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(tt.opts...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"json", func(c *Config) { c.Format = "json" }, ""},
		{"single sample", func(c *Config) { c.Verify = VerifyConfig{Min: 5, Max: 5} }, ""},
		{"empty format", func(c *Config) { c.Format = "" }, "format must be one of [text, json] (got: )"},
		{"unknown format", func(c *Config) { c.Format = "yaml" }, "format must be one of [text, json] (got: yaml)"},
		{"inverted range", func(c *Config) { c.Verify = VerifyConfig{Min: 1, Max: -1} }, "verify.min (1) must not exceed verify.max (-1)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.wantErr, err.Error())
		})
	}
}
