package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdir moves into a fresh directory so no stocktool.yaml is picked up.
func chdir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	testChdir(t, dir)
	return dir
}

func TestLoadDefaults(t *testing.T) {
	chdir(t)

	cfg, err := Load(nil)
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "console", cfg.LogFormat)
	assert.Equal(t, "EOD", cfg.Database)
	assert.Equal(t, "FB", cfg.Dataset)
	assert.Equal(t, "creds", cfg.CredsDir)
	assert.Equal(t, 30*time.Second, cfg.Provider.RequestTimeout)
	assert.Equal(t, 5, cfg.Provider.RequestsPerSec)

	assert.Equal(t, 0.8, cfg.Pipeline.TrainFraction)
	assert.Equal(t, 7, cfg.Pipeline.HorizonDays)
	require.NotNil(t, cfg.Pipeline.Search)
	assert.Equal(t, 5, cfg.Pipeline.Search.MaxP)
	assert.Equal(t, "kpss", cfg.Pipeline.Search.StationTest)
	assert.True(t, cfg.Pipeline.Search.Stepwise)
}

func TestLoadFileEnvAndFlags(t *testing.T) {
	dir := chdir(t)
	yaml := []byte("dataset: AAPL\nlog_level: debug\npipeline:\n  horizon_days: 14\n  search:\n    max_p: 3\n    criterion: bic\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "stocktool.yaml"), yaml, 0o600))

	t.Setenv("STOCKTOOL_PIPELINE_SEARCH_MAX_Q", "1")
	t.Setenv("STOCKTOOL_LOG_LEVEL", "warn")

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs)
	require.NoError(t, fs.Parse([]string{"--start", "2015-01-01", "--horizon", "3"}))

	cfg, err := Load(fs)
	require.NoError(t, err)

	assert.Equal(t, "AAPL", cfg.Dataset)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, "2015-01-01", cfg.Start)
	assert.Equal(t, 3, cfg.Pipeline.HorizonDays)
	assert.Equal(t, 3, cfg.Pipeline.Search.MaxP)
	assert.Equal(t, 1, cfg.Pipeline.Search.MaxQ)
	assert.Equal(t, "bic", cfg.Pipeline.Search.Criterion)
}

func TestLoadExplicitConfigMissing(t *testing.T) {
	chdir(t)

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs)
	require.NoError(t, fs.Parse([]string{"--config", "missing.yaml"}))

	_, err := Load(fs)
	assert.Error(t, err)
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2015-1-2")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2015, time.January, 2, 0, 0, 0, 0, time.UTC), d)

	for _, bad := range []string{"2015-13-01", "15-01-01", "2015/01/01", "2015-01-32", ""} {
		_, err := ParseDate(bad)
		assert.Error(t, err, bad)
	}

	// Matches the pattern but is not a calendar date.
	_, err = ParseDate("2015-02-30")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	chdir(t)
	cfg, err := Load(nil)
	require.NoError(t, err)

	cfg.Start, cfg.End = "2015-01-01", "2016-01-01"
	require.NoError(t, cfg.Validate())

	cfg.Start, cfg.End = "2016-01-01", "2015-01-01"
	assert.ErrorContains(t, cfg.Validate(), "after")

	cfg.Start, cfg.End = "2015-01-01", "2015-01-01"
	assert.NoError(t, cfg.Validate())

	cfg.LogFormat = "xml"
	assert.Error(t, cfg.Validate())
}

func TestPipelineConfig(t *testing.T) {
	chdir(t)
	cfg, err := Load(nil)
	require.NoError(t, err)

	p, err := cfg.PipelineConfig()
	require.NoError(t, err)
	require.Len(t, p.Candidates, 2)
	assert.Equal(t, "log", p.Candidates[0].Name())
	assert.Equal(t, "boxcox", p.Candidates[1].Name())
	assert.NoError(t, p.Validate())

	cfg.Transforms = []string{" BoxCox "}
	p, err = cfg.PipelineConfig()
	require.NoError(t, err)
	require.Len(t, p.Candidates, 1)
	assert.Equal(t, "boxcox", p.Candidates[0].Name())

	cfg.Transforms = []string{"sqrt"}
	_, err = cfg.PipelineConfig()
	assert.ErrorContains(t, err, "unknown transform")
}

func TestReadCredential(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.env"), []byte("PW=second\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.env"), []byte("# key\nPW=first\n"), 0o600))

	key, err := ReadCredential(dir)
	require.NoError(t, err)
	assert.Equal(t, "first", key)
}

func TestReadCredentialMissing(t *testing.T) {
	_, err := ReadCredential(t.TempDir())
	assert.True(t, errors.Is(err, ErrNoCredentials))

	_, err = ReadCredential(filepath.Join(t.TempDir(), "absent"))
	assert.True(t, errors.Is(err, ErrNoCredentials))

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "key.env"), []byte("OTHER=1\n"), 0o600))
	_, err = ReadCredential(dir)
	assert.True(t, errors.Is(err, ErrNoCredentials))
}

func TestCredentialPrefersAPIKey(t *testing.T) {
	cfg := &Config{APIKey: "from-env", CredsDir: t.TempDir()}
	key, err := cfg.Credential()
	require.NoError(t, err)
	assert.Equal(t, "from-env", key)
}

// testChdir changes the working directory for the rest of the test and
// restores it on cleanup (stand-in for testing.T.Chdir, added in Go 1.24).
func testChdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(old); err != nil {
			t.Fatal(err)
		}
	})
}
