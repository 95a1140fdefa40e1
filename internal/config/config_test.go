package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleINI = `[main]
output_dir = out
log_level = info

[meetup]
host = https://api.meetup.com/
api_key = secret
pug_blacklist = meetup, django,  ,
pug_whitelist = python, pyladies
request_delay = 250ms
nearby_radius = 25
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func clearEnv(t *testing.T) {
	t.Helper()
	t.Setenv(EnvAPIKey, "")
	t.Setenv(EnvOutputDir, "")
}

func TestLoad_INI(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "pyladies.ini", sampleINI)

	cfg, err := Load(path, "")
	require.NoError(t, err)

	wd, _ := os.Getwd()
	assert.Equal(t, filepath.Join(wd, "out"), cfg.Main.OutputDir)
	assert.Equal(t, "info", cfg.Main.LogLevel)
	assert.Equal(t, DefaultRegistryURL, cfg.Main.RegistryURL)
	assert.Equal(t, "https://api.meetup.com", cfg.Meetup.Host)
	assert.Equal(t, "secret", cfg.Meetup.APIKey)
	assert.Equal(t, 250*time.Millisecond, cfg.Meetup.RequestDelay)
	assert.Equal(t, DefaultChapterDelay, cfg.Meetup.ChapterDelay)
	assert.Equal(t, 25.0, cfg.Meetup.NearbyRadius)
	assert.Equal(t, DefaultNearbyCategory, cfg.Meetup.NearbyCategory)
	assert.Equal(t, DefaultNearbyPageSize, cfg.Meetup.NearbyPageSize)
	assert.Equal(t, DefaultRetries, cfg.Meetup.Retries)
	assert.Equal(t, []string{"meetup", "django"}, SplitTerms(cfg.Meetup.PUGBlacklist))
}

func TestLoad_TOML(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "pyladies.toml", `
[main]
output_dir = "/tmp/pyladies"

[meetup]
host = "https://api.meetup.com"
api_key = "secret"
pug_blacklist = "meetup"
pug_whitelist = "python"
chapter_delay = "0s"
retries = 3
`)

	cfg, err := Load(path, "")
	require.NoError(t, err)

	assert.Equal(t, "/tmp/pyladies", cfg.Main.OutputDir)
	assert.Equal(t, DefaultLogLevel, cfg.Main.LogLevel)
	assert.Equal(t, time.Duration(0), cfg.Meetup.ChapterDelay)
	assert.Equal(t, 3, cfg.Meetup.Retries)
}

func TestLoad_OutputDirPrecedence(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "pyladies.ini", sampleINI)

	t.Run("flag wins over env and file", func(t *testing.T) {
		t.Setenv(EnvOutputDir, "/from/env")
		cfg, err := Load(path, "/from/flag")
		require.NoError(t, err)
		assert.Equal(t, "/from/flag", cfg.Main.OutputDir)
	})

	t.Run("env wins over file", func(t *testing.T) {
		t.Setenv(EnvOutputDir, "/from/env")
		cfg, err := Load(path, "")
		require.NoError(t, err)
		assert.Equal(t, "/from/env", cfg.Main.OutputDir)
	})

	t.Run("defaults to data", func(t *testing.T) {
		noDir := writeFile(t, "nodir.ini", "[meetup]\nhost=h\napi_key=k\npug_blacklist=a\npug_whitelist=b\n")
		cfg, err := Load(noDir, "")
		require.NoError(t, err)
		assert.Equal(t, DefaultOutputDir, filepath.Base(cfg.Main.OutputDir))
		assert.True(t, filepath.IsAbs(cfg.Main.OutputDir))
	})
}

func TestLoad_APIKeyFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvAPIKey, "env-secret")
	path := writeFile(t, "pyladies.ini", "[meetup]\nhost=h\npug_blacklist=a\npug_whitelist=b\n")

	cfg, err := Load(path, "")
	require.NoError(t, err)
	assert.Equal(t, "env-secret", cfg.Meetup.APIKey)
}

func TestLoad_Errors(t *testing.T) {
	clearEnv(t)

	tests := []struct {
		name    string
		content string
		section string
		key     string
	}{
		{
			name:    "missing meetup section",
			content: "[main]\noutput_dir = data\n",
			section: "meetup",
		},
		{
			name:    "missing api key",
			content: "[meetup]\nhost=h\npug_blacklist=a\npug_whitelist=b\n",
			section: "meetup",
			key:     "api_key",
		},
		{
			name:    "missing whitelist",
			content: "[meetup]\nhost=h\napi_key=k\npug_blacklist=a\n",
			section: "meetup",
			key:     "pug_whitelist",
		},
		{
			name:    "bad delay",
			content: "[meetup]\nhost=h\napi_key=k\npug_blacklist=a\npug_whitelist=b\nrequest_delay=soon\n",
			section: "meetup",
			key:     "request_delay",
		},
		{
			name:    "negative page size",
			content: "[meetup]\nhost=h\napi_key=k\npug_blacklist=a\npug_whitelist=b\nnearby_page_size=-1\n",
			section: "meetup",
			key:     "nearby_page_size",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, "pyladies.ini", tt.content)
			_, err := Load(path, "")
			require.Error(t, err)
			require.True(t, IsConfigError(err), "expected config error, got %v", err)

			var cfgErr *Error
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, tt.section, cfgErr.Section)
			assert.Equal(t, tt.key, cfgErr.Key)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.ini"), "")
	require.Error(t, err)
	assert.False(t, IsConfigError(err))
}

func TestSplitTerms(t *testing.T) {
	assert.Equal(t, []string{"a", "b c"}, SplitTerms(" a , b c ,,"))
	assert.Empty(t, SplitTerms(""))
}

func TestOutputDir(t *testing.T) {
	clearEnv(t)

	dir, err := OutputDir("", "")
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(dir))
	assert.Equal(t, DefaultOutputDir, filepath.Base(dir))

	dir, err = OutputDir("", "/from/file")
	require.NoError(t, err)
	assert.Equal(t, "/from/file", dir)

	t.Setenv(EnvOutputDir, "/from/env")
	dir, err = OutputDir("", "/from/file")
	require.NoError(t, err)
	assert.Equal(t, "/from/env", dir)

	dir, err = OutputDir("/from/flag", "/from/file")
	require.NoError(t, err)
	assert.Equal(t, "/from/flag", dir)
}
