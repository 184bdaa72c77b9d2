package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, ModeProfiles, cfg.Crawl.Mode)
	assert.Equal(t, 10, cfg.Pacing.Profiles.MaxScrolls)
	assert.Equal(t, 100, cfg.Pacing.Hashtags.MaxScrolls)
	assert.Equal(t, 30*time.Second, cfg.Pacing.Profiles.ItemDelay.Min)
	assert.Equal(t, 2*time.Hour, cfg.Pacing.Hashtags.Cooldown.Max)
	assert.Equal(t, BackendTabular, cfg.Storage.Backend)
	require.NoError(t, cfg.Validate())
}

func TestModeDerivedSettings(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Storage.Directory = "/data"

	assert.Equal(t, "User_ID", cfg.WorkListColumn())
	assert.Equal(t, cfg.Pacing.Profiles, cfg.ActivePacing())
	assert.Equal(t, filepath.Join("/data", "progress_profiles.json"), cfg.ProgressPath())

	cfg.Crawl.Mode = ModeHashtags
	assert.Equal(t, "Hashtag", cfg.WorkListColumn())
	assert.Equal(t, cfg.Pacing.Hashtags, cfg.ActivePacing())
	assert.Equal(t, filepath.Join("/data", "progress_hashtags.json"), cfg.ProgressPath())

	cfg.Crawl.WorkListColumn = "Tag"
	cfg.Progress.Path = "/tmp/p.json"
	assert.Equal(t, "Tag", cfg.WorkListColumn())
	assert.Equal(t, "/tmp/p.json", cfg.ProgressPath())
	assert.Equal(t, filepath.Join("/data", "xwatch.db"), cfg.SQLitePath())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("XWATCH_MODE", "hashtags")
	t.Setenv("XWATCH_WORK_LIST", "/tmp/tags.csv")
	t.Setenv("XWATCH_ACCOUNT", "night-shift")
	t.Setenv("XWATCH_HEADLESS", "false")
	t.Setenv("XWATCH_SCRAPE_POSTS", "true")
	t.Setenv("XWATCH_NAVIGATIONS_PER_MINUTE", "5")
	t.Setenv("XWATCH_LOG_LEVEL", "debug")

	cfg := DefaultConfig()
	require.NoError(t, cfg.LoadFromEnv())

	assert.Equal(t, ModeHashtags, cfg.Crawl.Mode)
	assert.Equal(t, "/tmp/tags.csv", cfg.Crawl.WorkList)
	assert.Equal(t, "night-shift", cfg.Session.Account)
	assert.False(t, cfg.Browser.Headless)
	assert.True(t, cfg.Crawl.ScrapePosts)
	assert.Equal(t, 5, cfg.Browser.NavigationsPerMinute)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadFromEnvRejectsBadValues(t *testing.T) {
	t.Setenv("XWATCH_HEADLESS", "maybe")
	t.Setenv("XWATCH_NAVIGATIONS_PER_MINUTE", "lots")

	cfg := DefaultConfig()
	err := cfg.LoadFromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "XWATCH_HEADLESS")
	assert.Contains(t, err.Error(), "XWATCH_NAVIGATIONS_PER_MINUTE")
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
crawl:
  mode: hashtags
  work_list: tags.xlsx
pacing:
  hashtags:
    item_delay:
      min: 1s
      max: 2s
    max_scrolls: 7
storage:
  backend: sqlite
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	cfg := DefaultConfig()
	require.NoError(t, cfg.LoadFromFile(path))

	assert.Equal(t, ModeHashtags, cfg.Crawl.Mode)
	assert.Equal(t, time.Second, cfg.Pacing.Hashtags.ItemDelay.Min)
	assert.Equal(t, 7, cfg.Pacing.Hashtags.MaxScrolls)
	assert.Equal(t, BackendSQLite, cfg.Storage.Backend)
	// untouched keys keep their defaults
	assert.Equal(t, 5, cfg.Pacing.Hashtags.StuckThreshold)
}

func TestLoadFromFileErrors(t *testing.T) {
	cfg := DefaultConfig()
	assert.Error(t, cfg.LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml")))

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("crawl: [unclosed"), 0600))
	assert.Error(t, cfg.LoadFromFile(bad))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "unknown mode", mutate: func(c *Config) { c.Crawl.Mode = "lists" }, want: "crawl mode"},
		{name: "missing work list", mutate: func(c *Config) { c.Crawl.WorkList = "" }, want: "work list"},
		{name: "bad language", mutate: func(c *Config) { c.Crawl.TargetLanguage = "eng" }, want: "ISO 639-1"},
		{name: "inverted range", mutate: func(c *Config) {
			c.Pacing.Profiles.ItemDelay = DurationRange{Min: time.Minute, Max: time.Second}
		}, want: "profiles item delay"},
		{name: "zero stuck threshold", mutate: func(c *Config) { c.Pacing.Hashtags.StuckThreshold = 0 }, want: "stuck threshold"},
		{name: "zero scrolls", mutate: func(c *Config) { c.Pacing.Profiles.MaxScrolls = 0 }, want: "max scrolls"},
		{name: "unknown backend", mutate: func(c *Config) { c.Storage.Backend = "mongo" }, want: "backend"},
		{name: "unknown format", mutate: func(c *Config) { c.Storage.Format = "ods" }, want: "format"},
		{name: "status without addr", mutate: func(c *Config) {
			c.Status.Enabled = true
			c.Status.Addr = ""
		}, want: "status address"},
		{name: "bad log level", mutate: func(c *Config) { c.Logging.Level = "trace" }, want: "log level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.want == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestValidateReportsEveryProblem(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Crawl.Mode = ""
	cfg.Storage.Backend = ""
	cfg.Logging.Level = ""

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "crawl mode")
	assert.Contains(t, err.Error(), "backend")
	assert.Contains(t, err.Error(), "log level")
}

func TestMergeCommandLineFlags(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MergeCommandLineFlags(map[string]interface{}{
		"mode":         ModeHashtags,
		"work-list":    "tags.csv",
		"data-dir":     "/srv/xwatch",
		"headless":     false,
		"scrape-posts": true,
		"max-scrolls":  42,
		"log-level":    "",
	})

	assert.Equal(t, ModeHashtags, cfg.Crawl.Mode)
	assert.Equal(t, "tags.csv", cfg.Crawl.WorkList)
	assert.Equal(t, "/srv/xwatch", cfg.Storage.Directory)
	assert.False(t, cfg.Browser.Headless)
	assert.True(t, cfg.Crawl.ScrapePosts)
	assert.Equal(t, 42, cfg.Pacing.Hashtags.MaxScrolls)
	assert.Equal(t, 10, cfg.Pacing.Profiles.MaxScrolls)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := DefaultConfig()
	cfg.Crawl.Mode = ModeHashtags
	cfg.Pacing.ScrollPause = DurationRange{Min: time.Second, Max: 3 * time.Second}
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, ModeHashtags, loaded.Crawl.Mode)
	assert.Equal(t, cfg.Pacing.ScrollPause, loaded.Pacing.ScrollPause)
}

func TestLoadPrecedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("logging:\n  level: warn\nstorage:\n  directory: /from/file\n"), 0600))
	t.Setenv("XWATCH_DATA_DIR", "/from/env")

	cfg, err := Load(path, map[string]interface{}{"log-level": "debug"})
	require.NoError(t, err)
	assert.Equal(t, "/from/env", cfg.Storage.Directory)
	assert.Equal(t, "debug", cfg.Logging.Level)
}
