package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Crawl modes
const (
	ModeProfiles = "profiles"
	ModeHashtags = "hashtags"
)

// Storage backends
const (
	BackendTabular = "tabular"
	BackendSQLite  = "sqlite"
)

// Config holds all configuration options for the crawler
type Config struct {
	Session  SessionConfig  `yaml:"session" json:"session"`
	Browser  BrowserConfig  `yaml:"browser" json:"browser"`
	Crawl    CrawlConfig    `yaml:"crawl" json:"crawl"`
	Pacing   PacingConfig   `yaml:"pacing" json:"pacing"`
	Storage  StorageConfig  `yaml:"storage" json:"storage"`
	Progress ProgressConfig `yaml:"progress" json:"progress"`
	Status   StatusConfig   `yaml:"status" json:"status"`
	Logging  LoggingConfig  `yaml:"logging" json:"logging"`
}

// SessionConfig names the stored login session to replay into the browser
type SessionConfig struct {
	Account    string `yaml:"account" json:"account"`
	CookieFile string `yaml:"cookie_file" json:"cookie_file"`
	BaseURL    string `yaml:"base_url" json:"base_url"`
}

// BrowserConfig controls the automated Chrome instance
type BrowserConfig struct {
	Headless             bool          `yaml:"headless" json:"headless"`
	ExecPath             string        `yaml:"exec_path" json:"exec_path"`
	UserDataDir          string        `yaml:"user_data_dir" json:"user_data_dir"`
	ProfileDir           string        `yaml:"profile_dir" json:"profile_dir"`
	UserAgent            string        `yaml:"user_agent" json:"user_agent"`
	Language             string        `yaml:"language" json:"language"`
	WindowWidth          int           `yaml:"window_width" json:"window_width"`
	WindowHeight         int           `yaml:"window_height" json:"window_height"`
	NavTimeout           time.Duration `yaml:"nav_timeout" json:"nav_timeout"`
	ScriptTimeout        time.Duration `yaml:"script_timeout" json:"script_timeout"`
	NavigationsPerMinute int           `yaml:"navigations_per_minute" json:"navigations_per_minute"`
}

// CrawlConfig selects what is visited
type CrawlConfig struct {
	Mode           string `yaml:"mode" json:"mode"`
	WorkList       string `yaml:"work_list" json:"work_list"`
	WorkListColumn string `yaml:"work_list_column" json:"work_list_column"`
	TargetLanguage string `yaml:"target_language" json:"target_language"`
	// RequireReliable also discards posts whose language guess is weak
	RequireReliable bool `yaml:"require_reliable" json:"require_reliable"`
	// ScrapePosts collects timeline posts while visiting profiles
	ScrapePosts bool `yaml:"scrape_posts" json:"scrape_posts"`
}

// DurationRange is an inclusive [Min, Max] window for randomized waits
type DurationRange struct {
	Min time.Duration `yaml:"min" json:"min"`
	Max time.Duration `yaml:"max" json:"max"`
}

// ModePacing holds the per-mode pacing knobs
type ModePacing struct {
	ItemDelay      DurationRange `yaml:"item_delay" json:"item_delay"`
	Cooldown       DurationRange `yaml:"cooldown" json:"cooldown"`
	MaxScrolls     int           `yaml:"max_scrolls" json:"max_scrolls"`
	StuckThreshold int           `yaml:"stuck_threshold" json:"stuck_threshold"`
}

// PacingConfig holds delays shared by both modes plus per-mode settings
type PacingConfig struct {
	Profiles    ModePacing    `yaml:"profiles" json:"profiles"`
	Hashtags    ModePacing    `yaml:"hashtags" json:"hashtags"`
	PageSettle  DurationRange `yaml:"page_settle" json:"page_settle"`
	ScrollPause DurationRange `yaml:"scroll_pause" json:"scroll_pause"`
	RetryProbe  time.Duration `yaml:"retry_probe" json:"retry_probe"`
}

// StorageConfig selects and locates the persistence backend
type StorageConfig struct {
	Backend       string `yaml:"backend" json:"backend"`
	Directory     string `yaml:"directory" json:"directory"`
	Format        string `yaml:"format" json:"format"`
	SQLitePath    string `yaml:"sqlite_path" json:"sqlite_path"`
	RetryAttempts int    `yaml:"retry_attempts" json:"retry_attempts"`
}

// ProgressConfig locates the progress cursor file
type ProgressConfig struct {
	Path string `yaml:"path" json:"path"`
}

// StatusConfig controls the local status/metrics HTTP endpoint
type StatusConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Addr    string `yaml:"addr" json:"addr"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
	JSON  bool   `yaml:"json" json:"json"`
}

// DefaultConfig returns a Config with the defaults the crawler was tuned with
func DefaultConfig() *Config {
	return &Config{
		Session: SessionConfig{
			Account: "default",
			BaseURL: "https://x.com",
		},
		Browser: BrowserConfig{
			Headless:             true,
			UserAgent:            "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
			Language:             "en-US",
			WindowWidth:          1920,
			WindowHeight:         1080,
			NavTimeout:           60 * time.Second,
			ScriptTimeout:        15 * time.Second,
			NavigationsPerMinute: 20,
		},
		Crawl: CrawlConfig{
			Mode:           ModeProfiles,
			WorkList:       "work_list.xlsx",
			TargetLanguage: "en",
		},
		Pacing: PacingConfig{
			Profiles: ModePacing{
				ItemDelay:      DurationRange{Min: 30 * time.Second, Max: 60 * time.Second},
				Cooldown:       DurationRange{Min: 5 * time.Minute, Max: 10 * time.Minute},
				MaxScrolls:     10,
				StuckThreshold: 5,
			},
			Hashtags: ModePacing{
				ItemDelay:      DurationRange{Min: 10 * time.Minute, Max: 20 * time.Minute},
				Cooldown:       DurationRange{Min: time.Hour, Max: 2 * time.Hour},
				MaxScrolls:     100,
				StuckThreshold: 5,
			},
			PageSettle:  DurationRange{Min: 5 * time.Second, Max: 8 * time.Second},
			ScrollPause: DurationRange{Min: 3 * time.Second, Max: 6 * time.Second},
			RetryProbe:  5 * time.Second,
		},
		Storage: StorageConfig{
			Backend:       BackendTabular,
			Directory:     "./data",
			Format:        "xlsx",
			RetryAttempts: 3,
		},
		Status: StatusConfig{
			Addr: "127.0.0.1:9464",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// ActivePacing returns the pacing settings for the configured crawl mode
func (c *Config) ActivePacing() ModePacing {
	if c.Crawl.Mode == ModeHashtags {
		return c.Pacing.Hashtags
	}
	return c.Pacing.Profiles
}

// WorkListColumn returns the work list column, defaulting per mode
func (c *Config) WorkListColumn() string {
	if c.Crawl.WorkListColumn != "" {
		return c.Crawl.WorkListColumn
	}
	if c.Crawl.Mode == ModeHashtags {
		return "Hashtag"
	}
	return "User_ID"
}

// ProgressPath returns the cursor file, one per mode unless set explicitly
func (c *Config) ProgressPath() string {
	if c.Progress.Path != "" {
		return c.Progress.Path
	}
	return filepath.Join(c.Storage.Directory, fmt.Sprintf("progress_%s.json", c.Crawl.Mode))
}

// SQLitePath returns the database file for the sqlite backend
func (c *Config) SQLitePath() string {
	if c.Storage.SQLitePath != "" {
		return c.Storage.SQLitePath
	}
	return filepath.Join(c.Storage.Directory, "xwatch.db")
}

// LoadFromEnv applies XWATCH_* environment variables
func (c *Config) LoadFromEnv() error {
	setString := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	setString("XWATCH_ACCOUNT", &c.Session.Account)
	setString("XWATCH_COOKIE_FILE", &c.Session.CookieFile)
	setString("XWATCH_BASE_URL", &c.Session.BaseURL)
	setString("XWATCH_CHROME_PATH", &c.Browser.ExecPath)
	setString("XWATCH_USER_DATA_DIR", &c.Browser.UserDataDir)
	setString("XWATCH_USER_AGENT", &c.Browser.UserAgent)
	setString("XWATCH_MODE", &c.Crawl.Mode)
	setString("XWATCH_WORK_LIST", &c.Crawl.WorkList)
	setString("XWATCH_LANGUAGE", &c.Crawl.TargetLanguage)
	setString("XWATCH_STORAGE_BACKEND", &c.Storage.Backend)
	setString("XWATCH_DATA_DIR", &c.Storage.Directory)
	setString("XWATCH_STORAGE_FORMAT", &c.Storage.Format)
	setString("XWATCH_PROGRESS_PATH", &c.Progress.Path)
	setString("XWATCH_STATUS_ADDR", &c.Status.Addr)
	setString("XWATCH_LOG_LEVEL", &c.Logging.Level)
	setString("XWATCH_LOG_FILE", &c.Logging.File)

	var errs []error
	if v := os.Getenv("XWATCH_HEADLESS"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("XWATCH_HEADLESS: %w", err))
		} else {
			c.Browser.Headless = b
		}
	}
	if v := os.Getenv("XWATCH_SCRAPE_POSTS"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("XWATCH_SCRAPE_POSTS: %w", err))
		} else {
			c.Crawl.ScrapePosts = b
		}
	}
	if v := os.Getenv("XWATCH_STATUS_ENABLED"); v != "" {
		c.Status.Enabled = strings.EqualFold(v, "true")
	}
	if v := os.Getenv("XWATCH_NAVIGATIONS_PER_MINUTE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("XWATCH_NAVIGATIONS_PER_MINUTE: %w", err))
		} else if n > 0 {
			c.Browser.NavigationsPerMinute = n
		}
	}
	return errors.Join(errs...)
}

// LoadFromFile loads configuration from a YAML file. An empty path searches
// the default locations; finding nothing is not an error.
func (c *Config) LoadFromFile(path string) error {
	if path == "" {
		path = findConfigFile()
		if path == "" {
			return nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	return nil
}

func findConfigFile() string {
	home := os.Getenv("HOME")
	locations := []string{
		".xwatch.yaml",
		".xwatch.yml",
		filepath.Join(home, ".config", "xwatch", "config.yaml"),
		filepath.Join(home, ".config", "xwatch", "config.yml"),
		filepath.Join(home, ".xwatch.yaml"),
	}
	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}
	return ""
}

// Validate checks every section and reports all problems at once
func (c *Config) Validate() error {
	var errs []error

	if c.Crawl.Mode != ModeProfiles && c.Crawl.Mode != ModeHashtags {
		errs = append(errs, fmt.Errorf("crawl mode must be %q or %q, got %q", ModeProfiles, ModeHashtags, c.Crawl.Mode))
	}
	if c.Crawl.WorkList == "" {
		errs = append(errs, errors.New("work list path is required"))
	}
	if len(c.Crawl.TargetLanguage) != 2 {
		errs = append(errs, errors.New("target language must be a two-letter ISO 639-1 code"))
	}
	if c.Session.BaseURL == "" {
		errs = append(errs, errors.New("session base URL is required"))
	}

	if c.Browser.NavTimeout <= 0 {
		errs = append(errs, errors.New("navigation timeout must be positive"))
	}
	if c.Browser.ScriptTimeout <= 0 {
		errs = append(errs, errors.New("script timeout must be positive"))
	}
	if c.Browser.NavigationsPerMinute <= 0 {
		errs = append(errs, errors.New("navigations per minute must be positive"))
	}

	for name, mp := range map[string]ModePacing{ModeProfiles: c.Pacing.Profiles, ModeHashtags: c.Pacing.Hashtags} {
		if err := mp.ItemDelay.validate(name + " item delay"); err != nil {
			errs = append(errs, err)
		}
		if err := mp.Cooldown.validate(name + " cooldown"); err != nil {
			errs = append(errs, err)
		}
		if mp.MaxScrolls <= 0 {
			errs = append(errs, fmt.Errorf("%s max scrolls must be positive", name))
		}
		if mp.StuckThreshold <= 0 {
			errs = append(errs, fmt.Errorf("%s stuck threshold must be positive", name))
		}
	}
	if err := c.Pacing.PageSettle.validate("page settle"); err != nil {
		errs = append(errs, err)
	}
	if err := c.Pacing.ScrollPause.validate("scroll pause"); err != nil {
		errs = append(errs, err)
	}
	if c.Pacing.RetryProbe <= 0 {
		errs = append(errs, errors.New("retry probe must be positive"))
	}

	switch c.Storage.Backend {
	case BackendTabular:
		if c.Storage.Format != "xlsx" && c.Storage.Format != "csv" {
			errs = append(errs, fmt.Errorf("storage format must be xlsx or csv, got %q", c.Storage.Format))
		}
	case BackendSQLite:
	default:
		errs = append(errs, fmt.Errorf("unknown storage backend %q", c.Storage.Backend))
	}
	if c.Storage.Directory == "" {
		errs = append(errs, errors.New("storage directory is required"))
	}
	if c.Storage.RetryAttempts < 1 {
		errs = append(errs, errors.New("storage retry attempts must be at least 1"))
	}

	if c.Status.Enabled && c.Status.Addr == "" {
		errs = append(errs, errors.New("status address is required when the status server is enabled"))
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	return errors.Join(errs...)
}

func (r DurationRange) validate(name string) error {
	if r.Min < 0 {
		return fmt.Errorf("%s minimum cannot be negative", name)
	}
	if r.Max < r.Min {
		return fmt.Errorf("%s maximum %s is below minimum %s", name, r.Max, r.Min)
	}
	return nil
}

// Save writes the configuration as YAML
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// MergeCommandLineFlags applies explicitly set command line flags
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	str := func(key string, dst *string) {
		if v, ok := flags[key].(string); ok && v != "" {
			*dst = v
		}
	}
	str("mode", &c.Crawl.Mode)
	str("work-list", &c.Crawl.WorkList)
	str("column", &c.Crawl.WorkListColumn)
	str("language", &c.Crawl.TargetLanguage)
	str("account", &c.Session.Account)
	str("cookie-file", &c.Session.CookieFile)
	str("chrome", &c.Browser.ExecPath)
	str("backend", &c.Storage.Backend)
	str("data-dir", &c.Storage.Directory)
	str("format", &c.Storage.Format)
	str("progress", &c.Progress.Path)
	str("status-addr", &c.Status.Addr)
	str("log-level", &c.Logging.Level)
	str("log-file", &c.Logging.File)

	if v, ok := flags["headless"].(bool); ok {
		c.Browser.Headless = v
	}
	if v, ok := flags["scrape-posts"].(bool); ok {
		c.Crawl.ScrapePosts = v
	}
	if v, ok := flags["status"].(bool); ok {
		c.Status.Enabled = v
	}
	if v, ok := flags["max-scrolls"].(int); ok && v > 0 {
		if c.Crawl.Mode == ModeHashtags {
			c.Pacing.Hashtags.MaxScrolls = v
		} else {
			c.Pacing.Profiles.MaxScrolls = v
		}
	}
}

// Load loads configuration from all sources.
// Precedence: flags > environment > .env files > config file > defaults.
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".xwatch.env"))

	cfg := DefaultConfig()
	if err := cfg.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}
	if err := cfg.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}
	cfg.MergeCommandLineFlags(flags)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}
