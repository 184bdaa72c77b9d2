package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/xid"
	"github.com/spf13/cobra"

	"xwatch/pkg/auth"
	"xwatch/pkg/browser"
	"xwatch/pkg/checkpoint"
	"xwatch/pkg/config"
	"xwatch/pkg/crawler"
	errs "xwatch/pkg/errors"
	"xwatch/pkg/logger"
	"xwatch/pkg/metrics"
	"xwatch/pkg/pacing"
	"xwatch/pkg/ratelimit"
	"xwatch/pkg/status"
	"xwatch/pkg/storage"
	"xwatch/pkg/storage/sqlite"
	"xwatch/pkg/storage/tabular"
	"xwatch/pkg/ui"
)

var profilesCmd = &cobra.Command{
	Use:   "profiles",
	Short: "Track profile fields of the accounts in a work list",
	Long: `Visit every account listed in the work list's User_ID column, store its
profile fields and record every field that changed since the last visit.

With --scrape-posts the profile timeline is scrolled as well and its posts
are stored alongside hashtag results.`,
	Example: `  # Track the accounts in users.xlsx
  xwatch profiles --work-list users.xlsx --cookie-file cookies.json

  # Store results in SQLite and expose progress on :9464
  xwatch profiles --work-list users.csv --backend sqlite --status`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCrawl(cmd, config.ModeProfiles)
	},
}

var hashtagsCmd = &cobra.Command{
	Use:   "hashtags",
	Short: "Collect live posts for the hashtags in a work list",
	Long: `Run a live search for every hashtag in the work list's Hashtag column,
scroll through the results and store each new post once. Authors are
counted in the users table, and edited posts or changed like counts are
recorded in the change log.`,
	Example: `  xwatch hashtags --work-list tags.csv --language en`,
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCrawl(cmd, config.ModeHashtags)
	},
}

func init() {
	for _, cmd := range []*cobra.Command{profilesCmd, hashtagsCmd} {
		f := cmd.Flags()
		f.StringP("work-list", "w", "", "work list file (.xlsx or .csv)")
		f.String("column", "", "work list column (default User_ID or Hashtag)")
		f.StringP("language", "l", "", "keep only posts in this ISO 639-1 language")
		f.StringP("account", "a", "", "stored session to use")
		f.String("cookie-file", "", "cookie export to log in with, instead of a stored session")
		f.String("chrome", "", "path to the Chrome executable")
		f.Bool("headless", true, "run Chrome without a window")
		f.String("backend", "", "storage backend (tabular or sqlite)")
		f.StringP("data-dir", "d", "", "directory for result files")
		f.String("format", "", "tabular file format (xlsx or csv)")
		f.String("progress", "", "progress file (default <data-dir>/progress_<mode>.json)")
		f.Bool("status", false, "serve /health, /progress and /metrics")
		f.String("status-addr", "", "listen address of the status server")
		f.Int("max-scrolls", 0, "scroll ceiling per page")
		f.Int("cycles", 0, "stop after this many passes over the work list (0 runs forever)")
		rootCmd.AddCommand(cmd)
	}
	profilesCmd.Flags().Bool("scrape-posts", false, "also collect timeline posts")
}

func runCrawl(cmd *cobra.Command, mode string) error {
	cfg, err := loadConfig(cmd, mode)
	if err != nil {
		return err
	}
	if err := logger.Initialize(&cfg.Logging); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	runID := xid.New().String()
	log := logger.GetLogger().WithField("run_id", runID)

	ui.PrintBanner()
	ui.PrintInfo("Mode", mode)
	ui.PrintInfo("Work list", cfg.Crawl.WorkList)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// no page is opened without a valid session
	sessions, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize session store: %w", err)
	}
	session, err := sessions.Load(cfg.Session.Account, cfg.Session.CookieFile)
	if err != nil {
		ui.PrintError("No usable login session", err)
		ui.PrintWarning("Run 'xwatch auth guide' to see how to export one")
		return err
	}

	values, err := tabular.ReadColumn(cfg.Crawl.WorkList, cfg.WorkListColumn())
	if err != nil {
		return err
	}
	items := crawler.WorkItems(mode, values)
	if len(items) == 0 {
		return fmt.Errorf("work list %s has no values in column %q", cfg.Crawl.WorkList, cfg.WorkListColumn())
	}
	ui.PrintInfo("Work items", fmt.Sprintf("%d", len(items)))

	lock, err := storage.AcquireLock(cfg.Storage.Directory)
	if err != nil {
		return err
	}
	defer lock.Release()

	store, err := openGateway(cfg, log)
	if err != nil {
		return err
	}
	defer store.Close()

	progress, err := checkpoint.NewManager(cfg.ProgressPath(), log)
	if err != nil {
		return err
	}

	m := metrics.New()
	m.Cursor(0, len(items))
	tracker := status.NewTracker(runID, mode)
	if cfg.Status.Enabled {
		srv := status.NewServer(cfg.Status.Addr, tracker, m.Handler(), log)
		go func() {
			if err := srv.Run(ctx); err != nil {
				log.WithError(err).Error("Status server failed")
			}
		}()
		ui.PrintInfo("Status", "http://"+cfg.Status.Addr+"/progress")
	}

	limiter := ratelimit.NewNavigationLimiter(cfg.Browser.NavigationsPerMinute, 1)
	driver, err := browser.Open(ctx, browser.Options{
		Headless:      cfg.Browser.Headless,
		ExecPath:      cfg.Browser.ExecPath,
		UserDataDir:   cfg.Browser.UserDataDir,
		ProfileDir:    cfg.Browser.ProfileDir,
		UserAgent:     userAgent(cfg, session),
		Language:      cfg.Browser.Language,
		WindowWidth:   cfg.Browser.WindowWidth,
		WindowHeight:  cfg.Browser.WindowHeight,
		NavTimeout:    cfg.Browser.NavTimeout,
		ScriptTimeout: cfg.Browser.ScriptTimeout,
		Throttle:      limiter,
	}, log)
	if err != nil {
		return err
	}
	defer driver.Close()

	cycles, _ := cmd.Flags().GetInt("cycles")
	c, err := crawler.New(crawler.Options{
		Config:    cfg,
		Driver:    driver,
		Store:     store,
		Progress:  progress,
		Pacer:     pacing.New(cfg, nil, log),
		Session:   session,
		Metrics:   m,
		Tracker:   tracker,
		Logger:    log,
		RunID:     runID,
		MaxCycles: cycles,
	})
	if err != nil {
		return err
	}

	ui.PrintHighlight("[CRAWL STARTED] press Ctrl+C to stop after the current item")
	err = c.Run(ctx, items)
	switch {
	case err == nil:
		ui.PrintSuccess("[CRAWL FINISHED]")
		return nil
	case errors.Is(err, context.Canceled):
		ui.PrintWarning("Stopped, progress saved", progress.Path())
		return nil
	case errs.IsFatal(err):
		ui.PrintError("Session rejected, import fresh cookies", err)
		return err
	default:
		return err
	}
}

// openGateway opens the configured backend behind the retrying wrapper
func openGateway(cfg *config.Config, log logger.Logger) (storage.Gateway, error) {
	var (
		gw  storage.Gateway
		err error
	)
	switch cfg.Storage.Backend {
	case config.BackendSQLite:
		gw, err = sqlite.Open(cfg.SQLitePath(), log)
	default:
		gw, err = tabular.Open(cfg.Storage.Directory, cfg.Storage.Format, log)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open %s storage: %w", cfg.Storage.Backend, err)
	}
	return storage.NewRetrying(gw, cfg.Storage.RetryAttempts, log), nil
}

// userAgent prefers the agent the session was exported from
func userAgent(cfg *config.Config, session *auth.Session) string {
	if session != nil && session.UserAgent != "" {
		return session.UserAgent
	}
	return cfg.Browser.UserAgent
}
