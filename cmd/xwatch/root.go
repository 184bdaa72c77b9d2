package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"xwatch/pkg/config"
	"xwatch/pkg/ui"
)

var (
	// Version information
	version   = "1.0.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile string
	logLevel   string
	logFile    string
	quiet      bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "xwatch",
	Short: "Incremental X/Twitter profile and hashtag tracker",
	Long: `xwatch visits a list of X profiles or hashtags in an endless, paced loop.

Every visit is reconciled against what was stored before:
  - new profiles and posts are added
  - changed profile fields and post like counts are recorded in a change log
  - progress is saved after every item so a restart resumes where it stopped

Results go to spreadsheet files (xlsx or csv) or an embedded SQLite database.`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if quiet || logLevel == "error" {
			ui.SetQuietMode(true)
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		ui.PrintError("Error", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default is ./.xwatch.yaml or ~/.config/xwatch/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "also write JSON logs to this file")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress all output except errors")

	rootCmd.SetVersionTemplate(`xwatch {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)
	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// changedFlags collects the flags the user set explicitly, keyed by name,
// in the shape config.MergeCommandLineFlags expects.
func changedFlags(cmd *cobra.Command) map[string]interface{} {
	flags := make(map[string]interface{})
	cmd.Flags().Visit(func(f *pflag.Flag) {
		switch f.Value.Type() {
		case "bool":
			v, _ := cmd.Flags().GetBool(f.Name)
			flags[f.Name] = v
		case "int":
			v, _ := cmd.Flags().GetInt(f.Name)
			flags[f.Name] = v
		default:
			flags[f.Name] = f.Value.String()
		}
	})
	return flags
}

// loadConfig resolves the configuration for cmd, forcing mode when set
func loadConfig(cmd *cobra.Command, mode string) (*config.Config, error) {
	flags := changedFlags(cmd)
	if mode != "" {
		flags["mode"] = mode
	}
	return config.Load(configFile, flags)
}
