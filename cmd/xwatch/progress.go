package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"xwatch/pkg/checkpoint"
	"xwatch/pkg/config"
	"xwatch/pkg/logger"
	"xwatch/pkg/ui"
)

var progressMode string

var progressCmd = &cobra.Command{
	Use:   "progress",
	Short: "Inspect or reset the saved crawl position",
	Long: `Each crawl mode keeps its position in the work list in a progress file,
written after every item. A restarted crawl resumes from it.`,
}

var progressShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the saved position",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := progressManager(cmd)
		if err != nil {
			return err
		}
		if !m.Exists() {
			ui.PrintWarning("No progress saved", m.Path())
			return nil
		}
		c, err := m.Load()
		if err != nil {
			return err
		}
		ui.PrintInfo("File", m.Path())
		ui.PrintInfo("Next index", fmt.Sprintf("%d", c.LastIndex))
		if c.WorkListSize > 0 {
			ui.PrintInfo("Work list size", fmt.Sprintf("%d", c.WorkListSize))
		}
		ui.PrintInfo("Cycle", fmt.Sprintf("%d", c.Cycle))
		if c.RunID != "" {
			ui.PrintInfo("Last run", c.RunID)
		}
		if !c.UpdatedAt.IsZero() {
			ui.PrintInfo("Updated", c.UpdatedAt.Format("2006-01-02 15:04:05"))
		}
		return nil
	},
}

var progressResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Restart the next crawl from the top of the work list",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := progressManager(cmd)
		if err != nil {
			return err
		}
		if err := m.Backup(); err != nil {
			return err
		}
		if err := m.Reset(); err != nil {
			return err
		}
		ui.PrintSuccess("Progress reset, previous file kept as " + m.Path() + ".backup")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(progressCmd)
	progressCmd.AddCommand(progressShowCmd, progressResetCmd)
	progressCmd.PersistentFlags().StringVarP(&progressMode, "mode", "m", config.ModeProfiles, "crawl mode (profiles or hashtags)")
	progressCmd.PersistentFlags().String("progress", "", "progress file (default <data-dir>/progress_<mode>.json)")
	progressCmd.PersistentFlags().StringP("data-dir", "d", "", "directory for result files")
}

func progressManager(cmd *cobra.Command) (*checkpoint.Manager, error) {
	cfg, err := loadConfig(cmd, progressMode)
	if err != nil {
		return nil, err
	}
	return checkpoint.NewManager(cfg.ProgressPath(), logger.NewNopLogger())
}
