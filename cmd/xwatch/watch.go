package main

import (
	"context"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"xwatch/pkg/ui/tui"
)

var (
	watchAddr     string
	watchInterval time.Duration
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Live dashboard of a running crawl",
	Long: `Poll the status server of a crawl started with --status and show its
progress, pacing and recent activity.`,
	Example: `  xwatch watch --addr 127.0.0.1:9464`,
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		return tui.Run(ctx, tui.HTTPFetcher(nil, watchAddr), watchInterval)
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().StringVar(&watchAddr, "addr", "127.0.0.1:9464", "status server address")
	watchCmd.Flags().DurationVar(&watchInterval, "interval", time.Second, "polling interval")
}
