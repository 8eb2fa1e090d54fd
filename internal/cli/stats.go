package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/raphaelgruber/scamdetect/internal/client"
	"github.com/raphaelgruber/scamdetect/internal/metrics"
	"github.com/spf13/cobra"
)

var statsServer string

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show server runtime statistics",
	Long: `Show classifier and responder timings of a running scamdetect-server.

Examples:
  scamdetect stats
  scamdetect stats --server http://localhost:8501`,
	Args: cobra.NoArgs,
	RunE: runStats,
}

func init() {
	statsCmd.Flags().StringVar(&statsServer, "server", "", "server URL (default $SCAMDETECT_SERVER_URL or http://localhost:8501)")
}

func runStats(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	stats, err := client.New(statsServer).Stats(ctx)
	if err != nil {
		return fmt.Errorf("get server stats: %w", err)
	}
	printServerStats(cmd.OutOrStdout(), stats)
	return nil
}

// printServerStats displays server runtime statistics.
func printServerStats(out io.Writer, stats *metrics.Snapshot) {
	fmt.Fprintf(out, "Server Statistics (in-memory, since restart)\n")
	fmt.Fprintf(out, "═══════════════════════════════════════════════\n")
	fmt.Fprintf(out, "Uptime: %.1f seconds\n", stats.UptimeSeconds)

	if stats.Classify != nil {
		fmt.Fprintf(out, "\nClassifier:\n")
		printOpStats(out, stats.Classify)
	}

	if stats.Respond != nil {
		fmt.Fprintf(out, "\nResponder:\n")
		printOpStats(out, stats.Respond)
	}

	if stats.Turn != nil {
		fmt.Fprintf(out, "\nReplies:\n")
		printOpStats(out, stats.Turn)
	}
}

// printOpStats displays timing statistics for an operation.
func printOpStats(out io.Writer, op *metrics.OperationSnapshot) {
	fmt.Fprintf(out, "  Calls: %d, Failures: %d, Total: %dms\n", op.Count, op.Failures, op.TotalTimeMs)
	if op.Count > 0 {
		fmt.Fprintf(out, "  Time: avg %.1fms, min %dms, max %dms\n",
			op.AvgTimeMs, op.MinTimeMs, op.MaxTimeMs)
	}
}
