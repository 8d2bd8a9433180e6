package cli

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/tutu-network/tasklane/internal/lane"
)

func init() {
	statsCmd.Flags().StringVar(&statsAddr, "addr", "http://127.0.0.1:8700", "Admin server address")
	rootCmd.AddCommand(statsCmd)
}

var statsAddr string

var statsCmd = &cobra.Command{
	Use:   "stats <tenant-id>",
	Short: "Show per-lane stats for a tenant",
	Args:  cobra.ExactArgs(1),
	RunE:  runStats,
}

func runStats(cmd *cobra.Command, args []string) error {
	tenantID := args[0]

	resp, err := http.Get(fmt.Sprintf("%s/v1/tenants/%s/stats", statsAddr, tenantID))
	if err != nil {
		return fmt.Errorf("request stats: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("stats request failed: %s", resp.Status)
	}

	var stats lane.TenantStats
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		return fmt.Errorf("decode stats: %w", err)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "LANE\tMETRIC\tVALUE\n")
	fmt.Fprintf(w, "main\tqueue size\t%d\n", stats.Main.QueueSize)
	fmt.Fprintf(w, "main\tqueue depth %%\t%.1f\n", stats.Main.QueueDepthPercent)
	fmt.Fprintf(w, "cron\tscheduled count\t%d\n", stats.Cron.ScheduledCount)
	if stats.Cron.HasNext {
		fmt.Fprintf(w, "cron\tnext execution\t%s\n", stats.Cron.NextExecution.Format("2006-01-02T15:04:05Z07:00"))
	}
	fmt.Fprintf(w, "subagent\tqueue size\t%d\n", stats.Subagent.QueueSize)
	fmt.Fprintf(w, "subagent\tlive workers\t%d\n", stats.Subagent.LiveWorkerCount)
	fmt.Fprintf(w, "subagent\tconcurrency %%\t%.1f\n", stats.Subagent.ConcurrencyPercent)
	return w.Flush()
}
