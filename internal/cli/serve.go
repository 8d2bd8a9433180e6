package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/tutu-network/tasklane/internal/daemon"
)

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "", "Host to listen on (overrides config)")
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (overrides config)")
	serveCmd.Flags().BoolVar(&serveMetrics, "metrics", false, "Expose the /metrics Prometheus endpoint")
	rootCmd.AddCommand(serveCmd)
}

var (
	serveHost    string
	servePort    int
	serveMetrics bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the tasklane admin server",
	Long:  `Start the lane scheduler daemon and its admin HTTP surface.`,
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	d, err := daemon.New()
	if err != nil {
		return err
	}

	if serveHost != "" {
		d.Config.API.Host = serveHost
	}
	if servePort > 0 {
		d.Config.API.Port = servePort
	}
	if serveMetrics {
		d.Config.Telemetry.Prometheus = true
		d.Server.EnableMetrics()
	}

	return d.Serve(context.Background())
}
