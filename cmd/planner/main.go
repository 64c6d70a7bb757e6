package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/venue-planner/internal/common"
	"github.com/joseph-ayodele/venue-planner/internal/server"
)

var (
	addr       string
	timeout    time.Duration
	configPath string
)

var rootCmd = &cobra.Command{
	Use:   "planner",
	Short: "Wedding venue and vendor planner",
	Long: `Upload venue and vendor documents for extraction, triage the merged
records and export them. Most commands talk to a running plannerd; batch,
extract and ping work locally from the same configuration.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&addr, "addr", envOr("PLANNER_ADDR", "localhost:8080"), "plannerd gRPC address")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 30*time.Second, "per-call timeout")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", os.Getenv("PLANNER_CONFIG"), "YAML config file for local commands")

	rootCmd.AddGroup(
		&cobra.Group{ID: "remote", Title: "Daemon commands:"},
		&cobra.Group{ID: "local", Title: "Local commands:"},
	)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// withClient dials plannerd and runs fn under the call timeout.
func withClient(cmd *cobra.Command, fn func(ctx context.Context, c *server.Client) error) error {
	c, err := server.Dial(addr)
	if err != nil {
		return fmt.Errorf("dial %s: %w", addr, err)
	}
	defer c.Close()
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()
	return fn(ctx, c)
}

func loadConfig() (*common.Config, error) {
	return common.LoadConfigFile(configPath)
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
