package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/msavelyev/stocklive/internal/client/config"
)

var (
	flagServer  string
	flagDataDir string
	flagConfig  string

	loadedConfig *config.Config
)

var rootCmd = &cobra.Command{
	Use:          "stocklive",
	Short:        "stocklive keeps a live view of your inventory",
	Long:         "stocklive is a client for the stocklive inventory service.\nIt keeps a locally synchronized view of your records and lets you\nmanage them from the command line.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(flagConfig)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		if flagServer != "" {
			cfg.ServerURL = flagServer
		}
		if flagDataDir != "" {
			cfg.DataDir = flagDataDir
		}
		loadedConfig = cfg
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagServer, "server", "", "server base URL")
	rootCmd.PersistentFlags().StringVar(&flagDataDir, "data-dir", "", "directory for local state")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config-dir", "", "directory to search for config.yaml")
}

// Execute runs the command tree. The context is cancelled on SIGINT and
// SIGTERM so long-running commands like watch shut down cleanly.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

// withApp builds the client stack for a command, runs fn and tears the
// stack down again. Commands are short lived so the stack is rebuilt on
// every invocation.
func withApp(cmd *cobra.Command, fn func(app *App) error) error {
	app, err := newApp(cmd.Context(), loadedConfig)
	if err != nil {
		return err
	}
	defer app.Close()
	return fn(app)
}
