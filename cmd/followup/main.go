/*
main.go - Application entry point

PURPOSE:
  The followup command line: runs the HTTP API and offers offline
  commands over the same SQLite store.

COMMANDS:
  serve        HTTP API plus the due-task notifier
  parse        Parse a lead dump from a file or stdin, print leads JSON
  import       Replace the store with a state document
  export       Write the store as a state document
  regenerate   Rebuild every future auto task
  init         Write a followup.yaml with the defaults

CONFIGURATION:
  followup.yaml in the working directory, overridden by FOLLOWUP_*
  environment variables (FOLLOWUP_STORE_PATH, FOLLOWUP_LOG_LEVEL, ...).
  Use ":memory:" as store path for a throwaway database.

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM serve stops accepting connections, waits up to 30s
  for active requests, stops the notifier and closes the database.

SEE ALSO:
  - config/config.go: Keys and defaults
  - api/server.go: Router configuration
*/
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/warp/followup-engine/config"
	"github.com/warp/followup-engine/followup"
	"github.com/warp/followup-engine/store/sqlite"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "followup",
	Short: "Lead parsing and follow-up cadence scheduler",
	Long:  "Parses pasted lead dumps into clients and schedules their outreach tasks on a working-day calendar.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
	SilenceUsage: true,
}

// openService opens the configured store and wraps it in a service.
func openService() (*followup.Service, *sqlite.Store, error) {
	store, err := sqlite.New(cfg.Store.Driver, cfg.Store.Path)
	if err != nil {
		return nil, nil, err
	}
	return followup.NewService(store, zap.L()), store, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
