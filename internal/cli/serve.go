package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dealgrid/agentgate/internal/config"
	"github.com/dealgrid/agentgate/internal/daemon"
	"github.com/dealgrid/agentgate/internal/logger"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the gateway daemon in the foreground",
	Long: `Load the configuration, open the store, register the deal-desk tools
and run the gateway until interrupted.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	log, err := logger.New(cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = log.Close() }()

	d, err := daemon.New(cfg, log)
	if err != nil {
		return fmt.Errorf("failed to create daemon: %w", err)
	}

	return d.Run()
}
