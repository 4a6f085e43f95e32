// Package cli implements the concierge admin command line.
package cli

import (
	"context"

	"wine-concierge-be/internal/bootstrap"
	"wine-concierge-be/internal/config"
	"wine-concierge-be/internal/pkg/logger"
	"wine-concierge-be/internal/service"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	verbose bool

	// set by PersistentPreRunE unless a test injected them
	conciergeService service.IConciergeService
	indexService     service.IIndexService
	container        *bootstrap.Container
)

var (
	okColor   = color.New(color.FgGreen)
	warnColor = color.New(color.FgYellow)
	errColor  = color.New(color.FgRed)
	headColor = color.New(color.FgCyan, color.Bold)
)

var rootCmd = &cobra.Command{
	Use:           "concierge",
	Short:         "Wine concierge admin tool",
	Long:          `Ask questions, check the weather and manage the document index without running the HTTP server.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if conciergeService != nil && indexService != nil {
			return nil
		}
		cfg := config.Load()
		c, err := bootstrap.NewContainer(cfg, logger.NewConsoleLogger(verbose))
		if err != nil {
			return err
		}
		container = c
		conciergeService = c.ConciergeService
		indexService = c.IndexService
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if container != nil {
			container.Close()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log debug output to stderr")
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		errColor.Fprintln(rootCmd.ErrOrStderr(), "Error:", err)
	}
	return err
}
