package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"ComplianceReview/internal/app"
	"ComplianceReview/internal/config"
	"ComplianceReview/internal/errors"
	"ComplianceReview/internal/logging"
)

var (
	configPath string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "compliancereview",
	Short: "Review grant proposals against executive-order compliance",
	Long: `compliancereview runs submitted grant proposals through extraction,
summarization, compliance analysis, risk scoring and reviewer notification.

Examples:
  compliancereview submit proposal.pdf --notify   # Review one document
  compliancereview watch                          # Review every file dropped into the inbox
  compliancereview kb search "equal opportunity"  # Query the regulation knowledge base`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to a .yaml or .toml config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override the configured log level")

	rootCmd.AddCommand(submitCmd, watchCmd, showCmd, kbCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		pterm.Error.Println(err.Error())
		if hint := errors.FlattenHints(err); hint != "" {
			pterm.Info.Println(hint)
		}
		os.Exit(1)
	}
}

// bootstrap loads configuration and builds the application for a command.
func bootstrap(ctx context.Context) (*app.Application, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}

	return app.New(ctx, cfg, logging.New(cfg.Logging.Level, cfg.Logging.JSON))
}

func closeApp(a *app.Application) {
	if err := a.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "close: %v\n", err)
	}
}
