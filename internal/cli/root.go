package cli

import (
	"context"
	"fmt"

	"rezzy/internal/config"
	"rezzy/internal/errors"

	"github.com/spf13/cobra"
)

// Define custom private types for context keys.
type configKeyType struct{}
type loggerKeyType struct{}

// Use variables of these types as the keys.
var configKey = configKeyType{}
var loggerKey = loggerKeyType{}

var rootCmd = &cobra.Command{
	Use:   "rezzy",
	Short: "A CLI client for the hosted resume optimization service",
	Long: `Rezzy is the command-line client for the hosted resume optimization
service. It bootstraps your account, runs guided scan and job matcher flows,
and manages onboarding, applications, and your subscription.

The backend stays authoritative for plans and quotas; rezzy keeps working in
a degraded read-only mode when the service cannot be reached.`,
}

func Execute(ctx context.Context, cfg *config.Config, logger *errors.Logger) error {
	// Attach the config and logger to the context, making them available to all subcommands
	ctx = context.WithValue(ctx, configKey, cfg)
	ctx = context.WithValue(ctx, loggerKey, logger)
	rootCmd.SetContext(ctx)
	return rootCmd.Execute()
}

// getConfigFromContext is a helper function to get config from context
func getConfigFromContext(ctx context.Context) (*config.Config, error) {
	if cfg, ok := ctx.Value(configKey).(*config.Config); ok {
		return cfg, nil
	}
	return nil, fmt.Errorf("config not found in context")
}

// getLoggerFromContext is a helper function to get logger from context
func getLoggerFromContext(ctx context.Context) (*errors.Logger, error) {
	if logger, ok := ctx.Value(loggerKey).(*errors.Logger); ok {
		return logger, nil
	}
	return nil, fmt.Errorf("logger not found in context")
}

func init() {
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(onboardCmd)
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(matchCmd)
	rootCmd.AddCommand(recommendCmd)
	rootCmd.AddCommand(resumesCmd)
	rootCmd.AddCommand(downloadCmd)
	rootCmd.AddCommand(applicationsCmd)
	rootCmd.AddCommand(prepCmd)
	rootCmd.AddCommand(subscriptionCmd)
	rootCmd.AddCommand(upgradeCmd)
	rootCmd.AddCommand(cancelCmd)
	rootCmd.AddCommand(versionCmd)
}
