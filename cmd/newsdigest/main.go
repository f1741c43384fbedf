// Command newsdigest scrapes a blog or news site and turns its latest
// articles into an LLM-written digest.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/pevans/newsdigest/config"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// verbose enables debug logging for all commands.
	verbose bool

	// envFile is an extra .env file loaded before the default one.
	envFile string

	rootCmd = &cobra.Command{
		Use:   "newsdigest",
		Short: "Summarise the latest articles of a website",
		Long: `newsdigest scrapes a blog or news site, extracts its latest articles and
asks a language model for a headline, a combined summary and one short
summary per article.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
)

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "additional .env file to load")

	rootCmd.AddCommand(newGenerateCommand())
	rootCmd.AddCommand(newServeCommand())
	rootCmd.AddCommand(newHistoryCommand())
	rootCmd.AddCommand(newStylesCommand())
	rootCmd.AddCommand(newInitCommand())
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig resolves configuration with precedence:
// 1. Command-line flags (applied by each command)
// 2. Environment variables and .env files
// 3. Configuration file (~/.newsdigest/config.yaml)
// 4. Default values
func loadConfig() (*config.Config, error) {
	file, err := config.LoadConfigFile()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to load config file: %v\n", err)
		fmt.Fprintf(os.Stderr, "Continuing with defaults and environment variables...\n\n")
		file = nil
	}

	paths := []string{".env"}
	if envFile != "" {
		paths = append([]string{envFile}, paths...)
	}
	if err := config.LoadEnvFiles(paths...); err != nil {
		return nil, err
	}

	return config.Resolve(file)
}

// newLogger writes console logs to stderr; only warnings and errors unless
// verbose is set.
func newLogger() (*zap.Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	cfg.DisableStacktrace = true
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	if !verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	}
	return cfg.Build()
}
