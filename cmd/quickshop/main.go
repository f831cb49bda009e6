package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/quickshop-id/quickshop/internal/config"
	"github.com/quickshop-id/quickshop/internal/observability"
)

var (
	cfgFile string
	envFile string
	verbose bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "quickshop",
		Short: "QuickShop: Tokopedia review analyser",
		Long: `QuickShop scrapes the reviews of a Tokopedia product, classifies their
sentiment and summarises them with a local Ollama model.

Features:
  • Stealth headless browser with condition-based waits
  • Indonesian text normalisation and rule-based sentiment correction
  • ONNX, remote or VADER sentiment backends
  • Ollama product conclusions and chat
  • CSV, JSON, JSONL, MongoDB and SQLite exports
  • HTTP API with Prometheus metrics`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before the config")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(analyzeCmd())
	rootCmd.AddCommand(chatCmd())
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(ollamaSetupCmd())
	rootCmd.AddCommand(configCmd())
	rootCmd.AddCommand(versionCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig reads .env, the config file and the environment, then builds
// the logger from the result.
func loadConfig() (*config.Config, *slog.Logger, error) {
	if err := config.LoadEnv(envFile); err != nil {
		return nil, nil, err
	}
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, setupLogger(cfg.Logging), nil
}

// setupLogger creates a structured logger.
func setupLogger(cfg config.LoggingConfig) *slog.Logger {
	level := observability.ParseLevel(cfg.Level)
	if verbose {
		level = slog.LevelDebug
	}
	return observability.NewLogger(os.Stderr, cfg.Format, level)
}

// versionCmd creates the "version" subcommand.
func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("QuickShop %s\n", config.Version)
		},
	}
}

// configCmd prints the effective configuration as YAML.
func configCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig()
			if err != nil {
				return err
			}
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			defer enc.Close()
			return enc.Encode(cfg)
		},
	}
}
