package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/quickshop-id/quickshop/internal/ai"
	"github.com/quickshop-id/quickshop/internal/api"
	"github.com/quickshop-id/quickshop/internal/repl"
	"github.com/quickshop-id/quickshop/internal/sentiment"
	"github.com/quickshop-id/quickshop/internal/storage"
	"github.com/quickshop-id/quickshop/internal/types"
	"github.com/quickshop-id/quickshop/pkg/quickshop"
)

var (
	maxReviews int
	showWindow bool
	refresh    bool
	fromCSV    string
	outputDir  string
	backend    string
	port       int
)

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

// analyzeCmd creates the "analyze" subcommand.
func analyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze [url]",
		Short: "Scrape and analyse a product's reviews",
		Long: `Scrape the reviews of a Tokopedia product, classify them and print the
summary and conclusion. With --from-csv the reviews are read from an earlier
export instead of the browser.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runAnalyze,
	}

	cmd.Flags().IntVarP(&maxReviews, "max", "m", 0, "maximum reviews to collect (0 = config default)")
	cmd.Flags().BoolVar(&showWindow, "show-browser", false, "run the browser with a visible window")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "ignore the snapshot cache")
	cmd.Flags().StringVar(&fromCSV, "from-csv", "", "reanalyse reviews from a CSV export")
	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "output directory")
	cmd.Flags().StringVar(&backend, "backend", "", "sentiment backend: onnx, remote, vader")

	return cmd
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	if fromCSV == "" && len(args) == 0 {
		return errors.New("a product URL or --from-csv is required")
	}

	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	if outputDir != "" {
		cfg.Storage.OutputDir = outputDir
	}
	if backend != "" {
		cfg.Sentiment.Backend = strings.ToLower(backend)
	}

	ctx, stop := signalContext()
	defer stop()

	client, err := quickshop.NewFromConfig(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer client.Close()

	out := cmd.OutOrStdout()
	report := types.Reporter(func(ev types.StatusEvent) {
		switch e := ev.(type) {
		case types.Message:
			fmt.Fprintln(out, e.Text)
		case types.Progress:
			logger.Debug("progress", "fraction", e.Fraction)
		}
	})

	start := time.Now()
	var snap *types.Snapshot
	if fromCSV != "" {
		reviews, err := storage.LoadCSVFile(fromCSV)
		if err != nil {
			return err
		}
		name := strings.TrimSuffix(filepath.Base(fromCSV), filepath.Ext(fromCSV))
		snap, err = client.Reanalyze(ctx, strings.ReplaceAll(name, "_", " "), "", reviews, report)
		if err != nil {
			return err
		}
	} else {
		req := client.Defaults()
		req.URL = args[0]
		req.Refresh = refresh
		if maxReviews > 0 {
			req.MaxReviews = maxReviews
		}
		if showWindow {
			req.Headless = false
		}
		snap, err = client.Analyze(ctx, req, report)
		if err != nil {
			return err
		}
	}

	printSnapshot(out, snap)
	logger.Info("analysis complete",
		"product", snap.ProductName,
		"reviews", len(snap.Reviews),
		"elapsed", time.Since(start).Round(time.Millisecond),
	)
	return nil
}

func printSnapshot(out io.Writer, snap *types.Snapshot) {
	pct := sentiment.SharePercentages(snap.Counts)
	fmt.Fprintf(out, "\n📦 %s\n", snap.ProductName)
	fmt.Fprintf(out, "   Ulasan:  %d\n", len(snap.Reviews))
	fmt.Fprintf(out, "   Positif: %.1f%%  Netral: %.1f%%  Negatif: %.1f%%\n\n", pct.Positive, pct.Neutral, pct.Negative)
	fmt.Fprintln(out, strings.ReplaceAll(snap.Summary, "**", ""))
	if snap.Degraded {
		fmt.Fprintln(out, "\n⚠️  Model sentimen tidak tersedia, label dihitung dari aturan saja.")
	}
	fmt.Fprintf(out, "\n💡 Kesimpulan:\n%s\n", ai.PlainText(snap.Conclusion))
}

// chatCmd creates the "chat" subcommand.
func chatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Start the interactive product chat",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}

			ctx, stop := signalContext()
			defer stop()

			client, err := quickshop.NewFromConfig(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer client.Close()

			var chatter repl.Chatter
			if adv := client.Advisor(); adv != nil {
				chatter = adv
			}
			repl.New(client.Runner(), chatter, client.Defaults(), os.Stdin, cmd.OutOrStdout(), logger).Start(ctx)
			return nil
		},
	}
}

// serveCmd creates the "serve" subcommand.
func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}
			if port > 0 {
				cfg.API.Port = port
			}

			ctx, stop := signalContext()
			defer stop()

			client, err := quickshop.NewFromConfig(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer client.Close()

			var chatter api.Chatter
			if adv := client.Advisor(); adv != nil {
				chatter = adv
			}
			srv := api.NewServer(client.Runner(), chatter, api.Options{
				Port:        cfg.API.Port,
				Domain:      cfg.Scraper.Domain,
				Defaults:    client.Defaults(),
				Metrics:     client.MetricsHandler(),
				MetricsPath: cfg.Metrics.Path,
			}, logger)
			if err := srv.Start(); err != nil {
				return err
			}

			<-ctx.Done()
			logger.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}
	cmd.Flags().IntVarP(&port, "port", "p", 0, "listen port (0 = config default)")
	return cmd
}

// ollamaSetupCmd checks Ollama and pulls the configured model.
func ollamaSetupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ollama-setup",
		Short: "Check Ollama and download the chat model",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}

			ctx, stop := signalContext()
			defer stop()

			client := ai.NewOllamaClient(cfg.AI, &http.Client{Timeout: cfg.AI.Timeout}, logger)
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "🔍 Memeriksa Ollama di %s ...\n", cfg.AI.Endpoint)
			if err := client.Setup(ctx, true); err != nil {
				fmt.Fprintln(out, "❌ Ollama tidak siap. Jalankan 'ollama serve' lalu coba lagi.")
				return err
			}
			fmt.Fprintf(out, "✅ Model %s siap digunakan.\n", client.Model())
			return nil
		},
	}
}
