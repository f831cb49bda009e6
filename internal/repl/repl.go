// Package repl is the interactive QuickShop shell: analyse a product, then
// ask questions about it.
package repl

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/quickshop-id/quickshop/internal/ai"
	"github.com/quickshop-id/quickshop/internal/analysis"
	"github.com/quickshop-id/quickshop/internal/sentiment"
	"github.com/quickshop-id/quickshop/internal/storage"
	"github.com/quickshop-id/quickshop/internal/types"
)

// Runner analyses products. *analysis.Runner implements it.
type Runner interface {
	Analyze(ctx context.Context, req analysis.Request, report types.Reporter) (*types.Snapshot, error)
	Reanalyze(ctx context.Context, productName, description string, reviews []*types.Review, report types.Reporter) (*types.Snapshot, error)
}

// Chatter answers product questions. *ai.Advisor implements it.
type Chatter interface {
	Chat(ctx context.Context, question string, snap *types.Snapshot) string
}

// Turn is one line of the chat history.
type Turn struct {
	Role    string
	Content string
}

// REPL provides an interactive command-line interface for QuickShop.
type REPL struct {
	runner   Runner
	chatter  Chatter
	defaults analysis.Request
	logger   *slog.Logger
	in       *bufio.Reader
	out      io.Writer

	current *types.Snapshot
	history []Turn
}

// New creates a new REPL instance. chatter may be nil when Ollama is not
// available.
func New(runner Runner, chatter Chatter, defaults analysis.Request, in io.Reader, out io.Writer, logger *slog.Logger) *REPL {
	return &REPL{
		runner:   runner,
		chatter:  chatter,
		defaults: defaults,
		logger:   logger.With("component", "repl"),
		in:       bufio.NewReader(in),
		out:      out,
	}
}

// Current returns the product being discussed, or nil.
func (r *REPL) Current() *types.Snapshot { return r.current }

// History returns the chat history for the current product.
func (r *REPL) History() []Turn { return r.history }

// SetProduct makes snap the product under discussion and clears the chat
// history.
func (r *REPL) SetProduct(snap *types.Snapshot) {
	r.current = snap
	r.history = nil
}

// Start begins the interactive loop. It returns when the input ends, on
// "exit", or when ctx is cancelled.
func (r *REPL) Start(ctx context.Context) {
	r.println("🛍️  QuickShop")
	r.println("   Ketik 'help' untuk daftar perintah, 'exit' untuk keluar.")
	r.println("")

	for ctx.Err() == nil {
		fmt.Fprint(r.out, "quickshop> ")
		line, err := r.in.ReadString('\n')
		if err != nil && line == "" {
			return
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		cmd, rest, _ := strings.Cut(line, " ")
		rest = strings.TrimSpace(rest)

		switch cmd {
		case "help", "?":
			r.printHelp()
		case "exit", "quit", "q":
			r.println("Sampai jumpa! 👋")
			return
		case "analyze", "a":
			r.cmdAnalyze(ctx, rest)
		case "load":
			r.cmdLoad(ctx, rest)
		case "summary":
			r.cmdSummary()
		case "reviews":
			r.cmdReviews(rest)
		case "words":
			r.cmdWords()
		case "ask":
			r.cmdAsk(ctx, rest)
		case "history":
			r.cmdHistory()
		case "reset":
			r.history = nil
			r.println("Riwayat chat dihapus.")
		case "clear":
			fmt.Fprint(r.out, "\033[H\033[2J")
		default:
			if r.current != nil {
				r.cmdAsk(ctx, line)
				continue
			}
			r.printf("Perintah tidak dikenal: %s. Ketik 'help' untuk bantuan.\n", cmd)
		}
	}
}

func (r *REPL) printHelp() {
	r.println(`
Perintah:
  analyze <url> [max]   Scrape dan analisis ulasan produk Tokopedia
  load <file.csv>       Analisis ulang ulasan dari ekspor CSV
  summary               Ringkasan sentimen dan kesimpulan
  reviews [n]           Tampilkan n ulasan pertama
  words                 Kata yang paling sering muncul

  ask <pertanyaan>      Tanya tentang produk (teks biasa juga bisa)
  history               Riwayat chat
  reset                 Hapus riwayat chat

  clear                 Bersihkan layar
  help                  Tampilkan bantuan ini
  exit                  Keluar`)
}

func (r *REPL) cmdAnalyze(ctx context.Context, args string) {
	fields := strings.Fields(args)
	if len(fields) == 0 {
		r.println("Penggunaan: analyze <url> [max]")
		return
	}

	req := r.defaults
	req.URL = fields[0]
	if len(fields) > 1 {
		n, err := strconv.Atoi(fields[1])
		if err != nil || n < 1 {
			r.println("Jumlah ulasan harus bilangan positif.")
			return
		}
		req.MaxReviews = n
	}

	snap, err := r.runner.Analyze(ctx, req, r.report)
	if err != nil {
		r.printf("❌ Gagal melakukan analisis: %v\n", err)
		return
	}
	r.SetProduct(snap)
	r.cmdSummary()
}

func (r *REPL) cmdLoad(ctx context.Context, path string) {
	if path == "" {
		r.println("Penggunaan: load <file.csv>")
		return
	}
	reviews, err := storage.LoadCSVFile(path)
	if err != nil {
		r.printf("❌ Gagal memuat data produk: %v\n", err)
		return
	}

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	name = strings.ReplaceAll(name, "_", " ")
	snap, err := r.runner.Reanalyze(ctx, name, "", reviews, r.report)
	if err != nil {
		r.printf("❌ Gagal melakukan analisis: %v\n", err)
		return
	}
	r.SetProduct(snap)
	r.cmdSummary()
}

func (r *REPL) cmdSummary() {
	if !r.requireProduct() {
		return
	}
	s := r.current
	pct := sentiment.SharePercentages(s.Counts)

	r.printf("\n🏷️  %s\n", s.ProductName)
	if s.Description != "" {
		r.printf("%s\n", truncate(s.Description, 300))
	}
	r.printf("\n%s\n", strings.ReplaceAll(s.Summary, "**", ""))
	r.printf("   Positif %.1f%% · Netral %.1f%% · Negatif %.1f%%\n", pct.Positive, pct.Neutral, pct.Negative)
	if s.Degraded {
		r.println("   ⚠️ Model sentimen tidak tersedia, label berasal dari rating dan kata kunci.")
	}
	r.printf("\n🔍 Kesimpulan AI\n%s\n\n", ai.PlainText(s.Conclusion))
}

func (r *REPL) cmdReviews(args string) {
	if !r.requireProduct() {
		return
	}
	n := 10
	if args != "" {
		if v, err := strconv.Atoi(args); err == nil && v > 0 {
			n = v
		}
	}
	for i, rv := range r.current.Reviews {
		if i >= n {
			r.printf("  ... dan %d ulasan lainnya\n", len(r.current.Reviews)-n)
			break
		}
		r.printf("  [%d] %s (%d/5, %s): %s\n", i+1, rv.Author, rv.Rating, rv.Sentiment, truncate(rv.Text, 120))
	}
}

func (r *REPL) cmdWords() {
	if !r.requireProduct() {
		return
	}
	for _, w := range r.current.WordFrequencies {
		r.printf("  %-20s %d\n", w.Word, w.Count)
	}
}

func (r *REPL) cmdAsk(ctx context.Context, question string) {
	if question == "" {
		r.println("Penggunaan: ask <pertanyaan>")
		return
	}
	if !r.requireProduct() {
		return
	}
	if r.chatter == nil {
		r.println("⚠️ " + ai.ChatUnavailable)
		return
	}

	r.history = append(r.history, Turn{Role: "user", Content: question})
	answer := r.chatter.Chat(ctx, question, r.current)
	r.history = append(r.history, Turn{Role: "assistant", Content: answer})
	r.printf("\n%s\n\n", ai.PlainText(answer))
}

func (r *REPL) cmdHistory() {
	if len(r.history) == 0 {
		r.println("Belum ada percakapan.")
		return
	}
	for _, t := range r.history {
		who := "Anda"
		if t.Role == "assistant" {
			who = "QuickShop"
		}
		r.printf("%s: %s\n", who, t.Content)
	}
}

func (r *REPL) requireProduct() bool {
	if r.current == nil {
		r.println("Belum ada produk. Gunakan 'analyze <url>' terlebih dahulu.")
		return false
	}
	return true
}

func (r *REPL) report(ev types.StatusEvent) {
	if m, ok := ev.(types.Message); ok {
		r.println("  " + m.Text)
	}
}

func (r *REPL) println(s string) { fmt.Fprintln(r.out, s) }

func (r *REPL) printf(format string, args ...any) { fmt.Fprintf(r.out, format, args...) }

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
