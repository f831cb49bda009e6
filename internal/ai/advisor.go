package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"text/template"
	"time"

	"github.com/quickshop-id/quickshop/internal/observability"
	"github.com/quickshop-id/quickshop/internal/types"
)

// Fallback texts returned instead of errors.
const (
	ConclusionRejected    = "Tidak dapat menghasilkan kesimpulan. Silakan periksa ulasan produk secara manual."
	ConclusionSystemError = "Tidak dapat menghasilkan kesimpulan karena error sistem."
	ChatRejected          = "Maaf, saya tidak dapat menjawab pertanyaan Anda saat ini. Silakan coba lagi nanti."
	ChatSystemError       = "Maaf, terjadi kesalahan saat memproses pertanyaan Anda."

	// UnavailableConclusion is stored when Ollama was not set up.
	UnavailableConclusion = "Untuk mendapatkan kesimpulan produk otomatis, pastikan Ollama tersedia dan berjalan."
	// ChatUnavailable is shown when chat is attempted without Ollama.
	ChatUnavailable = "Chatbot membutuhkan Ollama untuk berfungsi. Pastikan Ollama tersedia dan model bahasa Indonesia sudah diunduh."
)

var (
	conclusionOptions = Options{Temperature: 0.7, TopP: 0.9, TopK: 40}
	chatOptions       = Options{Temperature: 0.8, TopP: 0.9, TopK: 40}
)

const maxSampleReviews = 5

const conclusionPrompt = "System: Kamu adalah asisten yang memberikan kesimpulan produk secara ringkas, objektif, dan alami berdasarkan data deskripsi dan sentimen.\n" +
	"User: Buatkan kesimpulan apakah produk ini bagus dan worth it atau tidak, dengan gaya bahasa alami dan manusiawi. " +
	"Gunakan informasi dari deskripsi dan ringkasan sentimen berikut.\n\n" +
	"Deskripsi produk:\n%s\n\n" +
	"Ringkasan sentimen:\n%s\n\n" +
	"Berikan kesimpulan 3-5 kalimat, dengan bahasa Indonesia yang baik dan benar.\n\n" +
	"Kesimpulan:"

var chatTemplate = template.Must(template.New("chat").
	Funcs(template.FuncMap{"inc": func(i int) int { return i + 1 }}).
	Parse(`
Kamu adalah asisten AI untuk aplikasi QuickShop yang membantu pengguna mendapatkan informasi dan rekomendasi produk.
Kamu akan menjawab pertanyaan tentang produk: {{.ProductName}}.

Berikut adalah informasi yang kamu punya tentang produk:
1. Deskripsi produk: {{.Description}}
2. Jumlah ulasan: {{.ReviewCount}}
3. Sentimen: {{.Counts.Positive}} positif, {{.Counts.Neutral}} netral, {{.Counts.Negative}} negatif
4. Kesimpulan: {{.Conclusion}}

Berikut beberapa ulasan dari pengguna:
{{range $i, $r := .Samples}}{{inc $i}}. {{$r.Author}}: "{{$r.Text}}" (Rating: {{$r.Rating}}/5, Sentimen: {{$r.Sentiment}})
{{end}}
Jawab pertanyaan pengguna dengan sopan, ringkas, dan berikan rekomendasi yang tepat berdasarkan informasi di atas.
Pertanyaan: {{.Question}}
`))

// Generator produces text for a prompt. *OllamaClient implements it.
type Generator interface {
	Generate(ctx context.Context, prompt string, opts Options) (string, error)
}

// Advisor writes conclusions and chat answers. It never returns an error:
// failures become the fixed fallback texts.
type Advisor struct {
	gen     Generator
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewAdvisor creates an Advisor.
func NewAdvisor(gen Generator, metrics *observability.Metrics, logger *slog.Logger) *Advisor {
	return &Advisor{
		gen:     gen,
		metrics: metrics,
		logger:  logger.With("component", "advisor"),
	}
}

// Conclusion asks the model whether the product is worth buying.
func (a *Advisor) Conclusion(ctx context.Context, description, summary string) string {
	prompt := fmt.Sprintf(conclusionPrompt, description, summary)
	return a.generate(ctx, "conclusion", prompt, conclusionOptions, ConclusionRejected, ConclusionSystemError)
}

// Chat answers a question about an analysed product.
func (a *Advisor) Chat(ctx context.Context, question string, snap *types.Snapshot) string {
	prompt, err := ChatPrompt(question, snap)
	if err != nil {
		a.logger.Error("failed to build chat prompt", "error", err)
		return ChatSystemError
	}
	return a.generate(ctx, "chat", prompt, chatOptions, ChatRejected, ChatSystemError)
}

func (a *Advisor) generate(ctx context.Context, kind, prompt string, opts Options, rejected, broken string) string {
	start := time.Now()
	text, err := a.gen.Generate(ctx, prompt, opts)
	if err == nil {
		a.metrics.ObserveLLM(kind, "ok", time.Since(start))
		return text
	}

	var llmErr *types.LLMError
	if errors.As(err, &llmErr) && llmErr.StatusCode > 0 {
		a.metrics.ObserveLLM(kind, "rejected", time.Since(start))
		a.logger.Error("generation rejected", "kind", kind, "status", llmErr.StatusCode, "error", llmErr.Err)
		return rejected
	}
	a.metrics.ObserveLLM(kind, "error", time.Since(start))
	a.logger.Error("generation failed", "kind", kind, "error", err)
	return broken
}

type chatData struct {
	ProductName string
	Description string
	ReviewCount int
	Counts      types.SentimentCounts
	Conclusion  string
	Samples     []*types.Review
	Question    string
}

// ChatPrompt renders the chat prompt for snap, including up to five
// sample reviews.
func ChatPrompt(question string, snap *types.Snapshot) (string, error) {
	data := chatData{
		ProductName: orDefault(snap.ProductName, "Produk tidak diketahui"),
		Description: orDefault(snap.Description, "Deskripsi tidak tersedia"),
		ReviewCount: len(snap.Reviews),
		Counts:      snap.Counts,
		Conclusion:  orDefault(snap.Conclusion, "Kesimpulan tidak tersedia"),
		Samples:     snap.Reviews,
		Question:    question,
	}
	if len(data.Samples) > maxSampleReviews {
		data.Samples = data.Samples[:maxSampleReviews]
	}

	var b strings.Builder
	if err := chatTemplate.Execute(&b, data); err != nil {
		return "", err
	}
	return b.String(), nil
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
