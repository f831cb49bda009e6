package sentiment

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

func TestPreprocess(t *testing.T) {
	p := NewPreprocessor(false, "", testLogger)

	tests := []struct {
		in, want string
	}{
		{"Barangnya BAGUS bgt!!! 😍", "barangnya bagus banget senang"},
		{"gk sesuai, tdk recommended 👎", "tidak sesuai tidak recommended jelek"},
		{"okkk mantappp", "oke mantap"},
		{"harga ok, pengiriman cepat.", "harga oke pengiriman cepat"},
		{"   ", ""},
		{"kualitas_top 100%", "kualitas_top 100"},
	}
	for _, tt := range tests {
		if got := p.Process(tt.in); got != tt.want {
			t.Errorf("Process(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestPreprocessSlangIsWholeWord(t *testing.T) {
	p := NewPreprocessor(false, "", testLogger)

	// "ga" inside "harga" and "ok" inside "bokeh" must survive.
	got := p.Process("harga bokeh")
	if got != "harga bokeh" {
		t.Errorf("got %q", got)
	}
}

func TestPreprocessIdempotent(t *testing.T) {
	p := NewPreprocessor(true, "", testLogger)

	inputs := []string{
		"Barangnya BAGUS bgt!!! 😍😍😍",
		"yg dijual sdh sesuai, krn ok bgttt",
		"Pengirimannya lamaaaa bgt... kecewa 😡",
		"❤️ mantul!!",
	}
	for _, in := range inputs {
		once := p.Process(in)
		twice := p.Process(once)
		if once != twice {
			t.Errorf("not idempotent for %q: %q then %q", in, once, twice)
		}
	}
}

func TestPreprocessStopwords(t *testing.T) {
	p := NewPreprocessor(true, "", testLogger)

	got := p.Process("barang yang sangat bagus dan tidak mahal")
	want := "barang bagus tidak mahal"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestPreprocessStopwordsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stop.txt")
	if err := os.WriteFile(path, []byte("# custom\nbarang\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	p := NewPreprocessor(true, path, testLogger)
	if got := p.Process("barang yang bagus"); got != "yang bagus" {
		t.Errorf("got %q", got)
	}
}

func TestPreprocessMissingStopwordsFileFallsBack(t *testing.T) {
	p := NewPreprocessor(true, filepath.Join(t.TempDir(), "missing.txt"), testLogger)
	if got := p.Process("barang yang bagus"); got != "barang bagus" {
		t.Errorf("got %q", got)
	}
}
