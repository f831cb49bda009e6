package storage

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/quickshop-id/quickshop/internal/types"
)

// csvHeader is the flat review row layout shared by export and load.
var csvHeader = []string{
	"author", "rating", "text", "sentiment", "preprocessed", "positive_count", "negative_count",
}

// --- CSV Storage ---

// CSVStorage writes each snapshot's reviews to <dir>/<product>.csv.
type CSVStorage struct {
	dir    string
	mu     sync.Mutex
	count  int
	logger *slog.Logger
}

// NewCSVStorage creates a new CSV file storage.
func NewCSVStorage(outputDir string, logger *slog.Logger) (*CSVStorage, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	return &CSVStorage{dir: outputDir, logger: logger.With("component", "csv_storage")}, nil
}

func (s *CSVStorage) Name() string { return "csv" }

// Path returns the file a product's reviews are written to.
func (s *CSVStorage) Path(productName string) string {
	return filepath.Join(s.dir, FormatFilename(productName)+".csv")
}

func (s *CSVStorage) Store(_ context.Context, snap *types.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.Path(snap.ProductName)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	defer f.Close()

	if err := WriteCSV(f, snap.Reviews); err != nil {
		return err
	}
	s.count++
	s.logger.Info("CSV written", "path", path, "reviews", len(snap.Reviews))
	return nil
}

func (s *CSVStorage) Close() error {
	s.logger.Debug("csv storage closing", "snapshots", s.count)
	return nil
}

// WriteCSV writes reviews as flat rows with a header.
func WriteCSV(w io.Writer, reviews []*types.Review) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write CSV header: %w", err)
	}
	for _, r := range reviews {
		row := []string{
			r.Author,
			strconv.Itoa(r.Rating),
			r.Text,
			r.Sentiment.String(),
			r.Preprocessed,
			strconv.Itoa(r.PositiveCount),
			strconv.Itoa(r.NegativeCount),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write CSV row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadCSV parses rows written by WriteCSV. Columns are matched by header
// name so extra or reordered columns are tolerated; author, rating and
// text are required.
func ReadCSV(r io.Reader) ([]*types.Review, error) {
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read CSV header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, h := range header {
		col[h] = i
	}
	for _, required := range []string{"author", "rating", "text"} {
		if _, ok := col[required]; !ok {
			return nil, fmt.Errorf("CSV missing column %q", required)
		}
	}

	field := func(row []string, name string) string {
		if i, ok := col[name]; ok && i < len(row) {
			return row[i]
		}
		return ""
	}
	atoi := func(row []string, name string) int {
		n, _ := strconv.Atoi(field(row, name))
		return n
	}

	var reviews []*types.Review
	for line := 2; ; line++ {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read CSV line %d: %w", line, err)
		}
		review := &types.Review{
			Author:        field(row, "author"),
			Rating:        atoi(row, "rating"),
			Text:          field(row, "text"),
			Preprocessed:  field(row, "preprocessed"),
			PositiveCount: atoi(row, "positive_count"),
			NegativeCount: atoi(row, "negative_count"),
			Sentiment:     types.Neutral,
		}
		if l, ok := types.ParseLabel(field(row, "sentiment")); ok {
			review.Sentiment = l
		}
		reviews = append(reviews, review)
	}
	return reviews, nil
}

// LoadCSV reads a product's reviews back from <dir>/<product>.csv.
func LoadCSV(outputDir, productName string) ([]*types.Review, error) {
	path := filepath.Join(outputDir, FormatFilename(productName)+".csv")
	return LoadCSVFile(path)
}

// LoadCSVFile reads reviews from a CSV export.
func LoadCSVFile(path string) ([]*types.Review, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &types.StorageError{Backend: "csv", Err: err}
	}
	defer f.Close()

	reviews, err := ReadCSV(f)
	if err != nil {
		return nil, &types.StorageError{Backend: "csv", Err: fmt.Errorf("%s: %w", path, err)}
	}
	return reviews, nil
}

// --- JSON Storage ---

// JSONStorage writes each snapshot as an indented JSON document to
// <dir>/<product>.json.
type JSONStorage struct {
	dir    string
	mu     sync.Mutex
	logger *slog.Logger
}

// NewJSONStorage creates a new JSON file storage.
func NewJSONStorage(outputDir string, logger *slog.Logger) (*JSONStorage, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	return &JSONStorage{dir: outputDir, logger: logger.With("component", "json_storage")}, nil
}

func (s *JSONStorage) Name() string { return "json" }

func (s *JSONStorage) Store(_ context.Context, snap *types.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := filepath.Join(s.dir, FormatFilename(snap.ProductName)+".json")
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(snap); err != nil {
		return fmt.Errorf("encode JSON: %w", err)
	}

	s.logger.Info("JSON written", "path", path, "reviews", len(snap.Reviews))
	return nil
}

func (s *JSONStorage) Close() error { return nil }

// --- JSONL Storage ---

// JSONLStorage appends one snapshot per line to <dir>/snapshots.jsonl.
type JSONLStorage struct {
	path   string
	file   *os.File
	enc    *json.Encoder
	mu     sync.Mutex
	count  int
	logger *slog.Logger
}

// NewJSONLStorage opens (or creates) the JSONL snapshot log.
func NewJSONLStorage(outputDir string, logger *slog.Logger) (*JSONLStorage, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	path := filepath.Join(outputDir, "snapshots.jsonl")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open output file: %w", err)
	}

	return &JSONLStorage{
		path:   path,
		file:   f,
		enc:    json.NewEncoder(f),
		logger: logger.With("component", "jsonl_storage"),
	}, nil
}

func (s *JSONLStorage) Name() string { return "jsonl" }

func (s *JSONLStorage) Store(_ context.Context, snap *types.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.enc.Encode(snap); err != nil {
		return fmt.Errorf("encode JSONL: %w", err)
	}
	s.count++
	return nil
}

func (s *JSONLStorage) Close() error {
	s.logger.Info("JSONL written", "path", s.path, "snapshots", s.count)
	if s.file != nil {
		return s.file.Close()
	}
	return nil
}

// NewFileStorage creates the appropriate file-based storage by type.
func NewFileStorage(storageType, outputDir string, logger *slog.Logger) (Storage, error) {
	switch storageType {
	case "json":
		return NewJSONStorage(outputDir, logger)
	case "jsonl":
		return NewJSONLStorage(outputDir, logger)
	case "csv":
		return NewCSVStorage(outputDir, logger)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", storageType)
	}
}
