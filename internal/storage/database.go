package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	_ "modernc.org/sqlite"

	"github.com/quickshop-id/quickshop/internal/types"
)

// MongoStorage writes snapshots to a MongoDB collection.
type MongoStorage struct {
	client     *mongo.Client
	collection *mongo.Collection
	mu         sync.Mutex
	count      int
	logger     *slog.Logger
}

// NewMongoStorage connects to MongoDB and pings it.
func NewMongoStorage(ctx context.Context, uri, database, collection string, logger *slog.Logger) (*MongoStorage, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongodb connect: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongodb ping: %w", err)
	}

	return &MongoStorage{
		client:     client,
		collection: client.Database(database).Collection(collection),
		logger:     logger.With("component", "mongo_storage"),
	}, nil
}

func (s *MongoStorage) Name() string { return "mongodb" }

func (s *MongoStorage) Store(ctx context.Context, snap *types.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if _, err := s.collection.InsertOne(ctx, snap); err != nil {
		return fmt.Errorf("mongodb insert: %w", err)
	}

	s.count++
	s.logger.Debug("snapshot stored in mongodb", "product", snap.ProductName, "reviews", len(snap.Reviews))
	return nil
}

func (s *MongoStorage) Close() error {
	s.logger.Info("mongodb storage closing", "total_snapshots", s.count)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// --- SQLite Storage ---

// SQLiteStorage keeps products and their flat review rows in a local
// SQLite database.
type SQLiteStorage struct {
	db     *sql.DB
	mu     sync.Mutex
	logger *slog.Logger
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS products (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	url TEXT NOT NULL,
	product_name TEXT NOT NULL,
	description TEXT,
	positive INTEGER NOT NULL DEFAULT 0,
	neutral INTEGER NOT NULL DEFAULT 0,
	negative INTEGER NOT NULL DEFAULT 0,
	conclusion TEXT,
	degraded INTEGER NOT NULL DEFAULT 0,
	scraped_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS reviews (
	product_id INTEGER NOT NULL REFERENCES products(id),
	position INTEGER NOT NULL,
	author TEXT NOT NULL,
	rating INTEGER NOT NULL,
	text TEXT NOT NULL,
	sentiment TEXT NOT NULL,
	preprocessed TEXT,
	positive_count INTEGER NOT NULL DEFAULT 0,
	negative_count INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (product_id, position)
);

CREATE INDEX IF NOT EXISTS idx_products_url ON products(url);
`

// NewSQLiteStorage opens the database at path and creates the schema.
func NewSQLiteStorage(path string, logger *slog.Logger) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return &SQLiteStorage{db: db, logger: logger.With("component", "sqlite_storage")}, nil
}

func (s *SQLiteStorage) Name() string { return "sqlite" }

func (s *SQLiteStorage) Store(ctx context.Context, snap *types.Snapshot) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO products (url, product_name, description, positive, neutral, negative, conclusion, degraded, scraped_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		snap.URL, snap.ProductName, snap.Description,
		snap.Counts.Positive, snap.Counts.Neutral, snap.Counts.Negative,
		snap.Conclusion, snap.Degraded, snap.ScrapedAt,
	)
	if err != nil {
		return fmt.Errorf("insert product: %w", err)
	}
	productID, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("product id: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO reviews (product_id, position, author, rating, text, sentiment, preprocessed, positive_count, negative_count)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare review insert: %w", err)
	}
	defer stmt.Close()

	for i, r := range snap.Reviews {
		if _, err = stmt.ExecContext(ctx, productID, i, r.Author, r.Rating, r.Text,
			r.Sentiment.String(), r.Preprocessed, r.PositiveCount, r.NegativeCount); err != nil {
			return fmt.Errorf("insert review %d: %w", i, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	s.logger.Debug("snapshot stored in sqlite", "product_id", productID, "reviews", len(snap.Reviews))
	return nil
}

// LatestReviews returns the reviews of the most recent snapshot for url.
func (s *SQLiteStorage) LatestReviews(ctx context.Context, url string) ([]*types.Review, error) {
	var productID int64
	err := s.db.QueryRowContext(ctx,
		`SELECT id FROM products WHERE url = ? ORDER BY id DESC LIMIT 1`, url).Scan(&productID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find product: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT author, rating, text, sentiment, preprocessed, positive_count, negative_count
		FROM reviews WHERE product_id = ? ORDER BY position`, productID)
	if err != nil {
		return nil, fmt.Errorf("query reviews: %w", err)
	}
	defer rows.Close()

	var reviews []*types.Review
	for rows.Next() {
		var (
			r         types.Review
			sentiment string
			pre       sql.NullString
		)
		if err := rows.Scan(&r.Author, &r.Rating, &r.Text, &sentiment, &pre, &r.PositiveCount, &r.NegativeCount); err != nil {
			return nil, fmt.Errorf("scan review: %w", err)
		}
		r.Preprocessed = pre.String
		r.Sentiment, _ = types.ParseLabel(sentiment)
		reviews = append(reviews, &r)
	}
	return reviews, rows.Err()
}

func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// --- Multi-Storage Fan-Out ---

// MultiStorage writes snapshots to multiple backends.
type MultiStorage struct {
	backends []Storage
	logger   *slog.Logger
}

// NewMultiStorage creates a storage that fans out to multiple backends.
func NewMultiStorage(backends []Storage, logger *slog.Logger) *MultiStorage {
	return &MultiStorage{
		backends: backends,
		logger:   logger.With("component", "multi_storage"),
	}
}

func (s *MultiStorage) Name() string { return "multi" }

// Store writes to every backend and returns the first failure.
func (s *MultiStorage) Store(ctx context.Context, snap *types.Snapshot) error {
	var firstErr error
	for _, backend := range s.backends {
		if err := backend.Store(ctx, snap); err != nil {
			s.logger.Error("backend store failed", "backend", backend.Name(), "error", err)
			if firstErr == nil {
				firstErr = &types.StorageError{Backend: backend.Name(), Err: err}
			}
		}
	}
	return firstErr
}

func (s *MultiStorage) Close() error {
	var firstErr error
	for _, backend := range s.backends {
		if err := backend.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Backends returns the wrapped backends.
func (s *MultiStorage) Backends() []Storage { return s.backends }
