package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/ragdesk/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/ragdesk/internal/core/domain"
	"github.com/custodia-labs/ragdesk/internal/core/ports/driven"
)

// DatabaseFile is the file name created inside the data directory.
const DatabaseFile = "index.db"

// Ensure Store implements the interface.
var _ driven.CollectionStore = (*Store)(nil)

// Store is a SQLite-based collection store.
type Store struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.ragdesk/data/index.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".ragdesk", "data")
	}

	// Ensure directory exists
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, DatabaseFile)

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
		now:  func() time.Time { return time.Now().UTC() },
	}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// "001_init.up.sql" -> 1
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
	}

	return nil
}

// ==================== Collection Store ====================

// Open returns the named collection, creating it if needed.
func (s *Store) Open(ctx context.Context, info domain.CollectionInfo) (driven.Collection, error) {
	if info.Name == "" {
		return nil, fmt.Errorf("%w: collection name is required", domain.ErrInvalidInput)
	}
	if info.Dimensions <= 0 {
		return nil, fmt.Errorf("%w: collection dimensions must be positive", domain.ErrInvalidInput)
	}

	existing, err := s.Get(ctx, info.Name)
	switch {
	case err == nil:
		if existing.Dimensions != info.Dimensions {
			return nil, fmt.Errorf("%w: collection %s has %d dimensions, got %d",
				domain.ErrDimensionMismatch, info.Name, existing.Dimensions, info.Dimensions)
		}
		return &collection{store: s, name: existing.Name, dims: existing.Dimensions}, nil
	case !errors.Is(err, domain.ErrNotFound):
		return nil, err
	}

	docs, err := json.Marshal(nonNil(info.Documents))
	if err != nil {
		return nil, fmt.Errorf("marshalling documents: %w", err)
	}

	createdAt := info.CreatedAt
	if createdAt.IsZero() {
		createdAt = s.now()
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO collections (name, embedding_model, dimensions, documents, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(name) DO NOTHING
	`, info.Name, info.EmbeddingModel, info.Dimensions, string(docs), createdAt)
	if err != nil {
		return nil, fmt.Errorf("creating collection: %w", err)
	}

	return &collection{store: s, name: info.Name, dims: info.Dimensions}, nil
}

// OpenExisting returns a stored collection. Nothing is written.
func (s *Store) OpenExisting(ctx context.Context, name string) (driven.Collection, error) {
	info, err := s.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	return &collection{store: s, name: info.Name, dims: info.Dimensions}, nil
}

// Get returns stored information for a collection.
func (s *Store) Get(ctx context.Context, name string) (*domain.CollectionInfo, error) {
	row := s.db.QueryRowContext(ctx, collectionQuery+` WHERE c.name = ? GROUP BY c.name`, name)
	return scanCollection(row)
}

// List returns all collections, most recently created first.
func (s *Store) List(ctx context.Context) ([]domain.CollectionInfo, error) {
	rows, err := s.db.QueryContext(ctx, collectionQuery+` GROUP BY c.name ORDER BY c.created_at DESC, c.name`)
	if err != nil {
		return nil, fmt.Errorf("querying collections: %w", err)
	}
	defer rows.Close()

	var infos []domain.CollectionInfo
	for rows.Next() {
		info, err := scanCollection(rows)
		if err != nil {
			return nil, err
		}
		infos = append(infos, *info)
	}
	return infos, rows.Err()
}

// Latest returns the most recently completed collection.
func (s *Store) Latest(ctx context.Context) (*domain.CollectionInfo, error) {
	row := s.db.QueryRowContext(ctx, collectionQuery+`
		WHERE c.completed_at IS NOT NULL
		GROUP BY c.name
		ORDER BY c.completed_at DESC, c.name
		LIMIT 1`)
	return scanCollection(row)
}

// MarkCompleted records that an ingestion run completed.
func (s *Store) MarkCompleted(ctx context.Context, name string) error {
	result, err := s.db.ExecContext(ctx, `UPDATE collections SET completed_at = ? WHERE name = ?`, s.now(), name)
	if err != nil {
		return fmt.Errorf("marking collection completed: %w", err)
	}
	return requireRow(result)
}

// Delete removes a collection and its entries.
func (s *Store) Delete(ctx context.Context, name string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM collections WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("deleting collection: %w", err)
	}
	return requireRow(result)
}

const collectionQuery = `
	SELECT c.name, c.embedding_model, c.dimensions, c.documents, c.created_at, c.completed_at, COUNT(k.seq)
	FROM collections c
	LEFT JOIN chunks k ON k.collection = c.name`

// ==================== Collection ====================

// collection implements driven.Collection.
type collection struct {
	store *Store
	name  string
	dims  int
}

var _ driven.Collection = (*collection)(nil)

func (c *collection) Name() string    { return c.name }
func (c *collection) Dimensions() int { return c.dims }

// Upsert inserts or replaces an entry. The sequence column is untouched on
// conflict, so a replaced entry keeps its position.
func (c *collection) Upsert(ctx context.Context, entry driven.VectorEntry) error {
	if entry.ID == "" {
		return fmt.Errorf("%w: entry id is required", domain.ErrInvalidInput)
	}
	if len(entry.Vector) != c.dims {
		return fmt.Errorf("%w: entry %s has %d dimensions, collection %s has %d",
			domain.ErrDimensionMismatch, entry.ID, len(entry.Vector), c.name, c.dims)
	}

	metadata, err := json.Marshal(entry.Metadata)
	if err != nil {
		return fmt.Errorf("marshalling metadata: %w", err)
	}

	_, err = c.store.db.ExecContext(ctx, `
		INSERT INTO chunks (collection, id, text, metadata, vector)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(collection, id) DO UPDATE SET
			text = excluded.text,
			metadata = excluded.metadata,
			vector = excluded.vector
	`, c.name, entry.ID, entry.Text, string(metadata), float32SliceToBytes(entry.Vector))
	if err != nil {
		return fmt.Errorf("upserting chunk: %w", err)
	}
	return nil
}

// Search scans the collection and returns the k most similar entries.
func (c *collection) Search(ctx context.Context, query []float32, k int) ([]domain.SearchResult, error) {
	if k <= 0 {
		return nil, nil
	}
	if len(query) != c.dims {
		return nil, fmt.Errorf("%w: query has %d dimensions, collection %s has %d",
			domain.ErrDimensionMismatch, len(query), c.name, c.dims)
	}

	rows, err := c.store.db.QueryContext(ctx, `
		SELECT id, text, metadata, vector FROM chunks
		WHERE collection = ?
		ORDER BY seq
	`, c.name)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	var results []domain.SearchResult
	for rows.Next() {
		var (
			r        domain.SearchResult
			metadata string
			vector   []byte
		)
		if err := rows.Scan(&r.ChunkID, &r.Text, &metadata, &vector); err != nil {
			return nil, fmt.Errorf("scanning chunk: %w", err)
		}
		if err := json.Unmarshal([]byte(metadata), &r.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshaling metadata: %w", err)
		}
		r.Score = domain.CosineSimilarity(query, bytesToFloat32Slice(vector))
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}

	slices.SortStableFunc(results, func(a, b domain.SearchResult) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		default:
			return 0
		}
	})
	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

// Count returns the number of entries.
func (c *collection) Count(ctx context.Context) (int, error) {
	var n int
	err := c.store.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM chunks WHERE collection = ?`, c.name).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting chunks: %w", err)
	}
	return n, nil
}

// ==================== Helper Functions ====================

type scanner interface {
	Scan(dest ...any) error
}

// scanCollection scans one row of collectionQuery.
func scanCollection(row scanner) (*domain.CollectionInfo, error) {
	var (
		info        domain.CollectionInfo
		docs        string
		completedAt sql.NullTime
	)
	err := row.Scan(&info.Name, &info.EmbeddingModel, &info.Dimensions, &docs,
		&info.CreatedAt, &completedAt, &info.Chunks)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning collection: %w", err)
	}
	if completedAt.Valid {
		info.CompletedAt = completedAt.Time
	}
	if err := json.Unmarshal([]byte(docs), &info.Documents); err != nil {
		return nil, fmt.Errorf("unmarshaling documents: %w", err)
	}
	return &info, nil
}

func requireRow(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// float32SliceToBytes converts a []float32 to a byte slice for storage.
func float32SliceToBytes(floats []float32) []byte {
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice converts a byte slice back to []float32.
func bytesToFloat32Slice(data []byte) []float32 {
	if len(data) == 0 {
		return nil
	}
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}
