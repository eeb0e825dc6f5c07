package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/revloop-dev/revloop/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/revloop-dev/revloop/internal/core/domain"
	"github.com/revloop-dev/revloop/internal/core/ports/driven"
	"github.com/revloop-dev/revloop/internal/vector"
)

// Store is a unified SQLite-based storage that provides access to the
// finding store and reaction ledger interfaces through wrapper types.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.revloop/data/revloop.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".revloop", "data")
	}

	// Ensure directory exists
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "revloop.db")

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	// Run migrations
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

// FindingStore returns a FindingStore interface backed by this store.
func (s *Store) FindingStore() driven.FindingStore {
	return &findingStore{store: s}
}

// ReactionLedger returns a ReactionLedger interface backed by this store.
func (s *Store) ReactionLedger() driven.ReactionLedger {
	return &reactionLedger{store: s}
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	// Ensure schema_migrations table exists
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	// Get current version
	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	// Find all up migrations
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	// Sort and run migrations
	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_initial.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue // Skip files that don't match pattern
		}

		if version <= currentVersion {
			continue // Already applied
		}

		// Read and execute migration
		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}

		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// ==================== Finding Store ====================

// findingStore implements driven.FindingStore.
type findingStore struct {
	store *Store
}

var _ driven.FindingStore = (*findingStore)(nil)

const findingColumns = `id, repo_scope, pr_number, file_path, line_number, description,
	category, severity, confidence, evidence_snippet, embedding, comment_id, created_at`

// SaveFinding appends a published finding.
func (s *findingStore) SaveFinding(ctx context.Context, f *domain.Finding) error {
	if f.CreatedAt.IsZero() {
		f.CreatedAt = time.Now().UTC()
	}

	embeddingBlob := float32SliceToBytes(f.Embedding)

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO findings (`+findingColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, f.ID, f.RepoScope, f.PRNumber, f.FilePath, nullableInt(f.LineNumber),
		f.Description, string(f.Category), string(f.Severity), f.Confidence,
		f.EvidenceSnippet, embeddingBlob, nullableInt64(f.CommentID), f.CreatedAt)

	if err != nil {
		return fmt.Errorf("saving finding: %w", err)
	}
	return nil
}

// GetFinding retrieves a finding by ID.
func (s *findingStore) GetFinding(ctx context.Context, id string) (*domain.Finding, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT `+findingColumns+` FROM findings WHERE id = ?
	`, id)

	return scanFinding(row)
}

// GetFindingByCommentID resolves a finding from its comment identifier.
func (s *findingStore) GetFindingByCommentID(ctx context.Context, commentID int64) (*domain.Finding, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT `+findingColumns+` FROM findings WHERE comment_id = ?
	`, commentID)

	return scanFinding(row)
}

// ListPublishedSince returns scope findings published at or after since.
func (s *findingStore) ListPublishedSince(ctx context.Context, repoScope string, since time.Time) ([]domain.Finding, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT `+findingColumns+` FROM findings
		WHERE repo_scope = ? AND comment_id IS NOT NULL AND created_at >= ?
		ORDER BY created_at
	`, repoScope, since)
	if err != nil {
		return nil, fmt.Errorf("querying findings: %w", err)
	}
	defer rows.Close()

	var findings []domain.Finding //nolint:prealloc // size unknown from query
	for rows.Next() {
		f, err := scanFindingRows(rows)
		if err != nil {
			return nil, err
		}
		findings = append(findings, *f)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating findings: %w", err)
	}

	return findings, nil
}

// QuerySimilar scans the repository scope and ranks stored embeddings by
// cosine similarity to vec. The scan is exact: the scope filter and the
// reaction aggregation happen in SQL, the similarity arithmetic in Go.
func (s *findingStore) QuerySimilar(ctx context.Context, vec []float32, repoScope string, threshold float64, k int) ([]domain.SimilarFinding, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT f.id, f.repo_scope, f.pr_number, f.file_path, f.line_number, f.description,
			f.category, f.severity, f.confidence, f.evidence_snippet, f.embedding,
			f.comment_id, f.created_at,
			COALESCE(r.positive, 0), COALESCE(r.negative, 0)
		FROM findings f
		LEFT JOIN (
			SELECT finding_id,
				SUM(CASE WHEN kind = 'positive' THEN 1 ELSE 0 END) AS positive,
				SUM(CASE WHEN kind = 'negative' THEN 1 ELSE 0 END) AS negative
			FROM reactions
			GROUP BY finding_id
		) r ON r.finding_id = f.id
		WHERE f.repo_scope = ? AND f.embedding IS NOT NULL
	`, repoScope)
	if err != nil {
		return nil, fmt.Errorf("querying similar findings: %w", err)
	}
	defer rows.Close()

	var matches []domain.SimilarFinding
	for rows.Next() {
		var f domain.Finding
		var lineNumber, commentID sql.NullInt64
		var embeddingBlob []byte
		var positive, negative int

		if err := rows.Scan(&f.ID, &f.RepoScope, &f.PRNumber, &f.FilePath, &lineNumber,
			&f.Description, &f.Category, &f.Severity, &f.Confidence, &f.EvidenceSnippet,
			&embeddingBlob, &commentID, &f.CreatedAt, &positive, &negative); err != nil {
			return nil, fmt.Errorf("scanning finding: %w", err)
		}

		restoreOptionals(&f, lineNumber, commentID)
		f.Embedding = bytesToFloat32Slice(embeddingBlob)

		sim := vector.Cosine(vec, f.Embedding)
		if sim < threshold {
			continue
		}
		matches = append(matches, domain.SimilarFinding{
			Finding:    f,
			Similarity: sim,
			Positive:   positive,
			Negative:   negative,
		})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating similar findings: %w", err)
	}

	sort.Slice(matches, func(i, j int) bool { return matches[i].Similarity > matches[j].Similarity })
	if k > 0 && len(matches) > k {
		matches = matches[:k]
	}
	return matches, nil
}

// RecordFilterStats appends a per-run stats row.
func (s *findingStore) RecordFilterStats(ctx context.Context, rc domain.ReviewContext, stats domain.FilterStats) error {
	reasonsJSON, err := json.Marshal(stats.Reasons)
	if err != nil {
		return fmt.Errorf("marshalling reasons: %w", err)
	}
	warnings := stats.Warnings
	if warnings == nil {
		warnings = []string{}
	}
	warningsJSON, err := json.Marshal(warnings)
	if err != nil {
		return fmt.Errorf("marshalling warnings: %w", err)
	}

	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO filter_stats
			(repo_scope, pr_number, total_generated, total_filtered, total_boosted, reasons, warnings)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, rc.RepoScope, rc.PRNumber, stats.TotalGenerated, stats.TotalFiltered,
		stats.TotalBoosted, string(reasonsJSON), string(warningsJSON))

	if err != nil {
		return fmt.Errorf("recording filter stats: %w", err)
	}
	return nil
}

// ==================== Reaction Ledger ====================

// reactionLedger implements driven.ReactionLedger.
type reactionLedger struct {
	store *Store
}

var _ driven.ReactionLedger = (*reactionLedger)(nil)

// Record inserts a reaction unless the identical triple already exists.
// Idempotence rides on the table's primary key, so concurrent callers
// racing on the same triple still produce exactly one row.
func (l *reactionLedger) Record(ctx context.Context, r domain.Reaction) (bool, error) {
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}

	res, err := l.store.db.ExecContext(ctx, `
		INSERT INTO reactions (finding_id, reactor, kind, explanation, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(finding_id, reactor, kind) DO NOTHING
	`, r.FindingID, r.Reactor, string(r.Kind), r.Explanation, r.CreatedAt)
	if err != nil {
		return false, fmt.Errorf("recording reaction: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("checking insert result: %w", err)
	}
	return affected > 0, nil
}

// Summary aggregates reactions for a single finding.
func (l *reactionLedger) Summary(ctx context.Context, findingID string) (*domain.FeedbackSummary, error) {
	rows, err := l.store.db.QueryContext(ctx, `
		SELECT reactor, kind, explanation
		FROM reactions WHERE finding_id = ?
		ORDER BY reactor
	`, findingID)
	if err != nil {
		return nil, fmt.Errorf("querying reactions: %w", err)
	}
	defer rows.Close()

	summary := &domain.FeedbackSummary{}
	for rows.Next() {
		var reactor, kind, explanation string
		if err := rows.Scan(&reactor, &kind, &explanation); err != nil {
			return nil, fmt.Errorf("scanning reaction: %w", err)
		}

		switch domain.ReactionKind(kind) {
		case domain.ReactionPositive:
			summary.Positive++
		case domain.ReactionNegative:
			summary.Negative++
		}
		if explanation != "" {
			summary.Explanations = append(summary.Explanations, domain.ExplanationNote{
				Reactor:   reactor,
				Text:      explanation,
				Sentiment: domain.ReactionKind(kind),
			})
		}
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating reactions: %w", err)
	}

	return summary, nil
}

// ==================== Helper Functions ====================

// float32SliceToBytes converts a []float32 to a byte slice for storage.
func float32SliceToBytes(floats []float32) []byte {
	if len(floats) == 0 {
		return nil
	}
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

func nullableInt(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullableInt64(v *int64) any {
	if v == nil {
		return nil
	}
	return *v
}

func restoreOptionals(f *domain.Finding, lineNumber, commentID sql.NullInt64) {
	if lineNumber.Valid {
		line := int(lineNumber.Int64)
		f.LineNumber = &line
	}
	if commentID.Valid {
		id := commentID.Int64
		f.CommentID = &id
	}
}

// scanFinding scans a single finding row.
func scanFinding(row *sql.Row) (*domain.Finding, error) {
	var f domain.Finding
	var lineNumber, commentID sql.NullInt64
	var embeddingBlob []byte

	if err := row.Scan(&f.ID, &f.RepoScope, &f.PRNumber, &f.FilePath, &lineNumber,
		&f.Description, &f.Category, &f.Severity, &f.Confidence, &f.EvidenceSnippet,
		&embeddingBlob, &commentID, &f.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning finding: %w", err)
	}

	restoreOptionals(&f, lineNumber, commentID)
	f.Embedding = bytesToFloat32Slice(embeddingBlob)
	return &f, nil
}

// scanFindingRows scans a finding from *sql.Rows.
func scanFindingRows(rows *sql.Rows) (*domain.Finding, error) {
	var f domain.Finding
	var lineNumber, commentID sql.NullInt64
	var embeddingBlob []byte

	if err := rows.Scan(&f.ID, &f.RepoScope, &f.PRNumber, &f.FilePath, &lineNumber,
		&f.Description, &f.Category, &f.Severity, &f.Confidence, &f.EvidenceSnippet,
		&embeddingBlob, &commentID, &f.CreatedAt); err != nil {
		return nil, fmt.Errorf("scanning finding: %w", err)
	}

	restoreOptionals(&f, lineNumber, commentID)
	f.Embedding = bytesToFloat32Slice(embeddingBlob)
	return &f, nil
}
