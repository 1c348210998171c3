// # internal/data/history/store.go
package history

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	coreerrors "github.com/kunai-consulting/qwikbridge/internal/core/errors"
)

const (
	driverName  = "sqlite"
	maxAttempts = 5
)

// Run is one recorded transform invocation. Detected means the module
// passed detection; RewrittenCalls counts the call sites actually
// replaced (zero for unchanged modules).
type Run struct {
	ID             int64
	Module         string
	ContentHash    string
	Detected       bool
	RewrittenCalls int
	DurationMs     int64
	Warning        string
	Timestamp      time.Time
}

// Store keeps the per-module transform history in a local sqlite file.
// Watch mode writes on every change, so the usual WAL + busy_timeout +
// single-connection setup applies.
type Store struct {
	path string
	db   *sql.DB
	mu   sync.Mutex
}

func Open(path string) (*Store, error) {
	cleanPath := strings.TrimSpace(path)
	if cleanPath == "" {
		return nil, fmt.Errorf("history path must not be empty")
	}
	if info, err := os.Stat(cleanPath); err == nil && info.IsDir() {
		return nil, fmt.Errorf("history path %q is a directory, expected file", cleanPath)
	}

	dir := filepath.Dir(cleanPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create history directory %q: %w", dir, err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(2000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)", cleanPath)
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite history %q: %w", cleanPath, err)
	}
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite history %q: %w", cleanPath, err)
	}
	if err := EnsureSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize sqlite schema %q: %w", cleanPath, err)
	}

	return &Store{path: cleanPath, db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) SaveRun(run Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if strings.TrimSpace(run.Module) == "" {
		return fmt.Errorf("run module must not be empty")
	}
	if run.Timestamp.IsZero() {
		run.Timestamp = time.Now().UTC()
	}

	return s.withRetry("save run", func() error {
		_, err := s.db.Exec(`
INSERT INTO transform_runs (module, content_hash, detected, rewritten_calls, duration_ms, warning, ts_utc)
VALUES (?, ?, ?, ?, ?, ?, ?)
`,
			run.Module,
			run.ContentHash,
			boolToInt(run.Detected),
			run.RewrittenCalls,
			run.DurationMs,
			run.Warning,
			run.Timestamp.UTC().Format(time.RFC3339Nano),
		)
		return err
	})
}

// RecentRuns returns the newest runs first, across all modules.
func (s *Store) RecentRuns(limit int) ([]Run, error) {
	return s.queryRuns(`
SELECT id, module, content_hash, detected, rewritten_calls, duration_ms, warning, ts_utc
FROM transform_runs
ORDER BY ts_utc DESC, id DESC
LIMIT ?
`, normalizeLimit(limit))
}

// RunsForModule returns the newest runs first for one module id.
func (s *Store) RunsForModule(module string, limit int) ([]Run, error) {
	return s.queryRuns(`
SELECT id, module, content_hash, detected, rewritten_calls, duration_ms, warning, ts_utc
FROM transform_runs
WHERE module = ?
ORDER BY ts_utc DESC, id DESC
LIMIT ?
`, module, normalizeLimit(limit))
}

func (s *Store) queryRuns(query string, args ...any) ([]Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var rows *sql.Rows
	err := s.withRetry("load runs", func() error {
		var qErr error
		rows, qErr = s.db.Query(query, args...)
		return qErr
	})
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	runs := make([]Run, 0)
	for rows.Next() {
		var (
			run      Run
			detected int
			tsRaw    string
		)
		if err := rows.Scan(&run.ID, &run.Module, &run.ContentHash, &detected,
			&run.RewrittenCalls, &run.DurationMs, &run.Warning, &tsRaw); err != nil {
			return nil, fmt.Errorf("scan run row: %w", err)
		}
		run.Detected = detected != 0

		ts, err := time.Parse(time.RFC3339Nano, tsRaw)
		if err != nil {
			return nil, fmt.Errorf("parse run timestamp %q: %w", tsRaw, err)
		}
		run.Timestamp = ts.UTC()
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate run rows: %w", err)
	}
	return runs, nil
}

func (s *Store) withRetry(op string, fn func() error) error {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err
		if !isLockError(err) || attempt == maxAttempts {
			break
		}
		time.Sleep(time.Duration(attempt*25) * time.Millisecond)
	}
	wrapped := coreerrors.Wrap(lastErr, coreerrors.CodeInternal, "history store")
	return coreerrors.AddContext(wrapped, coreerrors.CtxOperation, op)
}

func isLockError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "busy")
}

// HashContent fingerprints module source for change tracking.
func HashContent(source []byte) string {
	sum := sha256.Sum256(source)
	return hex.EncodeToString(sum[:8])
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return 50
	}
	return limit
}
