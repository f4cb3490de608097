// Package ledger records simulation batches in a SQLite file so balance
// changes to the content can be compared across runs.
package ledger

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/nathoo/lastrep/engine/state"
	"github.com/nathoo/lastrep/sim"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// ErrBatchNotFound is returned when a batch id is not in the ledger.
var ErrBatchNotFound = errors.New("ledger: batch not found")

// Ledger is an open ledger database.
type Ledger struct {
	db *sql.DB
}

// BatchRow is a stored batch with its ending tally.
type BatchRow struct {
	ID        string
	CreatedAt time.Time
	Game      string
	Version   string
	Runs      int
	Seed      int64
	Policy    string
	Workers   int
	Endings   map[string]int
}

// Open opens or creates the ledger at dbPath and applies pending migrations.
func Open(ctx context.Context, dbPath string) (*Ledger, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create ledger directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open ledger: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping ledger: %w", err)
	}

	l := &Ledger{db: db}
	if err := l.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return l, nil
}

// Close closes the database.
func (l *Ledger) Close() error {
	return l.db.Close()
}

func (l *Ledger) migrate(ctx context.Context) error {
	create := `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version TEXT PRIMARY KEY,
			applied_at TIMESTAMP NOT NULL
		)
	`
	if _, err := l.db.ExecContext(ctx, create); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	applied := map[string]bool{}
	rows, err := l.db.QueryContext(ctx, "SELECT version FROM schema_migrations")
	if err != nil {
		return fmt.Errorf("read schema_migrations: %w", err)
	}
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			rows.Close()
			return fmt.Errorf("scan schema migration: %w", err)
		}
		applied[v] = true
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return fmt.Errorf("iterate schema migrations: %w", err)
	}
	rows.Close()

	files, err := fs.Glob(migrationFS, "migrations/*.sql")
	if err != nil {
		return fmt.Errorf("glob migrations: %w", err)
	}
	sort.Strings(files)
	for _, file := range files {
		base := path.Base(file)
		if applied[base] {
			continue
		}
		sqlBytes, err := migrationFS.ReadFile(file)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", file, err)
		}
		tx, err := l.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin migration tx %s: %w", file, err)
		}
		if _, err := tx.ExecContext(ctx, string(sqlBytes)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("apply migration %s: %w", file, err)
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO schema_migrations (version, applied_at) VALUES (?, ?)",
			base, time.Now().UTC()); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record migration %s: %w", file, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %s: %w", file, err)
		}
	}
	return nil
}

// Record stores a batch and all of its runs in one transaction.
func (l *Ledger) Record(ctx context.Context, game *state.Graph, b *sim.Batch) error {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin record tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var title, version string
	if game != nil {
		title, version = game.Game.Title, game.Game.Version
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO batches (id, created_at, game, version, runs, seed, policy, workers)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID, time.Now().UTC(), title, version,
		len(b.Results), b.Options.Seed, string(b.Options.Policy), b.Options.Workers,
	); err != nil {
		return fmt.Errorf("insert batch %s: %w", b.ID, err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO runs (run_id, batch_id, idx, seed, ending, truncated, turns,
			week, stamina, injury, confidence, reputation, cash, keys, elapsed_us)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare run insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range b.Results {
		s := r.Stats
		if _, err := stmt.ExecContext(ctx,
			r.RunID, b.ID, r.Index, r.Seed, r.Ending, r.Truncated, r.Turns,
			s.Week, s.Stamina, s.Injury, s.Confidence, s.Reputation, s.Cash,
			strings.Join(r.Keys, " "), r.Elapsed.Microseconds(),
		); err != nil {
			return fmt.Errorf("insert run %d: %w", r.Index, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit batch %s: %w", b.ID, err)
	}
	return nil
}

// Batches lists stored batches, newest first, up to limit (0 means all).
func (l *Ledger) Batches(ctx context.Context, limit int) ([]BatchRow, error) {
	q := `SELECT id, created_at, game, version, runs, seed, policy, workers
		FROM batches ORDER BY created_at DESC, id`
	args := []any{}
	if limit > 0 {
		q += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := l.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query batches: %w", err)
	}
	var out []BatchRow
	for rows.Next() {
		var b BatchRow
		if err := rows.Scan(&b.ID, &b.CreatedAt, &b.Game, &b.Version, &b.Runs, &b.Seed, &b.Policy, &b.Workers); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan batch: %w", err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("iterate batches: %w", err)
	}
	rows.Close()

	for i := range out {
		endings, err := l.Endings(ctx, out[i].ID)
		if err != nil {
			return nil, err
		}
		out[i].Endings = endings
	}
	return out, nil
}

// Endings tallies the endings of one batch. Unfinished runs are counted
// under the empty id.
func (l *Ledger) Endings(ctx context.Context, batchID string) (map[string]int, error) {
	var n int
	if err := l.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM batches WHERE id = ?", batchID).Scan(&n); err != nil {
		return nil, fmt.Errorf("lookup batch %s: %w", batchID, err)
	}
	if n == 0 {
		return nil, fmt.Errorf("%w: %s", ErrBatchNotFound, batchID)
	}

	rows, err := l.db.QueryContext(ctx,
		"SELECT ending, COUNT(*) FROM runs WHERE batch_id = ? GROUP BY ending", batchID)
	if err != nil {
		return nil, fmt.Errorf("query endings: %w", err)
	}
	defer rows.Close()

	out := make(map[string]int)
	for rows.Next() {
		var id string
		var count int
		if err := rows.Scan(&id, &count); err != nil {
			return nil, fmt.Errorf("scan ending: %w", err)
		}
		out[id] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate endings: %w", err)
	}
	return out, nil
}
