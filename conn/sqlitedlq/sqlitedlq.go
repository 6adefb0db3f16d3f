// Package sqlitedlq is a reference dlq.Sink persisting dead-lettered
// envelopes to a SQLite table, grounded on the teacher's
// SqliteCheckpointStore: the same database/sql + go-sqlite3 driver,
// InitSchema-on-construct pattern, repurposed from checkpoint rows to
// dead-letter envelopes.
package sqlitedlq

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/flowlinego/flowline/dlq"
)

// Options configures the backing SQLite database and table name.
type Options struct {
	// Path is the SQLite file path, or ":memory:" for an in-process store.
	Path string
	// Table is the table name holding dead-lettered envelopes.
	Table string
}

func (o Options) withDefaults() Options {
	if o.Table == "" {
		o.Table = "dead_letters"
	}
	return o
}

// Sink implements dlq.Sink on top of a SQLite table.
type Sink struct {
	db   *sql.DB
	opts Options
}

// New opens (creating if necessary) the SQLite database at opts.Path and
// ensures the dead-letter table exists.
func New(opts Options) (*Sink, error) {
	opts = opts.withDefaults()
	db, err := sql.Open("sqlite3", opts.Path)
	if err != nil {
		return nil, err
	}
	s := &Sink{db: db, opts: opts}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Sink) initSchema() error {
	stmt := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		node_id TEXT NOT NULL,
		item_json TEXT NOT NULL,
		exception_type TEXT NOT NULL,
		exception_detail TEXT NOT NULL,
		correlation_id TEXT NOT NULL,
		created_at DATETIME NOT NULL
	)`, s.opts.Table)
	if _, err := s.db.Exec(stmt); err != nil {
		return err
	}
	index := fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%s_correlation_id ON %s (correlation_id)`, s.opts.Table, s.opts.Table)
	_, err := s.db.Exec(index)
	return err
}

// Handle implements dlq.Sink.
func (s *Sink) Handle(ctx context.Context, env dlq.Envelope) error {
	itemJSON, err := json.Marshal(env.Item)
	if err != nil {
		itemJSON = []byte(fmt.Sprintf("%v", env.Item))
	}
	query := fmt.Sprintf(`INSERT INTO %s (node_id, item_json, exception_type, exception_detail, correlation_id, created_at) VALUES (?, ?, ?, ?, ?, ?)`, s.opts.Table)
	_, err = s.db.ExecContext(ctx, query, env.NodeID, string(itemJSON), env.ExceptionType, env.ExceptionDetail, env.CorrelationID, env.Timestamp)
	return err
}

// Close releases the underlying database handle.
func (s *Sink) Close() error { return s.db.Close() }

var _ dlq.Sink = (*Sink)(nil)
