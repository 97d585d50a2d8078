// ABOUTME: SQLite implementation of the Store interface using modernc.org/sqlite
// ABOUTME: Defaults to :memory: so sessions share the process lifetime, not the disk

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements the Store interface using SQLite. The default DSN is
// ":memory:", which matches the registry's process-lifetime durability; a
// file path may be supplied where operators want sessions to survive the
// occasional restart.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteStore opens (or creates) a SQLite-backed session store.
func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	logger := slog.Default().With("component", "store")

	if dsn == "" {
		dsn = ":memory:"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// A single connection keeps :memory: databases coherent and makes
	// read-modify-write transactions serialize naturally.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	s := &SQLiteStore{db: db, logger: logger}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	logger.Info("SQLite store initialized", "dsn", dsn)
	return s, nil
}

// createSchema creates the database tables if they don't exist
func (s *SQLiteStore) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS sessions (
			id              TEXT PRIMARY KEY,
			seq             INTEGER NOT NULL,
			state           TEXT NOT NULL,
			product_name    TEXT NOT NULL,
			campaign_goal   TEXT NOT NULL,
			total_budget    TEXT NOT NULL,
			proposal        TEXT NOT NULL,
			research_json   TEXT NOT NULL,
			history_json    TEXT NOT NULL,
			iteration_count INTEGER NOT NULL,
			created_at      TEXT NOT NULL,
			updated_at      TEXT NOT NULL,

			CHECK (state IN (
				'initializing',
				'pending_review',
				'requesting_info',
				'revising',
				'approved',
				'rejected',
				'escalated'
			))
		);

		CREATE INDEX IF NOT EXISTS idx_sessions_seq ON sessions(seq);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return err
	}
	return nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Create registers a new session.
func (s *SQLiteStore) Create(ctx context.Context, session *Session) error {
	research, history, err := encodeJSONColumns(session)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO sessions (
			id, seq, state, product_name, campaign_goal, total_budget,
			proposal, research_json, history_json, iteration_count,
			created_at, updated_at
		) VALUES (?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM sessions), ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		session.ID, session.State,
		session.Spec.ProductName, session.Spec.CampaignGoal, session.Spec.TotalBudget,
		session.Proposal, research, history, session.IterationCount,
		session.CreatedAt.UTC().Format(time.RFC3339Nano),
		session.UpdatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("inserting session: %w", err)
	}
	return nil
}

// Get returns a snapshot of the session.
func (s *SQLiteStore) Get(ctx context.Context, id string) (*Session, error) {
	return s.get(ctx, s.db, id)
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *SQLiteStore) get(ctx context.Context, q querier, id string) (*Session, error) {
	row := q.QueryRowContext(ctx, `
		SELECT id, state, product_name, campaign_goal, total_budget,
		       proposal, research_json, history_json, iteration_count,
		       created_at, updated_at
		FROM sessions WHERE id = ?`, id)

	var (
		session            Session
		research, history  string
		createdAt, updated string
	)
	err := row.Scan(
		&session.ID, &session.State,
		&session.Spec.ProductName, &session.Spec.CampaignGoal, &session.Spec.TotalBudget,
		&session.Proposal, &research, &history, &session.IterationCount,
		&createdAt, &updated,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning session: %w", err)
	}

	if err := json.Unmarshal([]byte(research), &session.Research); err != nil {
		return nil, fmt.Errorf("decoding research: %w", err)
	}
	if err := json.Unmarshal([]byte(history), &session.History); err != nil {
		return nil, fmt.Errorf("decoding history: %w", err)
	}
	if session.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	if session.UpdatedAt, err = time.Parse(time.RFC3339Nano, updated); err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}
	return &session, nil
}

// Update runs mutate inside a read-modify-write transaction so concurrent
// updates to the same id serialize.
func (s *SQLiteStore) Update(ctx context.Context, id string, mutate func(*Session) error) (*Session, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	session, err := s.get(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	if err := mutate(session); err != nil {
		return nil, err
	}
	session.UpdatedAt = time.Now().UTC()

	research, history, err := encodeJSONColumns(session)
	if err != nil {
		return nil, err
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE sessions SET
			state = ?, proposal = ?, research_json = ?, history_json = ?,
			iteration_count = ?, updated_at = ?
		WHERE id = ?`,
		session.State, session.Proposal, research, history,
		session.IterationCount,
		session.UpdatedAt.Format(time.RFC3339Nano), id,
	)
	if err != nil {
		return nil, fmt.Errorf("updating session: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing session update: %w", err)
	}
	return session, nil
}

// List returns summaries of all sessions in creation order.
func (s *SQLiteStore) List(ctx context.Context) ([]*Summary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, state, product_name, iteration_count, created_at
		FROM sessions ORDER BY seq ASC`)
	if err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}
	defer rows.Close()

	var out []*Summary
	for rows.Next() {
		var (
			sum       Summary
			createdAt string
		)
		if err := rows.Scan(&sum.ID, &sum.State, &sum.ProductName, &sum.IterationCount, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning summary: %w", err)
		}
		if sum.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
			return nil, fmt.Errorf("parsing created_at: %w", err)
		}
		out = append(out, &sum)
	}
	return out, rows.Err()
}

func encodeJSONColumns(session *Session) (research, history string, err error) {
	r, err := json.Marshal(session.Research)
	if err != nil {
		return "", "", fmt.Errorf("encoding research: %w", err)
	}
	h, err := json.Marshal(session.History)
	if err != nil {
		return "", "", fmt.Errorf("encoding history: %w", err)
	}
	return string(r), string(h), nil
}
