package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/muyan2020/matchparty/internal/domain"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite store.
func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// For in-memory SQLite, multiple connections create separate databases.
	// Keep a single connection to avoid schema/data disappearing across goroutines.
	if dsn == ":memory:" || strings.Contains(dsn, "mode=memory") {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	}

	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS sessions (
		session_id   TEXT PRIMARY KEY,
		state        TEXT NOT NULL,
		profiles     TEXT NOT NULL,
		current_round INTEGER NOT NULL,
		max_rounds   INTEGER NOT NULL,
		summary      TEXT,
		created_at   TIMESTAMP NOT NULL,
		completed_at TIMESTAMP,
		metadata     TEXT
	);
	CREATE TABLE IF NOT EXISTS messages (
		message_id   TEXT PRIMARY KEY,
		session_id   TEXT NOT NULL,
		role         TEXT NOT NULL,
		display_name TEXT NOT NULL,
		content      TEXT NOT NULL,
		round_index  INTEGER NOT NULL,
		created_at   TIMESTAMP NOT NULL,
		seq          INTEGER NOT NULL,
		FOREIGN KEY (session_id) REFERENCES sessions(session_id)
	);
	CREATE INDEX IF NOT EXISTS idx_messages_session ON messages(session_id, seq);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// ArchiveSession persists the session and its messages in one transaction.
func (s *SQLiteStore) ArchiveSession(ctx context.Context, session *domain.Session) error {
	profiles, err := json.Marshal(session.Profiles)
	if err != nil {
		return fmt.Errorf("failed to marshal profiles: %w", err)
	}
	var metadata []byte
	if session.Metadata != nil {
		if metadata, err = json.Marshal(session.Metadata); err != nil {
			return fmt.Errorf("failed to marshal metadata: %w", err)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT OR REPLACE INTO sessions
		(session_id, state, profiles, current_round, max_rounds, summary, created_at, completed_at, metadata)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		session.SessionID, string(session.State), string(profiles),
		session.CurrentRound, session.MaxRounds, session.Summary,
		session.CreatedAt, session.CompletedAt, nullableString(metadata))
	if err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM messages WHERE session_id = ?`, session.SessionID); err != nil {
		return fmt.Errorf("failed to clear messages: %w", err)
	}
	for seq, msg := range session.Messages {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO messages
			(message_id, session_id, role, display_name, content, round_index, created_at, seq)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			msg.MessageID, session.SessionID, string(msg.Role), msg.DisplayName,
			msg.Content, msg.RoundIndex, msg.CreatedAt, seq)
		if err != nil {
			return fmt.Errorf("failed to insert message: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

// GetSession loads an archived session with its messages.
func (s *SQLiteStore) GetSession(ctx context.Context, sessionID string) (*domain.Session, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT session_id, state, profiles, current_round, max_rounds, summary, created_at, completed_at, metadata
		FROM sessions WHERE session_id = ?`, sessionID)

	session, err := scanSession(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT message_id, role, display_name, content, round_index, created_at
		FROM messages WHERE session_id = ? ORDER BY seq`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var msg domain.Message
		var role string
		if err := rows.Scan(&msg.MessageID, &role, &msg.DisplayName, &msg.Content, &msg.RoundIndex, &msg.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		msg.Role = domain.Role(role)
		session.Messages = append(session.Messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate messages: %w", err)
	}
	return session, nil
}

// ListSessions returns recently archived sessions without their messages.
func (s *SQLiteStore) ListSessions(ctx context.Context, limit int) ([]*domain.Session, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT session_id, state, profiles, current_round, max_rounds, summary, created_at, completed_at, metadata
		FROM sessions ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*domain.Session
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sessions: %w", err)
	}
	return sessions, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*domain.Session, error) {
	var (
		session     domain.Session
		state       string
		profiles    string
		summary     sql.NullString
		completedAt sql.NullTime
		metadata    sql.NullString
	)
	err := row.Scan(&session.SessionID, &state, &profiles, &session.CurrentRound,
		&session.MaxRounds, &summary, &session.CreatedAt, &completedAt, &metadata)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan session: %w", err)
	}

	session.State = domain.SessionState(state)
	session.Summary = summary.String
	if completedAt.Valid {
		t := completedAt.Time.UTC()
		session.CompletedAt = &t
	}
	if err := json.Unmarshal([]byte(profiles), &session.Profiles); err != nil {
		return nil, fmt.Errorf("failed to unmarshal profiles: %w", err)
	}
	if metadata.Valid && metadata.String != "" {
		if err := json.Unmarshal([]byte(metadata.String), &session.Metadata); err != nil {
			return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
		}
	}
	return &session, nil
}

func nullableString(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return string(b)
}
