// Package store defines the archive interface and implementations for
// completed sessions.
package store

import (
	"context"

	"github.com/muyan2020/matchparty/internal/domain"
)

// Store archives finished sessions and serves transcript reads after the
// in-memory session is gone.
type Store interface {
	// ArchiveSession persists a session with its messages and summary.
	// Archiving the same session again replaces the stored copy.
	ArchiveSession(ctx context.Context, session *domain.Session) error

	// GetSession loads an archived session with its message log. Returns
	// nil without error when the session is not archived.
	GetSession(ctx context.Context, sessionID string) (*domain.Session, error)

	// ListSessions returns recently archived sessions, newest first,
	// without their message logs.
	ListSessions(ctx context.Context, limit int) ([]*domain.Session, error)

	// Lifecycle
	Close() error
}
