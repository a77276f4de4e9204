package service

import (
	"context"
	"errors"
	"log"

	"github.com/muyan2020/matchparty/internal/domain"
)

// ErrSessionNotFound is returned when no live or archived session matches.
var ErrSessionNotFound = errors.New("session not found")

// Start statuses reported by StartConversation.
const (
	StartStatusStarted          = "started"
	StartStatusAlreadyRunning   = "already running"
	StartStatusAlreadyCompleted = "already completed"
)

// CreateSession creates and registers a session. Missing roles are filled
// with placeholder profiles; a non-positive maxRounds takes the configured
// default.
func (s *Service) CreateSession(profiles map[domain.Role]*domain.Profile, maxRounds int) *domain.Session {
	if maxRounds <= 0 {
		maxRounds = s.config.DefaultMaxRounds
	}
	session := domain.NewSession(profiles, maxRounds)

	s.mu.Lock()
	s.sessions[session.SessionID] = session
	s.mu.Unlock()

	log.Printf("INFO: created session %s (max rounds %d)", session.SessionID, maxRounds)
	return session
}

// GetSession looks a session up in memory first, then in the archive.
func (s *Service) GetSession(ctx context.Context, sessionID string) (*domain.Session, error) {
	s.mu.RLock()
	session, ok := s.sessions[sessionID]
	s.mu.RUnlock()
	if ok {
		return session, nil
	}

	if s.archive != nil {
		archived, err := s.archive.GetSession(ctx, sessionID)
		if err != nil {
			return nil, err
		}
		if archived != nil {
			return archived, nil
		}
	}
	return nil, ErrSessionNotFound
}

// ListArchivedSessions returns recently archived sessions.
func (s *Service) ListArchivedSessions(ctx context.Context, limit int) ([]*domain.Session, error) {
	if s.archive == nil {
		return nil, nil
	}
	return s.archive.ListSessions(ctx, limit)
}

// StartConversation kicks off an asynchronous run for the session. A second
// request while a run is in flight is a no-op reporting "already running";
// a completed session reports "already completed".
func (s *Service) StartConversation(sessionID string) (string, error) {
	s.mu.RLock()
	session, ok := s.sessions[sessionID]
	s.mu.RUnlock()
	if !ok {
		return "", ErrSessionNotFound
	}

	if session.State == domain.SessionStateCompleted {
		return StartStatusAlreadyCompleted, nil
	}
	if !s.guard.tryAcquire(sessionID) {
		return StartStatusAlreadyRunning, nil
	}

	go s.runSession(session)
	return StartStatusStarted, nil
}

// runSession drives one run to completion in the background. The guard is
// released unconditionally, on every exit path.
func (s *Service) runSession(session *domain.Session) {
	defer s.guard.release(session.SessionID)

	ctx := context.Background()
	if _, err := s.engine.Run(ctx, session); err != nil {
		// The session keeps its last set state and stays retryable; a
		// later start request may run it again.
		log.Printf("ERROR: conversation run failed for session %s: %v", session.SessionID, err)
		return
	}

	if s.archive != nil {
		if err := s.archive.ArchiveSession(ctx, session); err != nil {
			log.Printf("ERROR: failed to archive session %s: %v", session.SessionID, err)
		}
	}
}
