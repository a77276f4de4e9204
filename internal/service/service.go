// Package service owns session lifecycle: creation, lookup, starting runs
// exactly once, and archiving completed sessions.
package service

import (
	"sync"

	"github.com/muyan2020/matchparty/internal/config"
	"github.com/muyan2020/matchparty/internal/domain"
	"github.com/muyan2020/matchparty/internal/engine"
	"github.com/muyan2020/matchparty/internal/lobby"
	"github.com/muyan2020/matchparty/internal/pubsub"
	store "github.com/muyan2020/matchparty/internal/repository"
)

// Service coordinates the engine, the event broker, the lobby and the
// archive. Active sessions live in memory; the archive only sees completed
// ones.
type Service struct {
	engine  *engine.Engine
	broker  *pubsub.Broker
	archive store.Store
	lobby   *lobby.Lobby
	config  *config.Config

	mu       sync.RWMutex
	sessions map[string]*domain.Session
	guard    *runGuard
}

// New creates a service. archive may be nil to disable persistence.
func New(eng *engine.Engine, broker *pubsub.Broker, archive store.Store, lob *lobby.Lobby, cfg *config.Config) *Service {
	return &Service{
		engine:   eng,
		broker:   broker,
		archive:  archive,
		lobby:    lob,
		config:   cfg,
		sessions: make(map[string]*domain.Session),
		guard:    newRunGuard(),
	}
}

// Broker exposes the event broker to transports.
func (s *Service) Broker() *pubsub.Broker {
	return s.broker
}

// Lobby exposes the participant catalog to transports.
func (s *Service) Lobby() *lobby.Lobby {
	return s.lobby
}
