package httpadapter

import (
	"sync"
	"time"

	"github.com/kirillkom/ragdesk/internal/core/ports"
	"github.com/kirillkom/ragdesk/internal/core/usecase"
)

const (
	sessionIdleTTL   = time.Hour
	sessionSweepTick = 10 * time.Minute
)

// userSession is the displayed state of one signed-in user.
type userSession struct {
	catalog  *usecase.CatalogView
	chat     *usecase.ChatSession
	lastSeen time.Time
}

type sessionStore struct {
	catalog ports.DocumentCatalog
	chat    ports.ChatOrchestrator
	now     func() time.Time

	mu        sync.Mutex
	sessions  map[string]*userSession
	lastSweep time.Time
}

func newSessionStore(catalog ports.DocumentCatalog, chat ports.ChatOrchestrator) *sessionStore {
	return &sessionStore{
		catalog:  catalog,
		chat:     chat,
		now:      time.Now,
		sessions: make(map[string]*userSession),
	}
}

func (s *sessionStore) get(user string) *userSession {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if now.Sub(s.lastSweep) >= sessionSweepTick {
		for name, session := range s.sessions {
			if now.Sub(session.lastSeen) > sessionIdleTTL {
				delete(s.sessions, name)
			}
		}
		s.lastSweep = now
	}

	session, ok := s.sessions[user]
	if !ok {
		session = &userSession{
			catalog: usecase.NewCatalogView(s.catalog),
			chat:    usecase.NewChatSession(s.chat),
		}
		s.sessions[user] = session
	}
	session.lastSeen = now
	return session
}

func (s *sessionStore) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
