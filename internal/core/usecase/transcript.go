package usecase

import (
	"context"
	"strings"
	"sync"

	"github.com/kirillkom/ragdesk/internal/core/domain"
	"github.com/kirillkom/ragdesk/internal/core/ports"
)

const maxTranscriptTurns = 200

// ChatSession is one user's transcript. It admits a single turn at a time.
type ChatSession struct {
	chat ports.ChatOrchestrator

	mu       sync.Mutex
	inFlight bool
	turns    []domain.ChatTurn
}

func NewChatSession(chat ports.ChatOrchestrator) *ChatSession {
	return &ChatSession{chat: chat}
}

// Submit sends one turn and returns the turns it added: the user turn and the
// assistant reply. Blank input adds nothing and sends nothing.
func (s *ChatSession) Submit(ctx context.Context, text string, useRetrieval bool) ([]domain.ChatTurn, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	s.mu.Lock()
	if s.inFlight {
		s.mu.Unlock()
		return nil, domain.ErrTurnInFlight
	}
	s.inFlight = true
	s.mu.Unlock()

	reply, ok := s.chat.SendTurn(ctx, text, useRetrieval)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.inFlight = false
	if !ok {
		return nil, nil
	}

	added := []domain.ChatTurn{
		{Role: domain.RoleUser, Text: strings.TrimSpace(text)},
		reply,
	}
	next := make([]domain.ChatTurn, 0, len(s.turns)+len(added))
	next = append(next, s.turns...)
	next = append(next, added...)
	if len(next) > maxTranscriptTurns {
		next = next[len(next)-maxTranscriptTurns:]
	}
	s.turns = next
	return added, nil
}

// Transcript returns the current turns. The slice is never modified after it
// is returned.
func (s *ChatSession) Transcript() []domain.ChatTurn {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.turns
}

func (s *ChatSession) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turns = nil
}
