package services

import (
	"sync"
	"time"

	"keycloak-login/internal/models"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// sessionEntry представляє слот токенів однієї сесії
type sessionEntry struct {
	Tokens    *models.Token
	ExpiresAt time.Time
}

// sessionService реалізація SessionService (in-memory)
type sessionService struct {
	sessions map[string]*sessionEntry
	mutex    sync.RWMutex
	ttl      time.Duration
	closed   bool
	stop     chan struct{}
}

// NewSessionService створює новий Session сервіс з заданим TTL
func NewSessionService(ttl time.Duration) SessionService {
	service := &sessionService{
		sessions: make(map[string]*sessionEntry),
		ttl:      ttl,
		stop:     make(chan struct{}),
	}

	// Горутина для очищення застарілих сесій
	go service.cleanupRoutine()

	return service
}

// NewSessionID генерує унікальний ідентифікатор сесії
func NewSessionID() string {
	return "sess_" + uuid.NewString()
}

// Tokens повертає збережені токени сесії, або nil якщо їх немає
func (s *sessionService) Tokens(sessionID string) *models.Token {
	if sessionID == "" {
		return nil
	}

	s.mutex.RLock()
	entry, exists := s.sessions[sessionID]
	s.mutex.RUnlock()

	if !exists {
		return nil
	}

	if time.Now().After(entry.ExpiresAt) {
		s.mutex.Lock()
		delete(s.sessions, sessionID)
		s.mutex.Unlock()
		return nil
	}

	return entry.Tokens
}

// SetTokens записує токени в слот сесії. nil очищає слот, але залишає
// сесію живою. Запис у закритий store повертає ErrSessionWrite.
func (s *sessionService) SetTokens(sessionID string, tokens *models.Token) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.closed {
		return ErrSessionWrite
	}

	entry, exists := s.sessions[sessionID]
	if !exists {
		entry = &sessionEntry{}
		s.sessions[sessionID] = entry
	}

	entry.Tokens = tokens
	entry.ExpiresAt = time.Now().Add(s.ttl)

	logrus.WithFields(logrus.Fields{
		"session_id": truncate(sessionID, 13),
		"has_tokens": tokens != nil,
		"expires_at": entry.ExpiresAt,
	}).Debug("Session token slot updated")

	return nil
}

// Close зупиняє фонове очищення і блокує подальші записи
func (s *sessionService) Close() {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	close(s.stop)
}

// cleanupExpired видаляє застарілі сесії
func (s *sessionService) cleanupExpired() {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	now := time.Now()
	cleaned := 0

	for sessionID, entry := range s.sessions {
		if now.After(entry.ExpiresAt) {
			delete(s.sessions, sessionID)
			cleaned++
		}
	}

	if cleaned > 0 {
		logrus.WithField("cleaned_count", cleaned).Info("Cleaned up expired sessions")
	}
}

// cleanupRoutine періодично очищає застарілі сесії
func (s *sessionService) cleanupRoutine() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.cleanupExpired()
		case <-s.stop:
			return
		}
	}
}
