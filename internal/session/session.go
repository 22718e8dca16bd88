package session

import (
	"sync"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/younghoyk/mr-daebak-order/internal/agent"
	"github.com/younghoyk/mr-daebak-order/internal/backend"
	"github.com/younghoyk/mr-daebak-order/internal/catalog"
	"github.com/younghoyk/mr-daebak-order/internal/checkout"
	"github.com/younghoyk/mr-daebak-order/internal/metrics"
	"github.com/younghoyk/mr-daebak-order/internal/orderflow"
	"github.com/younghoyk/mr-daebak-order/internal/steps"
)

// Session owns one user's order in progress: a single Store shared by the
// guided flow and the conversational agent, a session-scoped catalog
// cache, and the checkout orchestrator.
type Session struct {
	ID       string
	Store    *orderflow.Store
	Catalog  *catalog.Cache
	Flow     *steps.Flow
	Checkout *checkout.Orchestrator
	Agent    *agent.Adapter
}

// Manager tracks open sessions by id.
type Manager struct {
	client   *backend.Client
	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewManager(client *backend.Client) *Manager {
	return &Manager{
		client:   client,
		sessions: make(map[string]*Session),
	}
}

// Create opens a new session with an empty order.
func (m *Manager) Create() *Session {
	store := orderflow.NewStore()
	cache := catalog.NewCache(m.client)
	s := &Session{
		ID:       uuid.New().String(),
		Store:    store,
		Catalog:  cache,
		Flow:     steps.NewFlow(store, cache, m.client),
		Checkout: checkout.NewOrchestrator(store, m.client),
		Agent:    agent.NewAdapter(m.client, cache, store),
	}

	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()

	metrics.ActiveSessions.Inc()
	log.WithField("session_id", s.ID).Info("session opened")
	return s
}

// Get returns an open session.
func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	return s, ok
}

// Close releases a session. The agent's voice capture is released
// unconditionally. Closing an unknown id is a no-op.
func (m *Manager) Close(id string) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	if ok {
		delete(m.sessions, id)
	}
	m.mu.Unlock()

	if !ok {
		return
	}
	s.Agent.Close()
	metrics.ActiveSessions.Dec()
	log.WithField("session_id", id).Info("session closed")
}

// CloseAll releases every open session, for shutdown.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	m.mu.Unlock()

	for _, id := range ids {
		m.Close(id)
	}
}
