// Package session hosts isolated graph workspaces and connects them to storage and the event bus.
package session

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/dukex/flowcook/pkg/eventbus"
	"github.com/dukex/flowcook/pkg/graph"
	"github.com/dukex/flowcook/pkg/persistence"
	"github.com/dukex/flowcook/pkg/undo"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// Manager creates sessions and keeps them by id.
type Manager struct {
	logger      *slog.Logger
	types       graph.TypeLookup
	persistence persistence.Persistence
	publisher   eventbus.Publisher
	tracer      trace.Tracer
	undoLimit   int
	maxSessions int

	mu       sync.RWMutex
	sessions map[string]*Session
}

// Option configures a Manager.
type Option func(*Manager)

// WithNodeTypes sets the node types available to every session graph.
func WithNodeTypes(types graph.TypeLookup) Option {
	return func(m *Manager) {
		m.types = types
	}
}

// WithPersistence enables Session.Load and Session.Save.
func WithPersistence(p persistence.Persistence) Option {
	return func(m *Manager) {
		m.persistence = p
	}
}

// WithPublisher publishes cook and flowstate events of every session.
func WithPublisher(publisher eventbus.Publisher) Option {
	return func(m *Manager) {
		m.publisher = publisher
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(m *Manager) {
		m.tracer = tracer
	}
}

// WithUndoLimit bounds each session's undo history.
func WithUndoLimit(limit int) Option {
	return func(m *Manager) {
		m.undoLimit = limit
	}
}

// WithMaxSessions caps the number of open sessions. Zero means no cap.
func WithMaxSessions(limit int) Option {
	return func(m *Manager) {
		m.maxSessions = limit
	}
}

func NewManager(logger *slog.Logger, opts ...Option) *Manager {
	m := &Manager{
		logger:    logger.With("module", "session"),
		undoLimit: undo.DefaultLimit,
		sessions:  make(map[string]*Session),
	}

	for _, opt := range opts {
		opt(m)
	}

	if m.tracer == nil {
		m.tracer = otel.Tracer("flowcook/session")
	}

	return m
}

// Persistence returns the configured storage, or nil.
func (m *Manager) Persistence() persistence.Persistence {
	return m.persistence
}

// Create opens a new empty session.
func (m *Manager) Create(ctx context.Context) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.maxSessions > 0 && len(m.sessions) >= m.maxSessions {
		return nil, newSessionError("Create", "", ErrTooManySessions)
	}

	id := uuid.New().String()
	logger := m.logger.With("session_id", id)

	g := graph.New(m.types,
		graph.WithLogger(logger),
		graph.WithTracer(m.tracer),
	)
	g.SetObserver(&eventObserver{
		sessionID: id,
		graph:     g,
		publisher: m.publisher,
		logger:    logger,
	})

	s := &Session{
		id:        id,
		createdAt: time.Now().UTC(),
		manager:   m,
		logger:    logger,
		graph:     g,
		undo:      undo.NewManager(g, undo.WithLimit(m.undoLimit), undo.WithLogger(logger)),
	}

	m.sessions[id] = s

	logger.InfoContext(ctx, "Session created")

	return s, nil
}

// Get returns an open session.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, newSessionError("Get", id, ErrSessionNotFound)
	}

	return s, nil
}

// Close discards a session and everything in it.
func (m *Manager) Close(ctx context.Context, id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if !ok {
		return newSessionError("Close", id, ErrSessionNotFound)
	}

	_ = s.Do(func(g *graph.Graph, u *undo.Manager) error {
		g.SetObserver(nil)
		u.FlushAll()
		g.FlushAll()

		return nil
	})

	s.logger.InfoContext(ctx, "Session closed")

	return nil
}

// List returns the open sessions, oldest first.
func (m *Manager) List() []*Session {
	m.mu.RLock()
	list := make([]*Session, 0, len(m.sessions))

	for _, s := range m.sessions {
		list = append(list, s)
	}
	m.mu.RUnlock()

	slices.SortFunc(list, func(a, b *Session) int {
		if c := a.createdAt.Compare(b.createdAt); c != 0 {
			return c
		}

		return strings.Compare(a.id, b.id)
	})

	return list
}

// CloseAll discards every session.
func (m *Manager) CloseAll(ctx context.Context) {
	for _, s := range m.List() {
		_ = m.Close(ctx, s.id)
	}
}

func (m *Manager) publish(ctx context.Context, key string, event eventbus.Event) {
	if m.publisher == nil {
		return
	}

	if err := m.publisher.Publish(ctx, key, event); err != nil {
		m.logger.ErrorContext(ctx, "Failed to publish event", "event_type", event.GetType(), "error", err)
	}
}
