package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/dukex/flowcook/pkg/events"
	"github.com/dukex/flowcook/pkg/flowstate"
	"github.com/dukex/flowcook/pkg/graph"
	"github.com/dukex/flowcook/pkg/otelhelper"
	"github.com/dukex/flowcook/pkg/undo"
	"go.opentelemetry.io/otel/attribute"
)

// Session is one isolated editing workspace: a graph, its globals and its undo history.
// All access goes through Do, which runs one operation at a time.
type Session struct {
	id        string
	createdAt time.Time
	manager   *Manager
	logger    *slog.Logger

	mu    sync.Mutex
	graph *graph.Graph
	undo  *undo.Manager
}

func (s *Session) ID() string { return s.id }

func (s *Session) CreatedAt() time.Time { return s.createdAt }

// Do runs fn with exclusive access to the session's graph and undo manager.
func (s *Session) Do(fn func(g *graph.Graph, u *undo.Manager) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return fn(s.graph, s.undo)
}

// Load replaces the session's graph with the named flowstate and clears its undo history.
func (s *Session) Load(ctx context.Context, name string) error {
	store := s.manager.persistence
	if store == nil {
		return newSessionError("Load", s.id, ErrNoPersistence)
	}

	ctx, span := otelhelper.StartSpan(ctx, s.manager.tracer, "session.load",
		attribute.String(otelhelper.SessionIDKey, s.id),
		attribute.String(otelhelper.FlowstateKey, name),
	)
	defer span.End()

	doc, err := store.Flowstate(ctx, name)
	if err != nil {
		otelhelper.SetError(span, err)

		return err
	}

	var count int

	err = s.Do(func(g *graph.Graph, u *undo.Manager) error {
		if err := flowstate.Load(g, doc, u); err != nil {
			return err
		}

		count = g.Len()

		return nil
	})
	if err != nil {
		otelhelper.SetError(span, err)

		return err
	}

	s.logger.InfoContext(ctx, "Flowstate loaded", "name", name, "nodes", count)
	s.manager.publish(ctx, s.id, &events.FlowstateLoaded{
		BaseEvent: events.NewBaseEvent(events.FlowstateLoadedEvent, s.id),
		Name:      name,
		NodeCount: count,
	})

	return nil
}

// Save stores the session's graph under name, replacing any previous document.
func (s *Session) Save(ctx context.Context, name string) error {
	store := s.manager.persistence
	if store == nil {
		return newSessionError("Save", s.id, ErrNoPersistence)
	}

	ctx, span := otelhelper.StartSpan(ctx, s.manager.tracer, "session.save",
		attribute.String(otelhelper.SessionIDKey, s.id),
		attribute.String(otelhelper.FlowstateKey, name),
	)
	defer span.End()

	doc := s.Document()

	if err := store.SaveFlowstate(ctx, name, doc); err != nil {
		otelhelper.SetError(span, err)

		return err
	}

	s.logger.InfoContext(ctx, "Flowstate saved", "name", name, "nodes", len(doc.Nodes))
	s.manager.publish(ctx, s.id, &events.FlowstateSaved{
		BaseEvent: events.NewBaseEvent(events.FlowstateSavedEvent, s.id),
		Name:      name,
		NodeCount: len(doc.Nodes),
	})

	return nil
}

// Document snapshots the session's graph as a flowstate document.
func (s *Session) Document() *flowstate.Document {
	var doc *flowstate.Document

	_ = s.Do(func(g *graph.Graph, _ *undo.Manager) error {
		doc = flowstate.Save(g)

		return nil
	})

	return doc
}

// LoadDocument replaces the session's graph with doc.
func (s *Session) LoadDocument(doc *flowstate.Document) error {
	return s.Do(func(g *graph.Graph, u *undo.Manager) error {
		return flowstate.Load(g, doc, u)
	})
}
