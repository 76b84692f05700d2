// Package scheduler re-cooks session nodes on cron expressions.
package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/dukex/flowcook/pkg/graph"
	"github.com/dukex/flowcook/pkg/models"
	"github.com/dukex/flowcook/pkg/session"
	"github.com/dukex/flowcook/pkg/undo"
	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
)

// ErrScheduleNotFound is returned for an unknown schedule id.
var ErrScheduleNotFound = errors.New("schedule not found")

// Sessions resolves session ids. *session.Manager implements it.
type Sessions interface {
	Get(id string) (*session.Session, error)
}

type entry struct {
	schedule *models.Schedule
	entryID  cron.EntryID
}

type Scheduler struct {
	sessions Sessions
	logger   *slog.Logger
	cron     *cron.Cron
	timeout  time.Duration

	mutex   sync.Mutex
	entries map[string]*entry
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithCookTimeout bounds every scheduled cook. Zero means no bound.
func WithCookTimeout(timeout time.Duration) Option {
	return func(s *Scheduler) {
		s.timeout = timeout
	}
}

func New(sessions Sessions, logger *slog.Logger, opts ...Option) *Scheduler {
	logger = logger.With("module", "scheduler")
	cronLogger := cron.PrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelDebug))

	s := &Scheduler{
		sessions: sessions,
		logger:   logger,
		entries:  make(map[string]*entry),
		cron: cron.New(
			cron.WithParser(models.CronParser),
			cron.WithChain(
				cron.SkipIfStillRunning(cronLogger),
				cron.Recover(cronLogger),
			),
		),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

func (s *Scheduler) Start() {
	s.logger.Info("Starting scheduler")
	s.cron.Start()
}

// Stop halts the cron loop and waits for running cooks until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.logger.InfoContext(ctx, "Stopping scheduler")

	select {
	case <-s.cron.Stop().Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Add schedules a cook of path in a session.
func (s *Scheduler) Add(sessionID, path, cronExpr string, force bool) (models.Schedule, error) {
	if _, err := s.sessions.Get(sessionID); err != nil {
		return models.Schedule{}, err
	}

	schedule, err := models.NewSchedule(uuid.New().String(), sessionID, path, cronExpr, force)
	if err != nil {
		return models.Schedule{}, err
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	entryID, err := s.cron.AddFunc(cronExpr, func() { s.run(context.Background(), schedule.ID) })
	if err != nil {
		return models.Schedule{}, errors.Join(models.ErrInvalidSchedule, err)
	}

	s.entries[schedule.ID] = &entry{schedule: schedule, entryID: entryID}

	s.logger.Info("Added schedule",
		"schedule_id", schedule.ID,
		"session_id", sessionID,
		"path", path,
		"cron", cronExpr,
		"next_due_at", schedule.NextDueAt)

	return *schedule, nil
}

// Remove cancels a schedule.
func (s *Scheduler) Remove(id string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	e, ok := s.entries[id]
	if !ok {
		return ErrScheduleNotFound
	}

	s.cron.Remove(e.entryID)
	delete(s.entries, id)

	s.logger.Info("Removed schedule", "schedule_id", id)

	return nil
}

// RemoveSession cancels every schedule of a session and returns how many there were.
func (s *Scheduler) RemoveSession(sessionID string) int {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	removed := 0

	for id, e := range s.entries {
		if e.schedule.SessionID == sessionID {
			s.cron.Remove(e.entryID)
			delete(s.entries, id)
			removed++
		}
	}

	return removed
}

// List returns copies of the schedules of a session, or of all sessions when sessionID
// is empty, ordered by creation.
func (s *Scheduler) List(sessionID string) []models.Schedule {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	list := make([]models.Schedule, 0, len(s.entries))

	for _, e := range s.entries {
		if sessionID == "" || e.schedule.SessionID == sessionID {
			list = append(list, *e.schedule)
		}
	}

	slices.SortFunc(list, func(a, b models.Schedule) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}

		return strings.Compare(a.ID, b.ID)
	})

	return list
}

// RunNow runs a schedule immediately, outside its cron timing.
func (s *Scheduler) RunNow(ctx context.Context, id string) error {
	s.mutex.Lock()
	_, ok := s.entries[id]
	s.mutex.Unlock()

	if !ok {
		return ErrScheduleNotFound
	}

	return s.run(ctx, id)
}

func (s *Scheduler) run(ctx context.Context, id string) error {
	s.mutex.Lock()
	e, ok := s.entries[id]

	var schedule models.Schedule
	if ok {
		schedule = *e.schedule
	}
	s.mutex.Unlock()

	if !ok {
		return ErrScheduleNotFound
	}

	logger := s.logger.With("schedule_id", id, "session_id", schedule.SessionID, "path", schedule.Path)

	sess, err := s.sessions.Get(schedule.SessionID)
	if err != nil {
		logger.WarnContext(ctx, "Session is gone, dropping its schedules")
		s.RemoveSession(schedule.SessionID)

		return err
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)

		defer cancel()
	}

	err = sess.Do(func(g *graph.Graph, _ *undo.Manager) error {
		_, err := g.CookPath(ctx, schedule.Path, schedule.Force)

		return err
	})

	s.mutex.Lock()
	if e, ok := s.entries[id]; ok {
		e.schedule.MarkRun(time.Now().UTC(), err)
	}
	s.mutex.Unlock()

	if err != nil {
		logger.ErrorContext(ctx, "Scheduled cook failed", "error", err)

		return err
	}

	logger.DebugContext(ctx, "Scheduled cook finished")

	return nil
}
