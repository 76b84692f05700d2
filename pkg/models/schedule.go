package models

import (
	"errors"
	"time"

	"github.com/robfig/cron/v3"
)

// ErrInvalidSchedule is returned when schedule validation fails.
var ErrInvalidSchedule = errors.New("invalid schedule configuration")

// CronParser accepts 5-field expressions and descriptors.
var CronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// Schedule re-cooks one node of a session on a cron expression.
type Schedule struct {
	ID        string `json:"id"         validate:"required"`
	SessionID string `json:"session_id" validate:"required"`
	Path      string `json:"path"       validate:"required,startswith=/"`

	// CronExpression uses the standard 5-field format or a descriptor such as @every 1m.
	CronExpression string `json:"cron_expression" validate:"required"`

	// Force bypasses the fingerprint cache of the node and its upstream.
	Force bool `json:"force"`

	NextDueAt time.Time  `json:"next_due_at"`
	LastRunAt *time.Time `json:"last_run_at,omitempty"`
	LastError string     `json:"last_error,omitempty"`
	RunCount  int        `json:"run_count"`
	CreatedAt time.Time  `json:"created_at"`
}

// NewSchedule creates a schedule with its first due time calculated from now.
func NewSchedule(id, sessionID, path, cronExpression string, force bool) (*Schedule, error) {
	schedule := &Schedule{
		ID:             id,
		SessionID:      sessionID,
		Path:           path,
		CronExpression: cronExpression,
		Force:          force,
		CreatedAt:      time.Now().UTC(),
	}

	if err := schedule.Validate(); err != nil {
		return nil, err
	}

	if err := schedule.calculateNextDueAt(schedule.CreatedAt); err != nil {
		return nil, err
	}

	return schedule, nil
}

// ParseCron parses a cron expression the way schedules do.
func ParseCron(expr string) (cron.Schedule, error) {
	return CronParser.Parse(expr)
}

// MarkRun records a run finished at now and moves NextDueAt forward.
func (s *Schedule) MarkRun(now time.Time, err error) {
	s.LastRunAt = &now
	s.RunCount++
	s.LastError = ""

	if err != nil {
		s.LastError = err.Error()
	}

	_ = s.calculateNextDueAt(now)
}

func (s *Schedule) calculateNextDueAt(referenceTime time.Time) error {
	parsed, err := ParseCron(s.CronExpression)
	if err != nil {
		return err
	}

	s.NextDueAt = parsed.Next(referenceTime)

	return nil
}

// Validate checks the required fields and the cron expression.
func (s *Schedule) Validate() error {
	if s.ID == "" || s.SessionID == "" || s.Path == "" || s.CronExpression == "" {
		return ErrInvalidSchedule
	}

	if _, err := ParseCron(s.CronExpression); err != nil {
		return errors.Join(ErrInvalidSchedule, err)
	}

	return nil
}
