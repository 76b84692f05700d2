package web

import (
	"errors"

	"github.com/dukex/flowcook/pkg/flowstate"
	"github.com/dukex/flowcook/pkg/globals"
	"github.com/dukex/flowcook/pkg/graph"
	"github.com/dukex/flowcook/pkg/models"
	"github.com/dukex/flowcook/pkg/persistence"
	"github.com/dukex/flowcook/pkg/scheduler"
	"github.com/dukex/flowcook/pkg/session"
	"github.com/dukex/flowcook/pkg/undo"
	"github.com/gofiber/fiber/v3"
	"github.com/moogar0880/problems"
)

var errConnectionNotFound = errors.New("connection not found")

func problem(c fiber.Ctx, status int, problemType, detail string) error {
	p := problems.NewStatusProblem(status).
		WithInstance(c.Path()).
		WithType(problemType).
		WithDetail(detail)

	return c.Status(status).JSON(p)
}

func badRequest(c fiber.Ctx, detail string) error {
	return problem(c, fiber.StatusBadRequest, "validation_error", detail)
}

func internalError(c fiber.Ctx, err error) error {
	p := problems.NewStatusProblem(fiber.StatusInternalServerError).
		WithInstance(c.Path()).
		WithType("internal_error").
		WithError(err)

	return c.Status(fiber.StatusInternalServerError).JSON(p)
}

// handleError maps session, graph, storage and scheduler errors to problem responses.
func handleError(c fiber.Ctx, err error) error {
	switch {
	case session.IsSessionNotFound(err):
		return problem(c, fiber.StatusNotFound, "session_not_found", err.Error())
	case graph.IsNodeNotFound(err):
		return problem(c, fiber.StatusNotFound, "node_not_found", err.Error())
	case persistence.IsFlowstateNotFound(err):
		return problem(c, fiber.StatusNotFound, "flowstate_not_found", err.Error())
	case errors.Is(err, errConnectionNotFound):
		return problem(c, fiber.StatusNotFound, "connection_not_found", err.Error())
	case errors.Is(err, scheduler.ErrScheduleNotFound):
		return problem(c, fiber.StatusNotFound, "schedule_not_found", err.Error())
	case errors.Is(err, graph.ErrNameTaken):
		return problem(c, fiber.StatusConflict, "name_taken", err.Error())
	case graph.IsCyclicDependency(err):
		return problem(c, fiber.StatusConflict, "cyclic_dependency", err.Error())
	case errors.Is(err, undo.ErrNothingToUndo), errors.Is(err, undo.ErrNothingToRedo):
		return problem(c, fiber.StatusConflict, "empty_history", err.Error())
	case graph.IsValidationError(err),
		flowstate.IsInvalidDocument(err),
		globals.IsInvalidGlobalKey(err),
		persistence.IsInvalidFlowstateName(err),
		errors.Is(err, models.ErrInvalidSchedule):
		return badRequest(c, err.Error())
	case errors.Is(err, session.ErrTooManySessions):
		return problem(c, fiber.StatusTooManyRequests, "too_many_sessions", err.Error())
	case errors.Is(err, session.ErrNoPersistence):
		return problem(c, fiber.StatusServiceUnavailable, "persistence_unavailable", err.Error())
	default:
		return internalError(c, err)
	}
}
