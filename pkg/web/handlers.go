package web

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dukex/flowcook/pkg/flowstate"
	"github.com/dukex/flowcook/pkg/graph"
	"github.com/dukex/flowcook/pkg/models"
	"github.com/dukex/flowcook/pkg/registry"
	"github.com/dukex/flowcook/pkg/scheduler"
	"github.com/dukex/flowcook/pkg/session"
	"github.com/dukex/flowcook/pkg/undo"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

type APIHandlers struct {
	sessions  *session.Manager
	scheduler *scheduler.Scheduler
	registry  *registry.Registry
	validator *validator.Validate
}

func NewAPIHandlers(
	sessions *session.Manager,
	scheduler *scheduler.Scheduler,
	registry *registry.Registry,
	validator *validator.Validate,
) *APIHandlers {
	return &APIHandlers{
		sessions:  sessions,
		scheduler: scheduler,
		registry:  registry,
		validator: validator,
	}
}

// bind decodes the JSON body into req and validates it.
func (h *APIHandlers) bind(c fiber.Ctx, req any) error {
	if err := c.Bind().JSON(req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	return nil
}

// withSession runs fn inside the session named by the :id route parameter.
func (h *APIHandlers) withSession(c fiber.Ctx, fn func(g *graph.Graph, u *undo.Manager) error) error {
	s, err := h.sessions.Get(c.Params("id"))
	if err != nil {
		return err
	}

	return s.Do(fn)
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	persistenceCheck, ok := "Persistence not configured", true

	if p := h.sessions.Persistence(); p != nil {
		persistenceCheck = "Persistence is healthy"

		if err := p.HealthCheck(c.Context()); err != nil {
			persistenceCheck, ok = "Persistence is unhealthy: "+err.Error(), false
		}
	}

	status, httpStatus := "healthy", http.StatusOK
	if !ok {
		status, httpStatus = "unhealthy", http.StatusServiceUnavailable
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status": status,
		"checkers": fiber.Map{
			"registry":    strconv.Itoa(len(h.registry.Types())) + " node types registered",
			"persistence": persistenceCheck,
		},
		"sessions":  len(h.sessions.List()),
		"timestamp": time.Now().UTC(),
	})
}

func (h *APIHandlers) GetNodeTypes(c fiber.Ctx) error {
	types := make([]fiber.Map, 0)

	for _, id := range h.registry.Types() {
		factory, _ := h.registry.NodeFactory(id)
		types = append(types, fiber.Map{
			"id":          factory.ID(),
			"name":        factory.Name(),
			"description": factory.Description(),
			"shape":       factory.Shape(),
			"parameters":  factory.Parameters(),
		})
	}

	return c.JSON(types)
}

func (h *APIHandlers) describe(s *session.Session) SessionResponse {
	resp := SessionResponse{ID: s.ID(), CreatedAt: s.CreatedAt().Format(time.RFC3339)}

	_ = s.Do(func(g *graph.Graph, u *undo.Manager) error {
		resp.Nodes = g.Len()
		resp.CanUndo = u.CanUndo()
		resp.CanRedo = u.CanRedo()

		return nil
	})

	return resp
}

func (h *APIHandlers) CreateSession(c fiber.Ctx) error {
	s, err := h.sessions.Create(c.Context())
	if err != nil {
		return handleError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(h.describe(s))
}

func (h *APIHandlers) GetSessions(c fiber.Ctx) error {
	list := make([]SessionResponse, 0)
	for _, s := range h.sessions.List() {
		list = append(list, h.describe(s))
	}

	return c.JSON(list)
}

func (h *APIHandlers) GetSession(c fiber.Ctx) error {
	s, err := h.sessions.Get(c.Params("id"))
	if err != nil {
		return handleError(c, err)
	}

	return c.JSON(h.describe(s))
}

func (h *APIHandlers) DeleteSession(c fiber.Ctx) error {
	id := c.Params("id")

	if err := h.sessions.Close(c.Context(), id); err != nil {
		return handleError(c, err)
	}

	if h.scheduler != nil {
		h.scheduler.RemoveSession(id)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) GetNodes(c fiber.Ctx) error {
	var nodes []models.NodeInfo

	err := h.withSession(c, func(g *graph.Graph, _ *undo.Manager) error {
		nodes = make([]models.NodeInfo, 0, g.Len())
		for _, n := range g.Nodes() {
			nodes = append(nodes, g.Info(n))
		}

		return nil
	})
	if err != nil {
		return handleError(c, err)
	}

	return c.JSON(nodes)
}

func (h *APIHandlers) GetNode(c fiber.Ctx) error {
	path := c.Query("path")
	if path == "" {
		return badRequest(c, "Query parameter path is required")
	}

	var resp NodeResponse

	err := h.withSession(c, func(g *graph.Graph, _ *undo.Manager) error {
		n, err := g.MustLookup(path)
		if err != nil {
			return err
		}

		resp = nodeResponse(g, n, n.State() == models.StateUnchanged)

		return nil
	})
	if err != nil {
		return handleError(c, err)
	}

	return c.JSON(resp)
}

func (h *APIHandlers) CreateNode(c fiber.Ctx) error {
	var req CreateNodeRequest
	if err := h.bind(c, &req); err != nil {
		return err
	}

	if req.Parent == "" {
		req.Parent = graph.RootPath
	}

	var resp NodeResponse

	err := h.withSession(c, func(g *graph.Graph, u *undo.Manager) error {
		var (
			n   *graph.Node
			err error
		)

		switch {
		case req.Position != nil:
			n, err = u.CreateAt(req.Type, req.Name, req.Parent, req.Unique, *req.Position)
		case req.Unique:
			n, err = u.CreateUnique(req.Type, req.Name, req.Parent)
		default:
			n, err = u.Create(req.Type, req.Name, req.Parent)
		}

		if err != nil {
			return err
		}

		resp = nodeResponse(g, n, false)

		return nil
	})
	if err != nil {
		return handleError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(resp)
}

func (h *APIHandlers) DeleteNode(c fiber.Ctx) error {
	path := c.Query("path")
	if path == "" {
		return badRequest(c, "Query parameter path is required")
	}

	err := h.withSession(c, func(_ *graph.Graph, u *undo.Manager) error {
		return u.Delete(path)
	})
	if err != nil {
		return handleError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) RenameNode(c fiber.Ctx) error {
	var req RenameNodeRequest
	if err := h.bind(c, &req); err != nil {
		return err
	}

	var (
		changed bool
		path    string
	)

	err := h.withSession(c, func(g *graph.Graph, u *undo.Manager) error {
		n, err := g.MustLookup(req.Path)
		if err != nil {
			return err
		}

		changed, err = u.Rename(n, req.Name)
		path = n.Path()

		return err
	})
	if err != nil {
		return handleError(c, err)
	}

	return c.JSON(fiber.Map{"changed": changed, "path": path})
}

func (h *APIHandlers) MoveNode(c fiber.Ctx) error {
	var req MoveNodeRequest
	if err := h.bind(c, &req); err != nil {
		return err
	}

	var (
		changed bool
		path    string
	)

	err := h.withSession(c, func(g *graph.Graph, u *undo.Manager) error {
		n, err := g.MustLookup(req.Path)
		if err != nil {
			return err
		}

		changed, err = u.Move(n, req.Parent)
		path = n.Path()

		return err
	})
	if err != nil {
		return handleError(c, err)
	}

	return c.JSON(fiber.Map{"changed": changed, "path": path})
}

func (h *APIHandlers) SetParameter(c fiber.Ctx) error {
	var req SetParameterRequest
	if err := h.bind(c, &req); err != nil {
		return err
	}

	var resp NodeResponse

	err := h.withSession(c, func(g *graph.Graph, u *undo.Manager) error {
		n, err := g.MustLookup(req.Path)
		if err != nil {
			return err
		}

		if err := u.SetParameter(n, req.Name, req.Value); err != nil {
			return err
		}

		resp = nodeResponse(g, n, false)

		return nil
	})
	if err != nil {
		return handleError(c, err)
	}

	return c.JSON(resp)
}

func (h *APIHandlers) SetPosition(c fiber.Ctx) error {
	var req SetPositionRequest
	if err := h.bind(c, &req); err != nil {
		return err
	}

	err := h.withSession(c, func(g *graph.Graph, u *undo.Manager) error {
		n, err := g.MustLookup(req.Path)
		if err != nil {
			return err
		}

		return u.SetPosition(n, models.Position{X: req.X, Y: req.Y})
	})
	if err != nil {
		return handleError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) GetConnections(c fiber.Ctx) error {
	var list []ConnectionResponse

	err := h.withSession(c, func(g *graph.Graph, _ *undo.Manager) error {
		list = make([]ConnectionResponse, 0)
		for _, conn := range g.Connections() {
			list = append(list, connectionResponse(g, conn))
		}

		return nil
	})
	if err != nil {
		return handleError(c, err)
	}

	return c.JSON(list)
}

func (h *APIHandlers) CreateConnection(c fiber.Ctx) error {
	var req ConnectRequest
	if err := h.bind(c, &req); err != nil {
		return err
	}

	var resp ConnectionResponse

	err := h.withSession(c, func(g *graph.Graph, u *undo.Manager) error {
		source, err := g.MustLookup(req.Source)
		if err != nil {
			return err
		}

		target, err := g.MustLookup(req.Target)
		if err != nil {
			return err
		}

		conn, err := u.SetInput(target, req.Input, source, req.Output)
		if err != nil {
			return err
		}

		resp = connectionResponse(g, conn)

		return nil
	})
	if err != nil {
		return handleError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(resp)
}

func (h *APIHandlers) DeleteConnection(c fiber.Ctx) error {
	id := c.Params("connectionId")

	err := h.withSession(c, func(g *graph.Graph, u *undo.Manager) error {
		conn, ok := g.Connection(id)
		if !ok {
			return errConnectionNotFound
		}

		return u.RemoveConnection(conn)
	})
	if err != nil {
		return handleError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) Cook(c fiber.Ctx) error {
	var req CookRequest
	if err := h.bind(c, &req); err != nil {
		return err
	}

	var resp NodeResponse

	err := h.withSession(c, func(g *graph.Graph, _ *undo.Manager) error {
		n, err := g.CookPath(c.Context(), req.Path, req.Force)
		if err != nil {
			return err
		}

		resp = nodeResponse(g, n, true)

		return nil
	})
	if err != nil {
		return handleError(c, err)
	}

	return c.JSON(resp)
}

func (h *APIHandlers) GetOutput(c fiber.Ctx) error {
	path := c.Query("path")
	if path == "" {
		return badRequest(c, "Query parameter path is required")
	}

	index, err := strconv.Atoi(c.Query("index", "0"))
	if err != nil {
		return badRequest(c, "Query parameter index must be an integer")
	}

	var (
		lines []string
		state models.NodeState
	)

	err = h.withSession(c, func(g *graph.Graph, _ *undo.Manager) error {
		n, err := g.MustLookup(path)
		if err != nil {
			return err
		}

		state = n.State()
		lines, err = g.Output(n, index)

		return err
	})
	if err != nil {
		return handleError(c, err)
	}

	if lines == nil {
		lines = []string{}
	}

	return c.JSON(fiber.Map{"path": path, "index": index, "state": state, "lines": lines})
}

func (h *APIHandlers) GetGlobals(c fiber.Ctx) error {
	var values map[string][]string

	err := h.withSession(c, func(g *graph.Graph, _ *undo.Manager) error {
		values = g.Globals().Snapshot()

		return nil
	})
	if err != nil {
		return handleError(c, err)
	}

	return c.JSON(values)
}

func (h *APIHandlers) GetGlobal(c fiber.Ctx) error {
	key := c.Params("key")

	var (
		values []string
		found  bool
	)

	err := h.withSession(c, func(g *graph.Graph, _ *undo.Manager) error {
		values, found = g.Globals().Get(key)

		return nil
	})
	if err != nil {
		return handleError(c, err)
	}

	if !found {
		return problem(c, fiber.StatusNotFound, "global_not_found", "global "+key+" is not set")
	}

	return c.JSON(fiber.Map{"key": key, "values": values})
}

func (h *APIHandlers) SetGlobal(c fiber.Ctx) error {
	var req SetGlobalRequest
	if err := h.bind(c, &req); err != nil {
		return err
	}

	key := c.Params("key")

	err := h.withSession(c, func(_ *graph.Graph, u *undo.Manager) error {
		return u.SetGlobal(key, req.Values)
	})
	if err != nil {
		return handleError(c, err)
	}

	return c.JSON(fiber.Map{"key": key, "values": req.Values})
}

func (h *APIHandlers) DeleteGlobal(c fiber.Ctx) error {
	key := c.Params("key")

	var deleted bool

	err := h.withSession(c, func(_ *graph.Graph, u *undo.Manager) error {
		var err error
		deleted, err = u.DeleteGlobal(key)

		return err
	})
	if err != nil {
		return handleError(c, err)
	}

	if !deleted {
		return problem(c, fiber.StatusNotFound, "global_not_found", "global "+key+" is not set")
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) Undo(c fiber.Ctx) error {
	return h.history(c, (*undo.Manager).Undo)
}

func (h *APIHandlers) Redo(c fiber.Ctx) error {
	return h.history(c, (*undo.Manager).Redo)
}

func (h *APIHandlers) history(c fiber.Ctx, step func(*undo.Manager) (string, error)) error {
	var resp HistoryResponse

	err := h.withSession(c, func(_ *graph.Graph, u *undo.Manager) error {
		label, err := step(u)
		if err != nil {
			return err
		}

		resp = HistoryResponse{Label: label, CanUndo: u.CanUndo(), CanRedo: u.CanRedo()}

		return nil
	})
	if err != nil {
		return handleError(c, err)
	}

	return c.JSON(resp)
}

// GetFlowstate exports the session graph, as YAML when ?format=yaml and JSON otherwise.
func (h *APIHandlers) GetFlowstate(c fiber.Ctx) error {
	s, err := h.sessions.Get(c.Params("id"))
	if err != nil {
		return handleError(c, err)
	}

	enc := flowstate.JSON
	contentType := fiber.MIMEApplicationJSON

	if strings.EqualFold(c.Query("format"), "yaml") {
		enc, contentType = flowstate.YAML, "application/yaml"
	}

	data, err := flowstate.Encode(s.Document(), enc)
	if err != nil {
		return internalError(c, err)
	}

	c.Set(fiber.HeaderContentType, contentType)

	return c.Send(data)
}

// PutFlowstate replaces the session graph with the document in the request body.
func (h *APIHandlers) PutFlowstate(c fiber.Ctx) error {
	s, err := h.sessions.Get(c.Params("id"))
	if err != nil {
		return handleError(c, err)
	}

	enc := flowstate.JSON
	if strings.Contains(c.Get(fiber.HeaderContentType), "yaml") {
		enc = flowstate.YAML
	}

	doc, err := flowstate.Decode(c.Body(), enc)
	if err != nil {
		return handleError(c, err)
	}

	if err := s.LoadDocument(doc); err != nil {
		return handleError(c, err)
	}

	return c.JSON(h.describe(s))
}

func (h *APIHandlers) SaveFlowstate(c fiber.Ctx) error {
	var req FlowstateRequest
	if err := h.bind(c, &req); err != nil {
		return err
	}

	s, err := h.sessions.Get(c.Params("id"))
	if err != nil {
		return handleError(c, err)
	}

	if err := s.Save(c.Context(), req.Name); err != nil {
		return handleError(c, err)
	}

	return c.JSON(fiber.Map{"name": req.Name})
}

func (h *APIHandlers) LoadFlowstate(c fiber.Ctx) error {
	var req FlowstateRequest
	if err := h.bind(c, &req); err != nil {
		return err
	}

	s, err := h.sessions.Get(c.Params("id"))
	if err != nil {
		return handleError(c, err)
	}

	if err := s.Load(c.Context(), req.Name); err != nil {
		return handleError(c, err)
	}

	return c.JSON(h.describe(s))
}

func (h *APIHandlers) GetStoredFlowstates(c fiber.Ctx) error {
	p := h.sessions.Persistence()
	if p == nil {
		return handleError(c, session.ErrNoPersistence)
	}

	names, err := p.Flowstates(c.Context())
	if err != nil {
		return handleError(c, err)
	}

	if names == nil {
		names = []string{}
	}

	return c.JSON(names)
}

func (h *APIHandlers) DeleteStoredFlowstate(c fiber.Ctx) error {
	p := h.sessions.Persistence()
	if p == nil {
		return handleError(c, session.ErrNoPersistence)
	}

	if err := p.DeleteFlowstate(c.Context(), c.Params("name")); err != nil {
		return handleError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) CreateSchedule(c fiber.Ctx) error {
	var req CreateScheduleRequest
	if err := h.bind(c, &req); err != nil {
		return err
	}

	schedule, err := h.scheduler.Add(c.Params("id"), req.Path, req.Cron, req.Force)
	if err != nil {
		return handleError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(schedule)
}

func (h *APIHandlers) GetSchedules(c fiber.Ctx) error {
	id := c.Params("id")
	if _, err := h.sessions.Get(id); err != nil {
		return handleError(c, err)
	}

	return c.JSON(h.scheduler.List(id))
}

func (h *APIHandlers) DeleteSchedule(c fiber.Ctx) error {
	id, scheduleID := c.Params("id"), c.Params("scheduleId")

	owned := false

	for _, s := range h.scheduler.List(id) {
		if s.ID == scheduleID {
			owned = true
		}
	}

	if !owned {
		return handleError(c, scheduler.ErrScheduleNotFound)
	}

	if err := h.scheduler.Remove(scheduleID); err != nil {
		return handleError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}
