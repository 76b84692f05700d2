package web

import "github.com/gofiber/fiber/v3"

// Routes registers every API endpoint on router.
func (h *APIHandlers) Routes(router fiber.Router) {
	router.Get("/health", h.HealthCheck)
	router.Get("/node-types", h.GetNodeTypes)

	f := router.Group("/flowstates")
	f.Get("/", h.GetStoredFlowstates)
	f.Delete("/:name", h.DeleteStoredFlowstate)

	s := router.Group("/sessions")
	s.Post("/", h.CreateSession)
	s.Get("/", h.GetSessions)
	s.Get("/:id", h.GetSession)
	s.Delete("/:id", h.DeleteSession)

	s.Get("/:id/nodes", h.GetNodes)
	s.Post("/:id/nodes", h.CreateNode)
	s.Delete("/:id/nodes", h.DeleteNode)
	s.Patch("/:id/nodes/rename", h.RenameNode)
	s.Patch("/:id/nodes/move", h.MoveNode)
	s.Get("/:id/node", h.GetNode)
	s.Put("/:id/parameters", h.SetParameter)
	s.Put("/:id/position", h.SetPosition)

	s.Get("/:id/connections", h.GetConnections)
	s.Post("/:id/connections", h.CreateConnection)
	s.Delete("/:id/connections/:connectionId", h.DeleteConnection)

	s.Post("/:id/cook", h.Cook)
	s.Get("/:id/output", h.GetOutput)

	s.Get("/:id/globals", h.GetGlobals)
	s.Get("/:id/globals/:key", h.GetGlobal)
	s.Put("/:id/globals/:key", h.SetGlobal)
	s.Delete("/:id/globals/:key", h.DeleteGlobal)

	s.Post("/:id/undo", h.Undo)
	s.Post("/:id/redo", h.Redo)

	s.Get("/:id/flowstate", h.GetFlowstate)
	s.Put("/:id/flowstate", h.PutFlowstate)
	s.Post("/:id/flowstate/save", h.SaveFlowstate)
	s.Post("/:id/flowstate/load", h.LoadFlowstate)

	s.Get("/:id/schedules", h.GetSchedules)
	s.Post("/:id/schedules", h.CreateSchedule)
	s.Delete("/:id/schedules/:scheduleId", h.DeleteSchedule)
}
