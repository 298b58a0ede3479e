package handler

import (
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"assembly-service/internal/governance"
	mid "assembly-service/internal/middleware"
)

// DefaultKeepAlive is the interval between comments on idle event streams
const DefaultKeepAlive = 15 * time.Second

// Handler serves the governance API
type Handler struct {
	coord     *governance.Coordinator
	db        *gorm.DB
	keepAlive time.Duration
}

func New(coord *governance.Coordinator, db *gorm.DB) *Handler {
	return &Handler{coord: coord, db: db, keepAlive: DefaultKeepAlive}
}

// WithKeepAlive overrides the idle stream interval
func (h *Handler) WithKeepAlive(d time.Duration) *Handler {
	h.keepAlive = d
	return h
}

// Register mounts every governance route on g. The group must run
// AuthMiddleware so an identity is available.
func (h *Handler) Register(g *echo.Group) {
	assemblies := g.Group("/assemblies")
	assemblies.POST("", h.CreateAssembly)
	assemblies.GET("/:id", h.GetAssembly)
	assemblies.POST("/:id/start", h.StartAssembly)
	assemblies.POST("/:id/complete", h.CompleteAssembly)
	assemblies.POST("/:id/cancel", h.CancelAssembly)
	assemblies.POST("/:id/attendance", h.RegisterAttendance)
	assemblies.GET("/:id/quorum", h.GetQuorum)
	assemblies.GET("/:id/agenda", h.ListAgendaItems)
	assemblies.POST("/:id/agenda", h.CreateAgendaItem)
	assemblies.GET("/:id/audit", h.AuditTrail)
	assemblies.GET("/:id/events", h.StreamEvents)

	agenda := g.Group("/agenda")
	agenda.POST("/:id/open", h.OpenAgendaItem)
	agenda.POST("/:id/close", h.CloseAgendaItem)
	agenda.POST("/:id/cancel", h.CancelAgendaItem)
	agenda.POST("/:id/votes", h.CastVote)
	agenda.GET("/:id/tally", h.GetTally)
}

func caller(c echo.Context) (governance.Identity, error) {
	id, ok := mid.IdentityFromContext(c)
	if !ok {
		return governance.Identity{}, &governance.Error{Code: governance.CodeUnauthorized, Message: "missing identity"}
	}
	return id, nil
}

// target returns the caller and the numeric :id path parameter
func target(c echo.Context) (governance.Identity, uint, error) {
	id, err := caller(c)
	if err != nil {
		return governance.Identity{}, 0, err
	}
	resourceID, err := paramID(c, "id")
	if err != nil {
		return governance.Identity{}, 0, err
	}
	return id, resourceID, nil
}
