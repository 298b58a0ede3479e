package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"assembly-service/internal/governance"
	"assembly-service/internal/model"
	"assembly-service/pkg/logger"
)

// AssemblyRequest defines the structure for assembly creation requests
type AssemblyRequest struct {
	Title          string           `json:"title"`
	ScheduledAt    time.Time        `json:"scheduled_at"`
	Location       string           `json:"location"`
	Type           string           `json:"type"`
	RequiredQuorum *decimal.Decimal `json:"required_quorum"`
}

// AttendanceRequest registers a user as present or absent. UserID defaults
// to the caller and Present to true.
type AttendanceRequest struct {
	UserID  uint  `json:"user_id"`
	Present *bool `json:"present"`
}

// CreateAssembly schedules a new assembly
func (h *Handler) CreateAssembly(c echo.Context) error {
	log := logger.FromEcho(c)
	id, err := caller(c)
	if err != nil {
		return respondError(c, err)
	}

	var req AssemblyRequest
	if err := c.Bind(&req); err != nil {
		log.Warn("Invalid assembly request", zap.Error(err))
		return respondError(c, validationError("invalid request data"))
	}

	a, err := h.coord.CreateAssembly(c.Request().Context(), id, governance.NewAssembly{
		Title:          req.Title,
		ScheduledAt:    req.ScheduledAt,
		Location:       req.Location,
		Type:           model.AssemblyType(req.Type),
		RequiredQuorum: req.RequiredQuorum,
	})
	if err != nil {
		return respondError(c, err)
	}

	log.Info("Assembly created", zap.Uint("assembly_id", a.ID))
	return c.JSON(http.StatusCreated, a)
}

// GetAssembly returns one assembly
func (h *Handler) GetAssembly(c echo.Context) error {
	id, assemblyID, err := target(c)
	if err != nil {
		return respondError(c, err)
	}
	a, err := h.coord.GetAssembly(c.Request().Context(), id, assemblyID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, a)
}

// StartAssembly moves an assembly to IN_PROGRESS
func (h *Handler) StartAssembly(c echo.Context) error {
	return h.transition(c, h.coord.StartAssembly)
}

// CompleteAssembly closes an assembly
func (h *Handler) CompleteAssembly(c echo.Context) error {
	return h.transition(c, h.coord.CompleteAssembly)
}

// CancelAssembly cancels an assembly and its unfinished agenda items
func (h *Handler) CancelAssembly(c echo.Context) error {
	return h.transition(c, h.coord.CancelAssembly)
}

type assemblyTransition func(ctx context.Context, id governance.Identity, assemblyID uint) (*model.Assembly, error)

func (h *Handler) transition(c echo.Context, apply assemblyTransition) error {
	id, assemblyID, err := target(c)
	if err != nil {
		return respondError(c, err)
	}
	a, err := apply(c.Request().Context(), id, assemblyID)
	if err != nil {
		return respondError(c, err)
	}
	logger.FromEcho(c).Info("Assembly status changed",
		zap.Uint("assembly_id", a.ID),
		zap.String("status", string(a.Status)))
	return c.JSON(http.StatusOK, a)
}

// RegisterAttendance marks a user present or absent and returns the quorum
func (h *Handler) RegisterAttendance(c echo.Context) error {
	id, assemblyID, err := target(c)
	if err != nil {
		return respondError(c, err)
	}

	var req AttendanceRequest
	if err := c.Bind(&req); err != nil {
		return respondError(c, validationError("invalid request data"))
	}
	present := true
	if req.Present != nil {
		present = *req.Present
	}

	q, err := h.coord.RegisterAttendance(c.Request().Context(), id, assemblyID, req.UserID, present)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, q)
}

// GetQuorum returns the current quorum of an assembly
func (h *Handler) GetQuorum(c echo.Context) error {
	id, assemblyID, err := target(c)
	if err != nil {
		return respondError(c, err)
	}
	q, err := h.coord.GetQuorum(c.Request().Context(), id, assemblyID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, q)
}

// AuditTrail returns the audit entries of an assembly
func (h *Handler) AuditTrail(c echo.Context) error {
	id, assemblyID, err := target(c)
	if err != nil {
		return respondError(c, err)
	}
	entries, err := h.coord.AuditTrail(c.Request().Context(), id, assemblyID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, entries)
}
