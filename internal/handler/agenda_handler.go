package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"assembly-service/internal/governance"
	"assembly-service/internal/model"
	"assembly-service/pkg/logger"
)

// AgendaItemRequest defines the structure for agenda item creation requests.
// IsWeighted defaults to true.
type AgendaItemRequest struct {
	Question   string   `json:"question"`
	Options    []string `json:"options"`
	IsWeighted *bool    `json:"is_weighted"`
}

// CloseResponse is returned when voting on an item ends
type CloseResponse struct {
	Item       *model.AgendaItem `json:"item"`
	FinalTally *governance.Tally `json:"final_tally"`
}

// ListAgendaItems returns the agenda of an assembly
func (h *Handler) ListAgendaItems(c echo.Context) error {
	id, assemblyID, err := target(c)
	if err != nil {
		return respondError(c, err)
	}
	items, err := h.coord.ListAgendaItems(c.Request().Context(), id, assemblyID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, items)
}

// CreateAgendaItem adds a question to an assembly
func (h *Handler) CreateAgendaItem(c echo.Context) error {
	log := logger.FromEcho(c)
	id, assemblyID, err := target(c)
	if err != nil {
		return respondError(c, err)
	}

	var req AgendaItemRequest
	if err := c.Bind(&req); err != nil {
		log.Warn("Invalid agenda item request", zap.Error(err))
		return respondError(c, validationError("invalid request data"))
	}
	weighted := true
	if req.IsWeighted != nil {
		weighted = *req.IsWeighted
	}

	item, err := h.coord.CreateAgendaItem(c.Request().Context(), id, assemblyID, governance.NewAgendaItem{
		Question:   req.Question,
		Options:    req.Options,
		IsWeighted: weighted,
	})
	if err != nil {
		return respondError(c, err)
	}

	log.Info("Agenda item created",
		zap.Uint("assembly_id", assemblyID),
		zap.Uint("agenda_item_id", item.ID),
		zap.Int("numeral", item.Numeral))
	return c.JSON(http.StatusCreated, item)
}

// OpenAgendaItem starts voting on an item
func (h *Handler) OpenAgendaItem(c echo.Context) error {
	id, itemID, err := target(c)
	if err != nil {
		return respondError(c, err)
	}
	item, err := h.coord.OpenAgendaItem(c.Request().Context(), id, itemID)
	if err != nil {
		return respondError(c, err)
	}
	logger.FromEcho(c).Info("Voting opened", zap.Uint("agenda_item_id", item.ID))
	return c.JSON(http.StatusOK, item)
}

// CloseAgendaItem ends voting on an item and returns the official result
func (h *Handler) CloseAgendaItem(c echo.Context) error {
	id, itemID, err := target(c)
	if err != nil {
		return respondError(c, err)
	}
	item, tally, err := h.coord.CloseAgendaItem(c.Request().Context(), id, itemID)
	if err != nil {
		return respondError(c, err)
	}
	logger.FromEcho(c).Info("Voting closed",
		zap.Uint("agenda_item_id", item.ID),
		zap.Int("total_votes", tally.TotalVotes))
	return c.JSON(http.StatusOK, CloseResponse{Item: item, FinalTally: tally})
}

// CancelAgendaItem discards an item
func (h *Handler) CancelAgendaItem(c echo.Context) error {
	id, itemID, err := target(c)
	if err != nil {
		return respondError(c, err)
	}
	item, err := h.coord.CancelAgendaItem(c.Request().Context(), id, itemID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, item)
}

// GetTally returns the live or final result of an item
func (h *Handler) GetTally(c echo.Context) error {
	id, itemID, err := target(c)
	if err != nil {
		return respondError(c, err)
	}
	tally, err := h.coord.GetTally(c.Request().Context(), id, itemID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, tally)
}
