package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"assembly-service/pkg/logger"
)

// VoteRequest casts the caller's ballot. UserID may be omitted; when given
// it must be the caller.
type VoteRequest struct {
	UserID uint   `json:"user_id"`
	Option string `json:"option"`
}

// CastVote records the caller's vote and returns the live tally
func (h *Handler) CastVote(c echo.Context) error {
	log := logger.FromEcho(c)
	id, itemID, err := target(c)
	if err != nil {
		return respondError(c, err)
	}

	var req VoteRequest
	if err := c.Bind(&req); err != nil {
		log.Warn("Invalid vote request", zap.Error(err))
		return respondError(c, validationError("invalid request data"))
	}

	tally, err := h.coord.CastVote(c.Request().Context(), id, itemID, req.UserID, req.Option)
	if err != nil {
		return respondError(c, err)
	}

	log.Info("Vote accepted", zap.Uint("agenda_item_id", itemID))
	return c.JSON(http.StatusCreated, tally)
}
