package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"assembly-service/internal/governance"
	"assembly-service/pkg/logger"
)

// statusFor maps a governance code onto an HTTP status. Conflicts share 409;
// clients tell them apart through the code field.
func statusFor(code governance.Code) int {
	switch code {
	case governance.CodeNotFound:
		return http.StatusNotFound
	case governance.CodeUnauthorized, governance.CodeNotAttending:
		return http.StatusForbidden
	case governance.CodeInvalidStateTransition, governance.CodeSessionNotOpen, governance.CodeDuplicateVote:
		return http.StatusConflict
	case governance.CodeSessionBusy:
		return http.StatusLocked
	case governance.CodeValidation:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes err as {"error", "code"}
func respondError(c echo.Context, err error) error {
	log := logger.FromEcho(c)

	if errors.Is(err, context.Canceled) {
		log.Debug("Request cancelled by client")
		return c.NoContent(http.StatusServiceUnavailable)
	}

	var gerr *governance.Error
	if errors.As(err, &gerr) {
		log.Info("Governance request rejected",
			zap.String("code", string(gerr.Code)),
			zap.String("reason", gerr.Message))
		return c.JSON(statusFor(gerr.Code), echo.Map{
			"error": gerr.Message,
			"code":  gerr.Code,
		})
	}

	log.Error("Governance request failed", zap.Error(err))
	return c.JSON(http.StatusInternalServerError, echo.Map{
		"error": "internal error",
		"code":  governance.CodeInternal,
	})
}

func validationError(message string) error {
	return &governance.Error{Code: governance.CodeValidation, Message: message}
}

// paramID parses a positive numeric path parameter
func paramID(c echo.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, validationError("invalid " + name)
	}
	return uint(id), nil
}
