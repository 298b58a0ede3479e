package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"assembly-service/internal/event"
	"assembly-service/pkg/logger"
)

// StreamEvents streams the assembly's room as server-sent events. The first
// events are the current snapshot; the stream ends when the client leaves or
// falls too far behind.
func (h *Handler) StreamEvents(c echo.Context) error {
	log := logger.FromEcho(c)
	id, assemblyID, err := target(c)
	if err != nil {
		return respondError(c, err)
	}

	ctx := c.Request().Context()
	sub, err := h.coord.Subscribe(ctx, id, assemblyID)
	if err != nil {
		return respondError(c, err)
	}
	defer sub.Close()

	w := c.Response()
	w.Header().Set(echo.HeaderContentType, "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering
	w.WriteHeader(http.StatusOK)
	w.Flush()

	log.Info("Event stream opened",
		zap.Uint("assembly_id", assemblyID),
		zap.Uint64("subscriber_id", uint64(sub.ID)))

	keepAlive := time.NewTicker(h.keepAlive)
	defer keepAlive.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("Event stream closed by client", zap.Uint("assembly_id", assemblyID))
			return nil
		case <-keepAlive.C:
			if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
				return nil
			}
			w.Flush()
		case evt, ok := <-sub.Events():
			if !ok {
				if sub.Overflowed() {
					log.Warn("Event stream dropped, client too slow", zap.Uint("assembly_id", assemblyID))
					fmt.Fprint(w, "event: overflow\ndata: {}\n\n")
					w.Flush()
				}
				return nil
			}
			if err := writeEvent(w, evt); err != nil {
				log.Warn("Client disconnected during event stream", zap.Error(err))
				return nil
			}
			w.Flush()
		}
	}
}

// writeEvent frames evt as one server-sent event
func writeEvent(w *echo.Response, evt event.Event) error {
	data, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "id: %d\nevent: %s\ndata: %s\n\n", evt.Sequence, evt.Type, data)
	return err
}
