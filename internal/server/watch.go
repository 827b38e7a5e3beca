package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/taoerp/taoerp/internal/watch"
)

var watchableCollections = map[string]bool{
	"people":         true,
	"products":       true,
	"service_orders": true,
	"purchases":      true,
	"settings":       true,
}

// WatchCollection streams change events for one collection over SSE. Clients
// are expected to re-fetch on every event; the payload carries only the
// record id and operation.
func (s *Server) WatchCollection(c *gin.Context) {
	collection := strings.TrimSpace(c.Param("collection"))
	if !watchableCollections[collection] {
		AbortWithError(c, invalidRequestError())
		return
	}

	events, cancel := s.bus.Subscribe(collection)
	defer cancel()

	writer := c.Writer
	headers := writer.Header()
	headers.Set("Content-Type", "text/event-stream")
	headers.Set("Cache-Control", "no-cache")
	headers.Set("Connection", "keep-alive")
	headers.Set("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	flusher, ok := writer.(http.Flusher)
	if !ok {
		AbortWithError(c, ErrInternal)
		return
	}

	if _, err := io.WriteString(writer, "retry: 2000\n\n"); err != nil {
		return
	}
	flusher.Flush()

	ctx := c.Request.Context()
	heartbeat := time.NewTicker(15 * time.Second)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case event, open := <-events:
			if !open {
				return
			}
			if err := writeWatchEvent(writer, event); err != nil {
				return
			}
			flusher.Flush()
		case <-heartbeat.C:
			if _, err := io.WriteString(writer, ": heartbeat\n\n"); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func writeWatchEvent(w io.Writer, event watch.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "data: %s\n\n", data)
	return err
}
