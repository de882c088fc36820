package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"nhooyr.io/websocket"

	"github.com/gabe/tradelab/internal/events"
)

// socketWriteWait bounds a single frame write to a slow client.
const socketWriteWait = 10 * time.Second

// EventsSocketHandler streams the same event feed as the SSE endpoint
// over a WebSocket connection.
type EventsSocketHandler struct {
	bus *events.Bus
	log zerolog.Logger
}

// NewEventsSocketHandler creates a new events WebSocket handler.
func NewEventsSocketHandler(bus *events.Bus, log zerolog.Logger) *EventsSocketHandler {
	return &EventsSocketHandler{
		bus: bus,
		log: log.With().Str("component", "events_socket").Logger(),
	}
}

// ServeHTTP handles GET /api/events/ws requests.
func (h *EventsSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		// API is open, same as the CORS policy on the REST routes.
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.log.Warn().Err(err).Msg("WebSocket accept failed")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "stream closed")

	h.log.Info().Msg("Client connected to event socket")

	// Read side is only used to observe disconnects.
	ctx := conn.CloseRead(r.Context())

	eventChan := make(chan *events.Event, 100)
	handler := func(event *events.Event) {
		select {
		case eventChan <- event:
		default:
			h.log.Warn().
				Str("event_type", string(event.Type)).
				Msg("Socket channel full, dropping event")
		}
	}

	for _, eventType := range events.AllTypes() {
		h.bus.Subscribe(eventType, handler)
	}

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			h.log.Info().Msg("Client disconnected from event socket")
			conn.Close(websocket.StatusNormalClosure, "")
			return

		case event := <-eventChan:
			if err := h.write(ctx, conn, event); err != nil {
				h.log.Debug().Err(err).Msg("Socket write failed, closing")
				return
			}

		case <-heartbeat.C:
			ping := map[string]interface{}{
				"type":      "heartbeat",
				"timestamp": time.Now().UTC().Format(time.RFC3339),
			}
			if err := h.write(ctx, conn, ping); err != nil {
				h.log.Debug().Err(err).Msg("Socket heartbeat failed, closing")
				return
			}
		}
	}
}

// write sends one JSON frame with a bounded deadline.
func (h *EventsSocketHandler) write(ctx context.Context, conn *websocket.Conn, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	writeCtx, cancel := context.WithTimeout(ctx, socketWriteWait)
	defer cancel()

	return conn.Write(writeCtx, websocket.MessageText, data)
}
