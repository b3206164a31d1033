package metricsink

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-logr/logr"
	"github.com/nats-io/nats.go"
)

// natsPayload is the wire shape published for each transition.
type natsPayload struct {
	EventID   string `json:"event_id"`
	Timestamp string `json:"timestamp"`
	Namespace string `json:"namespace"`
	Name      string `json:"name"`
	OldStatus string `json:"old_status"`
	NewStatus string `json:"new_status"`
}

// NATSHandler publishes each transition onto
// "sessionserver.<namespace>.<name>.status". It degrades gracefully when
// NATS is unreachable: a nil or disconnected connection silently drops the
// publish rather than blocking the consumer goroutine.
type NATSHandler struct {
	conn *nats.Conn
	log  logr.Logger
}

// NewNATSHandler dials the given URL. A dial failure is not fatal to the
// caller: it returns a handler with a nil connection that silently no-ops.
func NewNATSHandler(url string, log logr.Logger) *NATSHandler {
	conn, err := nats.Connect(url)
	if err != nil {
		log.Info("NATS unavailable for metric sink, continuing without it", "url", url, "error", err.Error())
		return &NATSHandler{conn: nil, log: log}
	}
	return &NATSHandler{conn: conn, log: log}
}

func (h *NATSHandler) Handle(_ context.Context, e Event) {
	if h.conn == nil || !h.conn.IsConnected() {
		return
	}
	payload := natsPayload{
		EventID:   e.EventID,
		Timestamp: e.Timestamp.UTC().Format("2006-01-02T15:04:05.000000Z"),
		Namespace: e.Namespace,
		Name:      e.Name,
		OldStatus: string(e.OldStatus),
		NewStatus: string(e.NewStatus),
	}
	body, err := json.Marshal(payload)
	if err != nil {
		h.log.Info("failed to marshal metric event for NATS", "error", err.Error())
		return
	}
	subject := fmt.Sprintf("sessionserver.%s.%s.status", e.Namespace, e.Name)
	if err := h.conn.Publish(subject, body); err != nil {
		h.log.Info("failed to publish metric event to NATS", "subject", subject, "error", err.Error())
	}
}

func (h *NATSHandler) Close() {
	if h.conn != nil {
		h.conn.Close()
	}
}
