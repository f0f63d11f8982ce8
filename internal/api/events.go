package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/coder/websocket"

	"github.com/intakelabs/waintake/internal/lifecycle"
)

// StreamEvents upgrades the connection to a websocket and streams lifecycle
// status and QR events until the client disconnects. The current state is
// sent first so late subscribers render immediately.
func (h *Handler) StreamEvents(w http.ResponseWriter, r *http.Request) {
	if !h.checkOrigin(r) {
		http.Error(w, "origin not allowed", http.StatusForbidden)
		return
	}

	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		slog.Error("Failed to accept WebSocket", "error", err)
		return
	}
	defer func() {
		if closeErr := ws.Close(websocket.StatusNormalClosure, "stream ended"); closeErr != nil {
			slog.Debug("Failed to close websocket", "error", closeErr)
		}
	}()

	ctx := r.Context()

	state := h.mgr.State()
	if err := writeJSON(ctx, ws, lifecycle.Event{Kind: lifecycle.EventStatus, Value: string(state.Status)}); err != nil {
		return
	}
	if state.QRImage != "" {
		if err := writeJSON(ctx, ws, lifecycle.Event{Kind: lifecycle.EventQR, Value: state.QRImage}); err != nil {
			return
		}
	}

	id, events := h.mgr.Hub().Subscribe()
	defer h.mgr.Hub().Unsubscribe(id)
	slog.Info("Event stream subscriber connected", "subscriber_id", id, "ip", r.RemoteAddr)

	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-events:
			if !ok {
				return
			}
			if err := writeJSON(ctx, ws, evt); err != nil {
				slog.Debug("Event stream write failed, dropping subscriber", "subscriber_id", id, "error", err)
				return
			}
		}
	}
}

func (h *Handler) checkOrigin(r *http.Request) bool {
	if h.isDev {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" || h.allowedOrigin == "*" {
		return true
	}
	if origin == h.allowedOrigin {
		return true
	}
	slog.Warn("WebSocket origin rejected", "origin", origin, "allowed", h.allowedOrigin)
	return false
}

func writeJSON(ctx context.Context, ws *websocket.Conn, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return ws.Write(ctx, websocket.MessageText, data)
}
