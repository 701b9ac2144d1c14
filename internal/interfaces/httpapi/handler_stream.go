package httpapi

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	sonic "github.com/bytedance/sonic"

	"github.com/cueclub/league-night/internal/domain/match"
	"github.com/cueclub/league-night/internal/usecase"
)

const streamHeartbeatInterval = 15 * time.Second

// StreamMatch serves the change-notification feed as server-sent events.
// The client gets the current snapshot immediately, then one snapshot per
// committed write for as long as it stays connected. Intermediate snapshots
// may be skipped under load; the last one always arrives.
func (h *Handler) StreamMatch(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.StreamMatch")
	defer span.End()

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: connection does not support streaming", usecase.ErrInvalidInput))
		return
	}

	// The server-wide write timeout would sever a long-lived stream; lift it
	// for this connection only.
	if err := http.NewResponseController(w).SetWriteDeadline(time.Time{}); err != nil {
		h.logger.DebugContext(ctx, "clear stream write deadline", "error", err)
	}

	matchID := r.PathValue("matchID")

	// Subscribe before the initial read so a write landing in between is
	// delivered rather than lost.
	snapshots, err := h.matchService.Watch(ctx, matchID)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	current, err := h.matchService.Get(ctx, matchID)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	if err := writeSnapshotEvent(ctx, w, current); err != nil {
		return
	}
	flusher.Flush()

	heartbeat := time.NewTicker(streamHeartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case m, open := <-snapshots:
			if !open {
				return
			}
			if err := writeSnapshotEvent(ctx, w, m); err != nil {
				return
			}
			flusher.Flush()
		case <-heartbeat.C:
			if _, err := io.WriteString(w, ": keep-alive\n\n"); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func writeSnapshotEvent(ctx context.Context, w io.Writer, m *match.Match) error {
	payload, err := sonic.Marshal(matchToDTO(ctx, m))
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: snapshot\ndata: %s\n\n", payload)
	return err
}
