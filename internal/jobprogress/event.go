package jobprogress

import (
	"context"
	"fmt"

	"github.com/estr/backoffice/internal/application/dispatcher"
	"github.com/estr/backoffice/internal/domain/event"
	"go.uber.org/zap"
)

const snapshotKey = "snapshot"

// NewProgressEvent wraps a snapshot in a job.progress event
func NewProgressEvent(snap Snapshot) *event.Event {
	return event.NewEvent(event.TypeJobProgress, snap.SessionID, "", map[string]interface{}{
		snapshotKey: snap,
		"percent":   snap.Percent,
	})
}

// SnapshotFromEvent extracts the snapshot carried by a job.progress event
func SnapshotFromEvent(evt *event.Event) (Snapshot, bool) {
	if evt == nil || evt.Type != event.TypeJobProgress {
		return Snapshot{}, false
	}
	return event.PayloadValue[Snapshot](evt, snapshotKey)
}

// Publish returns an UpdateFunc that dispatches every snapshot as a
// job.progress event. Handler failures are logged and do not stop the stream.
func Publish(d dispatcher.Dispatcher, logger *zap.Logger) UpdateFunc {
	return func(ctx context.Context, snap Snapshot) {
		if err := d.Dispatch(ctx, NewProgressEvent(snap)); err != nil {
			logger.Error("Failed to publish job progress",
				zap.String("session_id", snap.SessionID),
				zap.Float64("percent", snap.Percent),
				zap.Error(err),
			)
		}
	}
}

// SnapshotHandler adapts fn into a dispatcher handler for job.progress events
func SnapshotHandler(fn func(Snapshot)) dispatcher.Handler {
	return func(_ context.Context, evt *event.Event) error {
		snap, ok := SnapshotFromEvent(evt)
		if !ok {
			return fmt.Errorf("event %s carries no progress snapshot", evt.ID)
		}
		fn(snap)
		return nil
	}
}

// EventHandler broadcasts job.progress snapshots to connected browsers
func (h *Hub) EventHandler() dispatcher.Handler {
	return SnapshotHandler(h.Broadcast)
}
