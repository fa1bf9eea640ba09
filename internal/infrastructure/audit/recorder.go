// Package audit records permission state transitions for later inspection.
package audit

import (
	"log/slog"
	"sync"
	"time"

	"github.com/veilbox-dev/veilbox/internal/domain/values"
	"github.com/veilbox-dev/veilbox/internal/permissions"
)

// Entry is one recorded state transition.
type Entry struct {
	ID        values.AuditID `json:"id"`
	Key       string         `json:"key"`
	Old       string         `json:"old"`
	New       string         `json:"new"`
	Timestamp time.Time      `json:"timestamp"`
}

// Recorder keeps a bounded in-memory trail of permission transitions and
// mirrors each one to the structured log. Attach its Listener to every
// status whose transitions should be traceable.
type Recorder struct {
	mu      sync.Mutex
	entries []Entry
	limit   int
}

// NewRecorder creates a recorder keeping at most limit entries (oldest
// dropped first). A non-positive limit keeps everything.
func NewRecorder(limit int) *Recorder {
	return &Recorder{limit: limit}
}

// Listener returns the change listener that feeds this recorder.
func (r *Recorder) Listener() permissions.ListenerFunc {
	return func(event *permissions.ChangeEvent) {
		entry := Entry{
			ID:        values.NewAuditID(),
			Key:       event.Key,
			Old:       event.Old.String(),
			New:       event.New.String(),
			Timestamp: time.Now().UTC(),
		}

		r.mu.Lock()
		r.entries = append(r.entries, entry)
		if r.limit > 0 && len(r.entries) > r.limit {
			r.entries = r.entries[len(r.entries)-r.limit:]
		}
		r.mu.Unlock()

		slog.Info("permission state changed",
			"audit_id", entry.ID.String(),
			"key", entry.Key,
			"old", entry.Old,
			"new", entry.New)
	}
}

// Attach registers the recorder on a status and returns the listener ID.
func (r *Recorder) Attach(status *permissions.Status) permissions.ListenerID {
	return status.AddChangeListener(r.Listener())
}

// Entries returns a copy of the recorded trail, oldest first.
func (r *Recorder) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}
