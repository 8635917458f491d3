package handoff

import (
	"context"
	"sync"

	"log/slog"

	"spool/internal/logging"
)

// Handler receives exactly one notification per item reaching review, after
// the terminal status is committed. Implementations must tolerate redelivery
// if the process crashes between commit and callback.
type Handler interface {
	OnReady(ctx context.Context, itemID int64, transcriptPath string) error
}

// Func adapts a plain function to the Handler interface.
type Func func(ctx context.Context, itemID int64, transcriptPath string) error

func (f Func) OnReady(ctx context.Context, itemID int64, transcriptPath string) error {
	return f(ctx, itemID, transcriptPath)
}

// NewLogging returns a handler that records the handoff and nothing else,
// the default when no review system is attached.
func NewLogging(logger *slog.Logger) Handler {
	component := logging.NewComponentLogger(logger, "handoff")
	return Func(func(ctx context.Context, itemID int64, transcriptPath string) error {
		logging.WithContext(ctx, component).Info(
			"item ready for review",
			logging.Int64("item_id", itemID),
			logging.String("transcript_file", transcriptPath),
		)
		return nil
	})
}

// Recorder captures handoffs for assertions in tests.
type Recorder struct {
	mu      sync.Mutex
	entries []Entry
}

// Entry is one recorded handoff.
type Entry struct {
	ItemID         int64
	TranscriptPath string
}

func (r *Recorder) OnReady(ctx context.Context, itemID int64, transcriptPath string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, Entry{ItemID: itemID, TranscriptPath: transcriptPath})
	return nil
}

// Entries returns a copy of the recorded handoffs.
func (r *Recorder) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := make([]Entry, len(r.entries))
	copy(cp, r.entries)
	return cp
}
