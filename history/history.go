// Package history maintains the append-only log of completed focus sessions.
//
// The log is stored as a single JSON array under a well-known key. Reads are
// element-tolerant: a damaged entry is dropped with a warning instead of
// taking the whole log down, and a wholly unreadable document reads as empty.
package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/pomodhq/pomod/storage"
)

// LogKey is the storage key holding the session history array.
const LogKey = "history"

// Entry records one completed focus session. Entries are immutable once
// appended; the log never edits or deletes them. The JSON field names are
// the log's wire format and must not change.
type Entry struct {
	// ID identifies the entry. By convention it is derived from the
	// completion timestamp.
	ID string `json:"id"`

	// StartedAt is when the session was started.
	StartedAt time.Time `json:"startedAtISO"`

	// CompletedAt is when the session finished.
	CompletedAt time.Time `json:"completedAtISO"`

	// DurationSec is the session length in seconds.
	DurationSec int `json:"durationSec"`
}

// valid reports whether a decoded entry has a usable shape.
func (e Entry) valid() bool {
	return e.ID != "" && !e.StartedAt.IsZero() && !e.CompletedAt.IsZero() && e.DurationSec > 0
}

// Log reads and writes the persisted session history.
type Log struct {
	storage storage.Store
	logger  *slog.Logger
}

// NewLog creates a history log backed by st.
func NewLog(st storage.Store, logger *slog.Logger) *Log {
	return &Log{
		storage: st,
		logger:  logger,
	}
}

// All returns every valid entry, most recently completed first. A missing
// or wholly unparsable document yields an empty slice without error. Only
// storage transport failures surface as errors.
func (l *Log) All(ctx context.Context) ([]Entry, error) {
	return l.load(ctx)
}

// Append records one completed session. The entry is merged with the
// existing valid entries, the set is re-sorted, and the whole array is
// written back. IDs are not deduplicated.
func (l *Log) Append(ctx context.Context, entry Entry) error {
	entries, err := l.load(ctx)
	if err != nil {
		return err
	}

	entries = append(entries, entry)
	sortEntries(entries)

	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("failed to marshal history: %w", err)
	}
	if err := l.storage.Set(ctx, LogKey, string(data)); err != nil {
		return fmt.Errorf("failed to save history: %w", err)
	}

	l.logger.Info("recorded completed session",
		"id", entry.ID,
		"duration_sec", entry.DurationSec,
	)
	return nil
}

// load reads the stored array element-wise, dropping whatever it cannot use.
func (l *Log) load(ctx context.Context) ([]Entry, error) {
	raw, err := l.storage.Get(ctx, LogKey)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return []Entry{}, nil
		}
		return nil, fmt.Errorf("failed to load history: %w", err)
	}

	var elements []json.RawMessage
	if err := json.Unmarshal([]byte(raw), &elements); err != nil {
		l.logger.Warn("discarding unparsable history", "error", err)
		return []Entry{}, nil
	}

	entries := make([]Entry, 0, len(elements))
	dropped := 0
	for _, element := range elements {
		var entry Entry
		if err := json.Unmarshal(element, &entry); err != nil || !entry.valid() {
			dropped++
			continue
		}
		entries = append(entries, entry)
	}
	if dropped > 0 {
		l.logger.Warn("dropped malformed history entries", "count", dropped)
	}

	sortEntries(entries)
	return entries, nil
}

// sortEntries orders entries most recently completed first.
func sortEntries(entries []Entry) {
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].CompletedAt.After(entries[j].CompletedAt)
	})
}
