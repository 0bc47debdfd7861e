package logging

import (
	"context"
	"log/slog"
)

// CapturingHandler wraps an slog.Handler to capture records into a
// LogCollector while passing them through unchanged.
type CapturingHandler struct {
	underlying slog.Handler
	collector  *LogCollector
	source     string      // tagged onto every captured entry
	attrs      []slog.Attr // accumulated via WithAttrs
	groups     []string    // accumulated via WithGroup
}

// NewCapturingHandler creates a handler that captures under the given
// source while forwarding to the underlying handler.
func NewCapturingHandler(underlying slog.Handler, collector *LogCollector, source string) *CapturingHandler {
	return &CapturingHandler{
		underlying: underlying,
		collector:  collector,
		source:     source,
	}
}

// ForSource builds a logger whose records land in the collector under the
// given source and still reach the base logger's output. The daemon hands
// one of these to each subsystem.
func ForSource(base *slog.Logger, collector *LogCollector, source string) *slog.Logger {
	return slog.New(NewCapturingHandler(base.Handler(), collector, source))
}

// Enabled reports true for every level so the collector keeps debug
// entries even when the output handler filters them. Handle consults the
// underlying handler's level before forwarding.
func (h *CapturingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return true
}

// Handle captures the record unconditionally, then forwards it only when
// the underlying handler's level allows. slog's built-in handlers filter
// in Enabled, which the wrapping logger never consults once this handler
// reports true.
func (h *CapturingHandler) Handle(ctx context.Context, r slog.Record) error {
	entry := LogEntry{
		Time:       r.Time,
		Level:      r.Level.String(),
		Message:    r.Message,
		Attributes: make(map[string]interface{}, r.NumAttrs()+len(h.attrs)),
	}

	for _, attr := range h.attrs {
		entry.Attributes[attr.Key] = resolveValue(attr.Value)
	}

	r.Attrs(func(a slog.Attr) bool {
		entry.Attributes[a.Key] = resolveValue(a.Value)
		return true
	})

	h.collector.AddLog(h.source, entry)

	if !h.underlying.Enabled(ctx, r.Level) {
		return nil
	}

	return h.underlying.Handle(ctx, r)
}

// WithAttrs returns a new CapturingHandler carrying the extra attributes.
// Returning the underlying handler here would silently end capture for any
// logger derived via With.
func (h *CapturingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	newAttrs := make([]slog.Attr, len(h.attrs)+len(attrs))
	copy(newAttrs, h.attrs)
	copy(newAttrs[len(h.attrs):], attrs)

	return &CapturingHandler{
		underlying: h.underlying.WithAttrs(attrs),
		collector:  h.collector,
		source:     h.source,
		attrs:      newAttrs,
		groups:     h.groups,
	}
}

// WithGroup returns a new CapturingHandler carrying the group name, for the
// same reason as WithAttrs.
func (h *CapturingHandler) WithGroup(name string) slog.Handler {
	newGroups := make([]string, len(h.groups)+1)
	copy(newGroups, h.groups)
	newGroups[len(h.groups)] = name

	return &CapturingHandler{
		underlying: h.underlying.WithGroup(name),
		collector:  h.collector,
		source:     h.source,
		attrs:      h.attrs,
		groups:     newGroups,
	}
}

// resolveValue converts a slog.Value to a JSON-serializable value. Errors
// become their message string.
func resolveValue(v slog.Value) interface{} {
	v = v.Resolve()

	switch v.Kind() {
	case slog.KindString:
		return v.String()
	case slog.KindInt64:
		return v.Int64()
	case slog.KindUint64:
		return v.Uint64()
	case slog.KindFloat64:
		return v.Float64()
	case slog.KindBool:
		return v.Bool()
	case slog.KindDuration:
		return v.Duration().String()
	case slog.KindTime:
		return v.Time()
	case slog.KindAny:
		any := v.Any()
		if err, ok := any.(error); ok {
			return err.Error()
		}
		return any
	case slog.KindGroup:
		attrs := v.Group()
		group := make(map[string]interface{}, len(attrs))
		for _, attr := range attrs {
			group[attr.Key] = resolveValue(attr.Value)
		}
		return group
	default:
		return v.Any()
	}
}
