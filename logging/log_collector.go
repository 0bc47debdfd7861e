package logging

import (
	"sort"
	"sync"
	"time"
)

// maxEntriesPerSource caps how much history each source retains. The daemon
// runs for weeks; without a cap the collector would grow without bound.
const maxEntriesPerSource = 500

// LogEntry represents a single log record with structured data.
type LogEntry struct {
	Time       time.Time              `json:"time"`
	Level      string                 `json:"level"` // "debug", "info", "warn", "error"
	Message    string                 `json:"message"`
	Attributes map[string]interface{} `json:"attributes"`
}

// LogCollector stores recent log entries per source ("timer", "runner",
// "server", ...) for the /api/log endpoint. All methods are thread-safe.
type LogCollector struct {
	mu   sync.RWMutex
	logs map[string][]LogEntry
}

// NewLogCollector creates a new LogCollector.
func NewLogCollector() *LogCollector {
	return &LogCollector{
		logs: make(map[string][]LogEntry),
	}
}

// AddLog appends a log entry for the given source, evicting the oldest
// entry once the per-source cap is reached.
func (c *LogCollector) AddLog(source string, entry LogEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entries := append(c.logs[source], entry)
	if len(entries) > maxEntriesPerSource {
		entries = entries[len(entries)-maxEntriesPerSource:]
	}
	c.logs[source] = entries
}

// GetLogs returns a copy of all entries recorded for one source.
func (c *LogCollector) GetLogs(source string) []LogEntry {
	c.mu.RLock()
	defer c.mu.RUnlock()

	logs, exists := c.logs[source]
	if !exists {
		return nil
	}

	result := make([]LogEntry, len(logs))
	copy(result, logs)
	return result
}

// GetAllLogs returns a deep copy of all entries grouped by source.
func (c *LogCollector) GetAllLogs() map[string][]LogEntry {
	c.mu.RLock()
	defer c.mu.RUnlock()

	result := make(map[string][]LogEntry, len(c.logs))
	for source, logs := range c.logs {
		logsCopy := make([]LogEntry, len(logs))
		copy(logsCopy, logs)
		result[source] = logsCopy
	}

	return result
}

// Sources returns the known source names, sorted.
func (c *LogCollector) Sources() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	sources := make([]string, 0, len(c.logs))
	for source := range c.logs {
		sources = append(sources, source)
	}
	sort.Strings(sources)
	return sources
}

// Clear removes all stored logs.
func (c *LogCollector) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.logs = make(map[string][]LogEntry)
}
