package logging

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogCollector(t *testing.T) {
	collector := NewLogCollector()
	require.NotNil(t, collector)
	assert.NotNil(t, collector.logs)
}

func TestLogCollector_AddLog(t *testing.T) {
	collector := NewLogCollector()

	entry := LogEntry{
		Time:       time.Now(),
		Level:      "info",
		Message:    "session started",
		Attributes: map[string]interface{}{"remaining_sec": 1500},
	}

	collector.AddLog("timer", entry)

	logs := collector.GetLogs("timer")
	require.Len(t, logs, 1)
	assert.Equal(t, entry.Level, logs[0].Level)
	assert.Equal(t, entry.Message, logs[0].Message)
	assert.Equal(t, entry.Attributes["remaining_sec"], logs[0].Attributes["remaining_sec"])
}

func TestLogCollector_AddLog_Concurrent(t *testing.T) {
	collector := NewLogCollector()
	const numGoroutines = 50
	const logsPerGoroutine = 8

	var wg sync.WaitGroup
	wg.Add(numGoroutines)

	for i := 0; i < numGoroutines; i++ {
		go func(goroutineID int) {
			defer wg.Done()
			for j := 0; j < logsPerGoroutine; j++ {
				entry := LogEntry{
					Time:       time.Now(),
					Level:      "info",
					Message:    "concurrent test",
					Attributes: map[string]interface{}{"goroutine": goroutineID, "log": j},
				}
				collector.AddLog("runner", entry)
			}
		}(i)
	}

	wg.Wait()

	logs := collector.GetLogs("runner")
	assert.Len(t, logs, numGoroutines*logsPerGoroutine)
}

func TestLogCollector_EvictsOldestBeyondCap(t *testing.T) {
	collector := NewLogCollector()

	for i := 0; i < maxEntriesPerSource+10; i++ {
		collector.AddLog("timer", LogEntry{
			Time:       time.Now(),
			Level:      "debug",
			Message:    fmt.Sprintf("entry %d", i),
			Attributes: map[string]interface{}{},
		})
	}

	logs := collector.GetLogs("timer")
	require.Len(t, logs, maxEntriesPerSource)
	assert.Equal(t, "entry 10", logs[0].Message, "oldest entries should be evicted first")
	assert.Equal(t, fmt.Sprintf("entry %d", maxEntriesPerSource+9), logs[len(logs)-1].Message)
}

func TestLogCollector_GetLogs(t *testing.T) {
	collector := NewLogCollector()

	entry1 := LogEntry{Time: time.Now(), Level: "info", Message: "first", Attributes: map[string]interface{}{}}
	entry2 := LogEntry{Time: time.Now(), Level: "error", Message: "second", Attributes: map[string]interface{}{}}

	collector.AddLog("server", entry1)
	collector.AddLog("server", entry2)

	logs := collector.GetLogs("server")
	require.Len(t, logs, 2)
	assert.Equal(t, "first", logs[0].Message)
	assert.Equal(t, "second", logs[1].Message)
}

func TestLogCollector_GetLogs_NonExistent(t *testing.T) {
	collector := NewLogCollector()

	logs := collector.GetLogs("nonexistent")
	assert.Nil(t, logs)
}

func TestLogCollector_GetLogs_ReturnsCopy(t *testing.T) {
	collector := NewLogCollector()

	entry := LogEntry{Time: time.Now(), Level: "info", Message: "original", Attributes: map[string]interface{}{}}
	collector.AddLog("timer", entry)

	logs := collector.GetLogs("timer")
	require.Len(t, logs, 1)

	logs[0].Message = "modified"

	logsAgain := collector.GetLogs("timer")
	assert.Equal(t, "original", logsAgain[0].Message, "GetLogs should return a copy, not the original")
}

func TestLogCollector_GetAllLogs(t *testing.T) {
	collector := NewLogCollector()

	entry1 := LogEntry{Time: time.Now(), Level: "info", Message: "timer log", Attributes: map[string]interface{}{}}
	entry2 := LogEntry{Time: time.Now(), Level: "warn", Message: "server log", Attributes: map[string]interface{}{}}

	collector.AddLog("timer", entry1)
	collector.AddLog("server", entry2)

	allLogs := collector.GetAllLogs()
	require.Len(t, allLogs, 2)
	assert.Contains(t, allLogs, "timer")
	assert.Contains(t, allLogs, "server")
	assert.Len(t, allLogs["timer"], 1)
	assert.Len(t, allLogs["server"], 1)
}

func TestLogCollector_GetAllLogs_ReturnsCopy(t *testing.T) {
	collector := NewLogCollector()

	entry := LogEntry{Time: time.Now(), Level: "info", Message: "original", Attributes: map[string]interface{}{}}
	collector.AddLog("timer", entry)

	allLogs := collector.GetAllLogs()
	require.Len(t, allLogs, 1)

	allLogs["timer"][0].Message = "modified"

	allLogsAgain := collector.GetAllLogs()
	assert.Equal(t, "original", allLogsAgain["timer"][0].Message, "GetAllLogs should return a deep copy")
}

func TestLogCollector_Sources(t *testing.T) {
	collector := NewLogCollector()
	assert.Empty(t, collector.Sources())

	entry := LogEntry{Time: time.Now(), Level: "info", Message: "x", Attributes: map[string]interface{}{}}
	collector.AddLog("timer", entry)
	collector.AddLog("runner", entry)
	collector.AddLog("server", entry)

	assert.Equal(t, []string{"runner", "server", "timer"}, collector.Sources())
}

func TestLogCollector_Clear(t *testing.T) {
	collector := NewLogCollector()

	entry1 := LogEntry{Time: time.Now(), Level: "info", Message: "log1", Attributes: map[string]interface{}{}}
	entry2 := LogEntry{Time: time.Now(), Level: "info", Message: "log2", Attributes: map[string]interface{}{}}

	collector.AddLog("timer", entry1)
	collector.AddLog("server", entry2)

	allLogs := collector.GetAllLogs()
	assert.Len(t, allLogs, 2)

	collector.Clear()

	allLogsAfterClear := collector.GetAllLogs()
	assert.Len(t, allLogsAfterClear, 0)
}

func TestLogCollector_MultipleSourcesConcurrent(t *testing.T) {
	collector := NewLogCollector()
	const numSources = 10
	const logsPerSource = 50

	var wg sync.WaitGroup
	wg.Add(numSources)

	for i := 0; i < numSources; i++ {
		go func(sourceNum int) {
			defer wg.Done()
			source := fmt.Sprintf("source%d", sourceNum)
			for j := 0; j < logsPerSource; j++ {
				entry := LogEntry{
					Time:       time.Now(),
					Level:      "debug",
					Message:    "concurrent multi-source test",
					Attributes: map[string]interface{}{"source": sourceNum, "log": j},
				}
				collector.AddLog(source, entry)
			}
		}(i)
	}

	wg.Wait()

	allLogs := collector.GetAllLogs()
	assert.Len(t, allLogs, numSources)

	for source, logs := range allLogs {
		assert.Len(t, logs, logsPerSource, "source %s should have %d logs", source, logsPerSource)
	}
}
