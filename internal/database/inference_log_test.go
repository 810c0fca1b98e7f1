package database

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleLogs() []InferenceLog {
	day := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)
	return []InferenceLog{
		{RequestID: "a", Section: "chat", ModelID: "m", Outcome: "text", TotalTime: 2 * time.Second, CreatedAt: day},
		{RequestID: "b", Section: "chat", ModelID: "m", Outcome: "http_error", StatusCode: 404, TotalTime: time.Second, CreatedAt: day},
		{RequestID: "c", Section: "predict", ModelID: "m", Outcome: "text", Cached: true, CreatedAt: day},
	}
}

func TestBuildLogInsert(t *testing.T) {
	query, args := buildLogInsert(sampleLogs())
	assert.Equal(t, 3, strings.Count(query, "(?, ?, ?, ?, ?, ?, ?, ?, ?, ?)"))
	require.Len(t, args, 30)
	assert.Equal(t, "a", args[0])
	assert.EqualValues(t, 2000, args[7])
	assert.Equal(t, 404, args[14])
}

func TestAggregate(t *testing.T) {
	stats := aggregate(sampleLogs())
	require.Len(t, stats, 2)

	assert.Equal(t, "2026-10-19", stats[0].Date)
	assert.Equal(t, "chat", stats[0].Section)
	assert.EqualValues(t, 2, stats[0].RequestCount)
	assert.EqualValues(t, 1, stats[0].FailedCount)
	assert.EqualValues(t, 3000, stats[0].TotalTime)

	assert.Equal(t, "predict", stats[1].Section)
	assert.EqualValues(t, 1, stats[1].CachedCount)
}

func TestBuildStatsUpsert(t *testing.T) {
	query, args := buildStatsUpsert(aggregate(sampleLogs()))
	assert.Equal(t, 2, strings.Count(query, "(?, ?, ?, ?, ?, ?, ?)"))
	assert.Contains(t, query, "ON DUPLICATE KEY UPDATE")
	assert.Len(t, args, 14)
}
