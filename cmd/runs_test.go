package main

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/citydatalab/airhealth/internal/pipeline"
	"github.com/citydatalab/airhealth/internal/store"
)

func TestFormatRunsList(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 15, 0, 0, time.UTC)
	result, err := json.Marshal(pipeline.Result{
		JoinedRows: 42,
		Artifacts:  []string{"map_borough_rate.png", "scatter_no2_count.png"},
	})
	require.NoError(t, err)

	runs := []store.Run{
		{
			ID:         "abc12345-6789-0000-0000-000000000000",
			StartedAt:  now,
			FinishedAt: now.Add(90 * time.Second),
			Result:     string(result),
		},
	}

	var buf bytes.Buffer
	formatRunsList(&buf, runs)

	output := buf.String()
	assert.Contains(t, output, "ID")
	assert.Contains(t, output, "STARTED")
	assert.Contains(t, output, "abc12345")
	assert.NotContains(t, output, "abc12345-6789", "IDs display truncated")
	assert.Contains(t, output, "2026-03-10 09:15")
	assert.Contains(t, output, "1m30s")
	assert.Contains(t, output, "42")
	assert.Contains(t, output, "2")
}

func TestFormatRunsList_MalformedResult(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 15, 0, 0, time.UTC)
	runs := []store.Run{
		{
			ID:         "def12345-6789-0000-0000-000000000000",
			StartedAt:  now,
			FinishedAt: now.Add(time.Second),
			Result:     "not json",
		},
	}

	var buf bytes.Buffer
	formatRunsList(&buf, runs)

	output := buf.String()
	assert.Contains(t, output, "def12345")
	assert.Contains(t, output, "?", "unparseable results degrade to placeholders")
}

func TestTruncateID(t *testing.T) {
	assert.Equal(t, "abc12345", truncateID("abc12345-6789-0000-0000-000000000000"))
	assert.Equal(t, "short", truncateID("short"))
}
