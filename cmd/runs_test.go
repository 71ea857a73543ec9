//go:build !integration

package main

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/leadgen-pipeline/internal/model"
)

func TestFormatRunsList(t *testing.T) {
	started := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	runs := []model.CampaignRun{
		{
			ID:                "run-aaa",
			CampaignID:        "camp-1",
			Status:            model.RunStatusCompleted,
			QueriesExecuted:   12,
			LeadsFound:        340,
			DuplicatesSkipped: 28,
			Errors:            1,
			StartedAt:         started,
		},
		{
			ID:         "run-bbb",
			CampaignID: "camp-1",
			Status:     model.RunStatusRunning,
			StartedAt:  started.Add(time.Hour),
		},
	}

	var sb strings.Builder
	formatRunsList(&sb, runs)
	out := sb.String()

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	assert.Len(t, lines, 3)
	assert.Contains(t, lines[0], "RUN ID")
	assert.Contains(t, lines[0], "DUPES")
	assert.Contains(t, lines[1], "run-aaa")
	assert.Contains(t, lines[1], "completed")
	assert.Contains(t, lines[1], "340")
	assert.Contains(t, lines[1], "2026-03-14 09:30")
	assert.Contains(t, lines[2], "run-bbb")
	assert.Contains(t, lines[2], "running")
}

func TestFormatRunsList_Empty(t *testing.T) {
	var sb strings.Builder
	formatRunsList(&sb, nil)

	lines := strings.Split(strings.TrimRight(sb.String(), "\n"), "\n")
	assert.Len(t, lines, 1)
	assert.Contains(t, lines[0], "RUN ID")
}
