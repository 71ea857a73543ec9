//go:build !integration

package main

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/leadgen-pipeline/internal/model"
)

func TestFormatCampaignsList(t *testing.T) {
	created := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	campaigns := []model.Campaign{
		{ID: "camp-1", Name: "HVAC Mountain West", Description: "HVAC contractors, CO/UT/ID", CreatedAt: created},
		{ID: "camp-2", Name: "Plumbing Texas", CreatedAt: created},
	}

	out := formatCampaignsList(campaigns)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")

	assert.Len(t, lines, 3)
	assert.Contains(t, lines[0], "CAMPAIGN ID")
	assert.Contains(t, lines[1], "HVAC Mountain West")
	assert.Contains(t, lines[1], "2026-01-05")
	assert.Contains(t, lines[2], "camp-2")
}
