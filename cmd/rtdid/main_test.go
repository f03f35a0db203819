package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/couchcryptid/disaster-rtd-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_MatchesPipelineID(t *testing.T) {
	var out bytes.Buffer
	err := run([]string{
		"-code", "earthquake",
		"-time", "2025-05-15 14:12:30",
		"-loc", "구미시",
		"-detail", "magnitude: 2.1",
		"-detail", "location: 구미시",
	}, &out)
	require.NoError(t, err)

	want := domain.GenerateID(domain.CandidateEvent{
		HazardCode:   domain.HazardEarthquake,
		OccurredAt:   time.Date(2025, time.May, 15, 5, 12, 30, 0, time.UTC),
		LocationText: "구미시",
		Details:      []string{"magnitude: 2.1", "location: 구미시"},
	})
	assert.Equal(t, want+"\n", out.String())
}

func TestRun_RFC3339AndVerbose(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, run([]string{"-v", "-code", "33", "-time", "2025-07-10T12:00:00+09:00", "-loc", "한강대교"}, &out))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "key: 33_20250710030000_한강대교_", lines[0])
}

func TestRun_MissingFlags(t *testing.T) {
	var out bytes.Buffer
	assert.Error(t, run([]string{"-code", "51"}, &out))
	assert.Error(t, run([]string{"-code", "99", "-time", "2025-05-15 14:12:30"}, &out))
	assert.Error(t, run([]string{"-code", "51", "-time", "yesterday"}, &out))
}
