package cmd

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samirrijal/roomradar/internal/core/domain"
	"github.com/samirrijal/roomradar/internal/core/viewport"
)

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestRadiusCommand(t *testing.T) {
	out, err := run(t, "", "radius", "--lat", "10.77", "--lng", "106.7", "--origin-lat", "10.87", "--origin-lng", "106.7")
	require.NoError(t, err)

	var q domain.RadiusQuery
	require.NoError(t, json.Unmarshal([]byte(out), &q))
	assert.Equal(t, domain.Coord(106.7, 10.77), q.Center)
	assert.InDelta(t, 11120, q.RadiusMeters, 100)
}

func TestRadiusCommand_OutOfRange(t *testing.T) {
	_, err := run(t, "", "radius", "--lat", "95", "--lng", "106.7")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "out of range")
}

func TestReplayCommand(t *testing.T) {
	trace := `{"at_ms": 0, "type": "ready", "center": [106.7, 10.77], "zoom": 13}
{"at_ms": 100, "type": "move", "center": [106.7, 10.77], "ne": [106.8, 10.87], "zoom": 12}
`
	out, err := run(t, trace, "replay", "--debounce", "200ms", "--quiet")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)

	var last struct {
		AtMS    int64              `json:"at_ms"`
		Initial bool               `json:"initial"`
		Query   domain.RadiusQuery `json:"query"`
	}
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &last))
	assert.Equal(t, int64(300), last.AtMS)
	assert.False(t, last.Initial)
	assert.Greater(t, last.Query.RadiusMeters, domain.MinRadiusMeters)
}

func TestReplayCommand_RejectsZeroThreshold(t *testing.T) {
	_, err := run(t, "", "replay", "--threshold", "0")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--threshold must be in (0, 1)")

	// Flags persist on the shared command between runs.
	replayThreshold = viewport.DefaultThreshold
}

func TestReplayCommand_BadTrace(t *testing.T) {
	_, err := run(t, `{"at_ms": 0, "type": "teleport"}`, "replay", "--debounce", "800ms")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse trace")
}
