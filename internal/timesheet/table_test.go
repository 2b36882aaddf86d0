package timesheet

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildOpenInterval(t *testing.T) {
	snap := Snapshot{
		In:        []time.Time{at(9, 0, 0)},
		ServerNow: at(12, 34, 0),
	}

	tt := Build(snap, 15*time.Minute)

	require.Len(t, tt.Intervals, 1)
	iv := tt.Intervals[0]
	assert.True(t, iv.Provisional)
	assert.Equal(t, at(9, 0, 0), iv.In)
	assert.Equal(t, at(12, 45, 0), iv.Out, "projected to the next boundary strictly after now")
	assert.Equal(t, 3*time.Hour+45*time.Minute, iv.Duration)
}

func TestBuildProvisionalOutIsNeverNow(t *testing.T) {
	// Even sitting exactly on a boundary, the projection moves to the next one
	// so the provisional duration is at least one tick.
	snap := Snapshot{
		In:        []time.Time{at(12, 45, 0)},
		ServerNow: at(12, 45, 0),
	}

	tt := Build(snap, 15*time.Minute)

	require.Len(t, tt.Intervals, 1)
	assert.Equal(t, at(13, 0, 0), tt.Intervals[0].Out)
	assert.Equal(t, 15*time.Minute, tt.Intervals[0].Duration)
}

func TestBuildRoundsAndPairs(t *testing.T) {
	snap := Snapshot{
		In:        []time.Time{at(9, 2, 0), at(13, 0, 0)},
		Out:       []time.Time{at(12, 1, 0)},
		ServerNow: at(14, 10, 0),
	}

	tt := Build(snap, 15*time.Minute)

	require.Len(t, tt.Intervals, 2)

	committed := tt.Intervals[0]
	assert.False(t, committed.Provisional)
	assert.Equal(t, at(9, 0, 0), committed.In)
	assert.Equal(t, at(12, 0, 0), committed.Out)
	assert.Equal(t, 3*time.Hour, committed.Duration)

	open := tt.Intervals[1]
	assert.True(t, open.Provisional)
	assert.Equal(t, at(13, 0, 0), open.In)
	assert.Equal(t, at(14, 15, 0), open.Out)
	assert.Equal(t, time.Hour+15*time.Minute, open.Duration)

	assert.Equal(t, 4*time.Hour+15*time.Minute, tt.Total())
}

func TestBuildEmptySnapshot(t *testing.T) {
	tt := Build(Snapshot{ServerNow: at(8, 0, 0)}, 15*time.Minute)
	assert.Empty(t, tt.Intervals)
	assert.Zero(t, tt.Total())
}
