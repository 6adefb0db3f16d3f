package window_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/flowlinego/flowline/window"
)

func TestTumblingPartitionsExactly(t *testing.T) {
	epoch := time.Unix(0, 0).UTC()
	tum := window.Tumbling{Size: 10 * time.Second}

	cases := []struct {
		offset time.Duration
		start  time.Duration
	}{
		{0, 0},
		{5 * time.Second, 0},
		{9999 * time.Millisecond, 0},
		{10 * time.Second, 10 * time.Second},
		{25 * time.Second, 20 * time.Second},
	}
	for _, c := range cases {
		ts := epoch.Add(c.offset)
		ws := tum.AssignWindows(ts)
		require.Len(t, ws, 1)
		require.True(t, ws[0].Start.Equal(epoch.Add(c.start)))
		require.True(t, ws[0].Contains(ts))
	}
}

func TestSlidingAssignsCeilSizeOverSlideWindows(t *testing.T) {
	epoch := time.Unix(0, 0).UTC()
	sl := window.Sliding{Size: 10 * time.Second, Slide: 5 * time.Second}

	ws := sl.AssignWindows(epoch.Add(12 * time.Second))
	require.Len(t, ws, 2)
	for _, w := range ws {
		require.True(t, w.Contains(epoch.Add(12*time.Second)))
		require.Equal(t, 10*time.Second, w.Duration())
	}
}

func TestSlidingUnevenDivisionRoundsUp(t *testing.T) {
	sl := window.Sliding{Size: 10 * time.Second, Slide: 3 * time.Second}
	// ceil(10/3) = 4 candidate windows considered per event time.
	ws := sl.AssignWindows(time.Unix(100, 0).UTC())
	require.LessOrEqual(t, len(ws), 4)
	for _, w := range ws {
		require.True(t, w.Contains(time.Unix(100, 0).UTC()))
	}
}

func TestWindowContainsIsHalfOpen(t *testing.T) {
	w := window.Window{Start: time.Unix(0, 0), End: time.Unix(10, 0)}
	require.True(t, w.Contains(time.Unix(0, 0)))
	require.False(t, w.Contains(time.Unix(10, 0)))
	require.True(t, w.Contains(time.Unix(9, 0)))
}

func TestWatermarkClosesWindowAfterAllowedLateness(t *testing.T) {
	wm := window.NewWatermark(2 * time.Second)
	win := window.Window{Start: time.Unix(0, 0), End: time.Unix(10, 0)}

	wm.Advance(time.Unix(10, 0))
	require.False(t, wm.ShouldClose(win), "watermark is 8s, window ends at 10s")

	wm.Advance(time.Unix(12, 0))
	require.True(t, wm.ShouldClose(win), "watermark is now 10s, equal to window end")
}

func TestWatermarkIsLate(t *testing.T) {
	wm := window.NewWatermark(0)
	win := window.Window{Start: time.Unix(0, 0), End: time.Unix(10, 0)}

	wm.Advance(time.Unix(15, 0))
	require.True(t, wm.IsLate(win))
}

func TestAccumulatorTableGetOrCreate(t *testing.T) {
	tbl := window.NewTable[string, int]()
	win := window.Window{Start: time.Unix(0, 0), End: time.Unix(10, 0)}

	acc := tbl.GetOrCreate(win, "a", func() int { return 0 })
	acc.State++
	again := tbl.GetOrCreate(win, "a", func() int { return 0 })
	require.Equal(t, 1, again.State)

	require.Len(t, tbl.Windows(), 1)
	require.Len(t, tbl.Accumulators(win), 1)

	tbl.Evict(win)
	require.Empty(t, tbl.Windows())
}
