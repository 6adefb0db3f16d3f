// Package window implements the windowing subsystem: window assignment,
// watermark tracking, and the tumbling/sliding assigners used by aggregate
// nodes (§4.4).
package window

import "time"

// Window is a half-open time interval [Start, End) that buckets items by
// event time for aggregation.
type Window struct {
	Start time.Time
	End   time.Time
}

// Duration returns End - Start.
func (w Window) Duration() time.Duration {
	return w.End.Sub(w.Start)
}

// Contains reports whether ts falls in [Start, End). The interval is
// half-open so that an item exactly on a boundary belongs to the window that
// starts there, never to both.
func (w Window) Contains(ts time.Time) bool {
	return !ts.Before(w.Start) && ts.Before(w.End)
}

// Equal compares two windows by bounds.
func (w Window) Equal(o Window) bool {
	return w.Start.Equal(o.Start) && w.End.Equal(o.End)
}

// Assigner computes the set of windows a given event time belongs to. A
// tumbling assigner always returns exactly one window; a sliding assigner
// may return several overlapping windows.
type Assigner interface {
	AssignWindows(eventTime time.Time) []Window
}

// Tumbling assigns each event time to exactly one fixed-size, non-overlapping
// window aligned to the Unix epoch.
type Tumbling struct {
	Size time.Duration
}

// AssignWindows implements Assigner.
func (t Tumbling) AssignWindows(eventTime time.Time) []Window {
	size := t.Size
	offset := eventTime.Sub(time.Unix(0, 0)) % size
	if offset < 0 {
		offset += size
	}
	start := eventTime.Round(0).Add(-offset)
	return []Window{{Start: start, End: start.Add(size)}}
}

// Sliding assigns each event time to every overlapping window of the given
// Size that advances by Slide. When Slide == Size this degenerates to
// Tumbling; Slide must evenly divide Size for non-overlapping alignment.
type Sliding struct {
	Size  time.Duration
	Slide time.Duration
}

// AssignWindows implements Assigner. It considers ceil(Size/Slide)
// slide-aligned starts and returns one window for each start whose window
// still covers eventTime: exactly ceil(Size/Slide) windows when Slide evenly
// divides Size, and possibly fewer otherwise.
func (s Sliding) AssignWindows(eventTime time.Time) []Window {
	count := int(s.Size / s.Slide)
	if s.Size%s.Slide != 0 {
		count++
	}
	offset := eventTime.Sub(time.Unix(0, 0)) % s.Slide
	if offset < 0 {
		offset += s.Slide
	}
	lastStart := eventTime.Round(0).Add(-offset)
	windows := make([]Window, 0, count)
	for i := 0; i < count; i++ {
		start := lastStart.Add(-time.Duration(i) * s.Slide)
		end := start.Add(s.Size)
		if eventTime.Before(start) || !eventTime.Before(end) {
			continue
		}
		windows = append(windows, Window{Start: start, End: end})
	}
	return windows
}
