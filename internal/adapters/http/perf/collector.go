// Package perf keeps a bounded in-memory history of request and query timings
// for the admin dashboard.
package perf

import (
	"cmp"
	"math"
	"slices"
	"sync"
	"time"
)

// DefaultRingSize is how many timings the dashboard can look back over.
const DefaultRingSize = 10000

// EntryKind tells request timings from query timings.
type EntryKind uint8

const (
	KindRequest EntryKind = iota
	KindQuery
)

// Entry is one timed request or statement.
type Entry struct {
	Kind       EntryKind
	Path       string // route pattern for requests, "VERB table" for queries
	StatusCode int    // 0 for queries
	Failed     bool   // query returned an error
	DurationMs float64
	Timestamp  time.Time
}

// Collector remembers the most recent timings in a fixed window. Record
// overwrites the oldest slot once the window is full.
type Collector struct {
	mu       sync.Mutex
	window   []Entry
	next     int
	recorded int64
}

// NewCollector returns a collector that remembers the last size timings.
// A non-positive size means DefaultRingSize.
func NewCollector(size int) *Collector {
	if size <= 0 {
		size = DefaultRingSize
	}
	return &Collector{window: make([]Entry, size)}
}

// Record stores e in the next slot.
func (c *Collector) Record(e Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.window[c.next] = e
	c.next++
	if c.next == len(c.window) {
		c.next = 0
	}
	c.recorded++
}

// Snapshot is what the dashboard's timing card shows.
type Snapshot struct {
	Since          time.Time
	Recorded       int64 // timings seen since start, including ones already evicted
	TotalRequests  int
	ServerErrors   int // responses with status >= 500
	TotalQueries   int
	FailedQueries  int
	RequestP50Ms   float64
	RequestP95Ms   float64
	RequestP99Ms   float64
	SlowestPaths   []PathStat
	SlowestQueries []PathStat
}

// PathStat sums the timings of one route or statement label.
type PathStat struct {
	Path    string
	AvgMs   float64
	MaxMs   float64
	Count   int
	TotalMs float64
}

// tally groups timings by label.
type tally struct {
	byPath map[string]*PathStat
}

func newTally() *tally { return &tally{byPath: map[string]*PathStat{}} }

func (t *tally) observe(e Entry) {
	ps := t.byPath[e.Path]
	if ps == nil {
		ps = &PathStat{Path: e.Path}
		t.byPath[e.Path] = ps
	}
	ps.Count++
	ps.TotalMs += e.DurationMs
	ps.MaxMs = max(ps.MaxMs, e.DurationMs)
}

// slowest ranks labels by average duration, ties broken by label.
func (t *tally) slowest(n int) []PathStat {
	out := make([]PathStat, 0, len(t.byPath))
	for _, ps := range t.byPath {
		ps.AvgMs = ps.TotalMs / float64(ps.Count)
		out = append(out, *ps)
	}
	slices.SortFunc(out, func(a, b PathStat) int {
		if c := cmp.Compare(b.AvgMs, a.AvgMs); c != 0 {
			return c
		}
		return cmp.Compare(a.Path, b.Path)
	})
	return out[:min(n, len(out))]
}

// Snapshot summarises timings recorded at or after since, keeping the topN
// slowest routes and queries. It sorts, so it belongs on page loads only.
func (c *Collector) Snapshot(since time.Time, topN int) Snapshot {
	c.mu.Lock()
	window := slices.Clone(c.window)
	snap := Snapshot{Since: since, Recorded: c.recorded}
	c.mu.Unlock()

	routes, queries := newTally(), newTally()
	var durations []float64
	for _, e := range window {
		if e.Timestamp.IsZero() || e.Timestamp.Before(since) {
			continue
		}
		if e.Kind == KindQuery {
			snap.TotalQueries++
			if e.Failed {
				snap.FailedQueries++
			}
			queries.observe(e)
			continue
		}
		snap.TotalRequests++
		if e.StatusCode >= 500 {
			snap.ServerErrors++
		}
		durations = append(durations, e.DurationMs)
		routes.observe(e)
	}

	snap.SlowestPaths = routes.slowest(topN)
	snap.SlowestQueries = queries.slowest(topN)
	slices.Sort(durations)
	snap.RequestP50Ms = quantile(durations, 0.50)
	snap.RequestP95Ms = quantile(durations, 0.95)
	snap.RequestP99Ms = quantile(durations, 0.99)
	return snap
}

// quantile interpolates linearly between the two ranks around q of sorted.
func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := min(lo+1, len(sorted)-1)
	return sorted[lo] + (sorted[hi]-sorted[lo])*(pos-float64(lo))
}
