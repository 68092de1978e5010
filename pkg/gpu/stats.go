package gpu

import (
	"sync"
	"time"

	"github.com/codahale/hdrhistogram"
)

// Stats summarizes render latencies of an engine.
type Stats struct {
	Renders   int64
	LUTWrites int64
	P50       time.Duration
	P95       time.Duration
	Max       time.Duration
}

// latency records render durations in microseconds, up to one minute.
type latency struct {
	mu   sync.Mutex
	hist *hdrhistogram.Histogram
}

func newLatency() *latency {
	return &latency{hist: hdrhistogram.New(1, int64(time.Minute/time.Microsecond), 3)}
}

func (l *latency) record(d time.Duration) {
	us := d.Microseconds()
	if us < 1 {
		us = 1
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	// renders slower than the tracked range count as the maximum
	if top := l.hist.HighestTrackableValue(); us > top {
		us = top
	}
	_ = l.hist.RecordValue(us)
}

func (l *latency) snapshot() Stats {
	l.mu.Lock()
	defer l.mu.Unlock()
	us := func(v int64) time.Duration { return time.Duration(v) * time.Microsecond }
	return Stats{
		Renders: l.hist.TotalCount(),
		P50:     us(l.hist.ValueAtQuantile(50)),
		P95:     us(l.hist.ValueAtQuantile(95)),
		Max:     us(l.hist.Max()),
	}
}
