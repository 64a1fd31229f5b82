package monitor

import "time"

// latencyWindow keeps a sliding window of recent poll-cycle durations
// and reports their average. Old samples are overwritten in place.
type latencyWindow struct {
	samples []time.Duration
	next    int
	filled  int
}

func newLatencyWindow(size int) *latencyWindow {
	if size <= 0 {
		size = 100
	}
	return &latencyWindow{samples: make([]time.Duration, size)}
}

func (w *latencyWindow) observe(d time.Duration) {
	w.samples[w.next] = d
	w.next = (w.next + 1) % len(w.samples)
	if w.filled < len(w.samples) {
		w.filled++
	}
}

// avgMs returns the mean of the windowed samples in milliseconds, 0 when
// no samples have been observed.
func (w *latencyWindow) avgMs() float64 {
	if w.filled == 0 {
		return 0
	}
	var total time.Duration
	for i := 0; i < w.filled; i++ {
		total += w.samples[i]
	}
	return float64(total) / float64(time.Millisecond) / float64(w.filled)
}
