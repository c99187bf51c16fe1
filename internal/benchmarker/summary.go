package benchmarker

import (
	"fmt"
	"io"
	"sort"
)

// Summarize prints one line per tag, in first-insertion order:
//
//	encoder: 10 calls, avg. 0.05 seconds per call
//
// Nothing is written for an empty record.
func (b *Benchmarker) Summarize(w io.Writer) {
	snap := b.Snapshot()
	for _, tag := range snap.order {
		samples := snap.samples[tag]
		fmt.Fprintf(w, "%s: %d calls, avg. %v seconds per call\n", tag, len(samples), mean(samples))
	}
}

// TagStats aggregates the samples of one tag.
type TagStats struct {
	Tag   string  `json:"tag"`
	Count int     `json:"count"`
	Mean  float64 `json:"mean"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	P50   float64 `json:"p50"`
	P95   float64 `json:"p95"`
	Total float64 `json:"total"`
}

// Stats computes per-tag statistics in first-insertion order.
func (t *Timings) Stats() []TagStats {
	out := make([]TagStats, 0, len(t.order))
	for _, tag := range t.order {
		samples := t.samples[tag]
		if len(samples) == 0 {
			continue
		}
		sorted := make([]float64, len(samples))
		copy(sorted, samples)
		sort.Float64s(sorted)

		var total float64
		for _, s := range sorted {
			total += s
		}
		out = append(out, TagStats{
			Tag:   tag,
			Count: len(sorted),
			Mean:  total / float64(len(sorted)),
			Min:   sorted[0],
			Max:   sorted[len(sorted)-1],
			P50:   percentile(sorted, 50),
			P95:   percentile(sorted, 95),
			Total: total,
		})
	}
	return out
}

// Stats computes per-tag statistics over the current record.
func (b *Benchmarker) Stats() []TagStats {
	return b.Snapshot().Stats()
}

// Mean returns the average of the samples recorded for tag, or 0 when none.
func (t *Timings) Mean(tag string) float64 {
	return mean(t.samples[tag])
}

func mean(samples []float64) float64 {
	if len(samples) == 0 {
		return 0
	}
	var total float64
	for _, s := range samples {
		total += s
	}
	return total / float64(len(samples))
}

// percentile expects sorted input.
func percentile(sorted []float64, p int) float64 {
	index := (len(sorted) * p) / 100
	if index >= len(sorted) {
		index = len(sorted) - 1
	}
	return sorted[index]
}
