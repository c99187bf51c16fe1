// Package report compares two Result Summaries and renders the comparison
// as a console table, Markdown, HTML or JSON.
package report

import "math"

// Labels names the two compared systems and the dataset they ran on.
type Labels struct {
	A       string `json:"a"`
	B       string `json:"b"`
	Dataset string `json:"dataset,omitempty"`
}

// DefaultLabels is used for any empty label.
var DefaultLabels = Labels{A: "baseline", B: "candidate"}

func (l Labels) withDefaults() Labels {
	if l.A == "" {
		l.A = DefaultLabels.A
	}
	if l.B == "" {
		l.B = DefaultLabels.B
	}
	return l
}

// Title is the report heading, e.g. "GGN vs SparseSplat - dl3dv evaluation comparison".
func (l Labels) Title() string {
	if l.Dataset == "" {
		return l.A + " vs " + l.B + " evaluation comparison"
	}
	return l.A + " vs " + l.B + " - " + l.Dataset + " evaluation comparison"
}

// TimingRow compares one timing metric present in both summaries.
type TimingRow struct {
	Key         string  `json:"key"`
	Name        string  `json:"name"`
	CallsA      int     `json:"calls_a"`
	CallsB      int     `json:"calls_b"`
	AvgSecondsA float64 `json:"avg_seconds_a"`
	AvgSecondsB float64 `json:"avg_seconds_b"`
	// PercentDiff is (a-b)/b*100; nil when b is zero.
	PercentDiff *float64 `json:"percent_diff"`
}

// QualityRow compares one image-quality metric present in both summaries.
type QualityRow struct {
	Key            string  `json:"key"`
	Name           string  `json:"name"`
	A              float64 `json:"a"`
	B              float64 `json:"b"`
	Diff           float64 `json:"diff"`
	HigherIsBetter bool    `json:"higher_is_better"`
	Better         string  `json:"better"`
}

// SpeedVerdict reports the faster side by encoder time.
type SpeedVerdict struct {
	Faster string `json:"faster"`
	// DiffPercent is |a-b| as a percentage of the slower time.
	DiffPercent float64 `json:"diff_percent"`
}

// Conclusion is the closing summary of a report.
type Conclusion struct {
	Speed         *SpeedVerdict `json:"speed,omitempty"`
	BetterQuality string        `json:"better_quality,omitempty"`
}

// Report is the structured result of Compare, independent of rendering.
type Report struct {
	Labels     Labels       `json:"labels"`
	Timing     []TimingRow  `json:"timing"`
	Quality    []QualityRow `json:"quality"`
	Conclusion Conclusion   `json:"conclusion"`
}

type timingSpec struct {
	key, name string
}

type qualitySpec struct {
	key, name      string
	higherIsBetter bool
}

var timingSpecs = []timingSpec{
	{KeyEncoder, "Encoder"},
	{KeyDecoder, "Decoder"},
}

var qualitySpecs = []qualitySpec{
	{KeyPSNR, "PSNR ↑", true},
	{KeySSIM, "SSIM ↑", true},
	{KeyLPIPS, "LPIPS ↓", false},
}

// Compare contrasts summary a against summary b. Metrics missing from either
// side are skipped. Equal values count as a win for side B.
func Compare(a, b *Summary, labels Labels) *Report {
	labels = labels.withDefaults()
	r := &Report{
		Labels:  labels,
		Timing:  []TimingRow{},
		Quality: []QualityRow{},
	}

	for _, spec := range timingSpecs {
		ta, tb := a.Timing(spec.key), b.Timing(spec.key)
		if ta == nil || tb == nil {
			continue
		}
		row := TimingRow{
			Key:         spec.key,
			Name:        spec.name,
			CallsA:      ta.Calls,
			CallsB:      tb.Calls,
			AvgSecondsA: ta.AvgSeconds,
			AvgSecondsB: tb.AvgSeconds,
		}
		if tb.AvgSeconds != 0 {
			pct := (ta.AvgSeconds - tb.AvgSeconds) / tb.AvgSeconds * 100
			row.PercentDiff = &pct
		}
		r.Timing = append(r.Timing, row)
	}

	for _, spec := range qualitySpecs {
		qa, qb := a.Quality(spec.key), b.Quality(spec.key)
		if qa == nil || qb == nil {
			continue
		}
		aWins := *qa < *qb
		if spec.higherIsBetter {
			aWins = *qa > *qb
		}
		r.Quality = append(r.Quality, QualityRow{
			Key:            spec.key,
			Name:           spec.name,
			A:              *qa,
			B:              *qb,
			Diff:           *qa - *qb,
			HigherIsBetter: spec.higherIsBetter,
			Better:         pick(aWins, labels),
		})
	}

	if ea, eb := a.Timing(KeyEncoder), b.Timing(KeyEncoder); ea != nil && eb != nil {
		verdict := &SpeedVerdict{Faster: pick(ea.AvgSeconds < eb.AvgSeconds, labels)}
		if slower := math.Max(ea.AvgSeconds, eb.AvgSeconds); slower != 0 {
			verdict.DiffPercent = math.Abs(ea.AvgSeconds-eb.AvgSeconds) / slower * 100
		}
		r.Conclusion.Speed = verdict
	}
	if pa, pb := a.Quality(KeyPSNR), b.Quality(KeyPSNR); pa != nil && pb != nil {
		r.Conclusion.BetterQuality = pick(*pa > *pb, labels)
	}
	return r
}

func pick(aWins bool, labels Labels) string {
	if aWins {
		return labels.A
	}
	return labels.B
}
