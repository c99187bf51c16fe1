package report

import (
	"io"
	"strconv"
	"strings"
)

const (
	ruleWidth  = 80
	metricCols = 20
	valueCols  = 25
	diffCols   = 10
)

var (
	doubleRule = strings.Repeat("=", ruleWidth)
	singleRule = strings.Repeat("-", ruleWidth)
)

// RenderText writes the console report: banner, timing table, quality table
// and a closing summary. Trailing blanks are trimmed from every line.
func RenderText(w io.Writer, r *Report) error {
	out := newLineWriter(w)
	l := r.Labels

	out.println(doubleRule)
	out.println(l.Title())
	out.println(doubleRule)
	out.println()

	out.println("📊 Inference time (encoder: input images → Gaussians)")
	textTableHeader(out, l)
	for _, row := range r.Timing {
		out.println(
			padRight(row.Name+" avg. time", metricCols), " ",
			padRight(FormatTime(row.AvgSecondsA), valueCols), " ",
			padRight(FormatTime(row.AvgSecondsB), valueCols), " ",
			FormatPercent(row.PercentDiff),
		)
		out.println(
			padRight(row.Name+" calls", metricCols), " ",
			padRight(strconv.Itoa(row.CallsA), valueCols), " ",
			strconv.Itoa(row.CallsB),
		)
	}
	out.println()

	out.println("🎨 Rendering quality")
	textTableHeader(out, l)
	for _, row := range r.Quality {
		out.println(
			padRight(row.Name, metricCols), " ",
			padRight(strconv.FormatFloat(row.A, 'f', 4, 64), valueCols), " ",
			padRight(strconv.FormatFloat(row.B, 'f', 4, 64), valueCols), " ",
			FormatSigned(row.Diff, 4), " (", row.Better, " ✓)",
		)
	}
	out.println()
	out.println(doubleRule)

	out.println()
	out.println("📌 Summary:")
	if s := r.Conclusion.Speed; s != nil {
		out.printf("  • Inference speed: %s is faster (%.1f%% difference)", s.Faster, s.DiffPercent)
	}
	if r.Conclusion.BetterQuality != "" {
		out.printf("  • Rendering quality: %s is better (by PSNR)", r.Conclusion.BetterQuality)
	}
	out.println()
	return out.flush()
}

func textTableHeader(out *lineWriter, l Labels) {
	out.println(singleRule)
	out.println(
		padRight("Metric", metricCols), " ",
		padRight(l.A, valueCols), " ",
		padRight(l.B, valueCols), " ",
		padRight("Diff", diffCols),
	)
	out.println(singleRule)
}
