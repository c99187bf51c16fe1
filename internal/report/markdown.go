package report

import (
	"bytes"
	"fmt"
	"html"
	"io"
	"strconv"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// RenderMarkdown writes the report as GitHub-flavoured Markdown tables.
func RenderMarkdown(w io.Writer, r *Report) error {
	out := newLineWriter(w)
	l := r.Labels

	out.println("# ", mdCell(l.Title()))
	out.println()

	out.println("## Inference time")
	out.println()
	if len(r.Timing) == 0 {
		out.println("_No timing metric is present in both summaries._")
	} else {
		mdTableHeader(out, l)
		for _, row := range r.Timing {
			mdRow(out, row.Name+" avg. time", FormatTime(row.AvgSecondsA), FormatTime(row.AvgSecondsB), FormatPercent(row.PercentDiff))
			mdRow(out, row.Name+" calls", strconv.Itoa(row.CallsA), strconv.Itoa(row.CallsB), "")
		}
	}
	out.println()

	out.println("## Rendering quality")
	out.println()
	if len(r.Quality) == 0 {
		out.println("_No quality metric is present in both summaries._")
	} else {
		mdTableHeader(out, l)
		for _, row := range r.Quality {
			mdRow(out, row.Name,
				strconv.FormatFloat(row.A, 'f', 4, 64),
				strconv.FormatFloat(row.B, 'f', 4, 64),
				fmt.Sprintf("%s (%s ✓)", FormatSigned(row.Diff, 4), mdCell(row.Better)))
		}
	}

	if r.Conclusion.Speed != nil || r.Conclusion.BetterQuality != "" {
		out.println()
		out.println("## Summary")
		out.println()
		if s := r.Conclusion.Speed; s != nil {
			out.printf("- Inference speed: **%s** is faster (%.1f%% difference)", mdCell(s.Faster), s.DiffPercent)
		}
		if r.Conclusion.BetterQuality != "" {
			out.printf("- Rendering quality: **%s** is better (by PSNR)", mdCell(r.Conclusion.BetterQuality))
		}
	}
	return out.flush()
}

func mdTableHeader(out *lineWriter, l Labels) {
	mdRow(out, "Metric", mdCell(l.A), mdCell(l.B), "Diff")
	out.println("|---|---:|---:|---:|")
}

func mdRow(out *lineWriter, cells ...string) {
	out.println("| ", strings.Join(cells, " | "), " |")
}

// mdCell escapes characters that would break a table cell.
func mdCell(s string) string {
	return strings.NewReplacer("|", `\|`, "\n", " ").Replace(s)
}

// RenderHTML converts the Markdown report to a standalone HTML page.
func RenderHTML(w io.Writer, r *Report) error {
	var md bytes.Buffer
	if err := RenderMarkdown(&md, r); err != nil {
		return err
	}

	conv := goldmark.New(goldmark.WithExtensions(extension.Table))
	var body bytes.Buffer
	if err := conv.Convert(md.Bytes(), &body); err != nil {
		return fmt.Errorf("convert report to HTML: %w", err)
	}

	_, err := fmt.Fprintf(w, `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>%s</title>
</head>
<body>
%s</body>
</html>
`, html.EscapeString(r.Labels.Title()), body.String())
	return err
}
