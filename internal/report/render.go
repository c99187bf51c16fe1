package report

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"git.home.luguber.info/inful/splatbench/internal/errors"
)

// Format selects a report renderer.
type Format string

const (
	FormatText     Format = "text"
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
	FormatJSON     Format = "json"
)

// ParseFormat normalizes a user-supplied format name. The empty string maps
// to FormatText.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "text", "txt":
		return FormatText, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "html":
		return FormatHTML, nil
	case "json":
		return FormatJSON, nil
	}
	return "", errors.ValidationFailed("format", fmt.Sprintf("unknown report format %q (want text, markdown, html or json)", name))
}

// Render writes r to w in the given format.
func Render(w io.Writer, r *Report, format Format) error {
	switch format {
	case FormatText, "":
		return RenderText(w, r)
	case FormatMarkdown:
		return RenderMarkdown(w, r)
	case FormatHTML:
		return RenderHTML(w, r)
	case FormatJSON:
		return RenderJSON(w, r)
	}
	return errors.ValidationFailed("format", fmt.Sprintf("unknown report format %q", format))
}

// RenderJSON writes the structured report as indented JSON.
func RenderJSON(w io.Writer, r *Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// lineWriter collects lines and remembers the first write error.
type lineWriter struct {
	w   *bufio.Writer
	err error
}

func newLineWriter(w io.Writer) *lineWriter {
	return &lineWriter{w: bufio.NewWriter(w)}
}

func (lw *lineWriter) println(parts ...string) {
	if lw.err != nil {
		return
	}
	line := strings.TrimRight(strings.Join(parts, ""), " ")
	if _, err := lw.w.WriteString(line + "\n"); err != nil {
		lw.err = err
	}
}

func (lw *lineWriter) printf(format string, args ...any) {
	lw.println(fmt.Sprintf(format, args...))
}

func (lw *lineWriter) flush() error {
	if lw.err != nil {
		return lw.err
	}
	return lw.w.Flush()
}
