package benchmarker

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Timings is the Timing Record: per-tag sequences of elapsed seconds. Tags
// keep the order in which they were first recorded, and that order is kept
// through JSON encoding so dumps read the same way Summarize prints them.
type Timings struct {
	order   []string
	samples map[string][]float64
}

// NewTimings returns an empty record.
func NewTimings() *Timings {
	return &Timings{samples: make(map[string][]float64)}
}

// Tags returns the recorded tags in first-insertion order.
func (t *Timings) Tags() []string {
	out := make([]string, len(t.order))
	copy(out, t.order)
	return out
}

// Get returns a copy of the samples recorded for tag.
func (t *Timings) Get(tag string) []float64 {
	s, ok := t.samples[tag]
	if !ok {
		return nil
	}
	out := make([]float64, len(s))
	copy(out, s)
	return out
}

// Len reports the number of tags.
func (t *Timings) Len() int { return len(t.order) }

// Append adds values to tag, registering the tag if it is new. A tag
// appended with no values is kept with zero samples.
func (t *Timings) Append(tag string, values ...float64) {
	if t.samples == nil {
		t.samples = make(map[string][]float64)
	}
	if _, ok := t.samples[tag]; !ok {
		t.order = append(t.order, tag)
		t.samples[tag] = make([]float64, 0, len(values))
	}
	t.samples[tag] = append(t.samples[tag], values...)
}

func (t *Timings) appendRepeated(tag string, value float64, n int) {
	values := make([]float64, n)
	for i := range values {
		values[i] = value
	}
	t.Append(tag, values...)
}

func (t *Timings) clone() *Timings {
	out := NewTimings()
	for _, tag := range t.order {
		out.Append(tag, t.samples[tag]...)
	}
	return out
}

// Map returns the record as a plain map (order is lost).
func (t *Timings) Map() map[string][]float64 {
	out := make(map[string][]float64, len(t.order))
	for _, tag := range t.order {
		out[tag] = t.Get(tag)
	}
	return out
}

// MarshalJSON encodes the record as {"tag": [seconds, ...], ...} in tag order.
func (t *Timings) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, tag := range t.order {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(tag)
		if err != nil {
			return nil, err
		}
		values, err := json.Marshal(t.samples[tag])
		if err != nil {
			return nil, fmt.Errorf("encode samples for %q: %w", tag, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(values)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a timing dump, keeping the key order of the document.
func (t *Timings) UnmarshalJSON(data []byte) error {
	*t = Timings{samples: make(map[string][]float64)}
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("timings: expected JSON object, got %v", tok)
	}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		tag, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("timings: expected string key, got %v", keyTok)
		}
		var values []float64
		if err := dec.Decode(&values); err != nil {
			return fmt.Errorf("timings: decode %q: %w", tag, err)
		}
		t.Append(tag, values...)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	return nil
}
