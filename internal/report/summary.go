package report

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/splatbench/internal/errors"
)

// Well-known Result Summary keys.
const (
	KeyEncoder = "encoder"
	KeyDecoder = "decoder"
	KeyPSNR    = "psnr"
	KeySSIM    = "ssim"
	KeyLPIPS   = "lpips"
)

// maxCalls is the largest accepted call count.
const maxCalls = float64(math.MaxInt32)

// TimingMetric is a `[call_count, avg_seconds]` pair.
type TimingMetric struct {
	Calls      int
	AvgSeconds float64
}

func (m TimingMetric) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]float64{float64(m.Calls), m.AvgSeconds})
}

func (m *TimingMetric) UnmarshalJSON(data []byte) error {
	var pair []float64
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	if len(pair) != 2 {
		return fmt.Errorf("timing metric: expected [call_count, avg_seconds], got %d elements", len(pair))
	}
	calls := math.Round(pair[0])
	if math.IsNaN(calls) || calls < 0 || calls >= maxCalls {
		return fmt.Errorf("timing metric: call count %v out of range", pair[0])
	}
	if math.IsNaN(pair[1]) || math.IsInf(pair[1], 0) {
		return fmt.Errorf("timing metric: average %v is not finite", pair[1])
	}
	m.Calls = int(calls)
	m.AvgSeconds = pair[1]
	return nil
}

// Summary is a Result Summary produced by an evaluation pipeline. Every key
// is optional; unknown keys are kept in Extra so a Summary can be rewritten
// without losing data.
type Summary struct {
	Encoder *TimingMetric
	Decoder *TimingMetric
	PSNR    *float64
	SSIM    *float64
	LPIPS   *float64

	Extra map[string]json.RawMessage
}

// Timing returns the timing metric stored under key (encoder or decoder).
func (s *Summary) Timing(key string) *TimingMetric {
	if s == nil {
		return nil
	}
	switch key {
	case KeyEncoder:
		return s.Encoder
	case KeyDecoder:
		return s.Decoder
	}
	return nil
}

// SetTiming stores a timing metric under key (encoder or decoder; other
// keys go to Extra).
func (s *Summary) SetTiming(key string, m TimingMetric) {
	switch key {
	case KeyEncoder:
		s.Encoder = &m
	case KeyDecoder:
		s.Decoder = &m
	default:
		raw, _ := m.MarshalJSON()
		if s.Extra == nil {
			s.Extra = make(map[string]json.RawMessage)
		}
		s.Extra[key] = raw
	}
}

// Quality returns the quality metric stored under key (psnr, ssim or lpips).
func (s *Summary) Quality(key string) *float64 {
	if s == nil {
		return nil
	}
	switch key {
	case KeyPSNR:
		return s.PSNR
	case KeySSIM:
		return s.SSIM
	case KeyLPIPS:
		return s.LPIPS
	}
	return nil
}

func (s *Summary) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*s = Summary{}
	for key, value := range raw {
		var err error
		switch key {
		case KeyEncoder:
			s.Encoder, err = decodeTiming(value)
		case KeyDecoder:
			s.Decoder, err = decodeTiming(value)
		case KeyPSNR:
			s.PSNR, err = decodeScalar(value)
		case KeySSIM:
			s.SSIM, err = decodeScalar(value)
		case KeyLPIPS:
			s.LPIPS, err = decodeScalar(value)
		default:
			if s.Extra == nil {
				s.Extra = make(map[string]json.RawMessage)
			}
			s.Extra[key] = value
		}
		if err != nil {
			return fmt.Errorf("key %q: %w", key, err)
		}
	}
	return nil
}

func (s Summary) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(s.Extra)+5)
	for key, value := range s.Extra {
		out[key] = value
	}
	if s.Encoder != nil {
		out[KeyEncoder] = s.Encoder
	}
	if s.Decoder != nil {
		out[KeyDecoder] = s.Decoder
	}
	if s.PSNR != nil {
		out[KeyPSNR] = *s.PSNR
	}
	if s.SSIM != nil {
		out[KeySSIM] = *s.SSIM
	}
	if s.LPIPS != nil {
		out[KeyLPIPS] = *s.LPIPS
	}
	return json.Marshal(out)
}

func decodeTiming(raw json.RawMessage) (*TimingMetric, error) {
	if string(raw) == "null" {
		return nil, nil
	}
	var m TimingMetric
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

func decodeScalar(raw json.RawMessage) (*float64, error) {
	if string(raw) == "null" {
		return nil, nil
	}
	var v float64
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

// Load reads the Result Summary at path. A missing file yields a not-found
// error carrying label and path; malformed JSON yields a parse error.
func Load(label, path string) (*Summary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.ResultNotFound(label, path)
		}
		return nil, errors.FileSystemError("read result summary", path, err)
	}
	var s Summary
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, errors.ParseFailed(path, err)
	}
	return &s, nil
}

// Save writes s to path as indented JSON, creating parent directories.
func Save(path string, s *Summary) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return errors.InternalError("encode result summary", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return errors.FileSystemError("create directory", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return errors.FileSystemError("write result summary", path, err)
	}
	return nil
}
