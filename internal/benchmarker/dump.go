package benchmarker

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"

	"git.home.luguber.info/inful/splatbench/internal/errors"
	"git.home.luguber.info/inful/splatbench/internal/logfields"
)

// Dump writes the full record as a JSON object (tag -> array of seconds) to
// path, creating parent directories and overwriting any existing file.
func (b *Benchmarker) Dump(path string) error {
	snap := b.Snapshot()
	data, err := json.Marshal(snap)
	if err != nil {
		return errors.InternalError("encode timings", err)
	}
	if err := writeFile(path, data); err != nil {
		return err
	}
	samples := 0
	for _, tag := range snap.order {
		samples += len(snap.samples[tag])
	}
	b.logger.Debug("Timings dumped", logfields.Path(path), logfields.Samples(samples))
	return nil
}

// DumpMemory writes the device allocator's peak allocated byte count as a
// single JSON integer. It fails when the device has no allocator statistics.
func (b *Benchmarker) DumpMemory(path string) error {
	peak, err := b.device.PeakAllocatedBytes()
	if err != nil {
		if _, ok := errors.As(err); ok {
			return err
		}
		return errors.Wrap(err, errors.CategoryDevice, errors.SeverityError, "read peak allocated bytes")
	}
	b.recorder.SetPeakAllocatedBytes(peak)
	if err := writeFile(path, []byte(strconv.FormatInt(peak, 10))); err != nil {
		return err
	}
	b.logger.Debug("Peak memory dumped", logfields.Path(path), "bytes", peak)
	return nil
}

// LoadTimings reads a file written by Dump.
func LoadTimings(path string) (*Timings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.ResultNotFound("timings", path)
		}
		return nil, errors.FileSystemError("read timings", path, err)
	}
	t := NewTimings()
	if err := json.Unmarshal(data, t); err != nil {
		return nil, errors.ParseFailed(path, err)
	}
	return t, nil
}

func writeFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return errors.FileSystemError("create directory", dir, err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.FileSystemError("write file", path, err)
	}
	return nil
}
