package commands

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/splatbench/internal/benchmarker"
	"git.home.luguber.info/inful/splatbench/internal/errors"
)

type testEnv struct {
	dir string
	out *bytes.Buffer
	err *bytes.Buffer
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return &testEnv{dir: t.TempDir(), out: &bytes.Buffer{}, err: &bytes.Buffer{}}
}

func (e *testEnv) run(t *testing.T, args ...string) error {
	t.Helper()
	e.out.Reset()
	g := &Global{Ctx: t.Context(), Out: e.out, Err: e.err}
	return Execute(args, g)
}

func (e *testEnv) write(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(e.dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func (e *testEnv) summaries(t *testing.T) (string, string) {
	t.Helper()
	a := e.write(t, "ggn/scores_all_avg.json", `{"encoder": [10, 0.05], "psnr": 28.0}`)
	b := e.write(t, "sparse/scores_all_avg.json", `{"encoder": [10, 0.04], "psnr": 27.0}`)
	return a, b
}

func TestCompareTextReport(t *testing.T) {
	env := newTestEnv(t)
	a, b := env.summaries(t)

	err := env.run(t, "compare", "-a", a, "-b", b, "--name-a", "GGN", "--name-b", "SparseSplat", "--dataset", "dl3dv")
	require.NoError(t, err)

	out := env.out.String()
	assert.Contains(t, out, "GGN vs SparseSplat - dl3dv evaluation comparison\n")
	assert.Contains(t, out, "Encoder avg. time    50.0 ms                   40.0 ms                   +25.0%\n")
	assert.Contains(t, out, "PSNR ↑               28.0000                   27.0000                   +1.0000 (GGN ✓)\n")
	assert.Contains(t, out, "  • Inference speed: SparseSplat is faster (20.0% difference)\n")
	assert.Contains(t, out, "  • Rendering quality: GGN is better (by PSNR)\n")
}

func TestCompareUsesConfiguredLabels(t *testing.T) {
	env := newTestEnv(t)
	a, b := env.summaries(t)
	cfg := env.write(t, "splatbench.yaml", "version: \"1\"\nreport:\n  name_a: GGN\n  name_b: SparseSplat\n")

	require.NoError(t, env.run(t, "-c", cfg, "compare", "-a", a, "-b", b))
	assert.Contains(t, env.out.String(), "GGN vs SparseSplat evaluation comparison\n")
}

func TestCompareMissingFileIsSoft(t *testing.T) {
	env := newTestEnv(t)
	_, b := env.summaries(t)
	missing := filepath.Join(env.dir, "missing.json")

	require.NoError(t, env.run(t, "compare", "-a", missing, "-b", b))

	out := env.out.String()
	assert.Contains(t, out, "Error: ")
	assert.Contains(t, out, missing)
	assert.NotContains(t, out, "Metric")
	assert.NotContains(t, out, "Summary")
}

func TestCompareMissingCandidateIsSoft(t *testing.T) {
	env := newTestEnv(t)
	a, _ := env.summaries(t)
	missing := filepath.Join(env.dir, "missing.json")

	require.NoError(t, env.run(t, "compare", "-a", a, "-b", missing))

	out := env.out.String()
	assert.Equal(t, "Error: candidate result file does not exist: "+missing+"\n", out)
	assert.NotContains(t, out, "Metric")
}

func TestCompareReportsMissingPathBeforeParsing(t *testing.T) {
	env := newTestEnv(t)
	bad := env.write(t, "bad.json", `{"encoder": [10]}`)
	missing := filepath.Join(env.dir, "missing.json")

	require.NoError(t, env.run(t, "compare", "-a", bad, "-b", missing))
	assert.Contains(t, env.out.String(), missing)

	err := env.run(t, "compare", "--strict", "-a", bad, "-b", missing)
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryNotFound))
	assert.Contains(t, err.Error(), missing)
}

func TestCompareMissingFileStrict(t *testing.T) {
	env := newTestEnv(t)
	a, _ := env.summaries(t)
	missing := filepath.Join(env.dir, "missing.json")

	err := env.run(t, "compare", "--strict", "-a", a, "-b", missing)
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryNotFound))
	assert.Contains(t, err.Error(), missing)
}

func TestCompareMalformedInputFails(t *testing.T) {
	env := newTestEnv(t)
	a, _ := env.summaries(t)
	bad := env.write(t, "bad.json", `{"encoder": [10]}`)

	err := env.run(t, "compare", "-a", a, "-b", bad)
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryParse))
}

func TestCompareJSONToFile(t *testing.T) {
	env := newTestEnv(t)
	a, b := env.summaries(t)
	out := filepath.Join(env.dir, "reports", "compare.json")

	require.NoError(t, env.run(t, "compare", "-a", a, "-b", b, "-f", "json", "-o", out))
	assert.Empty(t, env.out.String())

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Contains(t, decoded, "timing")
}

func TestCompareRejectsUnknownFormat(t *testing.T) {
	env := newTestEnv(t)
	a, b := env.summaries(t)

	err := env.run(t, "compare", "-a", a, "-b", b, "-f", "pdf")
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryValidation))
}

func TestMissingConfigFile(t *testing.T) {
	env := newTestEnv(t)
	a, b := env.summaries(t)

	err := env.run(t, "-c", filepath.Join(env.dir, "nope.yaml"), "compare", "-a", a, "-b", b)
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryConfig))
}

func TestSummarize(t *testing.T) {
	env := newTestEnv(t)
	timings := env.write(t, "timings.json", `{"encoder": [0.5, 0.5, 0.5, 0.5], "decoder": [0.25]}`)

	require.NoError(t, env.run(t, "summarize", "-t", timings))
	assert.Equal(t,
		"encoder: 4 calls, avg. 0.5 seconds per call\ndecoder: 1 calls, avg. 0.25 seconds per call\n",
		env.out.String())

	require.NoError(t, env.run(t, "summarize", "-t", timings, "--stats"))
	assert.Contains(t, env.out.String(), "TAG")
	assert.Contains(t, env.out.String(), "500.0 ms")
}

func TestSummarizeMissingDump(t *testing.T) {
	env := newTestEnv(t)
	err := env.run(t, "summarize", "-t", filepath.Join(env.dir, "none.json"))
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryNotFound))
}

func TestExportMergesIntoScores(t *testing.T) {
	env := newTestEnv(t)
	timings := env.write(t, "timings.json", `{"encoder": [0.5, 0.5, 0.5, 0.5], "other": [1]}`)
	scores := env.write(t, "scores_all_avg.json", `{"psnr": 27.5, "scenes": 140}`)

	require.NoError(t, env.run(t, "export", "-t", timings, "-s", scores))

	data, err := os.ReadFile(scores)
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, []any{4.0, 0.5}, decoded["encoder"])
	assert.InDelta(t, 27.5, decoded["psnr"], 1e-12)
	assert.InDelta(t, 140, decoded["scenes"], 1e-12)
	assert.NotContains(t, decoded, "decoder")
}

func TestExportRequiresDestination(t *testing.T) {
	env := newTestEnv(t)
	timings := env.write(t, "timings.json", `{"encoder": [0.5]}`)

	err := env.run(t, "export", "-t", timings)
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryValidation))
}

func TestTimeAppendsToDump(t *testing.T) {
	env := newTestEnv(t)
	dump := filepath.Join(env.dir, "out", "timings.json")

	require.NoError(t, env.run(t, "time", "-t", "encoder", "-n", "2", "--timings", dump, "--", "true"))
	require.NoError(t, env.run(t, "time", "-t", "encoder", "-r", "2", "--timings", dump, "--", "true"))
	assert.Contains(t, env.out.String(), "encoder: 4 calls")

	loaded, err := benchmarker.LoadTimings(dump)
	require.NoError(t, err)
	samples := loaded.Get("encoder")
	require.Len(t, samples, 4)
	assert.InDelta(t, samples[0], samples[1], 1e-12)
}

func TestTimeRecordsFailingCommand(t *testing.T) {
	env := newTestEnv(t)
	dump := filepath.Join(env.dir, "timings.json")

	err := env.run(t, "time", "-t", "decoder", "-r", "3", "--timings", dump, "--", "false")
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryRuntime))

	loaded, err := benchmarker.LoadTimings(dump)
	require.NoError(t, err)
	assert.Len(t, loaded.Get("decoder"), 1)
	assert.Contains(t, env.err.String(), "command=time")
	assert.Contains(t, env.err.String(), "tag=decoder")
}

func TestTimeRejectsInvalidCounts(t *testing.T) {
	env := newTestEnv(t)
	dump := filepath.Join(env.dir, "timings.json")

	err := env.run(t, "time", "-t", "encoder", "-r", "0", "--timings", dump, "--", "true")
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryValidation))

	err = env.run(t, "time", "-t", "encoder", "-n", "0", "--timings", dump, "--", "true")
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryValidation))
}

func TestHistoryImportListShow(t *testing.T) {
	env := newTestEnv(t)
	db := filepath.Join(env.dir, "history.db")
	timings := env.write(t, "timings.json", `{"encoder": [0.5, 0.5, 0.5, 0.5]}`)

	require.NoError(t, env.run(t, "history", "--database", db, "list"))
	assert.Contains(t, env.out.String(), "No archived sessions.")

	require.NoError(t, env.run(t, "history", "--database", db, "import", "-t", timings, "-l", "nightly", "--id", "run-1"))
	assert.Equal(t, "run-1\n", env.out.String())

	require.NoError(t, env.run(t, "history", "--database", db, "list"))
	lines := strings.Split(strings.TrimSpace(env.out.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[1], "run-1")
	assert.Contains(t, lines[1], "nightly")

	require.NoError(t, env.run(t, "history", "--database", db, "show", "run-1", "--stats"))
	out := env.out.String()
	assert.Contains(t, out, "Session run-1 (nightly")
	assert.Contains(t, out, "encoder: 4 calls, avg. 0.5 seconds per call\n")
	assert.Contains(t, out, "P95")

	err := env.run(t, "history", "--database", db, "show", "run-2")
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryNotFound))
}

func TestInit(t *testing.T) {
	env := newTestEnv(t)

	require.NoError(t, env.run(t, "init", "-o", env.dir))
	path := filepath.Join(env.dir, DefaultConfigFile)
	assert.FileExists(t, path)
	assert.Contains(t, env.out.String(), "initialized successfully")

	err := env.run(t, "init", "-o", env.dir)
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryValidation))

	require.NoError(t, env.run(t, "init", "-o", env.dir, "--force"))

	nested := filepath.Join(env.dir, "configs", "nightly")
	require.NoError(t, env.run(t, "init", "-o", nested))
	assert.FileExists(t, filepath.Join(nested, DefaultConfigFile))

	// The generated file is a valid configuration.
	a, b := env.summaries(t)
	require.NoError(t, env.run(t, "-c", path, "compare", "-a", a, "-b", b))
	assert.Contains(t, env.out.String(), "GGN vs SparseSplat - dl3dv evaluation comparison\n")
}
