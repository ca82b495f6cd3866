package main

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeWorkspace(t *testing.T) (dir, configPath string) {
	t.Helper()
	dir = t.TempDir()

	stackDir := filepath.Join(dir, "stack")
	require.NoError(t, os.MkdirAll(stackDir, 0o755))
	for i, amp := range []int{120, 30, 90, 50, 140, 20} {
		rng := rand.New(rand.NewSource(int64(i + 1)))
		img := image.NewGray(image.Rect(0, 0, 12, 12))
		for p := range img.Pix {
			img.Pix[p] = uint8(60 + rng.Intn(amp))
		}
		var buf bytes.Buffer
		require.NoError(t, png.Encode(&buf, img))
		require.NoError(t, os.WriteFile(filepath.Join(stackDir, fmt.Sprintf("%02d.png", i)), buf.Bytes(), 0o644))
	}

	assessDir := filepath.Join(dir, "assessments")
	require.NoError(t, os.MkdirAll(assessDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(assessDir, "focus_results_ann.csv"),
		[]byte("InFocus\nTrue\nFalse\nTrue\nFalse\nTrue\nFalse\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(assessDir, "focus_results_ben.csv"),
		[]byte("InFocus\nFalse\nFalse\nTrue\nTrue\nTrue\nFalse\n"), 0o644))

	configPath = filepath.Join(dir, "focuseval.yaml")
	cfg := fmt.Sprintf(`stack_path: %s
stack_id: plate
assessments_dir: %s
processed_images_dir: %s
results_dir: %s
boundary_index: 3
log_file: %s
log_level: warn
metrics:
  - variance_of_intensity
  - variance_of_laplacian
`, stackDir, assessDir, filepath.Join(dir, "processed"), filepath.Join(dir, "results"), filepath.Join(dir, "focus-filter.log"))
	require.NoError(t, os.WriteFile(configPath, []byte(cfg), 0o644))
	return dir, configPath
}

func TestRun_Version(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, run([]string{"version"}, &out))
	assert.Equal(t, "focuseval dev\n", out.String())
}

func TestRun_Usage(t *testing.T) {
	assert.Error(t, run(nil, &bytes.Buffer{}))

	err := run([]string{"calibrate"}, &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown command "calibrate"`)
}

func TestRun_MissingExplicitConfig(t *testing.T) {
	err := run([]string{"measure", "-config", filepath.Join(t.TempDir(), "absent.yaml")}, &bytes.Buffer{})
	assert.Error(t, err)
}

func TestRun_MeasureThenEvaluate(t *testing.T) {
	dir, configPath := writeWorkspace(t)
	csvPath := filepath.Join(dir, "measurements", "focus_measures.csv")

	var out bytes.Buffer
	require.NoError(t, run([]string{"measure", "-config", configPath, "-out", csvPath, "-save-images"}, &out))
	assert.Contains(t, out.String(), "stack plate: 6 frames, 12 measurements")
	assert.FileExists(t, csvPath)
	assert.FileExists(t, filepath.Join(dir, "processed", "variance_of_laplacian", "plate", "plate_0.tif"))

	out.Reset()
	require.NoError(t, run([]string{"evaluate", "-config", configPath, "-measurements", csvPath, "-fpr", "0.5"}, &out))

	text := out.String()
	assert.Contains(t, text, "stack plate, 2 assessments, FPR threshold 0.500")
	assert.Contains(t, text, "modality")
	assert.Equal(t, 4, strings.Count(text, "variance_of_"), text)
	for _, name := range []string{"summary.csv", "assessment_summary.csv", "roc_curves.svg", "roc_curves.html"} {
		assert.FileExists(t, filepath.Join(dir, "results", name))
	}
	assert.FileExists(t, filepath.Join(dir, "focus-filter.log"))
}

func TestRun_EvaluateRejectsBadFlags(t *testing.T) {
	_, configPath := writeWorkspace(t)

	assert.Error(t, run([]string{"evaluate", "-config", configPath, "-fpr", "1.5"}, &bytes.Buffer{}))
	assert.Error(t, run([]string{"evaluate", "-config", configPath, "-boundary", "-1"}, &bytes.Buffer{}))
	assert.Error(t, run([]string{"evaluate", "-config", configPath, "-no-such-flag"}, &bytes.Buffer{}))
}
