package cmd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/MeKo-Tech/grainscan/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// batchDir creates a.png and b.png, a nested sub/c.png and a non-image
// file.
func batchDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	saveGrains(t, dir, "a.png")
	saveGrains(t, dir, "b.png")
	saveGrains(t, filepath.Join(dir, "sub"), "c.png")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("not an image"), 0o600))
	return dir
}

func csvFiles(t *testing.T, out string) []string {
	t.Helper()
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.NotEmpty(t, lines)
	var files []string
	for _, l := range lines[1:] {
		files = append(files, filepath.Base(strings.SplitN(l, ",", 2)[0]))
	}
	return files
}

func TestBatchCommand(t *testing.T) {
	assert.True(t, strings.HasPrefix(batchCmd.Use, "batch"))
	for _, name := range []string{"recursive", "include", "exclude", "workers", "continue-on-error", "progress", "stats", "format"} {
		assert.NotNil(t, batchCmd.Flags().Lookup(name), "missing flag %s", name)
	}
}

func TestBatchCommand_Directory(t *testing.T) {
	dir := batchDir(t)

	stdout, _, err := executeCommand(t, "batch", dir, "-f", "csv")
	require.NoError(t, err)
	assert.Equal(t, []string{"a.png", "a.png", "b.png", "b.png"}, csvFiles(t, stdout))
}

func TestBatchCommand_Recursive(t *testing.T) {
	dir := batchDir(t)

	stdout, _, err := executeCommand(t, "batch", dir, "-r", "-f", "csv", "-w", "3")
	require.NoError(t, err)
	files := csvFiles(t, stdout)
	assert.Len(t, files, 6)
	assert.Contains(t, files, "c.png")
}

func TestBatchCommand_Exclude(t *testing.T) {
	dir := batchDir(t)

	stdout, _, err := executeCommand(t, "batch", dir, "--exclude", "b*", "-f", "csv")
	require.NoError(t, err)
	assert.Equal(t, []string{"a.png", "a.png"}, csvFiles(t, stdout))
}

func TestBatchCommand_TextSummary(t *testing.T) {
	dir := batchDir(t)

	stdout, stderr, err := executeCommand(t, "batch", dir, "--stats")
	require.NoError(t, err)
	assert.Contains(t, stdout, "all images: 4 components")
	assert.Contains(t, stderr, "Processing Statistics:")
	assert.Contains(t, stderr, "Total images: 2")
}

func TestBatchCommand_Failures(t *testing.T) {
	dir := batchDir(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.png"), []byte("not a png"), 0o600))

	t.Run("aborts by default", func(t *testing.T) {
		_, _, err := executeCommand(t, "batch", dir)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "batch processing failed")
	})

	t.Run("continue on error reports the failure", func(t *testing.T) {
		stdout, _, err := executeCommand(t, "batch", dir, "--continue-on-error", "-f", "csv")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "1 of 3 images failed")
		assert.Contains(t, stdout, "broken.png")
		assert.Len(t, csvFiles(t, stdout), 5)
	})
}

func TestBatchCommand_Artifacts(t *testing.T) {
	dir := batchDir(t)
	out := t.TempDir()
	metrics := filepath.Join(out, "grainscan.prom")

	_, _, err := executeCommand(t, "batch", dir,
		"--overlay-dir", filepath.Join(out, "overlays"),
		"--metrics-file", metrics,
		"--progress", "--quiet")
	require.NoError(t, err)

	assert.True(t, testutil.FileExists(filepath.Join(out, "overlays", "a_overlay.png")))
	assert.True(t, testutil.FileExists(filepath.Join(out, "overlays", "b_overlay.png")))
	data, err := os.ReadFile(metrics)
	require.NoError(t, err)
	assert.Contains(t, string(data), "grainscan_images_total")
}

func TestBatchCommand_NoImages(t *testing.T) {
	_, _, err := executeCommand(t, "batch", t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no image files found")
}
