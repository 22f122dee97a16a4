package cmd

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/MeKo-Tech/grainscan/internal/batch"
	"github.com/MeKo-Tech/grainscan/internal/measure"
	"github.com/MeKo-Tech/grainscan/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type jsonReport struct {
	Images  []batch.ImageReport `json:"images"`
	Summary *measure.Summary    `json:"summary"`
}

func decodeReport(t *testing.T, s string) jsonReport {
	t.Helper()
	var r jsonReport
	require.NoError(t, json.Unmarshal([]byte(s), &r), s)
	return r
}

func TestAnalyzeCommand(t *testing.T) {
	assert.True(t, strings.HasPrefix(analyzeCmd.Use, "analyze"))
	assert.NotEmpty(t, analyzeCmd.Short)
	for _, name := range []string{"threshold", "invert", "keep-border", "thickness", "format", "output", "overlay-dir"} {
		assert.NotNil(t, analyzeCmd.Flags().Lookup(name), "missing flag %s", name)
	}
}

func TestAnalyzeCommand_Text(t *testing.T) {
	path := saveGrains(t, t.TempDir(), "grains.png")

	stdout, _, err := executeCommand(t, "analyze", path)
	require.NoError(t, err)
	assert.Contains(t, stdout, "# "+path)
	assert.Contains(t, stdout, "3 labelled, 1 discarded, 2 measured, 0 failed")
	assert.Contains(t, stdout, "summary: 2 components")
	assert.NotContains(t, stdout, "all images")
}

func TestAnalyzeCommand_JSON(t *testing.T) {
	path := saveGrains(t, t.TempDir(), "grains.png")

	stdout, _, err := executeCommand(t, "analyze", path, "--format", "json")
	require.NoError(t, err)
	r := decodeReport(t, stdout)
	require.Len(t, r.Images, 1)
	assert.Nil(t, r.Summary)
	res := r.Images[0].Result
	require.NotNil(t, res)
	assert.Equal(t, path, res.Name)
	assert.Equal(t, 2, res.Measured)
	for _, c := range res.Components {
		assert.Nil(t, c.Geometry)
	}
}

func TestAnalyzeCommand_Geometry(t *testing.T) {
	path := saveGrains(t, t.TempDir(), "grains.png")

	stdout, _, err := executeCommand(t, "analyze", path, "--format", "json", "--geometry")
	require.NoError(t, err)
	res := decodeReport(t, stdout).Images[0].Result
	require.NotEmpty(t, res.Components)
	for _, c := range res.Components {
		require.NotNil(t, c.Geometry)
		assert.NotEmpty(t, c.Geometry.Chain)
		assert.NotEmpty(t, c.Geometry.Polygon)
	}
}

func TestAnalyzeCommand_MultipleImages(t *testing.T) {
	dir := t.TempDir()
	a := saveGrains(t, dir, "a.png")
	b := saveGrains(t, dir, "b.png")

	stdout, _, err := executeCommand(t, "analyze", a, b)
	require.NoError(t, err)
	assert.Contains(t, stdout, "# "+a)
	assert.Contains(t, stdout, "# "+b)
	assert.Contains(t, stdout, "all images: 4 components")
}

func TestAnalyzeCommand_KeepBorder(t *testing.T) {
	path := saveGrains(t, t.TempDir(), "grains.png")

	stdout, _, err := executeCommand(t, "analyze", path, "--keep-border", "-f", "json")
	require.NoError(t, err)
	assert.Equal(t, 3, decodeReport(t, stdout).Images[0].Result.Measured)
}

func TestAnalyzeCommand_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := saveGrains(t, dir, "grains.png")
	cfgPath := filepath.Join(dir, "grainscan.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("analysis:\n  keep_border: true\noutput:\n  format: json\n"), 0o600))

	stdout, _, err := executeCommand(t, "--config", cfgPath, "analyze", path)
	require.NoError(t, err)
	assert.Equal(t, 3, decodeReport(t, stdout).Images[0].Result.Measured)

	// Flags override the file.
	stdout, _, err = executeCommand(t, "--config", cfgPath, "analyze", path, "--keep-border=false")
	require.NoError(t, err)
	assert.Equal(t, 2, decodeReport(t, stdout).Images[0].Result.Measured)
}

func TestAnalyzeCommand_OutputFile(t *testing.T) {
	dir := t.TempDir()
	path := saveGrains(t, dir, "grains.png")
	out := filepath.Join(dir, "grains.csv")

	stdout, _, err := executeCommand(t, "analyze", path, "-f", "csv", "-o", out)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Results written to "+out)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "file,component,"))
}

func TestAnalyzeCommand_Overlay(t *testing.T) {
	dir := t.TempDir()
	path := saveGrains(t, dir, "grains.png")
	overlays := filepath.Join(dir, "overlays")

	_, _, err := executeCommand(t, "analyze", path, "--overlay-dir", overlays, "--overlay-scale", "2")
	require.NoError(t, err)
	assert.True(t, testutil.FileExists(filepath.Join(overlays, "grains_overlay.png")))
}

func TestAnalyzeCommand_Errors(t *testing.T) {
	path := saveGrains(t, t.TempDir(), "grains.png")

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"no arguments", []string{"analyze"}, "requires at least 1 arg"},
		{"missing file", []string{"analyze", "/non/existent/file.png"}, "failed to load"},
		{"threshold out of range", []string{"analyze", path, "--threshold", "300"}, "invalid threshold"},
		{"unknown thickness", []string{"analyze", path, "--thickness", "thick"}, "thickness"},
		{"unknown format", []string{"analyze", path, "--format", "xml"}, "invalid output format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := executeCommand(t, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
