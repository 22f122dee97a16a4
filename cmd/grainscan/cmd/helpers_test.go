package cmd

import (
	"bytes"
	"image"
	"strings"
	"testing"

	"github.com/MeKo-Tech/grainscan/internal/testutil"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// resetFlags restores every flag of c and its subcommands to its default so
// commands can be executed repeatedly within one test binary.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			var vals []string
			if def := strings.Trim(f.DefValue, "[]"); def != "" {
				vals = strings.Split(def, ",")
			}
			_ = sv.Replace(vals)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// executeCommand runs the root command with args and returns what it wrote
// to stdout and stderr.
func executeCommand(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	resetFlags(rootCmd)

	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return stdout.String(), stderr.String(), err
}

// grainsImage has two interior grains and one grain on the image frame.
func grainsImage() *image.Gray {
	return testutil.DefaultScene().With(
		testutil.Rect(10, 10, 6, 6),
		testutil.Disk(40, 40, 6),
		testutil.Rect(0, 0, 4, 4),
	).Render()
}

// saveGrains writes grainsImage to dir/name and returns the path.
func saveGrains(t *testing.T, dir, name string) string {
	t.Helper()
	return testutil.SaveImage(t, grainsImage(), dir, name)
}
