package support

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/cucumber/godog"
)

// cliReport mirrors the JSON document written by analyze and batch.
type cliReport struct {
	Images []struct {
		File   string `json:"file"`
		Error  string `json:"error"`
		Result *struct {
			Labelled   int               `json:"labelled"`
			Discarded  int               `json:"discarded"`
			Measured   int               `json:"measured"`
			Failed     int               `json:"failed"`
			Components []json.RawMessage `json:"components"`
		} `json:"result"`
	} `json:"images"`
	Summary *struct {
		Components int `json:"components"`
	} `json:"summary"`
}

// substituteCommandVariables replaces {tmp} with the scenario's scratch
// directory.
func (testCtx *TestContext) substituteCommandVariables(command string) string {
	return strings.ReplaceAll(command, "{tmp}", testCtx.TempDir)
}

// iRunCommand executes a grainscan command line.
func (testCtx *TestContext) iRunCommand(command string) error {
	command = testCtx.substituteCommandVariables(command)
	testCtx.LastCommand = command

	parts := strings.Fields(command)
	if len(parts) == 0 {
		return errors.New("empty command")
	}
	if parts[0] == "grainscan" {
		if bin := os.Getenv(BinaryEnv); bin != "" {
			parts[0] = bin
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, parts[0], parts[1:]...) //nolint:gosec // G204: commands come from feature files
	cmd.Dir = testCtx.TempDir
	cmd.Env = append(os.Environ(), testCtx.EnvVars...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	testCtx.LastDuration = time.Since(start)
	testCtx.LastStdout = stdout.String()
	testCtx.LastStderr = stderr.String()
	testCtx.LastError = err

	if err != nil {
		exitError := &exec.ExitError{}
		if errors.As(err, &exitError) {
			testCtx.LastExitCode = exitError.ExitCode()
		} else {
			testCtx.LastExitCode = -1
		}
	} else {
		testCtx.LastExitCode = 0
	}
	return nil
}

// theCommandShouldSucceed verifies the command succeeded.
func (testCtx *TestContext) theCommandShouldSucceed() error {
	if testCtx.LastExitCode != 0 {
		return fmt.Errorf("command failed with exit code %d: %w\nOutput: %s",
			testCtx.LastExitCode, testCtx.LastError, testCtx.LastOutput())
	}
	return nil
}

// theCommandShouldFail verifies the command failed.
func (testCtx *TestContext) theCommandShouldFail() error {
	if testCtx.LastExitCode == 0 {
		return fmt.Errorf("command succeeded when it should have failed\nOutput: %s", testCtx.LastOutput())
	}
	return nil
}

// theOutputShouldContain verifies stdout or stderr contains specific text.
func (testCtx *TestContext) theOutputShouldContain(expectedText string) error {
	expectedText = testCtx.substituteCommandVariables(expectedText)
	if !strings.Contains(testCtx.LastOutput(), expectedText) {
		return fmt.Errorf("output does not contain '%s'\nActual output: %s", expectedText, testCtx.LastOutput())
	}
	return nil
}

func (testCtx *TestContext) theErrorShouldMention(text string) error {
	if !strings.Contains(strings.ToLower(testCtx.LastStderr), strings.ToLower(text)) {
		return fmt.Errorf("stderr does not mention '%s'\nActual stderr: %s", text, testCtx.LastStderr)
	}
	return nil
}

func (testCtx *TestContext) parseReport() (*cliReport, error) {
	var r cliReport
	if err := json.Unmarshal([]byte(testCtx.LastStdout), &r); err != nil {
		return nil, fmt.Errorf("output is not valid JSON: %w\nOutput: %s", err, testCtx.LastStdout)
	}
	return &r, nil
}

// theOutputShouldBeValidJSON verifies stdout is a JSON report.
func (testCtx *TestContext) theOutputShouldBeValidJSON() error {
	_, err := testCtx.parseReport()
	return err
}

// theReportShouldListImages checks the number of image entries.
func (testCtx *TestContext) theReportShouldListImages(n int) error {
	r, err := testCtx.parseReport()
	if err != nil {
		return err
	}
	if len(r.Images) != n {
		return fmt.Errorf("expected %d images, got %d", n, len(r.Images))
	}
	return nil
}

// imageShouldHave checks the counters of one report entry.
func (testCtx *TestContext) imageShouldHave(index, measured, discarded int) error {
	r, err := testCtx.parseReport()
	if err != nil {
		return err
	}
	if index < 1 || index > len(r.Images) {
		return fmt.Errorf("image %d out of range (report has %d)", index, len(r.Images))
	}
	im := r.Images[index-1]
	if im.Result == nil {
		return fmt.Errorf("image %s failed: %s", im.File, im.Error)
	}
	if im.Result.Measured != measured || im.Result.Discarded != discarded {
		return fmt.Errorf("image %s: measured %d discarded %d, want %d and %d",
			im.File, im.Result.Measured, im.Result.Discarded, measured, discarded)
	}
	return nil
}

// theSummaryShouldCover checks the combined summary of a multi-image report.
func (testCtx *TestContext) theSummaryShouldCover(n int) error {
	r, err := testCtx.parseReport()
	if err != nil {
		return err
	}
	if r.Summary == nil {
		return errors.New("report has no summary")
	}
	if r.Summary.Components != n {
		return fmt.Errorf("summary covers %d components, want %d", r.Summary.Components, n)
	}
	return nil
}

func readCSV(data string) ([][]string, error) {
	rows, err := csv.NewReader(strings.NewReader(data)).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("invalid CSV: %w", err)
	}
	if len(rows) == 0 || rows[0][0] != "file" {
		return nil, errors.New("CSV has no header row")
	}
	return rows, nil
}

// theOutputShouldBeCSVWithRows verifies stdout is CSV with n data rows.
func (testCtx *TestContext) theOutputShouldBeCSVWithRows(n int) error {
	rows, err := readCSV(testCtx.LastStdout)
	if err != nil {
		return err
	}
	if len(rows)-1 != n {
		return fmt.Errorf("expected %d CSV rows, got %d\nOutput: %s", n, len(rows)-1, testCtx.LastStdout)
	}
	return nil
}

// theFileShouldBeCSVWithRows verifies a written CSV file.
func (testCtx *TestContext) theFileShouldBeCSVWithRows(name string, n int) error {
	data, err := os.ReadFile(testCtx.Path(name))
	if err != nil {
		return err
	}
	rows, err := readCSV(string(data))
	if err != nil {
		return err
	}
	if len(rows)-1 != n {
		return fmt.Errorf("expected %d CSV rows in %s, got %d", n, name, len(rows)-1)
	}
	return nil
}

// theFileShouldExist checks a path relative to the scratch directory.
func (testCtx *TestContext) theFileShouldExist(name string) error {
	if _, err := os.Stat(testCtx.Path(name)); err != nil {
		return fmt.Errorf("expected file %s: %w", name, err)
	}
	return nil
}

func (testCtx *TestContext) theFileShouldContain(name, text string) error {
	data, err := os.ReadFile(testCtx.Path(name))
	if err != nil {
		return err
	}
	if !strings.Contains(string(data), text) {
		return fmt.Errorf("file %s does not contain '%s'", name, text)
	}
	return nil
}

func (testCtx *TestContext) theEnvironmentVariableIsSetTo(name, value string) error {
	testCtx.AddEnvVar(name, value)
	return nil
}

// aConfigFileWith writes a config file into the scratch directory.
func (testCtx *TestContext) aConfigFileWith(name string, body *godog.DocString) error {
	return os.WriteFile(testCtx.Path(name), []byte(body.Content+"\n"), 0o600)
}

// RegisterCommonSteps registers command execution and output steps.
func (testCtx *TestContext) RegisterCommonSteps(sc *godog.ScenarioContext) {
	// Command execution
	sc.Step(`^I run "([^"]*)"$`, testCtx.iRunCommand)
	sc.Step(`^the command should succeed$`, testCtx.theCommandShouldSucceed)
	sc.Step(`^the command should fail$`, testCtx.theCommandShouldFail)

	// Output verification
	sc.Step(`^the output should contain "([^"]*)"$`, testCtx.theOutputShouldContain)
	sc.Step(`^the error should mention "([^"]*)"$`, testCtx.theErrorShouldMention)
	sc.Step(`^the output should be valid JSON$`, testCtx.theOutputShouldBeValidJSON)
	sc.Step(`^the report should list (\d+) images?$`, testCtx.theReportShouldListImages)
	sc.Step(`^image (\d+) should have (\d+) measured and (\d+) discarded grains?$`, testCtx.imageShouldHave)
	sc.Step(`^the summary should cover (\d+) grains?$`, testCtx.theSummaryShouldCover)
	sc.Step(`^the output should be CSV with (\d+) rows?$`, testCtx.theOutputShouldBeCSVWithRows)

	// Files and environment
	sc.Step(`^the file "([^"]*)" should exist$`, testCtx.theFileShouldExist)
	sc.Step(`^the file "([^"]*)" should contain "([^"]*)"$`, testCtx.theFileShouldContain)
	sc.Step(`^the file "([^"]*)" should be CSV with (\d+) rows?$`, testCtx.theFileShouldBeCSVWithRows)
	sc.Step(`^the environment variable "([^"]*)" is set to "([^"]*)"$`, testCtx.theEnvironmentVariableIsSetTo)
	sc.Step(`^a config file "([^"]*)" with:$`, testCtx.aConfigFileWith)
}
