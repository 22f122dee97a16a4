package support

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/MeKo-Tech/grainscan/internal/server"
	"github.com/cucumber/godog"
	"github.com/gorilla/websocket"
)

func (testCtx *TestContext) theServerIsRunning() error {
	return testCtx.startTestHTTPServer(nil)
}

func (testCtx *TestContext) theServerIsRunningWithCORSOrigin(origin string) error {
	return testCtx.startTestHTTPServer(func(c *server.Config) { c.CORSOrigin = origin })
}

func (testCtx *TestContext) recordResponse(resp *http.Response) error {
	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	testCtx.LastHTTPStatusCode = resp.StatusCode
	testCtx.LastHTTPResponse = string(body)
	testCtx.LastHTTPHeaders = map[string]string{}
	for k := range resp.Header {
		testCtx.LastHTTPHeaders[k] = resp.Header.Get(k)
	}
	return nil
}

func (testCtx *TestContext) do(req *http.Request) error {
	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	return testCtx.recordResponse(resp)
}

func (testCtx *TestContext) iSendARequestTo(method, path string) error {
	base, err := testCtx.URL()
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(context.Background(), method, base+path, nil)
	if err != nil {
		return err
	}
	return testCtx.do(req)
}

// iUploadTo posts a scratch file as the multipart "image" field.
func (testCtx *TestContext) iUploadTo(name, path string) error {
	base, err := testCtx.URL()
	if err != nil {
		return err
	}
	data, err := os.ReadFile(testCtx.Path(name))
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("image", filepath.Base(name))
	if err != nil {
		return err
	}
	if _, err := part.Write(data); err != nil {
		return err
	}
	if err := writer.Close(); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, base+path, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return testCtx.do(req)
}

func (testCtx *TestContext) theResponseStatusShouldBe(code int) error {
	if testCtx.LastHTTPStatusCode != code {
		return fmt.Errorf("expected status %d, got %d\nBody: %s", code, testCtx.LastHTTPStatusCode, testCtx.LastHTTPResponse)
	}
	return nil
}

func (testCtx *TestContext) theResponseShouldContain(text string) error {
	if !strings.Contains(testCtx.LastHTTPResponse, text) {
		return fmt.Errorf("response does not contain '%s'\nBody: %s", text, testCtx.LastHTTPResponse)
	}
	return nil
}

func (testCtx *TestContext) theResponseHeaderShouldBe(name, value string) error {
	if got := testCtx.LastHTTPHeaders[http.CanonicalHeaderKey(name)]; got != value {
		return fmt.Errorf("header %s is %q, want %q", name, got, value)
	}
	return nil
}

func (testCtx *TestContext) theJSONResponseShouldReportMeasuredGrains(n int) error {
	var resp server.AnalyzeResponse
	if err := json.Unmarshal([]byte(testCtx.LastHTTPResponse), &resp); err != nil {
		return fmt.Errorf("response is not JSON: %w", err)
	}
	if !resp.Success || resp.Result == nil {
		return fmt.Errorf("analysis failed: %s", resp.Error)
	}
	if resp.Result.Measured != n {
		return fmt.Errorf("measured %d grains, want %d", resp.Result.Measured, n)
	}
	return nil
}

// iStreamOverTheWebSocket sends a scratch file as a binary frame and reads
// messages until a summary or an error arrives.
func (testCtx *TestContext) iStreamOverTheWebSocket(name string) error {
	base, err := testCtx.URL()
	if err != nil {
		return err
	}
	data, err := os.ReadFile(testCtx.Path(name))
	if err != nil {
		return err
	}

	url := "ws" + strings.TrimPrefix(base, "http") + "/v1/analyze/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		return fmt.Errorf("websocket dial failed: %w", err)
	}
	_ = resp.Body.Close()
	defer func() { _ = conn.Close() }()

	if err := conn.WriteMessage(websocket.BinaryMessage, data); err != nil {
		return err
	}

	testCtx.LastStream = nil
	_ = conn.SetReadDeadline(time.Now().Add(30 * time.Second))
	for {
		var msg StreamMessage
		if err := conn.ReadJSON(&msg); err != nil {
			return fmt.Errorf("websocket read failed: %w", err)
		}
		testCtx.LastStream = append(testCtx.LastStream, msg)
		if msg.Type == "summary" || msg.Type == "error" {
			return nil
		}
	}
}

func (testCtx *TestContext) iShouldReceiveComponentMessages(n int) error {
	count := 0
	for _, m := range testCtx.LastStream {
		if m.Type == "component" {
			count++
		}
	}
	if count != n {
		return fmt.Errorf("received %d component messages, want %d", count, n)
	}
	return nil
}

func (testCtx *TestContext) lastStreamMessage() (StreamMessage, error) {
	if len(testCtx.LastStream) == 0 {
		return StreamMessage{}, errors.New("no websocket messages received")
	}
	return testCtx.LastStream[len(testCtx.LastStream)-1], nil
}

func (testCtx *TestContext) theStreamShouldEndWithASummary(n int) error {
	last, err := testCtx.lastStreamMessage()
	if err != nil {
		return err
	}
	if last.Type != "summary" || last.Result == nil {
		return fmt.Errorf("stream ended with %q: %s", last.Type, last.Error)
	}
	if last.Result.Measured != n {
		return fmt.Errorf("summary reports %d measured grains, want %d", last.Result.Measured, n)
	}
	return nil
}

func (testCtx *TestContext) theStreamShouldEndWithAnError(errorType string) error {
	last, err := testCtx.lastStreamMessage()
	if err != nil {
		return err
	}
	if last.Type != "error" || last.ErrorType != errorType {
		return fmt.Errorf("stream ended with %q (%s), want %s error", last.Type, last.ErrorType, errorType)
	}
	return nil
}

// RegisterServerSteps registers HTTP and WebSocket steps.
func (testCtx *TestContext) RegisterServerSteps(sc *godog.ScenarioContext) {
	// Server lifecycle
	sc.Step(`^the server is running$`, testCtx.theServerIsRunning)
	sc.Step(`^the server is running with CORS origin "([^"]*)"$`, testCtx.theServerIsRunningWithCORSOrigin)

	// HTTP requests
	sc.Step(`^I send a (GET|POST|OPTIONS) request to "([^"]*)"$`, testCtx.iSendARequestTo)
	sc.Step(`^I upload "([^"]*)" to "([^"]*)"$`, testCtx.iUploadTo)
	sc.Step(`^the response status should be (\d+)$`, testCtx.theResponseStatusShouldBe)
	sc.Step(`^the response should contain "([^"]*)"$`, testCtx.theResponseShouldContain)
	sc.Step(`^the response header "([^"]*)" should be "([^"]*)"$`, testCtx.theResponseHeaderShouldBe)
	sc.Step(`^the JSON response should report (\d+) measured grains?$`, testCtx.theJSONResponseShouldReportMeasuredGrains)

	// WebSocket streaming
	sc.Step(`^I stream "([^"]*)" over the WebSocket$`, testCtx.iStreamOverTheWebSocket)
	sc.Step(`^I should receive (\d+) component messages?$`, testCtx.iShouldReceiveComponentMessages)
	sc.Step(`^the stream should end with a summary of (\d+) measured grains?$`, testCtx.theStreamShouldEndWithASummary)
	sc.Step(`^the stream should end with an? "([^"]*)" error$`, testCtx.theStreamShouldEndWithAnError)
}
