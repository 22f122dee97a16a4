package support

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http/httptest"

	"github.com/MeKo-Tech/grainscan/internal/pipeline"
	"github.com/MeKo-Tech/grainscan/internal/server"
)

// StreamMessage is one WebSocket message received from /v1/analyze/ws.
type StreamMessage = server.WebSocketResponse

// HTTPTestServerWrapper wraps httptest.Server for integration tests.
type HTTPTestServerWrapper struct {
	Server     *httptest.Server
	TestServer *server.Server
}

// startTestHTTPServer starts an in-process server with cfg applied on top
// of the defaults.
func (testCtx *TestContext) startTestHTTPServer(mutate func(*server.Config)) error {
	if testCtx.HTTPTestServer != nil {
		return errors.New("server already running")
	}

	cfg := server.Config{
		CORSOrigin:  "*",
		MaxUploadMB: server.DefaultMaxUploadMB,
		TimeoutSec:  30,
		Pipeline:    pipeline.DefaultConfig(),
		Version:     "integration",
		Logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	if mutate != nil {
		mutate(&cfg)
	}

	s, err := server.NewServer(cfg)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}
	testCtx.HTTPTestServer = &HTTPTestServerWrapper{
		Server:     httptest.NewServer(s.Handler()),
		TestServer: s,
	}
	return nil
}

// StopServer stops the in-process server if one is running.
func (testCtx *TestContext) StopServer() error {
	if testCtx.HTTPTestServer != nil {
		testCtx.HTTPTestServer.Server.Close()
		testCtx.HTTPTestServer = nil
	}
	return nil
}

// URL returns the base URL of the running server.
func (testCtx *TestContext) URL() (string, error) {
	if testCtx.HTTPTestServer == nil {
		return "", errors.New("server is not running")
	}
	return testCtx.HTTPTestServer.Server.URL, nil
}
