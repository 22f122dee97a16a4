package server

import (
	"bytes"
	"image"
	"image/png"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/MeKo-Tech/grainscan/internal/pipeline"
	"github.com/MeKo-Tech/grainscan/internal/testutil"
	"github.com/stretchr/testify/require"
)

// newTestServer returns a server with default analysis settings and a
// discarding logger.
func newTestServer(t *testing.T, mutate func(*Config)) *Server {
	t.Helper()
	cfg := Config{
		CORSOrigin:  "*",
		MaxUploadMB: 5,
		TimeoutSec:  30,
		Pipeline:    pipeline.DefaultConfig(),
		Version:     "test",
		Logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	if mutate != nil {
		mutate(&cfg)
	}
	s, err := NewServer(cfg)
	require.NoError(t, err)
	return s
}

// grainsImage has two interior grains and one grain on the image frame.
func grainsImage() *image.Gray {
	return testutil.DefaultScene().With(
		testutil.Rect(10, 10, 6, 6),
		testutil.Disk(40, 40, 6),
		testutil.Rect(0, 0, 4, 4),
	).Render()
}

// encodeImageToPNG encodes an image to PNG bytes.
func encodeImageToPNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// createMultipartFormRequest creates an analysis request uploading data as
// the image field.
func createMultipartFormRequest(t *testing.T, data []byte, filename, query string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("image", filename)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	target := "/v1/analyze"
	if query != "" {
		target += "?" + query
	}
	req := httptest.NewRequest(http.MethodPost, target, &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}
