package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/MeKo-Tech/grainscan/internal/pipeline"
	"github.com/MeKo-Tech/grainscan/internal/utils"
	"github.com/gorilla/websocket"
)

// WebSocket message types.
const (
	wsTypeStarted   = "started"
	wsTypeComponent = "component"
	wsTypeSummary   = "summary"
	wsTypeError     = "error"
)

// WebSocketAnalyzeRequest is a text frame asking for one analysis. A binary
// frame is taken as raw image bytes analyzed with the server defaults.
type WebSocketAnalyzeRequest struct {
	Filename string         `json:"filename,omitempty"`
	Image    []byte         `json:"image"`
	Options  RequestOptions `json:"options"`
}

// WebSocketConnWriter is an interface for writing WebSocket messages.
type WebSocketConnWriter interface {
	WriteMessage(messageType int, data []byte) error
}

// WebSocketResponse is one streamed message. A request produces a started
// message, one component message per analyzed component in ID order, then a
// summary message; or a single error message.
type WebSocketResponse struct {
	Type      string                    `json:"type"`
	RequestID string                    `json:"request_id,omitempty"`
	Progress  float64                   `json:"progress"`
	Total     int                       `json:"total,omitempty"`
	Component *pipeline.ComponentResult `json:"component,omitempty"`
	Result    *pipeline.ImageResult     `json:"result,omitempty"`
	Error     string                    `json:"error,omitempty"`
	ErrorType string                    `json:"error_type,omitempty"`
}

// analyzeWebSocketHandler upgrades the connection and serves analysis
// requests until the client disconnects.
func (s *Server) analyzeWebSocketHandler(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			return s.originAllowed(r.Header.Get("Origin"))
		},
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log().Error("Failed to upgrade connection to WebSocket", "error", err)
		return
	}
	defer func() {
		_ = conn.Close()
	}()

	websocketConnections.Inc()
	defer websocketConnections.Dec()

	s.log().Info("WebSocket connection established", "remote_addr", r.RemoteAddr)
	s.handleWebSocketConnection(r.Context(), conn)
}

// handleWebSocketConnection processes messages from a WebSocket connection.
func (s *Server) handleWebSocketConnection(ctx context.Context, conn *websocket.Conn) {
	// Base64 in JSON grows the payload by a third.
	conn.SetReadLimit(s.maxUploadMB * 1024 * 1024 * 4 / 3)
	_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	done := make(chan struct{})
	defer close(done)
	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if err := conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(10*time.Second)); err != nil {
					return
				}
			}
		}
	}()

	for {
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log().Error("WebSocket error", "error", err)
			}
			return
		}
		websocketMessagesTotal.WithLabelValues("received").Inc()
		_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))

		switch messageType {
		case websocket.TextMessage:
			var req WebSocketAnalyzeRequest
			if err := json.Unmarshal(data, &req); err != nil {
				s.sendWebSocketError(conn, "", "invalid_request", fmt.Sprintf("Failed to parse request: %v", err))
				continue
			}
			s.processWebSocketRequest(ctx, conn, req)
		case websocket.BinaryMessage:
			s.processWebSocketRequest(ctx, conn, WebSocketAnalyzeRequest{Image: data})
		}
	}
}

// processWebSocketRequest analyzes one image and streams the results.
func (s *Server) processWebSocketRequest(ctx context.Context, conn WebSocketConnWriter, req WebSocketAnalyzeRequest) {
	requestID := strconv.FormatInt(time.Now().UnixNano(), 10)

	if len(req.Image) == 0 {
		s.sendWebSocketError(conn, requestID, "invalid_request", "No image data provided")
		return
	}
	img, _, err := utils.DecodeImage(bytes.NewReader(req.Image))
	if err != nil {
		analyzeRequestsTotal.WithLabelValues("websocket", "error").Inc()
		s.sendWebSocketError(conn, requestID, "invalid_request", fmt.Sprintf("Failed to decode image: %v", err))
		return
	}
	pl, err := s.pipelineFor(req.Options, false)
	if err != nil {
		analyzeRequestsTotal.WithLabelValues("websocket", "error").Inc()
		s.sendWebSocketError(conn, requestID, "invalid_request", fmt.Sprintf("Invalid analysis options: %v", err))
		return
	}

	ctx, cancel := s.requestContext(ctx)
	defer cancel()

	start := time.Now()
	res, err := pl.AnalyzeImage(ctx, img)
	duration := time.Since(start)
	if err != nil {
		analyzeRequestsTotal.WithLabelValues("websocket", "error").Inc()
		s.sendWebSocketError(conn, requestID, "processing_error", fmt.Sprintf("Analysis failed: %v", err))
		return
	}
	res.Name = req.Filename

	analyzeRequestsTotal.WithLabelValues("websocket", "success").Inc()
	analyzeDuration.WithLabelValues("websocket").Observe(duration.Seconds())
	componentsPerImage.WithLabelValues("websocket").Observe(float64(res.Measured))

	total := len(res.Components)
	if !s.sendWebSocketResponse(conn, WebSocketResponse{Type: wsTypeStarted, RequestID: requestID, Total: total}) {
		return
	}
	for i := range res.Components {
		msg := WebSocketResponse{
			Type:      wsTypeComponent,
			RequestID: requestID,
			Progress:  float64(i+1) / float64(total),
			Total:     total,
			Component: &res.Components[i],
		}
		if !s.sendWebSocketResponse(conn, msg) {
			return
		}
	}

	summary := *res
	summary.Components = nil
	s.sendWebSocketResponse(conn, WebSocketResponse{
		Type:      wsTypeSummary,
		RequestID: requestID,
		Progress:  1.0,
		Total:     total,
		Result:    &summary,
	})
}

// sendWebSocketResponse sends a response message over WebSocket. It reports
// false when the write failed.
func (s *Server) sendWebSocketResponse(conn WebSocketConnWriter, response WebSocketResponse) bool {
	data, err := json.Marshal(response)
	if err != nil {
		s.log().Error("Failed to marshal WebSocket response", "error", err)
		return false
	}

	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		s.log().Error("Failed to send WebSocket message", "error", err)
		return false
	}

	websocketMessagesTotal.WithLabelValues("sent").Inc()
	return true
}

// sendWebSocketError sends an error message over WebSocket.
func (s *Server) sendWebSocketError(conn WebSocketConnWriter, requestID, errorType, message string) {
	s.sendWebSocketResponse(conn, WebSocketResponse{
		Type:      wsTypeError,
		RequestID: requestID,
		Error:     message,
		ErrorType: errorType,
	})
}
