package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/png"
	"net/http"
	"strconv"
	"time"

	"github.com/MeKo-Tech/grainscan/internal/batch"
	"github.com/MeKo-Tech/grainscan/internal/dss"
	"github.com/MeKo-Tech/grainscan/internal/pipeline"
	"github.com/MeKo-Tech/grainscan/internal/render"
	"github.com/MeKo-Tech/grainscan/internal/utils"
)

const (
	formatJSON    = "json"
	formatCSV     = "csv"
	formatYAML    = "yaml"
	formatText    = "text"
	formatOverlay = "overlay"
)

// RequestOptions holds per-request overrides of the analysis configuration.
// Nil fields keep the server's configuration.
type RequestOptions struct {
	Threshold  *int    `json:"threshold,omitempty"`
	Invert     *bool   `json:"invert,omitempty"`
	KeepBorder *bool   `json:"keep_border,omitempty"`
	MinPixels  *int    `json:"min_pixels,omitempty"`
	Thickness  *string `json:"thickness,omitempty"`
}

func (o RequestOptions) empty() bool {
	return o.Threshold == nil && o.Invert == nil && o.KeepBorder == nil && o.MinPixels == nil && o.Thickness == nil
}

// apply returns cfg with the overrides of o.
func (o RequestOptions) apply(cfg pipeline.Config) (pipeline.Config, error) {
	if o.Threshold != nil {
		if *o.Threshold < 0 || *o.Threshold > 255 {
			return cfg, fmt.Errorf("threshold must be within 0..255, got %d", *o.Threshold)
		}
		cfg.Labeling.Level = uint8(*o.Threshold) //nolint:gosec // G115: range checked above
	}
	if o.Invert != nil {
		cfg.Labeling.Invert = *o.Invert
	}
	if o.KeepBorder != nil {
		cfg.KeepBorder = *o.KeepBorder
	}
	if o.MinPixels != nil {
		cfg.Labeling.MinPixels = *o.MinPixels
	}
	if o.Thickness != nil {
		t, err := dss.ParseThickness(*o.Thickness)
		if err != nil {
			return cfg, err
		}
		cfg.Thickness = t
	}
	return cfg, cfg.Validate()
}

// parseRequestOptions reads overrides from the query string or form.
func parseRequestOptions(r *http.Request) (RequestOptions, error) {
	var opts RequestOptions
	if v := r.FormValue("threshold"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return opts, fmt.Errorf("invalid threshold %q", v)
		}
		opts.Threshold = &n
	}
	if v := r.FormValue("min_pixels"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return opts, fmt.Errorf("invalid min_pixels %q", v)
		}
		opts.MinPixels = &n
	}
	for name, dst := range map[string]**bool{"invert": &opts.Invert, "keep_border": &opts.KeepBorder} {
		if v := r.FormValue(name); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return opts, fmt.Errorf("invalid %s %q", name, v)
			}
			*dst = &b
		}
	}
	if v := r.FormValue("thickness"); v != "" {
		opts.Thickness = &v
	}
	return opts, nil
}

// pipelineFor returns the server pipeline, or a new one when the request
// overrides the configuration or needs geometry for an overlay.
func (s *Server) pipelineFor(opts RequestOptions, geometry bool) (*pipeline.Pipeline, error) {
	if opts.empty() && (!geometry || s.pipeline.Config().KeepGeometry) {
		return s.pipeline, nil
	}
	cfg, err := opts.apply(s.pipeline.Config())
	if err != nil {
		return nil, err
	}
	if geometry {
		cfg.KeepGeometry = true
	}
	return pipeline.New(cfg)
}

// requestContext bounds analysis by the configured request timeout.
func (s *Server) requestContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout > 0 {
		return context.WithTimeout(ctx, s.timeout)
	}
	return context.WithCancel(ctx)
}

// analyzeHandler runs the analysis on an uploaded image.
func (s *Server) analyzeHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	img, name, err := s.parseImageRequest(w, r)
	if err != nil {
		analyzeRequestsTotal.WithLabelValues("http", "error").Inc()
		return // error already written
	}

	format := r.FormValue("format")
	if format == "" {
		format = formatJSON
	}
	switch format {
	case formatJSON, formatCSV, formatYAML, formatText, formatOverlay:
	default:
		analyzeRequestsTotal.WithLabelValues("http", "error").Inc()
		s.writeErrorResponse(w, "Unsupported format: "+format, http.StatusBadRequest)
		return
	}

	opts, err := parseRequestOptions(r)
	if err != nil {
		analyzeRequestsTotal.WithLabelValues("http", "error").Inc()
		s.writeErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}
	pl, err := s.pipelineFor(opts, format == formatOverlay)
	if err != nil {
		analyzeRequestsTotal.WithLabelValues("http", "error").Inc()
		s.writeErrorResponse(w, fmt.Sprintf("Invalid analysis options: %v", err), http.StatusBadRequest)
		return
	}

	ctx, cancel := s.requestContext(r.Context())
	defer cancel()

	start := time.Now()
	res, err := pl.AnalyzeImage(ctx, img)
	duration := time.Since(start)
	if err != nil {
		analyzeRequestsTotal.WithLabelValues("http", "error").Inc()
		status := http.StatusInternalServerError
		if errors.Is(err, context.DeadlineExceeded) {
			status = http.StatusGatewayTimeout
		}
		s.writeErrorResponse(w, fmt.Sprintf("Analysis failed: %v", err), status)
		return
	}
	res.Name = name

	analyzeRequestsTotal.WithLabelValues("http", "success").Inc()
	analyzeDuration.WithLabelValues("http").Observe(duration.Seconds())
	componentsPerImage.WithLabelValues("http").Observe(float64(res.Measured))

	s.writeAnalyzeResponse(w, r, format, img, res)
}

func (s *Server) parseImageRequest(w http.ResponseWriter, r *http.Request) (image.Image, string, error) {
	limit := s.maxUploadMB * 1024 * 1024
	r.Body = http.MaxBytesReader(w, r.Body, limit)

	if err := r.ParseMultipartForm(limit); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.writeErrorResponse(w, "File too large", http.StatusRequestEntityTooLarge)
			return nil, "", err
		}
		s.writeErrorResponse(w, "Failed to parse form data", http.StatusBadRequest)
		return nil, "", err
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		s.writeErrorResponse(w, "No image file provided", http.StatusBadRequest)
		return nil, "", err
	}
	defer func() { _ = file.Close() }()

	uploadSizeBytes.Observe(float64(header.Size))

	img, _, err := utils.DecodeImage(file)
	if err != nil {
		s.writeErrorResponse(w, "Invalid image format", http.StatusBadRequest)
		return nil, "", err
	}
	return img, header.Filename, nil
}

func (s *Server) writeAnalyzeResponse(
	w http.ResponseWriter,
	r *http.Request,
	format string,
	img image.Image,
	res *pipeline.ImageResult,
) {
	switch format {
	case formatOverlay:
		w.Header().Set("Content-Type", "image/png")
		if err := png.Encode(w, render.Overlay(img, res, render.DefaultOptions())); err != nil {
			s.log().Error("encoding overlay", "error", err)
		}
	case formatCSV, formatYAML, formatText:
		reports := []batch.ImageReport{{File: res.Name, Result: res}}
		out, err := batch.FormatReports(reports, nil, format, r.FormValue("locale"))
		if err != nil {
			s.writeErrorResponse(w, fmt.Sprintf("Formatting failed: %v", err), http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", contentTypes[format])
		_, _ = w.Write([]byte(out))
	default:
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(AnalyzeResponse{Success: true, Result: res}); err != nil {
			s.log().Error("encoding analyze response", "error", err)
		}
	}
}

var contentTypes = map[string]string{
	formatCSV:  "text/csv",
	formatYAML: "application/yaml",
	formatText: "text/plain; charset=utf-8",
}
