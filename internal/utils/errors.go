// Package utils holds image input helpers shared by the CLI, batch and
// server layers: file loading with format registration, a netpbm graymap
// decoder and raster drawing primitives.
package utils

import "fmt"

// ImageProcessingError represents errors that can occur while reading images.
type ImageProcessingError struct {
	Operation string
	Err       error
}

func (e *ImageProcessingError) Error() string {
	return fmt.Sprintf("image processing error in %s: %v", e.Operation, e.Err)
}

func (e *ImageProcessingError) Unwrap() error { return e.Err }
