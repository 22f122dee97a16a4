package pipeline

import (
	"errors"
	"fmt"
)

// Stage names the step of component analysis that failed.
type Stage string

const (
	StageTrace   Stage = "trace"
	StageEncode  Stage = "encode"
	StageSegment Stage = "segment"
	StagePolygon Stage = "polygon"
)

// ErrNilImage is returned when AnalyzeImage receives no image.
var ErrNilImage = errors.New("pipeline: nil image")

// ComponentError records which stage failed for which component.
type ComponentError struct {
	ComponentID int
	Stage       Stage
	Err         error
}

func (e *ComponentError) Error() string {
	return fmt.Sprintf("component %d: %s: %v", e.ComponentID, e.Stage, e.Err)
}

func (e *ComponentError) Unwrap() error { return e.Err }
