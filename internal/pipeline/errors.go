package pipeline

import (
	"fmt"

	"github.com/ashureev/bluecaller/internal/llm"
)

// ClassificationError means the classify call failed before any label came
// back.
type ClassificationError struct {
	Err error
}

func (e *ClassificationError) Error() string {
	return fmt.Sprintf("classification failed: %v", e.Err)
}

func (e *ClassificationError) Unwrap() error {
	return e.Err
}

// GenerationKind splits generation failures into the two cases the operator
// sees differently.
type GenerationKind int

const (
	// GenerationOther is any failure that is not quota exhaustion.
	GenerationOther GenerationKind = iota
	// GenerationRateLimited is provider quota or billing exhaustion.
	GenerationRateLimited
)

// GenerationError wraps a failed generate call.
type GenerationError struct {
	Kind GenerationKind
	Err  error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation failed: %v", e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

func newGenerationError(err error) *GenerationError {
	kind := GenerationOther
	if llm.KindOf(err) == llm.KindRateLimited {
		kind = GenerationRateLimited
	}
	return &GenerationError{Kind: kind, Err: err}
}
