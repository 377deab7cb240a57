package domain

import (
	"errors"
	"fmt"
)

// ErrEmptyQuery is returned when the query is blank. No service is called.
var ErrEmptyQuery = errors.New("empty query")

// Stage identifies a step of the question-answering pipeline.
type Stage int

const (
	StageIdle Stage = iota
	StageEmbeddingRequested
	StageVectorQueried
	StageContextExtracted
	StageAnswerRequested
	StageDone
	StageFailed
)

func (s Stage) String() string {
	switch s {
	case StageIdle:
		return "idle"
	case StageEmbeddingRequested:
		return "embedding_requested"
	case StageVectorQueried:
		return "vector_queried"
	case StageContextExtracted:
		return "context_extracted"
	case StageAnswerRequested:
		return "answer_requested"
	case StageDone:
		return "done"
	case StageFailed:
		return "error"
	}
	return fmt.Sprintf("stage(%d)", int(s))
}

// NetworkError means the request never produced an HTTP response.
type NetworkError struct {
	Service string
	Err     error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: network error: %v", e.Service, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// UpstreamError means the service answered with a non-success status.
type UpstreamError struct {
	Service    string
	StatusCode int
	Message    string
}

func (e *UpstreamError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: upstream returned status %d", e.Service, e.StatusCode)
	}
	return fmt.Sprintf("%s: upstream returned status %d: %s", e.Service, e.StatusCode, e.Message)
}

// DecodeError means a success response body was not valid JSON.
type DecodeError struct {
	Service string
	Err     error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%s: decoding response: %v", e.Service, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// ShapeError means a response decoded as JSON but lacks a field we consume.
type ShapeError struct {
	Service string
	Field   string
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("%s: response missing %s", e.Service, e.Field)
}

// StageError records the pipeline stage that failed.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// IsNetwork reports whether err wraps a NetworkError.
func IsNetwork(err error) bool {
	var ne *NetworkError
	return errors.As(err, &ne)
}

// IsUpstream reports whether err wraps an UpstreamError.
func IsUpstream(err error) bool {
	var ue *UpstreamError
	return errors.As(err, &ue)
}

// IsShape reports whether err wraps a ShapeError or a DecodeError,
// i.e. the service responded but not in the form we expect.
func IsShape(err error) bool {
	var se *ShapeError
	if errors.As(err, &se) {
		return true
	}
	var de *DecodeError
	return errors.As(err, &de)
}

// FailedStage returns the stage recorded on err, or StageFailed when none is.
func FailedStage(err error) Stage {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage
	}
	return StageFailed
}
