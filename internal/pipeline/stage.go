package pipeline

import (
	"github.com/google/uuid"
)

// Stage names one step of the pipeline.
type Stage string

const (
	StageRead       Stage = "read"
	StageCategorize Stage = "categorize"
	StageWrite      Stage = "write"
	StageReadback   Stage = "readback"
)

// StageError records which stage failed. Error() is the underlying message so it can be shown
// to users unchanged.
type StageError struct {
	Stage Stage
	RunID uuid.UUID
	Err   error
}

func (e *StageError) Error() string { return e.Err.Error() }

func (e *StageError) Unwrap() error { return e.Err }
