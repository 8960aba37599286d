package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/medreport/constants"
)

// Run represents one pipeline execution for data transfer between layers.
type Run struct {
	ID           uuid.UUID           `json:"id"`
	SourcePath   string              `json:"source_path"`
	ContentHash  string              `json:"content_hash"`
	Format       string              `json:"format"`
	Method       string              `json:"method"`
	Status       constants.RunStatus `json:"status"`
	ErrorMessage *string             `json:"error_message,omitempty"`
	RowCount     int                 `json:"row_count"`
	OutputPath   string              `json:"output_path"`
	StartedAt    time.Time           `json:"started_at"`
	FinishedAt   *time.Time          `json:"finished_at,omitempty"`
}

// Duration is the wall time of a finished run, zero while it is running.
func (r *Run) Duration() time.Duration {
	if r.FinishedAt == nil {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
