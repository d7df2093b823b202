package types

import (
	"errors"
	"fmt"
)

// Validation errors
var (
	ErrEmptyQuery  = errors.New("query cannot be empty")
	ErrInvalidTopK = errors.New("top_k must be non-negative")
)

// Pipeline error taxonomy. Stage boundaries classify failures with these
// sentinels so the orchestrator can pick the documented fallback.
var (
	// ErrAnalysis marks intent/entity extraction failure or timeout.
	ErrAnalysis = errors.New("analysis failed")
	// ErrRetrieval marks an unreachable or timed-out graph/vector backend.
	ErrRetrieval = errors.New("retrieval failed")
	// ErrFusion should not occur: fusion is pure and total. Any occurrence
	// is a programming defect.
	ErrFusion = errors.New("fusion failed")
	// ErrOrchestration marks an unexpected top-level failure.
	ErrOrchestration = errors.New("orchestration failed")
)

// MissingEntityError reports that a required query-template parameter could
// not be filled from the extracted entities.
type MissingEntityError struct {
	Intent     Intent
	EntityType EntityType
	Need       int
	Have       int
}

func (e *MissingEntityError) Error() string {
	if e.Need > 1 {
		return fmt.Sprintf("intent %s requires %d %s entities, found %d", e.Intent, e.Need, e.EntityType, e.Have)
	}
	return fmt.Sprintf("intent %s requires a %s entity, none extracted", e.Intent, e.EntityType)
}

// UnsupportedIntentError reports that no graph-query template matches the
// intent and the generic fallback does not apply.
type UnsupportedIntentError struct {
	Intent Intent
}

func (e *UnsupportedIntentError) Error() string {
	return fmt.Sprintf("no graph query template for intent %s", e.Intent)
}

// StageError wraps a stage-local failure with the stage name so the audit
// trail can attribute it.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}
