package pipeline

import "fmt"

// Stage names the per-item step that failed.
type Stage string

const (
	StageFetch    Stage = "fetch"
	StageRecord   Stage = "record"
	StageMedia    Stage = "media"
	StageCache    Stage = "cache"
	StageClassify Stage = "classify"
	StagePacing   Stage = "pacing"
)

// StageError is a fatal item failure tagged with the step it happened in.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

func stageErr(stage Stage, err error) error {
	return &StageError{Stage: stage, Err: err}
}
