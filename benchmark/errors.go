package benchmark

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrConfiguration classifies malformed invocation arguments.
	ErrConfiguration = errors.New("invalid configuration")
	// ErrInvalidInput classifies an empty or out-of-range statistics input.
	ErrInvalidInput = errors.New("invalid input")
)

// Stage names the step of a scenario that failed.
type Stage string

const (
	StageLoad    Stage = "load"
	StagePrepare Stage = "prepare"
	StageWarmup  Stage = "warmup"
	StageTimed   Stage = "timed"
	StageReport  Stage = "report"
)

// StageError identifies the scenario and stage a failure happened in.
type StageError struct {
	Scenario string
	Stage    Stage
	Err      error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("scenario %s: %s stage: %v", e.Scenario, e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

func stageError(scenario string, stage Stage, err error) error {
	return &StageError{Scenario: scenario, Stage: stage, Err: err}
}
