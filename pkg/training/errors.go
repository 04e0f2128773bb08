package training

import (
	"errors"
	"fmt"

	"github.com/saurabhpandey2108/Holiday-Package-Prediction/pkg/selector"
)

// Stage names a training step.
type Stage string

const (
	StageIngest    Stage = "ingest"
	StageSplit     Stage = "split"
	StageTransform Stage = "transform"
	StageSelect    Stage = "select"
	StageSegment   Stage = "segment"
	StagePersist   Stage = "persist"
)

// StageError wraps the failure of one stage.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string { return fmt.Sprintf("training: %s: %v", e.Stage, e.Err) }

func (e *StageError) Unwrap() error { return e.Err }

// IsModelQuality reports whether err means training ran but no model was good
// enough, as opposed to a data or infrastructure failure.
func IsModelQuality(err error) bool {
	return errors.Is(err, selector.ErrNoAcceptableModel)
}

func stageErr(stage Stage, err error) error {
	return &StageError{Stage: stage, Err: err}
}
