package convert

import "fmt"

type Stage string

const (
	StageHeader  Stage = "header"
	StageBody    Stage = "body"
	StageTrailer Stage = "trailer"
)

// StageError reports where a run failed. Line is the 1-based text line
// for text input and zero otherwise.
type StageError struct {
	Stage Stage
	Line  int
	Err   error
}

func (e *StageError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("convert: %s stage, line %d: %v", e.Stage, e.Line, e.Err)
	}
	return fmt.Sprintf("convert: %s stage: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}
