package step

import "errors"

var (
	ErrStepFile   = errors.New("invalid step file")
	ErrStepFailed = errors.New("step failed")
)
