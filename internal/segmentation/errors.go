package segmentation

import "errors"

var ErrInvalidImage = errors.New("image could not be decoded")

// ErrInferenceFailed is the kind matched by errors.Is for any failure
// past image decoding. The user-facing message is deliberately generic;
// the underlying cause stays reachable through errors.Unwrap for
// logging.
var ErrInferenceFailed error = &InferenceError{}

type InferenceError struct {
	Cause error
}

func (e *InferenceError) Error() string {
	return "image processing failed, please try again"
}

func (e *InferenceError) Unwrap() error {
	return e.Cause
}

func (e *InferenceError) Is(target error) bool {
	_, ok := target.(*InferenceError)
	return ok
}
