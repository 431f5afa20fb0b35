package pipeline

import "fmt"

// ValidationError rejects a request before any model call is made.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// ErrNoAnswers is the message for a submission without answers.
const ErrNoAnswers = "No answers provided"

// SynthesisParseError reports free-text synthesis output that is not a usable
// profile. It is recovered inside the synthesis stage by the structured
// fallback and only escapes wrapped in a fallback failure.
type SynthesisParseError struct {
	Raw string
	Err error
}

func (e *SynthesisParseError) Error() string {
	return fmt.Sprintf("synthesis output unusable (%d bytes): %v", len(e.Raw), e.Err)
}

func (e *SynthesisParseError) Unwrap() error { return e.Err }

// MissingProfileError means the pipeline finished without a profile.
type MissingProfileError struct{}

func (e *MissingProfileError) Error() string { return "analysis finished without a profile" }
