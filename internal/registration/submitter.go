package registration

import (
	"errors"

	"github.com/aben18/enroll/internal/directory"
)

// Phase is the submission lifecycle position.
type Phase int

const (
	PhaseReady Phase = iota
	PhaseSubmitting
	PhaseSucceeded
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseReady:
		return "ready"
	case PhaseSubmitting:
		return "submitting"
	case PhaseSucceeded:
		return "succeeded"
	case PhaseFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// FallbackErrorMessage is shown when a submit failure carries no usable
// human-readable message.
const FallbackErrorMessage = "An unexpected error occurred. Please try again."

// Navigator is the redirect collaborator invoked exactly once on success.
type Navigator interface {
	Navigate(url string)
}

// NavigatorFunc adapts a function to the Navigator interface.
type NavigatorFunc func(url string)

func (f NavigatorFunc) Navigate(url string) { f(url) }

// Submitter orchestrates validation, remote submission, and the
// success/failure transition. Each submit attempt is independent; failure is
// never fatal and the visitor may correct input and resubmit.
type Submitter struct {
	phase      Phase
	errMessage string
}

// NewSubmitter creates a submitter in the ready phase.
func NewSubmitter() *Submitter {
	return &Submitter{}
}

// Phase returns the current lifecycle position.
func (s *Submitter) Phase() Phase { return s.phase }

// ErrorMessage returns the stored failure message, empty unless failed.
func (s *Submitter) ErrorMessage() string { return s.errMessage }

// Begin runs the validation step. When validation fails the attempt aborts
// silently back to ready: no remote call, no error banner. Returns true when
// the driver should issue the remote submission. A submission already in
// flight, or one that already succeeded, blocks a new attempt.
func (s *Submitter) Begin(valid bool) bool {
	if s.phase == PhaseSubmitting || s.phase == PhaseSucceeded {
		return false
	}
	if !valid {
		s.phase = PhaseReady
		return false
	}
	s.phase = PhaseSubmitting
	return true
}

// Apply feeds back the remote submission result. On success any prior error
// clears and the caller must invoke the redirect collaborator exactly once.
// On failure the extracted message is stored for display; there is no
// automatic retry.
func (s *Submitter) Apply(err error) (succeeded bool) {
	if s.phase != PhaseSubmitting {
		return false
	}
	if err == nil {
		s.phase = PhaseSucceeded
		s.errMessage = ""
		return true
	}
	s.phase = PhaseFailed
	s.errMessage = ExtractMessage(err)
	return false
}

// ExtractMessage pulls the human-readable message out of a submit failure,
// substituting the generic fallback when the payload carries none.
func ExtractMessage(err error) string {
	var se *directory.SubmitError
	if errors.As(err, &se) && se.Message != "" {
		return se.Message
	}
	return FallbackErrorMessage
}
