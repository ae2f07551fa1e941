package remote

import (
	"fmt"

	"github.com/studyquest/progress-engine/internal/domain"
)

// RejectionError is an authoritative rejection: the service received the
// payload and refused it. Retrying would loop forever, so callers must not
// requeue - errors.Is(err, domain.ErrRejected) identifies this class.
type RejectionError struct {
	StatusCode int
	Message    string
}

func (e *RejectionError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s (status %d): %s", domain.ErrMsgRejected, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s (status %d)", domain.ErrMsgRejected, e.StatusCode)
}

// Unwrap lets errors.Is(err, domain.ErrRejected) match.
func (e *RejectionError) Unwrap() error {
	return domain.ErrRejected
}
