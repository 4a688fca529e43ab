package workflow

import (
	"errors"
	"fmt"

	"github.com/ad-tracker/youtube-seo-workflow-go/internal/db/models"
)

var (
	// ErrInvalidTransition is matched by every *TransitionError.
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrVideoLocked is returned when another worker is processing the video.
	ErrVideoLocked = errors.New("video is being processed by another worker")
	// ErrNotConfigured is returned when an operation needs a missing collaborator.
	ErrNotConfigured = errors.New("workflow dependency not configured")
	// ErrConfirmationDeclined is the outcome reason when the operator said no.
	ErrConfirmationDeclined = errors.New("confirmation declined")
	ErrNoSuggestion         = errors.New("no suggestion")
)

// TransitionError reports a status change the lifecycle does not allow.
type TransitionError struct {
	VideoID string
	From    models.Status
	To      models.Status
	Op      string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s %s: cannot move from %s to %s", e.Op, e.VideoID, e.From, e.To)
}

func (e *TransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}
