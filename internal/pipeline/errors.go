package pipeline

import (
	"errors"
	"fmt"

	"vidsub/internal/cancellation"
	"vidsub/internal/services"
)

// CancelledMessage is the result message of a cancelled run.
const CancelledMessage = "Process was cancelled by user."

// errCancelled signals a cooperative stop between or inside stages.
var errCancelled = cancellation.ErrCancelled

func isCancelled(err error) bool {
	return errors.Is(err, errCancelled)
}

func toolFailed(stage, tool string, code int) error {
	return services.Wrap(services.ErrExternalTool, stage, tool,
		fmt.Sprintf("%s failed with exit code %d", tool, code), nil)
}

func missingArtifact(stage, tool, path string) error {
	return services.Wrap(services.ErrExternalTool, stage, tool,
		fmt.Sprintf("%s finished but %s was not created", tool, path), nil)
}

// failureMessage is the operator-facing text for a failed run.
func failureMessage(err error) string {
	var stageErr *stageError
	if errors.As(err, &stageErr) {
		return stageErr.message
	}
	return services.Message(err)
}

// stageError carries a short message alongside the classified error.
type stageError struct {
	message string
	err     error
}

func (e *stageError) Error() string { return e.err.Error() }
func (e *stageError) Unwrap() error { return e.err }

func withMessage(message string, err error) error {
	return &stageError{message: message, err: err}
}
