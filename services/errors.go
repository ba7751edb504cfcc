package services

// ValidationError is a user-input rejection: the operation aborted with
// state unchanged, and a retry with corrected input can succeed.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// ConflictError is a commit-time collision with another session's mutation,
// surfaced distinctly so the UI can prompt a different choice.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string { return e.Message }

// NotFoundError reports a missing record by id.
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string { return e.Message }

func validationf(msg string) error { return &ValidationError{Message: msg} }
func conflictf(msg string) error   { return &ConflictError{Message: msg} }
func notFoundf(msg string) error   { return &NotFoundError{Message: msg} }
