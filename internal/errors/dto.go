package errors

// ErrorResponse is the error envelope every endpoint returns. It exists here
// so handler swagger annotations can reference it without importing the
// middleware package.
type ErrorResponse struct {
	Success bool        `json:"success"`
	Error   ErrorDetail `json:"error"`
}

// ErrorDetail carries the caller-facing message and any reportable details
type ErrorDetail struct {
	Display       string         `json:"message"`
	InternalError string         `json:"internal_error,omitempty"`
	Details       map[string]any `json:"details,omitempty"`
}
