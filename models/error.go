package models

import "fmt"

// ErrorResponse is the error body every upstream endpoint answers with.
// StatusCode is not sent by the upstream; the client fills it in from the
// HTTP status it received.
type ErrorResponse struct {
	ErrorCode  string `json:"error-code"`
	Message    string `json:"message"`
	StatusCode int    `json:"statusCode,omitempty"`
}

func (e *ErrorResponse) Error() string {
	return fmt.Sprintf("%s (%d): %s", e.ErrorCode, e.StatusCode, e.Message)
}

type GenericActionResponse struct {
	Message string `json:"message"`
}
