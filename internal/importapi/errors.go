// SPDX-License-Identifier: Apache-2.0

package importapi

import (
	"fmt"
	"net/http"
	"strings"
)

// Error codes carried in the JSON error envelope.
const (
	ErrorCodeValidation     = "VALIDATION_ERROR"
	ErrorCodeUnreadableFile = "UNREADABLE_FILE"
	ErrorCodeMissingMapping = "MISSING_REQUIRED_MAPPING"
	ErrorCodeInvalidMapping = "INVALID_MAPPING"
	ErrorCodeUnauthorized   = "UNAUTHORIZED"
	ErrorCodeInternal       = "INTERNAL_SERVER_ERROR"
)

// APIError is the error envelope the backend answers with when it rejects
// a whole request.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// TransportError means a preview or import call could not complete. The
// operator may retry; nothing was kept from the attempt.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: transport failure: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// RequestRejectedError means the backend refused the whole request, for
// example an unreadable file.
type RequestRejectedError struct {
	Op      string
	Status  int
	Code    string
	Message string
}

func (e *RequestRejectedError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.Status)
	}
	if e.Code != "" {
		return fmt.Sprintf("%s: request rejected (%d %s): %s", e.Op, e.Status, e.Code, msg)
	}
	return fmt.Sprintf("%s: request rejected (%d): %s", e.Op, e.Status, msg)
}

// IncompleteMappingError is returned before any network call when a
// required field is unmapped.
type IncompleteMappingError struct {
	Missing []string
}

func (e *IncompleteMappingError) Error() string {
	return "required fields are not mapped: " + strings.Join(e.Missing, ", ")
}
