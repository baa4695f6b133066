/*
Copyright 2026 Nscale.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package api

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrMissingConfig is returned when required environment is unset.
	ErrMissingConfig = errors.New("missing required configuration")

	// ErrUnknownVariant is returned by generators given an unknown kind or
	// edge case category.
	ErrUnknownVariant = errors.New("unknown variant")

	// ErrMissingToken is returned when the token endpoint answers 200 without
	// a usable bearer token.
	ErrMissingToken = errors.New("token response did not contain a bearer token")

	// ErrUserNotFound is returned by favorites operations on a user that does
	// not exist.
	ErrUserNotFound = errors.New("user not found")

	// ErrConflictRetryExhausted is returned when a create still conflicts after
	// the single unique-suffix retry.
	ErrConflictRetryExhausted = errors.New("create still conflicts after unique retry")

	// ErrUnexpectedShape is returned when a response body does not decode into
	// the expected resource.
	ErrUnexpectedShape = errors.New("unexpected response shape")
)

// StatusError is an unexpected HTTP status from a call that has no defined
// fallback for it.
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
	TraceID    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: unexpected status code %d (%s), body: %s (trace ID: %s)",
		e.Method, e.Path, e.StatusCode, http.StatusText(e.StatusCode), e.Body, e.TraceID)
}

// IsStatus reports whether err carries the given HTTP status code.
func IsStatus(err error, code int) bool {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode == code
	}

	return false
}

func newStatusError(req *Request, resp *Response) *StatusError {
	return &StatusError{
		Method:     req.Method,
		Path:       req.Path,
		StatusCode: resp.StatusCode,
		Body:       string(resp.Body),
		TraceID:    resp.TraceID,
	}
}
