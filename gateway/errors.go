// Copyright 2025 AxonFlow
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package gateway

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind classifies a gateway failure. Every kind has a fixed HTTP
// mapping; handlers never pick status codes ad hoc.
type ErrorKind string

const (
	// KindValidation covers client-supplied data violating declared constraints.
	KindValidation ErrorKind = "validation"

	// KindNotFound covers task or template names absent from configuration.
	KindNotFound ErrorKind = "not_found"

	// KindDependency covers an unreachable or malformed external collaborator
	// (lookup store, crew engine, LLM provider).
	KindDependency ErrorKind = "dependency"

	// KindNoPosts means the upstream call succeeded but produced no usable
	// structured output. Distinct from KindDependency: it signals a contract
	// mismatch, not an outage.
	KindNoPosts ErrorKind = "no_posts"

	// KindTimeout means an external call exceeded its deadline.
	KindTimeout ErrorKind = "timeout"

	// KindCanceled means the caller abandoned the request (client
	// disconnect) before the external call finished. Not a timeout:
	// the deadline had not passed.
	KindCanceled ErrorKind = "canceled"

	// KindRateLimit means the caller exceeded its per-minute quota.
	KindRateLimit ErrorKind = "rate_limit"
)

// GatewayError is the typed error returned by every pipeline stage.
type GatewayError struct {
	Kind    ErrorKind
	Message string
	// Status overrides the kind's default HTTP mapping when non-zero.
	// Used for the unknown-transformation case, which is 400 rather
	// than the usual 422 for validation failures.
	Status int
	Err    error
}

func (e *GatewayError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is match on kind sentinels (see ErrTimeout etc.).
func (e *GatewayError) Is(target error) bool {
	t, ok := target.(*GatewayError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Message == "" || t.Message == e.Message)
}

// Kind sentinels for errors.Is checks in tests and callers.
var (
	ErrValidation = &GatewayError{Kind: KindValidation}
	ErrNotFound   = &GatewayError{Kind: KindNotFound}
	ErrDependency = &GatewayError{Kind: KindDependency}
	ErrNoPosts    = &GatewayError{Kind: KindNoPosts}
	ErrTimeout    = &GatewayError{Kind: KindTimeout}
	ErrCanceled   = &GatewayError{Kind: KindCanceled}
	ErrRateLimit  = &GatewayError{Kind: KindRateLimit}
)

// NewValidationError reports a constraint violation on the named field.
func NewValidationError(field, message string) *GatewayError {
	return &GatewayError{
		Kind:    KindValidation,
		Message: fmt.Sprintf("field %q: %s", field, message),
	}
}

// NewNotFoundError reports a task or template name missing from configuration.
func NewNotFoundError(what, name string) *GatewayError {
	return &GatewayError{
		Kind:    KindNotFound,
		Message: fmt.Sprintf("%s %q not found", what, name),
	}
}

// NewDependencyError wraps a failure from an external collaborator.
func NewDependencyError(message string, err error) *GatewayError {
	return &GatewayError{Kind: KindDependency, Message: message, Err: err}
}

// NewNoPostsError reports a successful upstream call with no usable posts.
func NewNoPostsError() *GatewayError {
	return &GatewayError{Kind: KindNoPosts, Message: "no posts found in crew output"}
}

// NewTimeoutError reports an external call exceeding its deadline.
func NewTimeoutError(operation string, err error) *GatewayError {
	return &GatewayError{
		Kind:    KindTimeout,
		Message: fmt.Sprintf("%s did not complete within the configured deadline", operation),
		Err:     err,
	}
}

// NewCanceledError reports a request abandoned by its caller mid-call.
func NewCanceledError(operation string, err error) *GatewayError {
	return &GatewayError{
		Kind:    KindCanceled,
		Message: fmt.Sprintf("%s canceled by caller", operation),
		Err:     err,
	}
}

// NewRateLimitError reports a caller exceeding its quota for an endpoint.
func NewRateLimitError(endpoint string) *GatewayError {
	return &GatewayError{
		Kind:    KindRateLimit,
		Message: fmt.Sprintf("rate limit exceeded for %s", endpoint),
	}
}

// httpStatus maps an error to its HTTP status code. Unknown errors are
// treated as dependency failures so nothing leaks as a 200.
func httpStatus(err error) int {
	var ge *GatewayError
	if !errors.As(err, &ge) {
		return http.StatusInternalServerError
	}
	if ge.Status != 0 {
		return ge.Status
	}
	switch ge.Kind {
	case KindValidation:
		return http.StatusUnprocessableEntity
	case KindNotFound:
		return http.StatusNotFound
	case KindTimeout:
		return http.StatusGatewayTimeout
	case KindCanceled:
		// Nginx's "client closed request"; no standard constant.
		return 499
	case KindRateLimit:
		return http.StatusTooManyRequests
	case KindDependency, KindNoPosts:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
