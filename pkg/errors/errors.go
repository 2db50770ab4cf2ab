// Package errors provides error handling for the console using the
// RFC 7807 Problem Details standard.
package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Standard error functions
var (
	Is     = errors.Is
	As     = errors.As
	Join   = errors.Join
	Unwrap = errors.Unwrap
)

// Error is a domain error carrying a taxonomy kind.
type Error struct {
	// Kind is the taxonomy kind of the error
	Kind string `json:"kind"`
	// Message is the human readable string that indicates the error
	Message string `json:"message"`

	cause error
}

var _ error = (*Error)(nil)

// Taxonomy sentinels. Compare with errors.Is; kinds match, causes may differ.
var (
	Invalid              = &Error{Kind: "ValidationError"}
	NotFound             = &Error{Kind: "NotFound"}
	SourceUnavailable    = &Error{Kind: "SourceUnavailable"}
	ClassificationDefect = &Error{Kind: "ClassificationInvariantViolation"}
	Unauthorized         = &Error{Kind: "Unauthorized"}
	Forbidden            = &Error{Kind: "Forbidden"}
	Internal             = &Error{Kind: "Internal"}
)

func New(message string) *Error {
	return &Error{Kind: "Unknown", Message: message}
}

// Error implements error
func (e *Error) Error() string {
	str := fmt.Sprintf("[%s] ", e.Kind)
	if e.Message != "" {
		str += e.Message
	}
	if e.cause != nil {
		str += fmt.Sprintf(" (%s)", e.cause)
	}
	return str
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

// Wrap returns a copy of the error with the given cause.
func (e *Error) Wrap(cause error) *Error {
	err := *e
	err.cause = cause
	return &err
}

// Explain returns a copy of the error with given message.
func (e *Error) Explain(message string, args ...any) *Error {
	err := *e
	err.Message = fmt.Sprintf(message, args...)
	return &err
}

// Is implements the needed interface for errors.Is.
// It checks taxonomy kinds for equality.
func (e *Error) Is(target error) bool {
	if e == nil {
		return target == nil
	}
	if other, ok := target.(*Error); ok {
		return other.Kind == e.Kind
	}
	if e.cause != nil {
		return Is(e.cause, target)
	}
	return false
}

// Problem type URIs
const (
	TypeValidationError         = "https://console.estudiopraxis.uy/problems/validation-error"
	TypeNotFound                = "https://console.estudiopraxis.uy/problems/not-found"
	TypeSourceUnavailable       = "https://console.estudiopraxis.uy/problems/source-unavailable"
	TypeClassificationInvariant = "https://console.estudiopraxis.uy/problems/classification-invariant"
	TypeUnauthorized            = "https://console.estudiopraxis.uy/problems/unauthorized"
	TypeForbidden               = "https://console.estudiopraxis.uy/problems/forbidden"
	TypeInternalError           = "https://console.estudiopraxis.uy/problems/internal-error"
)

// ValidationError represents a field-level validation failure for RFC 7807
type ValidationError struct {
	Field   string      `json:"field"`
	Value   interface{} `json:"value,omitempty"`
	Message string      `json:"message"`
}

// ProblemDetails represents an RFC 7807 Problem Details response
type ProblemDetails struct {
	Type     string                 `json:"type"`
	Title    string                 `json:"title"`
	Status   int                    `json:"status"`
	Detail   string                 `json:"detail,omitempty"`
	Instance string                 `json:"instance,omitempty"`
	Errors   []ValidationError      `json:"errors,omitempty"`
	Extra    map[string]interface{} `json:"-"`
}

// Error implements the error interface
func (p *ProblemDetails) Error() string {
	return p.Detail
}

// WithValidationErrors adds field errors to the problem details
func (p *ProblemDetails) WithValidationErrors(errs []ValidationError) *ProblemDetails {
	p.Errors = errs
	return p
}

// WithExtra adds an extra field serialized at the top level
func (p *ProblemDetails) WithExtra(key string, value interface{}) *ProblemDetails {
	if p.Extra == nil {
		p.Extra = make(map[string]interface{})
	}
	p.Extra[key] = value
	return p
}

// MarshalJSON includes extra fields at the top level
func (p *ProblemDetails) MarshalJSON() ([]byte, error) {
	result := make(map[string]interface{})
	result["type"] = p.Type
	result["title"] = p.Title
	result["status"] = p.Status
	if p.Detail != "" {
		result["detail"] = p.Detail
	}
	if p.Instance != "" {
		result["instance"] = p.Instance
	}
	if len(p.Errors) > 0 {
		result["errors"] = p.Errors
	}
	for k, v := range p.Extra {
		result[k] = v
	}
	return json.Marshal(result)
}

// NewValidationProblem creates a validation error problem
func NewValidationProblem(detail, instance string) *ProblemDetails {
	return &ProblemDetails{
		Type:     TypeValidationError,
		Title:    "Validation Error",
		Status:   http.StatusBadRequest,
		Detail:   detail,
		Instance: instance,
	}
}

// NewNotFoundProblem creates a not found problem
func NewNotFoundProblem(detail, instance string) *ProblemDetails {
	return &ProblemDetails{
		Type:     TypeNotFound,
		Title:    "Not Found",
		Status:   http.StatusNotFound,
		Detail:   detail,
		Instance: instance,
	}
}

// NewSourceUnavailableProblem creates a watchlist-source unavailable problem
func NewSourceUnavailableProblem(detail, instance string) *ProblemDetails {
	return &ProblemDetails{
		Type:     TypeSourceUnavailable,
		Title:    "Watchlist Source Unavailable",
		Status:   http.StatusServiceUnavailable,
		Detail:   detail,
		Instance: instance,
	}
}

// NewClassificationInvariantProblem reports a defect in the risk rule cascade.
// This is always a 500: the engine fails closed instead of defaulting a risk level.
func NewClassificationInvariantProblem(detail, instance string) *ProblemDetails {
	return &ProblemDetails{
		Type:     TypeClassificationInvariant,
		Title:    "Classification Invariant Violation",
		Status:   http.StatusInternalServerError,
		Detail:   detail,
		Instance: instance,
	}
}

// NewUnauthorizedProblem creates an unauthorized problem
func NewUnauthorizedProblem(detail, instance string) *ProblemDetails {
	return &ProblemDetails{
		Type:     TypeUnauthorized,
		Title:    "Unauthorized",
		Status:   http.StatusUnauthorized,
		Detail:   detail,
		Instance: instance,
	}
}

// NewForbiddenProblem creates a forbidden problem
func NewForbiddenProblem(detail, instance string) *ProblemDetails {
	return &ProblemDetails{
		Type:     TypeForbidden,
		Title:    "Forbidden",
		Status:   http.StatusForbidden,
		Detail:   detail,
		Instance: instance,
	}
}

// NewInternalProblem creates an internal server error problem
func NewInternalProblem(detail, instance string) *ProblemDetails {
	return &ProblemDetails{
		Type:     TypeInternalError,
		Title:    "Internal Server Error",
		Status:   http.StatusInternalServerError,
		Detail:   detail,
		Instance: instance,
	}
}
