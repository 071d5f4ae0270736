package errors

import (
	"maps"
	"net/http"
)

// ErrorCategory represents the broad category of an error for classification and routing.
type ErrorCategory string

const (
	// User input.
	CategoryConfig     ErrorCategory = "config"
	CategoryValidation ErrorCategory = "validation"
	CategoryNotFound   ErrorCategory = "not_found"

	// Composition defects.
	CategoryGeneration   ErrorCategory = "generation"
	CategoryDuplicateKey ErrorCategory = "duplicate_key"

	// Downstream systems.
	CategoryBuild      ErrorCategory = "build"
	CategoryFileSystem ErrorCategory = "filesystem"
	CategoryGit        ErrorCategory = "git"
	CategoryNetwork    ErrorCategory = "network"
	CategoryHistory    ErrorCategory = "history"

	CategoryRuntime  ErrorCategory = "runtime"
	CategoryInternal ErrorCategory = "internal"
)

// surface is how a category is reported on the CLI and over HTTP.
type surface struct {
	exitCode   int
	httpStatus int
}

var surfaces = map[ErrorCategory]surface{
	CategoryValidation:   {exitCode: 2, httpStatus: http.StatusBadRequest},
	CategoryNotFound:     {exitCode: 4, httpStatus: http.StatusNotFound},
	CategoryConfig:       {exitCode: 7, httpStatus: http.StatusBadRequest},
	CategoryNetwork:      {exitCode: 8, httpStatus: http.StatusBadGateway},
	CategoryGit:          {exitCode: 8, httpStatus: http.StatusBadGateway},
	CategoryGeneration:   {exitCode: 9, httpStatus: http.StatusUnprocessableEntity},
	CategoryDuplicateKey: {exitCode: 9, httpStatus: http.StatusConflict},
	CategoryInternal:     {exitCode: 10, httpStatus: http.StatusInternalServerError},
	CategoryBuild:        {exitCode: 11, httpStatus: http.StatusUnprocessableEntity},
	CategoryFileSystem:   {exitCode: 11, httpStatus: http.StatusInternalServerError},
	CategoryRuntime:      {exitCode: 12, httpStatus: http.StatusServiceUnavailable},
	CategoryHistory:      {exitCode: 12, httpStatus: http.StatusInternalServerError},
}

// ExitCode is the process exit status for the category. Unknown categories exit 1.
func (c ErrorCategory) ExitCode() int {
	if s, ok := surfaces[c]; ok {
		return s.exitCode
	}
	return 1
}

// HTTPStatus is the response status for the category. Unknown categories map to 500.
func (c ErrorCategory) HTTPStatus() int {
	if s, ok := surfaces[c]; ok {
		return s.httpStatus
	}
	return http.StatusInternalServerError
}

// ErrorSeverity indicates the impact level of an error.
type ErrorSeverity string

const (
	SeverityFatal   ErrorSeverity = "fatal"   // aborts the command
	SeverityError   ErrorSeverity = "error"   // fails the current operation
	SeverityWarning ErrorSeverity = "warning" // degraded but continuing
)

// ErrorContext carries structured details attached to an error.
type ErrorContext map[string]any

// Get retrieves a context value.
func (c ErrorContext) Get(key string) (any, bool) {
	v, ok := c[key]
	return v, ok
}

// GetString retrieves a string context value.
func (c ErrorContext) GetString(key string) (string, bool) {
	s, ok := c[key].(string)
	return s, ok
}

// with returns a copy of c with key set; c itself is never modified.
func (c ErrorContext) with(key string, value any) ErrorContext {
	out := make(ErrorContext, len(c)+1)
	maps.Copy(out, c)
	out[key] = value
	return out
}
