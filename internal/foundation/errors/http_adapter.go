package errors

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// HTTPErrorAdapter writes classified errors as JSON responses.
type HTTPErrorAdapter struct {
	logger *slog.Logger
}

// NewHTTPErrorAdapter creates an HTTP adapter. A nil logger uses the slog default.
func NewHTTPErrorAdapter(logger *slog.Logger) *HTTPErrorAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &HTTPErrorAdapter{logger: logger}
}

// HTTPErrorResponse is the JSON error body.
type HTTPErrorResponse struct {
	Error     string         `json:"error"`
	Code      string         `json:"code,omitempty"`
	Details   map[string]any `json:"details,omitempty"`
	Retryable bool           `json:"retryable,omitempty"`
}

// StatusCodeFor returns 200 for nil, the category's status for classified errors
// and 500 otherwise.
func (a *HTTPErrorAdapter) StatusCodeFor(err error) int {
	if err == nil {
		return http.StatusOK
	}
	if c, ok := AsClassified(err); ok {
		return c.category.HTTPStatus()
	}
	return http.StatusInternalServerError
}

// WriteErrorResponse writes err as JSON and logs it.
func (a *HTTPErrorAdapter) WriteErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	if err == nil {
		w.WriteHeader(http.StatusOK)
		return
	}

	status := a.StatusCodeFor(err)
	body, jerr := json.Marshal(a.FormatErrorResponse(err))
	if jerr != nil {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"error":"internal error"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)

	c, ok := AsClassified(err)
	switch {
	case !ok:
		a.logger.ErrorContext(r.Context(), err.Error(), "path", r.URL.Path)
	case c.category == CategoryNotFound, c.category == CategoryRuntime:
		// Lookup misses and requests before the first composition are routine.
		a.logger.DebugContext(r.Context(), c.Error(), "path", r.URL.Path)
	default:
		a.logger.Log(r.Context(), levelFor(c.severity), c.Error(), "path", r.URL.Path)
	}
}

// FormatErrorResponse builds the JSON body for err.
func (a *HTTPErrorAdapter) FormatErrorResponse(err error) HTTPErrorResponse {
	if err == nil {
		return HTTPErrorResponse{}
	}
	c, ok := AsClassified(err)
	if !ok {
		return HTTPErrorResponse{Error: err.Error()}
	}
	resp := HTTPErrorResponse{Error: c.message, Code: string(c.category), Retryable: c.retryable}
	if len(c.context) > 0 {
		resp.Details = map[string]any(c.context)
	}
	return resp
}
