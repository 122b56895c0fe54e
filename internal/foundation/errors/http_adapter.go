package errors

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// HTTP status codes by category. Anything not listed maps to 500.
var httpStatusCodes = map[ErrorCategory]int{
	CategoryValidation:    http.StatusBadRequest,
	CategoryConfig:        http.StatusBadRequest,
	CategoryAuth:          http.StatusUnauthorized,
	CategoryNotFound:      http.StatusNotFound,
	CategoryAlreadyExists: http.StatusConflict,
	CategoryNetwork:       http.StatusBadGateway,
	CategoryGit:           http.StatusBadGateway,
	CategoryContent:       http.StatusUnprocessableEntity,
	CategoryBuild:         http.StatusUnprocessableEntity,
	CategoryRuntime:       http.StatusServiceUnavailable,
	CategoryDaemon:        http.StatusServiceUnavailable,
}

// HTTPErrorAdapter turns errors into JSON error responses with a status
// code derived from the error's category.
type HTTPErrorAdapter struct {
	logger *slog.Logger
}

// NewHTTPErrorAdapter builds an adapter. A nil logger falls back to
// slog.Default.
func NewHTTPErrorAdapter(logger *slog.Logger) *HTTPErrorAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &HTTPErrorAdapter{logger: logger}
}

// HTTPErrorResponse is the JSON payload written for failed requests.
type HTTPErrorResponse struct {
	Error     string         `json:"error"`
	Code      string         `json:"code,omitempty"`
	Details   map[string]any `json:"details,omitempty"`
	Retryable bool           `json:"retryable,omitempty"`
}

// StatusCodeFor maps an error to an HTTP status. nil maps to 200,
// unclassified errors to 500.
func (a *HTTPErrorAdapter) StatusCodeFor(err error) int {
	if err == nil {
		return http.StatusOK
	}
	c, ok := AsClassified(err)
	if !ok {
		return http.StatusInternalServerError
	}
	if status, ok := httpStatusCodes[c.Category()]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// FormatErrorResponse builds the payload for an error. Classified errors
// expose their category as the machine-readable code and their context as
// details; retryable strategies are flagged both at the top level and in
// the details map.
func (a *HTTPErrorAdapter) FormatErrorResponse(err error) HTTPErrorResponse {
	if err == nil {
		return HTTPErrorResponse{}
	}
	c, ok := AsClassified(err)
	if !ok {
		return HTTPErrorResponse{Error: err.Error()}
	}

	resp := HTTPErrorResponse{
		Error: c.Message(),
		Code:  string(c.Category()),
	}
	if len(c.Context()) > 0 {
		resp.Details = map[string]any(c.Context())
	}
	if c.RetryStrategy() != RetryNever {
		resp.Retryable = true
		if resp.Details == nil {
			resp.Details = make(map[string]any)
		}
		resp.Details["retryable"] = true
	}
	return resp
}

// WriteErrorResponse writes the JSON payload, sets the status code, and
// logs the error at a level matching its severity.
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

	if c, ok := AsClassified(err); ok {
		a.logger.Log(r.Context(), severityLevel(c.Severity()), c.Error())
		return
	}
	a.logger.Error(err.Error())
}
