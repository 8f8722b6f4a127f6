package httputil

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	svcerrors "github.com/sbmwhylt/wlt-team-space/internal/errors"
)

// MaxJSONBody caps request bodies accepted by DecodeJSON.
const MaxJSONBody = 1 << 20

// ErrorResponse is the JSON error envelope.
type ErrorResponse struct {
	Error   string         `json:"error"`
	Code    string         `json:"code,omitempty"`
	Details map[string]any `json:"details,omitempty"`
	TraceID string         `json:"traceId,omitempty"`
}

// WriteJSON writes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

// WriteErrorResponse writes the error envelope. The trace id is echoed from
// the response header set by the logging middleware.
func WriteErrorResponse(w http.ResponseWriter, r *http.Request, status int, code, message string, details map[string]any) {
	resp := ErrorResponse{Error: message, Code: code, Details: details}
	if traceID := w.Header().Get("X-Trace-ID"); traceID != "" {
		resp.TraceID = traceID
	}
	WriteJSON(w, status, resp)
}

// WriteError maps err onto the envelope. Anything that is not a ServiceError
// is reported as a generic 500 so internal messages do not leak.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	se := svcerrors.GetServiceError(err)
	if se == nil {
		se = svcerrors.Internal("", err)
	}
	WriteErrorResponse(w, r, se.HTTPStatus, string(se.Code), se.Message, se.Details)
}

func BadRequest(w http.ResponseWriter, message string) {
	WriteErrorResponse(w, nil, http.StatusBadRequest, string(svcerrors.CodeBadRequest), message, nil)
}

func NotFound(w http.ResponseWriter, message string) {
	WriteErrorResponse(w, nil, http.StatusNotFound, string(svcerrors.CodeNotFound), message, nil)
}

func Unauthorized(w http.ResponseWriter, message string) {
	if message == "" {
		message = "Unauthorized"
	}
	WriteErrorResponse(w, nil, http.StatusUnauthorized, string(svcerrors.CodeUnauthorized), message, nil)
}

func Forbidden(w http.ResponseWriter, message string) {
	if message == "" {
		message = "Forbidden"
	}
	WriteErrorResponse(w, nil, http.StatusForbidden, string(svcerrors.CodeForbidden), message, nil)
}

func InternalError(w http.ResponseWriter, message string) {
	if message == "" {
		message = "Internal server error"
	}
	WriteErrorResponse(w, nil, http.StatusInternalServerError, string(svcerrors.CodeInternal), message, nil)
}

// DecodeJSON decodes the request body into v. On failure it writes a 400 and
// returns false.
func DecodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if r.Body == nil {
		BadRequest(w, "request body required")
		return false
	}
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxJSONBody))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			BadRequest(w, "request body required")
			return false
		}
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			WriteErrorResponse(w, r, http.StatusRequestEntityTooLarge, string(svcerrors.CodeTooLarge), "request body too large", nil)
			return false
		}
		BadRequest(w, "invalid JSON body: "+err.Error())
		return false
	}
	return true
}
