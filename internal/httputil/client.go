// Package httputil holds JSON request/response helpers shared by the REST API
// and the Go client.
package httputil

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"
)

const (
	MaxErrorBodyBytes    = 64 << 10
	MaxResponseBodyBytes = 8 << 20
)

// ErrBodyTooLarge is returned by ReadAllStrict when the limit is exceeded.
var ErrBodyTooLarge = errors.New("body exceeds size limit")

// ResponseError is a non-2xx reply from the API.
type ResponseError struct {
	StatusCode int
	Message    string
	Code       string
}

func (e *ResponseError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("request failed with status %d", e.StatusCode)
	}
	return fmt.Sprintf("request failed with status %d: %s", e.StatusCode, e.Message)
}

// DecodeResponse decodes a JSON response into target and closes the body.
// Status codes >= 400 become a *ResponseError; the message comes from the
// body's "error" key when present.
func DecodeResponse(resp *http.Response, target interface{}) error {
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, truncated, err := ReadAllWithLimit(resp.Body, MaxErrorBodyBytes)
		if err != nil {
			return fmt.Errorf("read error response body: %w", err)
		}
		return newResponseError(resp.StatusCode, body, truncated)
	}

	if target == nil {
		if _, err := io.Copy(io.Discard, io.LimitReader(resp.Body, MaxResponseBodyBytes)); err != nil {
			return fmt.Errorf("discard response body: %w", err)
		}
		return nil
	}

	body, err := ReadAllStrict(resp.Body, MaxResponseBodyBytes)
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}
	if err := json.Unmarshal(body, target); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func newResponseError(status int, body []byte, truncated bool) *ResponseError {
	out := &ResponseError{StatusCode: status}
	if gjson.ValidBytes(body) {
		parsed := gjson.ParseBytes(body)
		out.Message = parsed.Get("error").String()
		out.Code = parsed.Get("code").String()
	}
	if out.Message == "" {
		out.Message = strings.TrimSpace(string(body))
		if truncated {
			out.Message += "...(truncated)"
		}
	}
	return out
}

// ReadAllWithLimit reads at most limit bytes and reports whether more remained.
func ReadAllWithLimit(r io.Reader, limit int64) ([]byte, bool, error) {
	body, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, false, err
	}
	if int64(len(body)) > limit {
		return body[:limit], true, nil
	}
	return body, false, nil
}

// ReadAllStrict reads the whole reader, failing when it exceeds limit bytes.
func ReadAllStrict(r io.Reader, limit int64) ([]byte, error) {
	body, truncated, err := ReadAllWithLimit(r, limit)
	if err != nil {
		return nil, err
	}
	if truncated {
		return nil, ErrBodyTooLarge
	}
	return body, nil
}
