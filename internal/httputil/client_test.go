package httputil

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestDecodeResponse_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{"message": "hello"})
	}))
	defer server.Close()

	resp, err := http.Get(server.URL)
	if err != nil {
		t.Fatalf("http.Get() error = %v", err)
	}

	var result map[string]string
	if err := DecodeResponse(resp, &result); err != nil {
		t.Fatalf("DecodeResponse() error = %v", err)
	}
	if result["message"] != "hello" {
		t.Errorf("result[message] = %s, want hello", result["message"])
	}
}

func TestDecodeResponse_ErrorWithJSONBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusNotFound, map[string]string{"error": "User not found", "code": "NOT_FOUND"})
	}))
	defer server.Close()

	resp, err := http.Get(server.URL)
	if err != nil {
		t.Fatalf("http.Get() error = %v", err)
	}

	err = DecodeResponse(resp, nil)
	var respErr *ResponseError
	if !errors.As(err, &respErr) {
		t.Fatalf("expected *ResponseError, got %T (%v)", err, err)
	}
	if respErr.StatusCode != http.StatusNotFound || respErr.Message != "User not found" || respErr.Code != "NOT_FOUND" {
		t.Fatalf("unexpected error: %+v", respErr)
	}
}

func TestDecodeResponse_ErrorWithPlainBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte("bad request"))
	}))
	defer server.Close()

	resp, err := http.Get(server.URL)
	if err != nil {
		t.Fatalf("http.Get() error = %v", err)
	}

	err = DecodeResponse(resp, nil)
	var respErr *ResponseError
	if !errors.As(err, &respErr) || respErr.Message != "bad request" {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestReadAllWithLimit(t *testing.T) {
	body, truncated, err := ReadAllWithLimit(strings.NewReader("abcdef"), 3)
	if err != nil {
		t.Fatalf("ReadAllWithLimit() error = %v", err)
	}
	if string(body) != "abc" || !truncated {
		t.Fatalf("got %q truncated=%v", body, truncated)
	}

	if _, err := ReadAllStrict(strings.NewReader("abcdef"), 3); !errors.Is(err, ErrBodyTooLarge) {
		t.Fatalf("ReadAllStrict() error = %v, want ErrBodyTooLarge", err)
	}
	if body, err := ReadAllStrict(strings.NewReader("abc"), 3); err != nil || string(body) != "abc" {
		t.Fatalf("ReadAllStrict() = %q, %v", body, err)
	}
}
