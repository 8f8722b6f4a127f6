package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestInstrumentHandlerUsesRouteTemplate(t *testing.T) {
	router := mux.NewRouter()
	router.Use(InstrumentHandler)
	router.HandleFunc("/api/users/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	before := testutil.ToFloat64(httpRequests.WithLabelValues("GET", "/api/users/{id}", "204"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/users/42", nil))

	after := testutil.ToFloat64(httpRequests.WithLabelValues("GET", "/api/users/{id}", "204"))
	if after != before+1 {
		t.Fatalf("requests_total delta = %v, want 1", after-before)
	}
}

func TestHandlerExposesDomainCounters(t *testing.T) {
	RecordLogin("success")
	RecordCacheLookup("hit")
	RecordMediaUpload("local", 0, true)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := rec.Body.String()
	for _, name := range []string{"wlt_auth_logins_total", "wlt_cache_requests_total", "wlt_media_uploads_total"} {
		if !strings.Contains(body, name) {
			t.Fatalf("metrics output missing %s", name)
		}
	}
}

func TestCanonicalPath(t *testing.T) {
	cases := map[string]string{
		"":                  "/",
		"/":                 "/",
		"/api":              "/api",
		"/api/users/9/edit": "/api/users",
	}
	for in, want := range cases {
		if got := canonicalPath(in); got != want {
			t.Fatalf("canonicalPath(%q) = %q, want %q", in, got, want)
		}
	}
}
