package media

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestCheckFile(t *testing.T) {
	ok := File{Name: "a.png", ContentType: "image/png", Size: 10, Body: strings.NewReader("x")}
	if err := CheckFile(ok, 100); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := CheckFile(File{Name: "a.pdf", ContentType: "application/pdf", Body: strings.NewReader("x")}, 0); err == nil {
		t.Fatal("expected unsupported type")
	}
	big := ok
	big.Size = 1000
	if err := CheckFile(big, 100); err == nil {
		t.Fatal("expected size error")
	}
	if err := CheckFile(File{ContentType: "image/png", Body: strings.NewReader("x")}, 0); err == nil {
		t.Fatal("expected name error")
	}
}

func TestSafeName(t *testing.T) {
	cases := map[string]string{
		"../../etc/passwd":    "passwd",
		`C:\Users\me\a b.png`: "a_b.png",
		"..":                  "file",
		"banner.JPG":          "banner.JPG",
	}
	for in, want := range cases {
		if got := SafeName(in); got != want {
			t.Fatalf("SafeName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestImageKitUpload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "private_key" || pass != "" {
			t.Errorf("unexpected basic auth %q/%q", user, pass)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
		}
		if r.FormValue("folder") != "/uploads" || r.FormValue("fileName") != "banner.png" {
			t.Errorf("unexpected form: %v", r.MultipartForm.Value)
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Errorf("form file: %v", err)
		} else {
			body, _ := io.ReadAll(file)
			if string(body) != "PNGDATA" || header.Filename != "banner.png" {
				t.Errorf("unexpected file %q (%s)", body, header.Filename)
			}
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"fileId":"f1","url":"https://ik.imagekit.io/demo/uploads/banner.png"}`))
	}))
	defer srv.Close()

	up, err := NewImageKit(ImageKitOptions{PrivateKey: "private_key", UploadURL: srv.URL}, nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	url, err := up.Upload(context.Background(), File{Name: "banner.png", ContentType: "image/png", Body: strings.NewReader("PNGDATA")})
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if url != "https://ik.imagekit.io/demo/uploads/banner.png" {
		t.Fatalf("url = %q", url)
	}
}

func TestImageKitUploadError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"message":"Your account cannot be authenticated."}`))
	}))
	defer srv.Close()

	up, _ := NewImageKit(ImageKitOptions{PrivateKey: "k", UploadURL: srv.URL}, nil)
	_, err := up.Upload(context.Background(), File{Name: "a.png", ContentType: "image/png", Body: strings.NewReader("x")})
	if err == nil || !strings.Contains(err.Error(), "cannot be authenticated") {
		t.Fatalf("expected imagekit error, got %v", err)
	}
}

func TestNewImageKitRequiresKey(t *testing.T) {
	if _, err := NewImageKit(ImageKitOptions{}, nil); err == nil {
		t.Fatal("expected error without private key")
	}
}

func TestLocalUpload(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "uploads")
	up, err := NewLocal(dir, "http://localhost:5000/uploads/")
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	url, err := up.Upload(context.Background(), File{Name: "logo.png", ContentType: "image/png", Body: strings.NewReader("LOGO")})
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if !strings.HasPrefix(url, "http://localhost:5000/uploads/") || !strings.HasSuffix(url, "-logo.png") {
		t.Fatalf("url = %q", url)
	}
	name := strings.TrimPrefix(url, "http://localhost:5000/uploads/")
	data, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil || string(data) != "LOGO" {
		t.Fatalf("stored file = %q, %v", data, err)
	}
}
