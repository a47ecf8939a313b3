package httpserver

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-chi/chi/v5"
)

func newOutputsMux(root string) http.Handler {
	h := &OutputsHandler{Root: root}
	mux := chi.NewRouter()
	mux.Get("/outputs/*", h.ServeHTTP)
	return mux
}

func TestOutputsServesFile(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "r1"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "r1", "best.png"), []byte("png-bytes"), 0o644); err != nil {
		t.Fatal(err)
	}
	mux := newOutputsMux(root)

	req := httptest.NewRequest(http.MethodGet, "/outputs/r1/best.png", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := rec.Header().Get("Content-Type"); got != "image/png" {
		t.Errorf("content type = %s", got)
	}
	if rec.Body.String() != "png-bytes" {
		t.Errorf("body = %q", rec.Body.String())
	}
}

func TestOutputsContentTypes(t *testing.T) {
	root := t.TempDir()
	files := map[string]string{
		"a.jpg":  "image/jpeg",
		"b.webp": "image/webp",
		"c.bin":  "application/octet-stream",
	}
	for name := range files {
		if err := os.WriteFile(filepath.Join(root, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	mux := newOutputsMux(root)

	for name, want := range files {
		req := httptest.NewRequest(http.MethodGet, "/outputs/"+name, nil)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)
		if got := rec.Header().Get("Content-Type"); got != want {
			t.Errorf("%s: content type = %s, want %s", name, got, want)
		}
	}
}

func TestOutputsMissingFile(t *testing.T) {
	mux := newOutputsMux(t.TempDir())

	req := httptest.NewRequest(http.MethodGet, "/outputs/nope.png", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestOutputsRejectsTraversal(t *testing.T) {
	parent := t.TempDir()
	root := filepath.Join(parent, "outputs")
	if err := os.MkdirAll(root, 0o755); err != nil {
		t.Fatal(err)
	}
	// secret di luar root yang tidak boleh terbaca
	if err := os.WriteFile(filepath.Join(parent, "secret.txt"), []byte("top secret"), 0o644); err != nil {
		t.Fatal(err)
	}
	mux := newOutputsMux(root)

	for _, path := range []string{
		"/outputs/../secret.txt",
		"/outputs/a/../../secret.txt",
	} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.URL.Path = path // keep the raw traversal segments
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusForbidden && rec.Code != http.StatusNotFound {
			t.Errorf("%s: status = %d, want 403 or 404", path, rec.Code)
		}
		if rec.Body.String() == "top secret" {
			t.Errorf("%s: leaked file outside root", path)
		}
	}
}

func TestOutputsDirectoryListingDenied(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "r1"), 0o755); err != nil {
		t.Fatal(err)
	}
	mux := newOutputsMux(root)

	req := httptest.NewRequest(http.MethodGet, "/outputs/r1", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}
