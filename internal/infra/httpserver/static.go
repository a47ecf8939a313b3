package httpserver

import (
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/rahulnair/sparkle-catalog/internal/infra/storage"
)

// OutputsHandler serves generated pipeline images from a local directory,
// read-only. Requests that resolve outside the root are rejected.
type OutputsHandler struct {
	Root string
}

func (h *OutputsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rel := chi.URLParam(r, "*")
	if rel == "" {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}

	root, err := filepath.Abs(h.Root)
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	// Normalisasi path lalu pastikan masih di dalam root
	full := filepath.Join(root, filepath.FromSlash(rel))
	resolved, err := filepath.Abs(full)
	if err != nil || !withinRoot(root, resolved) {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	info, err := os.Stat(resolved)
	if err != nil || info.IsDir() {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}

	f, err := os.Open(resolved)
	if err != nil {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", storage.ImageContentType(resolved))
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.WriteHeader(http.StatusOK)
	io.Copy(w, f)
}

func withinRoot(root, path string) bool {
	if path == root {
		return true
	}
	return strings.HasPrefix(path, root+string(filepath.Separator))
}
