package preview

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/gardenbuild/internal/logfields"
	"git.home.luguber.info/inful/gardenbuild/internal/metrics"
)

// Handler routes /healthz, /metrics and the site itself.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	if s.opts.Gatherer != nil {
		mux.Handle("/metrics", metrics.HTTPHandler(s.opts.Gatherer))
	}
	mux.HandleFunc("/", s.handleSite)
	return mux
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	body, ok := s.status.snapshot()
	w.Header().Set("Content-Type", "application/json")
	if !ok {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("Failed to write health response", logfields.Error(err))
	}
}

// handleSite serves output files with pretty URLs: /a/b is answered from
// a/b, a/b.html or a/b/index.html, in that order.
func (s *Server) handleSite(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}
	root := s.builder.OutputDir()
	if file, ok := s.resolve(root, r.URL.Path); ok {
		http.ServeFile(w, r, file)
		return
	}
	s.notFound(w, r, root)
}

func (s *Server) resolve(root, urlPath string) (string, bool) {
	p := path.Clean("/" + urlPath)
	if base := strings.TrimSuffix(s.opts.BasePath, "/"); base != "" {
		if p != base && !strings.HasPrefix(p, base+"/") {
			return "", false
		}
		p = "/" + strings.TrimPrefix(strings.TrimPrefix(p, base), "/")
	}
	rel := strings.TrimPrefix(p, "/")

	var candidates []string
	if rel != "" {
		candidates = append(candidates, rel, rel+".html")
	}
	candidates = append(candidates, path.Join(rel, "index.html"))
	for _, c := range candidates {
		full := filepath.Join(root, filepath.FromSlash(c))
		if st, err := os.Stat(full); err == nil && st.Mode().IsRegular() {
			return full, true
		}
	}
	return "", false
}

func (s *Server) notFound(w http.ResponseWriter, r *http.Request, root string) {
	page, err := os.ReadFile(filepath.Join(root, "404.html"))
	if err != nil {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusNotFound)
	_, _ = w.Write(page)
}
