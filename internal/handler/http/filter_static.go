package http

import (
	"io/fs"
	"net/http"
	"os"
	"path"
	"strings"

	"github.com/MKhiriev/go-natours/internal/pipeline"
	"github.com/MKhiriev/go-natours/internal/views"
)

// staticFS returns the configured asset directory, or the assets embedded in
// the binary when the directory does not exist.
func (h *Handler) staticFS() fs.FS {
	if dir := h.cfg.App.StaticDir; dir != "" {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			return os.DirFS(dir)
		}
		h.logger.Debug().Str("dir", dir).Msg("static dir not found, serving embedded assets")
	}
	return views.Assets()
}

// static serves GET and HEAD requests for existing asset files and ends the
// chain; every other request continues untouched.
func (h *Handler) static() pipeline.Filter {
	fsys := h.staticFS()

	return pipeline.Named("static", func(x *pipeline.Exchange) (pipeline.Outcome, error) {
		r := x.Request
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			return pipeline.Continue, nil
		}
		if hasPathPrefix(r.URL.Path, apiPrefix) {
			return pipeline.Continue, nil
		}

		name := strings.TrimPrefix(path.Clean(r.URL.Path), "/")
		if name == "" || name == "." {
			return pipeline.Continue, nil
		}
		info, err := fs.Stat(fsys, name)
		if err != nil || info.IsDir() {
			return pipeline.Continue, nil
		}

		http.ServeFileFS(x.Writer, r, fsys, name)
		return pipeline.Handled, nil
	})
}
