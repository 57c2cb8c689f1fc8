package handlers

import (
	"errors"
	"io/fs"
	"net/http"
	"os"

	"github.com/hartmath/woovb/internal/logging"
	"github.com/hartmath/woovb/internal/storage"
	"github.com/hartmath/woovb/internal/videos"
)

// MediaHandler serves stored video and thumbnail files.
type MediaHandler struct {
	Storage MediaStorage
}

// Video handles GET /media/videos/{name}. Range requests are honoured.
func (h MediaHandler) Video(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if h.Storage == nil || !storage.ValidName(name) {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", videos.MimeType(name))
	w.Header().Set("Accept-Ranges", "bytes")
	w.Header().Set("Cache-Control", "private, max-age=3600")
	h.serve(w, r, h.Storage.VideoPath(name))
}

// Thumbnail handles GET /media/thumbnails/{name}.
func (h MediaHandler) Thumbnail(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if h.Storage == nil || !storage.ValidName(name) {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	h.serve(w, r, h.Storage.ThumbnailPath(name))
}

func (h MediaHandler) serve(w http.ResponseWriter, r *http.Request, path string) {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			logging.FromContext(r.Context()).Error("stat media file", "path", path, "error", err)
		}
		w.Header().Del("Content-Type")
		w.Header().Del("Cache-Control")
		http.NotFound(w, r)
		return
	}
	http.ServeFile(w, r, path)
}
