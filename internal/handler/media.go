package handler

import (
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"

	"geocatalog/internal/logger"
	"geocatalog/internal/service/storage"
)

// ServeMediaHandler serves a stored image by file name. Directories and names
// outside the media root are answered with 404.
func ServeMediaHandler(media *storage.MediaStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		path, err := media.Path(chi.URLParam(r, "*"))
		if err != nil {
			writeError(w, r, http.StatusNotFound, MsgNotFound)
			return
		}

		info, err := os.Stat(path)
		if err != nil || info.IsDir() {
			if err != nil && !os.IsNotExist(err) {
				logger.Ctx(r.Context()).Warn().Err(err).Str("file", path).Msg("failed to stat image")
			}
			writeError(w, r, http.StatusNotFound, MsgNotFound)
			return
		}

		http.ServeFile(w, r, path)
	}
}
