package handler

import (
	"net/http"

	"geocatalog/internal/dto"
	"geocatalog/internal/middleware"
	"geocatalog/internal/repository"
	"geocatalog/internal/service"
	"geocatalog/internal/validation"
)

// ListOfflineImagesHandler returns the caller's offline-image markers.
func ListOfflineImagesHandler(markers *service.OfflineImageService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, _ := middleware.UserFromContext(r.Context())

		list, err := markers.List(r.Context(), user)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}

		out := make([]dto.OfflineImageResponse, 0, len(list))
		for i := range list {
			out = append(out, dto.NewOfflineImageResponse(&list[i]))
		}
		writeJSON(w, r, http.StatusOK, out)
	}
}

// MarkOfflineImageHandler records that the caller keeps an entity's image at
// local_path. Posting again for the same entity refreshes the marker.
func MarkOfflineImageHandler(markers *service.OfflineImageService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, _ := middleware.UserFromContext(r.Context())

		var in dto.OfflineImageInput
		if err := decodeJSON(r, &in); err != nil {
			writeServiceError(w, r, err)
			return
		}
		if err := validation.Struct(in); err != nil {
			writeServiceError(w, r, err)
			return
		}

		m, err := markers.Mark(r.Context(), user, *in.Entity, in.LocalPath)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, r, http.StatusOK, dto.NewOfflineImageResponse(m))
	}
}

// UnmarkOfflineImageHandler removes the caller's marker for an entity.
func UnmarkOfflineImageHandler(markers *service.OfflineImageService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, _ := middleware.UserFromContext(r.Context())
		id, ok := entityID(r, "entityID")
		if !ok {
			writeServiceError(w, r, repository.ErrNotFound)
			return
		}

		if err := markers.Unmark(r.Context(), user, id); err != nil {
			writeServiceError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
