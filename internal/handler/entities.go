package handler

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"geocatalog/internal/config"
	"geocatalog/internal/dto"
	"geocatalog/internal/metrics"
	"geocatalog/internal/middleware"
	"geocatalog/internal/model"
	"geocatalog/internal/repository"
	"geocatalog/internal/service"
	"geocatalog/internal/validation"
)

// ListEntitiesHandler returns every entity, whoever owns it.
func ListEntitiesHandler(entities *service.EntityService, cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := entities.List(r.Context())
		if err != nil {
			writeServiceError(w, r, err)
			return
		}

		toURL := imageURL(r, cfg.MediaURL)
		out := make([]dto.EntityResponse, 0, len(list))
		for i := range list {
			out = append(out, dto.NewEntityResponse(&list[i], toURL))
		}
		writeJSON(w, r, http.StatusOK, out)
	}
}

// GetEntityHandler returns one entity.
func GetEntityHandler(entities *service.EntityService, cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := entityID(r, "id")
		if !ok {
			writeServiceError(w, r, repository.ErrNotFound)
			return
		}

		e, err := entities.Get(r.Context(), id)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, r, http.StatusOK, dto.NewEntityResponse(e, imageURL(r, cfg.MediaURL)))
	}
}

// CreateEntityHandler stores a new entity owned by the caller. Any owner or id
// supplied in the payload is ignored.
func CreateEntityHandler(entities *service.EntityService, cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, _ := middleware.UserFromContext(r.Context())
		r.Body = http.MaxBytesReader(w, r.Body, bodyLimit(cfg))

		changes, cleanup, err := readEntity(r, false)
		defer cleanup()
		if err != nil {
			writeServiceError(w, r, err)
			return
		}

		e, err := entities.Create(r.Context(), user, changes)
		if err != nil {
			metrics.RecordEntityMutation("create", outcome(err))
			writeServiceError(w, r, err)
			return
		}
		metrics.RecordEntityMutation("create", metrics.OutcomeSuccess)
		writeJSON(w, r, http.StatusCreated, dto.NewEntityResponse(e, imageURL(r, cfg.MediaURL)))
	}
}

// UpdateEntityHandler handles PUT (partial=false) and PATCH (partial=true).
// Existence and ownership are checked before the body is read, so a non-owner
// gets 403 whatever the payload holds.
func UpdateEntityHandler(entities *service.EntityService, cfg *config.Config, partial bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, _ := middleware.UserFromContext(r.Context())
		id, ok := entityID(r, "id")
		if !ok {
			writeServiceError(w, r, repository.ErrNotFound)
			return
		}
		if _, err := entities.Authorize(r.Context(), user, id, service.ActionUpdate); err != nil {
			metrics.RecordEntityMutation("update", outcome(err))
			writeServiceError(w, r, err)
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, bodyLimit(cfg))

		changes, cleanup, err := readEntity(r, partial)
		defer cleanup()
		if err != nil {
			writeServiceError(w, r, err)
			return
		}

		e, err := entities.Update(r.Context(), user, id, changes)
		if err != nil {
			metrics.RecordEntityMutation("update", outcome(err))
			writeServiceError(w, r, err)
			return
		}
		metrics.RecordEntityMutation("update", metrics.OutcomeSuccess)
		writeJSON(w, r, http.StatusOK, dto.NewEntityResponse(e, imageURL(r, cfg.MediaURL)))
	}
}

// DeleteEntityHandler removes an entity owned by the caller and answers 204.
func DeleteEntityHandler(entities *service.EntityService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, _ := middleware.UserFromContext(r.Context())
		id, ok := entityID(r, "id")
		if !ok {
			writeServiceError(w, r, repository.ErrNotFound)
			return
		}

		if err := entities.Delete(r.Context(), user, id); err != nil {
			metrics.RecordEntityMutation("delete", outcome(err))
			writeServiceError(w, r, err)
			return
		}
		metrics.RecordEntityMutation("delete", metrics.OutcomeSuccess)
		w.WriteHeader(http.StatusNoContent)
	}
}

// readEntity decodes and validates an entity payload. cleanup releases the
// uploaded file and any multipart temp files and is always safe to call.
func readEntity(r *http.Request, partial bool) (service.EntityChanges, func(), error) {
	cleanup := func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}

	in, file, err := decodeEntity(r)
	if err != nil {
		return service.EntityChanges{}, cleanup, err
	}
	if file != nil {
		removeForm := cleanup
		cleanup = func() {
			_ = file.Close()
			removeForm()
		}
	}
	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		in.Title = &title
	}

	if partial {
		err = validation.Struct(dto.EntityPatch(in))
	} else {
		err = validation.Struct(in)
	}
	if err != nil {
		return service.EntityChanges{}, cleanup, err
	}

	props, err := model.PropertiesFrom(in.Properties)
	if err != nil {
		return service.EntityChanges{}, cleanup, validation.NewFieldError("properties", MsgNotJSONObject)
	}

	changes := service.EntityChanges{
		Title:         in.Title,
		Lat:           in.Lat,
		Lon:           in.Lon,
		Properties:    props,
		SetProperties: in.PropertiesSet,
	}
	if file != nil {
		changes.Image = file
	}
	return changes, cleanup, nil
}

func entityID(r *http.Request, param string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, param), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// imageURL returns a function building the absolute URL of a stored image.
func imageURL(r *http.Request, mediaURL string) func(string) string {
	base := mediaURL
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = scheme(r) + "://" + r.Host + "/" + strings.Trim(mediaURL, "/")
	}
	base = strings.TrimRight(base, "/") + "/"

	return func(name string) string {
		return base + url.PathEscape(name)
	}
}

func scheme(r *http.Request) string {
	if proto := r.Header.Get("X-Forwarded-Proto"); proto == "https" || proto == "http" {
		return proto
	}
	if r.TLS != nil {
		return "https"
	}
	return "http"
}

func bodyLimit(cfg *config.Config) int64 {
	return cfg.MaxUploadBytes() + 1<<20
}

func outcome(err error) string {
	if err == nil {
		return metrics.OutcomeSuccess
	}
	if isClientError(err) {
		return metrics.OutcomeFailure
	}
	return metrics.OutcomeError
}
