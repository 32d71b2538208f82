package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/goccy/go-json"

	"geocatalog/internal/dto"
	"geocatalog/internal/logger"
	"geocatalog/internal/repository"
	"geocatalog/internal/service"
	"geocatalog/internal/service/storage"
	"geocatalog/internal/validation"
)

// Error messages shared by several endpoints.
const (
	MsgNotFound       = "Not found."
	MsgInternal       = "Internal server error"
	MsgMalformedBody  = "Malformed request body"
	MsgNotLoggedIn    = "Not logged in"
	MsgLoggedOut      = "Successfully logged out"
	MsgNotAnImage     = "Upload a valid image. The file you uploaded was either not an image or a corrupted image."
	MsgNotJSONObject  = "Value must be a JSON object or null."
	MsgMissingCreds   = "Please provide both username and password"
	MsgUsernameTaken  = "Username already exists"
	MsgBadCredentials = "Invalid credentials"
	MsgForbidden      = "You do not have permission to perform this action."
)

// errMalformedBody wraps body decoding failures.
var errMalformedBody = errors.New("malformed request body")

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Ctx(r.Context()).Error().Err(err).Msg("failed to encode JSON response")
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeJSON(w, r, status, dto.ErrorResponse{Success: false, Error: msg})
}

// writeServiceError maps an error from the service or repository layer to a
// status code and body. Unknown errors are logged and reported as 500.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		verr *validation.RequestValidationError
		ferr *service.ForbiddenError
	)
	switch {
	case errors.As(err, &verr):
		writeJSON(w, r, http.StatusBadRequest, dto.ErrorResponse{
			Success: false,
			Error:   verr.Error(),
			Fields:  verr.Fields(),
		})
	case errors.Is(err, errMalformedBody):
		writeError(w, r, http.StatusBadRequest, MsgMalformedBody)
	case errors.Is(err, service.ErrInvalidCredentials):
		writeError(w, r, http.StatusBadRequest, MsgBadCredentials)
	case errors.Is(err, service.ErrMissingCredentials):
		writeError(w, r, http.StatusBadRequest, MsgMissingCreds)
	case errors.Is(err, service.ErrUsernameTaken):
		writeError(w, r, http.StatusBadRequest, MsgUsernameTaken)
	case errors.Is(err, storage.ErrNotImage):
		writeServiceError(w, r, validation.NewFieldError("image", MsgNotAnImage))
	case errors.Is(err, storage.ErrTooLarge):
		writeServiceError(w, r, validation.NewFieldError("image", "The uploaded image is too large."))
	case errors.Is(err, service.ErrInvalidToken):
		writeError(w, r, http.StatusUnauthorized, "Invalid token.")
	case errors.As(err, &ferr):
		writeError(w, r, http.StatusForbidden, "You can only "+ferr.Action+" your own entities")
	case errors.Is(err, service.ErrForbidden):
		writeError(w, r, http.StatusForbidden, MsgForbidden)
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, r, http.StatusNotFound, MsgNotFound)
	default:
		logger.Ctx(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		writeError(w, r, http.StatusInternalServerError, MsgInternal)
	}
}

func malformed(err error) error {
	return fmt.Errorf("%w: %v", errMalformedBody, err)
}

// isClientError reports whether err maps to a 4xx response.
func isClientError(err error) bool {
	var verr *validation.RequestValidationError
	return errors.As(err, &verr) ||
		errors.Is(err, errMalformedBody) ||
		errors.Is(err, service.ErrInvalidCredentials) ||
		errors.Is(err, service.ErrMissingCredentials) ||
		errors.Is(err, service.ErrUsernameTaken) ||
		errors.Is(err, service.ErrInvalidToken) ||
		errors.Is(err, service.ErrForbidden) ||
		errors.Is(err, storage.ErrNotImage) ||
		errors.Is(err, storage.ErrTooLarge) ||
		errors.Is(err, repository.ErrNotFound)
}
