package handler

import (
	"net/http"

	"geocatalog/internal/dto"
	"geocatalog/internal/metrics"
	"geocatalog/internal/middleware"
	"geocatalog/internal/service"
	"geocatalog/internal/validation"
)

// LoginHandler handles POST /login/. It returns the user's token, creating
// one if the user has none.
func LoginHandler(auth *service.AuthService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req dto.CredentialsRequest
		if err := decodeCredentials(r, &req); err != nil {
			metrics.RecordAuthEvent("login", metrics.OutcomeFailure)
			writeServiceError(w, r, err)
			return
		}

		session, err := auth.Login(r.Context(), req.Username, req.Password)
		if err != nil {
			metrics.RecordAuthEvent("login", outcome(err))
			writeServiceError(w, r, err)
			return
		}

		metrics.RecordAuthEvent("login", metrics.OutcomeSuccess)
		writeJSON(w, r, http.StatusOK, authResponse(session))
	}
}

// RegisterHandler handles POST /register/ and logs the new user in.
func RegisterHandler(auth *service.AuthService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req dto.CredentialsRequest
		if err := decodeCredentials(r, &req); err != nil {
			metrics.RecordAuthEvent("register", metrics.OutcomeFailure)
			writeServiceError(w, r, err)
			return
		}

		if req.Username != "" && req.Password != "" {
			if err := validation.Struct(req); err != nil {
				metrics.RecordAuthEvent("register", metrics.OutcomeFailure)
				writeServiceError(w, r, err)
				return
			}
		}

		session, err := auth.Register(r.Context(), req.Username, req.Password, req.Email)
		if err != nil {
			metrics.RecordAuthEvent("register", outcome(err))
			writeServiceError(w, r, err)
			return
		}

		metrics.RecordAuthEvent("register", metrics.OutcomeSuccess)
		writeJSON(w, r, http.StatusOK, authResponse(session))
	}
}

// LogoutHandler handles POST /logout/ by revoking the caller's token.
// An anonymous call is answered with 200 and success=false.
func LogoutHandler(auth *service.AuthService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := middleware.UserFromContext(r.Context())
		if !ok {
			metrics.RecordAuthEvent("logout", metrics.OutcomeFailure)
			writeError(w, r, http.StatusOK, MsgNotLoggedIn)
			return
		}

		if err := auth.Logout(r.Context(), user.ID); err != nil {
			metrics.RecordAuthEvent("logout", metrics.OutcomeError)
			writeServiceError(w, r, err)
			return
		}

		metrics.RecordAuthEvent("logout", metrics.OutcomeSuccess)
		writeJSON(w, r, http.StatusOK, dto.MessageResponse{Success: true, Message: MsgLoggedOut})
	}
}

func authResponse(s *service.Session) dto.AuthResponse {
	return dto.AuthResponse{
		Success:  true,
		Token:    s.Token.Key,
		UserID:   s.User.ID,
		Username: s.User.Username,
	}
}
