package handler

import (
	"net/http"

	"geocatalog/internal/dto"
)

// CheckHandler is the liveness probe.
func CheckHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, dto.HealthResponse{Status: "online", Message: "Server is running"})
}
