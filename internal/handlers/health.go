package handlers

import "net/http"

// Healthz reports liveness. Unauthenticated.
func Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
