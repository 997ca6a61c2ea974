package handler

import "net/http"

// HandleHealth answers liveness probes.
//
// HTTP: GET /api/health
func HandleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// HandleRoot is the service banner at /.
func HandleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "rocks monitoramento backend is running"})
}
