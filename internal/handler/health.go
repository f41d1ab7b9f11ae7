package handler

import "net/http"

// HealthResponse is the body of GET /healthz.
type HealthResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// HandleHealth answers liveness probes. It does not call the cars API: the
// client is up even when its backend is not.
func HandleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:  "OK",
		Message: "Car Listing Client is running",
	})
}
