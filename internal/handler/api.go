package handler

import (
	"net/http"

	"github.com/sakif/car-listing/internal/apperror"
	"github.com/sakif/car-listing/internal/service"
	"github.com/sakif/car-listing/internal/session"
)

// APIHandler serves the read-only JSON views. Scripts and the end-to-end tests
// use them to inspect state without scraping HTML.
//
// lookup answers /api/cars/{id}. It is one client shared by every caller and
// only its Get is used, which holds no per-visitor state, so that route needs
// no session.
type APIHandler struct {
	lookup *service.Client
}

func NewAPIHandler(lookup *service.Client) *APIHandler {
	return &APIHandler{lookup: lookup}
}

// HandleView serves GET /view.json: the same snapshot the page is drawn from.
// It only reads an existing session and answers 404 without one.
func (h *APIHandler) HandleView(w http.ResponseWriter, r *http.Request) {
	client, ok := session.ClientFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusNotFound, ErrorResponse{
			Error:   "no_session",
			Message: "No active session",
		})
		return
	}
	writeJSON(w, http.StatusOK, client.Snapshot())
}

// HandleCar serves GET /api/cars/{id}: one record fetched fresh.
//
// HTTP: GET /api/cars/7
// RESPONSES:
//
//	200 {"id":7,"make":"Toyota",...}
//	400 {"error":"validation_error","message":"Invalid car id"}
//	404 {"error":"not_found","message":"Car not found"}
//	502 {"error":"transport_error","message":"..."}
func (h *APIHandler) HandleCar(w http.ResponseWriter, r *http.Request) {
	id, ok := carID(r)
	if !ok {
		writeError(w, apperror.ValidationFailed("id", "Invalid car id"))
		return
	}
	car, err := h.lookup.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, car)
}
