// Package handler contains the HTTP handlers of the car listing web front end.
//
// WHAT IS A HANDLER?
// In Go, an HTTP handler is anything that implements the http.Handler interface:
//
//	type Handler interface {
//	    ServeHTTP(ResponseWriter, *Request)
//	}
//
// Or more commonly, a function with that signature (http.HandlerFunc), which
// chi accepts directly.
//
// HANDLER RESPONSIBILITIES:
// 1. Parse the incoming request (path params, form values, uploads)
// 2. Call the session's service.Client
// 3. Render a page, or redirect back to one
//
// POST-REDIRECT-GET:
// Every action answers 303 See Other. The browser then GETs the page, which
// draws whatever the client state now is: the refreshed list, the banner,
// the form in Create or Edit. Reloading the page never repeats an action.
package handler

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/car-listing/internal/apperror"
	"github.com/sakif/car-listing/internal/attachment"
	"github.com/sakif/car-listing/internal/form"
	"github.com/sakif/car-listing/internal/listing"
	"github.com/sakif/car-listing/internal/render"
	"github.com/sakif/car-listing/internal/service"
	"github.com/sakif/car-listing/internal/session"
)

// maxUploadBytes caps a whole form post: one image at the attachment limit
// plus room for the text fields and multipart framing.
const maxUploadBytes = attachment.MaxImageBytes + 1<<20

// formAnchor brings the form into view after an edit starts or a save ends.
const formAnchor = "/#car-form"

// PageHandler serves the index page and every form action on it.
// It holds the parsed templates so they are not re-parsed on every request.
type PageHandler struct {
	renderer *render.Renderer
	logger   *slog.Logger
}

// NewPageHandler creates a PageHandler around already-parsed templates.
func NewPageHandler(renderer *render.Renderer, logger *slog.Logger) *PageHandler {
	return &PageHandler{renderer: renderer, logger: logger}
}

// HandleIndex serves GET /. Arriving here closes the detail modal, which is
// what the modal's close link, its backdrop and Escape all rely on.
func (h *PageHandler) HandleIndex(w http.ResponseWriter, r *http.Request) {
	client, ok := h.client(w, r)
	if !ok {
		return
	}
	client.CloseDetails()
	h.renderPage(w, client)
}

// HandleDetails serves GET /cars/{id}: the index page with the modal open.
// A failed fetch still draws the page; the banner carries the error.
func (h *PageHandler) HandleDetails(w http.ResponseWriter, r *http.Request) {
	client, ok := h.client(w, r)
	if !ok {
		return
	}
	id, ok := carID(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	_ = client.ViewDetails(r.Context(), id)
	h.renderPage(w, client)
}

// HandleFilters serves POST /filters.
func (h *PageHandler) HandleFilters(w http.ResponseWriter, r *http.Request) {
	client, ok := h.client(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form", http.StatusBadRequest)
		return
	}
	client.SetSelection(listing.Selection{
		Make:  r.PostFormValue("make"),
		Model: r.PostFormValue("model"),
		Color: r.PostFormValue("color"),
		Sort:  listing.SortKey(r.PostFormValue("sort")),
	})
	redirect(w, r, "/")
}

// HandleClearFilters serves POST /filters/clear.
func (h *PageHandler) HandleClearFilters(w http.ResponseWriter, r *http.Request) {
	client, ok := h.client(w, r)
	if !ok {
		return
	}
	client.ClearFilters()
	redirect(w, r, "/")
}

// HandleRefresh serves POST /refresh.
func (h *PageHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	client, ok := h.client(w, r)
	if !ok {
		return
	}
	_ = client.LoadCars(r.Context())
	redirect(w, r, "/")
}

// HandleSubmit serves POST /cars, the create/edit form.
//
// MULTIPART FLOW:
//  1. The text inputs replace what the form holds, so a failed submit
//     redraws exactly what the user typed.
//  2. clear_image drops the held image.
//  3. A newly chosen file is encoded and held. If it is rejected the submit
//     stops there, the same as a rejected file never reaching the form.
//  4. Submit validates and sends; its outcome lands in the banner.
func (h *PageHandler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	client, ok := h.client(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			client.Notifier().ShowError(apperror.ImageTooLarge(tooBig.Limit, attachment.MaxImageBytes).Message)
			redirect(w, r, formAnchor)
			return
		}
		// Plain urlencoded posts are fine too; they just carry no file.
		if !errors.Is(err, http.ErrNotMultipart) {
			http.Error(w, "Invalid form", http.StatusBadRequest)
			return
		}
	}

	client.UpdateFields(form.Fields{
		Make:    r.PostFormValue("make"),
		Model:   r.PostFormValue("model"),
		Year:    r.PostFormValue("year"),
		Price:   r.PostFormValue("price"),
		Mileage: r.PostFormValue("mileage"),
		Color:   r.PostFormValue("color"),
		VIN:     r.PostFormValue("vin"),
	})

	if r.PostFormValue("clear_image") != "" {
		client.ClearImage()
	}

	file, header, err := r.FormFile("image")
	switch {
	case err == nil:
		defer file.Close()
		if header.Size > 0 {
			if err := client.AttachImage(file, header.Size); err != nil {
				redirect(w, r, formAnchor)
				return
			}
		}
	case !errors.Is(err, http.ErrMissingFile):
		h.logger.Warn("read uploaded image failed", slog.String("error", err.Error()))
	}

	_ = client.Submit(r.Context())
	redirect(w, r, formAnchor)
}

// HandleEdit serves POST /cars/{id}/edit, from a card or from the modal.
func (h *PageHandler) HandleEdit(w http.ResponseWriter, r *http.Request) {
	client, ok := h.client(w, r)
	if !ok {
		return
	}
	id, ok := carID(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	_ = client.EditFromDetails(r.Context(), id)
	redirect(w, r, formAnchor)
}

// HandleCancel serves POST /form/cancel.
func (h *PageHandler) HandleCancel(w http.ResponseWriter, r *http.Request) {
	client, ok := h.client(w, r)
	if !ok {
		return
	}
	client.CancelEdit()
	redirect(w, r, formAnchor)
}

// HandleConfirmDelete serves GET /cars/{id}/delete, the "are you sure?" page.
// The prompt names the cached record; an id the list no longer holds just
// goes back to the index.
func (h *PageHandler) HandleConfirmDelete(w http.ResponseWriter, r *http.Request) {
	client, ok := h.client(w, r)
	if !ok {
		return
	}
	id, ok := carID(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	car, ok := client.Car(id)
	if !ok {
		redirect(w, r, "/")
		return
	}

	var buf bytes.Buffer
	if err := h.renderer.ConfirmDelete(&buf, render.ConfirmData{Card: render.Card(car)}); err != nil {
		h.renderFailed(w, err)
		return
	}
	writeHTML(w, buf.Bytes())
}

// HandleDelete serves POST /cars/{id}/delete. Only confirm=yes deletes.
func (h *PageHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	client, ok := h.client(w, r)
	if !ok {
		return
	}
	id, ok := carID(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form", http.StatusBadRequest)
		return
	}
	_ = client.DeleteFromDetails(r.Context(), id, r.PostFormValue("confirm") == "yes")
	redirect(w, r, "/")
}

// =========================================================================
// HELPERS
// =========================================================================

// client pulls the session's client out of the request. Its absence means
// the route was mounted outside the session middleware.
func (h *PageHandler) client(w http.ResponseWriter, r *http.Request) (*service.Client, bool) {
	c, ok := session.ClientFromContext(r.Context())
	if !ok {
		h.logger.Error("no session client on request", slog.String("path", r.URL.Path))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
	return c, ok
}

// renderPage draws the index into a buffer first, so a template failure can
// still answer 500 instead of a half-written page.
func (h *PageHandler) renderPage(w http.ResponseWriter, client *service.Client) {
	var buf bytes.Buffer
	if err := h.renderer.Page(&buf, render.NewPage(client.Snapshot())); err != nil {
		h.renderFailed(w, err)
		return
	}
	writeHTML(w, buf.Bytes())
}

func (h *PageHandler) renderFailed(w http.ResponseWriter, err error) {
	h.logger.Error("failed to render template", slog.String("error", err.Error()))
	http.Error(w, "Internal Server Error", http.StatusInternalServerError)
}

func writeHTML(w http.ResponseWriter, body []byte) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(body)
}

func redirect(w http.ResponseWriter, r *http.Request, to string) {
	http.Redirect(w, r, to, http.StatusSeeOther)
}

func carID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil && id > 0
}
