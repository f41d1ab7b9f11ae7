// Package service contains the client-side business logic for car listings.
//
// THE THREE-LAYER ARCHITECTURE:
// The front ends (web handlers, CLI, TUI) never talk to the cars API directly:
//
//	Front end (handler / cmd / tui) → parses input, renders output
//	Service (Client)                → validates, keeps client state, reports outcomes
//	Repository (httpapi)            → speaks HTTP to the cars API
//
// WHAT THE CLIENT OWNS:
// One Client is one user's view of the catalogue. It holds
//   - the cache: the last successfully loaded collection, replaced wholesale
//   - the filter/sort selection and the vocabularies that feed the dropdowns
//   - the form controller (Create or Edit) and any held image
//   - the record open in the detail modal
//   - the notice banner (internal/notify)
//
// CONCURRENCY:
// All state sits behind one mutex, but network calls are made with the lock
// released, so a slow API never blocks a render. Overlapping LoadCars calls are
// coalesced with singleflight; see LoadCars for the ordering rules.
//
// ERRORS:
// Every operation turns its own failure into exactly one banner message and
// also returns the error, which front ends use only for exit codes and logs.
package service

import (
	"context"
	"io"
	"log/slog"
	"strconv"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/sakif/car-listing/internal/apperror"
	"github.com/sakif/car-listing/internal/attachment"
	"github.com/sakif/car-listing/internal/form"
	"github.com/sakif/car-listing/internal/listing"
	"github.com/sakif/car-listing/internal/model"
	"github.com/sakif/car-listing/internal/notify"
	"github.com/sakif/car-listing/internal/repository"
)

// User-facing messages. Error prefixes are followed by the API's own text or
// the matching fallback.
const (
	MsgCreated = "Car listing added successfully"
	MsgUpdated = "Car updated successfully"
	MsgDeleted = "Car listing deleted successfully"

	prefixLoadCars   = "Error loading cars: "
	prefixLoadCar    = "Error loading car: "
	prefixLoadDetail = "Error loading car details: "
	prefixSave       = "Error saving car: "
	prefixDelete     = "Error deleting car: "

	fallbackLoadCars   = "Failed to load cars"
	fallbackLoadCar    = "Failed to load car"
	fallbackLoadDetail = "Failed to load car details"
	fallbackSave       = "Failed to save car"
	fallbackDelete     = "Failed to delete car"
)

// Client is the car listing client state for one user.
type Client struct {
	repo     repository.CarRepository
	notifier *notify.Notifier
	logger   *slog.Logger

	group singleflight.Group

	mu      sync.Mutex
	cars    []model.Car
	vocab   listing.Vocabulary
	sel     listing.Selection
	form    form.Controller
	detail  *model.Car
	loaded  bool
	epoch   uint64 // bumped after every successful mutation
	issued  uint64 // sequence number of the last LoadCars started
	applied uint64 // sequence number of the last LoadCars whose result was kept
}

// NewClient wires a Client to a repository. A nil notifier gets a default one.
func NewClient(repo repository.CarRepository, notifier *notify.Notifier, logger *slog.Logger) *Client {
	if notifier == nil {
		notifier = notify.New()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		repo:     repo,
		notifier: notifier,
		logger:   logger,
		vocab:    listing.BuildVocabulary(nil),
	}
}

// Notifier exposes the banner so front ends can subscribe to changes.
func (c *Client) Notifier() *notify.Notifier { return c.notifier }

// Close stops any pending banner timer. The Client stays usable.
func (c *Client) Close() { c.notifier.Stop() }

// =========================================================================
// DATA LOADER
// =========================================================================

// LoadCars fetches the whole collection, replaces the cache, rebuilds the
// filter vocabularies and reconciles the selection against them.
//
// OVERLAPPING LOADS:
// Calls that start while an equivalent fetch is in flight join it instead of
// sending their own request. The join key includes the mutation epoch, so a
// load started after a successful create/update/delete always gets a fresh
// fetch. Each call carries a sequence number; a result older than the last one
// applied is dropped, which keeps the cache from moving backwards.
//
// On failure the cache is emptied and "Error loading cars: ..." is shown. The
// vocabularies and selection are left as they were.
func (c *Client) LoadCars(ctx context.Context) error {
	c.notifier.HideError()

	c.mu.Lock()
	c.issued++
	seq := c.issued
	key := "load:" + strconv.FormatUint(c.epoch, 10)
	c.mu.Unlock()

	// The shared fetch must not die with whichever caller happened to start it.
	shared := context.WithoutCancel(ctx)
	v, err, joined := c.group.Do(key, func() (any, error) {
		return c.repo.List(shared)
	})

	c.mu.Lock()
	if seq < c.applied {
		c.mu.Unlock()
		c.logger.Debug("dropping stale load result", slog.Uint64("seq", seq))
		return err
	}
	c.applied = seq
	c.loaded = true
	if err != nil {
		c.cars = nil
		c.mu.Unlock()

		c.logger.Warn("load cars failed", slog.String("error", err.Error()))
		c.notifier.ShowError(prefixLoadCars + apperror.Message(err, fallbackLoadCars))
		return err
	}
	cars := v.([]model.Car)
	c.cars = cars
	c.vocab = listing.BuildVocabulary(cars)
	c.sel = c.vocab.Reconcile(c.sel)
	c.mu.Unlock()

	c.logger.Info("cars loaded", slog.Int("count", len(cars)), slog.Bool("shared", joined))
	return nil
}

// Loaded reports whether any LoadCars has completed.
func (c *Client) Loaded() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loaded
}

// =========================================================================
// FILTER / SORT
// =========================================================================

// SetSelection replaces the filter and sort choice. Filter values that are not
// in the current vocabularies are dropped, as a dropdown could not hold them.
func (c *Client) SetSelection(sel listing.Selection) {
	c.mu.Lock()
	defer c.mu.Unlock()
	sel.Sort = listing.ParseSortKey(string(sel.Sort))
	c.sel = c.vocab.Reconcile(sel)
}

// ClearFilters resets every filter and the sort.
func (c *Client) ClearFilters() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sel = listing.Selection{}
}

// Selection returns the current filter and sort choice.
func (c *Client) Selection() listing.Selection {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sel
}

// Visible returns the cache filtered and sorted by the current selection.
func (c *Client) Visible() []model.Car {
	c.mu.Lock()
	cars, sel := c.cars, c.sel
	c.mu.Unlock()
	return listing.Apply(cars, sel)
}

// Filter applies sel to the cache exactly as given, without reconciling it
// against the vocabularies. A value nothing carries matches no record. The
// stored selection is left alone.
func (c *Client) Filter(sel listing.Selection) []model.Car {
	c.mu.Lock()
	cars := c.cars
	c.mu.Unlock()
	return listing.Apply(cars, sel)
}

// Car looks id up in the cache without touching the network. The deletion
// prompt uses it to name the record being deleted.
func (c *Client) Car(id int64) (model.Car, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, car := range c.cars {
		if car.ID == id {
			return car, true
		}
	}
	return model.Car{}, false
}

// Get fetches one record fresh. Unlike ViewDetails it leaves the banner and
// the modal alone, so JSON callers can report the error themselves.
func (c *Client) Get(ctx context.Context, id int64) (model.Car, error) {
	car, err := c.repo.GetByID(ctx, id)
	if err != nil {
		c.logger.Warn("get car failed", slog.Int64("id", id), slog.String("error", err.Error()))
		return model.Car{}, err
	}
	return car, nil
}

// =========================================================================
// FORM CONTROLLER
// =========================================================================

// StartEdit fetches the record fresh and loads it into the form, entering Edit
// mode and replacing any edit already in progress.
func (c *Client) StartEdit(ctx context.Context, id int64) error {
	car, err := c.repo.GetByID(ctx, id)
	if err != nil {
		c.logger.Warn("load car for edit failed", slog.Int64("id", id), slog.String("error", err.Error()))
		c.notifier.ShowError(prefixLoadCar + apperror.Message(err, fallbackLoadCar))
		return err
	}

	c.mu.Lock()
	c.form.BeginEdit(car)
	c.mu.Unlock()

	c.logger.Info("editing car", slog.Int64("id", id))
	return nil
}

// CancelEdit returns the form to Create with every field cleared.
func (c *Client) CancelEdit() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.form.Reset()
}

// UpdateFields stores the text inputs as typed. The held image is unchanged.
func (c *Client) UpdateFields(f form.Fields) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.form.SetFields(f)
}

// AttachImage encodes an uploaded file and holds it for the next submit. A
// file over the size cap is rejected with the banner message and any image
// already held is kept.
func (c *Client) AttachImage(r io.Reader, size int64) error {
	dataURL, err := attachment.Encode(r, size)
	return c.holdImage(dataURL, err)
}

// AttachImageFile is AttachImage for a local path.
func (c *Client) AttachImageFile(path string) error {
	dataURL, err := attachment.EncodeFile(path)
	return c.holdImage(dataURL, err)
}

// SetImage holds an already-encoded data URL.
func (c *Client) SetImage(dataURL string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.form.SetImage(dataURL)
}

// ClearImage drops the held image, so the next submit sends null.
func (c *Client) ClearImage() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.form.ClearImage()
}

func (c *Client) holdImage(dataURL string, err error) error {
	if err != nil {
		c.notifier.ShowError(apperror.Message(err, "Failed to read image"))
		return err
	}
	c.SetImage(dataURL)
	return nil
}

// Submit validates the form and sends it: PUT in Edit mode, POST in Create.
// A validation failure makes no network call. On success the form resets, the
// cache reloads and the success message for the mode that was active is shown.
// On failure the form keeps its values.
func (c *Client) Submit(ctx context.Context) error {
	c.notifier.HideError()

	c.mu.Lock()
	id, editing := c.form.EditingID()
	in, err := c.form.Build()
	c.mu.Unlock()

	if err != nil {
		c.notifier.ShowError(apperror.Message(err, ""))
		return err
	}

	if editing {
		_, err = c.repo.Update(ctx, id, in)
	} else {
		_, err = c.repo.Create(ctx, in)
	}
	if err != nil {
		c.logger.Warn("save car failed", slog.Bool("edit", editing), slog.String("error", err.Error()))
		c.notifier.ShowError(prefixSave + apperror.Message(err, fallbackSave))
		return err
	}

	c.mu.Lock()
	c.epoch++
	c.form.Reset()
	c.mu.Unlock()

	msg := MsgCreated
	if editing {
		msg = MsgUpdated
		c.logger.Info("car updated", slog.Int64("id", id))
	} else {
		c.logger.Info("car created", slog.String("make", in.Make), slog.String("model", in.Model))
	}

	// The record is stored even when the reload fails, so the success notice
	// replaces the load error.
	_ = c.LoadCars(ctx)
	c.notifier.ShowSuccess(msg)
	return nil
}

// =========================================================================
// DELETION
// =========================================================================

// Delete removes a record once the user has confirmed. Without confirmation
// nothing happens and no request is sent.
func (c *Client) Delete(ctx context.Context, id int64, confirmed bool) error {
	if !confirmed {
		return nil
	}

	if err := c.repo.Delete(ctx, id); err != nil {
		c.logger.Warn("delete car failed", slog.Int64("id", id), slog.String("error", err.Error()))
		c.notifier.ShowError(prefixDelete + apperror.Message(err, fallbackDelete))
		return err
	}

	c.mu.Lock()
	c.epoch++
	c.mu.Unlock()
	c.logger.Info("car deleted", slog.Int64("id", id))

	_ = c.LoadCars(ctx)
	c.notifier.ShowSuccess(MsgDeleted)
	return nil
}

// =========================================================================
// DETAIL MODAL
// =========================================================================

// ViewDetails fetches the record fresh and opens the detail modal on it.
func (c *Client) ViewDetails(ctx context.Context, id int64) error {
	car, err := c.repo.GetByID(ctx, id)
	if err != nil {
		c.logger.Warn("load car details failed", slog.Int64("id", id), slog.String("error", err.Error()))
		c.notifier.ShowError(prefixLoadDetail + apperror.Message(err, fallbackLoadDetail))
		return err
	}

	c.mu.Lock()
	c.detail = &car
	c.mu.Unlock()
	return nil
}

// CloseDetails closes the modal. Closing an already-closed modal is a no-op.
func (c *Client) CloseDetails() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.detail = nil
}

// EditFromDetails closes the modal and starts editing id.
func (c *Client) EditFromDetails(ctx context.Context, id int64) error {
	c.CloseDetails()
	return c.StartEdit(ctx, id)
}

// DeleteFromDetails closes the modal and runs the deletion flow for id.
func (c *Client) DeleteFromDetails(ctx context.Context, id int64, confirmed bool) error {
	c.CloseDetails()
	return c.Delete(ctx, id, confirmed)
}

// =========================================================================
// SNAPSHOT
// =========================================================================

// FormState is the form as a front end needs to draw it.
type FormState struct {
	Mode      form.Mode   `json:"-"`
	ModeName  string      `json:"mode"`
	Title     string      `json:"title"`
	EditingID int64       `json:"editingId,omitempty"`
	Fields    form.Fields `json:"fields"`
}

// View is a consistent copy of everything a front end renders.
type View struct {
	Cars       []model.Car        `json:"cars"`
	Total      int                `json:"total"`
	Vocabulary listing.Vocabulary `json:"vocabulary"`
	Selection  listing.Selection  `json:"selection"`
	Form       FormState          `json:"form"`
	Detail     *model.Car         `json:"detail,omitempty"`
	Notice     notify.Notice      `json:"notice"`
	Loaded     bool               `json:"loaded"`
}

// Snapshot returns the current view. The returned value shares nothing
// mutable with the Client.
func (c *Client) Snapshot() View {
	c.mu.Lock()
	cars, sel, vocab := c.cars, c.sel, c.vocab
	id, _ := c.form.EditingID()
	fs := FormState{
		Mode:      c.form.Mode(),
		ModeName:  c.form.Mode().String(),
		Title:     c.form.Title(),
		EditingID: id,
		Fields:    c.form.Fields(),
	}
	var detail *model.Car
	if c.detail != nil {
		d := *c.detail
		detail = &d
	}
	loaded := c.loaded
	c.mu.Unlock()

	return View{
		Cars:       listing.Apply(cars, sel),
		Total:      len(cars),
		Vocabulary: vocab,
		Selection:  sel,
		Form:       fs,
		Detail:     detail,
		Notice:     c.notifier.Current(),
		Loaded:     loaded,
	}
}
