// Package testutil provides an in-memory stand-in for the cars REST API.
//
// FakeAPI answers the same routes, status codes and error bodies as the real
// service, keeps its records in a slice guarded by a mutex, and counts every
// request so tests can assert how many network calls an operation made.
package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"slices"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/car-listing/internal/model"
	"github.com/sakif/car-listing/internal/normalize"
)

// Route keys accepted by Calls and FailNext.
const (
	RouteList   = "GET /api/cars"
	RouteGet    = "GET /api/cars/{id}"
	RouteCreate = "POST /api/cars"
	RouteUpdate = "PUT /api/cars/{id}"
	RouteDelete = "DELETE /api/cars/{id}"
)

type failure struct {
	status  int
	message string
}

// FakeAPI is an http.Handler. The zero value is not usable; call NewFakeAPI.
type FakeAPI struct {
	mu       sync.Mutex
	cars     []model.Car
	nextID   int64
	calls    map[string]int
	failures map[string][]failure
	listGate chan struct{}
	now      func() time.Time

	router chi.Router
}

// NewFakeAPI returns an empty API mounted at /api/cars.
func NewFakeAPI() *FakeAPI {
	f := &FakeAPI{
		nextID:   1,
		calls:    make(map[string]int),
		failures: make(map[string][]failure),
		now:      func() time.Time { return time.Now().UTC().Truncate(time.Second) },
	}

	r := chi.NewRouter()
	r.Get("/healthCheck", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "OK", "message": "Car Listing API is running"})
	})
	r.Route("/api/cars", func(r chi.Router) {
		r.Get("/", f.list)
		r.Post("/", f.create)
		r.Get("/{id}", f.get)
		r.Put("/{id}", f.update)
		r.Delete("/{id}", f.delete)
	})
	f.router = r
	return f
}

// Start serves f on a loopback httptest.Server that is closed when the test
// ends, and returns the collection URL to hand to httpapi.New.
func Start(t testing.TB, f *FakeAPI) string {
	t.Helper()
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	return srv.URL + "/api/cars"
}

func (f *FakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.router.ServeHTTP(w, r)
}

// Seed stores cars as if they had been created through the API. Records with
// a zero ID get the next free one.
func (f *FakeAPI) Seed(cars ...model.Car) []model.Car {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.Car, 0, len(cars))
	for _, c := range cars {
		if c.ID == 0 {
			c.ID = f.nextID
		}
		if c.ID >= f.nextID {
			f.nextID = c.ID + 1
		}
		if c.CreatedAt.IsZero() {
			c.CreatedAt = model.Timestamp{Time: f.now()}
			c.UpdatedAt = c.CreatedAt
		}
		f.cars = append(f.cars, c)
		out = append(out, c)
	}
	return out
}

// Cars returns a copy of the stored records.
func (f *FakeAPI) Cars() []model.Car {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.cars)
}

// Calls returns how many requests hit route (one of the Route constants).
func (f *FakeAPI) Calls(route string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[route]
}

// TotalCalls counts every request to the car routes.
func (f *FakeAPI) TotalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

// FailNext makes the next request to route answer status with {"error": msg}.
// An empty msg sends an empty JSON object instead. Calls queue up.
func (f *FakeAPI) FailNext(route string, status int, msg string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[route] = append(f.failures[route], failure{status: status, message: msg})
}

// BlockList holds every list request until the returned release func is
// called. Requests are still counted as they arrive.
func (f *FakeAPI) BlockList() (release func()) {
	gate := make(chan struct{})
	f.mu.Lock()
	f.listGate = gate
	f.mu.Unlock()
	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			f.listGate = nil
			f.mu.Unlock()
			close(gate)
		})
	}
}

// begin counts the request and reports an injected failure, if one is queued.
func (f *FakeAPI) begin(w http.ResponseWriter, route string) bool {
	f.mu.Lock()
	f.calls[route]++
	queue := f.failures[route]
	if len(queue) == 0 {
		f.mu.Unlock()
		return false
	}
	fail := queue[0]
	f.failures[route] = queue[1:]
	f.mu.Unlock()

	if fail.message == "" {
		writeJSON(w, fail.status, map[string]string{})
	} else {
		writeError(w, fail.status, fail.message)
	}
	return true
}

func (f *FakeAPI) list(w http.ResponseWriter, r *http.Request) {
	if f.begin(w, RouteList) {
		return
	}
	f.mu.Lock()
	gate := f.listGate
	f.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-r.Context().Done():
			return
		}
	}
	cars := f.Cars()
	if cars == nil {
		cars = []model.Car{}
	}
	writeJSON(w, http.StatusOK, cars)
}

func (f *FakeAPI) get(w http.ResponseWriter, r *http.Request) {
	if f.begin(w, RouteGet) {
		return
	}
	id, ok := pathID(r)
	f.mu.Lock()
	idx := f.indexLocked(id)
	var car model.Car
	if idx >= 0 {
		car = f.cars[idx]
	}
	f.mu.Unlock()
	if !ok || idx < 0 {
		writeError(w, http.StatusNotFound, "Car not found")
		return
	}
	writeJSON(w, http.StatusOK, car)
}

func (f *FakeAPI) create(w http.ResponseWriter, r *http.Request) {
	if f.begin(w, RouteCreate) {
		return
	}
	car, status, msg := decodeCar(r)
	if status != 0 {
		writeError(w, status, msg)
		return
	}

	f.mu.Lock()
	if f.vinTakenLocked(car.VIN, 0) {
		f.mu.Unlock()
		writeError(w, http.StatusInternalServerError, "Failed to create car (possible duplicate VIN)")
		return
	}
	car.ID = f.nextID
	f.nextID++
	car.CreatedAt = model.Timestamp{Time: f.now()}
	car.UpdatedAt = car.CreatedAt
	f.cars = append(f.cars, car)
	f.mu.Unlock()

	w.Header().Set("Location", "/api/cars/"+strconv.FormatInt(car.ID, 10))
	writeJSON(w, http.StatusCreated, writeBody(car))
}

func (f *FakeAPI) update(w http.ResponseWriter, r *http.Request) {
	if f.begin(w, RouteUpdate) {
		return
	}
	id, ok := pathID(r)
	f.mu.Lock()
	exists := ok && f.indexLocked(id) >= 0
	f.mu.Unlock()
	if !exists {
		writeError(w, http.StatusNotFound, "Car not found")
		return
	}

	car, status, msg := decodeCar(r)
	if status != 0 {
		writeError(w, status, msg)
		return
	}

	f.mu.Lock()
	idx := f.indexLocked(id)
	if idx < 0 {
		f.mu.Unlock()
		writeError(w, http.StatusNotFound, "Car not found")
		return
	}
	if f.vinTakenLocked(car.VIN, id) {
		f.mu.Unlock()
		writeError(w, http.StatusInternalServerError, "Failed to update car (possible duplicate VIN)")
		return
	}
	car.ID = id
	car.CreatedAt = f.cars[idx].CreatedAt
	car.UpdatedAt = model.Timestamp{Time: f.now()}
	f.cars[idx] = car
	f.mu.Unlock()

	writeJSON(w, http.StatusOK, writeBody(car))
}

func (f *FakeAPI) delete(w http.ResponseWriter, r *http.Request) {
	if f.begin(w, RouteDelete) {
		return
	}
	id, ok := pathID(r)
	f.mu.Lock()
	idx := -1
	if ok {
		idx = f.indexLocked(id)
	}
	if idx >= 0 {
		f.cars = slices.Delete(f.cars, idx, idx+1)
	}
	f.mu.Unlock()
	if idx < 0 {
		writeError(w, http.StatusNotFound, "Car not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (f *FakeAPI) indexLocked(id int64) int {
	return slices.IndexFunc(f.cars, func(c model.Car) bool { return c.ID == id })
}

func (f *FakeAPI) vinTakenLocked(vin string, except int64) bool {
	if vin == "" {
		return false
	}
	return slices.ContainsFunc(f.cars, func(c model.Car) bool { return c.VIN == vin && c.ID != except })
}

// carBody mirrors what clients POST and PUT. Required fields are pointers so a
// missing key can be told apart from a zero value.
type carBody struct {
	Make         *string  `json:"make"`
	Model        *string  `json:"model"`
	Year         *int     `json:"year"`
	Price        *float64 `json:"price"`
	MileageKm    *int     `json:"mileageKm"`
	Color        string   `json:"color"`
	VIN          string   `json:"vin"`
	ImageDataURL *string  `json:"imageDataUrl"`
}

func decodeCar(r *http.Request) (model.Car, int, string) {
	var body carBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return model.Car{}, http.StatusBadRequest, "Invalid JSON"
	}
	if body.Make == nil || body.Model == nil || body.Year == nil || body.Price == nil || body.MileageKm == nil {
		return model.Car{}, http.StatusBadRequest, "Missing required fields: make, model, year, price, mileageKm"
	}
	car := model.Car{
		Make:      normalize.Text(*body.Make),
		Model:     normalize.Text(*body.Model),
		Year:      *body.Year,
		Price:     *body.Price,
		MileageKm: *body.MileageKm,
		Color:     normalize.Text(body.Color),
		VIN:       normalize.UpperCase(body.VIN),
	}
	if body.ImageDataURL != nil {
		car.ImageDataURL = *body.ImageDataURL
	}
	return car, 0, ""
}

// writeBody is the create/update response, which carries no timestamps.
func writeBody(c model.Car) map[string]any {
	return map[string]any{
		"id":           c.ID,
		"make":         c.Make,
		"model":        c.Model,
		"year":         c.Year,
		"price":        c.Price,
		"mileageKm":    c.MileageKm,
		"color":        c.Color,
		"vin":          c.VIN,
		"imageDataUrl": c.ImageDataURL,
	}
}

func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
