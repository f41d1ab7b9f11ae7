package service

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sakif/car-listing/internal/apperror"
	"github.com/sakif/car-listing/internal/attachment"
	"github.com/sakif/car-listing/internal/form"
	"github.com/sakif/car-listing/internal/listing"
	"github.com/sakif/car-listing/internal/model"
	"github.com/sakif/car-listing/internal/notify"
	"github.com/sakif/car-listing/internal/repository"
)

// =========================================================================
// MOCK REPOSITORY
// =========================================================================
//
// mockCarRepo implements repository.CarRepository in memory. Each method can
// be overridden with a hook to simulate API failures or slow responses, and
// every call is counted so tests can assert "no network call was made".

type mockCarRepo struct {
	mu     sync.Mutex
	cars   []model.Car
	nextID int64
	calls  map[string]int

	listHook   func(ctx context.Context, call int) ([]model.Car, error)
	getErr     error
	saveErr    error
	deleteErr  error
	lastInput  model.CarInput
	lastUpdate int64
}

var _ repository.CarRepository = (*mockCarRepo)(nil)

func newMockRepo(cars ...model.Car) *mockCarRepo {
	return &mockCarRepo{cars: cars, nextID: int64(len(cars)) + 1, calls: make(map[string]int)}
}

func (m *mockCarRepo) count(op string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls[op]++
	return m.calls[op]
}

func (m *mockCarRepo) Calls(op string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[op]
}

func (m *mockCarRepo) TotalCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		n += c
	}
	return n
}

func (m *mockCarRepo) snapshot() []model.Car {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Car, len(m.cars))
	copy(out, m.cars)
	return out
}

func (m *mockCarRepo) List(ctx context.Context) ([]model.Car, error) {
	call := m.count("list")
	if m.listHook != nil {
		return m.listHook(ctx, call)
	}
	return m.snapshot(), nil
}

func (m *mockCarRepo) GetByID(_ context.Context, id int64) (model.Car, error) {
	m.count("get")
	if m.getErr != nil {
		return model.Car{}, m.getErr
	}
	for _, c := range m.snapshot() {
		if c.ID == id {
			return c, nil
		}
	}
	return model.Car{}, apperror.Upstream(404, "Car not found")
}

func (m *mockCarRepo) Create(_ context.Context, in model.CarInput) (model.Car, error) {
	m.count("create")
	if m.saveErr != nil {
		return model.Car{}, m.saveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastInput = in
	car := carFromInput(m.nextID, in)
	m.nextID++
	m.cars = append(m.cars, car)
	return car, nil
}

func (m *mockCarRepo) Update(_ context.Context, id int64, in model.CarInput) (model.Car, error) {
	m.count("update")
	if m.saveErr != nil {
		return model.Car{}, m.saveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastInput = in
	m.lastUpdate = id
	for i, c := range m.cars {
		if c.ID == id {
			m.cars[i] = carFromInput(id, in)
			return m.cars[i], nil
		}
	}
	return model.Car{}, apperror.Upstream(404, "Car not found")
}

func (m *mockCarRepo) Delete(_ context.Context, id int64) error {
	m.count("delete")
	if m.deleteErr != nil {
		return m.deleteErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, c := range m.cars {
		if c.ID == id {
			m.cars = append(m.cars[:i], m.cars[i+1:]...)
			return nil
		}
	}
	return apperror.Upstream(404, "Car not found")
}

func carFromInput(id int64, in model.CarInput) model.Car {
	car := model.Car{ID: id, Make: in.Make, Model: in.Model, Year: in.Year, Price: in.Price, MileageKm: in.MileageKm, Color: in.Color, VIN: in.VIN}
	if in.ImageDataURL != nil {
		car.ImageDataURL = *in.ImageDataURL
	}
	return car
}

// =========================================================================
// TEST HELPERS
// =========================================================================

// stubTimer never fires, so notices stay put for the duration of a test.
type stubTimer struct{}

func (stubTimer) Stop() bool { return true }

func newTestClient(t *testing.T, repo *mockCarRepo) *Client {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	n := notify.New(notify.WithAfterFunc(func(time.Duration, func()) notify.Timer { return stubTimer{} }))
	return NewClient(repo, n, logger)
}

func twoCars() []model.Car {
	return []model.Car{
		{ID: 1, Make: "Toyota", Model: "Corolla", Year: 2018, Price: 15000, MileageKm: 60000, Color: "White", VIN: "T1"},
		{ID: 2, Make: "Honda", Model: "Civic", Year: 2020, Price: 21000, MileageKm: 30000, Color: "Black", VIN: "H1", ImageDataURL: "data:image/png;base64,AAAA"},
	}
}

func notice(c *Client) notify.Notice { return c.Notifier().Current() }

// =========================================================================
// LOAD TESTS
// =========================================================================

func TestLoadCars_Success(t *testing.T) {
	c := newTestClient(t, newMockRepo(twoCars()...))

	if err := c.LoadCars(context.Background()); err != nil {
		t.Fatalf("LoadCars() error = %v", err)
	}

	v := c.Snapshot()
	if len(v.Cars) != 2 || v.Total != 2 {
		t.Errorf("Snapshot() cars = %d total = %d, want 2/2", len(v.Cars), v.Total)
	}
	if got := strings.Join(v.Vocabulary.Makes, ","); got != "Honda,Toyota" {
		t.Errorf("Makes = %q, want %q", got, "Honda,Toyota")
	}
	if !v.Loaded {
		t.Error("Loaded = false after a successful load")
	}
}

func TestLoadCars_FilterThenClear(t *testing.T) {
	c := newTestClient(t, newMockRepo(twoCars()...))
	_ = c.LoadCars(context.Background())

	c.SetSelection(listing.Selection{Make: "Honda"})
	got := c.Visible()
	if len(got) != 1 || got[0].Make != "Honda" {
		t.Fatalf("Visible() = %+v, want only the Honda", got)
	}

	c.ClearFilters()
	if got := c.Visible(); len(got) != 2 {
		t.Errorf("Visible() after ClearFilters = %d cars, want 2", len(got))
	}
}

func TestLoadCars_FailureEmptiesListKeepsVocabulary(t *testing.T) {
	repo := newMockRepo(twoCars()...)
	c := newTestClient(t, repo)
	_ = c.LoadCars(context.Background())
	c.SetSelection(listing.Selection{Make: "Toyota", Sort: listing.SortPriceAsc})

	repo.listHook = func(context.Context, int) ([]model.Car, error) {
		return nil, apperror.Transport(errors.New("connection refused"))
	}
	err := c.LoadCars(context.Background())
	if !errors.Is(err, apperror.ErrTransport) {
		t.Fatalf("LoadCars() error = %v, want ErrTransport", err)
	}

	v := c.Snapshot()
	if len(v.Cars) != 0 {
		t.Errorf("Cars = %d, want an empty list after a failed load", len(v.Cars))
	}
	if len(v.Vocabulary.Makes) != 2 {
		t.Errorf("Makes = %v, want the previous vocabulary", v.Vocabulary.Makes)
	}
	if v.Selection.Make != "Toyota" {
		t.Errorf("Selection.Make = %q, want it kept", v.Selection.Make)
	}
	if n := notice(c); n.State != notify.ShowingError || n.Message != "Error loading cars: connection refused" {
		t.Errorf("notice = %+v", n)
	}
}

func TestLoadCars_FallbackMessage(t *testing.T) {
	repo := newMockRepo()
	repo.listHook = func(context.Context, int) ([]model.Car, error) {
		return nil, apperror.Upstream(500, "")
	}
	c := newTestClient(t, repo)
	_ = c.LoadCars(context.Background())

	if got := notice(c).Message; got != "Error loading cars: Failed to load cars" {
		t.Errorf("notice = %q", got)
	}
}

func TestLoadCars_ReconcilesSelection(t *testing.T) {
	repo := newMockRepo(twoCars()...)
	c := newTestClient(t, repo)
	_ = c.LoadCars(context.Background())
	c.SetSelection(listing.Selection{Make: "Honda", Color: "White", Sort: listing.SortYearDesc})

	// The Honda disappears server-side; White survives on the Toyota.
	repo.mu.Lock()
	repo.cars = repo.cars[:1]
	repo.mu.Unlock()
	_ = c.LoadCars(context.Background())

	sel := c.Selection()
	want := listing.Selection{Color: "White", Sort: listing.SortYearDesc}
	if sel != want {
		t.Errorf("Selection() = %+v, want %+v", sel, want)
	}
}

func TestLoadCars_OverlappingCallsShareOneRequest(t *testing.T) {
	repo := newMockRepo(twoCars()...)
	entered := make(chan struct{})
	release := make(chan struct{})
	repo.listHook = func(_ context.Context, call int) ([]model.Car, error) {
		if call == 1 {
			close(entered)
			<-release
		}
		return repo.snapshot(), nil
	}
	c := newTestClient(t, repo)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = c.LoadCars(context.Background())
	}()
	<-entered

	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = c.LoadCars(context.Background())
		}()
	}
	// Give the followers time to reach the in-flight call before it returns.
	time.Sleep(100 * time.Millisecond)
	close(release)
	wg.Wait()

	if got := repo.Calls("list"); got != 1 {
		t.Errorf("List calls = %d, want 1", got)
	}
	if got := len(c.Visible()); got != 2 {
		t.Errorf("Visible() = %d cars, want 2", got)
	}
}

func TestLoadCars_PostMutationLoadIsNotShadowedByOlderFetch(t *testing.T) {
	repo := newMockRepo(twoCars()...)
	entered := make(chan struct{})
	release := make(chan struct{})
	stale := twoCars()
	repo.listHook = func(_ context.Context, call int) ([]model.Car, error) {
		if call == 1 {
			close(entered)
			<-release
			return stale, nil
		}
		return repo.snapshot(), nil
	}
	c := newTestClient(t, repo)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = c.LoadCars(context.Background())
	}()
	<-entered

	// The delete's reload must not join the fetch that started before it.
	if err := c.Delete(context.Background(), 2, true); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	close(release)
	<-done

	if got := repo.Calls("list"); got != 2 {
		t.Errorf("List calls = %d, want 2", got)
	}
	got := c.Visible()
	if len(got) != 1 || got[0].ID != 1 {
		t.Errorf("Visible() = %+v, want only car 1 (the stale result must be dropped)", got)
	}
}

// =========================================================================
// FORM TESTS
// =========================================================================

func fillValid(c *Client) {
	c.UpdateFields(form.Fields{Make: "tesla", Model: "model 3", Year: "2022", Price: "39990", Mileage: "12000", Color: "red", VIN: "5yj3"})
}

func TestSubmit_ValidationMakesNoCall(t *testing.T) {
	tests := []struct {
		name    string
		fields  form.Fields
		wantMsg string
	}{
		{"empty make and model", form.Fields{Year: "2020", Price: "1", Mileage: "1"}, form.MsgMakeModelRequired},
		{"year below range", form.Fields{Make: "a", Model: "b", Year: "1885", Price: "1", Mileage: "1"}, form.MsgInvalidYear},
		{"year above range", form.Fields{Make: "a", Model: "b", Year: "2028", Price: "1", Mileage: "1"}, form.MsgInvalidYear},
		{"negative price", form.Fields{Make: "a", Model: "b", Year: "2000", Price: "-0.01", Mileage: "1"}, form.MsgNegativePrice},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newMockRepo()
			c := newTestClient(t, repo)
			c.UpdateFields(tt.fields)

			err := c.Submit(context.Background())
			if !errors.Is(err, apperror.ErrValidation) {
				t.Fatalf("Submit() error = %v, want ErrValidation", err)
			}
			if repo.TotalCalls() != 0 {
				t.Errorf("repository calls = %d, want 0", repo.TotalCalls())
			}
			if got := notice(c).Message; got != tt.wantMsg {
				t.Errorf("notice = %q, want %q", got, tt.wantMsg)
			}
		})
	}
}

func TestSubmit_CreateNormalizesAndReloads(t *testing.T) {
	repo := newMockRepo()
	c := newTestClient(t, repo)
	fillValid(c)

	if err := c.Submit(context.Background()); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if repo.Calls("create") != 1 || repo.Calls("list") != 1 {
		t.Errorf("calls create=%d list=%d, want 1/1", repo.Calls("create"), repo.Calls("list"))
	}
	if repo.lastInput.Make != "Tesla" || repo.lastInput.Model != "Model 3" || repo.lastInput.VIN != "5YJ3" {
		t.Errorf("sent %+v, want normalized values", repo.lastInput)
	}
	if repo.lastInput.ImageDataURL != nil {
		t.Error("imageDataUrl should be null without an image")
	}

	v := c.Snapshot()
	if v.Form.Mode != form.Create || v.Form.Fields != (form.Fields{}) {
		t.Errorf("form after submit = %+v, want a reset Create form", v.Form)
	}
	if len(v.Cars) != 1 {
		t.Errorf("Cars = %d, want the reloaded record", len(v.Cars))
	}
	if n := notice(c); n.State != notify.ShowingSuccess || n.Message != MsgCreated {
		t.Errorf("notice = %+v, want %q", n, MsgCreated)
	}
}

func TestSubmit_AfterEditReportsUpdated(t *testing.T) {
	repo := newMockRepo(twoCars()...)
	c := newTestClient(t, repo)
	_ = c.LoadCars(context.Background())

	if err := c.StartEdit(context.Background(), 2); err != nil {
		t.Fatalf("StartEdit() error = %v", err)
	}
	v := c.Snapshot()
	if v.Form.Mode != form.Edit || v.Form.Title != form.EditTitle || v.Form.EditingID != 2 {
		t.Fatalf("form = %+v, want Edit of car 2", v.Form)
	}
	if v.Form.Fields.ImageDataURL != "data:image/png;base64,AAAA" || v.Form.Fields.Price != "21000" {
		t.Errorf("fields = %+v, want every field pre-populated", v.Form.Fields)
	}

	f := v.Form.Fields
	f.Mileage = "31000"
	c.UpdateFields(f)
	if err := c.Submit(context.Background()); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	if repo.Calls("update") != 1 || repo.lastUpdate != 2 {
		t.Errorf("update calls = %d id = %d, want one PUT of car 2", repo.Calls("update"), repo.lastUpdate)
	}
	if repo.lastInput.ImageDataURL == nil || *repo.lastInput.ImageDataURL != "data:image/png;base64,AAAA" {
		t.Error("existing image was not resent on update")
	}
	if got := notice(c).Message; got != MsgUpdated {
		t.Errorf("notice = %q, want %q", got, MsgUpdated)
	}
	if c.Snapshot().Form.Mode != form.Create {
		t.Error("form did not return to Create after the update")
	}
}

func TestSubmit_FailureKeepsValues(t *testing.T) {
	repo := newMockRepo()
	repo.saveErr = apperror.Upstream(500, "Failed to create car (possible duplicate VIN)")
	c := newTestClient(t, repo)
	fillValid(c)

	if err := c.Submit(context.Background()); err == nil {
		t.Fatal("Submit() error = nil, want upstream error")
	}
	if got := notice(c).Message; got != "Error saving car: Failed to create car (possible duplicate VIN)" {
		t.Errorf("notice = %q", got)
	}
	if got := c.Snapshot().Form.Fields.Make; got != "tesla" {
		t.Errorf("Make = %q, want the unsaved value kept", got)
	}
	if repo.Calls("list") != 0 {
		t.Error("a failed save should not reload")
	}
}

func TestSubmit_ReloadFailureStillReportsSaved(t *testing.T) {
	repo := newMockRepo()
	repo.listHook = func(context.Context, int) ([]model.Car, error) {
		return nil, apperror.Upstream(500, "db busy")
	}
	c := newTestClient(t, repo)
	fillValid(c)

	if err := c.Submit(context.Background()); err != nil {
		t.Fatalf("Submit() error = %v, want nil once the record is stored", err)
	}
	if repo.Calls("create") != 1 || len(repo.snapshot()) != 1 {
		t.Fatalf("create calls = %d stored = %d, want 1/1", repo.Calls("create"), len(repo.snapshot()))
	}
	if n := notice(c); n.State != notify.ShowingSuccess || n.Message != MsgCreated {
		t.Errorf("notice = %+v, want %q", n, MsgCreated)
	}
	if c.Snapshot().Form.Mode != form.Create {
		t.Error("form should reset after a stored save")
	}
}

func TestCancelEditClearsEverything(t *testing.T) {
	c := newTestClient(t, newMockRepo(twoCars()...))
	_ = c.StartEdit(context.Background(), 2)
	c.CancelEdit()

	v := c.Snapshot()
	if v.Form.Mode != form.Create || v.Form.Fields != (form.Fields{}) || v.Form.Title != form.CreateTitle {
		t.Errorf("form after cancel = %+v", v.Form)
	}
}

func TestStartEdit_Failure(t *testing.T) {
	c := newTestClient(t, newMockRepo())
	err := c.StartEdit(context.Background(), 42)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("StartEdit() error = %v, want ErrNotFound", err)
	}
	if got := notice(c).Message; got != "Error loading car: Car not found" {
		t.Errorf("notice = %q", got)
	}
	if c.Snapshot().Form.Mode != form.Create {
		t.Error("a failed StartEdit should leave the form in Create")
	}
}

func TestStartEdit_ReplacesEarlierSession(t *testing.T) {
	c := newTestClient(t, newMockRepo(twoCars()...))
	_ = c.StartEdit(context.Background(), 1)
	_ = c.StartEdit(context.Background(), 2)
	if id := c.Snapshot().Form.EditingID; id != 2 {
		t.Errorf("EditingID = %d, want 2", id)
	}
}

// =========================================================================
// IMAGE TESTS
// =========================================================================

func TestAttachImage_OversizeKeepsHeldImage(t *testing.T) {
	c := newTestClient(t, newMockRepo())
	c.SetImage("data:image/png;base64,OLD")

	err := c.AttachImage(bytes.NewReader(nil), attachment.MaxImageBytes+1)
	if !errors.Is(err, apperror.ErrImageTooLarge) {
		t.Fatalf("AttachImage() error = %v, want ErrImageTooLarge", err)
	}
	if got := notice(c).Message; got != "Image size should be less than 5MB" {
		t.Errorf("notice = %q", got)
	}
	if got := c.Snapshot().Form.Fields.ImageDataURL; got != "data:image/png;base64,OLD" {
		t.Errorf("ImageDataURL = %q, want the old image kept", got)
	}
}

func TestAttachImage_ExactLimitAccepted(t *testing.T) {
	c := newTestClient(t, newMockRepo())
	data := make([]byte, attachment.MaxImageBytes)
	if err := c.AttachImage(bytes.NewReader(data), int64(len(data))); err != nil {
		t.Fatalf("AttachImage() error = %v", err)
	}
	if !strings.HasPrefix(c.Snapshot().Form.Fields.ImageDataURL, "data:") {
		t.Error("image was not held")
	}
}

func TestClearImageSendsNull(t *testing.T) {
	repo := newMockRepo(twoCars()...)
	c := newTestClient(t, repo)
	_ = c.StartEdit(context.Background(), 2)
	c.ClearImage()
	_ = c.Submit(context.Background())

	if repo.lastInput.ImageDataURL != nil {
		t.Error("imageDataUrl should be null after ClearImage")
	}
}

// =========================================================================
// DELETE TESTS
// =========================================================================

func TestDelete_DeclinedMakesNoCall(t *testing.T) {
	repo := newMockRepo(twoCars()...)
	c := newTestClient(t, repo)

	if err := c.Delete(context.Background(), 1, false); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if repo.TotalCalls() != 0 {
		t.Errorf("repository calls = %d, want 0", repo.TotalCalls())
	}
	if notice(c).Visible() {
		t.Error("a declined delete should not show a notice")
	}
}

func TestDelete_Success(t *testing.T) {
	repo := newMockRepo(twoCars()...)
	c := newTestClient(t, repo)
	_ = c.LoadCars(context.Background())

	if err := c.Delete(context.Background(), 1, true); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if got := len(c.Visible()); got != 1 {
		t.Errorf("Visible() = %d cars, want 1", got)
	}
	if got := notice(c).Message; got != MsgDeleted {
		t.Errorf("notice = %q, want %q", got, MsgDeleted)
	}
}

func TestDelete_ReloadFailureStillReportsDeleted(t *testing.T) {
	repo := newMockRepo(twoCars()...)
	c := newTestClient(t, repo)
	_ = c.LoadCars(context.Background())
	repo.listHook = func(context.Context, int) ([]model.Car, error) {
		return nil, apperror.Transport(errors.New("connection refused"))
	}

	if err := c.Delete(context.Background(), 1, true); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if n := notice(c); n.State != notify.ShowingSuccess || n.Message != MsgDeleted {
		t.Errorf("notice = %+v, want %q", n, MsgDeleted)
	}
}

func TestDelete_FailureUsesFallback(t *testing.T) {
	repo := newMockRepo(twoCars()...)
	repo.deleteErr = apperror.Upstream(500, "")
	c := newTestClient(t, repo)

	if err := c.Delete(context.Background(), 1, true); err == nil {
		t.Fatal("Delete() error = nil")
	}
	if got := notice(c).Message; got != "Error deleting car: Failed to delete car" {
		t.Errorf("notice = %q", got)
	}
}

// =========================================================================
// DETAIL MODAL TESTS
// =========================================================================

func TestViewDetailsAndClose(t *testing.T) {
	c := newTestClient(t, newMockRepo(twoCars()...))

	if err := c.ViewDetails(context.Background(), 2); err != nil {
		t.Fatalf("ViewDetails() error = %v", err)
	}
	if d := c.Snapshot().Detail; d == nil || d.VIN != "H1" {
		t.Fatalf("Detail = %+v, want car 2", d)
	}

	c.CloseDetails()
	if c.Snapshot().Detail != nil {
		t.Error("Detail still open after CloseDetails")
	}
}

func TestViewDetails_Failure(t *testing.T) {
	repo := newMockRepo()
	repo.getErr = apperror.Transport(errors.New("timeout"))
	c := newTestClient(t, repo)

	_ = c.ViewDetails(context.Background(), 1)
	if got := notice(c).Message; got != "Error loading car details: timeout" {
		t.Errorf("notice = %q", got)
	}
	if c.Snapshot().Detail != nil {
		t.Error("modal opened despite the failure")
	}
}

func TestEditFromDetails(t *testing.T) {
	c := newTestClient(t, newMockRepo(twoCars()...))
	_ = c.ViewDetails(context.Background(), 1)

	if err := c.EditFromDetails(context.Background(), 1); err != nil {
		t.Fatalf("EditFromDetails() error = %v", err)
	}
	v := c.Snapshot()
	if v.Detail != nil || v.Form.EditingID != 1 {
		t.Errorf("detail=%v editing=%d, want modal closed and car 1 in the form", v.Detail, v.Form.EditingID)
	}
}

func TestDeleteFromDetails_DeclinedStillCloses(t *testing.T) {
	repo := newMockRepo(twoCars()...)
	c := newTestClient(t, repo)
	_ = c.ViewDetails(context.Background(), 1)

	_ = c.DeleteFromDetails(context.Background(), 1, false)
	if c.Snapshot().Detail != nil {
		t.Error("modal still open")
	}
	if repo.Calls("delete") != 0 {
		t.Error("declined delete reached the repository")
	}
}

func TestSetSelection_UnknownValuesDropped(t *testing.T) {
	c := newTestClient(t, newMockRepo(twoCars()...))
	_ = c.LoadCars(context.Background())

	c.SetSelection(listing.Selection{Make: "Lada", Model: "Civic", Sort: "weird"})
	want := listing.Selection{Model: "Civic"}
	if got := c.Selection(); got != want {
		t.Errorf("Selection() = %+v, want %+v", got, want)
	}
}

func TestFilterUsesSelectionAsGiven(t *testing.T) {
	c := newTestClient(t, newMockRepo(twoCars()...))
	_ = c.LoadCars(context.Background())
	c.SetSelection(listing.Selection{Make: "Honda"})

	if got := c.Filter(listing.Selection{Make: "Lada"}); len(got) != 0 {
		t.Errorf("Filter(Lada) = %d cars, want none", len(got))
	}
	got := c.Filter(listing.Selection{Make: "Toyota"})
	if len(got) != 1 || got[0].ID != 1 {
		t.Errorf("Filter(Toyota) = %+v, want car 1", got)
	}
	if sel := c.Selection(); sel.Make != "Honda" {
		t.Errorf("Selection() = %+v, Filter must not change it", sel)
	}
}

func TestCarReadsCacheOnly(t *testing.T) {
	repo := newMockRepo(twoCars()...)
	c := newTestClient(t, repo)

	if _, ok := c.Car(2); ok {
		t.Error("Car(2) found a record before any load")
	}

	_ = c.LoadCars(context.Background())
	before := repo.TotalCalls()

	car, ok := c.Car(2)
	if !ok || car.Make != "Honda" {
		t.Errorf("Car(2) = %+v, %v, want the Honda", car, ok)
	}
	if _, ok := c.Car(99); ok {
		t.Error("Car(99) found a record that is not cached")
	}
	if repo.TotalCalls() != before {
		t.Error("Car() reached the repository")
	}
}

func TestGetLeavesBannerAndModalAlone(t *testing.T) {
	repo := newMockRepo(twoCars()...)
	c := newTestClient(t, repo)

	car, err := c.Get(context.Background(), 1)
	if err != nil || car.Make != "Toyota" {
		t.Fatalf("Get(1) = %+v, %v, want the Toyota", car, err)
	}

	_, err = c.Get(context.Background(), 99)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("Get(99) error = %v, want ErrNotFound", err)
	}
	if n := notice(c); n.Visible() {
		t.Errorf("Get() showed a notice: %+v", n)
	}
	if c.Snapshot().Detail != nil {
		t.Error("Get() opened the modal")
	}
}
