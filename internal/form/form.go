// Package form holds the create/edit form: the raw field values as the user
// typed them, which record (if any) is being edited, and the rules that turn
// those values into a request body for the cars API.
package form

import (
	"math"
	"strconv"
	"strings"

	"github.com/sakif/car-listing/internal/apperror"
	"github.com/sakif/car-listing/internal/model"
	"github.com/sakif/car-listing/internal/normalize"
)

// Titles shown above the form.
const (
	CreateTitle = "Add New Car"
	EditTitle   = "Edit Car Listing"
)

// Validation messages.
const (
	MsgMakeModelRequired = "Make and Model are required"
	MsgInvalidYear       = "Please enter a valid year"
	MsgInvalidPrice      = "Please enter a valid price"
	MsgNegativePrice     = "Price cannot be negative"
	MsgInvalidMileage    = "Please enter a valid mileage"
)

// Mode is Create or Edit.
type Mode int

const (
	Create Mode = iota
	Edit
)

func (m Mode) String() string {
	if m == Edit {
		return "edit"
	}
	return "create"
}

// Fields are the form inputs exactly as entered. ImageDataURL is the encoded
// image currently held, empty when there is none.
type Fields struct {
	Make         string `json:"make"`
	Model        string `json:"model"`
	Year         string `json:"year"`
	Price        string `json:"price"`
	Mileage      string `json:"mileage"`
	Color        string `json:"color"`
	VIN          string `json:"vin"`
	ImageDataURL string `json:"imageDataUrl,omitempty"`
}

// FieldsFromCar fills every input from an existing record, image included.
func FieldsFromCar(car model.Car) Fields {
	return Fields{
		Make:         car.Make,
		Model:        car.Model,
		Year:         strconv.Itoa(car.Year),
		Price:        strconv.FormatFloat(car.Price, 'f', -1, 64),
		Mileage:      strconv.Itoa(car.MileageKm),
		Color:        car.Color,
		VIN:          car.VIN,
		ImageDataURL: car.ImageDataURL,
	}
}

// Build normalizes and validates f. Checks run in a fixed order and the first
// failure is returned as an apperror.ErrValidation.
func Build(f Fields) (model.CarInput, error) {
	in := model.CarInput{
		Make:  normalize.Text(f.Make),
		Model: normalize.Text(f.Model),
		Color: normalize.Text(f.Color),
		VIN:   normalize.UpperCase(f.VIN),
	}
	if f.ImageDataURL != "" {
		img := f.ImageDataURL
		in.ImageDataURL = &img
	}

	if in.Make == "" || in.Model == "" {
		return model.CarInput{}, apperror.ValidationFailed("make", MsgMakeModelRequired)
	}

	year, err := strconv.Atoi(strings.TrimSpace(f.Year))
	if err != nil || year < model.MinYear || year > model.MaxYear {
		return model.CarInput{}, apperror.ValidationFailed("year", MsgInvalidYear)
	}
	in.Year = year

	price, err := strconv.ParseFloat(strings.TrimSpace(f.Price), 64)
	if err != nil || math.IsNaN(price) || math.IsInf(price, 0) {
		return model.CarInput{}, apperror.ValidationFailed("price", MsgInvalidPrice)
	}
	if price < 0 {
		return model.CarInput{}, apperror.ValidationFailed("price", MsgNegativePrice)
	}
	in.Price = price

	mileage, err := strconv.Atoi(strings.TrimSpace(f.Mileage))
	if err != nil {
		return model.CarInput{}, apperror.ValidationFailed("mileage", MsgInvalidMileage)
	}
	in.MileageKm = mileage

	return in, nil
}

// Controller is the two-state form. The zero value is an empty form in Create
// mode. It is not safe for concurrent use; service.Client guards it.
type Controller struct {
	editingID int64
	editing   bool
	fields    Fields
}

// Mode reports Create or Edit.
func (c *Controller) Mode() Mode {
	if c.editing {
		return Edit
	}
	return Create
}

// EditingID returns the id being edited and whether there is one.
func (c *Controller) EditingID() (int64, bool) {
	return c.editingID, c.editing
}

// Title is the heading for the current mode.
func (c *Controller) Title() string {
	if c.editing {
		return EditTitle
	}
	return CreateTitle
}

// Fields returns a copy of the current inputs.
func (c *Controller) Fields() Fields {
	return c.fields
}

// SetFields replaces the text inputs. The held image is not touched; use
// SetImage and ClearImage for that.
func (c *Controller) SetFields(f Fields) {
	img := c.fields.ImageDataURL
	c.fields = f
	c.fields.ImageDataURL = img
}

// SetImage holds an encoded image until the next submit or reset.
func (c *Controller) SetImage(dataURL string) {
	c.fields.ImageDataURL = dataURL
}

// ClearImage drops the held image. The next submit sends null.
func (c *Controller) ClearImage() {
	c.fields.ImageDataURL = ""
}

// BeginEdit loads car into the form and enters Edit, replacing any earlier
// edit session.
func (c *Controller) BeginEdit(car model.Car) {
	c.editingID = car.ID
	c.editing = true
	c.fields = FieldsFromCar(car)
}

// Reset returns to Create with every field and the image cleared.
func (c *Controller) Reset() {
	*c = Controller{}
}

// Build validates the current inputs.
func (c *Controller) Build() (model.CarInput, error) {
	return Build(c.fields)
}
