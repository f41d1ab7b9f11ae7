// Package render turns car records into what the front ends draw: card and
// detail view models with en-US formatted numbers, the HTML page (html/template,
// embedded), and plain-terminal text for the CLI and TUI.
package render

import (
	"html/template"
	"math"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/sakif/car-listing/internal/attachment"
	"github.com/sakif/car-listing/internal/model"
)

// NoResultsMessage replaces the card list when nothing matches.
const NoResultsMessage = "No cars match your filters. Try adjusting your search criteria or add a new car listing."

// NotAvailable stands in for a missing date.
const NotAvailable = "N/A"

// dateLayout is the en-US short date, e.g. 3/5/2024.
const dateLayout = "1/2/2006"

// FormatPrice renders a price with en-US grouping and at most three decimals:
// 25000.5 → "$25,000.5".
func FormatPrice(price float64) string {
	return "$" + formatNumber(price)
}

// FormatMileage renders a distance: 120000 → "120,000 km".
func FormatMileage(km int) string {
	return humanize.Comma(int64(km)) + " km"
}

// FormatDate renders a server timestamp as M/D/YYYY, or N/A when absent.
func FormatDate(ts model.Timestamp) string {
	if ts.IsZero() {
		return NotAvailable
	}
	return ts.Format(dateLayout)
}

func formatNumber(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "0"
	}
	return humanize.Commaf(math.Round(v*1000) / 1000)
}

var htmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#039;",
)

// EscapeHTML replaces the five HTML-significant characters with entities.
// Templates escape on their own; this is for hand-built snippets.
func EscapeHTML(s string) string {
	return htmlEscaper.Replace(s)
}

// ImageSrc returns url as a trusted template.URL if it is an image data URL,
// and "" otherwise. Nothing else is ever placed in an <img src>.
func ImageSrc(url string) template.URL {
	if !attachment.IsImageDataURL(url) {
		return ""
	}
	return template.URL(url)
}

// CardView is one entry in the card list.
type CardView struct {
	ID       int64
	Title    string
	Make     string
	Model    string
	Year     int
	Price    string
	Mileage  string
	Color    string
	ImageSrc template.URL
}

// HasImage reports whether the card shows a picture.
func (c CardView) HasImage() bool { return c.ImageSrc != "" }

// Card builds the view model for one record.
func Card(car model.Car) CardView {
	return CardView{
		ID:       car.ID,
		Title:    car.Title(),
		Make:     car.Make,
		Model:    car.Model,
		Year:     car.Year,
		Price:    FormatPrice(car.Price),
		Mileage:  FormatMileage(car.MileageKm),
		Color:    car.Color,
		ImageSrc: ImageSrc(car.ImageDataURL),
	}
}

// Cards builds one card per record, in order.
func Cards(cars []model.Car) []CardView {
	out := make([]CardView, 0, len(cars))
	for _, c := range cars {
		out = append(out, Card(c))
	}
	return out
}

// Detail is the content of the detail modal.
type Detail struct {
	CardView
	VIN     string
	Listed  string
	Updated string
}

// DetailView builds the modal content for car.
func DetailView(car model.Car) Detail {
	return Detail{
		CardView: Card(car),
		VIN:      car.VIN,
		Listed:   FormatDate(car.CreatedAt),
		Updated:  FormatDate(car.UpdatedAt),
	}
}

// CardsHTML renders the list as a standalone HTML fragment, one
// <div class="car-card"> per record, for export from the CLI.
func CardsHTML(cars []model.Car) string {
	if len(cars) == 0 {
		return `<p class="no-cars">` + EscapeHTML(NoResultsMessage) + "</p>\n"
	}
	var b strings.Builder
	for _, car := range cars {
		c := Card(car)
		b.WriteString(`<div class="car-card">` + "\n")
		b.WriteString(`  <div class="car-header"><h3>` + EscapeHTML(c.Make) + " " + EscapeHTML(c.Model) + `</h3><span class="car-year">` + EscapeHTML(strconv.Itoa(c.Year)) + "</span></div>\n")
		b.WriteString(`  <div class="car-details">` + "\n")
		b.WriteString(`    <p><strong>Price:</strong> ` + EscapeHTML(c.Price) + "</p>\n")
		b.WriteString(`    <p><strong>Mileage:</strong> ` + EscapeHTML(c.Mileage) + "</p>\n")
		if c.Color != "" {
			b.WriteString(`    <p><strong>Color:</strong> ` + EscapeHTML(c.Color) + "</p>\n")
		}
		if c.HasImage() {
			b.WriteString(`    <img src="` + EscapeHTML(string(c.ImageSrc)) + `" alt="Car image">` + "\n")
		}
		b.WriteString("  </div>\n</div>\n")
	}
	return b.String()
}
