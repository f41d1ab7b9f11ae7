// Package model defines the data structures used throughout the application.
// In Go, we use structs to represent our data. They are similar to classes in other
// languages, but without inheritance: Go favours composition over inheritance.
//
// The `json:"..."` tags tell encoding/json how a field maps onto the cars API's
// camelCase wire format, so decoding a GET /api/cars response is one call:
//
//	var cars []model.Car
//	json.NewDecoder(resp.Body).Decode(&cars)
package model

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"
)

// Year bounds accepted by the listing form. Both ends are inclusive.
const (
	MinYear = 1886
	MaxYear = 2027
)

// Car is a single listing as the cars API returns it.
//
// The API owns every record: IDs and timestamps are assigned server-side and the
// client only mirrors them. Color and VIN are optional and may come back as null,
// which decodes to the empty string.
type Car struct {
	ID           int64     `json:"id"`
	Make         string    `json:"make"`
	Model        string    `json:"model"`
	Year         int       `json:"year"`
	Price        float64   `json:"price"`
	MileageKm    int       `json:"mileageKm"`
	Color        string    `json:"color"`
	VIN          string    `json:"vin"`
	ImageDataURL string    `json:"imageDataUrl"`
	CreatedAt    Timestamp `json:"createdAt"`
	UpdatedAt    Timestamp `json:"updatedAt"`
}

// CarInput is the JSON body sent on POST and PUT.
//
// ImageDataURL is a pointer so that "no image" is sent as an explicit null:
// on update that clears any image the server is holding.
type CarInput struct {
	Make         string  `json:"make"`
	Model        string  `json:"model"`
	Year         int     `json:"year"`
	Price        float64 `json:"price"`
	MileageKm    int     `json:"mileageKm"`
	Color        string  `json:"color"`
	VIN          string  `json:"vin"`
	ImageDataURL *string `json:"imageDataUrl"`
}

// Title returns "Make Model", the heading used on cards and in the detail view.
func (c Car) Title() string {
	return strings.TrimSpace(c.Make + " " + c.Model)
}

// sqlTimestampLayout is how the cars API formats created_at/updated_at.
const sqlTimestampLayout = "2006-01-02 15:04:05"

// timestampLayouts are tried in order. Layouts without a zone are read as UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	sqlTimestampLayout,
	"2006-01-02T15:04:05",
	time.DateOnly,
}

// Timestamp is a server-assigned time. It accepts RFC 3339, ISO 8601 without a
// zone, "YYYY-MM-DD HH:MM:SS", a bare date, Unix seconds or milliseconds, the
// empty string and null. The zero value means "not provided".
//
// A value that fits none of these decodes as zero and is displayed as N/A.
type Timestamp struct {
	time.Time
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Timestamp) UnmarshalJSON(b []byte) error {
	t.Time = time.Time{}
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}

	if b[0] != '"' {
		var n json.Number
		if err := json.Unmarshal(b, &n); err == nil {
			t.Time = fromEpoch(n)
		}
		return nil
	}

	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return nil
	}
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return nil
}

// epochMillisThreshold separates Unix seconds from milliseconds: seconds do
// not reach it until the year 33658.
const epochMillisThreshold = 1e12

func fromEpoch(n json.Number) time.Time {
	v, err := n.Int64()
	if err != nil {
		f, ferr := n.Float64()
		if ferr != nil {
			return time.Time{}
		}
		v = int64(f)
	}
	if v <= 0 {
		return time.Time{}
	}
	if v >= epochMillisThreshold {
		return time.UnixMilli(v).UTC()
	}
	return time.Unix(v, 0).UTC()
}

// MarshalJSON implements json.Marshaler. Zero timestamps encode as "".
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte(`""`), nil
	}
	return json.Marshal(t.Format(sqlTimestampLayout))
}
