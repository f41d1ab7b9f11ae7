// Package listing is the pure filter/sort engine behind the car list.
//
// Nothing here touches the network or holds state: Apply takes the cached
// collection plus the user's Selection and returns a new slice, so it is safe
// to call from any goroutine on a snapshot of the cache.
package listing

import (
	"slices"
	"sort"

	"github.com/sakif/car-listing/internal/model"
)

// SortKey names one of the supported orderings. The zero value keeps the
// order the API returned.
type SortKey string

const (
	SortNone        SortKey = ""
	SortPriceAsc    SortKey = "price-asc"
	SortPriceDesc   SortKey = "price-desc"
	SortYearAsc     SortKey = "year-asc"
	SortYearDesc    SortKey = "year-desc"
	SortMileageAsc  SortKey = "mileage-asc"
	SortMileageDesc SortKey = "mileage-desc"
)

// SortOption pairs a key with the label shown in the sort dropdown.
type SortOption struct {
	Key   SortKey
	Label string
}

var sortOptions = []SortOption{
	{SortNone, "Default"},
	{SortPriceAsc, "Price: Low to High"},
	{SortPriceDesc, "Price: High to Low"},
	{SortYearAsc, "Year: Old to New"},
	{SortYearDesc, "Year: New to Old"},
	{SortMileageAsc, "Mileage: Low to High"},
	{SortMileageDesc, "Mileage: High to Low"},
}

// SortOptions returns the sort choices in display order.
func SortOptions() []SortOption {
	return slices.Clone(sortOptions)
}

// ParseSortKey maps a form value onto a SortKey. Anything unrecognised means
// "no sort".
func ParseSortKey(s string) SortKey {
	for _, o := range sortOptions {
		if string(o.Key) == s {
			return o.Key
		}
	}
	return SortNone
}

// Selection is the user's current filter and sort choice. An empty field means
// "no constraint".
type Selection struct {
	Make  string  `json:"make"`
	Model string  `json:"model"`
	Color string  `json:"color"`
	Sort  SortKey `json:"sort"`
}

// Matches reports whether car satisfies every non-empty filter in s.
func (s Selection) Matches(car model.Car) bool {
	if s.Make != "" && car.Make != s.Make {
		return false
	}
	if s.Model != "" && car.Model != s.Model {
		return false
	}
	if s.Color != "" && car.Color != s.Color {
		return false
	}
	return true
}

// Apply filters cars by sel and sorts the survivors by sel.Sort. The input is
// never modified. Sorting is stable, so ties keep the API's order.
func Apply(cars []model.Car, sel Selection) []model.Car {
	out := make([]model.Car, 0, len(cars))
	for _, c := range cars {
		if sel.Matches(c) {
			out = append(out, c)
		}
	}

	less := lessFunc(sel.Sort)
	if less != nil {
		sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
	}
	return out
}

func lessFunc(key SortKey) func(a, b model.Car) bool {
	switch key {
	case SortPriceAsc:
		return func(a, b model.Car) bool { return a.Price < b.Price }
	case SortPriceDesc:
		return func(a, b model.Car) bool { return a.Price > b.Price }
	case SortYearAsc:
		return func(a, b model.Car) bool { return a.Year < b.Year }
	case SortYearDesc:
		return func(a, b model.Car) bool { return a.Year > b.Year }
	case SortMileageAsc:
		return func(a, b model.Car) bool { return a.MileageKm < b.MileageKm }
	case SortMileageDesc:
		return func(a, b model.Car) bool { return a.MileageKm > b.MileageKm }
	default:
		return nil
	}
}

// Vocabulary holds the distinct values offered by each filter dropdown.
type Vocabulary struct {
	Makes  []string `json:"makes"`
	Models []string `json:"models"`
	Colors []string `json:"colors"`
}

// BuildVocabulary collects the distinct non-empty makes, models and colors in
// cars, each sorted lexicographically.
func BuildVocabulary(cars []model.Car) Vocabulary {
	return Vocabulary{
		Makes:  distinct(cars, func(c model.Car) string { return c.Make }),
		Models: distinct(cars, func(c model.Car) string { return c.Model }),
		Colors: distinct(cars, func(c model.Car) string { return c.Color }),
	}
}

func distinct(cars []model.Car, field func(model.Car) string) []string {
	seen := make(map[string]struct{}, len(cars))
	out := []string{}
	for _, c := range cars {
		v := field(c)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	slices.Sort(out)
	return out
}

// Reconcile keeps each selected filter value that still appears in v and resets
// the rest to "no constraint". The sort key is left alone.
func (v Vocabulary) Reconcile(sel Selection) Selection {
	if !slices.Contains(v.Makes, sel.Make) {
		sel.Make = ""
	}
	if !slices.Contains(v.Models, sel.Model) {
		sel.Model = ""
	}
	if !slices.Contains(v.Colors, sel.Color) {
		sel.Color = ""
	}
	return sel
}
