package listing

import (
	"slices"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/sakif/car-listing/internal/model"
)

func fixture() []model.Car {
	return []model.Car{
		{ID: 1, Make: "Toyota", Model: "Corolla", Year: 2018, Price: 15000, MileageKm: 60000, Color: "White"},
		{ID: 2, Make: "Honda", Model: "Civic", Year: 2020, Price: 21000, MileageKm: 30000, Color: "Black"},
		{ID: 3, Make: "Toyota", Model: "Camry", Year: 2015, Price: 12000, MileageKm: 90000, Color: ""},
		{ID: 4, Make: "Ford", Model: "Focus", Year: 2020, Price: 15000, MileageKm: 45000, Color: "White"},
	}
}

func ids(cars []model.Car) []int64 {
	out := make([]int64, len(cars))
	for i, c := range cars {
		out[i] = c.ID
	}
	return out
}

func TestApply(t *testing.T) {
	tests := []struct {
		name string
		sel  Selection
		want []int64
	}{
		{name: "no selection keeps insertion order", sel: Selection{}, want: []int64{1, 2, 3, 4}},
		{name: "filter by make", sel: Selection{Make: "Toyota"}, want: []int64{1, 3}},
		{name: "filters are conjunctive", sel: Selection{Make: "Toyota", Model: "Camry"}, want: []int64{3}},
		{name: "filter by color", sel: Selection{Color: "White"}, want: []int64{1, 4}},
		{name: "no match", sel: Selection{Make: "Honda", Color: "White"}, want: []int64{}},
		{name: "price ascending is stable on ties", sel: Selection{Sort: SortPriceAsc}, want: []int64{3, 1, 4, 2}},
		{name: "price descending", sel: Selection{Sort: SortPriceDesc}, want: []int64{2, 1, 4, 3}},
		{name: "year ascending", sel: Selection{Sort: SortYearAsc}, want: []int64{3, 1, 2, 4}},
		{name: "year descending is stable on ties", sel: Selection{Sort: SortYearDesc}, want: []int64{2, 4, 1, 3}},
		{name: "mileage ascending", sel: Selection{Sort: SortMileageAsc}, want: []int64{2, 4, 1, 3}},
		{name: "mileage descending", sel: Selection{Sort: SortMileageDesc}, want: []int64{3, 1, 4, 2}},
		{name: "unknown sort keeps order", sel: Selection{Sort: "colour-asc"}, want: []int64{1, 2, 3, 4}},
		{name: "filter then sort", sel: Selection{Color: "White", Sort: SortYearDesc}, want: []int64{4, 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ids(Apply(fixture(), tt.sel))
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Apply() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDescendingReversesAscendingOnDistinctKeys(t *testing.T) {
	distinctKeys := []model.Car{
		{ID: 1, Year: 2018, Price: 15000, MileageKm: 60000},
		{ID: 2, Year: 2021, Price: 21000, MileageKm: 30000},
		{ID: 3, Year: 2015, Price: 12000, MileageKm: 90000},
		{ID: 4, Year: 2019, Price: 17500, MileageKm: 45000},
	}
	pairs := []struct{ asc, desc SortKey }{
		{SortPriceAsc, SortPriceDesc},
		{SortYearAsc, SortYearDesc},
		{SortMileageAsc, SortMileageDesc},
	}
	for _, p := range pairs {
		t.Run(string(p.asc), func(t *testing.T) {
			asc := ids(Apply(distinctKeys, Selection{Sort: p.asc}))
			desc := ids(Apply(distinctKeys, Selection{Sort: p.desc}))
			slices.Reverse(asc)
			if diff := cmp.Diff(asc, desc); diff != "" {
				t.Errorf("%s is not the reverse of %s (-reversed asc +desc):\n%s", p.desc, p.asc, diff)
			}
		})
	}
}

// Ties keep insertion order in both directions, so with equal keys the
// descending order is not the mirror image of the ascending one.
func TestTiesKeepInsertionOrderBothWays(t *testing.T) {
	asc := ids(Apply(fixture(), Selection{Sort: SortPriceAsc}))
	desc := ids(Apply(fixture(), Selection{Sort: SortPriceDesc}))

	if diff := cmp.Diff([]int64{3, 1, 4, 2}, asc); diff != "" {
		t.Errorf("price-asc mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int64{2, 1, 4, 3}, desc); diff != "" {
		t.Errorf("price-desc mismatch (-want +got):\n%s", diff)
	}
}

func TestApplyDoesNotMutateInput(t *testing.T) {
	cars := fixture()
	before := fixture()
	_ = Apply(cars, Selection{Sort: SortPriceDesc})
	if diff := cmp.Diff(before, cars); diff != "" {
		t.Errorf("Apply() mutated input (-before +after):\n%s", diff)
	}
}

func TestApplyIsSubset(t *testing.T) {
	cars := fixture()
	sel := Selection{Make: "Toyota", Sort: SortMileageAsc}
	got := Apply(cars, sel)
	for _, c := range got {
		if !sel.Matches(c) {
			t.Errorf("Apply() returned car %d that does not match %+v", c.ID, sel)
		}
	}
	// Every matching car is present exactly once.
	if len(got) != 2 {
		t.Errorf("len(Apply()) = %d, want 2", len(got))
	}
}

func TestBuildVocabulary(t *testing.T) {
	got := BuildVocabulary(fixture())
	want := Vocabulary{
		Makes:  []string{"Ford", "Honda", "Toyota"},
		Models: []string{"Camry", "Civic", "Corolla", "Focus"},
		Colors: []string{"Black", "White"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("BuildVocabulary() mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildVocabularyEmpty(t *testing.T) {
	got := BuildVocabulary(nil)
	want := Vocabulary{Makes: []string{}, Models: []string{}, Colors: []string{}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("BuildVocabulary(nil) mismatch (-want +got):\n%s", diff)
	}
}

func TestReconcile(t *testing.T) {
	vocab := BuildVocabulary(fixture())
	tests := []struct {
		name string
		sel  Selection
		want Selection
	}{
		{
			name: "surviving values are kept",
			sel:  Selection{Make: "Honda", Color: "Black", Sort: SortPriceAsc},
			want: Selection{Make: "Honda", Color: "Black", Sort: SortPriceAsc},
		},
		{
			name: "vanished value is reset, sort untouched",
			sel:  Selection{Make: "Tesla", Model: "Civic", Sort: SortYearDesc},
			want: Selection{Model: "Civic", Sort: SortYearDesc},
		},
		{
			name: "empty stays empty",
			sel:  Selection{},
			want: Selection{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, vocab.Reconcile(tt.sel)); diff != "" {
				t.Errorf("Reconcile() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseSortKey(t *testing.T) {
	tests := map[string]SortKey{
		"price-asc":    SortPriceAsc,
		"mileage-desc": SortMileageDesc,
		"":             SortNone,
		"bogus":        SortNone,
	}
	for in, want := range tests {
		if got := ParseSortKey(in); got != want {
			t.Errorf("ParseSortKey(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSortOptions(t *testing.T) {
	opts := SortOptions()
	if len(opts) != 7 {
		t.Fatalf("len(SortOptions()) = %d, want 7", len(opts))
	}
	if opts[0].Key != SortNone {
		t.Errorf("first option = %q, want the default ordering", opts[0].Key)
	}
	opts[1].Label = "changed"
	if SortOptions()[1].Label == "changed" {
		t.Error("SortOptions() returned shared backing storage")
	}
}
