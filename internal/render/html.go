package render

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"

	"github.com/sakif/car-listing/internal/form"
	"github.com/sakif/car-listing/internal/listing"
	"github.com/sakif/car-listing/internal/notify"
	"github.com/sakif/car-listing/internal/service"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// PageTitle is the <title> of every page.
const PageTitle = "Car Listings"

// Option is one <option> in a dropdown.
type Option struct {
	Value    string
	Label    string
	Selected bool
}

// FormView is the create/edit form as the template draws it.
type FormView struct {
	Title        string
	Editing      bool
	EditingID    int64
	SubmitLabel  string
	Fields       form.Fields
	ImagePreview template.URL
}

// Filters holds the three filter dropdowns and the sort dropdown.
type Filters struct {
	Makes  []Option
	Models []Option
	Colors []Option
	Sorts  []Option
}

// PageData is everything the index page template reads.
type PageData struct {
	Title     string
	Notice    notify.Notice
	Form      FormView
	Filters   Filters
	Cards     []CardView
	NoResults string
	Total     int
	Detail    *Detail
}

// ConfirmData drives the delete confirmation page.
type ConfirmData struct {
	Title string
	Card  CardView
}

// NewPage builds PageData from a client snapshot.
func NewPage(v service.View) PageData {
	p := PageData{
		Title:  PageTitle,
		Notice: v.Notice,
		Form: FormView{
			Title:        v.Form.Title,
			Editing:      v.Form.Mode == form.Edit,
			EditingID:    v.Form.EditingID,
			SubmitLabel:  submitLabel(v.Form.Mode),
			Fields:       v.Form.Fields,
			ImagePreview: ImageSrc(v.Form.Fields.ImageDataURL),
		},
		Filters: Filters{
			Makes:  options(v.Vocabulary.Makes, v.Selection.Make),
			Models: options(v.Vocabulary.Models, v.Selection.Model),
			Colors: options(v.Vocabulary.Colors, v.Selection.Color),
			Sorts:  sortOptions(v.Selection.Sort),
		},
		Cards: Cards(v.Cars),
		Total: v.Total,
	}
	if len(p.Cards) == 0 {
		p.NoResults = NoResultsMessage
	}
	if v.Detail != nil {
		d := DetailView(*v.Detail)
		p.Detail = &d
	}
	return p
}

func submitLabel(m form.Mode) string {
	if m == form.Edit {
		return "Update Car"
	}
	return "Add Car"
}

func options(values []string, selected string) []Option {
	out := make([]Option, 0, len(values))
	for _, v := range values {
		out = append(out, Option{Value: v, Label: v, Selected: v == selected})
	}
	return out
}

func sortOptions(selected listing.SortKey) []Option {
	opts := listing.SortOptions()
	out := make([]Option, 0, len(opts))
	for _, o := range opts {
		out = append(out, Option{Value: string(o.Key), Label: o.Label, Selected: o.Key == selected})
	}
	return out
}

// Renderer executes the embedded templates. Parse once at startup and share.
type Renderer struct {
	page    *template.Template
	confirm *template.Template
}

// NewRenderer parses the embedded templates.
func NewRenderer() (*Renderer, error) {
	page, err := template.ParseFS(templateFS, "templates/base.html", "templates/index.html")
	if err != nil {
		return nil, fmt.Errorf("parse index templates: %w", err)
	}
	confirm, err := template.ParseFS(templateFS, "templates/base.html", "templates/confirm.html")
	if err != nil {
		return nil, fmt.Errorf("parse confirm templates: %w", err)
	}
	return &Renderer{page: page, confirm: confirm}, nil
}

// Page writes the index page.
func (r *Renderer) Page(w io.Writer, data PageData) error {
	return r.page.ExecuteTemplate(w, "base", data)
}

// ConfirmDelete writes the deletion confirmation page.
func (r *Renderer) ConfirmDelete(w io.Writer, data ConfirmData) error {
	if data.Title == "" {
		data.Title = PageTitle
	}
	return r.confirm.ExecuteTemplate(w, "base", data)
}

// Static returns the embedded assets rooted so that "style.css" is at the top.
func Static() fs.FS {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		// fs.Sub only fails on an invalid path, and "static" is a constant.
		panic(err)
	}
	return sub
}
