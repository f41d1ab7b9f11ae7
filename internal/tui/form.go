package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/sakif/car-listing/internal/form"
	"github.com/sakif/car-listing/internal/render"
	"github.com/sakif/car-listing/internal/service"
)

// Input order on screen; tab walks it, shift+tab walks it back.
const (
	inMake = iota
	inModel
	inYear
	inPrice
	inMileage
	inColor
	inVIN
	inImage
	inputCount
)

var inputLabels = [inputCount]string{"Make", "Model", "Year", "Price", "Mileage (km)", "Color", "VIN", "Image file"}

// formModel is the text inputs of the create/edit form. The service.Client
// owns the real form state; these inputs only hold what is being typed.
type formModel struct {
	inputs [inputCount]textinput.Model
	focus  int
}

func newFormModel() formModel {
	var f formModel
	for i := range f.inputs {
		ti := textinput.New()
		ti.Prompt = ""
		ti.CharLimit = 64
		f.inputs[i] = ti
	}
	f.inputs[inImage].CharLimit = 1024
	f.inputs[inImage].Placeholder = "path to a JPEG/PNG, max 5MB"
	return f
}

// load fills the inputs from the client's form and focuses the first one.
// The image input starts empty: the held image is shown, not its path.
func (f *formModel) load(fields form.Fields) tea.Cmd {
	values := [inputCount]string{
		fields.Make, fields.Model, fields.Year, fields.Price,
		fields.Mileage, fields.Color, fields.VIN, "",
	}
	for i := range f.inputs {
		f.inputs[i].SetValue(values[i])
	}
	return f.setFocus(0)
}

func (f *formModel) setFocus(i int) tea.Cmd {
	f.focus = (i + inputCount) % inputCount
	for j := range f.inputs {
		f.inputs[j].Blur()
	}
	return f.inputs[f.focus].Focus()
}

// fields returns the typed text. The image is handled separately.
func (f formModel) fields() form.Fields {
	return form.Fields{
		Make:    f.inputs[inMake].Value(),
		Model:   f.inputs[inModel].Value(),
		Year:    f.inputs[inYear].Value(),
		Price:   f.inputs[inPrice].Value(),
		Mileage: f.inputs[inMileage].Value(),
		Color:   f.inputs[inColor].Value(),
		VIN:     f.inputs[inVIN].Value(),
	}
}

func (f formModel) imagePath() string {
	return strings.TrimSpace(f.inputs[inImage].Value())
}

func (f *formModel) clearImagePath() {
	f.inputs[inImage].SetValue("")
}

func (f formModel) update(msg tea.Msg) (formModel, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "tab", "down":
			return f, f.setFocus(f.focus + 1)
		case "shift+tab", "up":
			return f, f.setFocus(f.focus - 1)
		}
	}
	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return f, cmd
}

func (f formModel) view(state service.FormState, st render.Styles) string {
	var b strings.Builder
	b.WriteString(st.Title.Render(state.Title) + "\n\n")
	for i := range f.inputs {
		marker := "  "
		if i == f.focus {
			marker = "> "
		}
		fmt.Fprintf(&b, "%s%-13s %s\n", marker, st.Label.Render(inputLabels[i]), f.inputs[i].View())
	}
	held := "none"
	if state.Fields.ImageDataURL != "" {
		held = "attached"
	}
	fmt.Fprintf(&b, "  %-13s %s\n", st.Label.Render("Held image"), held)
	b.WriteString("\n" + st.Help.Render("tab/shift+tab move • ctrl+s save • ctrl+x remove image • esc cancel"))
	return b.String()
}
