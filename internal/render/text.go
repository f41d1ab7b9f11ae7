package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/sakif/car-listing/internal/model"
	"github.com/sakif/car-listing/internal/notify"
)

// Palette for terminal output.
var (
	ColorPrimary = lipgloss.Color("#1F3A5F")
	ColorAccent  = lipgloss.Color("#F0AD4E")
	ColorMuted   = lipgloss.Color("#888888")
	ColorError   = lipgloss.Color("#D9534F")
	ColorSuccess = lipgloss.Color("#5CB85C")
)

// Styles groups the lipgloss styles shared by the CLI and the TUI.
type Styles struct {
	Title    lipgloss.Style
	Year     lipgloss.Style
	Label    lipgloss.Style
	Muted    lipgloss.Style
	Card     lipgloss.Style
	Selected lipgloss.Style
	Error    lipgloss.Style
	Success  lipgloss.Style
	Help     lipgloss.Style
}

// DefaultStyles returns the standard terminal styles.
func DefaultStyles() Styles {
	return Styles{
		Title:    lipgloss.NewStyle().Bold(true).Foreground(ColorPrimary),
		Year:     lipgloss.NewStyle().Foreground(ColorMuted),
		Label:    lipgloss.NewStyle().Bold(true),
		Muted:    lipgloss.NewStyle().Foreground(ColorMuted),
		Card:     lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(ColorMuted).Padding(0, 1),
		Selected: lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(ColorAccent).Padding(0, 1),
		Error:    lipgloss.NewStyle().Bold(true).Foreground(ColorError),
		Success:  lipgloss.NewStyle().Bold(true).Foreground(ColorSuccess),
		Help:     lipgloss.NewStyle().Foreground(ColorMuted).Italic(true),
	}
}

// PlainStyles renders without colors or borders, for pipes and tests.
func PlainStyles() Styles {
	plain := lipgloss.NewStyle()
	return Styles{
		Title: plain, Year: plain, Label: plain, Muted: plain,
		Card: plain, Selected: plain, Error: plain, Success: plain, Help: plain,
	}
}

// TextCard renders one record as a compact block.
func TextCard(car model.Car, st Styles, selected bool) string {
	c := Card(car)
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s  %s\n", st.Muted.Render(fmt.Sprintf("#%d", c.ID)), st.Title.Render(c.Title), st.Year.Render(fmt.Sprint(c.Year)))
	fmt.Fprintf(&b, "%s %s   %s %s", st.Label.Render("Price:"), c.Price, st.Label.Render("Mileage:"), c.Mileage)
	if c.Color != "" {
		fmt.Fprintf(&b, "   %s %s", st.Label.Render("Color:"), c.Color)
	}
	if car.ImageDataURL != "" {
		b.WriteString("   " + st.Muted.Render("[image]"))
	}
	box := st.Card
	if selected {
		box = st.Selected
	}
	return box.Render(b.String())
}

// TextCards renders the list, or the no-results placeholder when empty.
// selected is the index to highlight, or -1.
func TextCards(cars []model.Car, st Styles, selected int) string {
	if len(cars) == 0 {
		return st.Muted.Render(NoResultsMessage)
	}
	blocks := make([]string, 0, len(cars))
	for i, c := range cars {
		blocks = append(blocks, TextCard(c, st, i == selected))
	}
	return strings.Join(blocks, "\n")
}

// TextDetail renders the full detail view.
func TextDetail(car model.Car, st Styles) string {
	d := DetailView(car)
	rows := [][2]string{
		{"Price", d.Price},
		{"Mileage", d.Mileage},
	}
	if d.Color != "" {
		rows = append(rows, [2]string{"Color", d.Color})
	}
	if d.VIN != "" {
		rows = append(rows, [2]string{"VIN", d.VIN})
	}
	image := "No image available"
	if car.ImageDataURL != "" {
		image = "attached"
	}
	rows = append(rows,
		[2]string{"Image", image},
		[2]string{"Listed", d.Listed},
		[2]string{"Updated", d.Updated},
	)

	var b strings.Builder
	fmt.Fprintf(&b, "%s  %s\n", st.Title.Render(d.Title), st.Year.Render(fmt.Sprint(d.Year)))
	for _, r := range rows {
		fmt.Fprintf(&b, "%-8s %s\n", st.Label.Render(r[0]), r[1])
	}
	return strings.TrimRight(b.String(), "\n")
}

// TextNotice renders the banner, or "" when hidden.
func TextNotice(n notify.Notice, st Styles) string {
	switch n.State {
	case notify.ShowingError:
		return st.Error.Render(n.Message)
	case notify.ShowingSuccess:
		return st.Success.Render(n.Message)
	default:
		return ""
	}
}
