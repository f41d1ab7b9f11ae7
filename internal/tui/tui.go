// Package tui is the interactive terminal front end: a bubbletea program over
// the same service.Client the web pages use.
//
// THE ELM ARCHITECTURE:
// bubbletea splits a program into Init (first command), Update (message in,
// new model plus command out) and View (model to string). Anything that
// blocks, which here means every call to the cars API, runs inside a tea.Cmd
// and reports back with one of the *Msg types below, so the screen never
// freezes on a slow network.
//
// SCREENS:
//
//	list ──enter──▶ detail ──e──▶ form
//	  │  ──e/n────────────────▶ form
//	  └──d──▶ confirm ◀──d── detail
package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sakif/car-listing/internal/listing"
	"github.com/sakif/car-listing/internal/model"
	"github.com/sakif/car-listing/internal/notify"
	"github.com/sakif/car-listing/internal/render"
	"github.com/sakif/car-listing/internal/service"
)

type screen int

const (
	screenList screen = iota
	screenDetail
	screenForm
	screenConfirm
)

// Messages produced by commands.
type (
	loadedMsg  struct{ err error }
	detailMsg  struct{ err error }
	editMsg    struct{ err error }
	savedMsg   struct{ err error }
	deletedMsg struct{ err error }
	// noticeMsg arrives from the notifier whenever the banner changes,
	// including when it times out.
	noticeMsg notify.Notice
)

// Model is the bubbletea model.
type Model struct {
	ctx    context.Context
	client *service.Client
	styles render.Styles

	screen     screen
	cursor     int
	confirmID  int64
	fromDetail bool
	form       formModel

	width int
}

// New returns a model over client. Requests run with ctx.
func New(ctx context.Context, client *service.Client, styles render.Styles) Model {
	return Model{
		ctx:    ctx,
		client: client,
		styles: styles,
		form:   newFormModel(),
	}
}

// Run starts the program in the alternate screen and blocks until it quits.
func Run(ctx context.Context, client *service.Client) error {
	p := tea.NewProgram(New(ctx, client, render.DefaultStyles()), tea.WithAltScreen(), tea.WithContext(ctx))
	client.Notifier().OnChange(func(n notify.Notice) { p.Send(noticeMsg(n)) })
	_, err := p.Run()
	return err
}

// Init fires the initial load.
func (m Model) Init() tea.Cmd {
	return m.load()
}

// =========================================================================
// COMMANDS
// =========================================================================

func (m Model) load() tea.Cmd {
	return func() tea.Msg { return loadedMsg{err: m.client.LoadCars(m.ctx)} }
}

func (m Model) viewDetails(id int64) tea.Cmd {
	return func() tea.Msg { return detailMsg{err: m.client.ViewDetails(m.ctx, id)} }
}

func (m Model) startEdit(id int64, fromDetail bool) tea.Cmd {
	return func() tea.Msg {
		if fromDetail {
			return editMsg{err: m.client.EditFromDetails(m.ctx, id)}
		}
		return editMsg{err: m.client.StartEdit(m.ctx, id)}
	}
}

// submit encodes the image path, if one was typed, and then sends the form.
// A rejected image stops the submit; the banner carries the reason.
func (m Model) submit(imagePath string) tea.Cmd {
	return func() tea.Msg {
		if imagePath != "" {
			if err := m.client.AttachImageFile(imagePath); err != nil {
				return savedMsg{err: err}
			}
		}
		return savedMsg{err: m.client.Submit(m.ctx)}
	}
}

func (m Model) remove(id int64, fromDetail bool) tea.Cmd {
	return func() tea.Msg {
		if fromDetail {
			return deletedMsg{err: m.client.DeleteFromDetails(m.ctx, id, true)}
		}
		return deletedMsg{err: m.client.Delete(m.ctx, id, true)}
	}
}

// =========================================================================
// UPDATE
// =========================================================================

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case noticeMsg:
		// Nothing to do: returning redraws with the new banner.
		return m, nil

	case loadedMsg, deletedMsg:
		m.clampCursor()
		return m, nil

	case detailMsg:
		if msg.err == nil {
			m.screen = screenDetail
		}
		return m, nil

	case editMsg:
		if msg.err != nil {
			return m, nil
		}
		m.screen = screenForm
		cmd := m.form.load(m.client.Snapshot().Form.Fields)
		return m, cmd

	case savedMsg:
		if msg.err == nil {
			m.screen = screenList
			m.clampCursor()
		}
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		switch m.screen {
		case screenDetail:
			return m.updateDetail(msg)
		case screenForm:
			return m.updateForm(msg)
		case screenConfirm:
			return m.updateConfirm(msg)
		default:
			return m.updateList(msg)
		}
	}

	if m.screen == screenForm {
		var cmd tea.Cmd
		m.form, cmd = m.form.update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	visible := m.client.Visible()
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "j", "down":
		if m.cursor < len(visible)-1 {
			m.cursor++
		}
	case "k", "up":
		if m.cursor > 0 {
			m.cursor--
		}
	case "enter":
		if car, ok := m.current(visible); ok {
			return m, m.viewDetails(car.ID)
		}
	case "e":
		if car, ok := m.current(visible); ok {
			return m, m.startEdit(car.ID, false)
		}
	case "d":
		if car, ok := m.current(visible); ok {
			m.confirmID, m.fromDetail = car.ID, false
			m.screen = screenConfirm
		}
	case "n":
		m.client.CancelEdit()
		m.screen = screenForm
		cmd := m.form.load(m.client.Snapshot().Form.Fields)
		return m, cmd
	case "r":
		return m, m.load()
	case "f", "m", "c", "s":
		m.client.SetSelection(cycle(m.client.Snapshot(), msg.String()))
		m.clampCursor()
	case "x":
		m.client.ClearFilters()
		m.clampCursor()
	}
	return m, nil
}

func (m Model) updateDetail(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	detail := m.client.Snapshot().Detail
	switch msg.String() {
	case "esc", "q", "enter":
		m.client.CloseDetails()
		m.screen = screenList
	case "e":
		if detail != nil {
			m.screen = screenList
			return m, m.startEdit(detail.ID, true)
		}
	case "d":
		if detail != nil {
			m.confirmID, m.fromDetail = detail.ID, true
			m.screen = screenConfirm
		}
	}
	return m, nil
}

func (m Model) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		m.screen = screenList
		return m, m.remove(m.confirmID, m.fromDetail)
	case "n", "N", "esc", "q":
		if m.fromDetail {
			// Declining from the modal closes it without a request.
			_ = m.client.DeleteFromDetails(m.ctx, m.confirmID, false)
		}
		m.screen = screenList
	}
	return m, nil
}

func (m Model) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.client.CancelEdit()
		m.screen = screenList
		return m, nil
	case "ctrl+s":
		m.client.UpdateFields(m.form.fields())
		path := m.form.imagePath()
		m.form.clearImagePath()
		cmd := m.submit(path)
		return m, cmd
	case "ctrl+x":
		m.client.ClearImage()
		return m, nil
	}
	var cmd tea.Cmd
	m.form, cmd = m.form.update(msg)
	return m, cmd
}

func (m Model) current(visible []model.Car) (model.Car, bool) {
	if m.cursor < 0 || m.cursor >= len(visible) {
		return model.Car{}, false
	}
	return visible[m.cursor], true
}

func (m *Model) clampCursor() {
	n := len(m.client.Visible())
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

// cycle steps one filter (f, m, c) through "All" and then each vocabulary
// value in order, or the sort (s) through its options.
func cycle(v service.View, key string) listing.Selection {
	sel := v.Selection
	switch key {
	case "f":
		sel.Make = next(v.Vocabulary.Makes, sel.Make)
	case "m":
		sel.Model = next(v.Vocabulary.Models, sel.Model)
	case "c":
		sel.Color = next(v.Vocabulary.Colors, sel.Color)
	case "s":
		opts := listing.SortOptions()
		keys := make([]string, 0, len(opts))
		for _, o := range opts {
			keys = append(keys, string(o.Key))
		}
		sel.Sort = listing.SortKey(nextIn(keys, string(sel.Sort)))
	}
	return sel
}

// next returns the value after cur, where "" (All) comes before the first.
func next(values []string, cur string) string {
	return nextIn(append([]string{""}, values...), cur)
}

func nextIn(values []string, cur string) string {
	for i, v := range values {
		if v == cur {
			return values[(i+1)%len(values)]
		}
	}
	return values[0]
}

// =========================================================================
// VIEW
// =========================================================================

// View renders the current screen.
func (m Model) View() string {
	v := m.client.Snapshot()
	st := m.styles

	var b strings.Builder
	b.WriteString(st.Title.Render(render.PageTitle))
	fmt.Fprintf(&b, "  %s\n", st.Muted.Render(fmt.Sprintf("%d of %d", len(v.Cars), v.Total)))
	b.WriteString(filterLine(v, st) + "\n")
	if n := render.TextNotice(v.Notice, st); n != "" {
		b.WriteString(n + "\n")
	}
	b.WriteString("\n")

	switch m.screen {
	case screenDetail:
		if v.Detail != nil {
			b.WriteString(render.TextDetail(*v.Detail, st))
		}
		b.WriteString("\n\n" + st.Help.Render("e edit • d delete • esc close"))
	case screenConfirm:
		title := fmt.Sprintf("#%d", m.confirmID)
		if car, ok := m.client.Car(m.confirmID); ok {
			title = car.Title()
		}
		fmt.Fprintf(&b, "Delete %s? ", title)
		b.WriteString(st.Help.Render("y yes • n no"))
	case screenForm:
		b.WriteString(m.form.view(v.Form, st))
	default:
		b.WriteString(render.TextCards(v.Cars, st, m.cursor))
		b.WriteString("\n\n" + st.Help.Render("j/k move • enter details • e edit • d delete • n new • r refresh • f/m/c filter • s sort • x clear • q quit"))
	}
	return b.String()
}

func filterLine(v service.View, st render.Styles) string {
	all := func(s, label string) string {
		if s == "" {
			return "All " + label
		}
		return s
	}
	sortLabel := "Default"
	for _, o := range listing.SortOptions() {
		if o.Key == v.Selection.Sort {
			sortLabel = o.Label
		}
	}
	return fmt.Sprintf("%s %s  %s %s  %s %s  %s %s",
		st.Label.Render("Make:"), all(v.Selection.Make, "Makes"),
		st.Label.Render("Model:"), all(v.Selection.Model, "Models"),
		st.Label.Render("Color:"), all(v.Selection.Color, "Colors"),
		st.Label.Render("Sort:"), sortLabel,
	)
}
