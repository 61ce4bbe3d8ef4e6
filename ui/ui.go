// Package ui describes the modal action forms the bridge shows players when
// they browse an add-on's documentation. Hosts render forms through a
// Presenter; the package ships a no-op presenter and a text presenter for
// consoles and tests.
package ui

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/hupe1980/addonbridge/host"
)

// Button is one selectable entry of a form.
type Button struct {
	Text string
}

// Form is a titled body of text with a list of buttons.
type Form struct {
	Title   string
	Body    string
	Buttons []Button
}

// AddButton appends a button and returns the form for chaining.
func (f *Form) AddButton(text string) *Form {
	f.Buttons = append(f.Buttons, Button{Text: text})
	return f
}

// Response is the player's reaction to a form.
type Response struct {
	// Canceled is set when the player closed the form without choosing.
	Canceled bool
	// Selection is the index of the chosen button.
	Selection int
}

// Selected reports whether the player chose button i.
func (r Response) Selected(i int) bool {
	return !r.Canceled && r.Selection == i
}

// Presenter shows forms to players. respond is called once with the
// player's choice; it may be called later, on the host's tick loop.
type Presenter interface {
	Show(viewer host.Player, form Form, respond func(Response))
}

// PresenterFunc adapts a function to Presenter.
type PresenterFunc func(viewer host.Player, form Form, respond func(Response))

// Show implements Presenter.
func (f PresenterFunc) Show(viewer host.Player, form Form, respond func(Response)) {
	f(viewer, form, respond)
}

// NopPresenter never shows anything and never responds.
type NopPresenter struct{}

// Show implements Presenter.
func (NopPresenter) Show(host.Player, Form, func(Response)) {}

// WriterPresenter renders forms as plain text and answers every form as
// canceled, which ends any docs flow after the first page.
type WriterPresenter struct {
	mu sync.Mutex
	w  io.Writer
}

// NewWriterPresenter returns a presenter writing to w.
func NewWriterPresenter(w io.Writer) *WriterPresenter {
	return &WriterPresenter{w: w}
}

// Show implements Presenter.
func (p *WriterPresenter) Show(viewer host.Player, form Form, respond func(Response)) {
	p.mu.Lock()
	_, _ = io.WriteString(p.w, Render(viewer, form))
	p.mu.Unlock()
	if respond != nil {
		respond(Response{Canceled: true})
	}
}

// Render returns the text form of a form as shown to viewer.
func Render(viewer host.Player, form Form) string {
	var sb strings.Builder
	if viewer != nil {
		fmt.Fprintf(&sb, "[%s] ", viewer.Name())
	}
	fmt.Fprintf(&sb, "== %s ==\n", form.Title)
	if form.Body != "" {
		sb.WriteString(form.Body)
		sb.WriteString("\n")
	}
	for i, b := range form.Buttons {
		fmt.Fprintf(&sb, "  %d) %s\n", i+1, b.Text)
	}
	return sb.String()
}
