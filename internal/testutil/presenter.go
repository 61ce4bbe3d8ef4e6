package testutil

import (
	"sync"

	"github.com/hupe1980/addonbridge/host"
	"github.com/hupe1980/addonbridge/ui"
)

// Shown is one form shown to a player.
type Shown struct {
	Viewer host.Player
	Form   ui.Form
}

// Presenter records forms and answers them from a script. Once the script is
// exhausted forms are recorded but never answered.
type Presenter struct {
	mu      sync.Mutex
	shown   []Shown
	answers []ui.Response
}

// NewPresenter returns a presenter answering with answers, in order.
func NewPresenter(answers ...ui.Response) *Presenter {
	return &Presenter{answers: answers}
}

// Select is the response choosing button i.
func Select(i int) ui.Response { return ui.Response{Selection: i} }

// Cancel is the response closing the form.
func Cancel() ui.Response { return ui.Response{Canceled: true} }

// Show implements ui.Presenter.
func (p *Presenter) Show(viewer host.Player, form ui.Form, respond func(ui.Response)) {
	p.mu.Lock()
	p.shown = append(p.shown, Shown{Viewer: viewer, Form: form})
	var (
		answer ui.Response
		ok     bool
	)
	if len(p.answers) > 0 {
		answer, p.answers = p.answers[0], p.answers[1:]
		ok = true
	}
	p.mu.Unlock()

	if ok && respond != nil {
		respond(answer)
	}
}

// Shown returns every recorded form.
func (p *Presenter) Shown() []Shown {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Shown(nil), p.shown...)
}

// Titles returns the titles of the recorded forms.
func (p *Presenter) Titles() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	titles := make([]string, len(p.shown))
	for i, s := range p.shown {
		titles[i] = s.Form.Title
	}
	return titles
}
