package bridge

import (
	"fmt"

	"github.com/hupe1980/addonbridge/host"
	"github.com/hupe1980/addonbridge/internal/util"
	"github.com/hupe1980/addonbridge/ui"
)

const propertyBody = `{{default "No description" .Description}}

Type: {{.Type}}

Writable: {{yesno .Writable}}

Enumerable: {{yesno .Enumerable}}

Configurable: {{yesno .Configurable}}{{if .Params}}

Parameters: {{join ", " .Params}}{{end}}
`

// ShowDocs walks viewer through the bridge documentation: an overview page
// with a Properties button, the list of properties, and the details of the
// chosen property.
func (b *Bridge) ShowDocs(viewer host.Player, p ui.Presenter) {
	p.Show(viewer, b.MainForm(), func(resp ui.Response) {
		if resp.Selected(0) {
			b.showProperties(viewer, p)
		}
	})
}

func (b *Bridge) showProperties(viewer host.Player, p ui.Presenter) {
	form, refs := b.PropertiesForm()
	p.Show(viewer, form, func(resp ui.Response) {
		if resp.Canceled || resp.Selection < 0 || resp.Selection >= len(refs) {
			return
		}
		ref := refs[resp.Selection]
		if detail, ok := b.PropertyForm(ref.Kind, ref.Name); ok {
			p.Show(viewer, detail, nil)
		}
	})
}

// MainForm is the overview page.
func (b *Bridge) MainForm() ui.Form {
	f := ui.Form{
		Title: fmt.Sprintf("%s Bridge [%s]", b.addonID, b.version),
		Body:  b.Description(),
	}
	f.AddButton("Properties")
	return f
}

// PropertiesForm lists every property with one button each. The returned
// refs are indexed like the buttons.
func (b *Bridge) PropertiesForm() (ui.Form, []PropertyRef) {
	f := ui.Form{
		Title: fmt.Sprintf("%s Bridge Properties", b.addonID),
		Body:  fmt.Sprintf("All properties for %s", b.addonID),
	}
	refs := b.Properties()
	for _, ref := range refs {
		f.AddButton(ref.String())
	}
	return f, refs
}

// PropertyForm describes one property.
func (b *Bridge) PropertyForm(kind host.ObjectKind, name string) (ui.Form, bool) {
	d, ok := b.Property(kind, name)
	if !ok {
		return ui.Form{}, false
	}

	body, err := util.RenderTemplate(propertyBody, map[string]any{
		"Description":  d.Description,
		"Type":         d.TypeName(),
		"Writable":     d.Writable(),
		"Enumerable":   d.Enumerable,
		"Configurable": d.Configurable,
		"Params":       paramList(d),
	})
	if err != nil {
		body = d.Description
	}

	return ui.Form{
		Title: fmt.Sprintf("%s (%s) Bridge", name, kind),
		Body:  body,
	}, true
}

func paramList(d Descriptor) []any {
	fn, ok := d.Callable()
	if !ok {
		return nil
	}
	out := make([]any, len(fn.Params))
	for i, p := range fn.Params {
		name := p.Name
		if p.Optional {
			name += "?"
		}
		out[i] = fmt.Sprintf("%s: %s", name, p.Type)
	}
	return out
}
