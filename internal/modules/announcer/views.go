package announcer

import (
	"strconv"

	g "maragu.dev/gomponents"
	hx "maragu.dev/gomponents-htmx"
	h "maragu.dev/gomponents/html"

	"github.com/nfrund/announcer/internal/commentary"
)

// CommentaryID is the element the display text is swapped into.
const CommentaryID = "commentary"

// CommentaryFragment replaces the commentary display out of band.
func CommentaryFragment(message string) g.Node {
	return h.Div(
		h.ID(CommentaryID),
		hx.SwapOOB("true"),
		h.Class("commentary-text"),
		h.Role("status"),
		h.Aria("live", "polite"),
		g.Text(message),
	)
}

// PanelData is what the commentary page shows on first load.
type PanelData struct {
	SessionID string
	Text      string
	State     commentary.State
	Voices    []commentary.Voice
	Basepath  string
}

// Page is the standalone commentary panel. The browser script opens both
// websockets, feeds speech directives to speechSynthesis and reports
// voices and completions back.
func Page(d PanelData) g.Node {
	return h.Doctype(
		h.HTML(
			h.Lang("en"),
			h.Head(
				h.Meta(h.Charset("utf-8")),
				h.TitleEl(g.Text("Commentary")),
				h.Script(h.Src("https://unpkg.com/htmx.org@2.0.4")),
				h.Script(h.Src("https://unpkg.com/htmx-ext-ws@2.0.2/ws.js")),
				h.Script(h.Src("https://unpkg.com/htmx-ext-json-enc@2.0.1/json-enc.js")),
				h.Script(h.Src("/static/announcer.js"), h.Defer()),
			),
			h.Body(
				h.Main(
					hx.Ext("ws"),
					g.Attr("ws-connect", "/ws/html"),
					g.Attr("data-announcer-base", d.Basepath),
					h.Div(h.ID(CommentaryID), h.Class("commentary-text"), h.Role("status"), h.Aria("live", "polite"), g.Text(d.Text)),
					settingsForm(d),
				),
			),
		),
	)
}

func settingsForm(d PanelData) g.Node {
	return h.Form(
		h.ID("commentary-settings"),
		hx.Put(d.Basepath+"/settings"),
		hx.Ext("json-enc"),
		hx.Swap("none"),
		h.Label(g.Text("Style "),
			h.Select(h.Name("style"),
				g.Map(commentary.Styles(), func(s commentary.Style) g.Node {
					return h.Option(h.Value(string(s)), g.If(s == d.State.Style, h.Selected()), g.Text(string(s)))
				}),
			),
		),
		h.Label(g.Text(" Voice "),
			h.Select(h.Name("voice"), h.ID("commentary-voice"),
				h.Option(h.Value(commentary.VoiceRandom), g.If(d.State.VoicePreference == commentary.VoiceRandom, h.Selected()), g.Text("Random")),
				g.Map(indexed(d.Voices), func(v indexedVoice) g.Node {
					val := strconv.Itoa(v.i)
					return h.Option(h.Value(val), g.If(d.State.VoicePreference == val, h.Selected()), g.Text(v.Name))
				}),
			),
		),
		h.Button(h.Type("submit"), g.Text("Apply")),
	)
}

type indexedVoice struct {
	commentary.Voice
	i int
}

func indexed(voices []commentary.Voice) []indexedVoice {
	out := make([]indexedVoice, len(voices))
	for i, v := range voices {
		out[i] = indexedVoice{Voice: v, i: i}
	}
	return out
}
