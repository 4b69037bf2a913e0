package httpapi

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"

	"github.com/DoyleJ11/battlesnake-replay/internal/grid"
)

//go:embed templates/board.html
var templateFS embed.FS

// palette is indexed by identity index, wrapping for large matches.
var palette = []string{
	"#e6194b", "#3cb44b", "#4363d8", "#f58231",
	"#911eb4", "#42d4f4", "#f032e6", "#bfef45",
}

var boardTemplate = template.Must(template.New("board.html").Funcs(template.FuncMap{
	"color": color,
}).ParseFS(templateFS, "templates/board.html"))

func color(index int) string { return palette[index%len(palette)] }

type legendEntry struct {
	Index int
	ID    string
}

type page struct {
	Code     string
	LinkBase string
	Frame    grid.Frame
	LastTurn int
	Legend   []legendEntry
	RawState string
}

func newPage(code string, defaultMatch bool, p *grid.Projector, frame grid.Frame) page {
	base := fmt.Sprintf("/matches/%s/render", code)
	if defaultMatch {
		base = "/render"
	}

	ids := p.Identities().IDs()
	legend := make([]legendEntry, len(ids))
	for i, id := range ids {
		legend[i] = legendEntry{Index: i, ID: id}
	}

	raw := string(frame.Raw)
	var buf bytes.Buffer
	if err := json.Indent(&buf, frame.Raw, "", "  "); err == nil {
		raw = buf.String()
	}

	return page{
		Code:     code,
		LinkBase: base,
		Frame:    frame,
		LastTurn: p.Turns() - 1,
		Legend:   legend,
		RawState: raw,
	}
}
