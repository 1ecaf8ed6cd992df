package castlist

import (
	"bytes"
	"context"
	"fmt"
	"html/template"

	"github.com/pennine-megagames/backend/internal/convert"
)

// View selects which cast list variant to render. The organiser view
// includes player and organiser email addresses; the player view, which
// ships inside player bundles, omits them.
type View string

const (
	ViewOrganiser View = "organiser"
	ViewPlayer    View = "player"
)

const baseLayout = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.EventName}} Cast List</title>
<style>
body { font-family: sans-serif; margin: 2em; }
h1 { border-bottom: 2px solid #333; padding-bottom: 0.2em; }
h2 { margin-top: 1.2em; }
table { border-collapse: collapse; width: 100%; }
th, td { text-align: left; padding: 0.25em 0.75em 0.25em 0; }
.muted { color: #666; }
</style>
</head>
<body>
<h1>{{.EventName}} Cast List</h1>
<p class="muted">{{.EventDate}}</p>
{{block "people" .}}{{end}}
{{range .Groups}}
<h2>{{.TeamName}}</h2>
{{if .Players}}
<table>
<tr><th>Player</th><th>Role</th>{{if $.ShowEmails}}<th>Email</th>{{end}}</tr>
{{range .Players}}
<tr><td>{{.Name}}</td><td>{{.RoleName}}</td>{{if $.ShowEmails}}<td>{{.Email}}</td>{{end}}</tr>
{{end}}
</table>
{{else}}
<p class="muted">No players assigned.</p>
{{end}}
{{end}}
{{if .Unassigned}}
<h2>Unassigned players</h2>
<table>
{{range .Unassigned}}
<tr><td>{{.Name}}</td><td>{{.RoleName}}</td>{{if $.ShowEmails}}<td>{{.Email}}</td>{{end}}</tr>
{{end}}
</table>
{{end}}
</body>
</html>`

const peopleSection = `{{define "people"}}
<h2>Owner</h2>
<p>{{.Owner.Name}}{{if $.ShowEmails}} &lt;{{.Owner.Email}}&gt;{{end}}</p>
{{if .Organisers}}
<h2>Organisers</h2>
<ul>{{range .Organisers}}<li>{{.Name}}{{if $.ShowEmails}} &lt;{{.Email}}&gt;{{end}}</li>{{end}}</ul>
{{end}}
{{if .Control}}
<h2>Control team</h2>
<ul>{{range .Control}}<li>{{.Name}}{{if $.ShowEmails}} &lt;{{.Email}}&gt;{{end}}</li>{{end}}</ul>
{{end}}
{{end}}`

var castTemplate = template.Must(template.Must(
	template.New("cast_list").Parse(baseLayout)).Parse(peopleSection))

type renderData struct {
	*Document
	ShowEmails bool
}

// RenderHTML renders the document as a standalone HTML page.
func RenderHTML(doc *Document, view View) ([]byte, error) {
	var buf bytes.Buffer
	err := castTemplate.Execute(&buf, renderData{Document: doc, ShowEmails: view == ViewOrganiser})
	if err != nil {
		return nil, fmt.Errorf("render cast list: %w", err)
	}
	return buf.Bytes(), nil
}

// Renderer turns cast list documents into PDFs.
type Renderer struct {
	conv convert.Converter
}

// NewRenderer creates a renderer over the given converter.
func NewRenderer(conv convert.Converter) *Renderer {
	return &Renderer{conv: conv}
}

// RenderPDF renders the document to HTML and converts it to PDF.
func (r *Renderer) RenderPDF(ctx context.Context, doc *Document, view View) ([]byte, error) {
	html, err := RenderHTML(doc, view)
	if err != nil {
		return nil, err
	}
	return r.conv.ConvertToPDF(ctx, html, convert.FormatHTML)
}
