package presentation

import (
	"fmt"
	"html/template"
	"io"

	"github.com/iulianpascalau/apdex-optimizer/services/optimizer/common"
)

// HelpArticleURL is the article explaining how the Apdex T value should be chosen
const HelpArticleURL = "https://blog.newrelic.com/product-news/how-to-choose-apdex-t/"

// PanelView is everything the panel displays
type PanelView struct {
	AccountLabel      string
	AccountsError     bool
	Accounts          []common.Account
	SelectedAccountID int64
	Loading           bool
	Error             string
	Query             Query
	Page              Page
}

// Renderer renders the panel
type Renderer interface {
	Render(w io.Writer, view PanelView) error
	RenderLogin(w io.Writer, failed bool) error
	ContentType() string
	IsInterfaceNil() bool
}

type htmlRenderer struct {
	tmpl      *template.Template
	loginTmpl *template.Template
}

// NewHTMLRenderer creates the HTML panel renderer
func NewHTMLRenderer() (*htmlRenderer, error) {
	tmpl, err := template.New("panel").Funcs(template.FuncMap{
		"cell":  cellOf,
		"href":  hrefOf,
		"color": colorOf,
		"prev":  func(page int) int { return page - 1 },
		"next":  func(page int) int { return page + 1 },
	}).Parse(panelTemplate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse the panel template: %w", err)
	}

	loginTmpl, err := template.New("login").Parse(loginTemplate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse the login template: %w", err)
	}

	return &htmlRenderer{
		tmpl:      tmpl,
		loginTmpl: loginTmpl,
	}, nil
}

type panelData struct {
	PanelView
	Columns        []Column
	PageSizes      []int
	HelpArticleURL string
	LinkColor      template.CSS
}

// Render writes the panel page
func (r *htmlRenderer) Render(w io.Writer, view PanelView) error {
	return r.tmpl.Execute(w, panelData{
		PanelView:      view,
		Columns:        Columns,
		PageSizes:      PageSizes,
		HelpArticleURL: HelpArticleURL,
		LinkColor:      template.CSS(LinkColor),
	})
}

// RenderLogin writes the login page
func (r *htmlRenderer) RenderLogin(w io.Writer, failed bool) error {
	return r.loginTmpl.Execute(w, struct{ Failed bool }{Failed: failed})
}

// ContentType returns the content type of the rendered page
func (r *htmlRenderer) ContentType() string {
	return "text/html; charset=utf-8"
}

// IsInterfaceNil returns true if the value under the interface is nil
func (r *htmlRenderer) IsInterfaceNil() bool {
	return r == nil
}

func cellOf(row TableRow, column string) string {
	return row.Cell(column)
}

func hrefOf(row TableRow, column string) string {
	return row.Href(column)
}

func colorOf(row TableRow, column string) template.CSS {
	return template.CSS(row.Class(column).Color())
}

const panelTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Apdex Optimizer</title>
<style>
body { font-family: sans-serif; padding: 0 20px; width: 98%; }
table { border-collapse: collapse; width: 100%; }
th { text-align: center; white-space: normal; }
td { padding: 4px 8px; }
td.right { text-align: right; }
tr:nth-child(even) { background: #f7f7f7; }
</style>
</head>
<body>
<form method="get" action="/">
{{- if .AccountsError}}
<div class="accounts">Error!</div>
{{- else}}
<div class="accounts">{{.AccountLabel}}
{{- range .Accounts}} <button type="submit" formmethod="post" formaction="/select?id={{.ID}}">{{.Name}}</button>{{end}}
</div>
{{- end}}
{{- if .SelectedAccountID}}
<p>Search: <input name="search" value="{{.Query.Search}}" style="border: 1px solid gray; width: 20%"></p>
{{- if .Loading}}
<div class="loading">Loading...</div>
{{- else if .Error}}
<div class="error">{{.Error}}</div>
{{- else}}
<table>
<thead><tr>
{{- range .Columns}}<th><a href="/?search={{$.Query.Search}}&sort={{.Key}}&desc={{if and (eq $.Query.SortColumn .Key) (not $.Query.Descending)}}true{{else}}false{{end}}&pageSize={{$.Page.PageSize}}">{{.Header}}</a></th>{{end -}}
</tr></thead>
<tbody>
{{- range $row := .Page.Rows}}
<tr>
{{- range $col := $.Columns}}
{{- if $col.Link}}
<td class="right">{{with href $row $col.Key}}{{if cell $row $col.Key}}<a target="_blank" href="{{.}}" title="Click to launch the app settings page in a new tab" style="color: {{$.LinkColor}}">{{cell $row $col.Key}}</a>{{end}}{{end}}</td>
{{- else}}
<td{{if ne $col.Key "name"}} class="right"{{end}}{{with color $row $col.Key}} style="color: {{.}}"{{end}}>{{cell $row $col.Key}}</td>
{{- end}}
{{- end}}
</tr>
{{- end}}
</tbody>
</table>
<p>
{{- if gt .Page.PageIndex 1}}<a href="/?search={{.Query.Search}}&sort={{.Query.SortColumn}}&desc={{.Query.Descending}}&page={{prev .Page.PageIndex}}&pageSize={{.Page.PageSize}}">Previous</a>{{end}}
Page {{.Page.PageIndex}} of {{.Page.TotalPages}} ({{.Page.TotalRows}} rows)
{{- if lt .Page.PageIndex .Page.TotalPages}} <a href="/?search={{.Query.Search}}&sort={{.Query.SortColumn}}&desc={{.Query.Descending}}&page={{next .Page.PageIndex}}&pageSize={{.Page.PageSize}}">Next</a>{{end}}
<select name="pageSize">{{range .PageSizes}}<option value="{{.}}"{{if eq . $.Page.PageSize}} selected{{end}}>{{.}} rows</option>{{end}}</select>
<input type="hidden" name="sort" value="{{.Query.SortColumn}}">
<input type="hidden" name="desc" value="{{.Query.Descending}}">
<button type="submit">Apply</button>
</p>
{{- end}}
{{- end}}
</form>
<h3>What should I set T to?</h3>
<p>If you have an app that has been running for awhile in a steady state and you feel you have a good baseline for
acceptable performance, you can start by setting your Apdex threshold to give you a baseline Apdex score of 0.95.
So you'll want to get the 90th percentile value and set that to Apdex T.</p>
<p>The suggested thresholds above are based on the 90th percentile. It is recommended that the time window is set
to 7 days.</p>
<p>Based on a mathematical <a target="_blank" rel="noopener noreferrer" href="{{.HelpArticleURL}}" style="color: {{.LinkColor}}">analysis</a>.</p>
</body>
</html>
`

const loginTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Apdex Optimizer</title>
</head>
<body style="font-family: sans-serif; padding: 0 20px">
<form method="post" action="/login">
{{- if .Failed}}
<p class="error">Invalid credentials</p>
{{- end}}
<p>Username: <input name="username"></p>
<p>Password: <input name="password" type="password"></p>
<button type="submit">Login</button>
</form>
</body>
</html>
`
