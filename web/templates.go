package web

import (
	"html/template"

	"github.com/R0KG/price-updater/plan"
)

type indexData struct {
	Markup float64
}

type reviewData struct {
	Session string
	Markup  float64
	Rows    []plan.EditRow
	Summary template.HTML
}

var indexTemplate = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Catalog Price Updater</title>
</head>
<body>
<h1>Catalog Price Updater</h1>
<form action="/upload" method="post" enctype="multipart/form-data">
  <p><input type="file" name="catalog" accept="application/pdf" required></p>
  <p>
    <label>Markup, %
      <input type="number" name="markup" value="{{.Markup}}" step="0.1" min="0">
    </label>
  </p>
  <p><button type="submit">Detect prices</button></p>
</form>
</body>
</html>
`))

var reviewTemplate = template.Must(template.New("review").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Review prices</title>
</head>
<body>
{{.Summary}}
<form action="/markup" method="post">
  <input type="hidden" name="session" value="{{.Session}}">
  <label>Markup, %
    <input type="number" name="markup" value="{{.Markup}}" step="0.1" min="0">
  </label>
  <button type="submit">Recalculate</button>
</form>
{{if .Rows}}
<form action="/generate" method="post">
  <input type="hidden" name="session" value="{{.Session}}">
  <table border="1" cellpadding="4">
    <tr><th>ID</th><th>Page</th><th>Original</th><th>New text</th></tr>
    {{range .Rows}}
    <tr>
      <td>{{.ID}}</td>
      <td>{{.Page}}</td>
      <td>{{.OriginalText}}</td>
      <td><input type="text" name="text-{{.ID}}" value="{{.NewText}}"></td>
    </tr>
    {{end}}
  </table>
  <p><button type="submit">Generate updated catalog</button></p>
</form>
{{end}}
<p><a href="/">Upload another catalog</a></p>
</body>
</html>
`))
