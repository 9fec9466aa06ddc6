package view

import (
	"bytes"
	"html/template"
	"io"
)

// The portal pages share one layout. Content templates render a fragment and
// the layout wraps it with the chrome, so there is no template inheritance,
// only composition.

var layoutTmpl = template.Must(template.New("layout").Parse(`<!doctype html>
<html lang="en">
  <head>
    <meta charset="utf-8" />
    <meta name="viewport" content="width=device-width, initial-scale=1" />
    <title>MedTrack</title>
  </head>
  <body>
    <main class="container">
{{.}}
    </main>
  </body>
</html>
`))

var appointmentTmpl = template.Must(template.New("appointment").Parse(`{{if .NotFoundMessage}}<p class="alert">{{.NotFoundMessage}}</p>
{{else}}<h2>{{.Title}}</h2>
<ul class="record">
{{range .Fields}}  <li><strong>{{.Label}}:</strong> {{.Value}}</li>
{{end}}</ul>
{{end}}<nav>
{{range .Navigation}}  <a href="{{.Target}}">{{.Name}}</a>
{{end}}</nav>
`))

// Page renders the DisplayModel fragment and wraps it with the shared layout.
func Page(w io.Writer, model DisplayModel) error {
	var buf bytes.Buffer
	if err := appointmentTmpl.Execute(&buf, model); err != nil {
		return err
	}
	return layoutTmpl.Execute(w, template.HTML(buf.String()))
}
