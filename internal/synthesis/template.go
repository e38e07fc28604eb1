package synthesis

import (
	"bytes"
	"html/template"
)

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
  body { font-family: Georgia, "Times New Roman", serif; max-width: 800px; margin: 40px auto; padding: 0 20px; line-height: 1.6; color: #222; }
  h1, h2, h3 { font-family: Helvetica, Arial, sans-serif; }
  p { margin: 0 0 0.8em; }
  table { border-collapse: collapse; width: 100%; margin: 1em 0; }
  th, td { border: 1px solid #999; padding: 6px 10px; text-align: left; }
  pre { background: #f5f5f5; padding: 10px; overflow-x: auto; }
  .error { color: #b00020; border: 1px solid #b00020; padding: 12px; }
</style>
</head>
<body>
{{.Body}}
</body>
</html>
`))

type page struct {
	Title string
	Body  template.HTML
}

// wrapPage embeds an already-safe body fragment in the document template.
func wrapPage(title string, body template.HTML) (string, error) {
	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, page{Title: title, Body: body}); err != nil {
		return "", err
	}
	return buf.String(), nil
}
