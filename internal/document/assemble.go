// Package document assembles the final printable HTML page.
package document

import (
	"fmt"
	"html/template"
	"strings"

	"github.com/avoigt/refgen/internal/models"
)

// pageTemplate is the complete print layout: an A4 title page built from
// the request fields followed by the generated body.
const pageTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
  @page { size: A4; margin: 2cm 2.5cm; }
  * { box-sizing: border-box; }
  body {
    font-family: Georgia, "Times New Roman", serif;
    font-size: 12pt;
    line-height: 1.6;
    color: #1a1a1a;
    margin: 0;
  }
  .title-page {
    height: 25.7cm;
    display: flex;
    flex-direction: column;
    justify-content: space-between;
    text-align: center;
    page-break-after: always;
  }
  .title-page .school { font-size: 13pt; padding-top: 1cm; }
  .title-page .title-block { margin-top: 4cm; }
  .title-page h1 { font-size: 26pt; margin: 0 0 0.5cm; }
  .title-page .subject { font-size: 14pt; color: #444; }
  .title-page .author-block { text-align: right; font-size: 12pt; }
  .title-page .footer { font-size: 12pt; padding-bottom: 1cm; }
  .content h1 { font-size: 20pt; border-bottom: 2px solid #1a1a1a; padding-bottom: 0.2cm; }
  .content h2 { font-size: 16pt; margin-top: 1cm; }
  .content h3 { font-size: 13pt; }
  .content p { text-align: justify; }
  .content table { border-collapse: collapse; width: 100%; }
  .content th, .content td { border: 1px solid #999; padding: 4pt 8pt; }
  .content blockquote { border-left: 3px solid #999; margin-left: 0; padding-left: 0.5cm; color: #444; }
</style>
</head>
<body>
<section class="title-page">
  <div class="school">{{.School}}</div>
  <div class="title-block">
    <h1>{{.Title}}</h1>
    {{if .Subject}}<div class="subject">Project report &mdash; {{.Subject}}{{if .Grade}}, grade {{.Grade}}{{end}}</div>{{end}}
  </div>
  <div class="author-block">
    {{if .AuthorName}}<div>Prepared by: {{.AuthorName}}{{if .ClassName}} ({{.ClassName}}){{end}}</div>{{end}}
    {{if .TeacherName}}<div>Supervised by: {{.TeacherName}}</div>{{end}}
  </div>
  <div class="footer">{{.Footer}}</div>
</section>
<main class="content">
{{.Body}}
</main>
</body>
</html>
`

var page = template.Must(template.New("page").Parse(pageTemplate))

// pageData feeds pageTemplate.
type pageData struct {
	Title       string
	Subject     string
	Grade       string
	School      string
	AuthorName  string
	ClassName   string
	TeacherName string
	Footer      string
	Body        template.HTML
}

// Assemble wraps the generated HTML fragment in the full document layout.
// The fragment comes from our own markdown conversion and is trusted.
func Assemble(req models.ProjectRequest, title, bodyHTML string) (string, error) {
	if title == "" {
		title = req.Topic
	}

	var footer []string
	if req.City != "" {
		footer = append(footer, req.City)
	}
	if req.Year != "" {
		footer = append(footer, req.Year)
	}

	var buf strings.Builder
	err := page.Execute(&buf, pageData{
		Title:       title,
		Subject:     req.Subject,
		Grade:       req.Grade,
		School:      req.School,
		AuthorName:  req.AuthorName,
		ClassName:   req.ClassName,
		TeacherName: req.TeacherName,
		Footer:      strings.Join(footer, ", "),
		Body:        template.HTML(bodyHTML),
	})
	if err != nil {
		return "", fmt.Errorf("assemble document: %w", err)
	}
	return buf.String(), nil
}
