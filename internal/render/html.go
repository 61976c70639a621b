package render

import (
	"fmt"
	"html/template"
	"io"

	"github.com/naka-gawa/repo-cards/internal/domain"
)

// LoadingText is the placeholder shown while the first fetch cycle runs.
const LoadingText = "Loading GitHub stats…"

const viewTemplate = `{{define "view"}}
{{- if eq .Status "loading" -}}
<p class="repo-stats-loading">{{.Loading}}</p>
{{- else if eq .Status "error" -}}
<div class="repo-stats-error">
  <p class="repo-stats-error-message">{{.Error}}</p>
  <div class="repo-stats-badges">
  {{- range .Badges}}
    <a href="{{.Href}}" target="_blank" rel="noopener noreferrer"><img src="{{.ImageURL}}" alt="{{.Identifier}} stars"></a>
  {{- end}}
  </div>
</div>
{{- else -}}
<div class="repo-stats-grid">
{{- range .Cards}}
  <a class="repo-card" href="{{.URL}}" target="_blank" rel="noopener noreferrer">
    <h3 class="repo-card-title">{{.Title}}</h3>
    {{- if .Description}}
    <p class="repo-card-description">{{.Description}}</p>
    {{- end}}
    <div class="repo-card-stats"><span>{{.Stars}}</span> <span>{{.Forks}}</span> <span>{{.Issues}}</span></div>
    <div class="repo-card-updated">{{.Updated}}</div>
  </a>
{{- end}}
</div>
{{- end -}}
{{end}}

{{define "page"}}<!DOCTYPE html>
<html lang="{{.Lang}}">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}}</title>
<style>
body { font-family: system-ui, sans-serif; margin: 2rem; }
.repo-stats-grid { display: grid; gap: 1rem; grid-template-columns: repeat(auto-fill, minmax(260px, 1fr)); }
.repo-card { display: block; padding: 1rem; border: 1px solid #d0d7de; border-radius: 8px; color: inherit; text-decoration: none; }
.repo-card:hover { border-color: #0969da; }
.repo-card-title { margin: 0 0 .5rem; font-size: 1.1rem; }
.repo-card-description { margin: 0 0 .5rem; color: #57606a; }
.repo-card-stats span { margin-right: .75rem; }
.repo-card-updated { margin-top: .5rem; font-size: .85rem; color: #57606a; }
.repo-stats-badges a { margin-right: .5rem; }
</style>
</head>
<body>
{{template "view" .View}}
</body>
</html>
{{end}}`

var templates = template.Must(template.New("render").Parse(viewTemplate))

type viewData struct {
	Status  domain.FetchStatus
	Loading string
	Error   string
	Badges  []Badge
	Cards   []Card
}

func newViewData(s domain.State, f *Formatter) viewData {
	v := viewData{Status: s.Status, Loading: LoadingText}
	switch s.Status {
	case domain.StatusError:
		v.Error = s.ErrorMessage()
		v.Badges = Badges(s.Identifiers)
	case domain.StatusReady:
		v.Cards = f.Cards(s.Repos)
	}
	return v
}

// HTML writes the view fragment for s.
func HTML(w io.Writer, s domain.State, f *Formatter) error {
	if err := templates.ExecuteTemplate(w, "view", newViewData(s, f)); err != nil {
		return fmt.Errorf("failed to render html view: %w", err)
	}
	return nil
}

// HTMLPage writes a standalone document containing the view for s.
func HTMLPage(w io.Writer, title, lang string, s domain.State, f *Formatter) error {
	data := struct {
		Title string
		Lang  string
		View  viewData
	}{Title: title, Lang: lang, View: newViewData(s, f)}
	if err := templates.ExecuteTemplate(w, "page", data); err != nil {
		return fmt.Errorf("failed to render html page: %w", err)
	}
	return nil
}
