package preflight

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"
	"time"
)

var reportTemplate = template.Must(template.New("report").Funcs(template.FuncMap{
	"join": strings.Join,
	"rel": func(root, path string) string {
		if rel, err := filepath.Rel(root, path); err == nil {
			return filepath.ToSlash(rel)
		}
		return path
	},
}).Parse(`# Azure Deployment Preflight Report

**Generated:** {{ .Timestamp }}
**Project Root:** {{ .Root }}

## Summary

- azd project: {{ .AzdProject }}
- Bicep files found: {{ len .Files }}
- Tools: {{ .ToolsJSON }}

## Files
{{ range .Files }}
- {{ rel $.Root .Path }} (scope: {{ .Scope }})
{{- range .ParamFiles }}
  - params: {{ rel $.Root . }}
{{- end }}
{{- end }}

## Commands

{{ if .Commands }}{{ range $i, $c := .Commands }}{{ if $i }}
{{ end }}- ` + "`{{ $c }}`" + `{{ end }}{{ else }}- None (dry-run){{ end }}

## Notes

{{ if .Notes }}{{ join .Notes "\n" }}{{ else }}No notes{{ end }}
`))

type reportView struct {
	*Report
	Timestamp string
	ToolsJSON string
}

// Markdown renders the report
func (r *Report) Markdown() (string, error) {
	tools, err := r.toolsJSON()
	if err != nil {
		return "", err
	}

	var b strings.Builder
	err = reportTemplate.Execute(&b, reportView{
		Report:    r,
		Timestamp: r.GeneratedAt.UTC().Format(time.RFC3339),
		ToolsJSON: tools,
	})
	if err != nil {
		return "", fmt.Errorf("failed to render report: %w", err)
	}
	return b.String(), nil
}

// WriteFile renders the report to path and returns the rendered content
func (r *Report) WriteFile(path string) (string, error) {
	content, err := r.Markdown()
	if err != nil {
		return "", err
	}

	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}
	return content, nil
}

// toolsJSON renders tool paths as a JSON object, null for a missing tool
func (r *Report) toolsJSON() (string, error) {
	tools := make(map[string]*string, len(r.Tools))
	for name, path := range r.Tools {
		if path == "" {
			tools[name] = nil
			continue
		}
		p := path
		tools[name] = &p
	}

	data, err := json.Marshal(tools)
	if err != nil {
		return "", fmt.Errorf("failed to encode tools: %w", err)
	}
	return string(data), nil
}
