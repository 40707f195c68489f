// Package dashboard renders Grafana dashboards for the GreptimeDB tables the
// unit writes to.
package dashboard

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"dark-phoenix/internal/telemetry"
)

//go:embed templates/*.json.tmpl
var templates embed.FS

// Params fills the dashboard templates.
type Params struct {
	EventTable  string
	StatusTable string
	ClusterID   string
}

// Render parses dashboard templates and writes rendered dashboards to outDir.
// The datasource UID comes from GREPTIMEDB_DATASOURCE_UID.
func Render(outDir string, p Params) error {
	funcMap := template.FuncMap{
		"env": func(key string) (string, error) {
			v := os.Getenv(key)
			if v == "" {
				return "", fmt.Errorf("environment variable %s not set", key)
			}
			return v, nil
		},
	}
	if p.EventTable == "" {
		p.EventTable = telemetry.DefaultEventTable
	}
	if p.StatusTable == "" {
		p.StatusTable = telemetry.DefaultStatusTable
	}

	names, err := templates.ReadDir("templates")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return err
	}
	for _, n := range names {
		t, err := template.New(n.Name()).Funcs(funcMap).ParseFS(templates, "templates/"+n.Name())
		if err != nil {
			return err
		}
		outPath := filepath.Join(outDir, strings.TrimSuffix(n.Name(), ".tmpl"))
		f, err := os.Create(outPath)
		if err != nil {
			return err
		}
		if err := t.Execute(f, p); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
	}
	return nil
}
