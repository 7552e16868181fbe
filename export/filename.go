package export

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/Masterminds/sprig"

	"go-pianoroll/project"
)

// DefaultFileName is the template used when none is configured
const DefaultFileName = "{{ .Name | trim }}.mid"

// FileData is what a file name template can reference
type FileData struct {
	Name   string
	BPM    float64
	Tracks int
	Notes  int
	Time   time.Time
}

var unsafeChars = strings.NewReplacer(
	" ", "-",
	"/", "-",
	"\\", "-",
	":", "-",
	"*", "",
	"?", "",
	"\"", "",
	"<", "",
	">", "",
	"|", "",
)

// FileName renders tmpl into a safe file name ending in .mid. An empty
// template, or one that renders to nothing, falls back to the project name.
func FileName(tmpl string, p *project.Project) (string, error) {
	name := ""
	if tmpl != "" {
		t, err := template.New("filename").Funcs(sprig.TxtFuncMap()).Parse(tmpl)
		if err != nil {
			return "", fmt.Errorf("file name template: %w", err)
		}
		var buf bytes.Buffer
		data := FileData{
			Name:   p.Name,
			BPM:    p.BPM,
			Tracks: len(p.Tracks),
			Notes:  p.NumNotes(),
			Time:   time.Now(),
		}
		if err := t.Execute(&buf, data); err != nil {
			return "", fmt.Errorf("file name template: %w", err)
		}
		name = sanitizeFilename(buf.String())
	}
	if strings.TrimSuffix(name, ".mid") == "" {
		name = sanitizeFilename(p.Name)
	}
	if name == "" {
		name = "untitled"
	}
	if !strings.HasSuffix(strings.ToLower(name), ".mid") {
		name += ".mid"
	}
	return name, nil
}

func sanitizeFilename(name string) string {
	return unsafeChars.Replace(strings.TrimSpace(name))
}
