// Package export renders a single entry as a downloadable text or HTML file.
package export

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"time"

	"selfsight.app/journal/internal/store"
)

type Format string

const (
	FormatText Format = "text"
	FormatHTML Format = "html"
)

const (
	dateLayout = "January 2, 2006"
	timeLayout = "15:04"

	analysisHeader = "AI ANALYSIS"
	analysisRule   = "-----------"
)

// analysisLabels prefix the lines of the text analysis block, in order.
var analysisLabels = []string{"Mood: ", "Emotions: ", "Strength: ", "Area for Growth: ", "Key Insight: "}

// ParseFormat accepts "text"/"txt" and "html"; empty means text.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text", "txt":
		return FormatText, nil
	case "html":
		return FormatHTML, nil
	default:
		return "", fmt.Errorf("unsupported export format %q", s)
	}
}

func (f Format) ContentType() string {
	if f == FormatHTML {
		return "text/html; charset=utf-8"
	}
	return "text/plain; charset=utf-8"
}

func (f Format) extension() string {
	if f == FormatHTML {
		return "html"
	}
	return "txt"
}

// Filename names the download after the entry's creation date.
func Filename(entry store.Entry, f Format, loc *time.Location) string {
	return fmt.Sprintf("journal-%s.%s", localTime(entry, loc).Format("2006-01-02"), f.extension())
}

// DateLine is the "January 2, 2006 • 15:04" line under the title.
func DateLine(entry store.Entry, loc *time.Location) string {
	t := localTime(entry, loc)
	return t.Format(dateLayout) + " • " + t.Format(timeLayout)
}

func localTime(entry store.Entry, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return entry.CreatedAt.In(loc)
}

type analysisView struct {
	Mood     string
	Emotions string
	Strength string
	Weakness string
	Insight  string
}

// analysisFor returns nil for entries that were never analyzed.
func analysisFor(entry store.Entry) *analysisView {
	if !entry.Analyzed() {
		return nil
	}
	return &analysisView{
		Mood:     entry.Mood,
		Emotions: orNone(strings.Join(entry.Emotions, ", "), "None"),
		Strength: orNone(entry.Strength, "None detected"),
		Weakness: orNone(entry.Weakness, "None detected"),
		Insight:  orNone(entry.Insight, "None provided"),
	}
}

func orNone(v, placeholder string) string {
	if v == "" {
		return placeholder
	}
	return v
}

// Text renders the plain-text export. The analysis block is only present for
// analyzed entries.
func Text(entry store.Entry, loc *time.Location) []byte {
	var b strings.Builder
	b.WriteString(entry.Title + "\n")
	b.WriteString(DateLine(entry, loc) + "\n\n")
	b.WriteString(entry.Content + "\n")

	if a := analysisFor(entry); a != nil {
		b.WriteString("\n" + analysisHeader + "\n")
		b.WriteString(analysisRule + "\n")
		values := []string{a.Mood, a.Emotions, a.Strength, a.Weakness, a.Insight}
		for i, label := range analysisLabels {
			b.WriteString(label + oneLine(values[i]) + "\n")
		}
	}
	return []byte(b.String())
}

var htmlTemplate = template.Must(template.New("entry").Funcs(template.FuncMap{
	"paragraphs": func(s string) []string { return strings.Split(s, "\n") },
}).Parse(`<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <title>{{.Title}}</title>
  <style>
    body { font-family: Arial, sans-serif; line-height: 1.6; max-width: 800px; margin: 0 auto; padding: 20px; }
    h1 { margin-bottom: 5px; }
    .date { color: #666; margin-bottom: 20px; font-size: 0.9em; }
    .content { white-space: pre-wrap; margin-bottom: 20px; }
    .analysis { margin-top: 20px; border-top: 1px solid #eaeaea; padding-top: 20px; }
  </style>
</head>
<body>
  <h1>{{.Title}}</h1>
  <div class="date">{{.Date}}</div>
  <div class="content">{{range $i, $line := paragraphs .Content}}{{if $i}}<br>{{end}}{{$line}}{{end}}</div>
{{- with .Analysis}}
  <div class="analysis">
    <h2>AI Analysis</h2>
    <p><strong>Mood:</strong> {{.Mood}}</p>
    <p><strong>Emotions:</strong> {{.Emotions}}</p>
    <p><strong>Strength:</strong> {{.Strength}}</p>
    <p><strong>Area for Growth:</strong> {{.Weakness}}</p>
    <p><strong>Key Insight:</strong> {{.Insight}}</p>
  </div>
{{- end}}
</body>
</html>
`))

// HTML renders a standalone page with inlined CSS. All entry fields are
// escaped.
func HTML(entry store.Entry, loc *time.Location) ([]byte, error) {
	var buf bytes.Buffer
	err := htmlTemplate.Execute(&buf, struct {
		Title    string
		Date     string
		Content  string
		Analysis *analysisView
	}{
		Title:    entry.Title,
		Date:     DateLine(entry, loc),
		Content:  entry.Content,
		Analysis: analysisFor(entry),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to render html export: %w", err)
	}
	return buf.Bytes(), nil
}

// Render dispatches on format.
func Render(entry store.Entry, f Format, loc *time.Location) ([]byte, error) {
	if f == FormatHTML {
		return HTML(entry, loc)
	}
	return Text(entry, loc), nil
}

// Parsed is what can be recovered from a text export.
type Parsed struct {
	Title       string
	DateLine    string
	Content     string
	HasAnalysis bool
}

// ParseText reads a text export back.
func ParseText(data []byte) (Parsed, error) {
	lines := strings.SplitN(string(data), "\n", 4)
	if len(lines) < 4 || lines[2] != "" {
		return Parsed{}, fmt.Errorf("not a journal text export")
	}

	p := Parsed{Title: lines[0], DateLine: lines[1]}
	p.Content, p.HasAnalysis = splitAnalysis(strings.TrimSuffix(lines[3], "\n"))
	return p, nil
}

// oneLine keeps an analysis value on its label's line.
func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// splitAnalysis removes the analysis block from the end of body, but only
// when it is exactly the block Text writes.
func splitAnalysis(body string) (string, bool) {
	lines := strings.Split(body, "\n")
	n := len(analysisLabels) + 3 // blank line, header, rule
	if len(lines) <= n {
		return body, false
	}

	tail := lines[len(lines)-n:]
	if tail[0] != "" || tail[1] != analysisHeader || tail[2] != analysisRule {
		return body, false
	}
	for i, label := range analysisLabels {
		if !strings.HasPrefix(tail[3+i], label) {
			return body, false
		}
	}
	return strings.Join(lines[:len(lines)-n], "\n"), true
}
