package docs

import (
	"fmt"
	"html/template"
	"io"
	"strings"
	"text/tabwriter"
)

// Formatter renders a DocModel to a writer.
type Formatter interface {
	Format(w io.Writer, model *DocModel) error
}

// NewFormatter returns a formatter for the given format name.
func NewFormatter(format string) (Formatter, error) {
	switch strings.ToLower(format) {
	case "markdown", "md":
		return &MarkdownFormatter{}, nil
	case "html":
		return &HTMLFormatter{}, nil
	case "asciidoc", "adoc":
		return &AsciiDocFormatter{}, nil
	default:
		return nil, fmt.Errorf("unsupported docs format: %s", format)
	}
}

func title(model *DocModel) string {
	if model.Title != "" {
		return model.Title
	}

	if model.Root != "" {
		return model.Root + " Property Reference"
	}

	return "Property Reference"
}

func listOrDash(items []string) string {
	if len(items) == 0 {
		return "-"
	}

	return strings.Join(items, ", ")
}

func verdict(p PropertyInfo) string {
	if p.Serialized {
		return "yes"
	}

	return "no"
}

// ---------------------------------------------------------------------------
// Markdown
// ---------------------------------------------------------------------------

// MarkdownFormatter renders documentation as Markdown.
type MarkdownFormatter struct{}

func (f *MarkdownFormatter) Format(w io.Writer, model *DocModel) error {
	fmt.Fprintf(w, "# %s\n\n", title(model))

	if model.Version != "" {
		fmt.Fprintf(w, "**Schema Version:** `%s`  \n", model.Version)
	}

	if model.Root != "" {
		fmt.Fprintf(w, "**Root Type:** `%s`  \n", model.Root)
	}

	fmt.Fprintf(w, "**Fields:** %s  \n", listOrDash(model.Fields))
	fmt.Fprintf(w, "**Exclude Fields:** %s  \n", listOrDash(model.ExcludeFields))
	fmt.Fprintln(w)

	// Overview.
	if len(model.Types) > 0 {
		fmt.Fprintf(w, "## Types\n\n")

		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

		fmt.Fprintln(tw, "| Type\t| Embeds\t| Properties\t| Serialized\t|")
		fmt.Fprintln(tw, "|------\t|--------\t|------------\t|------------\t|")

		for _, t := range model.Types {
			fmt.Fprintf(tw, "| %s\t| %s\t| %d\t| %d\t|\n",
				t.Name, listOrDash(t.Embeds), len(t.Properties), t.SerializedCount())
		}

		tw.Flush()

		fmt.Fprintln(w)
	}

	for _, t := range model.Types {
		fmt.Fprintf(w, "## %s\n\n", t.Name)

		if len(t.Properties) == 0 {
			fmt.Fprintf(w, "No properties.\n\n")
			continue
		}

		fmt.Fprintln(w, "| Property | Type | Declared By | Serialized | Reason |")
		fmt.Fprintln(w, "|----------|------|-------------|------------|--------|")

		for _, p := range t.Properties {
			fmt.Fprintf(w, "| `%s` | `%s` | %s | %s | %s |\n", p.Name, p.Type, p.DeclaredBy, verdict(p), p.Reason)
		}

		fmt.Fprintln(w)
	}

	// Example YAML.
	if model.IncludeExamples {
		example := GenerateExampleYAML(model)
		fmt.Fprintf(w, "## Example\n\n```yaml\n%s```\n", example)
	}

	return nil
}

// ---------------------------------------------------------------------------
// HTML
// ---------------------------------------------------------------------------

// HTMLFormatter renders documentation as a standalone HTML page.
type HTMLFormatter struct{}

var htmlTpl = template.Must(template.New("docs").Funcs(template.FuncMap{
	"list":    listOrDash,
	"verdict": verdict,
}).Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body{font-family:sans-serif;margin:2em;line-height:1.6}
table{border-collapse:collapse;width:100%;margin-bottom:1em}
th,td{border:1px solid #ddd;padding:8px;text-align:left}
th{background:#f5f5f5}
code{background:#f0f0f0;padding:2px 4px;border-radius:3px}
pre{background:#f5f5f5;padding:1em;border-radius:4px;overflow-x:auto}
tr.omitted{color:#999}
</style>
</head>
<body>
<h1>{{.Title}}</h1>
{{if .Version}}<p><strong>Schema Version:</strong> <code>{{.Version}}</code></p>{{end}}
{{if .Root}}<p><strong>Root Type:</strong> <code>{{.Root}}</code></p>{{end}}
<p><strong>Fields:</strong> {{list .Fields}}</p>
<p><strong>Exclude Fields:</strong> {{list .ExcludeFields}}</p>

{{range .Types}}
<h2 id="{{.Name}}">{{.Name}}</h2>
{{if .Embeds}}<p><strong>Embeds:</strong> {{list .Embeds}}</p>{{end}}
{{if .Properties}}
<table>
<tr><th>Property</th><th>Type</th><th>Declared By</th><th>Serialized</th><th>Reason</th></tr>
{{range .Properties}}<tr{{if not .Serialized}} class="omitted"{{end}}><td><code>{{.Name}}</code></td><td><code>{{.Type}}</code></td><td>{{.DeclaredBy}}</td><td>{{verdict .}}</td><td>{{.Reason}}</td></tr>
{{end}}
</table>
{{else}}
<p>No properties.</p>
{{end}}
{{end}}

{{if .ExampleYAML}}
<h2>Example</h2>
<pre><code>{{.ExampleYAML}}</code></pre>
{{end}}

</body>
</html>
`))

// htmlModel wraps DocModel with the values the template computes up front.
type htmlModel struct {
	*DocModel
	Title       string
	ExampleYAML string
}

func (f *HTMLFormatter) Format(w io.Writer, model *DocModel) error {
	m := htmlModel{
		DocModel: model,
		Title:    title(model),
	}

	if model.IncludeExamples {
		m.ExampleYAML = GenerateExampleYAML(model)
	}

	return htmlTpl.Execute(w, m)
}

// ---------------------------------------------------------------------------
// AsciiDoc
// ---------------------------------------------------------------------------

// AsciiDocFormatter renders documentation as AsciiDoc.
type AsciiDocFormatter struct{}

func (f *AsciiDocFormatter) Format(w io.Writer, model *DocModel) error {
	fmt.Fprintf(w, "= %s\n\n", title(model))

	if model.Version != "" {
		fmt.Fprintf(w, "*Schema Version:* `%s` +\n", model.Version)
	}

	if model.Root != "" {
		fmt.Fprintf(w, "*Root Type:* `%s` +\n", model.Root)
	}

	fmt.Fprintf(w, "*Fields:* %s +\n", listOrDash(model.Fields))
	fmt.Fprintf(w, "*Exclude Fields:* %s\n", listOrDash(model.ExcludeFields))
	fmt.Fprintln(w)

	for _, t := range model.Types {
		fmt.Fprintf(w, "== %s\n\n", t.Name)

		if len(t.Embeds) > 0 {
			fmt.Fprintf(w, "*Embeds:* %s\n\n", listOrDash(t.Embeds))
		}

		if len(t.Properties) == 0 {
			fmt.Fprintf(w, "No properties.\n\n")
			continue
		}

		fmt.Fprintln(w, "[cols=\"1,1,1,1,2\", options=\"header\"]")
		fmt.Fprintln(w, "|===")
		fmt.Fprintln(w, "| Property | Type | Declared By | Serialized | Reason")

		for _, p := range t.Properties {
			fmt.Fprintf(w, "\n| `%s`\n| `%s`\n| %s\n| %s\n| %s\n", p.Name, p.Type, p.DeclaredBy, verdict(p), p.Reason)
		}

		fmt.Fprintln(w, "|===")
		fmt.Fprintln(w)
	}

	// Example YAML.
	if model.IncludeExamples {
		example := GenerateExampleYAML(model)
		fmt.Fprintf(w, "== Example\n\n[source,yaml]\n----\n%s----\n", example)
	}

	return nil
}
