package report

import (
	"bytes"
	"fmt"
	"html"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	gmhtml "github.com/yuin/goldmark/renderer/html"

	"github.com/ternarybob/chatprobe/internal/models"
)

// Markdown renders the report as a GitHub-flavoured markdown document
func Markdown(report *models.SessionReport, opts Options) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", opts.title())
	fmt.Fprintf(&b, "- **Status:** %s\n", strings.ToUpper(report.Status()))
	if report.BaseURL != "" {
		fmt.Fprintf(&b, "- **Target:** %s\n", report.BaseURL)
	}
	if report.RunID != "" {
		fmt.Fprintf(&b, "- **Run:** `%s`\n", report.RunID)
	}
	if !report.StartedAt.IsZero() {
		fmt.Fprintf(&b, "- **Started:** %s\n", report.StartedAt.UTC().Format("2006-01-02 15:04:05 UTC"))
	}
	fmt.Fprintf(&b, "- **Passed:** %d, **Failed:** %d\n\n", report.PassedCount(), report.FailedCount())

	b.WriteString("## Scenarios\n\n")
	b.WriteString("| # | Scenario | Result | Detail | Screenshot |\n")
	b.WriteString("|---|----------|--------|--------|------------|\n")
	for _, line := range Lines(report) {
		artifact := ""
		if line.Result != nil && line.Result.ArtifactPath != "" {
			artifact = "`" + line.Result.ArtifactPath + "`"
		}
		fmt.Fprintf(&b, "| %d | %s | %s | %s | %s |\n",
			line.Ordinal, cell(lineTitle(line)), line.Mark, cell(line.Detail), artifact)
	}

	groupsWritten := false
	for _, result := range report.Results {
		if len(result.Groups) == 0 {
			continue
		}
		if !groupsWritten {
			b.WriteString("\n## Indicator groups\n")
			groupsWritten = true
		}
		fmt.Fprintf(&b, "\n### %d. %s\n\n", result.Ordinal, cell(lineTitle(Line{Name: result.Name, Title: result.Title})))
		for _, group := range result.Groups {
			mark := "✗"
			if group.Passed {
				mark = "✓"
			}
			fmt.Fprintf(&b, "- %s **%s**", mark, cell(group.Label))
			if len(group.Matched) > 0 {
				fmt.Fprintf(&b, ": %s", cell(strings.Join(group.Matched, ", ")))
			}
			b.WriteString("\n")
		}
		if result.Excerpt != "" {
			fmt.Fprintf(&b, "\n> %s\n", cell(result.Excerpt))
		}
	}

	b.WriteString("\n## Console\n\n")
	fmt.Fprintf(&b, "%d messages, %d errors.\n", report.ConsoleTotal, report.ConsoleErrorCount)
	if report.ConsoleExceptions > 0 {
		fmt.Fprintf(&b, "%d uncaught exceptions, counted among the errors.\n", report.ConsoleExceptions)
	}
	if len(report.ConsoleErrors) > 0 {
		b.WriteString("\n```\n")
		for _, entry := range report.ConsoleErrors {
			b.WriteString(entry.String())
			b.WriteString("\n")
		}
		b.WriteString("```\n")
	}

	return b.String()
}

// HTML renders the markdown report to a standalone HTML page
func HTML(report *models.SessionReport, opts Options) ([]byte, error) {
	converter := goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithRendererOptions(gmhtml.WithXHTML()),
	)

	var body bytes.Buffer
	if err := converter.Convert([]byte(Markdown(report, opts)), &body); err != nil {
		return nil, fmt.Errorf("failed to convert report markdown to HTML: %w", err)
	}

	var page bytes.Buffer
	fmt.Fprintf(&page, "<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n<title>%s</title>\n", html.EscapeString(opts.title()))
	page.WriteString("<style>body{font-family:sans-serif;max-width:960px;margin:2em auto}table{border-collapse:collapse}td,th{border:1px solid #ccc;padding:4px 8px}</style>\n")
	page.WriteString("</head>\n<body>\n")
	page.Write(body.Bytes())
	page.WriteString("</body>\n</html>\n")
	return page.Bytes(), nil
}

// cell keeps free text from breaking table rows
func cell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.Join(strings.Fields(s), " ")
}
