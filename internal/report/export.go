package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/chatprobe/internal/common"
	"github.com/ternarybob/chatprobe/internal/models"
)

// JSON renders the report for machine consumption
func JSON(report *models.SessionReport) ([]byte, error) {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal report: %w", err)
	}
	return append(data, '\n'), nil
}

// OptionsFromConfig maps the [report] section to rendering options
func OptionsFromConfig(config common.ReportConfig) Options {
	return Options{
		Title:             config.Title,
		ConsoleErrorLimit: config.ConsoleErrorLimit,
	}
}

// WriteExports writes every export whose path is configured and returns the
// paths written. Exports are best effort: failures are logged and skipped.
func WriteExports(report *models.SessionReport, config common.ReportConfig, logger arbor.ILogger) []string {
	opts := OptionsFromConfig(config)

	exports := []struct {
		kind   string
		path   string
		render func() ([]byte, error)
	}{
		{"json", config.JSONPath, func() ([]byte, error) { return JSON(report) }},
		{"markdown", config.MarkdownPath, func() ([]byte, error) { return []byte(Markdown(report, opts)), nil }},
		{"html", config.HTMLPath, func() ([]byte, error) { return HTML(report, opts) }},
		{"pdf", config.PDFPath, func() ([]byte, error) { return PDF(report, opts) }},
	}

	written := make([]string, 0, len(exports))
	for _, export := range exports {
		if export.path == "" {
			continue
		}

		data, err := export.render()
		if err == nil {
			err = writeFile(export.path, data)
		}
		if err != nil {
			logger.Warn().
				Str("format", export.kind).
				Str("path", export.path).
				Err(err).
				Msg("Failed to write report export")
			continue
		}

		logger.Info().
			Str("format", export.kind).
			Str("path", export.path).
			Msg("Report export written")
		written = append(written, export.path)
	}
	return written
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
