// Package artifacts writes per-scenario diagnostics: a full-page screenshot
// at a path derived from the scenario identity and, optionally, a markdown
// rendering of the sampled markup. Writing is best effort; failures are
// logged and never reach the scenario verdict.
package artifacts

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/chatprobe/internal/common"
	"github.com/ternarybob/chatprobe/internal/indicators"
	"github.com/ternarybob/chatprobe/internal/interfaces"
	"github.com/ternarybob/chatprobe/internal/models"
)

// ArtifactWriteError reports an artifact that could not be persisted
type ArtifactWriteError struct {
	Path string
	Err  error
}

func (e *ArtifactWriteError) Error() string {
	return fmt.Sprintf("failed to write artifact %s: %v", e.Path, e.Err)
}

func (e *ArtifactWriteError) Unwrap() error {
	return e.Err
}

// Capture writes artifacts under one directory
type Capture struct {
	dir           string
	snapshotDumps bool
	baseURL       string
	logger        arbor.ILogger
}

// NewCapture creates a capture rooted at the configured artifacts directory
func NewCapture(config common.ArtifactsConfig, baseURL string, logger arbor.ILogger) *Capture {
	return &Capture{
		dir:           config.Dir,
		snapshotDumps: config.SnapshotDumps,
		baseURL:       baseURL,
		logger:        logger,
	}
}

// PathFor returns where the scenario's screenshot is written
func (c *Capture) PathFor(scenario models.Scenario) string {
	return filepath.Join(c.dir, scenario.ArtifactName())
}

// Capture screenshots the page and writes it to the scenario's path, replacing
// any previous file. It returns the path written, or "" when anything failed.
func (c *Capture) Capture(scenario models.Scenario, page interfaces.Page) string {
	path := c.PathFor(scenario)

	data, err := page.Screenshot()
	if err != nil {
		c.logger.Warn().
			Str("scenario", scenario.Name).
			Err(err).
			Msg("Screenshot failed, continuing without artifact")
		return ""
	}

	if err := c.Write(path, data); err != nil {
		c.logger.Warn().
			Str("scenario", scenario.Name).
			Err(err).
			Msg("Artifact write failed, continuing without artifact")
		return ""
	}

	c.logger.Debug().
		Str("scenario", scenario.Name).
		Str("path", path).
		Int("bytes", len(data)).
		Msg("Screenshot saved")

	return path
}

// DumpSnapshot writes a markdown rendering of the snapshot beside the screenshot
// when snapshot dumps are enabled. It returns the path written, or "".
func (c *Capture) DumpSnapshot(scenario models.Scenario, snap models.Snapshot) string {
	if !c.snapshotDumps || snap.Empty() {
		return ""
	}

	path := strings.TrimSuffix(c.PathFor(scenario), filepath.Ext(scenario.ArtifactName())) + ".md"

	content := c.toMarkdown(snap.Markup())
	if err := c.Write(path, []byte(content)); err != nil {
		c.logger.Warn().
			Str("scenario", scenario.Name).
			Err(err).
			Msg("Snapshot dump failed")
		return ""
	}
	return path
}

// Write creates parent directories and writes data, overwriting an existing file
func (c *Capture) Write(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return &ArtifactWriteError{Path: path, Err: err}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return &ArtifactWriteError{Path: path, Err: err}
	}
	return nil
}

// toMarkdown converts markup, falling back to the visible text when the
// converter fails or produces nothing
func (c *Capture) toMarkdown(markup string) string {
	converter := md.NewConverter(c.baseURL, true, nil)
	converted, err := converter.ConvertString(markup)
	if err != nil {
		c.logger.Debug().Err(err).Msg("HTML to markdown conversion failed, using visible text")
		return indicators.VisibleText(markup)
	}
	if strings.TrimSpace(converted) == "" {
		return indicators.VisibleText(markup)
	}
	return converted
}
