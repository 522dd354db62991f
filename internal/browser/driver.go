package browser

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/chromedp"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/chatprobe/internal/common"
)

// Locator is one structural pattern for a chat control.
// CSS selectors use querySelectorAll; XPath locators use DOM search.
type Locator struct {
	Selector string
	XPath    bool
}

func (l Locator) String() string {
	if l.XPath {
		return "xpath:" + l.Selector
	}
	return l.Selector
}

// Default locators in priority order: the labeled control first, then the generic fallback
var (
	DefaultInputLocators = []Locator{
		{Selector: `textarea[placeholder*="message" i]`},
		{Selector: `input[placeholder*="message" i]`},
		{Selector: `textarea`},
	}
	DefaultSendLocators = []Locator{
		{Selector: `button[type="submit"]`},
		{Selector: `button[aria-label*="send" i]`},
		{Selector: `//button[contains(translate(normalize-space(.), "SEND", "send"), "send")]`, XPath: true},
	}
)

// pageOps is the DOM surface the driver needs
type pageOps interface {
	Query(locator Locator) ([]cdp.NodeID, error)
	Fill(node cdp.NodeID, text string) error
	Click(node cdp.NodeID) error
}

// Driver finds the chat controls on the current page and submits messages.
// It keeps no element handles: every Submit locates the controls again, so
// a navigation never leaves it pointing at a detached node.
type Driver struct {
	page          pageOps
	inputs        []Locator
	sends         []Locator
	locateTimeout time.Duration
	pollInterval  time.Duration
	logger        arbor.ILogger
}

// NewDriver creates a driver bound to the session's page
func NewDriver(session *Session, config common.DriverConfig, logger arbor.ILogger) *Driver {
	page := &chromedpPage{ctx: session.Context(), timeout: config.LocateTimeoutDuration()}
	return newDriver(page, config, logger)
}

func newDriver(page pageOps, config common.DriverConfig, logger arbor.ILogger) *Driver {
	return &Driver{
		page:          page,
		inputs:        locatorsOrDefault(config.InputSelectors, DefaultInputLocators),
		sends:         locatorsOrDefault(config.SendSelectors, DefaultSendLocators),
		locateTimeout: config.LocateTimeoutDuration(),
		pollInterval:  config.PollIntervalDuration(),
		logger:        logger,
	}
}

// LocateInput returns the first node matched by the input locators
func (d *Driver) LocateInput(ctx context.Context) (cdp.NodeID, error) {
	return d.locate(ctx, "chat input", d.inputs)
}

// LocateSend returns the first node matched by the send locators
func (d *Driver) LocateSend(ctx context.Context) (cdp.NodeID, error) {
	return d.locate(ctx, "send control", d.sends)
}

// Submit fills the chat input with text and activates the send control.
// It returns as soon as the click is dispatched; waiting for the reply is
// the caller's job.
func (d *Driver) Submit(ctx context.Context, text string) error {
	input, err := d.LocateInput(ctx)
	if err != nil {
		return err
	}
	if err := d.page.Fill(input, text); err != nil {
		if sessionGone(err) {
			return &SessionError{Op: "fill", Err: err}
		}
		return fmt.Errorf("failed to fill chat input: %w", err)
	}

	// Located after filling: many chat UIs render or enable the button only once there is text
	send, err := d.LocateSend(ctx)
	if err != nil {
		return err
	}
	if err := d.page.Click(send); err != nil {
		if sessionGone(err) {
			return &SessionError{Op: "click", Err: err}
		}
		return fmt.Errorf("failed to click send control: %w", err)
	}

	d.logger.Debug().
		Int("length", len(text)).
		Msg("Chat message submitted")

	return nil
}

// locate polls the locators in priority order until one matches or the
// locate timeout elapses. Within a round the first locator with a match wins.
// A query error from a dead tab ends the search at once as a SessionError.
func (d *Driver) locate(ctx context.Context, role string, locators []Locator) (cdp.NodeID, error) {
	deadline := time.Now().Add(d.locateTimeout)

	for {
		for _, locator := range locators {
			nodes, err := d.page.Query(locator)
			if err != nil {
				if sessionGone(err) {
					return 0, &SessionError{Op: "locate", Err: err}
				}
				d.logger.Debug().
					Str("locator", locator.String()).
					Err(err).
					Msg("Locator query failed")
				continue
			}
			if len(nodes) > 0 {
				d.logger.Debug().
					Str("role", role).
					Str("locator", locator.String()).
					Msg("Chat control located")
				return nodes[0], nil
			}
		}

		if !time.Now().Before(deadline) {
			return 0, &ElementNotFoundError{Role: role, Candidates: locatorStrings(locators)}
		}

		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-time.After(d.pollInterval):
		}
	}
}

func locatorsOrDefault(selectors []string, defaults []Locator) []Locator {
	if len(selectors) == 0 {
		return defaults
	}
	locators := make([]Locator, 0, len(selectors))
	for _, selector := range selectors {
		locators = append(locators, ParseLocator(selector))
	}
	return locators
}

// ParseLocator reads a configured selector; an "xpath:" prefix or a leading
// "//" selects XPath.
func ParseLocator(selector string) Locator {
	switch {
	case strings.HasPrefix(selector, "xpath:"):
		return Locator{Selector: strings.TrimPrefix(selector, "xpath:"), XPath: true}
	case strings.HasPrefix(selector, "//"):
		return Locator{Selector: selector, XPath: true}
	default:
		return Locator{Selector: selector}
	}
}

func locatorStrings(locators []Locator) []string {
	out := make([]string, len(locators))
	for i, locator := range locators {
		out[i] = locator.String()
	}
	return out
}

// chromedpPage runs the DOM operations against a live tab.
// Each call is bounded by timeout on the tab context.
type chromedpPage struct {
	ctx     context.Context
	timeout time.Duration
}

func (p *chromedpPage) Query(locator Locator) ([]cdp.NodeID, error) {
	if err := p.ctx.Err(); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(p.ctx, p.timeout)
	defer cancel()

	by := chromedp.ByQueryAll
	if locator.XPath {
		by = chromedp.BySearch
	}

	var nodes []*cdp.Node
	if err := chromedp.Run(ctx, chromedp.Nodes(locator.Selector, &nodes, by, chromedp.AtLeast(0))); err != nil {
		return nil, err
	}

	ids := make([]cdp.NodeID, 0, len(nodes))
	for _, node := range nodes {
		ids = append(ids, node.NodeID)
	}
	return ids, nil
}

func (p *chromedpPage) Fill(node cdp.NodeID, text string) error {
	ctx, cancel := context.WithTimeout(p.ctx, p.timeout)
	defer cancel()

	ids := []cdp.NodeID{node}
	return chromedp.Run(ctx,
		chromedp.Focus(ids, chromedp.ByNodeID),
		chromedp.Clear(ids, chromedp.ByNodeID),
		chromedp.SendKeys(ids, text, chromedp.ByNodeID),
	)
}

func (p *chromedpPage) Click(node cdp.NodeID) error {
	ctx, cancel := context.WithTimeout(p.ctx, p.timeout)
	defer cancel()

	return chromedp.Run(ctx, chromedp.Click([]cdp.NodeID{node}, chromedp.ByNodeID))
}
