// Package browser owns the Chrome process the harness drives: one allocator,
// one browsing context and one page per session, the console recorder
// attached to that page, and the chat driver that types into it.
package browser

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/chatprobe/internal/common"
	"github.com/ternarybob/chatprobe/internal/models"
)

// Session is one browser process + context + page.
// The runner is its only caller; methods are not meant for concurrent use.
type Session struct {
	ctx               context.Context
	config            common.BrowserConfig
	navigationTimeout time.Duration
	console           *ConsoleRecorder
	logger            arbor.ILogger

	mu      sync.Mutex
	closed  bool
	cleanup []func()
}

// Open launches Chrome and attaches the recorder to its page.
// The returned session must be closed by the caller; Open closes everything
// it started when it fails.
func Open(ctx context.Context, config common.BrowserConfig, console *ConsoleRecorder, logger arbor.ILogger) (*Session, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", config.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.WindowSize(config.WindowWidth, config.WindowHeight),
	)
	if config.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(config.ExecPath))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)

	s := &Session{
		ctx:               browserCtx,
		config:            config,
		navigationTimeout: config.NavigationTimeoutDuration(),
		console:           console,
		logger:            logger,
	}

	// LIFO: browser context first, then the allocator (kills the process)
	s.cleanup = append(s.cleanup, cancelAlloc)
	s.cleanup = append(s.cleanup, cancelBrowser)
	s.cleanup = append(s.cleanup, func() {
		if err := chromedp.Cancel(browserCtx); err != nil {
			logger.Debug().Err(err).Msg("Browser cancel returned an error")
		}
	})

	if console != nil {
		console.Attach(browserCtx)
	}

	startTime := time.Now()
	if err := chromedp.Run(browserCtx, page.SetLifecycleEventsEnabled(true)); err != nil {
		s.Close()
		return nil, &SessionError{Op: "open", Err: err}
	}

	logger.Info().
		Bool("headless", config.Headless).
		Int("width", config.WindowWidth).
		Int("height", config.WindowHeight).
		Dur("startup_time", time.Since(startTime)).
		Msg("Browser session opened")

	return s, nil
}

// Context returns the browsing context that chromedp actions run against
func (s *Session) Context() context.Context {
	return s.ctx
}

// Navigate loads url and blocks until the page reports network idle.
// Any failure, including the idle signal not arriving within the
// navigation timeout, is a NavigationError.
func (s *Session) Navigate(url string) error {
	if s.isClosed() {
		return &NavigationError{URL: url, Err: ErrSessionClosed}
	}

	ctx, cancel := context.WithTimeout(s.ctx, s.navigationTimeout)
	defer cancel()

	idleEvent := s.config.IdleEvent
	if idleEvent == "" {
		idleEvent = "networkIdle"
	}

	var tree *page.FrameTree
	if err := chromedp.Run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		tree, err = page.GetFrameTree().Do(ctx)
		return err
	})); err != nil {
		return &NavigationError{URL: url, Err: err}
	}

	idle := make(chan struct{}, 1)
	watcher := &lifecycleWatcher{frame: tree.Frame.ID, idleEvent: idleEvent}
	chromedp.ListenTarget(ctx, func(ev interface{}) {
		e, ok := ev.(*page.EventLifecycleEvent)
		if !ok || !watcher.observe(e) {
			return
		}
		select {
		case idle <- struct{}{}:
		default:
		}
	})

	startTime := time.Now()
	if err := chromedp.Run(ctx, chromedp.Navigate(url)); err != nil {
		return &NavigationError{URL: url, Err: err}
	}

	select {
	case <-idle:
	case <-ctx.Done():
		return &NavigationError{URL: url, Err: fmt.Errorf("%s not reached within %s", idleEvent, s.navigationTimeout)}
	}

	s.logger.Debug().
		Str("url", url).
		Dur("elapsed", time.Since(startTime)).
		Msg("Navigation settled")

	return nil
}

// lifecycleWatcher recognises the main frame reaching its idle event.
// Lifecycle events of the previous document can still arrive, so only an
// idle event after the new document's "init" counts. Subframes are ignored.
type lifecycleWatcher struct {
	frame     cdp.FrameID
	idleEvent string
	started   bool
}

func (w *lifecycleWatcher) observe(e *page.EventLifecycleEvent) bool {
	if e.FrameID != w.frame {
		return false
	}
	switch e.Name {
	case "init":
		w.started = true
	case w.idleEvent:
		return w.started
	}
	return false
}

// Content returns a snapshot of the current document markup
func (s *Session) Content() (models.Snapshot, error) {
	if s.isClosed() {
		return models.Snapshot{}, ErrSessionClosed
	}

	ctx, cancel := context.WithTimeout(s.ctx, s.navigationTimeout)
	defer cancel()

	var markup string
	if err := chromedp.Run(ctx, chromedp.OuterHTML("html", &markup, chromedp.ByQuery)); err != nil {
		return models.Snapshot{}, &SessionError{Op: "content", Err: err}
	}
	return models.NewSnapshot(markup, time.Now()), nil
}

// Screenshot captures the full scrollable page as PNG
func (s *Session) Screenshot() ([]byte, error) {
	if s.isClosed() {
		return nil, ErrSessionClosed
	}

	ctx, cancel := context.WithTimeout(s.ctx, s.navigationTimeout)
	defer cancel()

	var buf []byte
	// Quality 100 makes chromedp encode PNG
	if err := chromedp.Run(ctx, chromedp.FullScreenshot(&buf, 100)); err != nil {
		return nil, &SessionError{Op: "screenshot", Err: err}
	}
	return buf, nil
}

// Close tears the browser down and clears the console log. Safe to call more than once.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	cleanup := s.cleanup
	s.cleanup = nil
	s.mu.Unlock()

	for i := len(cleanup) - 1; i >= 0; i-- {
		cleanup[i]()
	}

	if s.console != nil {
		s.console.Reset()
	}

	s.logger.Info().Msg("Browser session closed")
}

func (s *Session) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
