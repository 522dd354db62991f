package browser

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/chromedp/chromedp"
)

// ErrSessionClosed is returned by every operation on a closed session
var ErrSessionClosed = errors.New("browser session closed")

// NavigationError reports a target that was unreachable or never settled.
// It is fatal to a run.
type NavigationError struct {
	URL string
	Err error
}

func (e *NavigationError) Error() string {
	return fmt.Sprintf("navigation to %s failed: %v", e.URL, e.Err)
}

func (e *NavigationError) Unwrap() error {
	return e.Err
}

// ElementNotFoundError reports a chat control that matched none of its locators.
// It fails the current scenario only.
type ElementNotFoundError struct {
	Role       string // "chat input" or "send control"
	Candidates []string
}

func (e *ElementNotFoundError) Error() string {
	return fmt.Sprintf("%s not found (tried %s)", e.Role, strings.Join(e.Candidates, ", "))
}

// SessionError wraps a failure of the browser itself (crashed tab, closed target)
type SessionError struct {
	Op  string
	Err error
}

func (e *SessionError) Error() string {
	return fmt.Sprintf("browser session %s failed: %v", e.Op, e.Err)
}

func (e *SessionError) Unwrap() error {
	return e.Err
}

// IsNavigationError returns true if err is or wraps a NavigationError
func IsNavigationError(err error) bool {
	var navErr *NavigationError
	return errors.As(err, &navErr)
}

// IsElementNotFound returns true if err is or wraps an ElementNotFoundError
func IsElementNotFound(err error) bool {
	var notFound *ElementNotFoundError
	return errors.As(err, &notFound)
}

// IsSessionError returns true if err means the session can no longer be driven
func IsSessionError(err error) bool {
	if errors.Is(err, ErrSessionClosed) {
		return true
	}
	var sessionErr *SessionError
	return errors.As(err, &sessionErr)
}

// sessionGone reports whether a chromedp error means the tab or browser
// context is finished. A per-call timeout is not one of these: it surfaces as
// context.DeadlineExceeded and leaves the session usable.
func sessionGone(err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, ErrSessionClosed),
		errors.Is(err, context.Canceled),
		errors.Is(err, chromedp.ErrInvalidContext),
		errors.Is(err, chromedp.ErrInvalidTarget),
		errors.Is(err, chromedp.ErrChannelClosed):
		return true
	}
	return false
}
