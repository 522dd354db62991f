package models

import (
	"strings"
	"time"

	"github.com/phuslu/log"
)

// ConsoleEntry is one message emitted on the page's console channel
type ConsoleEntry struct {
	Level   log.Level `json:"level"`
	Type    string    `json:"type"` // Raw channel type: log, info, warning, error, exception...
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// ConsoleTypeException marks an uncaught page exception. Exceptions are not
// console API messages: they count as errors but not towards the message total.
const ConsoleTypeException = "exception"

// IsException reports whether the entry is an uncaught exception
func (e ConsoleEntry) IsException() bool {
	return e.Type == ConsoleTypeException
}

// IsError reports whether the entry counts towards the console error excerpt:
// error severity, or any message mentioning "error".
func (e ConsoleEntry) IsError() bool {
	if e.Level >= log.ErrorLevel {
		return true
	}
	return strings.Contains(strings.ToLower(e.Message), "error")
}

// String renders the entry the way the console excerpt prints it
func (e ConsoleEntry) String() string {
	return "[" + e.Type + "] " + e.Message
}
