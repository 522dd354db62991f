// -----------------------------------------------------------------------
// Crash Protection - Fatal error handling and crash file generation
// -----------------------------------------------------------------------

package common

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"
)

// CrashLogDir is the directory where crash files will be written
var CrashLogDir = "./logs"

// InstallCrashHandler sets the crash file directory. Call it once the
// logging configuration is known.
func InstallCrashHandler(logDir string) {
	if logDir != "" {
		CrashLogDir = logDir
	}
}

// CrashReport renders the crash file body
func CrashReport(panicVal interface{}, stackTrace string, at time.Time) string {
	var b strings.Builder

	b.WriteString("=== CHATPROBE CRASH REPORT ===\n")
	fmt.Fprintf(&b, "Time: %s\n", at.Format(time.RFC3339))
	fmt.Fprintf(&b, "Version: %s\n\n", GetFullVersion())

	b.WriteString("=== PANIC VALUE ===\n")
	fmt.Fprintf(&b, "%v\n\n", panicVal)

	b.WriteString("=== STACK TRACE ===\n")
	b.WriteString(stackTrace)
	b.WriteString("\n")

	b.WriteString("=== RUNTIME ===\n")
	fmt.Fprintf(&b, "NumGoroutine: %d\n", runtime.NumGoroutine())
	fmt.Fprintf(&b, "GOOS/GOARCH: %s/%s\n", runtime.GOOS, runtime.GOARCH)
	b.WriteString("=== END CRASH REPORT ===\n")

	return b.String()
}

// WriteCrashFile writes a crash report to CrashLogDir and returns its path.
// Falls back to stderr when the file cannot be written.
func WriteCrashFile(panicVal interface{}, stackTrace string) string {
	now := time.Now()
	report := CrashReport(panicVal, stackTrace, now)
	crashPath := filepath.Join(CrashLogDir, fmt.Sprintf("crash-%s.log", now.Format("2006-01-02T15-04-05")))

	if err := os.MkdirAll(CrashLogDir, 0755); err == nil {
		err = os.WriteFile(crashPath, []byte(report), 0644)
		if err == nil {
			fmt.Fprintf(os.Stderr, "\n!!! FATAL CRASH - Report saved to: %s !!!\n", crashPath)
			return crashPath
		}
		fmt.Fprintf(os.Stderr, "CRASH: Failed to write crash file: %v\n", err)
	}

	fmt.Fprint(os.Stderr, report)
	return ""
}

// GetStackTrace returns the current goroutine's stack trace
func GetStackTrace() string {
	buf := make([]byte, 8192)
	n := runtime.Stack(buf, false)
	return string(buf[:n])
}

// RecoverWithCrashFile is a helper for deferred panic recovery that writes a
// crash file and exits. Usage: defer common.RecoverWithCrashFile()
func RecoverWithCrashFile() {
	if r := recover(); r != nil {
		WriteCrashFile(r, GetStackTrace())
		os.Exit(2)
	}
}
