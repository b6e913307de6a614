package utils

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
)

var (
	debugOnce   sync.Once
	debugFile   *os.File
	debugLogger *log.Logger
	enableDebug bool = false

	// NOTE: Order matters! More specific patterns should come before generic ones.
	sensitivePatterns = []struct {
		pattern     *regexp.Regexp
		replacement string
	}{
		// LiveKit access tokens are JWTs
		{regexp.MustCompile(`\beyJ[a-zA-Z0-9_-]+\.eyJ[a-zA-Z0-9_-]+\.[a-zA-Z0-9_-]+`), "[REDACTED-JWT]"},
		// LIVEKIT_API_SECRET=... / LIVEKIT_API_KEY=... as they appear in env dumps
		{regexp.MustCompile(`(?i)(livekit_api_(secret|key)[=:\s]+['"]?)[^\s'"]+`), "${1}[REDACTED]"},
		// Flags passed to lk
		{regexp.MustCompile(`(--api-(secret|key)[=\s]+)\S+`), "${1}[REDACTED]"},
		{regexp.MustCompile(`(?i)(authorization[=:\s]+['"]?)(Basic|Bearer|Digest)\s+[a-zA-Z0-9\-_\.=]+`), "${1}${2} [REDACTED]"},
		{regexp.MustCompile(`(?i)(bearer\s+)[a-zA-Z0-9\-_\.]+`), "${1}[REDACTED]"},
		{regexp.MustCompile(`(?i)(api[_-]?secret[=:\s]+['"]?)[a-zA-Z0-9\-_]{8,}`), "${1}[REDACTED]"},
		{regexp.MustCompile(`(?i)(api[_-]?key[=:\s]+['"]?)[a-zA-Z0-9\-_]{8,}`), "${1}[REDACTED]"},
		{regexp.MustCompile(`(?i)(password[=:\s]+['"]?)[^\s&'"]+`), "${1}[REDACTED]"},
		// Tokens (generic - keep after more specific token patterns)
		{regexp.MustCompile(`(?i)(token[=:\s]+['"]?)[a-zA-Z0-9\-_\.]{16,}`), "${1}[REDACTED]"},
	}
)

// InitDebugLogger initializes a shared file-backed logger and Bubble Tea logging.
// If path is empty, it defaults to "debug.log" in the effective working directory.
// Safe to call multiple times.
func InitDebugLogger(path string, debug bool) error {
	enableDebug = debug
	var initErr error
	debugOnce.Do(func() {
		if path == "" {
			path = filepath.Join(GetEffectiveCWD(), "debug.log")
		}

		if debug {
			absPath, err := filepath.Abs(path)
			if err != nil {
				absPath = path
			}
			fmt.Fprintf(os.Stderr, "[DEBUG] Logging to: %s\n", absPath)
		}

		f, err := tea.LogToFile(path, "debug")
		if err != nil {
			initErr = err
			return
		}
		debugFile = f
		debugLogger = log.New(io.MultiWriter(f), "", log.LstdFlags)
	})
	return initErr
}

// CloseDebugLogger closes the underlying debug log file if it was opened.
func CloseDebugLogger() {
	if debugFile != nil {
		_ = debugFile.Sync()
		_ = debugFile.Close()
	}
}

// ResetDebugLoggerForTesting resets the debug logger state so tests can
// reinitialize it with a different path. Only call this from tests.
func ResetDebugLoggerForTesting() {
	CloseDebugLogger()
	debugOnce = sync.Once{}
	debugFile = nil
	debugLogger = nil
	enableDebug = false
}

func sanitizeLogMessage(msg string) string {
	sanitized := msg
	for _, sp := range sensitivePatterns {
		sanitized = sp.pattern.ReplaceAllString(sanitized, sp.replacement)
	}
	return sanitized
}

// LogDebug writes a sanitized message to the debug log file. When debug mode
// is enabled the message is also routed through the output manager to stderr.
// Nothing is written unless the logger was initialized or DEBUG is set.
func LogDebug(msg string) {
	if debugLogger == nil {
		if !enableDebug && os.Getenv("DEBUG") == "" {
			return
		}
		if err := InitDebugLogger("", enableDebug); err != nil {
			fmt.Fprintf(os.Stderr, "failed to initialize debug logger: %v\n", err)
			return
		}
		if debugLogger == nil {
			return
		}
	}

	sanitized := sanitizeLogMessage(msg)
	debugLogger.Println(sanitized)

	if enableDebug {
		sendMessage(DebugMessage, "%s", sanitized)
	}
}
