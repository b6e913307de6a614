package utils

import (
	"fmt"
	"io"
	"os"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
)

// MessageType represents the type of output message
type MessageType int

const (
	InfoMessage MessageType = iota
	WarningMessage
	ErrorMessage
	SuccessMessage
	ProgressMessage
	DebugMessage
)

// OutputMessage represents a message to be displayed
type OutputMessage struct {
	Type    MessageType
	Content string
	Writer  io.Writer // fallback writer when not in TUI mode
	NoEmoji bool
}

// TUIMessageMsg is a Bubble Tea message for routing output to the TUI
type TUIMessageMsg struct {
	Message OutputMessage
}

// OutputManager manages all CLI output routing
type OutputManager struct {
	mu            sync.RWMutex
	tuiProgram    *tea.Program
	inTUIMode     bool
	messageQueue  []OutputMessage
	disableEmojis bool
	stdout        io.Writer
	stderr        io.Writer
}

var outputManager = &OutputManager{}

// SetTUIMode configures the output manager for TUI mode and flushes any
// messages queued before the program existed.
func SetTUIMode(program *tea.Program) {
	outputManager.mu.Lock()
	defer outputManager.mu.Unlock()
	outputManager.tuiProgram = program
	outputManager.inTUIMode = true

	for _, msg := range outputManager.messageQueue {
		if program != nil {
			program.Send(TUIMessageMsg{Message: msg})
		}
	}
	outputManager.messageQueue = nil
}

// ClearTUIMode disables TUI mode
func ClearTUIMode() {
	outputManager.mu.Lock()
	defer outputManager.mu.Unlock()
	outputManager.tuiProgram = nil
	outputManager.inTUIMode = false
	outputManager.messageQueue = nil
}

// SetEmojiEnabled controls whether emojis are added to output messages globally
func SetEmojiEnabled(enabled bool) {
	outputManager.mu.Lock()
	defer outputManager.mu.Unlock()
	outputManager.disableEmojis = !enabled
}

// SetOutputWriters redirects direct-mode output. Passing nil restores the
// process stdout/stderr.
func SetOutputWriters(stdout, stderr io.Writer) {
	outputManager.mu.Lock()
	defer outputManager.mu.Unlock()
	outputManager.stdout = stdout
	outputManager.stderr = stderr
}

func sendMessage(msgType MessageType, format string, args ...interface{}) {
	sendMessageWithOptions(msgType, false, format, args...)
}

func sendMessageWithOptions(msgType MessageType, noEmoji bool, format string, args ...interface{}) {
	content := fmt.Sprintf(format, args...)

	outputManager.mu.RLock()
	msg := OutputMessage{
		Type:    msgType,
		Content: content,
		Writer:  outputManager.writerFor(msgType),
		NoEmoji: noEmoji || outputManager.disableEmojis,
	}
	inTUI := outputManager.inTUIMode
	program := outputManager.tuiProgram
	outputManager.mu.RUnlock()

	if inTUI && program != nil {
		program.Send(TUIMessageMsg{Message: msg})
	} else if inTUI {
		outputManager.mu.Lock()
		outputManager.messageQueue = append(outputManager.messageQueue, msg)
		outputManager.mu.Unlock()
	} else {
		fmt.Fprint(msg.Writer, FormatMessage(msg))
	}
}

// writerFor must be called with mu held.
func (om *OutputManager) writerFor(msgType MessageType) io.Writer {
	switch msgType {
	case ErrorMessage, WarningMessage, DebugMessage:
		if om.stderr != nil {
			return om.stderr
		}
		return os.Stderr
	default:
		if om.stdout != nil {
			return om.stdout
		}
		return os.Stdout
	}
}

// OutputInfo sends an informational message
func OutputInfo(format string, args ...interface{}) {
	sendMessage(InfoMessage, format, args...)
}

// OutputInfoPlain sends an informational message without emoji
func OutputInfoPlain(format string, args ...interface{}) {
	sendMessageWithOptions(InfoMessage, true, format, args...)
}

// OutputWarning sends a warning message
func OutputWarning(format string, args ...interface{}) {
	sendMessage(WarningMessage, format, args...)
}

// OutputError sends an error message
func OutputError(format string, args ...interface{}) {
	sendMessage(ErrorMessage, format, args...)
}

// OutputSuccess sends a success message
func OutputSuccess(format string, args ...interface{}) {
	sendMessage(SuccessMessage, format, args...)
}

// OutputProgress sends a progress message
func OutputProgress(format string, args ...interface{}) {
	sendMessage(ProgressMessage, format, args...)
}

// FormatMessage prefixes a message with the emoji for its type.
func FormatMessage(msg OutputMessage) string {
	if msg.NoEmoji {
		return msg.Content
	}

	var prefix string
	switch msg.Type {
	case InfoMessage:
		prefix = "ℹ️"
	case WarningMessage:
		prefix = "⚠️"
	case ErrorMessage:
		prefix = "❌"
	case SuccessMessage:
		prefix = "✅"
	case ProgressMessage:
		prefix = "🔄"
	case DebugMessage:
		prefix = "🐛"
	}

	return fmt.Sprintf("%s  %s", prefix, msg.Content)
}
