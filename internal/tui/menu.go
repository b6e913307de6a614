package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type MenuTab int

const (
	CallsTab MenuTab = iota
	CommandsTab
	HelpTab
	menuTabCount
)

// CallItem is one row of the Recent Calls tab.
type CallItem struct {
	PhoneNumber string
	TransferTo  string
	PlacedAt    time.Time
	Success     bool
}

// CommandItem is a shell command the operator can copy.
type CommandItem struct {
	Command     string
	Description string
}

// RedialMsg is sent when a recent call is chosen; the dashboard refills its
// form from it.
type RedialMsg struct {
	PhoneNumber string
	TransferTo  string
}

// QuickMenuModel is the ctrl+k overlay: recent calls, copyable commands and
// the "How it works" text.
type QuickMenuModel struct {
	active    bool
	activeTab MenuTab
	cursorPos int
	width     int
	height    int

	calls    []CallItem
	commands []CommandItem
	help     []string

	// copy is swapped in tests; the real clipboard needs a display.
	copy func(string) error

	focusedStyle   lipgloss.Style
	dimmedStyle    lipgloss.Style
	headerStyle    lipgloss.Style
	hintStyle      lipgloss.Style
	borderStyle    lipgloss.Style
	tabStyle       lipgloss.Style
	activeTabStyle lipgloss.Style
	okStyle        lipgloss.Style
	failStyle      lipgloss.Style
	accentColor    lipgloss.Color
}

// NewQuickMenuModel builds the menu. commands and help are static for the
// lifetime of the dashboard; calls are refreshed with SetCalls.
func NewQuickMenuModel(commands []CommandItem, help []string) QuickMenuModel {
	m := QuickMenuModel{
		commands: commands,
		help:     help,
		copy:     clipboard.WriteAll,
	}
	m.accentColor = lipgloss.Color("86")
	m.focusedStyle = lipgloss.NewStyle().Foreground(m.accentColor).Bold(true)
	m.dimmedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	m.headerStyle = lipgloss.NewStyle().Bold(true).Foreground(m.accentColor)
	m.hintStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	m.borderStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(m.accentColor).Padding(1, 2)
	m.tabStyle = lipgloss.NewStyle().Padding(0, 2).Foreground(lipgloss.Color("245"))
	m.activeTabStyle = lipgloss.NewStyle().Padding(0, 2).Foreground(lipgloss.Color("#000000")).Background(m.accentColor).Bold(true)
	m.okStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	m.failStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("160"))
	return m
}

// SetCopyFunc replaces the clipboard writer.
func (m *QuickMenuModel) SetCopyFunc(fn func(string) error) { m.copy = fn }

// SetCalls replaces the Recent Calls rows.
func (m *QuickMenuModel) SetCalls(calls []CallItem) {
	m.calls = calls
	if m.activeTab == CallsTab && m.cursorPos > m.maxCursorPos() {
		m.cursorPos = m.maxCursorPos()
	}
}

func (m QuickMenuModel) Update(msg tea.Msg) (QuickMenuModel, tea.Cmd) {
	if ws, ok := msg.(tea.WindowSizeMsg); ok {
		m.width = ws.Width
		m.height = ws.Height
		return m, nil
	}
	if !m.active {
		return m, nil
	}

	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "esc", "ctrl+k":
		m.active = false
	case "ctrl+c":
		return m, tea.Quit
	case "tab", "right":
		m.activeTab = (m.activeTab + 1) % menuTabCount
		m.cursorPos = 0
	case "shift+tab", "left":
		m.activeTab = (m.activeTab - 1 + menuTabCount) % menuTabCount
		m.cursorPos = 0
	case "up", "k":
		if m.cursorPos > 0 {
			m.cursorPos--
		} else {
			m.cursorPos = m.maxCursorPos()
		}
	case "down", "j":
		if m.cursorPos < m.maxCursorPos() {
			m.cursorPos++
		} else {
			m.cursorPos = 0
		}
	case "enter":
		return m.handleSelection()
	}
	return m, nil
}

func (m QuickMenuModel) maxCursorPos() int {
	var n int
	switch m.activeTab {
	case CallsTab:
		n = len(m.calls)
	case CommandsTab:
		n = len(m.commands)
	}
	if n == 0 {
		return 0
	}
	return n - 1
}

func (m QuickMenuModel) handleSelection() (QuickMenuModel, tea.Cmd) {
	switch m.activeTab {
	case CallsTab:
		if m.cursorPos < len(m.calls) {
			c := m.calls[m.cursorPos]
			m.active = false
			return m, tea.Batch(
				func() tea.Msg { return RedialMsg{PhoneNumber: c.PhoneNumber, TransferTo: c.TransferTo} },
				ShowToast("Loaded "+c.PhoneNumber),
			)
		}
	case CommandsTab:
		if m.cursorPos < len(m.commands) {
			cmd := m.commands[m.cursorPos].Command
			if err := m.copy(cmd); err != nil {
				return m, ShowErrorToast("Clipboard unavailable: " + err.Error())
			}
			return m, ShowToast("Copied: " + cmd)
		}
	}
	return m, nil
}

func (m QuickMenuModel) View() string {
	if !m.active {
		return ""
	}
	menuWidth := 64
	var content strings.Builder
	header := m.headerStyle.Render("📞 Outbound Caller")
	closeHint := m.hintStyle.Render("[ESC to close]")
	pad := menuWidth - lipgloss.Width(header) - lipgloss.Width(closeHint) - 4
	if pad < 1 {
		pad = 1
	}
	content.WriteString(header + strings.Repeat(" ", pad) + closeHint + "\n")
	content.WriteString(strings.Repeat("─", menuWidth-4) + "\n\n")
	content.WriteString(m.renderTabBar() + "\n\n")
	switch m.activeTab {
	case CallsTab:
		content.WriteString(m.renderCallsTab())
	case CommandsTab:
		content.WriteString(m.renderCommandsTab(menuWidth - 26))
	case HelpTab:
		content.WriteString(m.renderHelpTab(menuWidth - 8))
	}
	content.WriteString("\n" + strings.Repeat("─", menuWidth-4) + "\n")
	content.WriteString(m.renderFooter())
	box := m.borderStyle.Width(menuWidth).Render(content.String())
	return m.positionMenu(box)
}

func (m QuickMenuModel) renderTabBar() string {
	tabs := []string{"Recent Calls", "Commands", "How it works"}
	sep := lipgloss.NewStyle().Foreground(lipgloss.Color("238")).Render("|")
	pieces := make([]string, 0, len(tabs)*2)
	for i, tab := range tabs {
		if i > 0 {
			pieces = append(pieces, sep)
		}
		if MenuTab(i) == m.activeTab {
			pieces = append(pieces, m.activeTabStyle.Render(tab))
		} else {
			pieces = append(pieces, m.tabStyle.Render(tab))
		}
	}
	return strings.Join(pieces, " ")
}

func (m QuickMenuModel) cursor(i int) string {
	if i == m.cursorPos {
		return "→ "
	}
	return "  "
}

func (m QuickMenuModel) renderCallsTab() string {
	if len(m.calls) == 0 {
		return m.dimmedStyle.Render("  No calls placed yet") + "\n"
	}
	var s strings.Builder
	for i, c := range m.calls {
		mark := m.okStyle.Render("✓")
		if !c.Success {
			mark = m.failStyle.Render("✗")
		}
		when := c.PlacedAt.Local().Format("Jan 02 15:04")
		line := fmt.Sprintf("%s%s %-16s %s", m.cursor(i), mark, c.PhoneNumber, m.dimmedStyle.Render(when))
		if c.TransferTo != "" && c.TransferTo != c.PhoneNumber {
			line += m.dimmedStyle.Render(" → " + c.TransferTo)
		}
		if i == m.cursorPos {
			line = m.focusedStyle.Render(line)
		}
		s.WriteString(line + "\n")
	}
	return s.String()
}

func (m QuickMenuModel) renderCommandsTab(descWidth int) string {
	var s strings.Builder
	s.WriteString(m.hintStyle.Render("Enter: copy to clipboard") + "\n")
	for i, cmd := range m.commands {
		text := cmd.Command
		if i == m.cursorPos {
			text = m.focusedStyle.Render(text)
		} else {
			text = lipgloss.NewStyle().Foreground(m.accentColor).Render(text)
		}
		desc := wrapText(cmd.Description, descWidth)
		s.WriteString(fmt.Sprintf("%s%s\n", m.cursor(i), text))
		for _, d := range desc {
			s.WriteString("    " + m.dimmedStyle.Render(d) + "\n")
		}
	}
	return s.String()
}

func (m QuickMenuModel) renderHelpTab(width int) string {
	var s strings.Builder
	for i, step := range m.help {
		lines := wrapText(step, width-4)
		for j, l := range lines {
			if j == 0 {
				s.WriteString(fmt.Sprintf("%d. %s\n", i+1, l))
			} else {
				s.WriteString("   " + l + "\n")
			}
		}
	}
	return s.String()
}

func (m QuickMenuModel) renderFooter() string {
	var shortcuts []string
	switch m.activeTab {
	case CallsTab:
		shortcuts = []string{"↑↓: select", "Enter: redial", "Tab: next", "ESC: close"}
	case CommandsTab:
		shortcuts = []string{"↑↓: select", "Enter: copy", "Tab: next", "ESC: close"}
	default:
		shortcuts = []string{"Tab: next", "ESC: close"}
	}
	return m.hintStyle.Render(strings.Join(shortcuts, "  "))
}

func (m QuickMenuModel) positionMenu(content string) string {
	lines := strings.Split(content, "\n")
	contentWidth := 0
	for _, line := range lines {
		if w := lipgloss.Width(line); w > contentWidth {
			contentWidth = w
		}
	}
	topPadding := 0
	if m.height > 0 {
		topPadding = max((m.height-len(lines))/2, 0)
	}
	leftPadding := max((m.width-contentWidth)/2, 0)

	var result strings.Builder
	result.WriteString(strings.Repeat("\n", topPadding))
	for _, line := range lines {
		result.WriteString(strings.Repeat(" ", leftPadding))
		result.WriteString(line)
		result.WriteString("\n")
	}
	return result.String()
}

func wrapText(text string, width int) []string {
	if width <= 0 || len(text) <= width {
		return []string{text}
	}
	var lines []string
	current := ""
	for _, word := range strings.Fields(text) {
		if current == "" {
			current = word
		} else if len(current)+len(word)+1 <= width {
			current += " " + word
		} else {
			lines = append(lines, current)
			current = word
		}
	}
	if current != "" {
		lines = append(lines, current)
	}
	return lines
}

func (m *QuickMenuModel) Toggle() {
	m.active = !m.active
	if m.active {
		m.activeTab = CallsTab
		m.cursorPos = 0
	}
}

func (m *QuickMenuModel) Open(tab MenuTab) {
	m.active = true
	m.activeTab = tab
	m.cursorPos = 0
}

func (m *QuickMenuModel) Close() { m.active = false }

func (m QuickMenuModel) IsActive() bool { return m.active }

func (m QuickMenuModel) ActiveTab() MenuTab { return m.activeTab }
