package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/term"

	"github.com/outbound-caller/cli/cmd/config"
	"github.com/outbound-caller/cli/cmd/dispatch"
	"github.com/outbound-caller/cli/cmd/history"
	"github.com/outbound-caller/cli/cmd/liveness"
	"github.com/outbound-caller/cli/cmd/operator"
	"github.com/outbound-caller/cli/cmd/utils"
	uitk "github.com/outbound-caller/cli/internal/tui"
)

const (
	statusRefreshInterval = 5 * time.Second
	sidebarCalls          = 5
	maxLogLines           = 4
)

// dashboardBackend is the part of operator.Controller the dashboard uses.
type dashboardBackend interface {
	CheckAgent(ctx context.Context) liveness.Verdict
	Environment() config.Environment
	PlaceCall(ctx context.Context, req dispatch.Request, force bool) (*operator.CallOutcome, error)
	RecentCalls(ctx context.Context, n int) ([]history.Record, error)
	StartCommand() string
	NotRunningMessage() string
	EnvFile() string
}

type focusField int

const (
	focusPhone focusField = iota
	focusTransfer
	focusButton
	focusCount
)

type (
	agentStatusMsg struct {
		verdict liveness.Verdict
		env     config.Environment
		details *liveness.ProcessDetails
	}
	callPlacedMsg struct {
		outcome *operator.CallOutcome
		err     error
	}
	recentCallsMsg struct {
		calls []history.Record
		err   error
	}
	statusTickMsg  struct{}
	fileChangedMsg struct{ path string }
)

type dashboardModel struct {
	backend dashboardBackend

	phone    textinput.Model
	transfer textinput.Model
	focus    focusField
	spin     spinner.Model

	checking bool
	recheck  bool
	placing  bool
	verdict  *liveness.Verdict
	details  *liveness.ProcessDetails
	env      config.Environment
	recent   []history.Record

	message    string
	messageErr bool
	lastOutput string
	logLines   []string

	copy      func(string) error
	quickMenu uitk.QuickMenuModel
	toast     uitk.ToastModel
	width     int
	height    int
}

// howItWorks is shown in the quick menu and by `caller status`.
var howItWorks = []string{
	"Start the agent in another terminal so it can receive dispatches.",
	"Enter the phone number to call, with country code (e.g. +15551234567).",
	"Optionally enter a transfer number; it defaults to the number being called.",
	"Place Call asks the LiveKit dispatcher to create a room and send the agent into it.",
	"The agent dials out through the configured SIP trunk.",
}

func newDashboardModel(backend dashboardBackend) dashboardModel {
	phone := textinput.New()
	phone.Placeholder = "+15551234567"
	phone.Prompt = "📱 "
	phone.CharLimit = 32
	phone.Focus()

	transfer := textinput.New()
	transfer.Placeholder = "defaults to the number above"
	transfer.Prompt = "↪️  "
	transfer.CharLimit = 32

	s := spinner.New()
	s.Spinner = spinner.Dot

	start := backend.StartCommand()
	commands := []uitk.CommandItem{
		{Command: start, Description: "Start the voice agent (run it in the project directory)"},
		{Command: "caller status --verbose", Description: "Show which probe found the agent"},
		{Command: "caller history", Description: "List recent calls"},
		{Command: "lk dispatch list", Description: "List dispatches on the LiveKit server"},
	}
	help := append([]string{fmt.Sprintf("Start the agent: `%s`.", start)}, howItWorks[1:]...)

	width, height, _ := term.GetSize(os.Stdout.Fd())

	return dashboardModel{
		backend:   backend,
		phone:     phone,
		transfer:  transfer,
		spin:      s,
		checking:  true, // Init starts the first check
		copy:      clipboard.WriteAll,
		quickMenu: uitk.NewQuickMenuModel(commands, help),
		toast:     uitk.NewToastModel(),
		width:     width,
		height:    height,
	}
}

// runDashboard starts the Bubble Tea dashboard and blocks until it exits.
func runDashboard(ctx context.Context, ctrl *operator.Controller) error {
	m := newDashboardModel(ctrl)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))

	utils.SetTUIMode(p)
	defer utils.ClearTUIMode()

	watchCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	files := []string{ctrl.EnvFile(), utils.ResolvePath(ctrl.Config().Agent.PidFile)}
	if err := StartFileWatcher(watchCtx, files, func(path string) { p.Send(fileChangedMsg{path: path}) }); err != nil {
		utils.LogDebug(fmt.Sprintf("file watcher disabled: %v", err))
	}

	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("error running dashboard: %w", err)
	}
	return nil
}

func (m dashboardModel) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spin.Tick, checkAgentCmd(m.backend), loadRecentCmd(m.backend), statusTick())
}

func statusTick() tea.Cmd {
	return tea.Tick(statusRefreshInterval, func(time.Time) tea.Msg { return statusTickMsg{} })
}

func checkAgentCmd(b dashboardBackend) tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		v := b.CheckAgent(ctx)
		msg := agentStatusMsg{verdict: v, env: b.Environment()}
		if v.Running && v.PID > 0 {
			if d, err := liveness.DescribeProcess(ctx, v.PID); err == nil {
				msg.details = d
			}
		}
		return msg
	}
}

func loadRecentCmd(b dashboardBackend) tea.Cmd {
	return func() tea.Msg {
		calls, err := b.RecentCalls(context.Background(), 0)
		return recentCallsMsg{calls: calls, err: err}
	}
}

func placeCallCmd(b dashboardBackend, req dispatch.Request) tea.Cmd {
	return func() tea.Msg {
		out, err := b.PlaceCall(context.Background(), req, false)
		return callPlacedMsg{outcome: out, err: err}
	}
}

// requestCheck starts a liveness check unless one is already running.
func (m *dashboardModel) requestCheck() tea.Cmd {
	if m.checking {
		return nil
	}
	m.checking = true
	return checkAgentCmd(m.backend)
}

func (m dashboardModel) canPlace() bool {
	return strings.TrimSpace(m.phone.Value()) != "" && !m.placing
}

func (m *dashboardModel) setFocus(f focusField) {
	m.focus = (f + focusCount) % focusCount
	m.phone.Blur()
	m.transfer.Blur()
	switch m.focus {
	case focusPhone:
		m.phone.Focus()
	case focusTransfer:
		m.transfer.Focus()
	}
}

func (m *dashboardModel) setMessage(text string, isErr bool) {
	m.message = text
	m.messageErr = isErr
}

func (m dashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd

	wasMenu := m.quickMenu.IsActive()
	m.quickMenu, cmd = m.quickMenu.Update(msg)
	cmds = append(cmds, cmd)
	m.toast, cmd = m.toast.Update(msg)
	cmds = append(cmds, cmd)
	m.spin, cmd = m.spin.Update(msg)
	cmds = append(cmds, cmd)

	if _, isKey := msg.(tea.KeyMsg); isKey && wasMenu {
		return m, tea.Batch(cmds...)
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "ctrl+k":
			m.quickMenu.Toggle()
			return m, tea.Batch(cmds...)
		case "ctrl+r":
			cmds = append(cmds, m.requestCheck(), loadRecentCmd(m.backend))
			return m, tea.Batch(cmds...)
		case "ctrl+y":
			if m.lastOutput == "" {
				cmds = append(cmds, uitk.ShowToast("Nothing to copy yet"))
			} else if err := m.copy(m.lastOutput); err != nil {
				cmds = append(cmds, uitk.ShowErrorToast("Clipboard unavailable: "+err.Error()))
			} else {
				cmds = append(cmds, uitk.ShowToast("Copied dispatcher output"))
			}
			return m, tea.Batch(cmds...)
		case "tab", "down":
			m.setFocus(m.focus + 1)
			return m, tea.Batch(cmds...)
		case "shift+tab", "up":
			m.setFocus(m.focus - 1)
			return m, tea.Batch(cmds...)
		case "esc":
			m.setMessage("", false)
			return m, tea.Batch(cmds...)
		case "enter":
			if !m.canPlace() {
				return m, tea.Batch(cmds...)
			}
			m.placing = true
			m.setMessage("", false)
			req := dispatch.Request{PhoneNumber: m.phone.Value(), TransferTo: m.transfer.Value()}
			cmds = append(cmds, placeCallCmd(m.backend, req))
			return m, tea.Batch(cmds...)
		}

	case statusTickMsg:
		cmds = append(cmds, m.requestCheck(), statusTick())

	case fileChangedMsg:
		if m.checking {
			m.recheck = true
		} else {
			cmds = append(cmds, m.requestCheck())
		}

	case agentStatusMsg:
		m.checking = false
		if m.recheck {
			m.recheck = false
			cmds = append(cmds, m.requestCheck())
		}
		v := msg.verdict
		m.verdict = &v
		m.env = msg.env
		m.details = msg.details

	case recentCallsMsg:
		if msg.err != nil {
			utils.LogDebug(fmt.Sprintf("failed to load call history: %v", msg.err))
		} else {
			m.recent = msg.calls
			m.quickMenu.SetCalls(callItems(msg.calls))
		}

	case callPlacedMsg:
		m.placing = false
		switch {
		case errors.Is(msg.err, operator.ErrAgentNotRunning):
			m.setMessage(m.backend.NotRunningMessage(), true)
			cmds = append(cmds, m.requestCheck())
		case msg.err != nil:
			m.setMessage("Error: "+msg.err.Error(), true)
		default:
			res := msg.outcome.Result
			m.lastOutput = strings.TrimSpace(res.Stdout + "\n" + res.Stderr)
			m.setMessage(msg.outcome.Message(), !res.Success)
			if res.Success && res.Warning != "" {
				cmds = append(cmds, uitk.ShowToast(res.Warning))
			}
			cmds = append(cmds, loadRecentCmd(m.backend))
		}

	case uitk.RedialMsg:
		m.phone.SetValue(msg.PhoneNumber)
		transfer := msg.TransferTo
		if transfer == msg.PhoneNumber {
			transfer = ""
		}
		m.transfer.SetValue(transfer)
		m.setFocus(focusButton)

	case utils.TUIMessageMsg:
		line := strings.TrimSpace(utils.FormatMessage(msg.Message))
		if line != "" {
			m.logLines = append(m.logLines, line)
			if len(m.logLines) > maxLogLines {
				m.logLines = m.logLines[len(m.logLines)-maxLogLines:]
			}
		}
	}

	if _, isKey := msg.(tea.KeyMsg); isKey || !isInternalMsg(msg) {
		switch m.focus {
		case focusPhone:
			m.phone, cmd = m.phone.Update(msg)
			cmds = append(cmds, cmd)
		case focusTransfer:
			m.transfer, cmd = m.transfer.Update(msg)
			cmds = append(cmds, cmd)
		}
	}

	return m, tea.Batch(cmds...)
}

func isInternalMsg(msg tea.Msg) bool {
	switch msg.(type) {
	case agentStatusMsg, callPlacedMsg, recentCallsMsg, statusTickMsg, fileChangedMsg, utils.TUIMessageMsg:
		return true
	}
	return false
}

func callItems(records []history.Record) []uitk.CallItem {
	items := make([]uitk.CallItem, len(records))
	for i, r := range records {
		items[i] = uitk.CallItem{
			PhoneNumber: r.PhoneNumber,
			TransferTo:  r.TransferTo,
			PlacedAt:    r.PlacedAt,
			Success:     r.Success,
		}
	}
	return items
}

var (
	dashAccent     = lipgloss.Color("86")
	dashTitleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#ffffff")).Background(lipgloss.Color("#027ffd")).Padding(0, 1)
	dashLabelStyle = lipgloss.NewStyle().Bold(true)
	dashDimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	dashOKStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	dashErrStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("160")).Bold(true)
	dashPanelStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(dashAccent).Padding(0, 1)
	dashButtonOn   = lipgloss.NewStyle().Foreground(lipgloss.Color("#000000")).Background(dashAccent).Bold(true).Padding(0, 2)
	dashButtonOff  = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Background(lipgloss.Color("236")).Padding(0, 2)
)

func (m dashboardModel) View() string {
	if m.quickMenu.IsActive() {
		return m.quickMenu.View()
	}

	width := m.width
	if width <= 0 {
		width = 100
	}
	sideWidth := 38
	formWidth := width - sideWidth - 6
	if formWidth < 30 {
		formWidth = 30
	}

	var b strings.Builder
	b.WriteString(dashTitleStyle.Render("📞 Outbound Caller"))
	b.WriteString("\n\n")

	form := dashPanelStyle.Width(formWidth).Render(m.renderForm())
	side := dashPanelStyle.Width(sideWidth).Render(m.renderSidebar())
	if width < formWidth+sideWidth+6 {
		b.WriteString(lipgloss.JoinVertical(lipgloss.Left, form, side))
	} else {
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, form, " ", side))
	}
	b.WriteString("\n")

	for _, l := range m.logLines {
		b.WriteString(dashDimStyle.Render(utils.Truncate(l, width-2)) + "\n")
	}
	b.WriteString(dashDimStyle.Render("tab: next field  enter: place call  ctrl+r: refresh  ctrl+k: menu  ctrl+y: copy output  ctrl+c: quit"))

	if v := m.toast.View(); v != "" {
		b.WriteString("\n")
		b.WriteString(v)
	}
	return b.String()
}

func (m dashboardModel) renderForm() string {
	var b strings.Builder
	b.WriteString(dashLabelStyle.Render("Phone Number") + "\n")
	b.WriteString(m.phone.View() + "\n\n")
	b.WriteString(dashLabelStyle.Render("Transfer To") + dashDimStyle.Render(" (optional)") + "\n")
	b.WriteString(m.transfer.View() + "\n\n")

	label := "Place Call"
	if m.placing {
		label = m.spin.View() + " Placing call..."
	}
	button := dashButtonOff.Render(label)
	if m.canPlace() {
		button = dashButtonOn.Render(label)
	}
	if m.focus == focusButton {
		button = "▶ " + button
	}
	b.WriteString(button)

	if m.message != "" {
		b.WriteString("\n\n")
		if m.messageErr {
			b.WriteString(dashErrStyle.Render("❌ ") + m.message)
		} else {
			b.WriteString(dashOKStyle.Render("✅ " + m.message))
		}
	}
	return b.String()
}

func (m dashboardModel) renderSidebar() string {
	var b strings.Builder
	b.WriteString(dashLabelStyle.Render("Agent Status") + "\n")
	switch {
	case m.verdict == nil:
		b.WriteString(m.spin.View() + " Checking...\n")
	case m.verdict.Running:
		b.WriteString(dashOKStyle.Render("🟢 Running") + "\n")
		if m.verdict.DecidedBy != "" {
			b.WriteString(dashDimStyle.Render("detected by "+m.verdict.DecidedBy) + "\n")
		}
		if m.details != nil {
			b.WriteString(dashDimStyle.Render(fmt.Sprintf("pid %d, up %s", m.details.PID, m.details.Uptime(time.Now()))) + "\n")
		}
	default:
		b.WriteString(dashErrStyle.Render("🔴 Not Running") + "\n")
		if strings.HasPrefix(m.verdict.Reason, "Error checking agent status") {
			b.WriteString(dashDimStyle.Render(m.verdict.Reason) + "\n")
		}
		b.WriteString(fmt.Sprintf("Start it with:\n  %s\n", m.backend.StartCommand()))
	}
	if m.checking && m.verdict != nil {
		b.WriteString(dashDimStyle.Render(m.spin.View()+" refreshing") + "\n")
	}

	b.WriteString("\n" + dashLabelStyle.Render("Configuration") + "\n")
	b.WriteString("LiveKit URL: " + config.DisplayValue(m.env.LiveKitURL) + "\n")
	b.WriteString("SIP Trunk ID: " + config.DisplayValue(m.env.SIPTrunkID) + "\n")
	envHint := config.DefaultEnvFile
	if f := m.backend.EnvFile(); f != "" {
		envHint = f
	}
	b.WriteString(dashDimStyle.Render("Set these in "+envHint) + "\n")

	b.WriteString("\n" + dashLabelStyle.Render("Recent Calls") + "\n")
	if len(m.recent) == 0 {
		b.WriteString(dashDimStyle.Render("No calls yet"))
	}
	for i, r := range m.recent {
		if i == sidebarCalls {
			break
		}
		icon := utils.IconForStatus("success")
		if !r.Success {
			icon = utils.IconForStatus("failed")
		}
		b.WriteString(fmt.Sprintf("%s %s %s\n", icon, r.PhoneNumber, dashDimStyle.Render(r.PlacedAt.Local().Format("15:04"))))
	}
	return strings.TrimRight(b.String(), "\n")
}
