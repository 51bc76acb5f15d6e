package main

import (
	"context"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	callsession "github.com/voxprep/interview-core/core"
)

// app carries what outlives model copies: the controller and the handle
// that feeds its callbacks back into the program as messages.
type app struct {
	controller *callsession.Controller
	request    callsession.StartRequest
	send       func(tea.Msg)
}

type (
	statusMsg     callsession.Status
	speakingMsg   bool
	utteranceMsg  callsession.Message
	noticeMsg     string
	streamErrMsg  struct{ err error }
	completionMsg callsession.Completion
	startFailed   struct{ err error }
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15"))
	badgeStyle    = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	inactiveBadge = badgeStyle.Foreground(lipgloss.Color("0")).Background(lipgloss.Color("8"))
	pendingBadge  = badgeStyle.Foreground(lipgloss.Color("0")).Background(lipgloss.Color("11"))
	activeBadge   = badgeStyle.Foreground(lipgloss.Color("0")).Background(lipgloss.Color("10"))
	endedBadge    = badgeStyle.Foreground(lipgloss.Color("15")).Background(lipgloss.Color("9"))
	speakerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	noticeStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	faultStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	helpStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	routeStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
)

type model struct {
	app   *app
	title string
	width int

	spinner  spinner.Model
	status   callsession.Status
	speaking bool

	lastUtterance *callsession.Message

	notice     string
	streamErr  error
	completion *callsession.Completion
}

func newModel(app *app, title string) model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	return model{app: app, title: title, width: 80, spinner: s}
}

func (m model) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.app.controller.Stop()
			return m, tea.Quit
		case "enter", "c":
			if m.status == callsession.StatusInactive {
				return m, m.startCall()
			}
		case "e", "esc":
			if m.status == callsession.StatusConnecting || m.status == callsession.StatusActive {
				m.app.controller.Stop()
			}
		}
		return m, nil

	case statusMsg:
		m.status = callsession.Status(msg)
		return m, nil
	case speakingMsg:
		m.speaking = bool(msg)
		return m, nil
	case utteranceMsg:
		utterance := callsession.Message(msg)
		m.lastUtterance = &utterance
		return m, nil
	case noticeMsg:
		m.notice = string(msg)
		return m, nil
	case streamErrMsg:
		m.streamErr = msg.err
		return m, nil
	case completionMsg:
		completion := callsession.Completion(msg)
		m.completion = &completion
		return m, nil
	case startFailed:
		m.streamErr = msg.err
		m.status = m.app.controller.Status()
		return m, nil
	}
	return m, nil
}

// startCall issues the remote start; every later session signal arrives as
// a program message through app.send.
func (m model) startCall() tea.Cmd {
	app := m.app
	return func() tea.Msg {
		err := app.controller.Start(context.Background(), app.request,
			callsession.WithStatusCallback(func(status callsession.Status) { app.send(statusMsg(status)) }),
			callsession.WithSpeakingCallback(func(speaking bool) { app.send(speakingMsg(speaking)) }),
			callsession.WithMessageCallback(func(message callsession.Message) { app.send(utteranceMsg(message)) }),
			callsession.WithNotifyCallback(func(notice string) { app.send(noticeMsg(notice)) }),
			callsession.WithErrorCallback(func(err error) { app.send(streamErrMsg{err: err}) }),
			callsession.WithCompletionCallback(func(completion callsession.Completion) { app.send(completionMsg(completion)) }),
		)
		if err != nil {
			return startFailed{err: err}
		}
		return nil
	}
}

func (m model) View() string {
	lines := []string{
		titleStyle.Render(m.title) + "  " + m.statusBadge(),
		"",
	}

	switch m.status {
	case callsession.StatusInactive:
		lines = append(lines, "Press enter to start the call.")
	case callsession.StatusConnecting:
		lines = append(lines, m.spinner.View()+" Connecting...")
	case callsession.StatusActive:
		if m.speaking {
			lines = append(lines, speakerStyle.Render("● interviewer speaking"))
		} else {
			lines = append(lines, "○ listening")
		}
	case callsession.StatusDisconnected:
		lines = append(lines, "Call ended.")
	}

	if m.lastUtterance != nil {
		lines = append(lines, "",
			wordwrap.String(string(m.lastUtterance.Role)+": "+m.lastUtterance.Content, m.width-2))
	}
	if m.notice != "" {
		lines = append(lines, "", noticeStyle.Render(m.notice))
	}
	if m.streamErr != nil {
		lines = append(lines, "", faultStyle.Render("stream error: "+m.streamErr.Error()))
	}
	if m.completion != nil {
		lines = append(lines, "", routeStyle.Render("→ "+m.completion.Route))
	}

	lines = append(lines, "", helpStyle.Render(m.helpLine()))
	return lipgloss.JoinVertical(lipgloss.Left, lines...) + "\n"
}

func (m model) statusBadge() string {
	switch m.status {
	case callsession.StatusConnecting:
		return pendingBadge.Render(m.status.String())
	case callsession.StatusActive:
		return activeBadge.Render(m.status.String())
	case callsession.StatusDisconnected:
		return endedBadge.Render(m.status.String())
	default:
		return inactiveBadge.Render(m.status.String())
	}
}

func (m model) helpLine() string {
	switch m.status {
	case callsession.StatusConnecting, callsession.StatusActive:
		return "e: end call • q: quit"
	default:
		return "enter: start call • q: quit"
	}
}
