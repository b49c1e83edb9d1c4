package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/benjamonnguyen/studyplan"
	"github.com/benjamonnguyen/studyplan/client"
)

const logo = `
	███████╗████████╗██╗   ██╗██████╗ ██╗   ██╗
	██╔════╝╚══██╔══╝██║   ██║██╔══██╗╚██╗ ██╔╝
	███████╗   ██║   ██║   ██║██║  ██║ ╚████╔╝ 
	╚════██║   ██║   ██║   ██║██║  ██║  ╚██╔╝  
	███████║   ██║   ╚██████╔╝██████╔╝   ██║   
	╚══════╝   ╚═╝    ╚═════╝ ╚═════╝    ╚═╝   `

const programUsage = `Usage:
  studyplan: open the board
  studyplan <task>: add a task for today
  studyplan /a <task>: add a task to the backlog
  studyplan /login <email> <password>
  studyplan /signup <email> <password> [name]
  studyplan /logout`

const commandHelp = `COMMANDS:
  <task>: add a task for today
  /a <task>: add a task to the backlog
  /t <n>: move task n to today
  /b <n>: move task n to the backlog
  /d <n>: mark task n done
  /x <n>: delete task n
  /l <n> <minutes>: log a study session on task n

  /s: show study stats
  /c: list courses
  /ask <message>: ask the assistant for a plan
  /r: refresh the board

  /q: quit
`

type model struct {
	// children
	vp        viewport.Model
	userinput textinput.Model

	// supplied
	l         studyplan.Logger
	api       *client.Client
	cachePath string

	// state
	board     studyplan.Board
	fetchedAt time.Time
	offline   bool
	alerts    []string
	quitting  bool
	h         int

	// configuration
	cmdTimeout time.Duration
	dateFormat string
	now        func() time.Time
}

func (m model) Init() tea.Cmd {
	return tea.Batch(m.refresh, textinput.Blink)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var tiCmd, vpCmd, cmd tea.Cmd

	m, cmd = m.updateParent(msg)

	m.userinput, tiCmd = m.userinput.Update(msg)

	switch msg.(type) {
	case tea.KeyMsg:
		// vp updates on KeyMsg cause the view to flicker
	default:
		m.vp, vpCmd = m.vp.Update(msg)
	}

	return m, tea.Batch(tiCmd, vpCmd, cmd)
}

func (m model) updateParent(msg tea.Msg) (model, tea.Cmd) {
	switch msg := msg.(type) {
	case ErrorMsg:
		m.addAlert(describeError(msg.err), colorRed)
		m.render()
		return m, nil
	case AlertMsg:
		m.addAlert(msg.alert, msg.color)
		m.render()
		return m, nil
	case DoneMsg:
		m.addAlert(msg.alert, colorGreen)
		return m, m.refresh
	case BoardMsg:
		m.board = msg.board
		m.fetchedAt = msg.fetchedAt
		m.offline = msg.offline
		if m.offline {
			m.addAlert(renderStaleness(m.fetchedAt, m.now()), colorYellow)
		}
		m.render()
		return m, nil
	case tea.WindowSizeMsg:
		m.h = msg.Height
		m.userinput.Width = msg.Width
		m.vp.Width = msg.Width
		m.render()
		return m, nil
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyEnter:
			input := strings.TrimSpace(m.userinput.Value())
			m.userinput.Reset()
			if input == "" {
				return m, nil
			}

			var cmd tea.Cmd
			m.alerts = nil
			m, cmd = m.handleInput(input)
			m.render()
			return m, cmd
		case tea.KeyCtrlC:
			m.quitting = true
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m model) handleInput(input string) (model, tea.Cmd) {
	if !strings.HasPrefix(input, "/") {
		return m, m.createTask(input, studyplan.StatusToday)
	}

	parts := strings.SplitN(input, " ", 2)
	var arg string
	if len(parts) == 2 {
		arg = strings.TrimSpace(parts[1])
	}

	switch parts[0] {
	case "/a":
		if arg == "" {
			m.addAlert("usage: /a <task>", colorYellow)
			return m, nil
		}
		return m, m.createTask(arg, studyplan.StatusBacklog)
	case "/t", "/b", "/d":
		t, err := m.taskAt(arg)
		if err != nil {
			m.addAlert(fmt.Sprintf("usage: %s <n> (%s)", parts[0], err), colorYellow)
			return m, nil
		}
		return m, m.moveTask(t, map[string]studyplan.Status{
			"/t": studyplan.StatusToday,
			"/b": studyplan.StatusBacklog,
			"/d": studyplan.StatusDone,
		}[parts[0]])
	case "/x":
		t, err := m.taskAt(arg)
		if err != nil {
			m.addAlert(fmt.Sprintf("usage: /x <n> (%s)", err), colorYellow)
			return m, nil
		}
		return m, m.deleteTask(t)
	case "/l":
		fields := strings.Fields(arg)
		if len(fields) != 2 {
			m.addAlert("usage: /l <n> <minutes>", colorYellow)
			return m, nil
		}
		t, err := m.taskAt(fields[0])
		if err != nil {
			m.addAlert(fmt.Sprintf("usage: /l <n> <minutes> (%s)", err), colorYellow)
			return m, nil
		}
		minutes, err := strconv.Atoi(fields[1])
		if err != nil || minutes <= 0 {
			m.addAlert("minutes must be a positive number", colorYellow)
			return m, nil
		}
		return m, m.logSession(t, minutes)
	case "/s":
		return m, m.showSummary
	case "/c":
		return m, m.showCourses
	case "/ask":
		if arg == "" {
			m.addAlert("usage: /ask <message>", colorYellow)
			return m, nil
		}
		m.addAlert("asking the assistant...", colorCyan)
		return m, m.ask(arg)
	case "/r":
		return m, m.refresh
	case "/h":
		m.addAlert(commandHelp, colorYellow)
		return m, nil
	case "/q":
		m.quitting = true
		return m, tea.Quit
	}

	m.addAlert(fmt.Sprintf("unknown command %s; /h for help", parts[0]), colorRed)
	return m, nil
}

// taskAt resolves a 1-based board number.
func (m model) taskAt(arg string) (studyplan.Task, error) {
	n, err := strconv.Atoi(strings.TrimSpace(arg))
	if err != nil {
		return studyplan.Task{}, fmt.Errorf("not a task number")
	}
	tasks := ordered(m.board)
	if n < 1 || n > len(tasks) {
		return studyplan.Task{}, fmt.Errorf("no task %d", n)
	}
	return tasks[n-1], nil
}

// commands

func (m model) refresh() tea.Msg {
	timeout, cancel := m.newTimeout()
	defer cancel()

	b, err := m.api.Board(timeout)
	if err == nil {
		now := m.now()
		if err := client.SaveBoard(m.cachePath, b, now); err != nil {
			m.l.Warn("failed to cache board", "path", m.cachePath, "error", err)
		}
		return BoardMsg{board: b, fetchedAt: now}
	}
	if !errors.Is(err, client.ErrOffline) {
		return ErrorMsg{err: err}
	}

	m.l.Warn("server unreachable, using cache", "error", err)
	cached, cerr := client.LoadBoard(m.cachePath)
	if cerr != nil {
		return ErrorMsg{err: err}
	}
	return BoardMsg{board: cached.Board, fetchedAt: cached.FetchedAt, offline: true}
}

func (m model) createTask(title string, status studyplan.Status) tea.Cmd {
	return func() tea.Msg {
		timeout, cancel := m.newTimeout()
		defer cancel()
		t, err := m.api.CreateTask(timeout, client.CreateTaskRequest{Title: title, Status: string(status)})
		if err != nil {
			return ErrorMsg{err: err}
		}
		return DoneMsg{alert: fmt.Sprintf(`Added "%s" to %s`, t.Title, t.Status)}
	}
}

func (m model) moveTask(t studyplan.Task, to studyplan.Status) tea.Cmd {
	return func() tea.Msg {
		timeout, cancel := m.newTimeout()
		defer cancel()
		var err error
		if to == studyplan.StatusDone {
			_, err = m.api.CompleteTask(timeout, t.ID)
		} else {
			_, err = m.api.MoveTask(timeout, t.ID, to)
		}
		if err != nil {
			return ErrorMsg{err: err}
		}
		return DoneMsg{alert: fmt.Sprintf(`Moved "%s" to %s`, t.Title, to)}
	}
}

func (m model) deleteTask(t studyplan.Task) tea.Cmd {
	return func() tea.Msg {
		timeout, cancel := m.newTimeout()
		defer cancel()
		if err := m.api.DeleteTask(timeout, t.ID); err != nil {
			return ErrorMsg{err: err}
		}
		return DoneMsg{alert: fmt.Sprintf(`Deleted "%s"`, t.Title)}
	}
}

func (m model) logSession(t studyplan.Task, minutes int) tea.Cmd {
	return func() tea.Msg {
		timeout, cancel := m.newTimeout()
		defer cancel()
		if _, err := m.api.LogSession(timeout, t.ID, minutes); err != nil {
			return ErrorMsg{err: err}
		}
		return AlertMsg{alert: fmt.Sprintf(`Logged %d min on "%s"`, minutes, t.Title), color: colorGreen}
	}
}

func (m model) showSummary() tea.Msg {
	timeout, cancel := m.newTimeout()
	defer cancel()
	sum, err := m.api.Summary(timeout)
	if err != nil {
		return ErrorMsg{err: err}
	}
	return AlertMsg{alert: renderSummary(sum), color: colorCyan}
}

func (m model) showCourses() tea.Msg {
	timeout, cancel := m.newTimeout()
	defer cancel()
	courses, err := m.api.Courses(timeout)
	if err != nil {
		return ErrorMsg{err: err}
	}
	if len(courses) == 0 {
		return AlertMsg{alert: "no courses yet", color: colorYellow}
	}
	names := make([]string, 0, len(courses))
	for _, c := range courses {
		names = append(names, "  "+c.Name)
	}
	return AlertMsg{alert: "COURSES:\n" + strings.Join(names, "\n"), color: colorCyan}
}

// ask uses its own deadline; the server already bounds the backend call.
func (m model) ask(message string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		reply, err := m.api.Ask(ctx, message)
		if err != nil {
			return ErrorMsg{err: err}
		}
		return AlertMsg{alert: reply, color: colorReset}
	}
}

// view

func (m model) View() string {
	return lipgloss.JoinVertical(0, m.vp.View(), m.renderFooter())
}

func (m model) renderFooter() string {
	if m.quitting {
		return ""
	}

	var footer strings.Builder
	footer.WriteRune('\n')
	footer.WriteString(m.userinput.View())
	footer.WriteString("\n\n")

	if len(m.alerts) > 0 {
		footer.WriteString(strings.Join(m.alerts, "\n"))
		footer.WriteString("\n\n")
	} else {
		footer.WriteString(faintStyle.Render("(/h for help, ctrl+c to quit)"))
		footer.WriteRune('\n')
	}

	return footer.String()
}

// render refreshes the viewport content and fits it above the footer.
func (m *model) render() {
	content := renderBoard(m.board, max(m.vp.Width, 20), m.dateFormat)
	m.vp.SetContent(content)
	footerHeight := lipgloss.Height(m.renderFooter())
	m.vp.Height = max(min(lipgloss.Height(content), m.h-footerHeight), 0)
	m.vp.GotoTop()
}

func (m model) newTimeout() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), m.cmdTimeout)
}

func (m *model) addAlert(alert string, c string) {
	m.alerts = append(m.alerts, colorize(c, alert))
}

func describeError(err error) string {
	switch {
	case errors.Is(err, studyplan.ErrAuth):
		return "session expired; run: studyplan /login <email> <password>"
	case errors.Is(err, client.ErrOffline):
		return "server unreachable; changes were not saved"
	}
	return err.Error()
}
