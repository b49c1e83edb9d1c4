package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/benjamonnguyen/studyplan"
)

const (
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorReset  = "\033[0m"
	dash        = '─'
)

var (
	faintStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Bold(false)
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("221")).Bold(true)
	doneStyle   = faintStyle.Strikethrough(true)
	dueStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
)

func line(length int) string {
	return strings.Repeat(string(dash), max(length, 0))
}

func colorize(color string, s string) string {
	return color + s + colorReset
}

// ordered lists tasks in display order. Task numbers shown on the board are
// 1-based indexes into this slice.
func ordered(b studyplan.Board) []studyplan.Task {
	tasks := make([]studyplan.Task, 0, b.Len())
	tasks = append(tasks, b.Today...)
	tasks = append(tasks, b.Backlog...)
	return append(tasks, b.Done...)
}

func renderBoard(b studyplan.Board, width int, dateFormat string) string {
	var sb strings.Builder
	n := 1
	columns := []struct {
		title string
		tasks []studyplan.Task
	}{
		{"TODAY", b.Today},
		{"BACKLOG", b.Backlog},
		{"DONE", b.Done},
	}
	for i, col := range columns {
		if i > 0 {
			sb.WriteRune('\n')
		}
		title := fmt.Sprintf("%s (%d) ", col.title, len(col.tasks))
		sb.WriteString(headerStyle.Render(title))
		sb.WriteString(faintStyle.Render(line(min(width, 48) - lipgloss.Width(title))))
		sb.WriteRune('\n')
		if len(col.tasks) == 0 {
			sb.WriteString(faintStyle.Render("  nothing here"))
			sb.WriteRune('\n')
		}
		for _, t := range col.tasks {
			sb.WriteString(renderTask(n, t, dateFormat))
			sb.WriteRune('\n')
			n++
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}

func renderTask(n int, t studyplan.Task, dateFormat string) string {
	title := t.Title
	if t.Completed() {
		title = doneStyle.Render(title)
	}
	s := fmt.Sprintf("%3d. %s", n, title)
	if !t.DueDate.IsZero() && !t.Completed() {
		s += " " + dueStyle.Render("due "+t.DueDate.Format(dateFormat))
	}
	return s
}

func renderSummary(s studyplan.Summary) string {
	return fmt.Sprintf("%d min over %d sessions · %d/%d tasks done",
		s.TotalMinutes, s.TotalSessions, s.CompletedTasks, s.TotalTasks)
}

func renderStaleness(fetchedAt time.Time, now time.Time) string {
	return fmt.Sprintf("offline: showing board from %s ago (/r to retry)",
		now.Sub(fetchedAt).Round(time.Minute))
}
