package assistant

import (
	"fmt"
	"strings"

	"github.com/benjamonnguyen/studyplan"
)

const (
	SystemPrompt = "You are a helpful study assistant. Keep plans clear and encouraging."

	curriculumExcerpt = 800
	noTasks           = "No tasks yet."
	noCourses         = "No courses defined yet."
)

const promptTemplate = `
The user is a college student using a study planner app.

User message:
"%s"

Here are their courses and curricula:
%s

Here are their current tasks:
%s

Using this information, create a short, practical study plan.
- Use bullet points.
- Break time into small blocks (10–20 minutes each).
- Mention which course and topic to focus on.
- Prefer tasks and topics that match the user's message.
- Keep it under about 10 bullets.
`

// BuildPrompt renders the planning prompt. tasks are expected newest first and
// courses oldest first.
func BuildPrompt(message string, tasks []studyplan.TaskWithCourse, courses []studyplan.Course) string {
	return fmt.Sprintf(promptTemplate, message, summarizeCourses(courses), summarizeTasks(tasks))
}

func summarizeTasks(tasks []studyplan.TaskWithCourse) string {
	if len(tasks) == 0 {
		return noTasks
	}
	lines := make([]string, 0, len(tasks))
	for _, t := range tasks {
		course := t.CourseName
		if course == "" {
			course = "General"
		}
		lines = append(lines, fmt.Sprintf("- [%s] %s (%s)", course, t.Title, statusLabel(t.Task)))
	}
	return strings.Join(lines, "\n")
}

func statusLabel(t studyplan.Task) string {
	switch {
	case t.Completed():
		return "done"
	case t.Status == "":
		return "unscheduled"
	default:
		return string(t.Status)
	}
}

func summarizeCourses(courses []studyplan.Course) string {
	if len(courses) == 0 {
		return noCourses
	}
	blocks := make([]string, 0, len(courses))
	for _, c := range courses {
		blocks = append(blocks, fmt.Sprintf("Course: %s\nCurriculum:\n%s", c.Name, excerpt(c.Curriculum, curriculumExcerpt)))
	}
	return strings.Join(blocks, "\n\n")
}

// excerpt returns the first n runes of s, trimmed.
func excerpt(s string, n int) string {
	r := []rune(s)
	if len(r) > n {
		r = r[:n]
	}
	return strings.TrimSpace(string(r))
}
