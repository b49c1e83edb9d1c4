package studyplan

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

type Status string

const (
	StatusBacklog Status = "backlog"
	StatusToday   Status = "today"
	StatusDone    Status = "done"
)

func (s Status) Valid() bool {
	switch s {
	case StatusBacklog, StatusToday, StatusDone:
		return true
	}
	return false
}

func ParseStatus(s string) (Status, error) {
	st := Status(strings.ToLower(strings.TrimSpace(s)))
	if !st.Valid() {
		return "", Errorf(ErrValidation, "status must be one of backlog, today, done; got %q", s)
	}
	return st, nil
}

type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Task is a unit of study work. Status is the only stored lifecycle field;
// completion is derived from it.
type Task struct {
	ID          string
	UserID      string
	CourseID    string
	Title       string
	Description string
	Status      Status
	DueDate     time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (t Task) Completed() bool {
	return t.Status == StatusDone
}

type taskJSON struct {
	ID          string     `json:"id"`
	UserID      string     `json:"user_id"`
	CourseID    *string    `json:"course_id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      Status     `json:"status"`
	Completed   bool       `json:"completed"`
	DueDate     *time.Time `json:"due_date"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func (t Task) MarshalJSON() ([]byte, error) {
	j := taskJSON{
		ID:          t.ID,
		UserID:      t.UserID,
		Title:       t.Title,
		Description: t.Description,
		Status:      t.Status,
		Completed:   t.Completed(),
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
	if t.CourseID != "" {
		j.CourseID = &t.CourseID
	}
	if !t.DueDate.IsZero() {
		j.DueDate = &t.DueDate
	}
	return json.Marshal(j)
}

func (t *Task) UnmarshalJSON(data []byte) error {
	var j taskJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return fmt.Errorf("decode task: %w", err)
	}
	*t = Task{
		ID:          j.ID,
		UserID:      j.UserID,
		Title:       j.Title,
		Description: j.Description,
		Status:      j.Status,
		CreatedAt:   j.CreatedAt,
		UpdatedAt:   j.UpdatedAt,
	}
	if j.CourseID != nil {
		t.CourseID = *j.CourseID
	}
	if j.DueDate != nil {
		t.DueDate = *j.DueDate
	}
	if j.Completed {
		t.Status = StatusDone
	}
	return nil
}

type Course struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	Name       string    `json:"name"`
	Curriculum string    `json:"curriculum"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// StudySession is an append-only record of minutes spent on a task. TaskID is
// empty once the task has been deleted.
type StudySession struct {
	ID              string    `json:"id"`
	UserID          string    `json:"user_id"`
	TaskID          string    `json:"task_id"`
	DurationMinutes int       `json:"duration_minutes"`
	CreatedAt       time.Time `json:"created_at"`
}

type Summary struct {
	TotalMinutes   int `json:"totalMinutes"`
	TotalSessions  int `json:"totalSessions"`
	TotalTasks     int `json:"totalTasks"`
	CompletedTasks int `json:"completedTasks"`
}

// Board is a user's tasks partitioned by status.
type Board struct {
	Today   []Task `json:"today"`
	Backlog []Task `json:"backlog"`
	Done    []Task `json:"done"`
}

// Partition splits tasks into board columns, preserving order. Tasks with an
// unset status land in the backlog.
func Partition(tasks []Task) Board {
	b := Board{
		Today:   []Task{},
		Backlog: []Task{},
		Done:    []Task{},
	}
	for _, t := range tasks {
		switch t.Status {
		case StatusDone:
			b.Done = append(b.Done, t)
		case StatusToday:
			b.Today = append(b.Today, t)
		default:
			b.Backlog = append(b.Backlog, t)
		}
	}
	return b
}

func (b Board) Len() int {
	return len(b.Today) + len(b.Backlog) + len(b.Done)
}
