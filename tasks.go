package studyplan

import (
	"context"
	"time"
)

// TaskRepo persists tasks. Every method is scoped to a user; a task owned by
// someone else is reported as ErrNotFound.
type TaskRepo interface {
	GetTask(ctx context.Context, userID, id string) (Task, error)
	GetTasks(ctx context.Context, userID string) ([]Task, error)
	GetTasksWithCourse(ctx context.Context, userID string) ([]TaskWithCourse, error)
	InsertTask(ctx context.Context, task Task) (Task, error)
	UpdateTask(ctx context.Context, task Task) (Task, error)
	DeleteTask(ctx context.Context, userID, id string) (Task, error)
	CountTasks(ctx context.Context, userID string) (total int, done int, err error)
}

// TaskWithCourse is a task joined with the name of its linked course.
type TaskWithCourse struct {
	Task
	CourseName string
}

// NewTask holds the fields accepted when creating a task.
type NewTask struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	DueDate     time.Time `json:"due_date"`
	CourseID    string    `json:"course_id"`
	Status      Status    `json:"status"`
}

// TaskPatch is a field-level update. Nil fields keep their stored value. An
// empty CourseID unlinks the task from its course.
type TaskPatch struct {
	Title       *string
	Description *string
	DueDate     *time.Time
	CourseID    *string
	Status      *Status
	Completed   *bool
}

// Apply merges p into t and returns the result.
func (p TaskPatch) Apply(t Task) Task {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.DueDate != nil {
		t.DueDate = *p.DueDate
	}
	if p.CourseID != nil {
		t.CourseID = *p.CourseID
	}
	if p.Completed != nil {
		switch {
		case *p.Completed:
			t.Status = StatusDone
		case t.Status == StatusDone:
			t.Status = StatusBacklog
		}
	}
	// an explicit status wins over completed
	if p.Status != nil {
		t.Status = *p.Status
	}
	return t
}

func (p TaskPatch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.DueDate == nil &&
		p.CourseID == nil && p.Status == nil && p.Completed == nil
}
