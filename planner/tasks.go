package planner

import (
	"context"
	"strings"

	"github.com/benjamonnguyen/studyplan"
)

const (
	msgTaskNotFound   = "Task not found."
	msgCourseNotFound = "Course not found."
)

type TaskSvc interface {
	// List returns the user's tasks, newest first.
	List(ctx context.Context, userID string) ([]studyplan.Task, error)
	Board(ctx context.Context, userID string) (studyplan.Board, error)
	Create(ctx context.Context, userID string, req studyplan.NewTask) (studyplan.Task, error)
	Update(ctx context.Context, userID, taskID string, patch studyplan.TaskPatch) (studyplan.Task, error)
	Complete(ctx context.Context, userID, taskID string) (studyplan.Task, error)
	Move(ctx context.Context, userID, taskID string, to studyplan.Status) (studyplan.Task, error)
	MoveToToday(ctx context.Context, userID, taskID string) (studyplan.Task, error)
	Delete(ctx context.Context, userID, taskID string) (studyplan.Task, error)
}

// impl
type taskSvc struct {
	tx         studyplan.Transactor
	taskRepo   studyplan.TaskRepo
	courseRepo studyplan.CourseRepo
	l          studyplan.Logger
}

func NewTaskSvc(tx studyplan.Transactor, taskRepo studyplan.TaskRepo, courseRepo studyplan.CourseRepo, logger studyplan.Logger) TaskSvc {
	return &taskSvc{
		tx:         tx,
		taskRepo:   taskRepo,
		courseRepo: courseRepo,
		l:          logger,
	}
}

func (s *taskSvc) List(ctx context.Context, userID string) ([]studyplan.Task, error) {
	return s.taskRepo.GetTasks(ctx, userID)
}

func (s *taskSvc) Board(ctx context.Context, userID string) (studyplan.Board, error) {
	tasks, err := s.taskRepo.GetTasks(ctx, userID)
	if err != nil {
		return studyplan.Board{}, err
	}
	return studyplan.Partition(tasks), nil
}

func (s *taskSvc) Create(ctx context.Context, userID string, req studyplan.NewTask) (studyplan.Task, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return studyplan.Task{}, studyplan.Errorf(studyplan.ErrValidation, "Title is required.")
	}
	status := req.Status
	switch status {
	case "":
		status = studyplan.StatusBacklog
	case studyplan.StatusBacklog, studyplan.StatusToday:
	default:
		return studyplan.Task{}, studyplan.Errorf(studyplan.ErrValidation, "New tasks must start in backlog or today.")
	}

	task := studyplan.Task{
		UserID:      userID,
		CourseID:    strings.TrimSpace(req.CourseID),
		Title:       title,
		Description: req.Description,
		Status:      status,
		DueDate:     req.DueDate,
	}

	var created studyplan.Task
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.checkCourse(ctx, userID, task.CourseID); err != nil {
			return err
		}
		var err error
		created, err = s.taskRepo.InsertTask(ctx, task)
		return err
	})
	if err != nil {
		return studyplan.Task{}, notFound(err, msgCourseNotFound)
	}

	tasksTotal.WithLabelValues("create").Inc()
	s.l.Info("created task", "userID", userID, "taskID", created.ID, "status", created.Status)
	return created, nil
}

// Update merges patch into the stored task. Overlapping concurrent updates are
// last-writer-wins.
func (s *taskSvc) Update(ctx context.Context, userID, taskID string, patch studyplan.TaskPatch) (studyplan.Task, error) {
	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if title == "" {
			return studyplan.Task{}, studyplan.Errorf(studyplan.ErrValidation, "Title cannot be empty.")
		}
		patch.Title = &title
	}
	if patch.Status != nil && !patch.Status.Valid() {
		return studyplan.Task{}, studyplan.Errorf(studyplan.ErrValidation, "status must be one of backlog, today, done; got %q", *patch.Status)
	}

	var updated studyplan.Task
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		existing, err := s.taskRepo.GetTask(ctx, userID, taskID)
		if err != nil {
			return notFound(err, msgTaskNotFound)
		}
		if patch.CourseID != nil {
			if err := s.checkCourse(ctx, userID, *patch.CourseID); err != nil {
				return notFound(err, msgCourseNotFound)
			}
		}
		updated, err = s.taskRepo.UpdateTask(ctx, patch.Apply(existing))
		if err != nil {
			return notFound(err, msgTaskNotFound)
		}
		if existing.Status != updated.Status {
			s.l.Info("task status changed", "userID", userID, "taskID", taskID, "from", existing.Status, "to", updated.Status)
		}
		return nil
	})
	if err != nil {
		return studyplan.Task{}, err
	}

	tasksTotal.WithLabelValues("update").Inc()
	return updated, nil
}

func (s *taskSvc) Complete(ctx context.Context, userID, taskID string) (studyplan.Task, error) {
	return s.Move(ctx, userID, taskID, studyplan.StatusDone)
}

func (s *taskSvc) MoveToToday(ctx context.Context, userID, taskID string) (studyplan.Task, error) {
	return s.Move(ctx, userID, taskID, studyplan.StatusToday)
}

// Move sets the task's status. Any transition is allowed, including reopening
// a done task.
func (s *taskSvc) Move(ctx context.Context, userID, taskID string, to studyplan.Status) (studyplan.Task, error) {
	return s.Update(ctx, userID, taskID, studyplan.TaskPatch{Status: &to})
}

func (s *taskSvc) Delete(ctx context.Context, userID, taskID string) (studyplan.Task, error) {
	deleted, err := s.taskRepo.DeleteTask(ctx, userID, taskID)
	if err != nil {
		return studyplan.Task{}, notFound(err, msgTaskNotFound)
	}

	tasksTotal.WithLabelValues("delete").Inc()
	s.l.Info("deleted task", "userID", userID, "taskID", taskID)
	return deleted, nil
}

func (s *taskSvc) checkCourse(ctx context.Context, userID, courseID string) error {
	if courseID == "" {
		return nil
	}
	_, err := s.courseRepo.GetCourse(ctx, userID, courseID)
	return err
}
