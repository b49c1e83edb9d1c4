package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	txStdLib "github.com/Thiht/transactor/stdlib"
	"github.com/google/uuid"

	"github.com/benjamonnguyen/studyplan"
)

const (
	taskColumns    = "t.id, t.user_id, t.course_id, t.title, t.description, t.status, t.due_date, t.created_at, t.updated_at"
	SelectAllTasks = "SELECT " + taskColumns + " FROM tasks t"
	newestFirst    = " ORDER BY t.created_at DESC, t.rowid DESC"
)

type taskEntity struct {
	ID          string
	UserID      string
	CourseID    sql.NullString
	Title       string
	Description string
	Status      string
	DueDate     sql.NullInt64
	CreatedAt   int64
	UpdatedAt   int64
}

// taskRepo
type taskRepo struct {
	dbGetter txStdLib.DBGetter
	l        studyplan.Logger
}

var _ studyplan.TaskRepo = (*taskRepo)(nil)

func NewTaskRepo(dbGetter txStdLib.DBGetter, logger studyplan.Logger) studyplan.TaskRepo {
	return &taskRepo{
		l:        logger,
		dbGetter: dbGetter,
	}
}

func (r *taskRepo) GetTask(ctx context.Context, userID, id string) (studyplan.Task, error) {
	if userID == "" || id == "" {
		return studyplan.Task{}, fmt.Errorf("provide userID and id")
	}

	query := SelectAllTasks + " WHERE t.id = ? AND t.user_id = ?"
	r.l.Debug("getting task", "query", query, "id", id)
	row := r.dbGetter(ctx).QueryRowContext(ctx, query, id, userID)

	return extractTask(row)
}

func (r *taskRepo) GetTasks(ctx context.Context, userID string) ([]studyplan.Task, error) {
	if userID == "" {
		return nil, fmt.Errorf("provide userID")
	}

	query := SelectAllTasks + " WHERE t.user_id = ?" + newestFirst
	r.l.Debug("getting tasks", "query", query, "userID", userID)
	rows, err := r.dbGetter(ctx).QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck

	tasks := []studyplan.Task{}
	for rows.Next() {
		task, err := extractTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

func (r *taskRepo) GetTasksWithCourse(ctx context.Context, userID string) ([]studyplan.TaskWithCourse, error) {
	if userID == "" {
		return nil, fmt.Errorf("provide userID")
	}

	query := "SELECT " + taskColumns + ", c.name FROM tasks t LEFT JOIN courses c ON c.id = t.course_id WHERE t.user_id = ?" + newestFirst
	r.l.Debug("getting tasks with course", "query", query, "userID", userID)
	rows, err := r.dbGetter(ctx).QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck

	var tasks []studyplan.TaskWithCourse
	for rows.Next() {
		var e taskEntity
		var courseName sql.NullString
		if err := rows.Scan(append(e.fields(), &courseName)...); err != nil {
			return nil, err
		}
		tasks = append(tasks, studyplan.TaskWithCourse{
			Task:       mapToTask(e),
			CourseName: courseName.String,
		})
	}
	return tasks, rows.Err()
}

func (r *taskRepo) CountTasks(ctx context.Context, userID string) (int, int, error) {
	query := "SELECT COUNT(*), COALESCE(SUM(status = 'done'), 0) FROM tasks WHERE user_id = ?"
	r.l.Debug("counting tasks", "query", query, "userID", userID)

	var total, done int
	if err := r.dbGetter(ctx).QueryRowContext(ctx, query, userID).Scan(&total, &done); err != nil {
		return 0, 0, err
	}
	return total, done, nil
}

func (r *taskRepo) InsertTask(ctx context.Context, task studyplan.Task) (studyplan.Task, error) {
	if task.Title == "" {
		return studyplan.Task{}, fmt.Errorf("provide required field 'Title'")
	}
	if task.UserID == "" {
		return studyplan.Task{}, fmt.Errorf("provide required field 'UserID'")
	}
	if task.Status == "" {
		task.Status = studyplan.StatusBacklog
	}

	ts := now()
	task.ID = uuid.NewString()
	task.CreatedAt = ts
	task.UpdatedAt = ts
	e := mapToTaskEntity(task)

	args := []any{
		e.ID,
		e.UserID,
		e.CourseID,
		e.Title,
		e.Description,
		e.Status,
		e.DueDate,
		e.CreatedAt,
		e.UpdatedAt,
	}
	query := "INSERT INTO tasks (id, user_id, course_id, title, description, status, due_date, created_at, updated_at) VALUES " + generateParameters(len(args))
	r.l.Debug("creating task", "query", query, "args", args)
	if _, err := r.dbGetter(ctx).ExecContext(ctx, query, args...); err != nil {
		if isForeignKeyViolation(err) {
			return studyplan.Task{}, fmt.Errorf("course %s: %w", task.CourseID, studyplan.ErrNotFound)
		}
		return studyplan.Task{}, err
	}

	// stored precision, so the result matches a later read
	return mapToTask(e), nil
}

// UpdateTask overwrites every mutable field of the stored task. Concurrent
// updates are last-writer-wins.
func (r *taskRepo) UpdateTask(ctx context.Context, task studyplan.Task) (studyplan.Task, error) {
	if task.ID == "" || task.UserID == "" {
		return studyplan.Task{}, fmt.Errorf("provide ID and UserID")
	}

	task.UpdatedAt = now()
	e := mapToTaskEntity(task)

	query := "UPDATE tasks SET course_id = ?, title = ?, description = ?, status = ?, due_date = ?, updated_at = ? WHERE id = ? AND user_id = ?"
	args := []any{
		e.CourseID,
		e.Title,
		e.Description,
		e.Status,
		e.DueDate,
		e.UpdatedAt,
		e.ID,
		e.UserID,
	}
	r.l.Debug("updating task", "query", query, "args", args)
	res, err := r.dbGetter(ctx).ExecContext(ctx, query, args...)
	if err != nil {
		if isForeignKeyViolation(err) {
			return studyplan.Task{}, fmt.Errorf("course %s: %w", task.CourseID, studyplan.ErrNotFound)
		}
		return studyplan.Task{}, err
	}
	if n, err := res.RowsAffected(); err != nil {
		return studyplan.Task{}, err
	} else if n == 0 {
		return studyplan.Task{}, fmt.Errorf("task %s: %w", task.ID, studyplan.ErrNotFound)
	}

	return r.GetTask(ctx, task.UserID, task.ID)
}

func (r *taskRepo) DeleteTask(ctx context.Context, userID, id string) (studyplan.Task, error) {
	toDelete, err := r.GetTask(ctx, userID, id)
	if err != nil {
		return studyplan.Task{}, err
	}

	query := "DELETE FROM tasks WHERE id = ? AND user_id = ?"
	r.l.Debug("deleting task", "query", query, "id", id)
	if _, err := r.dbGetter(ctx).ExecContext(ctx, query, id, userID); err != nil {
		return studyplan.Task{}, err
	}

	return toDelete, nil
}

func (e *taskEntity) fields() []any {
	return []any{&e.ID, &e.UserID, &e.CourseID, &e.Title, &e.Description, &e.Status, &e.DueDate, &e.CreatedAt, &e.UpdatedAt}
}

func extractTask(s scannable) (studyplan.Task, error) {
	var e taskEntity
	if err := s.Scan(e.fields()...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return studyplan.Task{}, fmt.Errorf("task: %w", studyplan.ErrNotFound)
		}
		return studyplan.Task{}, err
	}

	return mapToTask(e), nil
}

func mapToTaskEntity(task studyplan.Task) taskEntity {
	return taskEntity{
		ID:          task.ID,
		UserID:      task.UserID,
		CourseID:    nullString(task.CourseID),
		Title:       task.Title,
		Description: task.Description,
		Status:      string(task.Status),
		DueDate:     nullMillis(task.DueDate),
		CreatedAt:   toMillis(task.CreatedAt),
		UpdatedAt:   toMillis(task.UpdatedAt),
	}
}

func mapToTask(e taskEntity) studyplan.Task {
	return studyplan.Task{
		ID:          e.ID,
		UserID:      e.UserID,
		CourseID:    e.CourseID.String,
		Title:       e.Title,
		Description: e.Description,
		Status:      studyplan.Status(e.Status),
		DueDate:     fromNullMillis(e.DueDate),
		CreatedAt:   fromMillis(e.CreatedAt),
		UpdatedAt:   fromMillis(e.UpdatedAt),
	}
}
