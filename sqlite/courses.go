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
	SelectAllCourses = "SELECT id, user_id, name, curriculum, created_at, updated_at FROM courses"
)

type courseEntity struct {
	ID         string
	UserID     string
	Name       string
	Curriculum string
	CreatedAt  int64
	UpdatedAt  int64
}

type courseRepo struct {
	dbGetter txStdLib.DBGetter
	l        studyplan.Logger
}

var _ studyplan.CourseRepo = (*courseRepo)(nil)

func NewCourseRepo(dbGetter txStdLib.DBGetter, logger studyplan.Logger) studyplan.CourseRepo {
	return &courseRepo{
		l:        logger,
		dbGetter: dbGetter,
	}
}

func (r *courseRepo) GetCourse(ctx context.Context, userID, id string) (studyplan.Course, error) {
	if userID == "" || id == "" {
		return studyplan.Course{}, fmt.Errorf("provide userID and id")
	}

	query := SelectAllCourses + " WHERE id = ? AND user_id = ?"
	r.l.Debug("getting course", "query", query, "id", id)
	return extractCourse(r.dbGetter(ctx).QueryRowContext(ctx, query, id, userID))
}

func (r *courseRepo) GetCourses(ctx context.Context, userID string) ([]studyplan.Course, error) {
	if userID == "" {
		return nil, fmt.Errorf("provide userID")
	}

	query := SelectAllCourses + " WHERE user_id = ? ORDER BY created_at, rowid"
	r.l.Debug("getting courses", "query", query, "userID", userID)
	rows, err := r.dbGetter(ctx).QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck

	courses := []studyplan.Course{}
	for rows.Next() {
		c, err := extractCourse(rows)
		if err != nil {
			return nil, err
		}
		courses = append(courses, c)
	}
	return courses, rows.Err()
}

func (r *courseRepo) CountCourses(ctx context.Context, userID string) (int, error) {
	query := "SELECT COUNT(*) FROM courses WHERE user_id = ?"
	r.l.Debug("counting courses", "query", query, "userID", userID)

	var n int
	err := r.dbGetter(ctx).QueryRowContext(ctx, query, userID).Scan(&n)
	return n, err
}

// InsertCourse writes the row only while the user's count is below limit. The
// check and the write are one statement, and the courses trigger rejects
// anything that slips past it.
func (r *courseRepo) InsertCourse(ctx context.Context, course studyplan.Course, limit int) (studyplan.Course, error) {
	if course.Name == "" || course.Curriculum == "" {
		return studyplan.Course{}, fmt.Errorf("provide required fields 'Name' and 'Curriculum'")
	}
	if course.UserID == "" {
		return studyplan.Course{}, fmt.Errorf("provide required field 'UserID'")
	}

	ts := now()
	course.ID = uuid.NewString()
	course.CreatedAt = ts
	course.UpdatedAt = ts
	e := mapToCourseEntity(course)

	query := `INSERT INTO courses (id, user_id, name, curriculum, created_at, updated_at)
SELECT ?, ?, ?, ?, ?, ?
WHERE (SELECT COUNT(*) FROM courses WHERE user_id = ?) < ?`
	args := []any{e.ID, e.UserID, e.Name, e.Curriculum, e.CreatedAt, e.UpdatedAt, e.UserID, limit}
	r.l.Debug("creating course", "query", query, "args", args)
	res, err := r.dbGetter(ctx).ExecContext(ctx, query, args...)
	if err != nil {
		if isTriggerAbort(err) {
			return studyplan.Course{}, fmt.Errorf("course limit %d: %w", limit, studyplan.ErrQuotaExceeded)
		}
		return studyplan.Course{}, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return studyplan.Course{}, err
	}
	if n == 0 {
		return studyplan.Course{}, fmt.Errorf("course limit %d: %w", limit, studyplan.ErrQuotaExceeded)
	}

	return course, nil
}

func (r *courseRepo) DeleteCourse(ctx context.Context, userID, id string) (studyplan.Course, error) {
	toDelete, err := r.GetCourse(ctx, userID, id)
	if err != nil {
		return studyplan.Course{}, err
	}

	query := "DELETE FROM courses WHERE id = ? AND user_id = ?"
	r.l.Debug("deleting course", "query", query, "id", id)
	if _, err := r.dbGetter(ctx).ExecContext(ctx, query, id, userID); err != nil {
		return studyplan.Course{}, err
	}
	return toDelete, nil
}

func extractCourse(s scannable) (studyplan.Course, error) {
	var e courseEntity
	if err := s.Scan(&e.ID, &e.UserID, &e.Name, &e.Curriculum, &e.CreatedAt, &e.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return studyplan.Course{}, fmt.Errorf("course: %w", studyplan.ErrNotFound)
		}
		return studyplan.Course{}, err
	}
	return mapToCourse(e), nil
}

func mapToCourseEntity(c studyplan.Course) courseEntity {
	return courseEntity{
		ID:         c.ID,
		UserID:     c.UserID,
		Name:       c.Name,
		Curriculum: c.Curriculum,
		CreatedAt:  toMillis(c.CreatedAt),
		UpdatedAt:  toMillis(c.UpdatedAt),
	}
}

func mapToCourse(e courseEntity) studyplan.Course {
	return studyplan.Course{
		ID:         e.ID,
		UserID:     e.UserID,
		Name:       e.Name,
		Curriculum: e.Curriculum,
		CreatedAt:  fromMillis(e.CreatedAt),
		UpdatedAt:  fromMillis(e.UpdatedAt),
	}
}
