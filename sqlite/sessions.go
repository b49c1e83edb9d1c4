package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	txStdLib "github.com/Thiht/transactor/stdlib"
	"github.com/google/uuid"

	"github.com/benjamonnguyen/studyplan"
)

const (
	SelectAllSessions = "SELECT id, user_id, task_id, duration_minutes, created_at FROM study_sessions"
)

type sessionEntity struct {
	ID              string
	UserID          string
	TaskID          sql.NullString
	DurationMinutes int
	CreatedAt       int64
}

type sessionRepo struct {
	dbGetter txStdLib.DBGetter
	l        studyplan.Logger
}

var _ studyplan.SessionRepo = (*sessionRepo)(nil)

func NewSessionRepo(dbGetter txStdLib.DBGetter, logger studyplan.Logger) studyplan.SessionRepo {
	return &sessionRepo{
		l:        logger,
		dbGetter: dbGetter,
	}
}

func (r *sessionRepo) InsertSession(ctx context.Context, s studyplan.StudySession) (studyplan.StudySession, error) {
	if s.UserID == "" {
		return studyplan.StudySession{}, fmt.Errorf("provide required field 'UserID'")
	}
	if s.DurationMinutes <= 0 {
		return studyplan.StudySession{}, fmt.Errorf("duration must be positive, got %d", s.DurationMinutes)
	}

	s.ID = uuid.NewString()
	s.CreatedAt = now()
	e := sessionEntity{
		ID:              s.ID,
		UserID:          s.UserID,
		TaskID:          nullString(s.TaskID),
		DurationMinutes: s.DurationMinutes,
		CreatedAt:       toMillis(s.CreatedAt),
	}

	args := []any{e.ID, e.UserID, e.TaskID, e.DurationMinutes, e.CreatedAt}
	query := "INSERT INTO study_sessions (id, user_id, task_id, duration_minutes, created_at) VALUES " + generateParameters(len(args))
	r.l.Debug("creating session", "query", query, "args", args)
	if _, err := r.dbGetter(ctx).ExecContext(ctx, query, args...); err != nil {
		if isForeignKeyViolation(err) {
			return studyplan.StudySession{}, fmt.Errorf("task %s: %w", s.TaskID, studyplan.ErrNotFound)
		}
		return studyplan.StudySession{}, err
	}
	return s, nil
}

func (r *sessionRepo) GetSessions(ctx context.Context, userID string) ([]studyplan.StudySession, error) {
	if userID == "" {
		return nil, fmt.Errorf("provide userID")
	}

	query := SelectAllSessions + " WHERE user_id = ? ORDER BY created_at DESC, rowid DESC"
	r.l.Debug("getting sessions", "query", query, "userID", userID)
	rows, err := r.dbGetter(ctx).QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck

	sessions := []studyplan.StudySession{}
	for rows.Next() {
		var e sessionEntity
		if err := rows.Scan(&e.ID, &e.UserID, &e.TaskID, &e.DurationMinutes, &e.CreatedAt); err != nil {
			return nil, err
		}
		sessions = append(sessions, studyplan.StudySession{
			ID:              e.ID,
			UserID:          e.UserID,
			TaskID:          e.TaskID.String,
			DurationMinutes: e.DurationMinutes,
			CreatedAt:       fromMillis(e.CreatedAt),
		})
	}
	return sessions, rows.Err()
}

func (r *sessionRepo) SumSessions(ctx context.Context, userID string) (int, int, error) {
	query := "SELECT COALESCE(SUM(duration_minutes), 0), COUNT(*) FROM study_sessions WHERE user_id = ?"
	r.l.Debug("summing sessions", "query", query, "userID", userID)

	var minutes, count int
	if err := r.dbGetter(ctx).QueryRowContext(ctx, query, userID).Scan(&minutes, &count); err != nil {
		return 0, 0, err
	}
	return minutes, count, nil
}
