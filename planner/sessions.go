package planner

import (
	"context"
	"strings"

	"github.com/benjamonnguyen/studyplan"
)

type SessionSvc interface {
	Log(ctx context.Context, userID, taskID string, minutes int) (studyplan.StudySession, error)
	// List returns the user's sessions, newest first.
	List(ctx context.Context, userID string) ([]studyplan.StudySession, error)
}

type sessionSvc struct {
	tx          studyplan.Transactor
	sessionRepo studyplan.SessionRepo
	taskRepo    studyplan.TaskRepo
	l           studyplan.Logger
}

func NewSessionSvc(tx studyplan.Transactor, sessionRepo studyplan.SessionRepo, taskRepo studyplan.TaskRepo, logger studyplan.Logger) SessionSvc {
	return &sessionSvc{
		tx:          tx,
		sessionRepo: sessionRepo,
		taskRepo:    taskRepo,
		l:           logger,
	}
}

func (s *sessionSvc) Log(ctx context.Context, userID, taskID string, minutes int) (studyplan.StudySession, error) {
	taskID = strings.TrimSpace(taskID)
	if taskID == "" || minutes <= 0 {
		return studyplan.StudySession{}, studyplan.Errorf(studyplan.ErrValidation, "task_id and duration_minutes are required.")
	}
	if minutes > studyplan.MaxSessionMinutes {
		return studyplan.StudySession{}, studyplan.Errorf(studyplan.ErrValidation, "duration_minutes cannot exceed %d.", studyplan.MaxSessionMinutes)
	}

	var created studyplan.StudySession
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.taskRepo.GetTask(ctx, userID, taskID); err != nil {
			return notFound(err, "Task not found for this user.")
		}
		var err error
		created, err = s.sessionRepo.InsertSession(ctx, studyplan.StudySession{
			UserID:          userID,
			TaskID:          taskID,
			DurationMinutes: minutes,
		})
		return err
	})
	if err != nil {
		return studyplan.StudySession{}, err
	}

	studyMinutesTotal.Add(float64(minutes))
	s.l.Info("logged session", "userID", userID, "taskID", taskID, "minutes", minutes)
	return created, nil
}

func (s *sessionSvc) List(ctx context.Context, userID string) ([]studyplan.StudySession, error) {
	return s.sessionRepo.GetSessions(ctx, userID)
}
