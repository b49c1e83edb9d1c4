package planner

import (
	"context"

	"github.com/benjamonnguyen/studyplan"
)

type StatsSvc interface {
	Summary(ctx context.Context, userID string) (studyplan.Summary, error)
}

type statsSvc struct {
	tx          studyplan.Transactor
	taskRepo    studyplan.TaskRepo
	sessionRepo studyplan.SessionRepo
}

func NewStatsSvc(tx studyplan.Transactor, taskRepo studyplan.TaskRepo, sessionRepo studyplan.SessionRepo) StatsSvc {
	return &statsSvc{
		tx:          tx,
		taskRepo:    taskRepo,
		sessionRepo: sessionRepo,
	}
}

// Summary recomputes the user's totals from a single snapshot.
func (s *statsSvc) Summary(ctx context.Context, userID string) (studyplan.Summary, error) {
	var sum studyplan.Summary
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		sum.TotalTasks, sum.CompletedTasks, err = s.taskRepo.CountTasks(ctx, userID)
		if err != nil {
			return err
		}
		sum.TotalMinutes, sum.TotalSessions, err = s.sessionRepo.SumSessions(ctx, userID)
		return err
	})
	if err != nil {
		return studyplan.Summary{}, err
	}
	return sum, nil
}
