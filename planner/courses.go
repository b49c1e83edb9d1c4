package planner

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/benjamonnguyen/studyplan"
)

type CourseSvc interface {
	// List returns the user's courses, oldest first.
	List(ctx context.Context, userID string) ([]studyplan.Course, error)
	Create(ctx context.Context, userID, name, curriculum string) (studyplan.Course, error)
	Delete(ctx context.Context, userID, courseID string) (studyplan.Course, error)
}

type courseSvc struct {
	tx   studyplan.Transactor
	repo studyplan.CourseRepo
	l    studyplan.Logger
}

func NewCourseSvc(tx studyplan.Transactor, courseRepo studyplan.CourseRepo, logger studyplan.Logger) CourseSvc {
	return &courseSvc{
		tx:   tx,
		repo: courseRepo,
		l:    logger,
	}
}

func (s *courseSvc) List(ctx context.Context, userID string) ([]studyplan.Course, error) {
	return s.repo.GetCourses(ctx, userID)
}

func (s *courseSvc) Create(ctx context.Context, userID, name, curriculum string) (studyplan.Course, error) {
	name = strings.TrimSpace(name)
	curriculum = strings.TrimSpace(curriculum)
	if name == "" || curriculum == "" {
		return studyplan.Course{}, studyplan.Errorf(studyplan.ErrValidation, "Name and curriculum are required.")
	}

	var created studyplan.Course
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		created, err = s.repo.InsertCourse(ctx, studyplan.Course{
			UserID:     userID,
			Name:       name,
			Curriculum: curriculum,
		}, studyplan.MaxCoursesPerUser)
		return err
	})
	if errors.Is(err, studyplan.ErrQuotaExceeded) {
		coursesTotal.WithLabelValues("limited").Inc()
		s.l.Info("course limit reached", "userID", userID)
		return studyplan.Course{}, &studyplan.Error{
			Kind: studyplan.ErrQuotaExceeded,
			Msg:  fmt.Sprintf("You can only have up to %d courses.", studyplan.MaxCoursesPerUser),
			Err:  err,
		}
	}
	if err != nil {
		return studyplan.Course{}, err
	}

	coursesTotal.WithLabelValues("created").Inc()
	s.l.Info("created course", "userID", userID, "courseID", created.ID)
	return created, nil
}

// Delete removes the course. Its tasks remain, unlinked.
func (s *courseSvc) Delete(ctx context.Context, userID, courseID string) (studyplan.Course, error) {
	deleted, err := s.repo.DeleteCourse(ctx, userID, courseID)
	if err != nil {
		return studyplan.Course{}, notFound(err, msgCourseNotFound)
	}
	s.l.Info("deleted course", "userID", userID, "courseID", courseID)
	return deleted, nil
}
