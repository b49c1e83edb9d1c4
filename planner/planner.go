// Package planner holds the study-planning use cases. Every operation takes the
// authenticated user's id and never touches another user's records.
package planner

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/benjamonnguyen/studyplan"
)

var (
	tasksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "studyplan",
		Name:      "tasks_total",
		Help:      "Task mutations by operation.",
	}, []string{"op"})

	coursesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "studyplan",
		Name:      "courses_total",
		Help:      "Course creations by result.",
	}, []string{"result"})

	studyMinutesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "studyplan",
		Name:      "study_minutes_total",
		Help:      "Minutes logged across all study sessions.",
	})

	accountsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "studyplan",
		Name:      "auth_attempts_total",
		Help:      "Signup and login attempts by result.",
	}, []string{"op", "result"})
)

// notFound replaces a repo's not-found error with a caller-facing message and
// passes every other error through.
func notFound(err error, msg string) error {
	if errors.Is(err, studyplan.ErrNotFound) {
		return &studyplan.Error{Kind: studyplan.ErrNotFound, Msg: msg, Err: err}
	}
	return err
}
