// Package assistant turns a user's message, tasks, and courses into a study
// plan using an external text-completion backend.
package assistant

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/benjamonnguyen/studyplan"
)

// Upstream failure reasons reported to clients.
const (
	ReasonTimeout           = "timeout"
	ReasonInsufficientQuota = "insufficient_quota"
	ReasonEmptyResponse     = "empty_response"
	ReasonUnavailable       = "unavailable"
)

var requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "studyplan",
	Name:      "assistant_requests_total",
	Help:      "Assistant requests by outcome.",
}, []string{"outcome"})

// Completer produces a reply for a system and user prompt.
type Completer interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
}

type Service interface {
	Ask(ctx context.Context, userID, message string) (string, error)
}

type service struct {
	taskRepo   studyplan.TaskRepo
	courseRepo studyplan.CourseRepo
	completer  Completer
	timeout    time.Duration
	l          studyplan.Logger
}

func NewService(taskRepo studyplan.TaskRepo, courseRepo studyplan.CourseRepo, completer Completer, timeout time.Duration, logger studyplan.Logger) Service {
	if timeout <= 0 {
		timeout = studyplan.DefaultAssistantTO
	}
	return &service{
		taskRepo:   taskRepo,
		courseRepo: courseRepo,
		completer:  completer,
		timeout:    timeout,
		l:          logger,
	}
}

// Ask builds the prompt from the user's data and returns the backend's reply.
// Backend failures are reported as ErrUpstream with a reason.
func (s *service) Ask(ctx context.Context, userID, message string) (string, error) {
	if strings.TrimSpace(message) == "" {
		return "", studyplan.Errorf(studyplan.ErrValidation, "Message is required.")
	}

	tasks, err := s.taskRepo.GetTasksWithCourse(ctx, userID)
	if err != nil {
		return "", err
	}
	courses, err := s.courseRepo.GetCourses(ctx, userID)
	if err != nil {
		return "", err
	}
	prompt := BuildPrompt(message, tasks, courses)
	s.l.Debug("built assistant prompt", "userID", userID, "tasks", len(tasks), "courses", len(courses))

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	reply, err := s.completer.Complete(ctx, SystemPrompt, prompt)
	if err != nil {
		uerr := classify(ctx, err)
		requestsTotal.WithLabelValues(studyplan.Reason(uerr)).Inc()
		s.l.Warn("assistant failed", "userID", userID, "reason", studyplan.Reason(uerr), "error", err, "duration", time.Since(start))
		return "", uerr
	}
	if strings.TrimSpace(reply) == "" {
		requestsTotal.WithLabelValues(ReasonEmptyResponse).Inc()
		s.l.Warn("assistant returned empty reply", "userID", userID)
		return "", studyplan.UpstreamError(ReasonEmptyResponse, "Assistant did not return a response.", nil)
	}

	requestsTotal.WithLabelValues("ok").Inc()
	s.l.Info("assistant replied", "userID", userID, "duration", time.Since(start))
	return reply, nil
}

func classify(ctx context.Context, err error) error {
	var e *studyplan.Error
	if errors.As(err, &e) && errors.Is(err, studyplan.ErrUpstream) {
		return err
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded):
		return studyplan.UpstreamError(ReasonTimeout, "Assistant timed out.", err)
	case strings.Contains(err.Error(), ReasonInsufficientQuota):
		return studyplan.UpstreamError(ReasonInsufficientQuota, "AI is temporarily unavailable (quota issue). Please try again later.", err)
	default:
		return studyplan.UpstreamError(ReasonUnavailable, "Assistant failed.", err)
	}
}
