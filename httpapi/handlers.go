package httpapi

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/benjamonnguyen/studyplan"
	"github.com/benjamonnguyen/studyplan/planner"
)

type HealthResponse struct {
	Status string `json:"status"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type AccountResponse struct {
	Message string         `json:"message"`
	User    studyplan.User `json:"user"`
	Token   string         `json:"token"`
}

type CreateTaskRequest struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	DueDate     string  `json:"due_date"`
	CourseID    *string `json:"course_id"`
	Status      string  `json:"status"`
}

// UpdateTaskRequest distinguishes an absent field from one sent as null.
type UpdateTaskRequest struct {
	Title       optString `json:"title"`
	Description optString `json:"description"`
	DueDate     optString `json:"due_date"`
	CourseID    optString `json:"course_id"`
	Status      optString `json:"status"`
	Completed   *bool     `json:"completed"`
}

type MoveTaskRequest struct {
	To string `json:"to"`
}

type CreateCourseRequest struct {
	Name       string `json:"name"`
	Curriculum string `json:"curriculum"`
}

type LogSessionRequest struct {
	TaskID          string `json:"task_id"`
	DurationMinutes int    `json:"duration_minutes"`
}

type AssistantRequest struct {
	Message string `json:"message"`
}

type AssistantResponse struct {
	Reply string `json:"reply"`
}

// optString tells an absent field apart from an explicit null.
type optString struct {
	Set   bool
	Null  bool
	Value string
}

func (o *optString) UnmarshalJSON(b []byte) error {
	o.Set = true
	if string(b) == "null" {
		o.Null = true
		o.Value = ""
		return nil
	}
	return json.Unmarshal(b, &o.Value)
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}

// auth

func (s *Server) handleSignup(c echo.Context) error {
	var req planner.SignupRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	acct, err := s.svc.Accounts.Signup(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, AccountResponse{
		Message: "User created successfully.",
		User:    acct.User,
		Token:   acct.Token,
	})
}

func (s *Server) handleLogin(c echo.Context) error {
	var req planner.LoginRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	acct, err := s.svc.Accounts.Login(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, AccountResponse{
		Message: "Login successful.",
		User:    acct.User,
		Token:   acct.Token,
	})
}

// tasks

func (s *Server) handleListTasks(c echo.Context) error {
	tasks, err := s.svc.Tasks.List(c.Request().Context(), userID(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, tasks)
}

func (s *Server) handleBoard(c echo.Context) error {
	board, err := s.svc.Tasks.Board(c.Request().Context(), userID(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, board)
}

func (s *Server) handleCreateTask(c echo.Context) error {
	var req CreateTaskRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	due, err := parseDueDate(req.DueDate)
	if err != nil {
		return err
	}
	nt := studyplan.NewTask{
		Title:       req.Title,
		Description: req.Description,
		DueDate:     due,
		Status:      studyplan.Status(strings.ToLower(strings.TrimSpace(req.Status))),
	}
	if req.CourseID != nil {
		nt.CourseID = *req.CourseID
	}

	task, err := s.svc.Tasks.Create(c.Request().Context(), userID(c), nt)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, task)
}

func (s *Server) handleUpdateTask(c echo.Context) error {
	var req UpdateTaskRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	patch, err := req.patch()
	if err != nil {
		return err
	}
	if patch.Empty() {
		return studyplan.Errorf(studyplan.ErrValidation, "No fields to update.")
	}

	task, err := s.svc.Tasks.Update(c.Request().Context(), userID(c), c.Param("id"), patch)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, task)
}

func (r UpdateTaskRequest) patch() (studyplan.TaskPatch, error) {
	var p studyplan.TaskPatch
	// a task always has a title, so null leaves it alone
	if r.Title.Set && !r.Title.Null {
		p.Title = &r.Title.Value
	}
	if r.Description.Set {
		p.Description = &r.Description.Value
	}
	if r.DueDate.Set {
		due, err := parseDueDate(r.DueDate.Value)
		if err != nil {
			return studyplan.TaskPatch{}, err
		}
		p.DueDate = &due
	}
	if r.CourseID.Set {
		p.CourseID = &r.CourseID.Value
	}
	if r.Status.Set && r.Status.Value != "" {
		st, err := studyplan.ParseStatus(r.Status.Value)
		if err != nil {
			return studyplan.TaskPatch{}, err
		}
		p.Status = &st
	}
	p.Completed = r.Completed
	return p, nil
}

func (s *Server) handleMoveTask(c echo.Context) error {
	var req MoveTaskRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	to, err := studyplan.ParseStatus(req.To)
	if err != nil {
		return err
	}
	task, err := s.svc.Tasks.Move(c.Request().Context(), userID(c), c.Param("id"), to)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, task)
}

func (s *Server) handleCompleteTask(c echo.Context) error {
	task, err := s.svc.Tasks.Complete(c.Request().Context(), userID(c), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, task)
}

func (s *Server) handleDeleteTask(c echo.Context) error {
	if _, err := s.svc.Tasks.Delete(c.Request().Context(), userID(c), c.Param("id")); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, MessageResponse{Message: "Task deleted successfully."})
}

// courses

func (s *Server) handleListCourses(c echo.Context) error {
	courses, err := s.svc.Courses.List(c.Request().Context(), userID(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, courses)
}

func (s *Server) handleCreateCourse(c echo.Context) error {
	var req CreateCourseRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	course, err := s.svc.Courses.Create(c.Request().Context(), userID(c), req.Name, req.Curriculum)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, course)
}

func (s *Server) handleDeleteCourse(c echo.Context) error {
	if _, err := s.svc.Courses.Delete(c.Request().Context(), userID(c), c.Param("id")); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, MessageResponse{Message: "Course deleted successfully."})
}

// sessions

func (s *Server) handleListSessions(c echo.Context) error {
	sessions, err := s.svc.Sessions.List(c.Request().Context(), userID(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, sessions)
}

func (s *Server) handleLogSession(c echo.Context) error {
	var req LogSessionRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	session, err := s.svc.Sessions.Log(c.Request().Context(), userID(c), req.TaskID, req.DurationMinutes)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, session)
}

// stats

func (s *Server) handleSummary(c echo.Context) error {
	sum, err := s.svc.Stats.Summary(c.Request().Context(), userID(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, sum)
}

// assistant

func (s *Server) handleAssistant(c echo.Context) error {
	var req AssistantRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	reply, err := s.svc.Assistant.Ask(c.Request().Context(), userID(c), req.Message)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, AssistantResponse{Reply: reply})
}

// parseDueDate accepts RFC 3339 timestamps and plain dates. Empty means none.
func parseDueDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	return time.Time{}, studyplan.Errorf(studyplan.ErrValidation, "due_date must be a date (YYYY-MM-DD) or RFC 3339 timestamp; got %q", s)
}
