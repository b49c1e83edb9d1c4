// Package httpapi exposes the planner over a JSON HTTP API.
package httpapi

import (
	"context"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/benjamonnguyen/studyplan"
	"github.com/benjamonnguyen/studyplan/assistant"
	"github.com/benjamonnguyen/studyplan/auth"
	"github.com/benjamonnguyen/studyplan/planner"
)

type Config struct {
	Host         string
	Port         int
	AllowOrigins []string
}

// Services are the use cases the API dispatches to.
type Services struct {
	Accounts  planner.AccountSvc
	Tasks     planner.TaskSvc
	Courses   planner.CourseSvc
	Sessions  planner.SessionSvc
	Stats     planner.StatsSvc
	Assistant assistant.Service
}

func (s Services) validate() error {
	switch {
	case s.Accounts == nil:
		return fmt.Errorf("accounts service cannot be nil")
	case s.Tasks == nil:
		return fmt.Errorf("tasks service cannot be nil")
	case s.Courses == nil:
		return fmt.Errorf("courses service cannot be nil")
	case s.Sessions == nil:
		return fmt.Errorf("sessions service cannot be nil")
	case s.Stats == nil:
		return fmt.Errorf("stats service cannot be nil")
	case s.Assistant == nil:
		return fmt.Errorf("assistant service cannot be nil")
	}
	return nil
}

type TokenVerifier interface {
	Verify(token string) (auth.Claims, error)
}

type Server struct {
	echo     *echo.Echo
	svc      Services
	verifier TokenVerifier
	l        studyplan.Logger
	config   Config
}

func NewServer(svc Services, verifier TokenVerifier, logger studyplan.Logger, cfg *Config) (*Server, error) {
	if err := svc.validate(); err != nil {
		return nil, err
	}
	if verifier == nil {
		return nil, fmt.Errorf("token verifier cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if cfg == nil {
		cfg = &Config{
			Host: studyplan.DefaultHost,
			Port: studyplan.DefaultPort,
		}
	}
	if len(cfg.AllowOrigins) == 0 {
		cfg.AllowOrigins = []string{"*"}
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		echo:     e,
		svc:      svc,
		verifier: verifier,
		l:        logger,
		config:   *cfg,
	}
	e.HTTPErrorHandler = s.handleError

	e.Use(middleware.RequestID())
	e.Use(s.observe)
	// inside observe so panics are logged and counted as 500s
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: cfg.AllowOrigins,
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))
	e.Use(middleware.BodyLimit("1M"))

	s.registerRoutes()

	return s, nil
}

func (s *Server) registerRoutes() {
	s.echo.GET("/health", s.handleHealth)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	s.echo.POST("/auth/signup", s.handleSignup)
	s.echo.POST("/auth/login", s.handleLogin)

	authed := s.authenticate
	s.echo.GET("/tasks", s.handleListTasks, authed)
	s.echo.GET("/tasks/board", s.handleBoard, authed)
	s.echo.POST("/tasks", s.handleCreateTask, authed)
	s.echo.PUT("/tasks/:id", s.handleUpdateTask, authed)
	s.echo.POST("/tasks/:id/move", s.handleMoveTask, authed)
	s.echo.POST("/tasks/:id/complete", s.handleCompleteTask, authed)
	s.echo.DELETE("/tasks/:id", s.handleDeleteTask, authed)

	s.echo.GET("/courses", s.handleListCourses, authed)
	s.echo.POST("/courses", s.handleCreateCourse, authed)
	s.echo.DELETE("/courses/:id", s.handleDeleteCourse, authed)

	s.echo.GET("/sessions", s.handleListSessions, authed)
	s.echo.POST("/sessions", s.handleLogSession, authed)

	s.echo.GET("/stats/summary", s.handleSummary, authed)

	s.echo.POST("/assistant", s.handleAssistant, authed)
}

// ServeHTTP lets the server be mounted or exercised without a listener.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}

func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.l.Info("starting http server", "addr", addr)
	return s.echo.Start(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.l.Info("shutting down http server")
	return s.echo.Shutdown(ctx)
}
