// Package client talks to the studyplan HTTP API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/benjamonnguyen/studyplan"
)

// ErrOffline is returned when the server cannot be reached at all.
var ErrOffline = errors.New("server unreachable")

// APIError is a non-2xx response. It unwraps to the matching studyplan error
// kind so callers can use errors.Is.
type APIError struct {
	Status  int
	Message string
	Reason  string
}

func (e *APIError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%s (%s)", e.Message, e.Reason)
	}
	return e.Message
}

func (e *APIError) Unwrap() error {
	switch e.Status {
	case http.StatusBadRequest:
		return studyplan.ErrValidation
	case http.StatusUnauthorized:
		return studyplan.ErrAuth
	case http.StatusNotFound:
		return studyplan.ErrNotFound
	case http.StatusBadGateway:
		return studyplan.ErrUpstream
	}
	return nil
}

type Options struct {
	BaseURL string
	Timeout time.Duration
	Token   string
	Logger  studyplan.Logger
}

type Client struct {
	baseURL string
	http    *http.Client
	token   string
	l       studyplan.Logger
}

func New(opts Options) *Client {
	if opts.Timeout == 0 {
		opts.Timeout = studyplan.DefaultClientTimeout
	}
	if opts.Logger == nil {
		opts.Logger = studyplan.NopLogger
	}
	return &Client{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		http:    &http.Client{Timeout: opts.Timeout},
		token:   opts.Token,
		l:       opts.Logger,
	}
}

func (c *Client) SetToken(token string) {
	c.token = token
}

func (c *Client) Token() string {
	return c.token
}

type Account struct {
	Message string         `json:"message"`
	User    studyplan.User `json:"user"`
	Token   string         `json:"token"`
}

type CreateTaskRequest struct {
	Title       string  `json:"title"`
	Description string  `json:"description,omitempty"`
	DueDate     string  `json:"due_date,omitempty"`
	CourseID    *string `json:"course_id,omitempty"`
	Status      string  `json:"status,omitempty"`
}

// Signup registers and stores the returned token on the client.
func (c *Client) Signup(ctx context.Context, name, email, password string) (Account, error) {
	var acct Account
	body := map[string]string{"name": name, "email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/auth/signup", body, &acct); err != nil {
		return Account{}, err
	}
	c.token = acct.Token
	return acct, nil
}

// Login stores the returned token on the client.
func (c *Client) Login(ctx context.Context, email, password string) (Account, error) {
	var acct Account
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/auth/login", body, &acct); err != nil {
		return Account{}, err
	}
	c.token = acct.Token
	return acct, nil
}

func (c *Client) Board(ctx context.Context) (studyplan.Board, error) {
	var b studyplan.Board
	err := c.do(ctx, http.MethodGet, "/tasks/board", nil, &b)
	return b, err
}

func (c *Client) CreateTask(ctx context.Context, req CreateTaskRequest) (studyplan.Task, error) {
	var t studyplan.Task
	err := c.do(ctx, http.MethodPost, "/tasks", req, &t)
	return t, err
}

func (c *Client) MoveTask(ctx context.Context, taskID string, to studyplan.Status) (studyplan.Task, error) {
	var t studyplan.Task
	err := c.do(ctx, http.MethodPost, "/tasks/"+taskID+"/move", map[string]string{"to": string(to)}, &t)
	return t, err
}

func (c *Client) CompleteTask(ctx context.Context, taskID string) (studyplan.Task, error) {
	var t studyplan.Task
	err := c.do(ctx, http.MethodPost, "/tasks/"+taskID+"/complete", nil, &t)
	return t, err
}

func (c *Client) DeleteTask(ctx context.Context, taskID string) error {
	return c.do(ctx, http.MethodDelete, "/tasks/"+taskID, nil, nil)
}

func (c *Client) Courses(ctx context.Context) ([]studyplan.Course, error) {
	var courses []studyplan.Course
	err := c.do(ctx, http.MethodGet, "/courses", nil, &courses)
	return courses, err
}

func (c *Client) CreateCourse(ctx context.Context, name, curriculum string) (studyplan.Course, error) {
	var course studyplan.Course
	body := map[string]string{"name": name, "curriculum": curriculum}
	err := c.do(ctx, http.MethodPost, "/courses", body, &course)
	return course, err
}

func (c *Client) LogSession(ctx context.Context, taskID string, minutes int) (studyplan.StudySession, error) {
	var s studyplan.StudySession
	body := map[string]any{"task_id": taskID, "duration_minutes": minutes}
	err := c.do(ctx, http.MethodPost, "/sessions", body, &s)
	return s, err
}

func (c *Client) Summary(ctx context.Context) (studyplan.Summary, error) {
	var sum studyplan.Summary
	err := c.do(ctx, http.MethodGet, "/stats/summary", nil, &sum)
	return sum, err
}

func (c *Client) Ask(ctx context.Context, message string) (string, error) {
	var res struct {
		Reply string `json:"reply"`
	}
	if err := c.do(ctx, http.MethodPost, "/assistant", map[string]string{"message": message}, &res); err != nil {
		return "", err
	}
	return res.Reply, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		r = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, r)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %w", ErrOffline, err)
	}
	defer resp.Body.Close() //nolint:errcheck
	c.l.Debug("api call", "method", method, "path", path, "status", resp.StatusCode, "duration", time.Since(start))

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode}
		var e struct {
			Error  string `json:"error"`
			Reason string `json:"reason"`
		}
		if json.Unmarshal(data, &e) == nil && e.Error != "" {
			apiErr.Message, apiErr.Reason = e.Error, e.Reason
		} else {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
