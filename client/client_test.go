package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benjamonnguyen/studyplan"
)

func TestClient_LoginStoresToken(t *testing.T) {
	var gotAuth []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = append(gotAuth, r.Header.Get("Authorization"))
		switch r.URL.Path {
		case "/auth/login":
			var body map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "a@b.c", body["email"])
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"message":"Login successful.","user":{"id":"u1","email":"a@b.c"},"token":"tok"}`)) //nolint:errcheck
		case "/tasks/board":
			w.Write([]byte(`{"today":[{"id":"t1","title":"Read","status":"today"}],"backlog":[],"done":[]}`)) //nolint:errcheck
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := New(Options{BaseURL: srv.URL + "/"})
	acct, err := c.Login(context.Background(), "a@b.c", "pw")
	require.NoError(t, err)
	assert.Equal(t, "u1", acct.User.ID)
	assert.Equal(t, "tok", c.Token())

	b, err := c.Board(context.Background())
	require.NoError(t, err)
	require.Len(t, b.Today, 1)
	assert.Equal(t, studyplan.StatusToday, b.Today[0].Status)

	assert.Equal(t, []string{"", "Bearer tok"}, gotAuth)
}

func TestClient_APIErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		kind   error
		msg    string
	}{
		{"validation", 400, `{"error":"Title is required."}`, studyplan.ErrValidation, "Title is required."},
		{"auth", 401, `{"error":"Token expired."}`, studyplan.ErrAuth, "Token expired."},
		{"not found", 404, `{"error":"Task not found."}`, studyplan.ErrNotFound, "Task not found."},
		{"upstream", 502, `{"error":"Assistant unavailable.","reason":"timeout"}`, studyplan.ErrUpstream, "Assistant unavailable. (timeout)"},
		{"no body", 500, ``, nil, "Internal Server Error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body)) //nolint:errcheck
			}))
			defer srv.Close()

			_, err := New(Options{BaseURL: srv.URL, Token: "x"}).CompleteTask(context.Background(), "t1")
			require.Error(t, err)
			var apiErr *APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.status, apiErr.Status)
			assert.Equal(t, tt.msg, err.Error())
			if tt.kind != nil {
				assert.ErrorIs(t, err, tt.kind)
			}
		})
	}
}

func TestClient_RequestShapes(t *testing.T) {
	type call struct {
		method, path string
		body         map[string]any
	}
	var calls []call
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c := call{method: r.Method, path: r.URL.Path}
		if r.ContentLength > 0 {
			require.NoError(t, json.NewDecoder(r.Body).Decode(&c.body))
		}
		calls = append(calls, c)
		switch r.URL.Path {
		case "/assistant":
			w.Write([]byte(`{"reply":"Study."}`)) //nolint:errcheck
		case "/stats/summary":
			w.Write([]byte(`{"totalMinutes":90,"totalSessions":2,"totalTasks":3,"completedTasks":1}`)) //nolint:errcheck
		case "/courses":
			if r.Method == http.MethodGet {
				w.Write([]byte(`[]`)) //nolint:errcheck
				return
			}
			w.Write([]byte(`{"id":"c1"}`)) //nolint:errcheck
		default:
			w.Write([]byte(`{}`)) //nolint:errcheck
		}
	}))
	defer srv.Close()

	ctx := context.Background()
	c := New(Options{BaseURL: srv.URL, Token: "tok"})

	_, err := c.CreateTask(ctx, CreateTaskRequest{Title: "Read", Status: "today"})
	require.NoError(t, err)
	_, err = c.MoveTask(ctx, "t1", studyplan.StatusBacklog)
	require.NoError(t, err)
	require.NoError(t, c.DeleteTask(ctx, "t1"))
	_, err = c.LogSession(ctx, "t1", 30)
	require.NoError(t, err)
	_, err = c.CreateCourse(ctx, "Go", "Week 1")
	require.NoError(t, err)
	courses, err := c.Courses(ctx)
	require.NoError(t, err)
	assert.Empty(t, courses)

	sum, err := c.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 90, sum.TotalMinutes)

	reply, err := c.Ask(ctx, "help")
	require.NoError(t, err)
	assert.Equal(t, "Study.", reply)

	require.Len(t, calls, 8)
	assert.Equal(t, call{"POST", "/tasks", map[string]any{"title": "Read", "status": "today"}}, calls[0])
	assert.Equal(t, call{"POST", "/tasks/t1/move", map[string]any{"to": "backlog"}}, calls[1])
	assert.Equal(t, call{method: "DELETE", path: "/tasks/t1"}, calls[2])
	assert.Equal(t, call{"POST", "/sessions", map[string]any{"task_id": "t1", "duration_minutes": float64(30)}}, calls[3])
	assert.Equal(t, call{"POST", "/courses", map[string]any{"name": "Go", "curriculum": "Week 1"}}, calls[4])
	assert.Equal(t, call{"POST", "/assistant", map[string]any{"message": "help"}}, calls[7])
}

func TestClient_Offline(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := New(Options{BaseURL: url, Timeout: time.Second}).Board(context.Background())
	assert.ErrorIs(t, err, ErrOffline)
}

func TestBoardCache(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "board.json")

	_, err := LoadBoard(path)
	assert.ErrorIs(t, err, studyplan.ErrNotFound)

	fetched := time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)
	b := studyplan.Partition([]studyplan.Task{
		{ID: "t1", Title: "Read", Status: studyplan.StatusToday},
		{ID: "t2", Title: "Write", Status: studyplan.StatusDone},
	})
	require.NoError(t, SaveBoard(path, b, fetched))

	got, err := LoadBoard(path)
	require.NoError(t, err)
	assert.Equal(t, fetched, got.FetchedAt)
	assert.Equal(t, []string{"t1"}, []string{got.Board.Today[0].ID})
	assert.Len(t, got.Board.Done, 1)
	assert.Empty(t, got.Board.Backlog)
	assert.NoFileExists(t, path+".tmp")
}

func TestToken(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token")

	tok, err := LoadToken(path)
	require.NoError(t, err)
	assert.Empty(t, tok)

	require.NoError(t, SaveToken(path, "abc"))
	tok, err = LoadToken(path)
	require.NoError(t, err)
	assert.Equal(t, "abc", tok)

	require.NoError(t, ClearToken(path))
	require.NoError(t, ClearToken(path))
	tok, err = LoadToken(path)
	require.NoError(t, err)
	assert.Empty(t, tok)
}
