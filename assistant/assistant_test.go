package assistant

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"

	"github.com/benjamonnguyen/studyplan"
)

func TestBuildPrompt_Empty(t *testing.T) {
	got := BuildPrompt("help me study", nil, nil)

	want := `
The user is a college student using a study planner app.

User message:
"help me study"

Here are their courses and curricula:
No courses defined yet.

Here are their current tasks:
No tasks yet.

Using this information, create a short, practical study plan.
- Use bullet points.
- Break time into small blocks (10–20 minutes each).
- Mention which course and topic to focus on.
- Prefer tasks and topics that match the user's message.
- Keep it under about 10 bullets.
`
	assert.Equal(t, want, got)
}

func TestSummarizeTasks(t *testing.T) {
	tasks := []studyplan.TaskWithCourse{
		{Task: studyplan.Task{Title: "Lab report", Status: studyplan.StatusToday}, CourseName: "Chemistry"},
		{Task: studyplan.Task{Title: "Flashcards", Status: studyplan.StatusDone}},
		{Task: studyplan.Task{Title: "Reading"}},
		{Task: studyplan.Task{Title: "Essay", Status: studyplan.StatusBacklog}, CourseName: "History"},
	}

	assert.Equal(t, strings.Join([]string{
		"- [Chemistry] Lab report (today)",
		"- [General] Flashcards (done)",
		"- [General] Reading (unscheduled)",
		"- [History] Essay (backlog)",
	}, "\n"), summarizeTasks(tasks))
}

func TestSummarizeCourses(t *testing.T) {
	long := strings.Repeat("é", 900)
	courses := []studyplan.Course{
		{Name: "Biology", Curriculum: "  Cells\nGenetics  "},
		{Name: "French", Curriculum: long},
	}

	got := summarizeCourses(courses)
	blocks := strings.Split(got, "\n\n")
	require.Len(t, blocks, 2)
	assert.Equal(t, "Course: Biology\nCurriculum:\nCells\nGenetics", blocks[0])
	assert.Equal(t, "Course: French\nCurriculum:\n"+strings.Repeat("é", 800), blocks[1])
}

type fakeTaskRepo struct {
	studyplan.TaskRepo
	tasks []studyplan.TaskWithCourse
}

func (r fakeTaskRepo) GetTasksWithCourse(context.Context, string) ([]studyplan.TaskWithCourse, error) {
	return r.tasks, nil
}

type fakeCourseRepo struct {
	studyplan.CourseRepo
	courses []studyplan.Course
}

func (r fakeCourseRepo) GetCourses(context.Context, string) ([]studyplan.Course, error) {
	return r.courses, nil
}

type completerFunc func(ctx context.Context, system, prompt string) (string, error)

func (f completerFunc) Complete(ctx context.Context, system, prompt string) (string, error) {
	return f(ctx, system, prompt)
}

func newTestService(c Completer, timeout time.Duration) Service {
	tasks := fakeTaskRepo{tasks: []studyplan.TaskWithCourse{
		{Task: studyplan.Task{Title: "Derivatives", Status: studyplan.StatusToday}, CourseName: "Calculus"},
	}}
	courses := fakeCourseRepo{courses: []studyplan.Course{{Name: "Calculus", Curriculum: "Limits"}}}
	return NewService(tasks, courses, c, timeout, studyplan.NopLogger)
}

func TestService_Ask(t *testing.T) {
	var gotSystem, gotPrompt string
	svc := newTestService(completerFunc(func(_ context.Context, system, prompt string) (string, error) {
		gotSystem, gotPrompt = system, prompt
		return "- 15 min: derivatives", nil
	}), time.Second)

	reply, err := svc.Ask(context.Background(), "u1", "exam tomorrow")
	require.NoError(t, err)
	assert.Equal(t, "- 15 min: derivatives", reply)
	assert.Equal(t, SystemPrompt, gotSystem)
	assert.Contains(t, gotPrompt, `"exam tomorrow"`)
	assert.Contains(t, gotPrompt, "- [Calculus] Derivatives (today)")
	assert.Contains(t, gotPrompt, "Course: Calculus\nCurriculum:\nLimits")
}

func TestService_AskErrors(t *testing.T) {
	tests := []struct {
		name       string
		message    string
		completer  completerFunc
		wantKind   error
		wantReason string
	}{
		{
			name:     "blank message",
			message:  "  ",
			wantKind: studyplan.ErrValidation,
		},
		{
			name:    "timeout",
			message: "plan",
			completer: func(ctx context.Context, _, _ string) (string, error) {
				<-ctx.Done()
				return "", ctx.Err()
			},
			wantKind:   studyplan.ErrUpstream,
			wantReason: ReasonTimeout,
		},
		{
			name:    "quota",
			message: "plan",
			completer: func(context.Context, string, string) (string, error) {
				return "", errors.New("API returned unexpected status code: 429: insufficient_quota")
			},
			wantKind:   studyplan.ErrUpstream,
			wantReason: ReasonInsufficientQuota,
		},
		{
			name:    "empty reply",
			message: "plan",
			completer: func(context.Context, string, string) (string, error) {
				return "  ", nil
			},
			wantKind:   studyplan.ErrUpstream,
			wantReason: ReasonEmptyResponse,
		},
		{
			name:    "network",
			message: "plan",
			completer: func(context.Context, string, string) (string, error) {
				return "", errors.New("connection refused")
			},
			wantKind:   studyplan.ErrUpstream,
			wantReason: ReasonUnavailable,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var c Completer = completerFunc(func(context.Context, string, string) (string, error) {
				t.Fatal("completer should not be called")
				return "", nil
			})
			if tt.completer != nil {
				c = tt.completer
			}
			svc := newTestService(c, 20*time.Millisecond)

			_, err := svc.Ask(context.Background(), "u1", tt.message)
			assert.ErrorIs(t, err, tt.wantKind)
			assert.Equal(t, tt.wantReason, studyplan.Reason(err))
		})
	}
}

type fakeModel struct {
	llms.Model
	messages []llms.MessageContent
	opts     llms.CallOptions
	reply    string
}

func (m *fakeModel) GenerateContent(_ context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	m.messages = messages
	for _, o := range options {
		o(&m.opts)
	}
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: m.reply}}}, nil
}

func TestLLMCompleter(t *testing.T) {
	model := &fakeModel{reply: "plan"}
	c := NewLLMCompleter(model, LLMConfig{MaxTokens: 350, RateLimit: 100, Burst: 1})

	reply, err := c.Complete(context.Background(), "sys", "prompt")
	require.NoError(t, err)
	assert.Equal(t, "plan", reply)
	assert.Equal(t, 350, model.opts.MaxTokens)
	require.Len(t, model.messages, 2)
	assert.Equal(t, llms.ChatMessageTypeSystem, model.messages[0].Role)
	assert.Equal(t, llms.ChatMessageTypeHuman, model.messages[1].Role)
}

func TestLLMCompleter_RateLimited(t *testing.T) {
	c := NewLLMCompleter(&fakeModel{reply: "plan"}, LLMConfig{RateLimit: 0.001, Burst: 1})

	_, err := c.Complete(context.Background(), "sys", "prompt")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = c.Complete(ctx, "sys", "prompt")
	assert.ErrorIs(t, err, studyplan.ErrUpstream)
	assert.Equal(t, ReasonTimeout, studyplan.Reason(err))
}

func TestNewOpenAICompleter_RequiresKey(t *testing.T) {
	_, err := NewOpenAICompleter(LLMConfig{})
	assert.Error(t, err)
}

func TestDisabled(t *testing.T) {
	_, err := Disabled{}.Complete(context.Background(), SystemPrompt, "hi")
	require.ErrorIs(t, err, studyplan.ErrUpstream)
	assert.Equal(t, ReasonUnavailable, studyplan.Reason(err))
}
