package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	txStdLib "github.com/Thiht/transactor/stdlib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benjamonnguyen/studyplan"
)

type testEnv struct {
	db       *Database
	tx       studyplan.Transactor
	dbGetter txStdLib.DBGetter
	users    studyplan.UserRepo
	tasks    studyplan.TaskRepo
	courses  studyplan.CourseRepo
	sessions studyplan.SessionRepo
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, db.Migrate())

	tx, dbGetter := db.Transactor()
	l := studyplan.NopLogger
	return &testEnv{
		db:       db,
		tx:       tx,
		dbGetter: dbGetter,
		users:    NewUserRepo(dbGetter, l),
		tasks:    NewTaskRepo(dbGetter, l),
		courses:  NewCourseRepo(dbGetter, l),
		sessions: NewSessionRepo(dbGetter, l),
	}
}

func (e *testEnv) newUser(t *testing.T, email string) studyplan.User {
	t.Helper()
	u, err := e.users.InsertUser(context.Background(), studyplan.User{
		Name:         "Test",
		Email:        email,
		PasswordHash: "hash",
	})
	require.NoError(t, err)
	return u
}

func TestGenerateParameters(t *testing.T) {
	assert.Equal(t, "", generateParameters(0))
	assert.Equal(t, "(?)", generateParameters(1))
	assert.Equal(t, "(?,?,?)", generateParameters(3))
}

func TestMigrate_Idempotent(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.db.Migrate())
}

func TestRollback(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.db.Rollback())

	_, err := env.db.DB().Exec("SELECT 1 FROM tasks")
	assert.Error(t, err)

	require.NoError(t, env.db.Migrate())
}

func TestUserRepo(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	u := env.newUser(t, "Ada@Example.com")
	assert.NotEmpty(t, u.ID)

	t.Run("lookup by email ignores case", func(t *testing.T) {
		got, err := env.users.GetUserByEmail(ctx, "ada@example.com")
		require.NoError(t, err)
		assert.Equal(t, u.ID, got.ID)
		assert.Equal(t, "hash", got.PasswordHash)
	})

	t.Run("duplicate email", func(t *testing.T) {
		_, err := env.users.InsertUser(ctx, studyplan.User{Email: "ADA@example.com", PasswordHash: "x"})
		assert.ErrorIs(t, err, studyplan.ErrEmailInUse)
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := env.users.GetUser(ctx, "missing")
		assert.ErrorIs(t, err, studyplan.ErrNotFound)
	})
}

func TestTaskRepo_InsertReturnsStoredValues(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.newUser(t, "a@example.com")

	est := time.FixedZone("EST", -5*60*60)
	due := time.Date(2025, 3, 1, 9, 0, 5, 123456789, est)
	created, err := env.tasks.InsertTask(ctx, studyplan.Task{
		UserID:  u.ID,
		Title:   "Lab report",
		DueDate: due,
	})
	require.NoError(t, err)
	assert.Equal(t, due.Truncate(time.Millisecond).UTC(), created.DueDate)

	got, err := env.tasks.GetTask(ctx, u.ID, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, got)
}

func TestTaskRepo_CRUD(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.newUser(t, "a@example.com")

	due := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	created, err := env.tasks.InsertTask(ctx, studyplan.Task{
		UserID:  u.ID,
		Title:   "Read chapter 1",
		DueDate: due,
	})
	require.NoError(t, err)
	assert.Equal(t, studyplan.StatusBacklog, created.Status)

	got, err := env.tasks.GetTask(ctx, u.ID, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, got)
	assert.True(t, due.Equal(got.DueDate))

	got.Status = studyplan.StatusToday
	got.Title = "Read chapter 2"
	updated, err := env.tasks.UpdateTask(ctx, got)
	require.NoError(t, err)
	assert.Equal(t, "Read chapter 2", updated.Title)
	assert.Equal(t, studyplan.StatusToday, updated.Status)
	assert.False(t, updated.UpdatedAt.Before(created.UpdatedAt))

	deleted, err := env.tasks.DeleteTask(ctx, u.ID, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, deleted.ID)

	_, err = env.tasks.GetTask(ctx, u.ID, created.ID)
	assert.ErrorIs(t, err, studyplan.ErrNotFound)
}

func TestTaskRepo_ScopedToOwner(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.newUser(t, "owner@example.com")
	other := env.newUser(t, "other@example.com")

	task, err := env.tasks.InsertTask(ctx, studyplan.Task{UserID: owner.ID, Title: "mine"})
	require.NoError(t, err)

	_, err = env.tasks.GetTask(ctx, other.ID, task.ID)
	assert.ErrorIs(t, err, studyplan.ErrNotFound)

	_, err = env.tasks.DeleteTask(ctx, other.ID, task.ID)
	assert.ErrorIs(t, err, studyplan.ErrNotFound)

	task.UserID = other.ID
	_, err = env.tasks.UpdateTask(ctx, task)
	assert.ErrorIs(t, err, studyplan.ErrNotFound)

	tasks, err := env.tasks.GetTasks(ctx, other.ID)
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

func TestTaskRepo_OrderAndCounts(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.newUser(t, "a@example.com")

	var ids []string
	for _, title := range []string{"first", "second", "third"} {
		task, err := env.tasks.InsertTask(ctx, studyplan.Task{UserID: u.ID, Title: title})
		require.NoError(t, err)
		ids = append(ids, task.ID)
	}
	task, err := env.tasks.GetTask(ctx, u.ID, ids[0])
	require.NoError(t, err)
	task.Status = studyplan.StatusDone
	_, err = env.tasks.UpdateTask(ctx, task)
	require.NoError(t, err)

	tasks, err := env.tasks.GetTasks(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, tasks, 3)
	assert.Equal(t, []string{ids[2], ids[1], ids[0]}, []string{tasks[0].ID, tasks[1].ID, tasks[2].ID})

	total, done, err := env.tasks.CountTasks(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Equal(t, 1, done)
}

func TestTaskRepo_CourseLink(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.newUser(t, "a@example.com")

	course, err := env.courses.InsertCourse(ctx, studyplan.Course{UserID: u.ID, Name: "Biology", Curriculum: "Cells"}, studyplan.MaxCoursesPerUser)
	require.NoError(t, err)

	task, err := env.tasks.InsertTask(ctx, studyplan.Task{UserID: u.ID, Title: "Mitosis", CourseID: course.ID})
	require.NoError(t, err)
	_, err = env.tasks.InsertTask(ctx, studyplan.Task{UserID: u.ID, Title: "Loose"})
	require.NoError(t, err)

	joined, err := env.tasks.GetTasksWithCourse(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, joined, 2)
	assert.Equal(t, "", joined[0].CourseName)
	assert.Equal(t, "Biology", joined[1].CourseName)

	t.Run("unknown course", func(t *testing.T) {
		_, err := env.tasks.InsertTask(ctx, studyplan.Task{UserID: u.ID, Title: "x", CourseID: "nope"})
		assert.ErrorIs(t, err, studyplan.ErrNotFound)
	})

	t.Run("deleting course unlinks tasks", func(t *testing.T) {
		_, err := env.courses.DeleteCourse(ctx, u.ID, course.ID)
		require.NoError(t, err)

		got, err := env.tasks.GetTask(ctx, u.ID, task.ID)
		require.NoError(t, err)
		assert.Empty(t, got.CourseID)
	})
}

func TestCourseRepo_Limit(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.newUser(t, "a@example.com")

	for i := range studyplan.MaxCoursesPerUser {
		_, err := env.courses.InsertCourse(ctx, studyplan.Course{UserID: u.ID, Name: "c", Curriculum: string(rune('a' + i))}, studyplan.MaxCoursesPerUser)
		require.NoError(t, err)
	}

	_, err := env.courses.InsertCourse(ctx, studyplan.Course{UserID: u.ID, Name: "c", Curriculum: "d"}, studyplan.MaxCoursesPerUser)
	assert.ErrorIs(t, err, studyplan.ErrQuotaExceeded)

	n, err := env.courses.CountCourses(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, studyplan.MaxCoursesPerUser, n)

	courses, err := env.courses.GetCourses(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, courses, 3)
	assert.Equal(t, "a", courses[0].Curriculum)
	assert.Equal(t, "c", courses[2].Curriculum)
}

func TestCourseRepo_TriggerBacksLimit(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.newUser(t, "a@example.com")

	// a caller passing a higher limit still hits the trigger
	for range studyplan.MaxCoursesPerUser {
		_, err := env.courses.InsertCourse(ctx, studyplan.Course{UserID: u.ID, Name: "c", Curriculum: "x"}, 10)
		require.NoError(t, err)
	}
	_, err := env.courses.InsertCourse(ctx, studyplan.Course{UserID: u.ID, Name: "c", Curriculum: "x"}, 10)
	assert.ErrorIs(t, err, studyplan.ErrQuotaExceeded)
}

func TestCourseRepo_ConcurrentInserts(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.newUser(t, "a@example.com")

	var wg sync.WaitGroup
	var mu sync.Mutex
	var ok, quota int
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := env.tx.WithinTransaction(ctx, func(ctx context.Context) error {
				_, err := env.courses.InsertCourse(ctx, studyplan.Course{UserID: u.ID, Name: "c", Curriculum: "x"}, studyplan.MaxCoursesPerUser)
				return err
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, studyplan.ErrQuotaExceeded):
				quota++
			}
		}()
	}
	wg.Wait()

	n, err := env.courses.CountCourses(ctx, u.ID)
	require.NoError(t, err)
	assert.LessOrEqual(t, n, studyplan.MaxCoursesPerUser)
	assert.Equal(t, n, ok)
}

func TestSessionRepo(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.newUser(t, "a@example.com")

	task, err := env.tasks.InsertTask(ctx, studyplan.Task{UserID: u.ID, Title: "Essay"})
	require.NoError(t, err)

	minutes, count, err := env.sessions.SumSessions(ctx, u.ID)
	require.NoError(t, err)
	assert.Zero(t, minutes)
	assert.Zero(t, count)

	for _, d := range []int{30, 60} {
		_, err := env.sessions.InsertSession(ctx, studyplan.StudySession{UserID: u.ID, TaskID: task.ID, DurationMinutes: d})
		require.NoError(t, err)
	}

	_, err = env.sessions.InsertSession(ctx, studyplan.StudySession{UserID: u.ID, TaskID: task.ID, DurationMinutes: 0})
	assert.Error(t, err)
	_, err = env.sessions.InsertSession(ctx, studyplan.StudySession{UserID: u.ID, TaskID: task.ID, DurationMinutes: studyplan.MaxSessionMinutes + 1})
	assert.Error(t, err, "schema rejects sessions longer than a day")

	minutes, count, err = env.sessions.SumSessions(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 90, minutes)
	assert.Equal(t, 2, count)

	t.Run("sessions survive task deletion", func(t *testing.T) {
		_, err := env.tasks.DeleteTask(ctx, u.ID, task.ID)
		require.NoError(t, err)

		sessions, err := env.sessions.GetSessions(ctx, u.ID)
		require.NoError(t, err)
		require.Len(t, sessions, 2)
		assert.Equal(t, 60, sessions[0].DurationMinutes)
		for _, s := range sessions {
			assert.Empty(t, s.TaskID)
		}

		minutes, _, err := env.sessions.SumSessions(ctx, u.ID)
		require.NoError(t, err)
		assert.Equal(t, 90, minutes)
	})
}
