package studyplan

import "context"

// MaxCoursesPerUser caps how many courses one user may own.
const MaxCoursesPerUser = 3

type CourseRepo interface {
	GetCourse(ctx context.Context, userID, id string) (Course, error)
	GetCourses(ctx context.Context, userID string) ([]Course, error)
	// InsertCourse stores the course only if the user owns fewer than limit
	// courses, returning ErrQuotaExceeded otherwise.
	InsertCourse(ctx context.Context, course Course, limit int) (Course, error)
	DeleteCourse(ctx context.Context, userID, id string) (Course, error)
	CountCourses(ctx context.Context, userID string) (int, error)
}
