package studyplan

import "context"

// MaxSessionMinutes caps a single study session at one day.
const MaxSessionMinutes = 24 * 60

type SessionRepo interface {
	InsertSession(ctx context.Context, session StudySession) (StudySession, error)
	GetSessions(ctx context.Context, userID string) ([]StudySession, error)
	SumSessions(ctx context.Context, userID string) (minutes int, count int, err error)
}
