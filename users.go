package studyplan

import (
	"context"
	"errors"
)

// MaxPasswordBytes is the longest password bcrypt will hash.
const MaxPasswordBytes = 72

// ErrEmailInUse is returned by UserRepo.InsertUser for a duplicate email.
var ErrEmailInUse = errors.New("email is already in use")

type UserRepo interface {
	GetUser(ctx context.Context, id string) (User, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)
	InsertUser(ctx context.Context, user User) (User, error)
}
