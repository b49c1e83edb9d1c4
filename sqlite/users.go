package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	txStdLib "github.com/Thiht/transactor/stdlib"
	"github.com/google/uuid"

	"github.com/benjamonnguyen/studyplan"
)

const (
	SelectAllUsers = "SELECT id, name, email, password_hash, created_at, updated_at FROM users"
)

type userRepo struct {
	dbGetter txStdLib.DBGetter
	l        studyplan.Logger
}

var _ studyplan.UserRepo = (*userRepo)(nil)

func NewUserRepo(dbGetter txStdLib.DBGetter, logger studyplan.Logger) studyplan.UserRepo {
	return &userRepo{
		l:        logger,
		dbGetter: dbGetter,
	}
}

func (r *userRepo) GetUser(ctx context.Context, id string) (studyplan.User, error) {
	query := SelectAllUsers + " WHERE id = ?"
	r.l.Debug("getting user", "query", query, "id", id)
	return extractUser(r.dbGetter(ctx).QueryRowContext(ctx, query, id))
}

// GetUserByEmail matches case-insensitively.
func (r *userRepo) GetUserByEmail(ctx context.Context, email string) (studyplan.User, error) {
	query := SelectAllUsers + " WHERE email = ? COLLATE NOCASE"
	r.l.Debug("getting user by email", "query", query)
	return extractUser(r.dbGetter(ctx).QueryRowContext(ctx, query, strings.TrimSpace(email)))
}

func (r *userRepo) InsertUser(ctx context.Context, u studyplan.User) (studyplan.User, error) {
	if u.Email == "" || u.PasswordHash == "" {
		return studyplan.User{}, fmt.Errorf("provide required fields 'Email' and 'PasswordHash'")
	}

	ts := now()
	u.ID = uuid.NewString()
	u.Email = strings.TrimSpace(u.Email)
	u.CreatedAt = ts
	u.UpdatedAt = ts

	args := []any{u.ID, u.Name, u.Email, u.PasswordHash, toMillis(u.CreatedAt), toMillis(u.UpdatedAt)}
	query := "INSERT INTO users (id, name, email, password_hash, created_at, updated_at) VALUES " + generateParameters(len(args))
	// args carry the password hash
	r.l.Debug("creating user", "query", query, "id", u.ID)
	if _, err := r.dbGetter(ctx).ExecContext(ctx, query, args...); err != nil {
		if isUniqueViolation(err) {
			return studyplan.User{}, studyplan.ErrEmailInUse
		}
		return studyplan.User{}, err
	}
	return u, nil
}

func extractUser(s scannable) (studyplan.User, error) {
	var u studyplan.User
	var createdAt, updatedAt int64
	if err := s.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return studyplan.User{}, fmt.Errorf("user: %w", studyplan.ErrNotFound)
		}
		return studyplan.User{}, err
	}
	u.CreatedAt = fromMillis(createdAt)
	u.UpdatedAt = fromMillis(updatedAt)
	return u, nil
}
