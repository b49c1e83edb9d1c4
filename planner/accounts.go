package planner

import (
	"context"
	"errors"
	"strings"

	"github.com/benjamonnguyen/studyplan"
)

type PasswordHasher interface {
	Hash(password string) (string, error)
	// Compare returns nil when password matches hash.
	Compare(hash, password string) error
}

type TokenIssuer interface {
	Issue(user studyplan.User) (string, error)
}

type SignupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Account is an authenticated user and a bearer token for them.
type Account struct {
	User  studyplan.User `json:"user"`
	Token string         `json:"token"`
}

type AccountSvc interface {
	Signup(ctx context.Context, req SignupRequest) (Account, error)
	Login(ctx context.Context, req LoginRequest) (Account, error)
}

type accountSvc struct {
	userRepo studyplan.UserRepo
	hasher   PasswordHasher
	issuer   TokenIssuer
	l        studyplan.Logger
}

func NewAccountSvc(userRepo studyplan.UserRepo, hasher PasswordHasher, issuer TokenIssuer, logger studyplan.Logger) AccountSvc {
	return &accountSvc{
		userRepo: userRepo,
		hasher:   hasher,
		issuer:   issuer,
		l:        logger,
	}
}

func (s *accountSvc) Signup(ctx context.Context, req SignupRequest) (Account, error) {
	email := strings.TrimSpace(req.Email)
	if email == "" || req.Password == "" {
		accountsTotal.WithLabelValues("signup", "invalid").Inc()
		return Account{}, studyplan.Errorf(studyplan.ErrValidation, "Email and password are required.")
	}
	if len(req.Password) > studyplan.MaxPasswordBytes {
		accountsTotal.WithLabelValues("signup", "invalid").Inc()
		return Account{}, studyplan.Errorf(studyplan.ErrValidation, "Password must be at most %d bytes.", studyplan.MaxPasswordBytes)
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return Account{}, err
	}

	user, err := s.userRepo.InsertUser(ctx, studyplan.User{
		Name:         strings.TrimSpace(req.Name),
		Email:        email,
		PasswordHash: hash,
	})
	if errors.Is(err, studyplan.ErrEmailInUse) {
		accountsTotal.WithLabelValues("signup", "email_in_use").Inc()
		return Account{}, &studyplan.Error{Kind: studyplan.ErrValidation, Msg: "Email is already in use.", Err: err}
	}
	if err != nil {
		return Account{}, err
	}

	token, err := s.issuer.Issue(user)
	if err != nil {
		return Account{}, err
	}

	accountsTotal.WithLabelValues("signup", "ok").Inc()
	s.l.Info("user signed up", "userID", user.ID)
	return Account{User: user, Token: token}, nil
}

// Login reports an unknown email and a wrong password identically.
func (s *accountSvc) Login(ctx context.Context, req LoginRequest) (Account, error) {
	email := strings.TrimSpace(req.Email)
	if email == "" || req.Password == "" {
		accountsTotal.WithLabelValues("login", "invalid").Inc()
		return Account{}, studyplan.Errorf(studyplan.ErrValidation, "Email and password are required.")
	}

	invalid := studyplan.Errorf(studyplan.ErrInvalidCredentials, "Invalid email or password.")
	user, err := s.userRepo.GetUserByEmail(ctx, email)
	if errors.Is(err, studyplan.ErrNotFound) {
		accountsTotal.WithLabelValues("login", "denied").Inc()
		return Account{}, invalid
	}
	if err != nil {
		return Account{}, err
	}
	if err := s.hasher.Compare(user.PasswordHash, req.Password); err != nil {
		accountsTotal.WithLabelValues("login", "denied").Inc()
		s.l.Debug("password mismatch", "userID", user.ID)
		return Account{}, invalid
	}

	token, err := s.issuer.Issue(user)
	if err != nil {
		return Account{}, err
	}

	accountsTotal.WithLabelValues("login", "ok").Inc()
	s.l.Info("user logged in", "userID", user.ID)
	return Account{User: user, Token: token}, nil
}
