package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/tribithub/portal/backend/internal/models"
)

// UserStore persists accounts for the local driver. Lookups return
// ErrUserNotFound and CreateUser returns ErrUserExists.
type UserStore interface {
	CreateUser(ctx context.Context, username, email, hashedPw string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUsersByIDs(ctx context.Context, ids []string) ([]models.User, error)
	UpdatePassword(ctx context.Context, email, hashedPw string) error
}

// Local keeps accounts in Postgres and issues HS256 access tokens whose
// jti must name a live Redis session.
type Local struct {
	users    UserStore
	sessions *SessionStore
	secret   []byte
	ttl      time.Duration
	now      func() time.Time
}

func NewLocal(users UserStore, sessions *SessionStore, secret string, ttl time.Duration) *Local {
	return &Local{users: users, sessions: sessions, secret: []byte(secret), ttl: ttl, now: time.Now}
}

func (l *Local) FindUserByEmail(ctx context.Context, email string) (*models.Identity, error) {
	u, err := l.users.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	return u.Identity(), nil
}

func (l *Local) ListUsers(ctx context.Context, ids []string) ([]models.Identity, error) {
	users, err := l.users.GetUsersByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]models.Identity, 0, len(users))
	for i := range users {
		out = append(out, *users[i].Identity())
	}
	return out, nil
}

func (l *Local) CreateUser(ctx context.Context, email, password, username string) (*models.Identity, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u, err := l.users.CreateUser(ctx, username, email, string(hashed))
	if err != nil {
		return nil, err
	}
	return u.Identity(), nil
}

func (l *Local) UpdatePassword(ctx context.Context, email, password string) error {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return l.users.UpdatePassword(ctx, email, string(hashed))
}

func (l *Local) SignIn(ctx context.Context, email, password string) (*models.Session, error) {
	u, err := l.users.GetUserByEmail(ctx, email)
	if errors.Is(err, ErrUserNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	sid, err := l.sessions.Create(ctx, u.ID)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	now := l.now()
	claims := jwt.RegisteredClaims{
		Subject:   u.ID,
		ID:        sid,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(l.ttl)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(l.secret)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}
	return &models.Session{
		AccessToken: signed,
		TokenType:   "bearer",
		ExpiresIn:   int(l.ttl / time.Second),
		User:        u.Identity(),
	}, nil
}

func (l *Local) parse(token string) (*jwt.RegisteredClaims, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return l.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(l.now))
	if err != nil || claims.Subject == "" || claims.ID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (l *Local) Resolve(ctx context.Context, token string) (*models.Identity, error) {
	claims, err := l.parse(token)
	if err != nil {
		return nil, err
	}
	userID, err := l.sessions.Get(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if userID == "" || userID != claims.Subject {
		return nil, ErrInvalidToken
	}
	u, err := l.users.GetUserByID(ctx, userID)
	if errors.Is(err, ErrUserNotFound) {
		return nil, ErrInvalidToken
	}
	if err != nil {
		return nil, err
	}
	return u.Identity(), nil
}

func (l *Local) SignOut(ctx context.Context, token string) error {
	claims, err := l.parse(token)
	if err != nil {
		return err
	}
	return l.sessions.Delete(ctx, claims.ID)
}
