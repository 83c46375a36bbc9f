// README: Authentication service; bcrypt password hashing and JWT sessions.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/basgenix4u/fuw-campus-shuttle/internal/types"
)

var (
	ErrInvalidToken       = errors.New("invalid token")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailTaken         = errors.New("email already registered")
	ErrBadRequest         = errors.New("bad request")
)

type Service struct {
	store     Store
	jwtSecret []byte
	tokenTTL  time.Duration
}

func NewService(store Store, jwtSecret string, tokenTTL time.Duration) *Service {
	return &Service{store: store, jwtSecret: []byte(jwtSecret), tokenTTL: tokenTTL}
}

type RegisterCommand struct {
	Email    string
	Password string
	FullName string
	Phone    string
	Role     string
}

func (s *Service) Register(ctx context.Context, cmd RegisterCommand) (types.ID, error) {
	email := strings.ToLower(strings.TrimSpace(cmd.Email))
	if email == "" || cmd.Password == "" || cmd.FullName == "" {
		return "", ErrBadRequest
	}
	if cmd.Role == "" {
		cmd.Role = RolePassenger
	}
	if !ValidRole(cmd.Role) {
		return "", ErrBadRequest
	}
	hash, err := HashPassword(cmd.Password)
	if err != nil {
		return "", err
	}
	u := &User{
		ID:           types.ID(uuid.NewString()),
		Email:        email,
		PasswordHash: hash,
		FullName:     cmd.FullName,
		Phone:        cmd.Phone,
		Role:         cmd.Role,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.store.Create(ctx, u); err != nil {
		return "", err
	}
	return u.ID, nil
}

func (s *Service) Login(ctx context.Context, email, password string) (string, Session, error) {
	u, err := s.store.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if errors.Is(err, ErrUserNotFound) {
		return "", Session{}, ErrInvalidCredentials
	}
	if err != nil {
		return "", Session{}, err
	}
	if !CheckPassword(password, u.PasswordHash) {
		return "", Session{}, ErrInvalidCredentials
	}
	token, err := s.GenerateToken(u)
	if err != nil {
		return "", Session{}, err
	}
	return token, Session{UserID: u.ID, Role: u.Role}, nil
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(bytes), nil
}

func CheckPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

type claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

func (s *Service) GenerateToken(u *User) (string, error) {
	now := time.Now()
	c := claims{
		Role: u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   string(u.ID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(s.jwtSecret)
}

func (s *Service) ValidateToken(tokenString string) (Session, error) {
	var c claims
	token, err := jwt.ParseWithClaims(tokenString, &c, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return Session{}, ErrInvalidToken
	}
	if c.Subject == "" || !ValidRole(c.Role) {
		return Session{}, ErrInvalidToken
	}
	return Session{UserID: types.ID(c.Subject), Role: c.Role}, nil
}
