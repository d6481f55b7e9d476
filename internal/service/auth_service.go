package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/radcr/radcr-backend/internal/config"
	"github.com/radcr/radcr-backend/internal/model"
	"golang.org/x/crypto/bcrypt"
)

// Claims extends JWT standard claims with app-specific fields.
type Claims struct {
	jwt.RegisteredClaims
	UserID   int    `json:"user_id"`
	Username string `json:"username"`
}

// AuthService handles accounts, JWT issuance and session tracking.
type AuthService struct {
	cfg      *config.Config
	users    UserStore
	sessions SessionStore
}

// NewAuthService creates a new AuthService.
func NewAuthService(cfg *config.Config, users UserStore, sessions SessionStore) *AuthService {
	return &AuthService{cfg: cfg, users: users, sessions: sessions}
}

// HashPassword hashes a password with the configured bcrypt cost.
func (s *AuthService) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cfg.BcryptCost)
	return string(hash), err
}

// CheckPassword compares a plaintext password against a bcrypt hash.
func (s *AuthService) CheckPassword(hash, password string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}

// Register creates an account.
func (s *AuthService) Register(ctx context.Context, req model.RegisterRequest) (*model.User, error) {
	if _, err := s.users.GetByUsername(ctx, req.Username); err == nil {
		return nil, ErrUsernameTaken
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	hash, err := s.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &model.User{Username: req.Username, PasswordHash: hash}
	if err := s.users.Create(ctx, u); err != nil {
		if isUniqueViolation(err) {
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

// Login checks credentials and issues a token. A new login replaces any
// previous session of the same user.
func (s *AuthService) Login(ctx context.Context, req model.LoginRequest) (string, *model.User, error) {
	u, err := s.users.GetByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, fmt.Errorf("lookup user: %w", err)
	}

	if err := s.CheckPassword(u.PasswordHash, req.Password); err != nil {
		return "", nil, err
	}

	token, err := s.GenerateToken(ctx, u)
	if err != nil {
		return "", nil, err
	}
	return token, u, nil
}

// GenerateToken creates a JWT for u and registers its id as the active session.
func (s *AuthService) GenerateToken(ctx context.Context, u *model.User) (string, error) {
	jti := uuid.New().String()
	now := time.Now()

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Subject:   strconv.Itoa(u.ID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.JWTExpiry)),
		},
		UserID:   u.ID,
		Username: u.Username,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	if err := s.sessions.SetSession(ctx, u.ID, jti, s.cfg.JWTExpiry); err != nil {
		return "", fmt.Errorf("store session: %w", err)
	}
	return signed, nil
}

// ValidateToken parses and validates a JWT, returning the claims.
func (s *AuthService) ValidateToken(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}

// ValidateSession checks that jti is the active session of the user.
func (s *AuthService) ValidateSession(ctx context.Context, userID int, jti string) error {
	stored, err := s.sessions.GetSession(ctx, userID)
	if err != nil {
		return fmt.Errorf("check session: %w", err)
	}
	if stored == "" || stored != jti {
		return ErrSessionInvalidated
	}
	return nil
}

// Logout ends the active session of a user.
func (s *AuthService) Logout(ctx context.Context, userID int) error {
	return s.sessions.DeleteSession(ctx, userID)
}

// GetUser returns the account behind a token.
func (s *AuthService) GetUser(ctx context.Context, userID int) (*model.User, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, notFound(err)
	}
	return u, nil
}
