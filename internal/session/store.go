package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storefront/internal/domain"
	"storefront/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

const (
	// TokenExpiration bounds how long a session token stays valid.
	TokenExpiration = 7 * 24 * time.Hour
)

var (
	ErrInvalidToken = errors.New("invalid token")
)

// Claims represents the JWT claims carried by a session token.
type Claims struct {
	SessionID string `json:"session_id"`
	UserID    string `json:"user_id"`
	jwt.RegisteredClaims
}

// Store owns the authenticated-user record for each session. Login and
// register go through the AuthProvider; the resulting user is persisted to
// durable storage and fails open to unauthenticated when the stored record
// is missing or corrupt.
type Store struct {
	provider  AuthProvider
	sessions  repository.SessionStore
	jwtSecret string
	logger    *zap.Logger
}

// NewStore creates a session store around an auth provider.
func NewStore(provider AuthProvider, sessions repository.SessionStore, jwtSecret string, logger *zap.Logger) *Store {
	return &Store{
		provider:  provider,
		sessions:  sessions,
		jwtSecret: jwtSecret,
		logger:    logger,
	}
}

// Login authenticates through the provider and persists the resulting user.
// A rejection leaves session state untouched.
func (s *Store) Login(ctx context.Context, sessionID, email, password string) (*domain.User, string, error) {
	user, err := s.provider.Login(ctx, email, password)
	if err != nil {
		return nil, "", err
	}

	if err := s.sessions.Save(ctx, sessionID, user); err != nil {
		s.logger.Warn("Failed to persist user session",
			zap.String("session_id", sessionID),
			zap.Error(err),
		)
	}

	token, err := s.issueToken(sessionID, user)
	if err != nil {
		return nil, "", fmt.Errorf("failed to issue session token: %w", err)
	}

	return user, token, nil
}

// Register creates a new account through the provider and persists it.
func (s *Store) Register(ctx context.Context, sessionID, name, email, password string) (*domain.User, string, error) {
	user, err := s.provider.Register(ctx, name, email, password)
	if err != nil {
		return nil, "", err
	}

	if err := s.sessions.Save(ctx, sessionID, user); err != nil {
		s.logger.Warn("Failed to persist user session",
			zap.String("session_id", sessionID),
			zap.Error(err),
		)
	}

	token, err := s.issueToken(sessionID, user)
	if err != nil {
		return nil, "", fmt.Errorf("failed to issue session token: %w", err)
	}

	return user, token, nil
}

// Logout clears the persisted user. It always succeeds from the shopper's
// point of view; a storage failure is logged only.
func (s *Store) Logout(ctx context.Context, sessionID string) {
	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		s.logger.Warn("Failed to delete user session",
			zap.String("session_id", sessionID),
			zap.Error(err),
		)
	}
}

// Current returns the persisted user for a session, or nil when the session
// is unauthenticated. Corrupt records are discarded, never fatal.
func (s *Store) Current(ctx context.Context, sessionID string) *domain.User {
	user, err := s.sessions.Load(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrSessionCorrupt) {
			s.logger.Warn("Discarding corrupt user session",
				zap.String("session_id", sessionID),
				zap.Error(err),
			)
			if delErr := s.sessions.Delete(ctx, sessionID); delErr != nil {
				s.logger.Warn("Failed to delete corrupt user session", zap.Error(delErr))
			}
		} else if !errors.Is(err, repository.ErrSessionNotFound) {
			s.logger.Warn("Failed to load user session",
				zap.String("session_id", sessionID),
				zap.Error(err),
			)
		}
		return nil
	}
	return user
}

// issueToken signs a JWT carrying the session and user IDs.
func (s *Store) issueToken(sessionID string, user *domain.User) (string, error) {
	now := time.Now()
	claims := &Claims{
		SessionID: sessionID,
		UserID:    user.ID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenExpiration)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.jwtSecret))
}

// ValidateToken parses a session token and returns its claims.
func (s *Store) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.jwtSecret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
