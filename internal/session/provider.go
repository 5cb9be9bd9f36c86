package session

import (
	"context"
	"errors"
	"strings"
	"time"

	"storefront/internal/domain"

	"github.com/google/uuid"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// AuthProvider is the pluggable identity boundary. The storefront ships with
// a simulated provider; a production deployment swaps in a real identity
// backend without touching the session store's contract.
type AuthProvider interface {
	Login(ctx context.Context, email, password string) (*domain.User, error)
	Register(ctx context.Context, name, email, password string) (*domain.User, error)
}

// MockProvider simulates an identity backend: it waits a fixed delay to
// mimic network latency and applies only trivial credential checks. No real
// verification or password hashing happens here; credentials are never
// stored.
type MockProvider struct {
	delay time.Duration
}

// NewMockProvider creates a simulated identity provider with the given
// artificial latency.
func NewMockProvider(delay time.Duration) *MockProvider {
	return &MockProvider{delay: delay}
}

func (p *MockProvider) wait(ctx context.Context) error {
	select {
	case <-time.After(p.delay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Login accepts any email containing "@" with a password of at least six
// characters and synthesizes a user record from the email.
func (p *MockProvider) Login(ctx context.Context, email, password string) (*domain.User, error) {
	if err := p.wait(ctx); err != nil {
		return nil, err
	}

	if !strings.Contains(email, "@") || len(password) < 6 {
		return nil, ErrInvalidCredentials
	}

	name := email[:strings.Index(email, "@")]
	return &domain.User{
		ID:            "user-" + uuid.NewString(),
		Name:          name,
		Email:         email,
		Authenticated: true,
	}, nil
}

// Register additionally requires a non-empty name.
func (p *MockProvider) Register(ctx context.Context, name, email, password string) (*domain.User, error) {
	if err := p.wait(ctx); err != nil {
		return nil, err
	}

	if name == "" || !strings.Contains(email, "@") || len(password) < 6 {
		return nil, ErrInvalidCredentials
	}

	return &domain.User{
		ID:            "user-" + uuid.NewString(),
		Name:          name,
		Email:         email,
		Authenticated: true,
	}, nil
}
