package repository

import (
	"context"

	"github.com/peoplehub/hr-identity/internal/domain"
)

// UserRepository provides access to user accounts.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	Update(ctx context.Context, user *domain.User) error
}

// SessionRepository provides access to user sessions. Create must persist a
// session completely or not at all.
type SessionRepository interface {
	Create(ctx context.Context, session *domain.Session) error
	GetByID(ctx context.Context, id string) (*domain.Session, error)
	ListByUser(ctx context.Context, userID string) ([]*domain.Session, error)
	DeleteExpired(ctx context.Context) (int64, error)
}

// APIKeyRepository provides read-only access to the API key registry.
type APIKeyRepository interface {
	GetBySecret(ctx context.Context, secret string) (*domain.APIKey, error)
}
