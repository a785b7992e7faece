package port

import (
	"context"

	"github.com/google/uuid"

	"github.com/jedlsf/buwis-friend/internal/domain"
)

// SessionRepository defines the contract for filing session persistence.
// All query methods include userID so a user only ever sees their own sessions.
type SessionRepository interface {
	Create(ctx context.Context, rec *domain.SessionRecord) error
	GetByID(ctx context.Context, userID string, id uuid.UUID) (*domain.SessionRecord, error)
	ListByUser(ctx context.Context, userID string, offset, limit int) ([]domain.SessionRecord, int, error)
	// Update stores rec if the row still carries rec.UpdatedAt and returns
	// domain.ErrConflict otherwise. On success rec.UpdatedAt is advanced.
	Update(ctx context.Context, rec *domain.SessionRecord) error
	Delete(ctx context.Context, userID string, id uuid.UUID) error
	Ping(ctx context.Context) error
}
