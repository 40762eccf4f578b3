package repository

import (
	"context"

	"github.com/jhoicas/bizhub-api/internal/domain/entity"
)

// InvitationRepository define el puerto de persistencia para Invitation (siempre por negocio).
type InvitationRepository interface {
	Create(ctx context.Context, inv *entity.Invitation) error
	GetByID(ctx context.Context, businessID, id string) (*entity.Invitation, error)
	GetByTokenHash(ctx context.Context, businessID, tokenHash string) (*entity.Invitation, error)
	// GetLatestByEmail devuelve la invitación más reciente para ese email, o nil.
	GetLatestByEmail(ctx context.Context, businessID, email string) (*entity.Invitation, error)
	ListByBusiness(ctx context.Context, businessID string) ([]*entity.Invitation, error)
	// Transition persiste los campos mutables de inv solo si el estado actual sigue siendo fromStatus.
	Transition(ctx context.Context, inv *entity.Invitation, fromStatus string) (bool, error)
}
