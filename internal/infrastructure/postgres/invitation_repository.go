package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/bizhub-api/internal/domain"
	"github.com/jhoicas/bizhub-api/internal/domain/entity"
	"github.com/jhoicas/bizhub-api/internal/domain/repository"
	"github.com/jhoicas/bizhub-api/internal/domain/role"
)

var _ repository.InvitationRepository = (*InvitationRepo)(nil)

// InvitationRepo implementación del puerto InvitationRepository sobre PostgreSQL.
type InvitationRepo struct {
	q Querier
}

// NewInvitationRepository construye el adaptador de persistencia para invitaciones.
func NewInvitationRepository(q Querier) *InvitationRepo {
	return &InvitationRepo{q: q}
}

const invitationColumns = `id, business_id, email, role, token_hash, status, expires_at,
	created_by, created_at, updated_at, resent_count, accepted_by, accepted_at`

// Create persiste una invitación pendiente.
func (r *InvitationRepo) Create(ctx context.Context, inv *entity.Invitation) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO invitations (id, business_id, email, role, token_hash, status, expires_at,
			created_by, created_at, updated_at, resent_count)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		inv.ID, inv.BusinessID, inv.Email, string(inv.Role), inv.TokenHash, inv.Status, inv.ExpiresAt,
		inv.CreatedBy, inv.CreatedAt, inv.UpdatedAt, inv.ResentCount,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert invitation: %w", err)
	}
	return nil
}

// GetByID obtiene una invitación del negocio; (nil, nil) si no existe.
func (r *InvitationRepo) GetByID(ctx context.Context, businessID, id string) (*entity.Invitation, error) {
	return r.getOne(ctx,
		`SELECT `+invitationColumns+` FROM invitations WHERE business_id = $1 AND id = $2`,
		businessID, id)
}

// GetByTokenHash busca por hash de token dentro del negocio.
func (r *InvitationRepo) GetByTokenHash(ctx context.Context, businessID, tokenHash string) (*entity.Invitation, error) {
	return r.getOne(ctx,
		`SELECT `+invitationColumns+` FROM invitations WHERE business_id = $1 AND token_hash = $2`,
		businessID, tokenHash)
}

// GetLatestByEmail devuelve la invitación más reciente para el email.
func (r *InvitationRepo) GetLatestByEmail(ctx context.Context, businessID, email string) (*entity.Invitation, error) {
	return r.getOne(ctx, `
		SELECT `+invitationColumns+` FROM invitations
		WHERE business_id = $1 AND email = $2
		ORDER BY created_at DESC LIMIT 1`,
		businessID, email)
}

// ListByBusiness lista las invitaciones del negocio, más recientes primero.
func (r *InvitationRepo) ListByBusiness(ctx context.Context, businessID string) ([]*entity.Invitation, error) {
	rows, err := r.q.Query(ctx,
		`SELECT `+invitationColumns+` FROM invitations WHERE business_id = $1 ORDER BY created_at DESC`,
		businessID,
	)
	if err != nil {
		return nil, fmt.Errorf("list invitations: %w", err)
	}
	defer rows.Close()

	var out []*entity.Invitation
	for rows.Next() {
		inv, err := scanInvitation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan invitation: %w", err)
		}
		out = append(out, inv)
	}
	return out, rows.Err()
}

// Transition persiste estado, token, vigencia y aceptación solo si el estado actual es fromStatus.
func (r *InvitationRepo) Transition(ctx context.Context, inv *entity.Invitation, fromStatus string) (bool, error) {
	tag, err := r.q.Exec(ctx, `
		UPDATE invitations SET
			status = $3, token_hash = $4, expires_at = $5, resent_count = $6,
			accepted_by = $7, accepted_at = $8, updated_at = $9
		WHERE business_id = $1 AND id = $2 AND status = $10`,
		inv.BusinessID, inv.ID,
		inv.Status, inv.TokenHash, inv.ExpiresAt, inv.ResentCount,
		nullString(inv.AcceptedBy), inv.AcceptedAt, inv.UpdatedAt,
		fromStatus,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return false, domain.ErrDuplicate
		}
		return false, fmt.Errorf("transition invitation: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *InvitationRepo) getOne(ctx context.Context, query string, args ...any) (*entity.Invitation, error) {
	inv, err := scanInvitation(r.q.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get invitation: %w", err)
	}
	return inv, nil
}

func scanInvitation(row pgx.Row) (*entity.Invitation, error) {
	var inv entity.Invitation
	var r string
	var acceptedBy *string
	err := row.Scan(
		&inv.ID, &inv.BusinessID, &inv.Email, &r, &inv.TokenHash, &inv.Status, &inv.ExpiresAt,
		&inv.CreatedBy, &inv.CreatedAt, &inv.UpdatedAt, &inv.ResentCount, &acceptedBy, &inv.AcceptedAt,
	)
	if err != nil {
		return nil, err
	}
	inv.Role = role.Role(r)
	inv.AcceptedBy = derefString(acceptedBy)
	return &inv, nil
}
