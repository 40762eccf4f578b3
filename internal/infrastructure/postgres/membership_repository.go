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

var _ repository.MembershipRepository = (*MembershipRepo)(nil)

// MembershipRepo implementación del puerto MembershipRepository sobre PostgreSQL.
type MembershipRepo struct {
	q Querier
}

// NewMembershipRepository construye el adaptador de persistencia para membresías.
func NewMembershipRepository(q Querier) *MembershipRepo {
	return &MembershipRepo{q: q}
}

const membershipColumns = `m.business_id, m.user_id, m.role, m.permission_overrides, m.status,
	m.invited_by, m.invited_at, m.joined_at, m.updated_at`

// otherActiveOwner: existe otro propietario activo distinto de $2 en el negocio $1.
const otherActiveOwner = `EXISTS (
	SELECT 1 FROM memberships o
	WHERE o.business_id = $1 AND o.user_id <> $2 AND o.role = 'owner' AND o.status = 'active')`

// Get obtiene la membresía (business, user); (nil, nil) si no existe.
func (r *MembershipRepo) Get(ctx context.Context, businessID, userID string) (*entity.Membership, error) {
	m, err := scanMembership(r.q.QueryRow(ctx,
		`SELECT `+membershipColumns+` FROM memberships m WHERE m.business_id = $1 AND m.user_id = $2`,
		businessID, userID,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get membership: %w", err)
	}
	return m, nil
}

// GetActiveByEmail busca la membresía activa del usuario con ese email en el negocio.
func (r *MembershipRepo) GetActiveByEmail(ctx context.Context, businessID, email string) (*entity.Membership, error) {
	m, err := scanMembership(r.q.QueryRow(ctx, `
		SELECT `+membershipColumns+`
		FROM memberships m JOIN users u ON u.id = m.user_id
		WHERE m.business_id = $1 AND m.status = 'active' AND u.email = $2
		LIMIT 1`,
		businessID, email,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get membership by email: %w", err)
	}
	return m, nil
}

// ListByBusiness lista el equipo con datos de usuario, de mayor a menor rango.
func (r *MembershipRepo) ListByBusiness(ctx context.Context, businessID string) ([]*entity.MemberView, error) {
	rows, err := r.q.Query(ctx, `
		SELECT `+membershipColumns+`, u.email, u.display_name
		FROM memberships m JOIN users u ON u.id = m.user_id
		WHERE m.business_id = $1
		ORDER BY CASE m.role
			WHEN 'owner' THEN 5 WHEN 'admin' THEN 4 WHEN 'manager' THEN 3
			WHEN 'staff' THEN 2 WHEN 'viewer' THEN 1 ELSE 0 END DESC, u.email`,
		businessID,
	)
	if err != nil {
		return nil, fmt.Errorf("list memberships: %w", err)
	}
	defer rows.Close()

	var out []*entity.MemberView
	for rows.Next() {
		var v entity.MemberView
		var r string
		var invitedBy *string
		if err := rows.Scan(
			&v.BusinessID, &v.UserID, &r, &v.PermissionOverrides, &v.Status,
			&invitedBy, &v.InvitedAt, &v.JoinedAt, &v.UpdatedAt,
			&v.Email, &v.DisplayName,
		); err != nil {
			return nil, fmt.Errorf("scan membership: %w", err)
		}
		v.Role = role.Role(r)
		v.InvitedBy = derefString(invitedBy)
		out = append(out, &v)
	}
	return out, rows.Err()
}

// CountActiveOwners cuenta los propietarios activos del negocio.
func (r *MembershipRepo) CountActiveOwners(ctx context.Context, businessID string) (int, error) {
	var n int
	err := r.q.QueryRow(ctx,
		`SELECT count(*) FROM memberships WHERE business_id = $1 AND role = 'owner' AND status = 'active'`,
		businessID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count owners: %w", err)
	}
	return n, nil
}

// Create persiste una membresía; domain.ErrDuplicate si ya existe para (business, user).
func (r *MembershipRepo) Create(ctx context.Context, m *entity.Membership) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO memberships (business_id, user_id, role, permission_overrides, status,
			invited_by, invited_at, joined_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		m.BusinessID, m.UserID, string(m.Role), m.PermissionOverrides, m.Status,
		nullString(m.InvitedBy), m.InvitedAt, m.JoinedAt, m.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert membership: %w", err)
	}
	return nil
}

// UpdateOverrides reemplaza los overrides de permisos.
func (r *MembershipRepo) UpdateOverrides(ctx context.Context, businessID, userID string, o role.Overrides) (bool, error) {
	tag, err := r.q.Exec(ctx, `
		UPDATE memberships SET permission_overrides = $3, updated_at = now()
		WHERE business_id = $1 AND user_id = $2`,
		businessID, userID, o,
	)
	if err != nil {
		return false, fmt.Errorf("update overrides: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// UpdateRole cambia el rol salvo que eso deje al negocio sin propietario activo.
func (r *MembershipRepo) UpdateRole(ctx context.Context, businessID, userID string, newRole role.Role) (bool, error) {
	tag, err := r.q.Exec(ctx, `
		UPDATE memberships m SET role = $3::text, updated_at = now()
		WHERE m.business_id = $1 AND m.user_id = $2
		  AND ($3::text = 'owner' OR NOT (m.role = 'owner' AND m.status = 'active') OR `+otherActiveOwner+`)`,
		businessID, userID, string(newRole),
	)
	if err != nil {
		return false, fmt.Errorf("update role: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// UpdateStatus cambia el estado salvo que eso deje al negocio sin propietario activo.
func (r *MembershipRepo) UpdateStatus(ctx context.Context, businessID, userID, status string) (bool, error) {
	tag, err := r.q.Exec(ctx, `
		UPDATE memberships m SET status = $3::text, updated_at = now()
		WHERE m.business_id = $1 AND m.user_id = $2
		  AND ($3::text = 'active' OR NOT (m.role = 'owner' AND m.status = 'active') OR `+otherActiveOwner+`)`,
		businessID, userID, status,
	)
	if err != nil {
		return false, fmt.Errorf("update status: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// Delete borra la membresía salvo que sea el último propietario activo.
func (r *MembershipRepo) Delete(ctx context.Context, businessID, userID string) (bool, error) {
	tag, err := r.q.Exec(ctx, `
		DELETE FROM memberships m
		WHERE m.business_id = $1 AND m.user_id = $2
		  AND (NOT (m.role = 'owner' AND m.status = 'active') OR `+otherActiveOwner+`)`,
		businessID, userID,
	)
	if err != nil {
		return false, fmt.Errorf("delete membership: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// SwapOwner: una sola sentencia promueve al destino y degrada al propietario actual a admin,
// de modo que ningún lector observa un estado intermedio.
func (r *MembershipRepo) SwapOwner(ctx context.Context, businessID, fromUserID, toUserID string) (bool, error) {
	tag, err := r.q.Exec(ctx, `
		UPDATE memberships SET
			role = CASE WHEN user_id = $2 THEN 'admin' ELSE 'owner' END,
			updated_at = now()
		WHERE business_id = $1 AND user_id IN ($2, $3) AND $2::text <> $3::text
		  AND EXISTS (SELECT 1 FROM memberships f
		              WHERE f.business_id = $1 AND f.user_id = $2 AND f.role = 'owner' AND f.status = 'active')
		  AND EXISTS (SELECT 1 FROM memberships t
		              WHERE t.business_id = $1 AND t.user_id = $3 AND t.status = 'active')`,
		businessID, fromUserID, toUserID,
	)
	if err != nil {
		return false, fmt.Errorf("swap owner: %w", err)
	}
	return tag.RowsAffected() == 2, nil
}

func scanMembership(row pgx.Row) (*entity.Membership, error) {
	var m entity.Membership
	var r string
	var invitedBy *string
	err := row.Scan(
		&m.BusinessID, &m.UserID, &r, &m.PermissionOverrides, &m.Status,
		&invitedBy, &m.InvitedAt, &m.JoinedAt, &m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	m.Role = role.Role(r)
	m.InvitedBy = derefString(invitedBy)
	return &m, nil
}
