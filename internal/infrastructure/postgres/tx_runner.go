package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/bizhub-api/internal/application/team"
)

var _ team.TxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// NewRepos construye los repositorios del almacén de equipos sobre q (pool o tx).
func NewRepos(q Querier) team.Repos {
	return team.Repos{
		Organizations: NewOrganizationRepository(q),
		Businesses:    NewBusinessRepository(q),
		Users:         NewUserRepository(q),
		Memberships:   NewMembershipRepository(q),
		Invitations:   NewInvitationRepository(q),
		Audit:         NewAuditRepository(q),
	}
}

// RunTeam inicia una transacción READ COMMITTED, ejecuta fn con repos atados a la tx
// y hace Commit o Rollback. Las mutaciones se serializan por negocio con
// BusinessRepository.LockForUpdate.
func (r *TxRunner) RunTeam(ctx context.Context, fn func(repos team.Repos) error) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(NewRepos(tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
