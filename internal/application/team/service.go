// Package team implementa el núcleo de autorización por negocio y la gestión de equipos:
// resolución de membresías, mutaciones de roles y miembros con sus invariantes,
// ciclo de vida de invitaciones y alta de negocios.
package team

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/jhoicas/bizhub-api/internal/domain"
	"github.com/jhoicas/bizhub-api/internal/domain/entity"
	"github.com/jhoicas/bizhub-api/internal/domain/role"
)

// DefaultInvitationTTL vigencia de una invitación (7 días).
const DefaultInvitationTTL = 7 * 24 * time.Hour

const instrumentationName = "github.com/jhoicas/bizhub-api/internal/application/team"

var (
	tracer     = otel.Tracer(instrumentationName)
	operations metric.Int64Counter
)

func init() {
	var err error
	operations, err = otel.Meter(instrumentationName).Int64Counter("team.operations",
		metric.WithDescription("Operaciones de equipo por resultado"))
	if err != nil {
		otel.Handle(err)
	}
}

// Service orquesta las operaciones de autorización y equipo. Toda mutación corre en
// una transacción que bloquea el negocio, relee actor y destino, valida y escribe.
// La auditoría y la entrega de invitaciones ocurren después del commit.
type Service struct {
	repos         Repos
	tx            TxRunner
	resolver      *Resolver
	audit         AuditSink
	sender        InvitationSender
	roster        RosterRenderer
	log           zerolog.Logger
	now           func() time.Time
	invitationTTL time.Duration
}

// Option configura colaboradores opcionales del servicio.
type Option func(*Service)

// WithAuditSink define el destino de auditoría.
func WithAuditSink(a AuditSink) Option { return func(s *Service) { s.audit = a } }

// WithInvitationSender define el colaborador de entrega de invitaciones.
func WithInvitationSender(snd InvitationSender) Option { return func(s *Service) { s.sender = snd } }

// WithRosterRenderer define el generador del exporte de equipo.
func WithRosterRenderer(r RosterRenderer) Option { return func(s *Service) { s.roster = r } }

// WithLogger define el logger estructurado.
func WithLogger(l zerolog.Logger) Option { return func(s *Service) { s.log = l } }

// WithClock reemplaza el reloj (tests).
func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }

// WithInvitationTTL cambia la vigencia de las invitaciones.
func WithInvitationTTL(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.invitationTTL = d
		}
	}
}

// NewService construye el servicio. repos se usa para lecturas fuera de transacción.
func NewService(repos Repos, tx TxRunner, opts ...Option) *Service {
	s := &Service{
		repos:         repos,
		tx:            tx,
		resolver:      NewResolver(repos),
		log:           zerolog.Nop(),
		now:           func() time.Time { return time.Now().UTC() },
		invitationTTL: DefaultInvitationTTL,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Resolver expone el resolver de membresías (middleware HTTP).
func (s *Service) Resolver() *Resolver { return s.resolver }

// withActor abre la transacción, bloquea el negocio y resuelve al actor activo.
func (s *Service) withActor(
	ctx context.Context,
	actorID, businessID string,
	fn func(r Repos, b *entity.Business, actor *entity.Membership) error,
) error {
	return s.runAsActor(ctx, actorID, businessID, true, fn)
}

// withReader es withActor sin bloquear el negocio, para consultas que a lo sumo
// persisten una expiración. Esa escritura es condicional (solo desde pending) y no
// toca membresías, así que no necesita serializarse con las mutaciones del equipo.
func (s *Service) withReader(
	ctx context.Context,
	actorID, businessID string,
	fn func(r Repos, b *entity.Business, actor *entity.Membership) error,
) error {
	return s.runAsActor(ctx, actorID, businessID, false, fn)
}

func (s *Service) runAsActor(
	ctx context.Context,
	actorID, businessID string,
	lock bool,
	fn func(r Repos, b *entity.Business, actor *entity.Membership) error,
) error {
	if actorID == "" || businessID == "" {
		return domain.ErrNotAMember
	}
	return s.tx.RunTeam(ctx, func(r Repos) error {
		get := r.Businesses.GetByID
		if lock {
			get = r.Businesses.LockForUpdate
		}
		b, err := get(ctx, businessID)
		if err != nil {
			return err
		}
		if b == nil || !b.IsActive {
			return domain.ErrNotAMember
		}
		actor, err := r.Memberships.Get(ctx, businessID, actorID)
		if err != nil {
			return err
		}
		if !actor.IsActive() {
			return domain.ErrNotAMember
		}
		return fn(r, b, actor)
	})
}

// requirePermission falla con ErrInsufficientRank si el actor no tiene el permiso efectivo.
func requirePermission(actor *entity.Membership, perm role.Permission) error {
	if !actor.Permissions().Has(perm) {
		return domain.ErrInsufficientRank
	}
	return nil
}

// loadTarget relee la membresía destino dentro de la transacción.
func loadTarget(ctx context.Context, r Repos, businessID, userID string) (*entity.Membership, error) {
	if userID == "" {
		return nil, domain.ErrNotAMember
	}
	m, err := r.Memberships.Get(ctx, businessID, userID)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, domain.ErrNotAMember
	}
	return m, nil
}

// isSoleActiveOwner informa si target es el único propietario activo del negocio.
func isSoleActiveOwner(ctx context.Context, r Repos, target *entity.Membership) (bool, error) {
	if !target.IsActiveOwner() {
		return false, nil
	}
	n, err := r.Memberships.CountActiveOwners(ctx, target.BusinessID)
	if err != nil {
		return false, err
	}
	return n <= 1, nil
}

// record emite un registro de auditoría. Best-effort: un fallo solo se registra en el log.
func (s *Service) record(ctx context.Context, rec entity.AuditRecord) {
	if s.audit == nil {
		return
	}
	rec.ID = uuid.New().String()
	rec.CreatedAt = s.now()
	if err := s.audit.Record(ctx, &rec); err != nil {
		s.log.Error().Err(err).
			Str("business_id", rec.BusinessID).
			Str("action", rec.Action).
			Msg("no se pudo registrar auditoría")
	}
}

// opSpan span de una operación; al cerrarse también cuenta la operación por resultado.
type opSpan struct {
	trace.Span
	ctx context.Context
	op  string
}

func (s *Service) startSpan(ctx context.Context, op, businessID string) (context.Context, *opSpan) {
	ctx, span := tracer.Start(ctx, "team."+op, trace.WithAttributes(attribute.String("business.id", businessID)))
	return ctx, &opSpan{Span: span, ctx: ctx, op: op}
}

func endSpan(span *opSpan, err error) {
	result := "ok"
	if err != nil {
		result = ErrorCode(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, result)
	}
	if operations != nil {
		operations.Add(span.ctx, 1, metric.WithAttributes(
			attribute.String("operation", span.op),
			attribute.String("result", result),
		))
	}
	span.End()
}
