// Package audit contiene los destinos de auditoría: la tabla append-only del almacén,
// el tópico Kafka para consumidores externos, el log estructurado y el fan-out entre ellos.
package audit

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/jhoicas/bizhub-api/internal/application/team"
	"github.com/jhoicas/bizhub-api/internal/domain/entity"
	"github.com/jhoicas/bizhub-api/internal/domain/repository"
)

var (
	_ team.AuditSink = (*RepositorySink)(nil)
	_ team.AuditSink = (*LogSink)(nil)
	_ team.AuditSink = Multi(nil)
)

// RepositorySink persiste los registros en el AuditRepository (consultables vía ListAudit).
type RepositorySink struct {
	repo repository.AuditRepository
}

// NewRepositorySink construye el destino sobre el repositorio de auditoría.
func NewRepositorySink(repo repository.AuditRepository) *RepositorySink {
	return &RepositorySink{repo: repo}
}

func (s *RepositorySink) Record(ctx context.Context, rec *entity.AuditRecord) error {
	return s.repo.Create(ctx, rec)
}

// LogSink escribe cada registro como una línea de log estructurado.
type LogSink struct {
	log zerolog.Logger
}

// NewLogSink construye el destino de log.
func NewLogSink(log zerolog.Logger) *LogSink {
	return &LogSink{log: log}
}

func (s *LogSink) Record(_ context.Context, rec *entity.AuditRecord) error {
	s.log.Info().
		Str("audit_id", rec.ID).
		Str("business_id", rec.BusinessID).
		Str("actor_id", rec.ActorID).
		Str("action", rec.Action).
		Str("target_id", rec.TargetID).
		Str("before_role", rec.BeforeRole).
		Str("after_role", rec.AfterRole).
		Msg("audit")
	return nil
}

// Multi reparte cada registro a todos los destinos; un fallo no impide los demás.
type Multi []team.AuditSink

func (m Multi) Record(ctx context.Context, rec *entity.AuditRecord) error {
	var errs []error
	for _, s := range m {
		if err := s.Record(ctx, rec); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
