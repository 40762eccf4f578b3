package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/jhoicas/bizhub-api/internal/application/team"
	"github.com/jhoicas/bizhub-api/internal/domain/entity"
)

var _ team.AuditSink = (*KafkaSink)(nil)

// Writer subconjunto de kafka.Writer que usa el destino (reemplazable en tests).
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaSink publica los registros de auditoría como JSON. La clave es el business_id,
// de modo que los eventos de un negocio conservan su orden dentro de la partición.
type KafkaSink struct {
	writer Writer
}

// NewKafkaSink crea el productor hacia topic en los brokers dados.
func NewKafkaSink(brokers []string, topic string) *KafkaSink {
	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 50 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
	}
	return &KafkaSink{writer: w}
}

// NewKafkaSinkWithWriter permite inyectar un writer de prueba.
func NewKafkaSinkWithWriter(w Writer) *KafkaSink {
	return &KafkaSink{writer: w}
}

func (s *KafkaSink) Record(ctx context.Context, rec *entity.AuditRecord) error {
	body, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("serializar auditoría: %w", err)
	}
	msg := kafka.Message{
		Key:   []byte(rec.BusinessID),
		Value: body,
		Headers: []kafka.Header{
			{Key: "action", Value: []byte(rec.Action)},
		},
		Time: rec.CreatedAt,
	}
	if err := s.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafka: publicar auditoría: %w", err)
	}
	return nil
}

// Close cierra el writer subyacente.
func (s *KafkaSink) Close() error {
	return s.writer.Close()
}
