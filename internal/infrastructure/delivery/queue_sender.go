package delivery

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/jhoicas/bizhub-api/internal/application/team"
)

var _ team.InvitationSender = (*QueueSender)(nil)

// Publisher subconjunto de *amqp.Channel para publicar.
type Publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// QueueSender encola el trabajo de email en RabbitMQ; cmd/mailer lo entrega por SMTP.
// Un error de publicación se reporta como entrega fallida.
type QueueSender struct {
	pub   Publisher
	queue string
}

// NewQueueSender construye el sender sobre un canal ya abierto.
func NewQueueSender(pub Publisher, queue string) *QueueSender {
	return &QueueSender{pub: pub, queue: queue}
}

func (s *QueueSender) SendInvitation(ctx context.Context, msg team.InvitationMessage) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("serializar invitación: %w", err)
	}
	err = s.pub.PublishWithContext(ctx, "", s.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    msg.InvitationID,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("rabbitmq: publicar invitación: %w", err)
	}
	return nil
}

// Conn conexión y canal RabbitMQ con la cola de invitaciones declarada.
type Conn struct {
	conn    *amqp.Connection
	Channel *amqp.Channel
}

// Dial abre conexión y canal y declara la cola (durable).
func Dial(url, queue string) (*Conn, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("rabbitmq: dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("rabbitmq: abrir canal: %w", err)
	}
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("rabbitmq: declarar cola %s: %w", queue, err)
	}
	return &Conn{conn: conn, Channel: ch}, nil
}

// Close cierra canal y conexión.
func (c *Conn) Close() error {
	if err := c.Channel.Close(); err != nil {
		_ = c.conn.Close()
		return err
	}
	return c.conn.Close()
}
