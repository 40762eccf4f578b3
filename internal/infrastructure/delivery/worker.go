package delivery

import (
	"context"
	"encoding/json"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"github.com/jhoicas/bizhub-api/internal/application/team"
)

// Acknowledger subconjunto de amqp.Delivery que confirma o rechaza un mensaje.
type Acknowledger interface {
	Ack(multiple bool) error
	Nack(multiple, requeue bool) error
}

// Worker consume trabajos de invitación y los entrega con el sender configurado (SMTP).
// Un fallo de envío se reencola una vez; si vuelve a fallar el mensaje se descarta.
type Worker struct {
	sender team.InvitationSender
	log    zerolog.Logger
}

// NewWorker construye el consumidor.
func NewWorker(sender team.InvitationSender, log zerolog.Logger) *Worker {
	return &Worker{sender: sender, log: log}
}

// Run procesa deliveries con n goroutines hasta que ctx se cancele o el canal se cierre.
func (w *Worker) Run(ctx context.Context, deliveries <-chan amqp.Delivery, n int) {
	if n < 1 {
		n = 1
	}
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case d, ok := <-deliveries:
					if !ok {
						return
					}
					w.Handle(ctx, d.Body, d.Redelivered, d)
				}
			}
		}()
	}
	wg.Wait()
}

// Handle procesa un mensaje y lo confirma o rechaza.
func (w *Worker) Handle(ctx context.Context, body []byte, redelivered bool, ack Acknowledger) {
	var msg team.InvitationMessage
	if err := json.Unmarshal(body, &msg); err != nil || msg.Email == "" || msg.Token == "" {
		w.log.Error().Err(err).Msg("mensaje de invitación inválido; se descarta")
		_ = ack.Nack(false, false)
		return
	}
	if err := w.sender.SendInvitation(ctx, msg); err != nil {
		w.log.Warn().Err(err).
			Str("invitation_id", msg.InvitationID).
			Bool("redelivered", redelivered).
			Msg("envío de invitación fallido")
		_ = ack.Nack(false, !redelivered)
		return
	}
	w.log.Info().Str("invitation_id", msg.InvitationID).Str("business_id", msg.BusinessID).Msg("invitación enviada")
	_ = ack.Ack(false)
}
