// Comando mailer consume los trabajos de invitación de RabbitMQ y los envía por SMTP.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/jhoicas/bizhub-api/internal/infrastructure/delivery"
	"github.com/jhoicas/bizhub-api/pkg/config"
	"github.com/jhoicas/bizhub-api/pkg/logger"
)

const workers = 4

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel, Service: "mailer"})

	conn, err := delivery.Dial(cfg.RabbitMQ.URL, cfg.RabbitMQ.Queue)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a RabbitMQ")
	}
	defer conn.Close()

	if err := conn.Channel.Qos(workers, 0, false); err != nil {
		log.Fatal().Err(err).Msg("configurar prefetch")
	}
	deliveries, err := conn.Channel.Consume(cfg.RabbitMQ.Queue, "", false, false, false, false, nil)
	if err != nil {
		log.Fatal().Err(err).Str("queue", cfg.RabbitMQ.Queue).Msg("consumir cola")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sender := delivery.NewSMTPSender(cfg.SMTP, cfg.Invitations.AcceptURL)
	worker := delivery.NewWorker(sender, log.Component("mailer"))

	log.Info().Str("queue", cfg.RabbitMQ.Queue).Int("workers", workers).Msg("mailer escuchando")
	worker.Run(ctx, deliveries, workers)
	log.Info().Msg("mailer detenido")
}
