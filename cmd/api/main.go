// @title           BizHub Team API
// @version         1.0
// @description     Gestión de equipos y autorización por negocio.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey  Bearer
// @in              header
// @name            Authorization
// @description     Bearer <token JWT>
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/rs/zerolog"

	_ "github.com/jhoicas/bizhub-api/docs"
	"github.com/jhoicas/bizhub-api/internal/application/team"
	infraaudit "github.com/jhoicas/bizhub-api/internal/infrastructure/audit"
	"github.com/jhoicas/bizhub-api/internal/infrastructure/delivery"
	"github.com/jhoicas/bizhub-api/internal/infrastructure/memory"
	infrapdf "github.com/jhoicas/bizhub-api/internal/infrastructure/pdf"
	"github.com/jhoicas/bizhub-api/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/bizhub-api/internal/interfaces/http"
	"github.com/jhoicas/bizhub-api/pkg/config"
	"github.com/jhoicas/bizhub-api/pkg/logger"
	"github.com/jhoicas/bizhub-api/pkg/telemetry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:     cfg.App.Env,
		Level:   cfg.App.LogLevel,
		Service: cfg.App.Name,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("store", cfg.Store.Driver).
		Str("delivery", cfg.Invitations.Delivery).
		Msg("iniciando aplicación")

	ctx := context.Background()

	providers, err := telemetry.NewProviders(ctx, cfg.Telemetry.Endpoint, cfg.Telemetry.ServiceName)
	if err != nil {
		log.Fatal().Err(err).Msg("telemetría")
	}
	providers.SetGlobal()

	// Almacén de equipos
	var (
		repos team.Repos
		tx    team.TxRunner
	)
	switch cfg.Store.Driver {
	case "memory":
		store := memory.New()
		repos, tx = store.Repos(), store
		log.Warn().Msg("almacén en memoria: los datos se pierden al reiniciar")
	default:
		pool, err := postgres.NewPool(ctx, cfg.DB)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a PostgreSQL")
		}
		defer pool.Close()
		repos, tx = postgres.NewRepos(pool), postgres.NewTxRunner(pool)
	}

	// Auditoría: tabla + log, y Kafka si hay brokers configurados.
	sinks := infraaudit.Multi{
		infraaudit.NewRepositorySink(repos.Audit),
		infraaudit.NewLogSink(log.Component("audit")),
	}
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaSink := infraaudit.NewKafkaSink(cfg.Kafka.Brokers, cfg.Kafka.AuditTopic)
		defer func() {
			if err := kafkaSink.Close(); err != nil {
				log.Error().Err(err).Msg("cerrar productor Kafka")
			}
		}()
		sinks = append(sinks, kafkaSink)
	}

	sender, closeSender := invitationSender(cfg, log.Component("delivery"))
	defer closeSender()

	teamSvc := team.NewService(repos, tx,
		team.WithAuditSink(sinks),
		team.WithInvitationSender(sender),
		team.WithRosterRenderer(infrapdf.NewRosterGenerator()),
		team.WithInvitationTTL(cfg.Invitations.TTL()),
		team.WithLogger(log.Component("team")),
	)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "BizHub Team API",
	}))

	httpRouter.Router(app, httpRouter.RouterDeps{
		Team:      teamSvc,
		JWTSecret: cfg.JWT.Secret,
		AcceptURL: cfg.Invitations.AcceptURL,
		Logger:    log.Component("http"),
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}
	if err := providers.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado de telemetría")
	}

	log.Info().Msg("aplicación detenida")
}

// invitationSender elige la entrega según INVITE_DELIVERY. Si la cola no está disponible
// se degrada a log: las invitaciones se siguen creando y el enlace se devuelve al invitador.
func invitationSender(cfg *config.Config, log zerolog.Logger) (team.InvitationSender, func()) {
	switch cfg.Invitations.Delivery {
	case "smtp":
		return delivery.NewSMTPSender(cfg.SMTP, cfg.Invitations.AcceptURL), func() {}
	case "queue":
		conn, err := delivery.Dial(cfg.RabbitMQ.URL, cfg.RabbitMQ.Queue)
		if err != nil {
			log.Error().Err(err).Msg("RabbitMQ no disponible; entrega por log")
			return delivery.NewLogSender(log, cfg.Invitations.AcceptURL), func() {}
		}
		return delivery.NewQueueSender(conn.Channel, cfg.RabbitMQ.Queue), func() {
			if err := conn.Close(); err != nil {
				log.Error().Err(err).Msg("cerrar conexión RabbitMQ")
			}
		}
	default:
		return delivery.NewLogSender(log, cfg.Invitations.AcceptURL), func() {}
	}
}
