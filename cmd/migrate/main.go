// Comando migrate aplica las migraciones embebidas del almacén de equipos.
//
//	go run ./cmd/migrate          # up
//	go run ./cmd/migrate down
package main

import (
	"os"

	"github.com/jhoicas/bizhub-api/internal/infrastructure/postgres"
	"github.com/jhoicas/bizhub-api/pkg/config"
	"github.com/jhoicas/bizhub-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel, Service: "migrate"})

	direction := "up"
	if len(os.Args) > 1 {
		direction = os.Args[1]
	}

	if err := postgres.Migrate(cfg.DB.ConnectionString(), direction); err != nil {
		log.Fatal().Err(err).Str("direction", direction).Msg("migraciones")
	}
	log.Info().Str("direction", direction).Msg("migraciones aplicadas")
}
