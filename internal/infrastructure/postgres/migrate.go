package postgres

import (
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

// ErrNoChange se devuelve cuando no hay migraciones pendientes en la dirección pedida.
var ErrNoChange = migrate.ErrNoChange

// Migrate aplica las migraciones embebidas en la dirección indicada ("up" o "down").
// Estar ya en la versión objetivo no es un error.
func Migrate(dsn, direction string) error {
	if dsn == "" {
		return errors.New("DSN vacío: defina DATABASE_URL o DB_HOST/DB_NAME")
	}
	if direction != "up" && direction != "down" {
		return fmt.Errorf("dirección inválida %q (use up o down)", direction)
	}

	source, err := iofs.New(MigrationFS, "migrations")
	if err != nil {
		return fmt.Errorf("migrate source: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", source, dsn)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	defer func() { _, _ = m.Close() }()

	if direction == "up" {
		err = m.Up()
	} else {
		err = m.Down()
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate %s: %w", direction, err)
	}
	return nil
}
