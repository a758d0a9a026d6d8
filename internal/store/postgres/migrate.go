package postgres

import (
	"embed"
	"errors"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/m-mizutani/goerr/v2"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Migrate applies the embedded schema. steps of 0 means all the way in the
// given direction.
func Migrate(url, direction string, steps int) error {
	src, err := iofs.New(migrations, "migrations")
	if err != nil {
		return goerr.Wrap(err, "failed to open embedded migrations")
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, url)
	if err != nil {
		return goerr.Wrap(err, "failed to init migrate")
	}
	defer m.Close()

	switch direction {
	case "up":
		if steps > 0 {
			err = m.Steps(steps)
		} else {
			err = m.Up()
		}
	case "down":
		if steps > 0 {
			err = m.Steps(-steps)
		} else {
			err = m.Down()
		}
	default:
		return goerr.New("unknown direction", goerr.V("direction", direction))
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return goerr.Wrap(err, "migration failed", goerr.V("direction", direction))
	}
	return nil
}
