// Package migrations embeds the schema and applies it with golang-migrate.
package migrations

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/sbmwhylt/wlt-team-space/internal/logging"
)

//go:embed sql/*.sql
var files embed.FS

// Source returns the embedded migration source.
func Source() (source.Driver, error) {
	return iofs.New(files, "sql")
}

// Apply migrates the database at dsn to the latest version. It is a no-op
// when the schema is current. Cancelling ctx stops after the running step.
func Apply(ctx context.Context, dsn string, log *logging.Logger) error {
	if log == nil {
		log = logging.NewDefault("migrations")
	}
	src, err := Source()
	if err != nil {
		return fmt.Errorf("load migrations: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, dsn)
	if err != nil {
		return fmt.Errorf("init migrate: %w", err)
	}
	defer func() {
		if srcErr, dbErr := m.Close(); srcErr != nil || dbErr != nil {
			log.Warnf("close migrate: source=%v database=%v", srcErr, dbErr)
		}
	}()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			m.GracefulStop <- true
		case <-done:
		}
	}()

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			log.Debug("schema up to date")
			return nil
		}
		return fmt.Errorf("apply migrations: %w", err)
	}
	if version, dirty, err := m.Version(); err == nil {
		log.WithField("version", version).WithField("dirty", dirty).Info("schema migrated")
	}
	return nil
}

// Versions lists the embedded migration versions in order.
func Versions() ([]uint, error) {
	src, err := Source()
	if err != nil {
		return nil, err
	}
	defer src.Close()

	v, err := src.First()
	if err != nil {
		return nil, err
	}
	out := []uint{v}
	for {
		next, err := src.Next(v)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return out, nil
			}
			return nil, err
		}
		out = append(out, next)
		v = next
	}
}
