package main

import (
	"embed"
	"errors"
	"fmt"
	"os"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"

	"github.com/radieske/cavs-spread-bets/internal/shared/config"
	"github.com/radieske/cavs-spread-bets/internal/shared/db"
	"github.com/radieske/cavs-spread-bets/internal/shared/logger"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

func main() {
	cfg := config.Load()
	cfg.ServiceName = "migrator"

	log, err := logger.New(cfg.ServiceName, cfg.Env, cfg.LogLevel)
	if err != nil {
		panic(fmt.Errorf("logger init: %w", err))
	}
	defer log.Sync()

	// "down" desfaz a última migração; qualquer outro valor aplica todas
	direction := "up"
	if len(os.Args) > 1 {
		direction = os.Args[1]
	}

	if err := run(cfg.PostgresDSN, direction, log); err != nil {
		log.Fatal("migration run failed", zap.Error(err))
	}
	log.Info("migration run finished", zap.String("direction", direction))
}

func run(dsn, direction string, log *zap.Logger) error {
	pg, err := db.ConnectPostgres(dsn)
	if err != nil {
		return err
	}
	defer pg.Close()

	driver, err := postgres.WithInstance(pg, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("init postgres driver: %w", err)
	}

	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("iofs source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		return fmt.Errorf("migrate instance: %w", err)
	}

	switch direction {
	case "down":
		err = m.Steps(-1)
	default:
		err = m.Up()
	}
	if errors.Is(err, migrate.ErrNoChange) {
		log.Info("schema already up to date")
		return nil
	}
	if err != nil {
		return fmt.Errorf("migrate %s: %w", direction, err)
	}

	version, dirty, verr := m.Version()
	if verr == nil {
		log.Info("schema version", zap.Uint("version", version), zap.Bool("dirty", dirty))
	}
	return nil
}
