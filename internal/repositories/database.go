package repository

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/XSAM/otelsql"
	"github.com/aaravmahajanofficial/sales-savvy/internal/config"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("record not found")

type Repository struct {
	DB      *sql.DB
	User    UserRepository
	Product ProductRepository
	Cart    CartRepository
}

func New(ctx context.Context, cfg *config.Config) (*Repository, error) {

	db, err := otelsql.Open("postgres", cfg.Database.GetDSN(), otelsql.WithAttributes(semconv.DBSystemPostgreSQL))

	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.Database.ConnMaxIdleTime)

	// Test the connection to make sure DB is reachable
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if !cfg.Database.SkipMigrate {
		if err := RunMigrations(db); err != nil {
			db.Close()
			return nil, err
		}
	}

	return NewWithDB(db), nil
}

// NewWithDB wires the repositories on top of an already opened pool.
func NewWithDB(db *sql.DB) *Repository {
	return &Repository{
		DB:      db,
		User:    NewUserRepo(db),
		Product: NewProductRepo(db),
		Cart:    NewCartRepo(db),
	}
}

func RunMigrations(db *sql.DB) error {
	source, err := iofs.New(migrationFiles, "migrations")
	if err != nil {
		return fmt.Errorf("could not load migrations: %w", err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("could not run migrations: %w", err)
	}

	return nil
}

func (p *Repository) Close() error {
	return p.DB.Close()
}
