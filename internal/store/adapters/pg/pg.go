// Package pg implementa los repositorios de dominio sobre PostgreSQL.
// Usa pgxpool directamente; los errores de pgx nunca cruzan hacia arriba:
// se traducen a los errores de internal/domain/repository.
package pg

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// uniqueViolation es el código SQLSTATE de violación de constraint único.
const uniqueViolation = "23505"

// Config del pool de conexiones.
type Config struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// Store agrupa los repositorios implementados sobre un pool compartido.
type Store struct {
	pool *pgxpool.Pool

	Accounts  *AccountRepo
	Providers *ProviderRepo
	Locations *LocationRepo
}

// Open abre el pool y construye los repositorios.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("pg: parse DSN: %w", err)
	}

	// Configurar pool
	if cfg.MaxOpenConns > 0 {
		poolCfg.MaxConns = int32(cfg.MaxOpenConns)
	} else {
		poolCfg.MaxConns = 10
	}
	if cfg.MaxIdleConns > 0 {
		poolCfg.MinConns = int32(cfg.MaxIdleConns)
	} else {
		poolCfg.MinConns = 2
	}
	if cfg.ConnMaxLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.ConnMaxLifetime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("pg: connect: %w", err)
	}

	return &Store{
		pool:      pool,
		Accounts:  &AccountRepo{pool: pool},
		Providers: &ProviderRepo{pool: pool},
		Locations: &LocationRepo{pool: pool},
	}, nil
}

// Pool expone el pool subyacente (métricas).
func (s *Store) Pool() *pgxpool.Pool {
	return s.pool
}

// Ping verifica la conexión (readiness).
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close cierra el pool.
func (s *Store) Close() {
	s.pool.Close()
}

// isUniqueViolation detecta una violación de constraint único de Postgres.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
