package pg

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dropDatabas3/tgsession/internal/domain/repository"
)

// LocationRepo implementa repository.LocationRepository.
type LocationRepo struct {
	pool *pgxpool.Pool
}

// DefaultSelectableID busca la ubicación con el nombre por defecto; si no
// existe, cae a la primera seleccionable por orden de alta. Sin ninguna
// seleccionable retorna ErrNoSelectableLocation.
func (r *LocationRepo) DefaultSelectableID(ctx context.Context, defaultName string) (string, error) {
	var id string

	if defaultName != "" {
		err := r.pool.QueryRow(ctx, `
			SELECT id FROM location
			WHERE name = $1 AND selectable
			LIMIT 1`, defaultName,
		).Scan(&id)
		if err == nil {
			return id, nil
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return "", err
		}
	}

	err := r.pool.QueryRow(ctx, `
		SELECT id FROM location
		WHERE selectable
		ORDER BY created_at
		LIMIT 1`,
	).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", repository.ErrNoSelectableLocation
	}
	if err != nil {
		return "", err
	}
	return id, nil
}
