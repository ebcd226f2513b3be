package pg

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dropDatabas3/tgsession/internal/domain/repository"
)

// ProviderRepo implementa repository.ProviderRepository.
type ProviderRepo struct {
	pool *pgxpool.Pool
}

func (r *ProviderRepo) ActiveForAccount(ctx context.Context, accountID string) (*repository.ProviderRecord, error) {
	const query = `
		SELECT id, account_id, is_active, created_at
		FROM provider_record
		WHERE account_id = $1 AND is_active
		ORDER BY created_at
		LIMIT 1`
	var rec repository.ProviderRecord
	err := r.pool.QueryRow(ctx, query, accountID).Scan(
		&rec.ID, &rec.AccountID, &rec.IsActive, &rec.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}
