// Package provideroracle envuelve el oráculo de existencia de prestador
// colapsando lecturas concurrentes idénticas con singleflight.
//
// No cachea: un TTL acá podría devolver un prestador recién desactivado y
// romper el invariante de no-exceso-de-privilegio. Solo deduplica llamadas
// en vuelo para la misma cuenta (logins en ráfaga de la misma identidad).
package provideroracle

import (
	"context"

	"golang.org/x/sync/singleflight"

	"github.com/dropDatabas3/tgsession/internal/domain/repository"
)

// Oracle implementa repository.ProviderRepository deduplicando lecturas.
type Oracle struct {
	repo repository.ProviderRepository
	sf   singleflight.Group
}

func New(repo repository.ProviderRepository) *Oracle {
	return &Oracle{repo: repo}
}

// ActiveForAccount retorna el ProviderRecord activo de la cuenta, o
// repository.ErrNotFound. Llamadas concurrentes para la misma cuenta
// comparten una sola consulta al storage.
func (o *Oracle) ActiveForAccount(ctx context.Context, accountID string) (*repository.ProviderRecord, error) {
	v, err, _ := o.sf.Do(accountID, func() (any, error) {
		return o.repo.ActiveForAccount(ctx, accountID)
	})
	if err != nil {
		return nil, err
	}
	return v.(*repository.ProviderRecord), nil
}
