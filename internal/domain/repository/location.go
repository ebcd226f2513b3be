package repository

import "context"

// LocationRepository resuelve la ubicación por defecto para cuentas nuevas.
// Solo se consulta durante la creación de cuenta.
type LocationRepository interface {
	// DefaultSelectableID retorna el id de la ubicación con el nombre por
	// defecto configurado; si no existe, el de la primera seleccionable.
	// Retorna ErrNoSelectableLocation si no hay ninguna seleccionable.
	DefaultSelectableID(ctx context.Context, defaultName string) (string, error)
}
