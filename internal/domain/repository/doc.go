// Package repository define las interfaces de repositorio de dominio.
//
// Estas interfaces representan los contratos que el núcleo de sesión exige
// de sus colaboradores de persistencia, independientes del almacenamiento
// subyacente. Las implementaciones concretas viven en
// internal/store/adapters/.
//
// Convenciones:
//   - Context siempre es el primer parámetro
//   - Errores de dominio están en errors.go
//   - El colaborador DEBE garantizar unicidad de (provider_type, external_id):
//     un create concurrente perdedor retorna ErrConflict y el caller lo
//     reintenta como update.
package repository
