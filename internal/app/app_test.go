package app

import (
	"context"
	"errors"
	"strings"
	"testing"

	rdb "github.com/redis/go-redis/v9"

	"github.com/dropDatabas3/tgsession/internal/domain/repository"
)

type fakeLocations struct{ err error }

func (f *fakeLocations) DefaultSelectableID(context.Context, string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return "loc-1", nil
}

func TestProbeDefaultLocation(t *testing.T) {
	ctx := context.Background()

	if err := probeDefaultLocation(ctx, &fakeLocations{}, "default"); err != nil {
		t.Fatalf("con seed presente: %v", err)
	}

	// Sin seed el arranque debe fallar con un error que nombre la ubicación.
	err := probeDefaultLocation(ctx, &fakeLocations{err: repository.ErrNoSelectableLocation}, "default")
	if err == nil {
		t.Fatalf("esperaba error de arranque")
	}
	if !errors.Is(err, repository.ErrNoSelectableLocation) {
		t.Fatalf("causa no preservada: %v", err)
	}
	if !strings.Contains(err.Error(), `"default"`) {
		t.Fatalf("el error no nombra la ubicación: %v", err)
	}
}

func TestContainerClose_ParcialCierraRedis(t *testing.T) {
	// Un contenedor a medio construir (sin store) debe poder cerrarse y
	// soltar el cliente redis.
	c := &Container{Redis: rdb.NewClient(&rdb.Options{Addr: "127.0.0.1:0"})}
	if err := c.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := c.Redis.Ping(context.Background()).Err(); err == nil {
		t.Fatalf("el cliente redis debía quedar cerrado")
	}
}
