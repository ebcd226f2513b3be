// Package app arma el contenedor de dependencias y el servidor HTTP.
package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	rdb "github.com/redis/go-redis/v9"

	"github.com/dropDatabas3/tgsession/internal/config"
	"github.com/dropDatabas3/tgsession/internal/domain/repository"
	httpapi "github.com/dropDatabas3/tgsession/internal/http"
	authctrl "github.com/dropDatabas3/tgsession/internal/http/controllers/auth"
	healthctrl "github.com/dropDatabas3/tgsession/internal/http/controllers/health"
	"github.com/dropDatabas3/tgsession/internal/http/router"
	"github.com/dropDatabas3/tgsession/internal/infra/provideroracle"
	jwtx "github.com/dropDatabas3/tgsession/internal/jwt"
	"github.com/dropDatabas3/tgsession/internal/observability/logger"
	"github.com/dropDatabas3/tgsession/internal/rate"
	"github.com/dropDatabas3/tgsession/internal/session"
	"github.com/dropDatabas3/tgsession/internal/store/adapters/pg"
	"github.com/dropDatabas3/tgsession/internal/telegram"
)

// Container es el contenedor DI simple que usamos en el servidor.
type Container struct {
	Cfg     *config.Config
	Store   *pg.Store
	Redis   *rdb.Client // nil si cache.kind != redis
	Issuer  *jwtx.Issuer
	Session *session.Service
	Handler http.Handler
}

// Close libera recursos del contenedor.
func (c *Container) Close() error {
	if c.Redis != nil {
		_ = c.Redis.Close()
	}
	if c.Store != nil {
		c.Store.Close()
	}
	return nil
}

// probeDefaultLocation verifica que la ubicación por defecto configurada sea
// resoluble. La falta de seed es un error de despliegue, fatal de arranque.
func probeDefaultLocation(ctx context.Context, locs repository.LocationRepository, name string) error {
	if _, err := locs.DefaultSelectableID(ctx, name); err != nil {
		return fmt.Errorf("app: default location %q no resoluble: %w", name, err)
	}
	return nil
}

// Build construye el contenedor completo a partir de la configuración.
func Build(ctx context.Context, cfg *config.Config) (*Container, error) {
	log := logger.L().With(logger.Component("app"))

	// Paso 1: storage
	var connMaxLifetime time.Duration
	if cfg.Storage.Postgres.ConnMaxLifetime != "" {
		connMaxLifetime, _ = time.ParseDuration(cfg.Storage.Postgres.ConnMaxLifetime)
	}
	store, err := pg.Open(ctx, pg.Config{
		DSN:             cfg.Storage.DSN,
		MaxOpenConns:    cfg.Storage.Postgres.MaxOpenConns,
		MaxIdleConns:    cfg.Storage.Postgres.MaxIdleConns,
		ConnMaxLifetime: connMaxLifetime,
	})
	if err != nil {
		return nil, fmt.Errorf("app: open store: %w", err)
	}

	// Sin ubicación por defecto todo primer login fallaría: un despliegue
	// sin seed muere acá, no request a request.
	if err := probeDefaultLocation(ctx, store.Locations, cfg.Location.DefaultName); err != nil {
		store.Close()
		return nil, err
	}

	// Paso 2: emisor de tokens y verificador de initData
	issuer, err := jwtx.NewIssuer(cfg.JWT.Issuer, []byte(cfg.JWT.Secret), cfg.AccessTTL(), cfg.RefreshTTL())
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("app: issuer: %w", err)
	}
	verifier := telegram.NewVerifier(cfg.Telegram.BotToken, cfg.Telegram.MaxInitDataAge)

	// Paso 3: servicio de sesión
	svc := session.New(session.Deps{
		Accounts:            store.Accounts,
		Providers:           provideroracle.New(store.Providers),
		Locations:           store.Locations,
		Verifier:            verifier,
		Issuer:              issuer,
		DefaultLocationName: cfg.Location.DefaultName,
	})

	// Paso 4: rate limiter (redis si hay, memoria si no)
	var redisClient *rdb.Client
	var limiter rate.Limiter
	if cfg.Rate.Enabled {
		window, _ := time.ParseDuration(cfg.Rate.Login.Window)
		if cfg.Cache.Kind == "redis" && cfg.Cache.Redis.Addr != "" {
			redisClient = rdb.NewClient(&rdb.Options{
				Addr: cfg.Cache.Redis.Addr,
				DB:   cfg.Cache.Redis.DB,
			})
			limiter = rate.NewRedisLimiter(redisClient, cfg.Cache.Redis.Prefix, cfg.Rate.Login.Limit, window)
			log.Info("rate limiter enabled", logger.String("backend", "redis"))
		} else {
			limiter = rate.NewMemoryLimiter(cfg.Rate.Login.Limit, window)
			log.Info("rate limiter enabled", logger.String("backend", "memory"))
		}
	}

	// Paso 5: métricas
	metricsHandler, err := httpapi.RegisterMetrics(httpapi.MetricsConfig{
		Pool: store.Pool,
	})
	if err != nil {
		if redisClient != nil {
			_ = redisClient.Close()
		}
		store.Close()
		return nil, fmt.Errorf("app: metrics: %w", err)
	}

	// Paso 6: controllers + router
	cookies := authctrl.CookieConfig{
		AccessName:  cfg.Session.AccessCookieName,
		RefreshName: cfg.Session.RefreshCookieName,
		Domain:      cfg.Session.Domain,
		SameSite:    cfg.Session.SameSite,
		Secure:      cfg.Session.Secure,
		AccessTTL:   cfg.AccessTTL(),
		RefreshTTL:  cfg.RefreshTTL(),
	}

	checks := []healthctrl.Check{{Name: "postgres", Ping: store.Ping}}
	if redisClient != nil {
		checks = append(checks, healthctrl.Check{Name: "redis", Ping: func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}})
	}

	handler := router.New(router.Deps{
		Auth:           authctrl.NewControllers(svc, cookies),
		Health:         healthctrl.NewHealthController(checks...),
		Issuer:         issuer,
		RateLimiter:    limiter,
		MetricsHandler: metricsHandler,
	})

	return &Container{
		Cfg:     cfg,
		Store:   store,
		Redis:   redisClient,
		Issuer:  issuer,
		Session: svc,
		Handler: handler,
	}, nil
}
