// Package bootstrap turns a Config into live infrastructure handles.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"minifeed/internal/cache"
	"minifeed/internal/config"
	"minifeed/internal/database"
	"minifeed/internal/media"
	"minifeed/internal/middleware"
	"minifeed/internal/observability"
	"minifeed/internal/session"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Options control runtime initialization behavior.
type Options struct {
	// Serving also sets up sessions, media storage and tracing.
	Serving bool
	// SkipSchema leaves the schema alone; migrate tooling manages it itself.
	SkipSchema bool
}

// Runtime owns every handle opened by InitRuntime.
type Runtime struct {
	Config   *config.Config
	DB       *gorm.DB
	Redis    *redis.Client
	Sessions session.Store
	Media    media.Store

	shutdownTracing func(context.Context) error
}

// InitRuntime connects to the database and, when serving, to Redis and the media backend.
func InitRuntime(ctx context.Context, cfg *config.Config, opts Options) (*Runtime, error) {
	rt := &Runtime{Config: cfg}

	db, err := database.ConnectWithOptions(cfg, database.ConnectOptions{ApplySchema: !opts.SkipSchema})
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}
	rt.DB = db

	if !opts.Serving {
		return rt, nil
	}

	if err := rt.initServing(ctx); err != nil {
		_ = rt.Close(ctx)
		return nil, err
	}
	return rt, nil
}

func (rt *Runtime) initServing(ctx context.Context) error {
	cfg := rt.Config
	observability.RepoLogging.Store(!cfg.IsProduction())

	shutdown, err := observability.InitTracing(observability.TracingConfig{
		ServiceName:  "minifeed-api",
		Environment:  cfg.Env,
		Exporter:     cfg.TracingExporter,
		OTLPEndpoint: cfg.OTLPEndpoint,
		SamplerRatio: 1,
	})
	if err != nil {
		return fmt.Errorf("tracing init failed: %w", err)
	}
	rt.shutdownTracing = shutdown

	if err := rt.initSessions(ctx); err != nil {
		return err
	}

	if rt.Redis == nil && cfg.RateLimit {
		if rt.Redis, err = cache.Connect(ctx, cfg.RedisURL); err != nil {
			middleware.Logger.Warn("Redis unavailable; rate limits fail open", slog.String("error", err.Error()))
		}
	}

	store, err := NewMediaStore(ctx, cfg)
	if err != nil {
		return err
	}
	rt.Media = store
	return nil
}

func (rt *Runtime) initSessions(ctx context.Context) error {
	cfg := rt.Config
	switch cfg.SessionBackend {
	case config.SessionBackendRedis:
		client, err := cache.Connect(ctx, cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("redis session store: %w", err)
		}
		rt.Redis = client
		rt.Sessions = session.NewRedisStore(client, cfg.SessionTTL)
	case config.SessionBackendJWT:
		var revoker session.Revoker
		client, err := cache.Connect(ctx, cfg.RedisURL)
		if err != nil {
			middleware.Logger.Warn("Redis unavailable; JWT revocations kept in memory",
				slog.String("error", err.Error()))
			revoker = session.NewMemoryRevoker()
		} else {
			rt.Redis = client
			revoker = session.NewRedisRevoker(client)
		}
		rt.Sessions = session.NewJWTStore(cfg.JWTSecret, cfg.SessionTTL, revoker)
	default:
		return fmt.Errorf("unsupported SESSION_BACKEND %q", cfg.SessionBackend)
	}

	middleware.Logger.Info("Session store ready", slog.String("backend", rt.Sessions.Backend()))
	return nil
}

// NewMediaStore picks the upload backend named by MEDIA_BACKEND.
func NewMediaStore(ctx context.Context, cfg *config.Config) (media.Store, error) {
	switch cfg.MediaBackend {
	case "", config.MediaBackendLocal:
		return media.NewLocalStore(cfg.UploadDir, cfg.MaxUploadBytes)
	case config.MediaBackendS3:
		return media.NewS3Store(ctx, media.S3Config{
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			MaxBytes:  cfg.MaxUploadBytes,
		})
	default:
		return nil, fmt.Errorf("unsupported MEDIA_BACKEND %q", cfg.MediaBackend)
	}
}

// Close releases Redis, the database pool and the tracer, in that order.
func (rt *Runtime) Close(ctx context.Context) error {
	var errs []error
	if rt.Redis != nil {
		errs = append(errs, rt.Redis.Close())
	}
	if rt.DB != nil {
		errs = append(errs, database.Close(rt.DB))
	}
	if rt.shutdownTracing != nil {
		errs = append(errs, rt.shutdownTracing(ctx))
	}
	return errors.Join(errs...)
}
