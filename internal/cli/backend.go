package cli

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/aretw0/slidedeck"
	"github.com/aretw0/slidedeck/internal/adapters/file"
	"github.com/aretw0/slidedeck/internal/config"
	"github.com/aretw0/slidedeck/pkg/adapters/memory"
	"github.com/aretw0/slidedeck/pkg/adapters/redis"
	"github.com/aretw0/slidedeck/pkg/adapters/sqlite"
	"github.com/aretw0/slidedeck/pkg/persistence/middleware"
	"github.com/aretw0/slidedeck/pkg/ports"
	"github.com/aretw0/slidedeck/pkg/session"
)

// Backend is the persistence stack selected by configuration.
type Backend struct {
	Name string

	// Store is the deck store with redaction and encryption applied.
	Store ports.PresentationStore
	// Images is nil when the backend keeps no images.
	Images ports.ImageStore
	// Watch is set for backends that report changes made by other processes.
	Watch ports.Watchable
	// Locker is set for backends shared between replicas.
	Locker ports.DistributedLocker

	closers  []func() error
	settings *config.Config
}

// OpenBackend builds the store for cfg. Callers must Close it.
func OpenBackend(cfg *config.Config, logger *slog.Logger) (*Backend, error) {
	b := &Backend{Name: cfg.Store.Backend, settings: cfg}

	var base ports.PresentationStore
	switch cfg.Store.Backend {
	case config.BackendMemory:
		base = memory.NewStore()
	case config.BackendFile:
		fs := file.New(cfg.Store.Path)
		base = fs
		b.Watch = fs
	case config.BackendSQLite:
		db, err := sqlite.New(cfg.Store.Path)
		if err != nil {
			return nil, fmt.Errorf("error opening sqlite store: %w", err)
		}
		base = db
		b.closers = append(b.closers, db.Close)
	case config.BackendRedis:
		rc := cfg.Store.Redis
		rs := redis.New(rc.Addr, rc.Password, rc.DB, redis.WithPrefix(rc.Prefix), redis.WithTTL(rc.TTL))
		base = rs
		b.Locker = redis.NewLocker(rs.Client(), rc.Prefix)
		b.closers = append(b.closers, rs.Close)
	default:
		return nil, fmt.Errorf("%w: unknown store backend %q", config.ErrInvalid, cfg.Store.Backend)
	}

	b.Store = base
	b.Images, _ = base.(ports.ImageStore)

	active, fallback, err := cfg.EncryptionKeys()
	if err != nil {
		b.Close()
		return nil, err
	}
	if active != nil {
		b.Store = middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
			ActiveKey:    active,
			FallbackKeys: fallback,
		})(b.Store)
		// The encrypting wrapper keeps images only when the base store does.
		b.Images, _ = b.Store.(ports.ImageStore)
	}
	if len(cfg.Store.Redact) > 0 {
		b.Store = middleware.NewRedactionMiddleware(cfg.Store.Redact)(b.Store)
	}

	logger.Debug("store ready",
		"backend", b.Name,
		"encrypted", active != nil,
		"redacting", len(cfg.Store.Redact),
		"images", b.Images != nil,
	)
	return b, nil
}

// SessionOptions returns the session manager options implied by the backend.
func (b *Backend) SessionOptions(logger *slog.Logger) []session.Option {
	opts := []session.Option{session.WithLogger(logger)}
	if b.Locker != nil {
		opts = append(opts, session.WithLocker(b.Locker))
		if ttl := b.settings.Store.Redis.LockTTL; ttl > 0 {
			opts = append(opts, session.WithLockTTL(ttl))
		}
	}
	return opts
}

// EditorOptions returns the editor options implied by the backend and history settings.
func (b *Backend) EditorOptions() []slidedeck.Option {
	opts := []slidedeck.Option{slidedeck.WithHistoryLimit(b.settings.History.Limit)}
	if b.Images != nil {
		opts = append(opts, slidedeck.WithImageStore(b.Images))
	}
	return opts
}

// Close releases connections held by the backend.
func (b *Backend) Close() error {
	var errs []error
	for _, c := range b.closers {
		errs = append(errs, c())
	}
	b.closers = nil
	return errors.Join(errs...)
}
