package tenantinfra

import (
	"context"
	"fmt"

	"github.com/fieldops360/auth-service/pkg/config"
	"github.com/fieldops360/auth-service/pkg/iam/user/userinfra"
	"github.com/fieldops360/auth-service/pkg/tenant"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// NewPostgresOpener returns an Opener that connects to a tenant database
// with the shared credentials in cfg.
func NewPostgresOpener(cfg config.TenantDBConfig) tenant.Opener {
	return func(ctx context.Context, loc tenant.Location) (tenant.Store, error) {
		if cfg.ConnectTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, cfg.ConnectTimeout)
			defer cancel()
		}

		db, err := sqlx.ConnectContext(ctx, "postgres", TenantDSN(cfg, loc))
		if err != nil {
			return nil, fmt.Errorf("connect %s: %w", loc.Key(), err)
		}
		db.SetMaxOpenConns(cfg.MaxOpenConns)
		db.SetMaxIdleConns(cfg.MaxIdleConns)
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

		return userinfra.NewPostgresStore(db), nil
	}
}

// TenantDSN builds the lib/pq connection URL for one tenant database.
func TenantDSN(cfg config.TenantDBConfig, loc tenant.Location) string {
	return config.PostgresURL(loc.Host, loc.Port, cfg.User, cfg.Password, loc.Name, cfg.SSLMode)
}
