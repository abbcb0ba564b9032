// cmd/container.go
//
// Composition root. Owns infrastructure (platform DB, Redis, tenant
// store cache, mail) and composes bounded-context containers.
package main

import (
	"context"
	"fmt"
	"time"

	"github.com/fieldops360/auth-service/pkg/config"
	"github.com/fieldops360/auth-service/pkg/iam/auth"
	"github.com/fieldops360/auth-service/pkg/iam/iamcontainer"
	"github.com/fieldops360/auth-service/pkg/logx"
	"github.com/fieldops360/auth-service/pkg/metrics"
	"github.com/fieldops360/auth-service/pkg/notifx"
	"github.com/fieldops360/auth-service/pkg/notifx/notifxconsole"
	"github.com/fieldops360/auth-service/pkg/notifx/notifxses"
	"github.com/fieldops360/auth-service/pkg/tenant"
	"github.com/fieldops360/auth-service/pkg/tenant/tenantinfra"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
)

// Container holds shared infrastructure and composed module containers.
type Container struct {
	Config *config.Config

	// Infrastructure (shared across all modules)
	DB       *sqlx.DB
	Redis    *redis.Client
	Stores   *tenant.ConnectionCache
	Resolver *tenant.Resolver
	Mailer   *notifx.Client
	Metrics  *metrics.Metrics

	// Bounded-context containers
	IAM *iamcontainer.Container
}

func NewContainer(cfg *config.Config) *Container {
	logx.Info("🔧 Initializing application container...")

	c := &Container{Config: cfg}

	c.initInfrastructure()
	c.initModules()

	logx.Info("✅ Application container initialized")
	return c
}

// ---------------------------------------------------------------------------
// Infrastructure: platform DB, Redis, tenant stores, mail
// ---------------------------------------------------------------------------

func (c *Container) initInfrastructure() {
	logx.Info("🏗️ Initializing infrastructure...")

	// 1. Platform database (tenant directory)
	db, err := sqlx.Connect("postgres", c.Config.Platform.DSN())
	if err != nil {
		logx.Fatalf("Failed to connect to platform database: %v", err)
	}
	db.SetMaxOpenConns(c.Config.Platform.MaxOpenConns)
	db.SetMaxIdleConns(c.Config.Platform.MaxIdleConns)
	db.SetConnMaxLifetime(c.Config.Platform.ConnMaxLifetime)
	c.DB = db
	logx.Info("  ✅ Platform database connected")

	// 2. Tenant directory, optionally behind Redis
	var directory tenant.Directory = tenantinfra.NewPostgresDirectory(db)
	if c.Config.Redis.Enabled {
		c.Redis = redis.NewClient(&redis.Options{
			Addr:     c.Config.Redis.Address(),
			Password: c.Config.Redis.Password,
			DB:       c.Config.Redis.DB,
		})
		if _, err := c.Redis.Ping(context.Background()).Result(); err != nil {
			logx.Fatalf("Failed to connect to Redis: %v", err)
		}
		directory = tenantinfra.NewRedisCachedDirectory(directory, c.Redis, c.Config.Redis.TenantTTL)
		logx.Infof("  ✅ Redis tenant cache enabled (ttl: %s)", c.Config.Redis.TenantTTL)
	}

	// 3. Metrics
	c.Metrics = metrics.New()

	// 4. Tenant store cache and resolver
	c.Stores = tenant.NewConnectionCache(tenantinfra.NewPostgresOpener(c.Config.TenantDB))
	c.Metrics.WatchTenantStores(c.Stores.Len)
	c.Resolver = tenant.NewResolver(directory, c.Stores, tenant.WithObserver(c.Metrics))
	logx.Info("  ✅ Tenant resolver ready")

	// 5. Mail
	c.initMailer()

	logx.Info("✅ Infrastructure initialized")
}

func (c *Container) initMailer() {
	n := c.Config.Notifx
	from := n.FromAddress
	if n.FromName != "" {
		from = fmt.Sprintf("%s <%s>", n.FromName, n.FromAddress)
	}

	switch n.Provider {
	case "ses":
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		awsCfg, err := awsConfig.LoadDefaultConfig(ctx, awsConfig.WithRegion(n.AWSRegion))
		if err != nil {
			logx.Fatalf("Unable to load AWS SDK config: %v", err)
		}
		provider := notifxses.NewSESProvider(ses.NewFromConfig(awsCfg), from, n.ConfigSet)
		c.Mailer = notifx.NewClient(provider, from)
		logx.Infof("  ✅ SES mail configured (region: %s)", n.AWSRegion)

	default:
		c.Mailer = notifx.NewClient(notifxconsole.NewConsoleProvider(), from)
		logx.Warn("  ⚠️  Console mail provider: reset codes are only logged")
	}
}

// ---------------------------------------------------------------------------
// Module composition: each bounded context wires itself
// ---------------------------------------------------------------------------

func (c *Container) initModules() {
	logx.Info("📦 Initializing modules...")

	keys, err := auth.LoadKeyPair(c.Config.Auth.JWT, c.Config.App.IsProduction())
	if err != nil {
		logx.Fatalf("Failed to load JWT keys: %v", err)
	}

	c.IAM = iamcontainer.New(iamcontainer.Deps{
		Cfg:      c.Config,
		Keys:     keys,
		Resolver: c.Resolver,
		Mailer:   c.Mailer,
		Recorder: c.Metrics,
	})
}

// ---------------------------------------------------------------------------
// Lifecycle
// ---------------------------------------------------------------------------

func (c *Container) Cleanup() {
	logx.Info("🧹 Cleaning up resources...")

	if c.Stores != nil {
		if err := c.Stores.Shutdown(); err != nil {
			logx.Errorf("Error closing tenant stores: %v", err)
		} else {
			logx.Info("  ✅ Tenant stores closed")
		}
	}

	if c.DB != nil {
		if err := c.DB.Close(); err != nil {
			logx.Errorf("Error closing database: %v", err)
		} else {
			logx.Info("  ✅ Database connection closed")
		}
	}

	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			logx.Errorf("Error closing Redis: %v", err)
		} else {
			logx.Info("  ✅ Redis connection closed")
		}
	}

	logx.Info("✅ Cleanup complete")
	_ = logx.Sync()
}
