package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/strivetech/saiplatform/internal/api"
	"github.com/strivetech/saiplatform/internal/app"
	"github.com/strivetech/saiplatform/internal/app/maintenance"
	"github.com/strivetech/saiplatform/internal/cache"
	"github.com/strivetech/saiplatform/internal/database"
	"github.com/strivetech/saiplatform/internal/middleware"
	"github.com/strivetech/saiplatform/internal/monitoring"
	"github.com/strivetech/saiplatform/internal/monitoring/checks"
	"github.com/strivetech/saiplatform/internal/services"
	"github.com/strivetech/saiplatform/pkg/logger"
	"github.com/strivetech/saiplatform/pkg/mail"
)

const rateStoreSweep = time.Minute

// runtimeStack bundles long-lived services used by the HTTP server.
type runtimeStack struct {
	DB         *gorm.DB
	Redis      *cache.RedisStore
	Views      *cache.ViewCache
	RateStore  middleware.RateStore
	Cleaner    *maintenance.Cleaner
	Health     *monitoring.HealthManager
	Router     *api.Router
	memoryRate *middleware.MemoryRateStore
}

// bootstrapRuntime initialises databases, caches, services, and the HTTP router.
func bootstrapRuntime(ctx context.Context, cfg *app.Config, log *zap.Logger) (*runtimeStack, error) {
	stack := &runtimeStack{}
	var err error
	success := false

	defer func() {
		if !success {
			stack.Shutdown(context.Background(), log)
		}
	}()

	if debug, _ := os.LookupEnv("GIN_DEBUG"); debug != "true" {
		gin.SetMode(gin.ReleaseMode)
	}

	stack.DB, err = initialiseDatabase(cfg)
	if err != nil {
		return nil, err
	}

	dbStore := cache.NewDatabaseStore(stack.DB)
	var store cache.Store = dbStore

	if cfg.Cache.Redis.Enabled {
		redisCfg := cfg.Cache.RedisClientConfig()
		client, redisErr := cache.NewRedisClient(ctx, redisCfg)
		if redisErr != nil {
			log.Warn("redis unavailable; falling back to database-backed cache", zap.Error(redisErr))
		} else {
			stack.Redis = cache.NewRedisStore(client, redisCfg.Prefix)
			store = stack.Redis
			log.Info("redis connected", zap.String("addr", redisCfg.Address))
		}
	}

	stack.Views = cache.NewViewCache(store, cfg.Dashboard.CacheTTL)

	if stack.Redis != nil {
		stack.RateStore = middleware.NewCacheRateStore(stack.Redis)
	} else {
		stack.memoryRate = middleware.NewMemoryRateStore(rateStoreSweep)
		stack.RateStore = stack.memoryRate
	}

	mailer, err := mail.NewSMTPMailer(cfg.Email.SMTPSettings())
	if err != nil {
		return nil, fmt.Errorf("initialise mailer: %w", err)
	}
	if !cfg.Email.SMTP.Enabled {
		log.Warn("smtp disabled; invitations and form submissions will not be delivered")
	}

	verifier, err := cfg.Auth.NewVerifier(ctx)
	if err != nil {
		return nil, err
	}

	if cfg.Maintenance.Enabled {
		activity, err := services.NewActivityService(stack.DB)
		if err != nil {
			return nil, fmt.Errorf("initialise activity service: %w", err)
		}
		stack.Cleaner = maintenance.NewCleaner(dbStore, activity,
			maintenance.WithActivityRetentionDays(cfg.Maintenance.ActivityRetentionDays),
			maintenance.WithCacheSchedule(cfg.Maintenance.CacheSchedule),
			maintenance.WithActivitySchedule(cfg.Maintenance.ActivitySchedule),
		)
		if err := stack.Cleaner.Start(); err != nil {
			return nil, fmt.Errorf("start maintenance jobs: %w", err)
		}
	}

	stack.Health = buildHealthManager(cfg, stack)

	stack.Router, err = api.NewRouter(api.Dependencies{
		DB:        stack.DB,
		Config:    cfg,
		Verifier:  verifier,
		Mailer:    mailer,
		Views:     stack.Views,
		RateStore: stack.RateStore,
		Health:    stack.Health,
	})
	if err != nil {
		return nil, fmt.Errorf("build api router: %w", err)
	}

	success = true
	return stack, nil
}

func buildHealthManager(cfg *app.Config, stack *runtimeStack) *monitoring.HealthManager {
	timeout := cfg.Monitoring.Health.Timeout
	manager := monitoring.NewHealthManager()

	manager.RegisterReadiness(checks.Database(stack.DB, timeout))

	var pinger checks.Pinger
	if stack.Redis != nil {
		pinger = stack.Redis
	}
	manager.RegisterReadiness(checks.Cache(pinger, timeout))

	var reporter monitoring.JobReporter
	if stack.Cleaner != nil {
		reporter = stack.Cleaner
	}
	manager.RegisterReadiness(checks.Maintenance(reporter, 0))

	return manager
}

// Shutdown gracefully stops background jobs and releases resources.
func (s *runtimeStack) Shutdown(ctx context.Context, log *zap.Logger) {
	if s == nil {
		return
	}

	if s.Router != nil {
		s.Router.Wait()
	}

	if s.Cleaner != nil {
		stopCtx := s.Cleaner.Stop()
		<-stopCtx.Done()
		if err := s.Cleaner.RunOnce(ctx); err != nil {
			log.Warn("maintenance shutdown cleanup failed", zap.Error(err))
		}
	}

	if s.memoryRate != nil {
		s.memoryRate.Close()
	}

	if s.Redis != nil {
		if err := s.Redis.Close(); err != nil {
			log.Warn("redis shutdown", zap.Error(err))
		}
	}

	if s.DB != nil {
		if err := database.Close(s.DB); err != nil {
			log.Warn("failed to close database", zap.Error(err))
		}
	}
}

func initialiseDatabase(cfg *app.Config) (*gorm.DB, error) {
	dbCfg := convertDatabaseConfig(cfg)
	db, err := database.Open(dbCfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := database.AutoMigrate(db); err != nil {
		_ = database.Close(db)
		return nil, fmt.Errorf("auto-migrate database: %w", err)
	}

	logger.WithModule("database").Info("database connected", zap.String("driver", dbCfg.Driver))
	return db, nil
}

func convertDatabaseConfig(cfg *app.Config) database.Config {
	dbCfg := database.Config{
		Driver:          strings.ToLower(strings.TrimSpace(cfg.Database.Driver)),
		Path:            strings.TrimSpace(cfg.Database.Path),
		DSN:             strings.TrimSpace(cfg.Database.DSN),
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}

	var auth app.DBAuthConfig
	switch dbCfg.Driver {
	case "", "sqlite":
		dbCfg.Driver = "sqlite"
		return dbCfg
	case "postgres", "postgresql":
		dbCfg.Driver = "postgres"
		auth = cfg.Database.Postgres
	case "mysql":
		auth = cfg.Database.MySQL
	default:
		// Leave driver as-is to surface unsupported driver error during open.
		return dbCfg
	}

	dbCfg.Host = strings.TrimSpace(auth.Host)
	dbCfg.Port = auth.Port
	dbCfg.Name = strings.TrimSpace(auth.Database)
	dbCfg.User = strings.TrimSpace(auth.Username)
	dbCfg.Password = strings.TrimSpace(auth.Password)
	return dbCfg
}
