package main

import (
    "context"
    "errors"
    "log"
    "net/http"
    "os"
    "os/signal"
    "syscall"
    "time"

    "github.com/redis/go-redis/v9"

    "github.com/iliyamo/learning-platform/internal/config"
    "github.com/iliyamo/learning-platform/internal/database"
    "github.com/iliyamo/learning-platform/internal/logging"
    mw "github.com/iliyamo/learning-platform/internal/middleware"
    "github.com/iliyamo/learning-platform/internal/queue"
    "github.com/iliyamo/learning-platform/internal/ratelimit"
    "github.com/iliyamo/learning-platform/internal/repository"
    "github.com/iliyamo/learning-platform/internal/router"
    "github.com/iliyamo/learning-platform/internal/service"
)

func main() {
    config.LoadDotEnv()
    cfg := config.Load()
    rlCfg := config.LoadRateLimitConfig()
    cacheCfg := config.LoadCacheConfig()
    logger := logging.New(os.Stdout, cfg.Production())

    ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
    defer stop()

    rdb := config.NewRedisClient()
    if rdb != nil {
        defer rdb.Close()
    }

    deps := router.Deps{
        Log:             logger,
        Production:      cfg.Production(),
        Limits:          rlCfg,
        ExposeResetCode: cfg.ExposeResetCode,
        StaticDir:       cfg.StaticDir,
        Throttle:        newThrottle(ctx, rlCfg, rdb, logger),
    }
    if rdb != nil {
        deps.Cache = mw.ResponseCache(cacheCfg, rdb)
    }

    if !cfg.DBConfigured() {
        logger.Warn(ctx, "database environment incomplete; account endpoints will answer db_env")
    } else {
        db, err := database.Open(cfg.DB)
        if err != nil {
            log.Fatalf("db connect: %v", err)
        }
        defer db.Close()
        if err := database.Migrate(ctx, db); err != nil {
            log.Fatalf("db migrate: %v", err)
        }

        users := repository.NewUserRepo(db)
        sessions := repository.NewSessionRepo(db)
        resets := repository.NewResetRepo(db)
        auditRepo := repository.NewAuditRepo(db)

        var (
            auditor  service.Auditor       = service.DBAuditor{Repo: auditRepo, Log: logger}
            notifier service.ResetNotifier = service.LogNotifier{Log: logger}
        )
        if cfg.AMQPURL != "" {
            pub := queue.NewPublisher(cfg.AMQPURL, logger, auditor, notifier)
            auditor, notifier = pub, pub
            startConsumer(ctx, &queue.Consumer{URL: cfg.AMQPURL, Queue: queue.AuditQueue, Handle: queue.AuditHandler(auditRepo), Log: logger})
            startConsumer(ctx, &queue.Consumer{URL: cfg.AMQPURL, Queue: queue.ResetCodeQueue, Handle: queue.ResetCodeFileHandler("logs"), Log: logger})
        }

        svc := service.NewAuthService(users, sessions, resets, auditor, notifier, logger, service.Options{
            BcryptCost: cfg.BcryptCost,
            SessionTTL: cfg.SessionTTL,
            ResetTTL:   cfg.ResetTTL,
        })
        janitor := &service.Janitor{Sessions: sessions, Resets: resets, Interval: cfg.PurgeInterval, Log: logger}
        go janitor.Run(ctx)

        deps.Accounts = svc
        deps.Sessions = svc
        deps.Profiles = repository.NewProfileRepo(db)
        deps.Progress = repository.NewProgressRepo(db)
        deps.Users = users
        deps.DB = db
    }

    e := router.New(deps)
    addr := ":" + cfg.Port
    go func() {
        logger.Info(ctx, "listening", "addr", addr, "env", cfg.Env)
        if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
            log.Fatal(err)
        }
    }()

    <-ctx.Done()
    shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
    defer cancel()
    if err := e.Shutdown(shutdownCtx); err != nil {
        logger.Error(shutdownCtx, "shutdown", "err", err)
    }
}

// newThrottle picks the limiter backend.  Redis is used only when asked for
// and reachable; otherwise counts stay in process memory.
func newThrottle(ctx context.Context, cfg config.RateLimitConfig, rdb *redis.Client, logger logging.Logger) *mw.Throttle {
    if !cfg.Enabled {
        return nil
    }
    var lim ratelimit.Limiter = ratelimit.NewMemory()
    if cfg.Backend == "redis" {
        if rdb != nil {
            lim = ratelimit.NewRedis(rdb, cfg.Prefix)
        } else {
            logger.Warn(ctx, "RATE_LIMIT_BACKEND=redis but redis is unavailable; using memory")
        }
    }
    return &mw.Throttle{Limiter: lim, Log: logger, Debug: cfg.Debug}
}

func startConsumer(ctx context.Context, c *queue.Consumer) {
    go func() {
        if err := c.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
            c.Log.Error(ctx, "consumer stopped", "queue", c.Queue, "err", err)
        }
    }()
}
