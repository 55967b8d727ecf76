package main // Entry point package

import (
    "context"
    "errors"
    "net/http"
    "os"
    "os/signal"
    "syscall"
    "time"

    "github.com/joho/godotenv"
    "github.com/labstack/echo/v4"
    echomw "github.com/labstack/echo/v4/middleware"
    "go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

    "github.com/iliyamo/crowdsafe/internal/alert"
    "github.com/iliyamo/crowdsafe/internal/capacity"
    "github.com/iliyamo/crowdsafe/internal/clock"
    "github.com/iliyamo/crowdsafe/internal/config"
    "github.com/iliyamo/crowdsafe/internal/database"
    "github.com/iliyamo/crowdsafe/internal/density"
    "github.com/iliyamo/crowdsafe/internal/handler"
    "github.com/iliyamo/crowdsafe/internal/log"
    "github.com/iliyamo/crowdsafe/internal/middleware"
    "github.com/iliyamo/crowdsafe/internal/notify"
    "github.com/iliyamo/crowdsafe/internal/queue"
    "github.com/iliyamo/crowdsafe/internal/realtime"
    "github.com/iliyamo/crowdsafe/internal/repository"
    "github.com/iliyamo/crowdsafe/internal/room"
    "github.com/iliyamo/crowdsafe/internal/router"
    queue_publisher "github.com/iliyamo/crowdsafe/internal/service"
    "github.com/iliyamo/crowdsafe/internal/session"
    "github.com/iliyamo/crowdsafe/internal/telemetry"
)

func main() {
    _ = godotenv.Load() // .env is optional; real env vars win

    cfg, err := config.Load() // Load environment config
    if err != nil {
        log.Logger.Fatal().Err(err).Msg("invalid configuration")
    }
    log.Init(log.Config{Level: log.Level(cfg.LogLevel), JSONOutput: cfg.LogJSON})
    l := log.WithComponent("main")
    mcfg := config.LoadMonitorConfig()

    ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
    defer stop()

    shutdownTelemetry := telemetry.Setup(ctx)

    db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName, database.PoolConfig{})
    if err != nil {
        l.Fatal().Err(err).Msg("database connection failed")
    }

    // Repositories
    events := repository.NewEventRepo(db)
    zones := repository.NewZoneRepo(db)
    attendees := repository.NewAttendeeRepo(db)
    alerts := repository.NewAlertRepo(db)
    contacts := repository.NewContactRepo(db)
    incidents := repository.NewIncidentRepo(db)
    areas := repository.NewRestrictedAreaRepo(db)
    missing := repository.NewMissingPersonRepo(db)

    clk := clock.NewSystem()
    rooms := room.NewBroadcaster(mcfg.ClientBuffer)

    // Out-of-band notifications: direct, or through RabbitMQ with a direct fallback
    gateway := notify.NewGatewayFromConfig(config.LoadNotifyConfig())
    var notifier alert.Notifier = gateway
    consumerDone := make(chan struct{})
    if mcfg.NotifyMode == config.NotifyQueue {
        notifier = notify.NewQueueNotifier(queue_publisher.New(cfg.AMQPURL), gateway)
        consumer := queue.NewConsumer(cfg.AMQPURL, gateway.DeliverJob)
        go func() {
            defer close(consumerDone)
            if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
                l.Error().Err(err).Msg("notification consumer stopped")
            }
        }()
    } else {
        close(consumerDone)
    }

    dispatcher := alert.NewDispatcher(alerts, contacts, events, rooms, notifier, clk)
    ledger := capacity.NewLedger(repository.NewLedger(db), rooms, dispatcher, clk)
    feed := density.NewFeed(density.NewSyntheticSource(uint64(time.Now().UnixNano())), events, rooms, dispatcher, clk, density.FeedConfig{
        Interval:  mcfg.DensityInterval,
        BatchSize: mcfg.DensityBatchSize,
        Cooldown:  mcfg.BottleneckCooldown,
    })
    coord := session.NewCoordinator(ctx, rooms, feed)
    rt := realtime.NewServer(rooms, coord, realtime.Options{
        RequireToken: mcfg.RealtimeRequireToken,
        JWTSecret:    cfg.JWTSecret,
    })

    // HTTP
    e := echo.New()
    e.HideBanner = true
    e.Use(echomw.Recover())

    rdb := config.NewRedisClient(config.LoadRedisConfig()) // nil when Redis is unreachable
    limit := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)
    cacheCfg := config.LoadCacheConfig()
    cache := middleware.NewRedisCache(cacheCfg, rdb)
    if purger := middleware.NewCachePurger(cacheCfg, rdb); purger != nil {
        dispatcher.SetCache(purger)
    }

    router.RegisterRoutes(e, db, rt.Handler())
    h := handler.NewMonitorHandler(ledger, dispatcher, events, zones, attendees, alerts, contacts, incidents, areas, missing)
    router.RegisterMonitor(e, h, cfg.JWTSecret, limit, cache)

    addr := ":" + cfg.Port
    srv := &http.Server{
        Addr:              addr,
        Handler:           otelhttp.NewHandler(e, telemetry.ServiceName),
        ReadHeaderTimeout: 10 * time.Second,
    }
    go func() {
        l.Info().Str("addr", addr).Str("env", cfg.Env).Str("notify_mode", mcfg.NotifyMode).Msg("listening")
        if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
            l.Error().Err(err).Msg("http server failed")
            stop()
        }
    }()

    <-ctx.Done()
    l.Info().Msg("shutting down")

    shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
    defer cancel()
    if err := srv.Shutdown(shutdownCtx); err != nil {
        l.Warn().Err(err).Msg("http shutdown incomplete")
    }
    coord.Shutdown()  // stop every density feed
    dispatcher.Wait() // let in-flight email/SMS finish
    <-consumerDone
    if rdb != nil {
        _ = rdb.Close()
    }
    if err := shutdownTelemetry(shutdownCtx); err != nil {
        l.Warn().Err(err).Msg("telemetry shutdown failed")
    }
    _ = db.Close()
    l.Info().Msg("bye")
}
