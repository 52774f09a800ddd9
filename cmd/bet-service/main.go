package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	httpapi "github.com/radieske/cavs-spread-bets/internal/api/http"
	"github.com/radieske/cavs-spread-bets/internal/bets"
	betsrepo "github.com/radieske/cavs-spread-bets/internal/bets/repo"
	"github.com/radieske/cavs-spread-bets/internal/broadcast"
	"github.com/radieske/cavs-spread-bets/internal/events/producer"
	"github.com/radieske/cavs-spread-bets/internal/games"
	gamesrepo "github.com/radieske/cavs-spread-bets/internal/games/repo"
	"github.com/radieske/cavs-spread-bets/internal/notify"
	"github.com/radieske/cavs-spread-bets/internal/odds"
	"github.com/radieske/cavs-spread-bets/internal/scheduler"
	"github.com/radieske/cavs-spread-bets/internal/settlement"
	settlerepo "github.com/radieske/cavs-spread-bets/internal/settlement/repo"
	"github.com/radieske/cavs-spread-bets/internal/shared/cache"
	"github.com/radieske/cavs-spread-bets/internal/shared/config"
	"github.com/radieske/cavs-spread-bets/internal/shared/db"
	"github.com/radieske/cavs-spread-bets/internal/shared/kafka"
	"github.com/radieske/cavs-spread-bets/internal/shared/logger"
	"github.com/radieske/cavs-spread-bets/internal/shared/metrics"
	usersrepo "github.com/radieske/cavs-spread-bets/internal/users/repo"
)

func main() {
	cfg := config.Load()

	log, err := logger.New(cfg.ServiceName, cfg.Env, cfg.LogLevel)
	if err != nil {
		panic(fmt.Errorf("logger init: %w", err))
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Postgres
	pg, err := db.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()
	log.Info("postgres connected")

	// Redis (Pub/Sub do broadcast)
	rdb, err := cache.ConnectRedis(cfg.RedisAddr)
	if err != nil {
		log.Fatal("failed to connect redis", zap.Error(err))
	}
	defer rdb.Close()
	log.Info("redis connected")

	// Kafka: um writer por tópico
	wGameSettled := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicGameSettled)
	defer wGameSettled.Close()
	wBetSettled := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicBetSettled)
	defer wBetSettled.Close()
	wNextGame := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicNextGame)
	defer wNextGame.Close()

	m := metrics.NewCollectors(prometheus.DefaultRegisterer)

	// notificações best-effort (Kafka + Redis Pub/Sub)
	notifier := notify.New(
		producer.NewKafkaPublisher(wGameSettled, wBetSettled, wNextGame),
		broadcast.NewRedisBroadcaster(rdb, cfg.RedisPubSubChannel),
		log.Named("notify"),
	)
	notifier.OnError = func(sink string) { m.BroadcastErrors.WithLabelValues(sink).Inc() }

	// GameStore
	store := games.NewStore(gamesrepo.NewPostgres(pg), cfg.NextGameCacheTTL, log.Named("games"))
	store.OnCacheHit = func() { m.CacheLookups.WithLabelValues("hit").Inc() }
	store.OnCacheMiss = func() { m.CacheLookups.WithLabelValues("miss").Inc() }

	// OddsGateway
	if !cfg.OddsConfigured() {
		log.Warn("odds provider not configured; ingestion will no-op")
	}
	gateway := odds.NewGateway(odds.Config{
		APIKey:      cfg.OddsAPIKey,
		OddsURL:     cfg.OddsAPIEndpoint,
		ScoresURL:   cfg.OddsScoresEndpoint,
		TrackedTeam: cfg.TrackedTeam,
		Timeout:     odds.DefaultTimeout,
		MaxRetries:  odds.DefaultMaxRetries,
		BaseBackoff: odds.DefaultBaseBackoff,
		Cooldown:    odds.DefaultCooldown,
	}, store, log.Named("odds"))
	gateway.OnAttempt = func(result string) { m.OddsFetchAttempts.WithLabelValues(result).Inc() }
	gateway.OnBreakerOpen = m.BreakerOpened.Inc
	gateway.OnFallback = m.FallbackServed.Inc

	// SettlementEngine
	engine := settlement.NewEngine(settlerepo.NewPostgres(pg), store, notifier, cfg.TrackedTeam, log.Named("settlement"))
	defer engine.Wait()
	engine.OnGameSettled = m.GamesSettled.Inc
	engine.OnBetSettled = func(st bets.Status) { m.BetsSettled.WithLabelValues(string(st)).Inc() }

	// Bets
	betSvc := bets.NewService(betsrepo.NewPostgres(pg), store, log.Named("bets"))
	betSvc.OnPlaced = func(sel bets.Selection) { m.BetsPlaced.WithLabelValues(string(sel)).Inc() }

	// IngestionScheduler
	jobs := scheduler.NewJobs(gateway, store, engine, notifier, log.Named("scheduler"))
	runner := scheduler.NewRunner(ctx, log.Named("cron"), scheduler.DefaultRunTimeout)
	runner.OnRun = func(job, status string) { m.JobRuns.WithLabelValues(job, status).Inc() }
	if cfg.SchedulerEnabled {
		if err := jobs.Register(runner, cfg.OddsRefreshSchedule, cfg.AutoSettleSchedule); err != nil {
			log.Fatal("failed to register jobs", zap.Error(err))
		}
		runner.Start()
		defer runner.Stop()
	} else {
		log.Info("scheduler disabled")
	}

	// WebSocket: Redis Pub/Sub -> hub -> clientes
	hub := broadcast.NewHub(allowOrigin(cfg.CORSOrigins), log.Named("ws"))
	broadcast.StartRedisSubscriber(ctx, rdb, cfg.RedisPubSubChannel, hub, log.Named("ws"))

	api := &httpapi.API{
		Games:       store,
		Settler:     engine,
		Triggers:    jobs,
		Bets:        betSvc,
		Users:       usersrepo.NewPostgres(pg),
		WS:          hub.HandleWS,
		AdminToken:  cfg.AdminToken,
		CORSOrigins: cfg.CORSOrigins,
		Log:         log.Named("http"),
	}
	if cfg.AdminToken == "" {
		log.Warn("ADMIN_TOKEN not set; admin routes disabled")
	}

	// metrics/health
	metricsSrv := metrics.StartMetricsServer(cfg.MetricsPort, func(ctx context.Context) error {
		if err := pg.PingContext(ctx); err != nil {
			return fmt.Errorf("postgres: %w", err)
		}
		if err := rdb.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		return nil
	}, log)

	apiSrv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           api.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Info("bet-service listening", zap.String("addr", apiSrv.Addr), zap.String("tracked_team", cfg.TrackedTeam))
		if err := apiSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("api server failed", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := apiSrv.Shutdown(shutdownCtx); err != nil {
		log.Warn("api shutdown", zap.Error(err))
	}
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		log.Warn("metrics shutdown", zap.Error(err))
	}
}

// allowOrigin aplica ao WebSocket a mesma lista de origens do CORS
func allowOrigin(origins []string) func(r *http.Request) bool {
	if len(origins) == 0 {
		return func(*http.Request) bool { return true }
	}
	allowed := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		allowed[o] = struct{}{}
	}
	return func(r *http.Request) bool {
		if _, ok := allowed["*"]; ok {
			return true
		}
		_, ok := allowed[r.Header.Get("Origin")]
		return ok
	}
}
