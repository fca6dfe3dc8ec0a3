package main

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/betline/betline/internal/odds/cache"
	"github.com/betline/betline/internal/odds/normalize"
	"github.com/betline/betline/internal/odds/provider"
	"github.com/betline/betline/internal/odds/repo"
	"github.com/betline/betline/internal/odds/updater"
	sharedcache "github.com/betline/betline/internal/shared/cache"
	"github.com/betline/betline/internal/shared/config"
	"github.com/betline/betline/internal/shared/db"
	sharedkafka "github.com/betline/betline/internal/shared/kafka"
	"github.com/betline/betline/internal/shared/logger"
	"github.com/betline/betline/internal/shared/metrics"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	if cfg.ServiceName == "" {
		cfg.ServiceName = "odds-updater"
	}
	log, err := logger.New(cfg.ServiceName, cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	if err := cfg.Validate(); err != nil {
		log.Fatal("config", zap.Error(err))
	}

	// Postgres
	pg, err := db.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatal("postgres connect", zap.Error(err))
	}
	defer pg.Close()

	// Redis, for the current-quote cache read by the bet engine
	rdb, err := sharedcache.ConnectRedis(cfg.RedisAddr)
	if err != nil {
		log.Fatal("redis connect", zap.Error(err))
	}
	defer rdb.Close()

	// Kafka writer for the run summaries
	writer := sharedkafka.NewWriter(cfg.KafkaBrokers, cfg.TopicOddsRefreshed)
	defer writer.Close()

	// Prometheus counters wired into the updater callbacks
	fetched := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "odds_updater_events_fetched_total", Help: "raw events fetched per sport",
	}, []string{"sport"})
	fetchErrors := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "odds_updater_fetch_errors_total", Help: "provider fetch errors per sport",
	}, []string{"sport"})
	upserted := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "odds_updater_events_upserted_total", Help: "normalized events written",
	})
	prometheus.MustRegister(fetched, fetchErrors, upserted)

	u := &updater.Updater{
		Log:     log,
		Sports:  strings.Split(cfg.OddsSports, ","),
		Fetcher: provider.New(cfg.OddsAPIBaseURL, cfg.OddsAPIKey, cfg.OddsRegions),
		Store:   repo.NewPostgres(pg),
		Quotes:  cache.NewQuotes(rdb, 30*time.Minute),
		Publ:    updater.NewKafkaPublisher(writer),
		Policy:  normalize.FirstSeen,

		OnFetched:    func(sport string, n int) { fetched.WithLabelValues(sport).Add(float64(n)) },
		OnFetchError: func(sport string) { fetchErrors.WithLabelValues(sport).Inc() },
		OnUpserted:   func(n int) { upserted.Add(float64(n)) },
	}

	// metrics and health on a dedicated port
	metrics.StartMetricsServer(cfg.MetricsPort, func(ctx context.Context) error {
		if err := pg.PingContext(ctx); err != nil {
			return fmt.Errorf("pg: %w", err)
		}
		return rdb.Ping(ctx).Err()
	})

	// periodic refresh; the provider documents a 15 minute floor
	sched := cron.New()
	if _, err := sched.AddFunc(cfg.OddsRefreshCron, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		if _, err := u.Run(ctx); err != nil {
			log.Error("scheduled refresh failed", zap.Error(err))
		}
	}); err != nil {
		log.Fatal("cron spec", zap.Error(err))
	}
	sched.Start()
	defer sched.Stop()

	// manual trigger, hit by the bet-api admin surface
	mux := http.NewServeMux()
	mux.HandleFunc("/trigger", u.TriggerHandler())

	addr := fmt.Sprintf(":%s", cfg.HTTPPort)
	log.Info("odds-updater listening",
		zap.String("addr", addr),
		zap.String("cron", cfg.OddsRefreshCron),
		zap.Strings("sports", u.Sports))
	if err := http.ListenAndServe(addr, mux); err != nil && err != http.ErrServerClosed {
		log.Fatal("http", zap.Error(err))
	}
}
