package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/betline/betline/internal/api"
	"github.com/betline/betline/internal/auth"
	"github.com/betline/betline/internal/betting/engine"
	"github.com/betline/betline/internal/betting/producer"
	betrepo "github.com/betline/betline/internal/betting/repo"
	oddscache "github.com/betline/betline/internal/odds/cache"
	oddsrepo "github.com/betline/betline/internal/odds/repo"
	promorepo "github.com/betline/betline/internal/promo/repo"
	sharedcache "github.com/betline/betline/internal/shared/cache"
	"github.com/betline/betline/internal/shared/config"
	"github.com/betline/betline/internal/shared/db"
	sharedkafka "github.com/betline/betline/internal/shared/kafka"
	"github.com/betline/betline/internal/shared/logger"
	"github.com/betline/betline/internal/shared/metrics"
	supportrepo "github.com/betline/betline/internal/support/repo"
	usersrepo "github.com/betline/betline/internal/users/repo"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	if cfg.ServiceName == "" {
		cfg.ServiceName = "bet-api"
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

	// Redis, shared quote cache written by the odds-updater
	rdb, err := sharedcache.ConnectRedis(cfg.RedisAddr)
	if err != nil {
		log.Fatal("redis connect", zap.Error(err))
	}
	defer rdb.Close()

	// Kafka writer (topic bet_placed)
	writer := sharedkafka.NewWriter(cfg.KafkaBrokers, cfg.TopicBetPlaced)
	defer writer.Close()

	betsPlaced := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bet_api_bets_placed_total", Help: "accepted bets by type",
	}, []string{"bet_type"})
	betLegs := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "bet_api_bet_legs_total", Help: "legs across accepted bets",
	})
	prometheus.MustRegister(betsPlaced, betLegs)

	bets := betrepo.NewPostgres(pg)
	eng := &engine.Engine{
		Store:  bets,
		Quotes: oddscache.NewQuotes(rdb, 30*time.Minute),
		Log:    log,
		OnPlaced: func(betType string, legs int) {
			betsPlaced.WithLabelValues(betType).Inc()
			betLegs.Add(float64(legs))
		},
	}

	updaterURL := os.Getenv("ODDS_UPDATER_URL")
	if updaterURL == "" {
		updaterURL = "http://localhost:8081"
	}

	srv := api.NewServer(
		log,
		auth.JWT{Secret: []byte(cfg.JWTSecret), TokenTTL: 24 * time.Hour},
		usersrepo.NewPostgres(pg),
		promorepo.NewPostgres(pg),
		supportrepo.NewPostgres(pg),
		oddsrepo.NewPostgres(pg),
		bets,
		eng,
		producer.NewKafkaPublisher(writer),
		api.NewUpdaterClient(updaterURL),
	)

	metrics.StartMetricsServer(cfg.MetricsPort, func(ctx context.Context) error {
		if err := pg.PingContext(ctx); err != nil {
			return fmt.Errorf("pg: %w", err)
		}
		return rdb.Ping(ctx).Err()
	})

	apiSrv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler: srv.Router(),
	}

	go func() {
		log.Info("bet-api listening", zap.String("addr", apiSrv.Addr))
		if err := apiSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("api", zap.Error(err))
		}
	}()

	// graceful shutdown on SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := apiSrv.Shutdown(shutdownCtx); err != nil {
		log.Warn("shutdown", zap.Error(err))
	}
	log.Info("bet-api stopped")
}
