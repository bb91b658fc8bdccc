package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"ordertrack/internal/config"
	"ordertrack/internal/customers"
	kafkax "ordertrack/internal/kafka"
	"ordertrack/internal/metrics"
	"ordertrack/internal/orders"
	"ordertrack/internal/postgres"
	"ordertrack/internal/redisx"
	"ordertrack/internal/tracker"
)

// cmd/tracker: konsumen durable yang menjaga tracking_orders tetap sinkron
// dengan store order. Boleh jalan beberapa instance, satu consumer group.
func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	defer db.Close()

	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	reg := metrics.NewRegistry()

	svc := &tracker.Service{
		Orders:   &orders.Repo{DB: db},
		Names:    &customers.Directory{DB: db, Redis: rdb},
		Tracking: &orders.TrackingRepo{DB: db},
		Dedup:    redisx.Dedup{R: rdb, Service: "tracker"},
		Metrics:  reg,
	}

	cons := kafkax.NewConsumer(cfg.KafkaBrokers, cfg.ConsumerGroup, orders.TopicOrdersChanged, cfg.Workers)

	mux := http.NewServeMux()
	mux.Handle("/metrics", reg.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: mux}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Printf("tracker consumer started: group=%s topic=%s workers=%d",
			cfg.ConsumerGroup, orders.TopicOrdersChanged, cfg.Workers)
		return cons.Start(gctx, svc.HandleOrderChanged)
	})
	g.Go(func() error {
		log.Printf("metrics listening at %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shCtx)
	})

	if err := g.Wait(); err != nil {
		log.Printf("exit: %v", err)
	}
}
