package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"ordertrack/internal/config"
	"ordertrack/internal/customers"
	"ordertrack/internal/httpx"
	kafkax "ordertrack/internal/kafka"
	"ordertrack/internal/metrics"
	"ordertrack/internal/orders"
	"ordertrack/internal/postgres"
	"ordertrack/internal/redisx"
	"ordertrack/internal/tracker"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	defer db.Close()

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Kafka producer untuk event status-changed
	prod := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrdersChanged, 1024)
	prod.Start(ctx)

	reg := metrics.NewRegistry()

	repo := &orders.Repo{DB: db}
	dir := &customers.Directory{DB: db, Redis: rdb}
	hub := tracker.NewHub()
	defer hub.Close()

	// Consumer stream per instance: group unik, tanpa dedup, supaya setiap
	// instance api tetap dapat semua update untuk subscriber SSE-nya.
	// Projection upsert-nya idempoten, jadi overlap dengan cmd/tracker aman.
	svc := &tracker.Service{
		Orders:   repo,
		Names:    dir,
		Tracking: &orders.TrackingRepo{DB: db},
		Hub:      hub,
		Metrics:  reg,
	}
	group := "api-stream-" + uuid.NewString()[:8]
	cons := kafkax.NewConsumer(cfg.KafkaBrokers, group, orders.TopicOrdersChanged, 1)

	router := httpx.NewRouter()
	router.Method(http.MethodGet, "/metrics", reg.Handler())
	oh := &httpx.OrdersHandler{
		Orders:     repo,
		Names:      dir,
		Tracking:   &orders.TrackingRepo{DB: db},
		Transition: &orders.TransitionRepo{DB: db, Metrics: reg},
		Hub:        hub,
		Producer:   prod,
		Metrics:    reg,
		Service:    cfg.ServiceName,
	}
	oh.Register(router)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Printf("HTTP listening at %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		log.Printf("stream consumer started: group=%s topic=%s", group, orders.TopicOrdersChanged)
		return cons.Start(gctx, svc.HandleOrderChanged)
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

	// ctx sudah cancel di titik ini; loop producer flush sisa pesan lalu exit.
	prod.WaitClosed()
}
