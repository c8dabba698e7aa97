package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/ffhan/lob"
	"github.com/ffhan/lob/internal/api"
	"github.com/ffhan/lob/internal/stream"
)

func main() {
	var (
		listenAddr   = flag.String("listen", ":8080", "HTTP listen address")
		markets      = flag.String("markets", "BTC-USD", "comma-separated markets to open")
		kafkaBrokers = flag.String("kafka-brokers", "", "comma-separated Kafka brokers; empty disables publishing")
		kafkaTopic   = flag.String("kafka-topic", "lob.events", "Kafka topic for book events")
	)
	flag.Parse()

	log, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	engine := lob.NewEngine(lob.NewInMemoryOrderRepository(), lob.NewInMemoryTradeRepository())
	for _, market := range strings.Split(*markets, ",") {
		market = strings.TrimSpace(market)
		if market == "" {
			continue
		}
		if _, err := engine.CreateMarket(market); err != nil {
			log.Fatal("create market", zap.String("market", market), zap.Error(err))
		}
		log.Info("market open", zap.String("market", market))
	}

	if *kafkaBrokers != "" {
		publisher := stream.NewPublisher(strings.Split(*kafkaBrokers, ","), *kafkaTopic, log)
		defer publisher.Close()
		engine.Handle(publisher)
		log.Info("publishing events",
			zap.String("brokers", *kafkaBrokers),
			zap.String("topic", *kafkaTopic))
	}

	server := &http.Server{
		Addr:    *listenAddr,
		Handler: api.NewServer(engine, log).Router(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info("listening", zap.String("addr", *listenAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("serve", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown", zap.Error(err))
	}
}
