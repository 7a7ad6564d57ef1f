package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/Foundup/Foundups-Agent-sub000/config"
	postgres_wrapper "github.com/Foundup/Foundups-Agent-sub000/pkg/infra/postgres"
	"github.com/Foundup/Foundups-Agent-sub000/pkg/journal/repo"
	"github.com/Foundup/Foundups-Agent-sub000/pkg/journal/worker"
	"github.com/Foundup/Foundups-Agent-sub000/pkg/kafkautil"
	"github.com/Foundup/Foundups-Agent-sub000/pkg/logging"
)

func main() {
	var configFile string
	flag.StringVar(&configFile, "config-file", "", "Specify config file path")
	flag.Parse()

	logger := logging.NewLogger(logging.INFO)
	defer logger.Sync() // nolint
	zap.ReplaceGlobals(logger.Zap())

	cfg, err := config.Load(configFile)
	if err != nil {
		panic(err)
	}

	configBytes, err := json.MarshalIndent(cfg, "", "   ")
	if err != nil {
		zap.S().Warnf("could not convert config to JSON: %v", err)
	} else {
		zap.S().Debugf("load config %s", string(configBytes))
	}

	if cfg.JournalDB == nil || cfg.Kafka == nil {
		panic("config: journal_db and kafka sections are required")
	}

	db, err := postgres_wrapper.InitPostgres(cfg.JournalDB)
	if err != nil {
		zap.S().Errorf("init db fail with err: %v", err)
		panic(err)
	}

	consumer, err := kafkautil.NewConsumerGroup(kafkautil.ConsumerConfig{
		Brokers:  cfg.Kafka.Brokers,
		GroupID:  cfg.Kafka.ConsumerGroup,
		Topic:    cfg.Kafka.TradeTopic,
		DLQTopic: cfg.Kafka.DLQTopic,
	})
	if err != nil {
		zap.S().Errorf("init consumer fail with err: %v", err)
		panic(err)
	}

	w := worker.NewWorker(repo.NewRepo(db), consumer)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		if err := w.Run(ctx); err != nil && err != context.Canceled {
			zap.S().Errorf("journal worker stopped: %v", err)
		}
	}()

	fmt.Println("Trade journal started. Press Ctrl+C to exit.")

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs

	fmt.Println("Shutting down...")
	cancel()
	_ = w.Close()
	fmt.Println("Exited cleanly.")
}
