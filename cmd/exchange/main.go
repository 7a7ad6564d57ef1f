package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/Foundup/Foundups-Agent-sub000/config"
	"github.com/Foundup/Foundups-Agent-sub000/pkg/exchange"
	"github.com/Foundup/Foundups-Agent-sub000/pkg/feed"
	redis_wrapper "github.com/Foundup/Foundups-Agent-sub000/pkg/infra/redis"
	"github.com/Foundup/Foundups-Agent-sub000/pkg/kafkautil"
	"github.com/Foundup/Foundups-Agent-sub000/pkg/logging"
	"github.com/Foundup/Foundups-Agent-sub000/pkg/marketctx"
	"github.com/Foundup/Foundups-Agent-sub000/pkg/orderbook"
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
	if cfg.Exchange == nil {
		panic("config: exchange section is required")
	}

	if cfg.Exchange.PprofAddr != "" {
		go func() {
			_ = http.ListenAndServe(cfg.Exchange.PprofAddr, nil)
		}()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	manager, err := orderbook.NewOrderBookManager(&orderbook.ManagerConfig{
		FeeRate:         decimal.NewFromFloat(cfg.Exchange.FeeRate),
		EntryProtection: cfg.Exchange.EntryProtection,
	}, logger.Zap())
	if err != nil {
		panic(err)
	}

	var source marketctx.Source
	if cfg.Redis != nil {
		client, err := redis_wrapper.InitRedis(cfg.Redis)
		if err != nil {
			panic(err)
		}
		source = marketctx.NewRedisSource(client)
	}

	var publisher *feed.Publisher
	if cfg.Kafka != nil && cfg.Kafka.TradeTopic != "" {
		producer := kafkautil.NewProducer(kafkautil.ProducerConfig{Brokers: cfg.Kafka.Brokers})
		publisher = feed.NewPublisher(producer, cfg.Kafka.TradeTopic, logger.Zap())
		manager.RegisterTradeCallback(publisher.Callback())
	}

	ex := exchange.New(&exchange.Config{
		EnableShardQueue: cfg.Exchange.EnableShardQueue,
		ShardCount:       cfg.Exchange.ShardCount,
		QueueSize:        cfg.Exchange.QueueSize,
	}, manager, source, logger.Zap())
	ex.Start(ctx)

	fmt.Println("Exchange started. Press Ctrl+C to exit.")

	<-sigs
	fmt.Println("Shutting down...")

	ex.Stop()
	if publisher != nil {
		_ = publisher.Close()
	}
	cancel()

	fmt.Println("Exited cleanly.")
}
