package config

import (
	"os"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	postgres_wrapper "github.com/Foundup/Foundups-Agent-sub000/pkg/infra/postgres"
	redis_wrapper "github.com/Foundup/Foundups-Agent-sub000/pkg/infra/redis"
	"github.com/Foundup/Foundups-Agent-sub000/pkg/orderbook"
)

type AppConfig struct {
	ServiceName string                           `yaml:"service_name"`
	Exchange    *ExchangeConfig                  `yaml:"exchange"`
	JournalDB   *postgres_wrapper.PostgresConfig `yaml:"journal_db"`
	Redis       *redis_wrapper.RedisConfig       `yaml:"redis"`
	Kafka       *KafkaConfig                     `yaml:"kafka"`
}

type ExchangeConfig struct {
	FeeRate          float64                          `yaml:"fee_rate"`
	EnableShardQueue bool                             `yaml:"enable_shard_queue"`
	ShardCount       int                              `yaml:"shard_count"`
	QueueSize        int                              `yaml:"queue_size"`
	PprofAddr        string                           `yaml:"pprof_addr"`
	EntryProtection  *orderbook.EntryProtectionConfig `yaml:"entry_protection"`
}

type KafkaConfig struct {
	Brokers       []string `yaml:"brokers"`
	TradeTopic    string   `yaml:"trade_topic"`
	ConsumerGroup string   `yaml:"consumer_group"`
	DLQTopic      string   `yaml:"dlq_topic"`
}

// Load reads config from file and environment variables.
func Load(filePath string) (*AppConfig, error) {
	if len(filePath) == 0 {
		filePath = os.Getenv("CONFIG_FILE")
	}

	sugar := zap.S().With("func", "config.Load", "filePath", filePath)

	sugar.Debug("Load config...")

	configBytes, err := os.ReadFile(filePath)
	if err != nil {
		sugar.Error("Failed to load config file")
		return nil, err
	}
	configBytes = []byte(os.ExpandEnv(string(configBytes)))

	cfg := &AppConfig{}
	if err := yaml.Unmarshal(configBytes, cfg); err != nil {
		sugar.Error("Failed to parse config file")
		return nil, err
	}

	if cfg.Exchange != nil && cfg.Exchange.EntryProtection == nil {
		cfg.Exchange.EntryProtection = orderbook.DefaultEntryProtectionConfig()
	}

	zap.S().Debugf("config: %+v", cfg)
	return cfg, nil
}
