package config

import (
	"runtime"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is everything the relay reads from the environment. One instance
// is built in main and handed down explicitly; no package keeps its own
// global copy.
type Config struct {
	NodeID    string `env:"NODE_ID" envDefault:"chat-relay-1"`
	Port      int    `env:"PORT" envDefault:"8080"`
	Instances int    `env:"INSTANCES" envDefault:"0"` // 0 => NumCPU
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"console"`

	// auth oracle; when Server is empty the local JWT validator is used
	AuthServer  string        `env:"AUTH_SERVER"`
	AuthTimeout time.Duration `env:"AUTH_TIMEOUT" envDefault:"5s"`
	JwtSecret   string        `env:"JWT_SECRET"`

	// storage collaborator
	MongoURI      string `env:"MONGO_URI" envDefault:"mongodb://localhost:27017"`
	MongoDatabase string `env:"MONGO_DATABASE" envDefault:"chat"`
	MongoUser     string `env:"MONGO_USER"`
	MongoPassword string `env:"MONGO_PASSWORD"`
	MongoPoolSize int    `env:"MONGO_POOL_SIZE" envDefault:"20"`

	// fan-out bus
	NatsServers string `env:"NATS_SERVERS" envDefault:"nats://127.0.0.1:4222"`

	// cluster session index
	RedisAddr     string `env:"REDIS_ADDR" envDefault:"127.0.0.1:6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	// bot bridge
	KafkaBrokers  []string `env:"KAFKA_BROKERS" envSeparator:"," envDefault:"localhost:9092"`
	KafkaGroupID  string   `env:"KAFKA_GROUP_ID" envDefault:"chat-relay-bots"`
	BotQueueTopic string   `env:"BOT_QUEUE_TOPIC" envDefault:"bot-requests"`
	BotReplyTopic string   `env:"BOT_REPLY_TOPIC" envDefault:"bot-replies"`

	HistoryPageSize int64 `env:"HISTORY_PAGE_SIZE" envDefault:"50"`
}

func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	if cfg.Instances <= 0 {
		cfg.Instances = runtime.NumCPU()
	}
	return cfg, nil
}

// CommandPrefix marks bodies that are handed to the bot queue instead of
// being persisted.
const CommandPrefix = "/stock"

// RoleUser is required on every interactive connection; RoleBot on queue
// replies.
const (
	RoleUser = "user"
	RoleBot  = "bot"
)
