package config

import (
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != 8080 {
		t.Fatalf("default port = %d", cfg.Port)
	}
	if cfg.Instances <= 0 {
		t.Fatalf("instances must resolve to a positive worker count, got %d", cfg.Instances)
	}
	if cfg.HistoryPageSize != 50 {
		t.Fatalf("default history page = %d", cfg.HistoryPageSize)
	}
	if cfg.BotQueueTopic != "bot-requests" || cfg.BotReplyTopic != "bot-replies" {
		t.Fatalf("bot topics = %q %q", cfg.BotQueueTopic, cfg.BotReplyTopic)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9001")
	t.Setenv("INSTANCES", "3")
	t.Setenv("NODE_ID", "relay-west-2")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != 9001 || cfg.Instances != 3 || cfg.NodeID != "relay-west-2" {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	if len(cfg.KafkaBrokers) != 2 || cfg.KafkaBrokers[1] != "k2:9092" {
		t.Fatalf("brokers = %v", cfg.KafkaBrokers)
	}
}
