package queue

import (
	"encoding/json"

	"ChatRelay/tools/errs"

	"github.com/Shopify/sarama"
)

// Producer hands command messages to the bot queue. Command bodies are
// never persisted; enqueueing is the whole of their handling here.
type Producer struct {
	prod sarama.SyncProducer
}

func NewProducer(brokers []string) (*Producer, error) {
	p, err := sarama.NewSyncProducer(brokers, BuildBaseConfig())
	if err != nil {
		return nil, errs.WrapMsg(err, "create kafka producer", "brokers", brokers)
	}
	return &Producer{prod: p}, nil
}

// BotRequest is the payload placed on the bot queue for a command
// message like "/stock AAPL".
type BotRequest struct {
	Chatroom string `json:"chatroom"`
	User     string `json:"user"`
	Command  string `json:"command"`
}

// Enqueue publishes a payload to the given topic, keyed by room so one
// room's commands stay ordered on a single partition.
func (p *Producer) Enqueue(topic string, key string, payload any) error {
	value, err := json.Marshal(payload)
	if err != nil {
		return errs.Wrap(err, "marshal queue payload")
	}
	_, _, err = p.prod.SendMessage(&sarama.ProducerMessage{
		Topic: topic,
		Key:   sarama.StringEncoder(key),
		Value: sarama.ByteEncoder(value),
	})
	return errs.WrapMsg(err, "send queue message", "topic", topic)
}

func (p *Producer) Close() error {
	return p.prod.Close()
}
