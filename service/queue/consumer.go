package queue

import (
	"context"
	"sync"

	"ChatRelay/logger"
	"ChatRelay/tools/errs"

	"github.com/Shopify/sarama"
)

// MessageHandler consumes one queue message. A handler error is logged
// and the message is still marked: the relay never retries on behalf of
// the queue collaborator.
type MessageHandler func(topic string, key, value []byte) error

// Consumer runs a consumer group over the bot reply topics.
type Consumer struct {
	group sarama.ConsumerGroup

	mu       sync.RWMutex
	handlers map[string]MessageHandler
}

func NewConsumer(brokers []string, groupID string) (*Consumer, error) {
	group, err := sarama.NewConsumerGroup(brokers, groupID, BuildBaseConfig())
	if err != nil {
		return nil, errs.WrapMsg(err, "create consumer group", "group", groupID)
	}
	return &Consumer{group: group, handlers: make(map[string]MessageHandler)}, nil
}

func (c *Consumer) RegisterHandler(topic string, handler MessageHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers[topic] = handler
}

func (c *Consumer) handler(topic string) (MessageHandler, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	h, ok := c.handlers[topic]
	return h, ok
}

// Run blocks consuming topics until ctx is cancelled.
func (c *Consumer) Run(ctx context.Context, topics []string) error {
	go func() {
		for err := range c.group.Errors() {
			logger.Errorf("[queue] consumer group error: %v", err)
		}
	}()

	for {
		if err := c.group.Consume(ctx, topics, &groupHandler{c: c}); err != nil {
			logger.Errorf("[queue] consume error: %v", err)
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

func (c *Consumer) Close() error {
	return c.group.Close()
}

type groupHandler struct{ c *Consumer }

func (h *groupHandler) Setup(sarama.ConsumerGroupSession) error {
	logger.Debug("[queue] consumer group setup")
	return nil
}

func (h *groupHandler) Cleanup(sarama.ConsumerGroupSession) error {
	logger.Debug("[queue] consumer group cleanup")
	return nil
}

func (h *groupHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for msg := range claim.Messages() {
		if handler, ok := h.c.handler(msg.Topic); ok {
			if err := handler(msg.Topic, msg.Key, msg.Value); err != nil {
				logger.Errorf("[queue] handler error topic=%s: %v", msg.Topic, err)
			}
		} else {
			logger.Warnf("[queue] no handler for topic %s", msg.Topic)
		}
		session.MarkMessage(msg, "")
	}
	return nil
}
