package mongoutil

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"
)

const (
	defaultMaxPoolSize = 100
	defaultMaxRetry    = 3
	defaultAuthSource  = "admin"
)

func (c *Config) validateAndSetDefaults() {
	if c.MaxPoolSize <= 0 {
		c.MaxPoolSize = defaultMaxPoolSize
	}
	if c.MaxRetry <= 0 {
		c.MaxRetry = defaultMaxRetry
	}
	if c.AuthSource == "" {
		c.AuthSource = defaultAuthSource
	}
}

// shouldRetry determines whether an error should trigger a retry.
func shouldRetry(ctx context.Context, err error) bool {
	select {
	case <-ctx.Done():
		return false
	default:
		if cmdErr, ok := err.(mongo.CommandError); ok {
			// 13: unauthorized, 18: auth failed — retrying won't help
			return cmdErr.Code != 13 && cmdErr.Code != 18
		}
		return true
	}
}
