package api

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/stockadmin/console/internal/models"
	"go.uber.org/zap"
)

// WaitHealthy polls the health endpoint with exponential backoff until it succeeds or maxWait elapses
func (c *Client) WaitHealthy(ctx context.Context, maxWait time.Duration) error {
	b := backoff.NewExponentialBackOff(
		backoff.WithInitialInterval(250*time.Millisecond),
		backoff.WithMaxInterval(5*time.Second),
		backoff.WithMaxElapsedTime(maxWait),
	)
	return waitHealthy(ctx, c.Health, b, c.logger)
}

func waitHealthy(ctx context.Context, probe func(context.Context) error, b backoff.BackOff, logger *zap.Logger) error {
	operation := func() error {
		err := probe(ctx)
		if err == nil || retryable(err) {
			return err
		}
		return backoff.Permanent(err)
	}

	return backoff.RetryNotify(operation, backoff.WithContext(b, ctx), func(err error, d time.Duration) {
		logger.Warn("API not healthy yet, retrying",
			zap.Error(err),
			zap.Duration("retry_in", d),
		)
	})
}

// retryable reports whether the failure may go away by waiting
func retryable(err error) bool {
	var apiErr *models.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	switch apiErr.Kind {
	case models.ErrorKindNetwork, models.ErrorKindTimeout, models.ErrorKindServer:
		return true
	}
	return false
}
