package task

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Implement operation retrying
type Retry struct {
	ctx            context.Context
	maxElapsedTime time.Duration
	maxInterval    time.Duration
	onError        func(error) error
}

func NewRetry() *Retry {
	return &Retry{
		ctx: context.Background(),
	}
}

// 0 means no limit
func (self *Retry) WithMaxElapsedTime(maxElapsedTime time.Duration) *Retry {
	self.maxElapsedTime = maxElapsedTime
	return self
}

func (self *Retry) WithMaxInterval(maxInterval time.Duration) *Retry {
	self.maxInterval = maxInterval
	return self
}

func (self *Retry) WithContext(ctx context.Context) *Retry {
	self.ctx = ctx
	return self
}

// Called after every failed attempt. Returning nil ends retrying with success,
// returning backoff.Permanent ends retrying with an error.
func (self *Retry) WithOnError(v func(error) error) *Retry {
	self.onError = v
	return self
}

func (self *Retry) Run(f func() error) error {
	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = self.maxElapsedTime
	if self.maxInterval > 0 {
		b.MaxInterval = self.maxInterval
	}

	return backoff.Retry(func() error {
		err := f()
		if err == nil || self.onError == nil {
			return err
		}
		return self.onError(err)
	}, backoff.WithContext(b, self.ctx))
}

// Delay before the next attempt after a number of consecutive failures.
// Grows with the number of failures and is capped at 30 minutes.
func FailureDelay(failures int) time.Duration {
	switch {
	case failures <= 2:
		return 5 * time.Second
	case failures == 3:
		return 10 * time.Second
	case failures == 4:
		return 15 * time.Second
	case failures == 5:
		return 30 * time.Second
	case failures == 6:
		return time.Minute
	case failures == 7:
		return 2 * time.Minute
	case failures == 8:
		return 5 * time.Minute
	case failures == 9:
		return 10 * time.Minute
	default:
		return 30 * time.Minute
	}
}
