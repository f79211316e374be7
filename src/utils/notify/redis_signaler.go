package notify

import (
	"context"
	"errors"

	"github.com/magicpot/indexer/src/utils/config"
	"github.com/magicpot/indexer/src/utils/monitoring"
	"github.com/magicpot/indexer/src/utils/publisher"
	"github.com/magicpot/indexer/src/utils/task"

	"github.com/redis/go-redis/v9"
)

var (
	ErrStopped = errors.New("signaler stopped")
	ErrDropped = errors.New("signal queue full, signal dropped")
)

// Publishes signals to Redis channels
type RedisSignaler struct {
	*task.Task

	prefix    string
	output    chan Signal
	publisher *publisher.RedisPublisher[Signal]
}

func NewRedisSignaler(config *config.Config) (self *RedisSignaler) {
	self = new(RedisSignaler)

	self.prefix = channelPrefix(config)
	self.output = make(chan Signal, config.Redis.MaxQueueSize)

	self.publisher = publisher.NewRedisPublisher[Signal](config, "redis-signaler").
		WithInputChannel(self.output)

	self.Task = task.NewTask(config, "signaler").
		WithSubtask(self.publisher.Task)

	return
}

func (self *RedisSignaler) WithMonitor(monitor monitoring.Monitor) *RedisSignaler {
	self.publisher.WithMonitor(monitor)
	return self
}

func (self *RedisSignaler) WithClient(client *redis.Client) *RedisSignaler {
	self.publisher.WithClient(client)
	return self
}

// Queues the signal without waiting. Signals carry no data, so when the queue is full
// (Redis unreachable) the new one is dropped: a queued signal wakes the target anyway.
func (self *RedisSignaler) Signal(ctx context.Context, target string) error {
	select {
	case <-self.StopChannel:
		return ErrStopped
	default:
	}

	select {
	case self.output <- Signal{Prefix: self.prefix, Target: target}:
		return nil
	default:
		return ErrDropped
	}
}
