package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/magicpot/indexer/src/utils/config"
	"github.com/magicpot/indexer/src/utils/monitoring"
	"github.com/magicpot/indexer/src/utils/task"

	"github.com/jackc/pgx"
)

// Streams data from postgres notification channel
// puts on output channel
type Streamer struct {
	*task.Task

	pool       *pgx.ConnPool
	connection *pgx.Conn

	monitor     monitoring.Monitor
	channelName string

	Output chan string
}

func NewStreamer(config *config.Config) (self *Streamer) {
	self = new(Streamer)

	self.Output = make(chan string)

	self.Task = task.NewTask(config, "streamer").
		WithSubtaskFunc(self.run).
		WithOnBeforeStart(self.connect).
		WithOnAfterStop(self.disconnect)

	return
}

func (self *Streamer) WithNotificationChannelName(name string) *Streamer {
	self.channelName = name
	return self
}

func (self *Streamer) WithCapacity(size int) *Streamer {
	self.Output = make(chan string, size)
	return self
}

func (self *Streamer) WithMonitor(monitor monitoring.Monitor) *Streamer {
	self.monitor = monitor
	return self
}

func (self *Streamer) disconnect() {
	close(self.Output)

	if self.connection != nil {
		self.pool.Release(self.connection)
	}
	if self.pool != nil {
		self.pool.Close()
	}
}

func (self *Streamer) connect() (err error) {
	db := self.Config.Database
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		db.Host,
		db.Port,
		db.User,
		db.Password,
		db.Name,
		db.SslMode)

	config, err := pgx.ParseDSN(dsn)
	if err != nil {
		return
	}

	self.pool, err = pgx.NewConnPool(pgx.ConnPoolConfig{ConnConfig: config, MaxConnections: 1})
	if err != nil {
		return
	}

	self.connection, err = self.pool.Acquire()
	if err != nil {
		return
	}

	return
}

func (self *Streamer) run() (err error) {
	err = self.connection.Listen(self.channelName)
	if err != nil {
		return
	}

	defer func() {
		err := self.connection.Unlisten(self.channelName)
		if err != nil {
			self.Log.WithError(err).Error("Failed to unlisten channel")
		}
	}()

	for {
		// Waits for notification unless task gets stopped
		msg, err := self.connection.WaitForNotification(self.Ctx)
		if errors.Is(err, context.Canceled) {
			// Stop() was called
			return nil
		}

		if err != nil {
			self.Log.WithError(err).Error("Failed to wait for notification")
			if self.monitor != nil {
				self.monitor.GetReport().WakeListener.Errors.Wait.Inc()
			}
			if !self.connection.IsAlive() {
				return err
			}
			continue
		}

		if self.monitor != nil {
			self.monitor.GetReport().WakeListener.State.NotificationsReceived.Inc()
		}

		select {
		case <-self.StopChannel:
			return nil
		case self.Output <- msg.Payload:
		}
	}
}
