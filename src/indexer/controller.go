package indexer

import (
	"github.com/magicpot/indexer/src/utils/config"
	"github.com/magicpot/indexer/src/utils/logger"
	"github.com/magicpot/indexer/src/utils/model"
	"github.com/magicpot/indexer/src/utils/monitoring"
	monitor_indexer "github.com/magicpot/indexer/src/utils/monitoring/indexer"
	"github.com/magicpot/indexer/src/utils/notify"
	"github.com/magicpot/indexer/src/utils/task"
	"github.com/magicpot/indexer/src/utils/ton"

	"gorm.io/gorm"
)

type Controller struct {
	*task.Task
}

// Main class that orchestrates indexing of pots.
// Sets up the update loop, its wake listener, signal delivery and monitoring.
func NewController(config *config.Config) (self *Controller, err error) {
	self = new(Controller)

	err = config.Validate()
	if err != nil {
		return
	}

	self.Task = task.NewTask(config, "controller")

	// Monitoring
	monitor := monitor_indexer.NewMonitor().
		WithMaxHistorySize(config.Indexer.MonitorHistorySize)
	server := monitoring.NewServer(config).
		WithMonitor(monitor)

	// SQL database
	db, err := model.NewConnection(self.Ctx, config, "indexer")
	if err != nil {
		return
	}

	store := NewStore(config).
		WithDB(db)

	reader := ton.NewBlockchainReader(ton.NewToncenter(config))

	updater := NewPotUpdater(config).
		WithStore(store).
		WithReader(reader).
		WithMonitor(monitor)

	self.Task = self.Task.
		WithSubtask(monitor.Task).
		WithSubtask(server.Task).
		WithSubtask(updater.Task)

	// Signals for the cache refresher and the message dispatcher
	signaler, signalerTask := newSignaler(config, db, monitor)
	updater.WithSignaler(signaler)
	if signalerTask != nil {
		self.Task = self.Task.WithSubtask(signalerTask)
	}

	// Other components may ask for an immediate pass
	if config.Indexer.WakeChannel != "" {
		streamer := notify.NewStreamer(config).
			WithNotificationChannelName(config.Indexer.WakeChannel).
			WithCapacity(config.Indexer.WakeCapacity).
			WithMonitor(monitor)

		self.Task = self.Task.
			WithSubtask(streamer.Task).
			WithSubtaskFunc(func() error {
				for range streamer.Output {
					updater.Wake()
				}
				return nil
			})
	}

	return
}

// Signaler for the configured notifier kind. The task is nil if nothing has to run in the background.
func newSignaler(conf *config.Config, db *gorm.DB, monitor monitoring.Monitor) (notify.Signaler, *task.Task) {
	switch conf.Notifier.Kind {
	case config.NotifierKindRedis:
		signaler := notify.NewRedisSignaler(conf).
			WithMonitor(monitor)
		return signaler, signaler.Task
	case config.NotifierKindPostgres:
		return notify.NewPostgresSignaler(conf, db), nil
	default:
		logger.NewSublogger("controller").Warn("Signals disabled")
		return notify.NopSignaler{}, nil
	}
}
