package monitor_indexer

import (
	"github.com/prometheus/client_golang/prometheus"
)

type Collector struct {
	monitor *Monitor

	// Run
	UpForSeconds *prometheus.Desc

	// Indexer
	PassesDone                           *prometheus.Desc
	PotsUpdated                          *prometheus.Desc
	PotsChanged                          *prometheus.Desc
	TransactionsIngested                 *prometheus.Desc
	TransactionsClassified               *prometheus.Desc
	MessagesScheduled                    *prometheus.Desc
	ChargesAccepted                      *prometheus.Desc
	BetsAccepted                         *prometheus.Desc
	PotsStolen                           *prometheus.Desc
	SignalsSent                          *prometheus.Desc
	ConsecutiveFailures                  *prometheus.Desc
	AverageTransactionsIngestedPerMinute *prometheus.Desc
	LastSeqno                            *prometheus.Desc
	WakeNotifications                    *prometheus.Desc
	MessagesPublished                    *prometheus.Desc

	// Errors
	PotFailures        *prometheus.Desc
	SyncFailures       *prometheus.Desc
	DbSelectFailures   *prometheus.Desc
	SignalFailures     *prometheus.Desc
	ChainFailures      *prometheus.Desc
	RegressionDetected *prometheus.Desc
	WakeWaitErrors     *prometheus.Desc
	PublishErrors      *prometheus.Desc
	PublishGiveUps     *prometheus.Desc
}

func NewCollector() *Collector {
	return &Collector{
		UpForSeconds: prometheus.NewDesc("up_for_seconds", "", nil, nil),

		PassesDone:                           prometheus.NewDesc("indexer_passes_done", "", nil, nil),
		PotsUpdated:                          prometheus.NewDesc("indexer_pots_updated", "", nil, nil),
		PotsChanged:                          prometheus.NewDesc("indexer_pots_changed", "", nil, nil),
		TransactionsIngested:                 prometheus.NewDesc("indexer_transactions_ingested", "", nil, nil),
		TransactionsClassified:               prometheus.NewDesc("indexer_transactions_classified", "", nil, nil),
		MessagesScheduled:                    prometheus.NewDesc("indexer_messages_scheduled", "", nil, nil),
		ChargesAccepted:                      prometheus.NewDesc("indexer_charges_accepted", "", nil, nil),
		BetsAccepted:                         prometheus.NewDesc("indexer_bets_accepted", "", nil, nil),
		PotsStolen:                           prometheus.NewDesc("indexer_pots_stolen", "", nil, nil),
		SignalsSent:                          prometheus.NewDesc("indexer_signals_sent", "", nil, nil),
		ConsecutiveFailures:                  prometheus.NewDesc("indexer_consecutive_failures", "", nil, nil),
		AverageTransactionsIngestedPerMinute: prometheus.NewDesc("indexer_average_transactions_ingested_per_minute", "", nil, nil),
		LastSeqno:                            prometheus.NewDesc("chain_last_seqno", "", nil, nil),
		WakeNotifications:                    prometheus.NewDesc("wake_notifications_received", "", nil, nil),
		MessagesPublished:                    prometheus.NewDesc("redis_messages_published", "", nil, nil),

		// Errors
		PotFailures:        prometheus.NewDesc("error_indexer_pot", "", nil, nil),
		SyncFailures:       prometheus.NewDesc("error_indexer_sync", "", nil, nil),
		DbSelectFailures:   prometheus.NewDesc("error_indexer_db_select", "", nil, nil),
		SignalFailures:     prometheus.NewDesc("error_indexer_signal", "", nil, nil),
		ChainFailures:      prometheus.NewDesc("error_indexer_chain", "", nil, nil),
		RegressionDetected: prometheus.NewDesc("error_chain_regression", "", nil, nil),
		WakeWaitErrors:     prometheus.NewDesc("error_wake_wait", "", nil, nil),
		PublishErrors:      prometheus.NewDesc("error_redis_publish", "", nil, nil),
		PublishGiveUps:     prometheus.NewDesc("error_redis_persistent", "", nil, nil),
	}
}

func (self *Collector) WithMonitor(m *Monitor) *Collector {
	self.monitor = m
	return self
}

func (self *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- self.UpForSeconds

	ch <- self.PassesDone
	ch <- self.PotsUpdated
	ch <- self.PotsChanged
	ch <- self.TransactionsIngested
	ch <- self.TransactionsClassified
	ch <- self.MessagesScheduled
	ch <- self.ChargesAccepted
	ch <- self.BetsAccepted
	ch <- self.PotsStolen
	ch <- self.SignalsSent
	ch <- self.ConsecutiveFailures
	ch <- self.AverageTransactionsIngestedPerMinute
	ch <- self.LastSeqno
	ch <- self.WakeNotifications
	ch <- self.MessagesPublished

	// Errors
	ch <- self.PotFailures
	ch <- self.SyncFailures
	ch <- self.DbSelectFailures
	ch <- self.SignalFailures
	ch <- self.ChainFailures
	ch <- self.RegressionDetected
	ch <- self.WakeWaitErrors
	ch <- self.PublishErrors
	ch <- self.PublishGiveUps
}

// Collect implements required collect function for all promehteus collectors
func (self *Collector) Collect(ch chan<- prometheus.Metric) {
	r := self.monitor.GetReport()

	ch <- prometheus.MustNewConstMetric(self.UpForSeconds, prometheus.GaugeValue, float64(r.Run.State.UpForSeconds.Load()))

	ch <- prometheus.MustNewConstMetric(self.PassesDone, prometheus.CounterValue, float64(r.Indexer.State.PassesDone.Load()))
	ch <- prometheus.MustNewConstMetric(self.PotsUpdated, prometheus.CounterValue, float64(r.Indexer.State.PotsUpdated.Load()))
	ch <- prometheus.MustNewConstMetric(self.PotsChanged, prometheus.CounterValue, float64(r.Indexer.State.PotsChanged.Load()))
	ch <- prometheus.MustNewConstMetric(self.TransactionsIngested, prometheus.CounterValue, float64(r.Indexer.State.TransactionsIngested.Load()))
	ch <- prometheus.MustNewConstMetric(self.TransactionsClassified, prometheus.CounterValue, float64(r.Indexer.State.TransactionsClassified.Load()))
	ch <- prometheus.MustNewConstMetric(self.MessagesScheduled, prometheus.CounterValue, float64(r.Indexer.State.MessagesScheduled.Load()))
	ch <- prometheus.MustNewConstMetric(self.ChargesAccepted, prometheus.CounterValue, float64(r.Indexer.State.ChargesAccepted.Load()))
	ch <- prometheus.MustNewConstMetric(self.BetsAccepted, prometheus.CounterValue, float64(r.Indexer.State.BetsAccepted.Load()))
	ch <- prometheus.MustNewConstMetric(self.PotsStolen, prometheus.CounterValue, float64(r.Indexer.State.PotsStolen.Load()))
	ch <- prometheus.MustNewConstMetric(self.SignalsSent, prometheus.CounterValue, float64(r.Indexer.State.SignalsSent.Load()))
	ch <- prometheus.MustNewConstMetric(self.ConsecutiveFailures, prometheus.GaugeValue, float64(r.Indexer.State.ConsecutiveFailures.Load()))
	ch <- prometheus.MustNewConstMetric(self.AverageTransactionsIngestedPerMinute, prometheus.GaugeValue, r.Indexer.State.AverageTransactionsIngestedPerMinute.Load())
	ch <- prometheus.MustNewConstMetric(self.LastSeqno, prometheus.GaugeValue, float64(r.Chain.State.LastSeqno.Load()))
	ch <- prometheus.MustNewConstMetric(self.WakeNotifications, prometheus.CounterValue, float64(r.WakeListener.State.NotificationsReceived.Load()))
	ch <- prometheus.MustNewConstMetric(self.MessagesPublished, prometheus.CounterValue, float64(r.RedisPublisher.State.MessagesPublished.Load()))

	// Errors
	ch <- prometheus.MustNewConstMetric(self.PotFailures, prometheus.CounterValue, float64(r.Indexer.Errors.PotFailures.Load()))
	ch <- prometheus.MustNewConstMetric(self.SyncFailures, prometheus.CounterValue, float64(r.Indexer.Errors.SyncFailures.Load()))
	ch <- prometheus.MustNewConstMetric(self.DbSelectFailures, prometheus.CounterValue, float64(r.Indexer.Errors.DbSelectFailures.Load()))
	ch <- prometheus.MustNewConstMetric(self.SignalFailures, prometheus.CounterValue, float64(r.Indexer.Errors.SignalFailures.Load()))
	ch <- prometheus.MustNewConstMetric(self.ChainFailures, prometheus.CounterValue, float64(r.Indexer.Errors.ChainFailures.Load()))
	ch <- prometheus.MustNewConstMetric(self.RegressionDetected, prometheus.CounterValue, float64(r.Chain.Errors.RegressionDetected.Load()))
	ch <- prometheus.MustNewConstMetric(self.WakeWaitErrors, prometheus.CounterValue, float64(r.WakeListener.Errors.Wait.Load()))
	ch <- prometheus.MustNewConstMetric(self.PublishErrors, prometheus.CounterValue, float64(r.RedisPublisher.Errors.Publish.Load()))
	ch <- prometheus.MustNewConstMetric(self.PublishGiveUps, prometheus.CounterValue, float64(r.RedisPublisher.Errors.PersistentFailure.Load()))
}
