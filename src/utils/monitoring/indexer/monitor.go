package monitor_indexer

import (
	"math"
	"net/http"
	"sync"
	"time"

	"github.com/magicpot/indexer/src/utils/monitoring/report"
	"github.com/magicpot/indexer/src/utils/task"

	"github.com/gammazero/deque"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	// No finished pass for this long and the indexer is reported unhealthy
	maxPassAge = 10 * time.Minute

	// Time given to a fresh process to finish its first pass
	startupGrace = 5 * time.Minute
)

// Stores and computes monitor counters
type Monitor struct {
	*task.Task

	Report report.Report

	collector *Collector

	mtx                  sync.Mutex
	historySize          int
	TransactionsIngested *deque.Deque[uint64]

	now func() time.Time
}

func NewMonitor() (self *Monitor) {
	self = new(Monitor)
	self.now = time.Now

	self.Report = report.Report{
		Run:            &report.RunReport{},
		Indexer:        &report.IndexerReport{},
		Chain:          &report.ChainReport{},
		RedisPublisher: &report.RedisPublisherReport{},
		WakeListener:   &report.WakeListenerReport{},
	}

	// Initialization
	self.Report.Run.State.StartTimestamp.Store(time.Now().Unix())

	self.collector = NewCollector().WithMonitor(self)

	self.Task = task.NewTask(nil, "monitor").
		WithPeriodicSubtaskFunc(time.Minute, self.monitorTransactions)

	return self.WithMaxHistorySize(30)
}

func (self *Monitor) WithMaxHistorySize(maxHistorySize int) *Monitor {
	self.mtx.Lock()
	defer self.mtx.Unlock()

	self.historySize = maxHistorySize
	self.TransactionsIngested = deque.New[uint64](maxHistorySize)
	return self
}

func (self *Monitor) GetReport() *report.Report {
	return &self.Report
}

func (self *Monitor) GetPrometheusCollector() (collector prometheus.Collector) {
	return self.collector
}

func round(f float64) float64 {
	return math.Round(f*100) / 100
}

// Measure transaction ingestion speed
func (self *Monitor) monitorTransactions() (err error) {
	self.mtx.Lock()
	defer self.mtx.Unlock()

	loaded := self.Report.Indexer.State.TransactionsIngested.Load()
	if loaded == 0 {
		// Neglect the first 0
		return
	}

	self.TransactionsIngested.PushBack(loaded)
	if self.TransactionsIngested.Len() > self.historySize {
		self.TransactionsIngested.PopFront()
	}
	value := float64(self.TransactionsIngested.Back()-self.TransactionsIngested.Front()) / float64(self.TransactionsIngested.Len())
	self.Report.Indexer.State.AverageTransactionsIngestedPerMinute.Store(round(value))
	return
}

func (self *Monitor) IsOK() bool {
	now := self.now()
	if now.Sub(time.Unix(self.Report.Run.State.StartTimestamp.Load(), 0)) < startupGrace {
		return true
	}

	last := self.Report.Indexer.State.LastPassTimestamp.Load()
	return last != 0 && now.Sub(time.Unix(last, 0)) < maxPassAge
}

func (self *Monitor) OnGetState(c *gin.Context) {
	self.Report.Run.State.UpForSeconds.Store(uint64(time.Now().Unix() - self.Report.Run.State.StartTimestamp.Load()))

	c.JSON(http.StatusOK, &self.Report)
}

func (self *Monitor) OnGetHealth(c *gin.Context) {
	if self.IsOK() {
		c.Status(http.StatusOK)
	} else {
		c.Status(http.StatusServiceUnavailable)
	}
}
