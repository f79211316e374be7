package report

type Report struct {
	Run            *RunReport            `json:"run,omitempty"`
	Indexer        *IndexerReport        `json:"indexer,omitempty"`
	Chain          *ChainReport          `json:"chain,omitempty"`
	RedisPublisher *RedisPublisherReport `json:"redis_publisher,omitempty"`
	WakeListener   *WakeListenerReport   `json:"wake_listener,omitempty"`
}
