package config

import (
	"time"

	"github.com/spf13/viper"
)

type Indexer struct {
	// Max number of pots processed in one pass
	MaxBatch int

	// Longest sleep between passes when no pot is due
	DefaultInterval time.Duration

	// Decimals assumed for jettons missing from the jettons table
	DefaultDecimals uint8

	// Cached jetton metadata expiration
	JettonCacheTTL time.Duration

	// Postgres channel listened to for "run now" requests. Empty disables listening.
	WakeChannel string

	// Buffer of the wake listener's output
	WakeCapacity int

	// Max number of entries in the monitor's history window
	MonitorHistorySize int
}

func setIndexerDefaults() {
	viper.SetDefault("Indexer.MaxBatch", "100")
	viper.SetDefault("Indexer.DefaultInterval", "5s")
	viper.SetDefault("Indexer.DefaultDecimals", "9")
	viper.SetDefault("Indexer.JettonCacheTTL", "10m")
	viper.SetDefault("Indexer.WakeChannel", "pot_indexer_wake")
	viper.SetDefault("Indexer.WakeCapacity", "10")
	viper.SetDefault("Indexer.MonitorHistorySize", "30")
}
