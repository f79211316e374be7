package config

import (
	"github.com/spf13/viper"
)

const (
	NotifierKindNone     = "none"
	NotifierKindRedis    = "redis"
	NotifierKindPostgres = "postgres"
)

// Delivery of "please run" signals to the cache refresher and the message dispatcher
type Notifier struct {
	// One of: none, redis, postgres
	Kind string

	// Channel name is Prefix + logical target name
	ChannelPrefix string
}

func setNotifierDefaults() {
	viper.SetDefault("Notifier.Kind", NotifierKindRedis)
	viper.SetDefault("Notifier.ChannelPrefix", "magicpot.run.")
}
