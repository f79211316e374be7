package config

import (
	"time"

	"github.com/spf13/viper"
)

// Access to the TON network through the toncenter HTTP API v2
type Ton struct {
	// Base url, e.g. https://toncenter.com/api/v2
	Endpoint string

	// Optional API key sent in X-API-Key header
	ApiKey string

	// Addresses are rendered in testnet form
	Testnet bool

	// Time limit for a single request
	RequestTimeout time.Duration

	// Dialer and transport
	DialerTimeout       time.Duration
	DialerKeepAlive     time.Duration
	IdleConnTimeout     time.Duration
	TLSHandshakeTimeout time.Duration

	// Requests per second allowed by the endpoint
	Limit float64

	// Number of transactions requested per page
	TransactionsPageSize int
}

func setTonDefaults() {
	viper.SetDefault("Ton.Endpoint", "https://toncenter.com/api/v2")
	viper.SetDefault("Ton.ApiKey", "")
	viper.SetDefault("Ton.Testnet", "false")
	viper.SetDefault("Ton.RequestTimeout", "30s")
	viper.SetDefault("Ton.DialerTimeout", "10s")
	viper.SetDefault("Ton.DialerKeepAlive", "30s")
	viper.SetDefault("Ton.IdleConnTimeout", "60s")
	viper.SetDefault("Ton.TLSHandshakeTimeout", "10s")
	viper.SetDefault("Ton.Limit", "1")
	viper.SetDefault("Ton.TransactionsPageSize", "20")
}
