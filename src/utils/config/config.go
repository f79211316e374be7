package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/iancoleman/strcase"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

const ENV_PREFIX = "POT_INDEXER_"

// Config stores global configuration
type Config struct {
	// Is development mode on
	IsDevelopment bool

	// REST API address. API used for monitoring etc.
	RESTListenAddress string

	// Maximum time the indexer will be closing before stop is forced.
	StopTimeout time.Duration

	// Logging level
	LogLevel string

	Database Database
	Redis    Redis
	Ton      Ton
	Indexer  Indexer
	Notifier Notifier
	Profiler Profiler
}

func setDefaults() {
	viper.SetDefault("IsDevelopment", "false")
	viper.SetDefault("RESTListenAddress", ":7777")
	viper.SetDefault("LogLevel", "DEBUG")
	viper.SetDefault("StopTimeout", "30s")

	setDatabaseDefaults()
	setRedisDefaults()
	setTonDefaults()
	setIndexerDefaults()
	setNotifierDefaults()
	setProfilerDefaults()
}

func Default() (config *Config) {
	config, _ = Load("")
	return
}

// Visits every field and registers upper snake case ENV name for it
// Works with embedded structs
func BindEnv(path []string, val reflect.Value) {
	if val.Kind() != reflect.Struct {
		key := strings.Join(path, ".")
		env := ENV_PREFIX + strcase.ToScreamingSnake(strings.Join(path, "_"))
		err := viper.BindEnv(key, env)
		if err != nil {
			panic(err)
		}
		return
	}

	for i := 0; i < val.NumField(); i++ {
		newPath := make([]string, len(path))
		copy(newPath, path)
		newPath = append(newPath, val.Type().Field(i).Name)
		BindEnv(newPath, val.Field(i))
	}
}

func decoderConfig(c *mapstructure.DecoderConfig) {
	c.WeaklyTypedInput = true
	c.DecodeHook = mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	)
}

// Load configuration from file and env
func Load(filename string) (config *Config, err error) {
	viper.SetConfigType("json")

	setDefaults()

	BindEnv([]string{}, reflect.ValueOf(Config{}))

	// Empty filename means we use default values
	if filename != "" {
		var content []byte
		/* #nosec */
		content, err = os.ReadFile(filename)
		if err != nil {
			return nil, err
		}

		err = viper.ReadConfig(bytes.NewBuffer(content))
		if err != nil {
			return nil, err
		}
	}

	config = new(Config)
	err = viper.Unmarshal(config, decoderConfig)
	if err != nil {
		return nil, err
	}

	err = config.Validate()
	if err != nil {
		return nil, err
	}

	return
}

// Rejects values the indexer can't start with
func (self *Config) Validate() (err error) {
	if self.StopTimeout <= 0 {
		err = errors.Join(err, errors.New("StopTimeout must be positive"))
	}
	if self.Ton.Endpoint == "" {
		err = errors.Join(err, errors.New("Ton.Endpoint is required"))
	}
	if self.Indexer.MaxBatch <= 0 {
		err = errors.Join(err, fmt.Errorf("Indexer.MaxBatch must be positive, got %d", self.Indexer.MaxBatch))
	}
	if self.Indexer.DefaultInterval <= 0 {
		err = errors.Join(err, errors.New("Indexer.DefaultInterval must be positive"))
	}
	if self.Indexer.DefaultDecimals > 18 {
		err = errors.Join(err, fmt.Errorf("Indexer.DefaultDecimals out of range: %d", self.Indexer.DefaultDecimals))
	}
	switch self.Notifier.Kind {
	case NotifierKindNone, NotifierKindRedis, NotifierKindPostgres:
	default:
		err = errors.Join(err, fmt.Errorf("unknown Notifier.Kind: %q", self.Notifier.Kind))
	}
	return
}
