package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

const (
	prefix = "RECEIPTS"

	// Historical variable of the ansible callback plugin, still honoured.
	receiptsFileEnv = "ANSIBLE_RECEIPTS_FILE"
)

// ErrMissingRunID is returned when run.id is unset: emit, complete and collect of one run must share it.
var ErrMissingRunID = errors.New("run.id is required (RECEIPTS_RUN_ID)")

var conf Config

// Parse reads the configuration file given as parameter.
func Parse(confFile string) (*Config, error) {
	conf = Config{}

	setDefault()

	viper.SetEnvPrefix(prefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv() // read in environment variables that match

	err := viper.BindEnv("output.path", prefix+"_OUTPUT_PATH", receiptsFileEnv)
	if err != nil {
		return &conf, fmt.Errorf("failed to bind output path: %w", err)
	}

	if len(confFile) > 0 {
		viper.SetConfigFile(confFile)

		err := viper.ReadInConfig()
		if err != nil {
			return &conf, fmt.Errorf("failed to read config file %v: %w", confFile, err)
		}
	}

	err = viper.Unmarshal(&conf)
	if err != nil {
		return &conf, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if conf.Run.ID == "" {
		return &conf, ErrMissingRunID
	}

	return &conf, nil
}

// Get returns the last parsed configuration.
func Get() Config {
	return conf
}

func setDefault() {
	viper.SetDefault("logs.level", 0)
	viper.SetDefault("logs.encoder", EncoderTypeConsole)
	viper.SetDefault("gracefulDuration", "8s")
	viper.SetDefault("metrics.port", 7777)
	viper.SetDefault("run.id", "")
	viper.SetDefault("run.mode", RunModeRelay)
	viper.SetDefault("retry.maxAttempt", 5)
	viper.SetDefault("retry.delay", "200ms")
	viper.SetDefault("transport.type", TransportTypeValkey)
	viper.SetDefault("transport.valkey.valkey.url", "localhost:6379")
	viper.SetDefault("transport.valkey.key", "receipts:events")
	viper.SetDefault("transport.valkey.pollTimeout", "1s")
	viper.SetDefault("transport.kafka.broker.urls", "localhost:9092")
	viper.SetDefault("transport.kafka.broker.version", "3.6.0")
	viper.SetDefault("transport.kafka.channel.topic", "receipts-events")
	viper.SetDefault("transport.kafka.channel.oldest", true)
	viper.SetDefault("output.valkey.keyPrefix", "receipts")
	viper.SetDefault("output.valkey.expiration", "24h")
}
