package config

import (
	"path"
	"time"

	"github.com/spf13/viper"
	"cryptics.app/cryptics-client/consumer"
)

type APIOptions struct {
	BaseURL      string        `mapstructure:"base_url"`
	InsightsBase string        `mapstructure:"insights_base"`
	Timeout      time.Duration `mapstructure:"timeout"`
}

type AuthOptions struct {
	StateDir             string        `mapstructure:"state_dir"`
	RefreshBuffer        time.Duration `mapstructure:"refresh_buffer"`
	FallbackRefreshAfter time.Duration `mapstructure:"fallback_refresh_after"`
	RefreshWaitTimeout   time.Duration `mapstructure:"refresh_wait_timeout"`
	RefreshWaitPoll      time.Duration `mapstructure:"refresh_wait_poll"`
	MaxProactiveFailures int           `mapstructure:"max_proactive_failures"`
}

type FeedOptions struct {
	Debounce         time.Duration `mapstructure:"debounce"`
	FlushInterval    time.Duration `mapstructure:"flush_interval"`
	SnapshotCooldown time.Duration `mapstructure:"snapshot_cooldown"`
	ReconnectDelay   time.Duration `mapstructure:"reconnect_delay"`
	KlineInterval    string        `mapstructure:"kline_interval"`
	KlineLimit       int           `mapstructure:"kline_limit"`
}

type RPCOptions struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

type AssetConfig struct {
	Crypto []string `mapstructure:"crypto"`
	Quote  string   `mapstructure:"quote"`
	Pairs  []string `mapstructure:"pairs"`
}

type ConfigOptions struct {
	Env string `mapstructure:"env"`

	LogLevel string `mapstructure:"log_level"`

	MessageBufferSize int `mapstructure:"message_buffer_size"`

	API  APIOptions  `mapstructure:"api"`
	Auth AuthOptions `mapstructure:"auth"`
	Feed FeedOptions `mapstructure:"feed"`
	RPC  RPCOptions  `mapstructure:"rpc"`

	Assets AssetConfig `mapstructure:"assets"`

	Stats consumer.StatisticsGeneratorOptions `mapstructure:"stats"`

	RedisOptions           consumer.RedisOptions           `mapstructure:"redis_ts"`
	FileConsumerOptions    consumer.FileConsumerOptions    `mapstructure:"file_output"`
	MQTTConsumerOptions    consumer.MqttConsumerOptions    `mapstructure:"mqtt"`
	QuestDBConsumerOptions consumer.QuestDbConsumerOptions `mapstructure:"questdb"`
}

var Config ConfigOptions

func init() {
	setDefaults()
}

func LoadConfig(configFile string) (config ConfigOptions, err error) {
	viper.AutomaticEnv()
	viper.AddConfigPath(".")

	// deployment environment variables take precedence over the file
	viper.BindEnv("api.base_url", "API_URL", "NEXT_PUBLIC_API_URL")
	viper.BindEnv("api.insights_base", "NEXT_PUBLIC_API_BASE")
	viper.BindEnv("auth.state_dir", "CRYPTICS_STATE_DIR")

	viper.AddConfigPath(path.Dir(configFile))
	viper.SetConfigFile(path.Base(configFile))

	err = viper.ReadInConfig()
	if err != nil {
		return ConfigOptions{}, err
	}

	err = viper.Unmarshal(&config)
	if err != nil {
		return ConfigOptions{}, err
	}

	Config = config
	return config, nil
}
