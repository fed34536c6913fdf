package config

import (
	"github.com/spf13/viper"
	"cryptics.app/cryptics-client/constants"
)

func setDefaults() {
	viper.SetDefault("env", "development")
	viper.SetDefault("log_level", "info")
	viper.SetDefault("message_buffer_size", 0)

	viper.SetDefault("api.base_url", "http://localhost:8000")
	viper.SetDefault("api.insights_base", "")
	viper.SetDefault("api.timeout", "10s")

	viper.SetDefault("auth.state_dir", ".cryptics")
	viper.SetDefault("auth.refresh_buffer", "25s")
	viper.SetDefault("auth.fallback_refresh_after", "4m")
	viper.SetDefault("auth.refresh_wait_timeout", "5s")
	viper.SetDefault("auth.refresh_wait_poll", "100ms")
	viper.SetDefault("auth.max_proactive_failures", 3)

	viper.SetDefault("feed.debounce", "200ms")
	viper.SetDefault("feed.flush_interval", "400ms")
	viper.SetDefault("feed.snapshot_cooldown", "5s")
	viper.SetDefault("feed.reconnect_delay", "1s")
	viper.SetDefault("feed.kline_interval", "1m")
	viper.SetDefault("feed.kline_limit", 48)

	viper.SetDefault("rpc.enabled", false)
	viper.SetDefault("rpc.port", 9981)

	viper.SetDefault("assets.crypto", constants.DEFAULT_BASES)
	viper.SetDefault("assets.quote", constants.USDT)
	viper.SetDefault("assets.pairs", constants.AssetList{})

	viper.SetDefault("stats.enabled", true)
	viper.SetDefault("stats.interval", "60s")

	viper.SetDefault("file_output.enabled", false)
	viper.SetDefault("file_output.filename", "")

	viper.SetDefault("mqtt.enabled", false)
	viper.SetDefault("mqtt.qos_level", 0)

	viper.SetDefault("redis_ts.enabled", false)
	viper.SetDefault("redis_ts.client_options.initaddress", []string{"127.0.0.1:6379"})
	viper.SetDefault("redis_ts.client_options.username", "")
	viper.SetDefault("redis_ts.client_options.password", "")
	viper.SetDefault("redis_ts.ts.retention", "24h")
	viper.SetDefault("redis_ts.ts.chunksize", 2048)

	viper.SetDefault("questdb.enabled", false)
	viper.SetDefault("questdb.flush_interval", "10s")
	viper.SetDefault("questdb.client_options.address", "127.0.0.1:9000")
	viper.SetDefault("questdb.client_options.schema", "http")
	viper.SetDefault("questdb.individual_feed_table", false)
}
