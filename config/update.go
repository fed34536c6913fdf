package config

import (
	"log/slog"

	"github.com/spf13/viper"
)

// UpdateConfig applies a new configuration object over the loaded one. Used by
// the control RPC so a running agent can be retuned without a restart.
func UpdateConfig(newConfig ConfigOptions, saveCurrentConfig bool) {
	viper.Set("env", newConfig.Env)
	viper.Set("log_level", newConfig.LogLevel)
	viper.Set("message_buffer_size", newConfig.MessageBufferSize)

	viper.Set("api.base_url", newConfig.API.BaseURL)
	viper.Set("api.insights_base", newConfig.API.InsightsBase)
	viper.Set("api.timeout", newConfig.API.Timeout)

	viper.Set("auth.state_dir", newConfig.Auth.StateDir)
	viper.Set("auth.refresh_buffer", newConfig.Auth.RefreshBuffer)
	viper.Set("auth.fallback_refresh_after", newConfig.Auth.FallbackRefreshAfter)
	viper.Set("auth.refresh_wait_timeout", newConfig.Auth.RefreshWaitTimeout)
	viper.Set("auth.refresh_wait_poll", newConfig.Auth.RefreshWaitPoll)
	viper.Set("auth.max_proactive_failures", newConfig.Auth.MaxProactiveFailures)

	viper.Set("feed.debounce", newConfig.Feed.Debounce)
	viper.Set("feed.flush_interval", newConfig.Feed.FlushInterval)
	viper.Set("feed.snapshot_cooldown", newConfig.Feed.SnapshotCooldown)
	viper.Set("feed.reconnect_delay", newConfig.Feed.ReconnectDelay)
	viper.Set("feed.kline_interval", newConfig.Feed.KlineInterval)
	viper.Set("feed.kline_limit", newConfig.Feed.KlineLimit)

	viper.Set("assets.crypto", newConfig.Assets.Crypto)
	viper.Set("assets.quote", newConfig.Assets.Quote)
	viper.Set("assets.pairs", newConfig.Assets.Pairs)

	viper.Set("stats.enabled", newConfig.Stats.Enabled)
	viper.Set("stats.interval", newConfig.Stats.Interval)

	viper.Set("file_output.enabled", newConfig.FileConsumerOptions.Enabled)
	viper.Set("file_output.filename", newConfig.FileConsumerOptions.OutputFilename)

	viper.Set("mqtt.enabled", newConfig.MQTTConsumerOptions.Enabled)
	viper.Set("mqtt.qos_level", newConfig.MQTTConsumerOptions.QOSLevel)

	viper.Set("redis_ts.enabled", newConfig.RedisOptions.Enabled)
	viper.Set("redis_ts.ts.retention", newConfig.RedisOptions.TsOptions.Retention)
	viper.Set("redis_ts.ts.chunksize", newConfig.RedisOptions.TsOptions.ChunkSize)

	viper.Set("questdb.enabled", newConfig.QuestDBConsumerOptions.Enabled)
	viper.Set("questdb.flush_interval", newConfig.QuestDBConsumerOptions.FlushInterval)

	Config = newConfig

	if saveCurrentConfig {
		slog.Info("Saving new config")
		err := viper.WriteConfig()
		if err != nil {
			slog.Error("error saving new config to file", "error", err)
		}
	}
}
