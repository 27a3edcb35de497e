package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/roomcast/server/internal/app"
)

type configVar[T any] struct {
	envKey       string
	flagKey      string
	defaultValue T
}

var (
	secret = configVar[string]{
		envKey:       "SERVER_SECRET",
		flagKey:      "secret",
		defaultValue: "",
	}
	port = configVar[int]{
		envKey:       "SERVER_PORT",
		flagKey:      "port",
		defaultValue: 80,
	}
	host = configVar[string]{
		envKey:       "SERVER_HOST",
		flagKey:      "host",
		defaultValue: "0.0.0.0",
	}
	logLevel = configVar[string]{
		envKey:       "SERVER_LOG_LEVEL",
		flagKey:      "log-level",
		defaultValue: "INFO",
	}
	membersLimit = configVar[int]{
		envKey:       "SERVER_MEMBERS_LIMIT",
		flagKey:      "members-limit",
		defaultValue: 9,
	}
	queueLimit = configVar[int]{
		envKey:       "SERVER_QUEUE_LIMIT",
		flagKey:      "queue-limit",
		defaultValue: 25,
	}
	redisPort = configVar[int]{
		envKey:       "REDIS_PORT",
		flagKey:      "redis-port",
		defaultValue: 6379,
	}
	redisHost = configVar[string]{
		envKey:       "REDIS_HOST",
		flagKey:      "redis-host",
		defaultValue: "localhost",
	}
	redisPassword = configVar[string]{
		envKey:       "REDIS_PASSWORD",
		flagKey:      "redis-password",
		defaultValue: "",
	}
	syncInterval = configVar[int]{
		envKey:       "SERVER_SYNC_INTERVAL_SECONDS",
		flagKey:      "sync-interval-seconds",
		defaultValue: 10,
	}
	syncTolerance = configVar[float64]{
		envKey:       "SERVER_SYNC_TOLERANCE",
		flagKey:      "sync-tolerance",
		defaultValue: 4,
	}
	initialSyncTolerance = configVar[float64]{
		envKey:       "SERVER_INITIAL_SYNC_TOLERANCE",
		flagKey:      "initial-sync-tolerance",
		defaultValue: 2,
	}
	initialSyncDelay = configVar[int]{
		envKey:       "SERVER_INITIAL_SYNC_DELAY_MS",
		flagKey:      "initial-sync-delay-ms",
		defaultValue: 1000,
	}
)

func loadAppConfig() *app.AppConfig {
	pflag.String(secret.flagKey, secret.defaultValue, "Identity token secret")
	pflag.Int(port.flagKey, port.defaultValue, "Server port")
	pflag.String(host.flagKey, host.defaultValue, "Server host")
	pflag.String(logLevel.flagKey, logLevel.defaultValue, "Logging level")
	pflag.Int(membersLimit.flagKey, membersLimit.defaultValue, "Maximum number of participants in a room")
	pflag.Int(queueLimit.flagKey, queueLimit.defaultValue, "Maximum number of entries in the queue")
	pflag.Int(redisPort.flagKey, redisPort.defaultValue, "Redis port")
	pflag.String(redisHost.flagKey, redisHost.defaultValue, "Redis host")
	pflag.String(redisPassword.flagKey, redisPassword.defaultValue, "Redis password")
	pflag.Int(syncInterval.flagKey, syncInterval.defaultValue, "Drift correction period in seconds")
	pflag.Float64(syncTolerance.flagKey, syncTolerance.defaultValue, "Drift tolerance in seconds for periodic corrections")
	pflag.Float64(initialSyncTolerance.flagKey, initialSyncTolerance.defaultValue, "Drift tolerance in seconds for the join-time correction")
	pflag.Int(initialSyncDelay.flagKey, initialSyncDelay.defaultValue, "Delay in milliseconds before the join-time correction")
	pflag.Parse()

	viper.BindPFlags(pflag.CommandLine)

	viper.BindEnv(secret.flagKey, secret.envKey)
	viper.BindEnv(port.flagKey, port.envKey)
	viper.BindEnv(host.flagKey, host.envKey)
	viper.BindEnv(logLevel.flagKey, logLevel.envKey)
	viper.BindEnv(membersLimit.flagKey, membersLimit.envKey)
	viper.BindEnv(queueLimit.flagKey, queueLimit.envKey)
	viper.BindEnv(redisPort.flagKey, redisPort.envKey)
	viper.BindEnv(redisHost.flagKey, redisHost.envKey)
	viper.BindEnv(redisPassword.flagKey, redisPassword.envKey)
	viper.BindEnv(syncInterval.flagKey, syncInterval.envKey)
	viper.BindEnv(syncTolerance.flagKey, syncTolerance.envKey)
	viper.BindEnv(initialSyncTolerance.flagKey, initialSyncTolerance.envKey)
	viper.BindEnv(initialSyncDelay.flagKey, initialSyncDelay.envKey)

	viper.SetDefault(secret.flagKey, secret.defaultValue)
	viper.SetDefault(port.flagKey, port.defaultValue)
	viper.SetDefault(host.flagKey, host.defaultValue)
	viper.SetDefault(logLevel.flagKey, logLevel.defaultValue)
	viper.SetDefault(membersLimit.flagKey, membersLimit.defaultValue)
	viper.SetDefault(queueLimit.flagKey, queueLimit.defaultValue)
	viper.SetDefault(redisPort.flagKey, redisPort.defaultValue)
	viper.SetDefault(redisHost.flagKey, redisHost.defaultValue)
	viper.SetDefault(redisPassword.flagKey, redisPassword.defaultValue)
	viper.SetDefault(syncInterval.flagKey, syncInterval.defaultValue)
	viper.SetDefault(syncTolerance.flagKey, syncTolerance.defaultValue)
	viper.SetDefault(initialSyncTolerance.flagKey, initialSyncTolerance.defaultValue)
	viper.SetDefault(initialSyncDelay.flagKey, initialSyncDelay.defaultValue)

	config := &app.AppConfig{
		Secret:               viper.GetString(secret.flagKey),
		Host:                 viper.GetString(host.flagKey),
		Port:                 viper.GetInt(port.flagKey),
		LogLevel:             viper.GetString(logLevel.flagKey),
		MembersLimit:         viper.GetInt(membersLimit.flagKey),
		QueueLimit:           viper.GetInt(queueLimit.flagKey),
		RedisHost:            viper.GetString(redisHost.flagKey),
		RedisPort:            viper.GetInt(redisPort.flagKey),
		RedisPassword:        viper.GetString(redisPassword.flagKey),
		SyncIntervalSeconds:  viper.GetInt(syncInterval.flagKey),
		SyncTolerance:        viper.GetFloat64(syncTolerance.flagKey),
		InitialSyncTolerance: viper.GetFloat64(initialSyncTolerance.flagKey),
		InitialSyncDelayMs:   viper.GetInt(initialSyncDelay.flagKey),
	}

	return config
}

func main() {
	ctx := context.Background()

	appConfig := loadAppConfig()

	jsonConfig, _ := json.MarshalIndent(appConfig, "", "  ")
	fmt.Printf("starting app with config: %s\n", jsonConfig)

	log.Fatal(app.Run(ctx, appConfig))
}
