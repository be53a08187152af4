package config

import (
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig
	MongoDB   MongoDBConfig
	JWT       JWTConfig
	Lottery   LotteryConfig
	Scheduler SchedulerConfig
	Notifier  NotifierConfig
	LogLevel  string
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Port         string
	AllowedHosts []string
}

// MongoDBConfig holds MongoDB-specific configuration
type MongoDBConfig struct {
	URI      string
	Database string
}

// JWTConfig holds JWT-specific configuration
type JWTConfig struct {
	Secret string
}

// LotteryConfig holds the lottery feature configuration
type LotteryConfig struct {
	// Enabled switches the whole lottery feature on or off.
	Enabled bool
	// CategoryID is the thread category designated for lottery threads.
	CategoryID string
	// RetentionWindow is how long donor contact data is kept after a
	// merchandise packet ships.
	RetentionWindow time.Duration
}

// SchedulerConfig holds the timer cadences for background work
type SchedulerConfig struct {
	// TickInterval is how often overdue lotteries are scanned for.
	TickInterval time.Duration
	// SweepInterval is how often the retention sweeper runs.
	SweepInterval time.Duration
	// ReminderInterval is how often failed reminder notifications are retried.
	ReminderInterval time.Duration
}

// NotifierConfig holds notification transport configuration
type NotifierConfig struct {
	EmailBaseURL string
	EmailAPIKey  string
	MockEmail    bool
	InAppBaseURL string
	MockInApp    bool
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		// A missing config file is fine, environment variables take over.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// setDefaults sets default values for configuration
func setDefaults() {
	viper.SetDefault("Server.Port", "4000")
	viper.SetDefault("Server.AllowedHosts", []string{"localhost:3000"})
	viper.SetDefault("MongoDB.URI", "mongodb://localhost:27017")
	viper.SetDefault("MongoDB.Database", "commboard-lottery")
	viper.SetDefault("Lottery.Enabled", true)
	viper.SetDefault("Lottery.CategoryID", "")
	viper.SetDefault("Lottery.RetentionWindow", 4*7*24*time.Hour)
	viper.SetDefault("Scheduler.TickInterval", 5*time.Minute)
	viper.SetDefault("Scheduler.SweepInterval", 24*time.Hour)
	viper.SetDefault("Scheduler.ReminderInterval", 12*time.Hour)
	viper.SetDefault("Notifier.MockEmail", true)
	viper.SetDefault("Notifier.MockInApp", true)
	viper.SetDefault("LogLevel", "info")
}
