// config/config.go
package config

import (
	"log"
	"time"

	"github.com/spf13/viper"
)

// Configuration stores all the configurations
type Configuration struct {
	Server        ServerConfiguration
	Database      DatabaseConfiguration
	Redis         RedisConfiguration
	Elasticsearch ElasticsearchConfiguration
	NATS          NATSConfiguration
	Agent         AgentConfiguration
}

// ServerConfiguration stores the port and other web server settings
type ServerConfiguration struct {
	Port            string
	RateLimit       int
	RateLimitWindow string
}

// DatabaseConfiguration stores data for the Postgres connection
type DatabaseConfiguration struct {
	DSN          string
	MaxIdleConns int
	MaxOpenConns int
}

// RedisConfiguration stores data for Redis connection
type RedisConfiguration struct {
	Addr            string
	DefaultCacheTTL string
}

// ElasticsearchConfiguration stores data for Elasticsearch connection
type ElasticsearchConfiguration struct {
	URL string
}

// NATSConfiguration stores data for the notification stream connection.
// An empty URL disables NATS publishing; notifications are then log-only.
type NATSConfiguration struct {
	URL string
}

// AgentConfiguration stores process-wide defaults of the replenishment agent
type AgentConfiguration struct {
	UsageWindowDays  int
	BootstrapWorkers int
}

var config *Configuration

func InitConfig() error {
	viper.AddConfigPath("config")
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AutomaticEnv()

	viper.SetDefault("server.port", "8080")
	viper.SetDefault("server.rateLimit", 100)
	viper.SetDefault("server.rateLimitWindow", "1m")
	viper.SetDefault("database.dsn", "host=localhost user=resourcing password=resourcing dbname=resourcing port=5432 sslmode=disable")
	viper.SetDefault("database.maxIdleConns", 10)
	viper.SetDefault("database.maxOpenConns", 50)
	viper.SetDefault("redis.addr", "localhost:6379")
	viper.SetDefault("redis.defaultCacheTTL", "10m")
	viper.SetDefault("elasticsearch.url", "http://localhost:9200")
	viper.SetDefault("nats.url", "")
	viper.SetDefault("log.dir", "logging")
	viper.SetDefault("agent.usageWindowDays", 90)
	viper.SetDefault("agent.bootstrapWorkers", 8)

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Println("No config file found, using defaults and environment variables")
		} else {
			return err
		}
	}

	return viper.Unmarshal(&config)
}

// GetConfig returns the loaded configuration
func GetConfig() *Configuration {
	return config
}

// GetString retrieves a string value from the configuration
func GetString(key string) string {
	return viper.GetString(key)
}

// GetInt retrieves an integer value from the configuration
func GetInt(key string) int {
	return viper.GetInt(key)
}

// GetBool retrieves a boolean value from the configuration
func GetBool(key string) bool {
	return viper.GetBool(key)
}

// GetFloat64 retrieves a float64 value from the configuration
func GetFloat64(key string) float64 {
	return viper.GetFloat64(key)
}

// GetDuration retrieves a duration value from the configuration
func GetDuration(key string) time.Duration {
	return viper.GetDuration(key)
}
