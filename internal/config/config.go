package config

import (
	"time"

	"github.com/spf13/viper"
)

type AppConfig struct {
	Env       string `mapstructure:"env"`
	Port      int    `mapstructure:"port"`
	JWTSecret string `mapstructure:"jwt_secret"`
}

type MongoConfig struct {
	URI                string `mapstructure:"uri"`
	Database           string `mapstructure:"database"`
	MessagesCollection string `mapstructure:"messages_collection"`
	UsersCollection    string `mapstructure:"users_collection"`
	ChannelsCollection string `mapstructure:"channels_collection"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

type KafkaConfig struct {
	Brokers          []string `mapstructure:"brokers"`
	TopicMessageSent string   `mapstructure:"topic_message_sent"`
}

type StorageConfig struct {
	// Driver selects the blob backend: "disk" or "s3". Same switch for the
	// durable store: "mongo" or "memory".
	Driver     string `mapstructure:"driver"`
	LocalDir   string `mapstructure:"local_dir"`
	S3Region   string `mapstructure:"s3_region"`
	S3Bucket   string `mapstructure:"s3_bucket"`
	PresignTTL int    `mapstructure:"presign_ttl_seconds"`
}

type StoreConfig struct {
	Driver string `mapstructure:"driver"`
}

type RateLimitConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	Limit         int  `mapstructure:"limit"`
	WindowSeconds int  `mapstructure:"window_seconds"`
}

type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Mongo     MongoConfig     `mapstructure:"mongodb"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Kafka     KafkaConfig     `mapstructure:"kafka"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Store     StoreConfig     `mapstructure:"store"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`

	// Derived
	RequestTimeout time.Duration
	PresignTTL     time.Duration
}

func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.AutomaticEnv()
	v.SetEnvPrefix("APP")
	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, err
	}
	applyDefaults(&c)
	return &c, nil
}

func applyDefaults(c *Config) {
	if c.App.Port == 0 {
		c.App.Port = 8081
	}
	if c.Mongo.MessagesCollection == "" {
		c.Mongo.MessagesCollection = "messages"
	}
	if c.Mongo.UsersCollection == "" {
		c.Mongo.UsersCollection = "users"
	}
	if c.Mongo.ChannelsCollection == "" {
		c.Mongo.ChannelsCollection = "channels"
	}
	if c.Kafka.TopicMessageSent == "" {
		c.Kafka.TopicMessageSent = "message.sent"
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = "disk"
	}
	if c.Storage.LocalDir == "" {
		c.Storage.LocalDir = "uploads/files"
	}
	if c.Storage.PresignTTL == 0 {
		c.Storage.PresignTTL = 900
	}
	if c.Store.Driver == "" {
		c.Store.Driver = "mongo"
	}
	if c.RateLimit.Limit == 0 {
		c.RateLimit.Limit = 100
	}
	if c.RateLimit.WindowSeconds == 0 {
		c.RateLimit.WindowSeconds = 60
	}
	if c.Redis.Prefix == "" {
		c.Redis.Prefix = "chat"
	}
	c.RequestTimeout = 10 * time.Second
	c.PresignTTL = time.Duration(c.Storage.PresignTTL) * time.Second
}
