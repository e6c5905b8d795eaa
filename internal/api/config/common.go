package config

// Config 配置主体
type Config struct {
	Server             ServerConfig      `mapstructure:"server"`
	DB                 DBConfig          `mapstructure:"database"`
	Redis              RedisConfig       `mapstructure:"redis"`
	Mongo              MongoConfig       `mapstructure:"mongo"`
	Kafka              KafkaConfig       `mapstructure:"kafka"`
	KafkaMessageEvents KafkaTopicConfig  `mapstructure:"kafka_message_events"`
	Logstash           LogstashConfig    `mapstructure:"logstash"`
	UserService        UserServiceConfig `mapstructure:"user_service"`
}

// ServerConfig Server配置
type ServerConfig struct {
	Port       int    `mapstructure:"port"`
	InstanceID string `mapstructure:"instance_id"`
}

// DBConfig 数据库配置
type DBConfig struct {
	DSN         string `mapstructure:"dsn"`
	MaxIdle     int    `mapstructure:"max_idle"`
	MaxOpen     int    `mapstructure:"max_open"`
	MaxLifetime int    `mapstructure:"max_lifetime"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

// MongoConfig Mongo配置
type MongoConfig struct {
	URL      string `mapstructure:"url"`
	Database string `mapstructure:"database"`
}

type KafkaConfig struct {
	Brokers  []string       `mapstructure:"brokers"`
	Sasl     SaslConfig     `mapstructure:"sasl"`
	Consumer ConsumerConfig `mapstructure:"consumer"`
}

type SaslConfig struct {
	Enable   bool   `mapstructure:"enable"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

type ConsumerConfig struct {
	SessionTimeout    int `mapstructure:"session_timeout"`
	HeartbeatInterval int `mapstructure:"heartbeat_interval"`
	RebalanceTimeout  int `mapstructure:"rebalance_timeout"`
	MaxProcessingTime int `mapstructure:"max_processing_time"`
}

// KafkaTopicConfig 单个消费主题配置
type KafkaTopicConfig struct {
	Topic   string `mapstructure:"topic"`
	GroupID string `mapstructure:"group_id"`
}

// LogstashConfig 日志远程上报配置
type LogstashConfig struct {
	Address string `mapstructure:"address"`
	Index   string `mapstructure:"index"`
	Token   string `mapstructure:"token"`
}

// UserServiceConfig 用户资料服务配置
type UserServiceConfig struct {
	BaseURL string `mapstructure:"base_url"`
	Timeout int    `mapstructure:"timeout"` // 秒
}
