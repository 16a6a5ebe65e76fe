package config

import "time"

const (
	StoreDriverMongo  = "mongo"
	StoreDriverMemory = "memory"

	EventsDriverNone  = "none"
	EventsDriverNats  = "nats"
	EventsDriverKafka = "kafka"
)

type AppConfig struct {
	Server ServerConfig `mapstructure:"server"`
	Log    LogConfig    `mapstructure:"log"`
	WS     WSConfig     `mapstructure:"ws"`
	Store  StoreConfig  `mapstructure:"store"`
	Mongo  MongoConfig  `mapstructure:"mongo"`
	Redis  RedisConfig  `mapstructure:"redis"`
	Events EventsConfig `mapstructure:"events"`
	Nats   NatsConfig   `mapstructure:"nats"`
	Kafka  KafkaConfig  `mapstructure:"kafka"`
	Auth   AuthConfig   `mapstructure:"auth"`
	RTC    RTCConfig    `mapstructure:"rtc"`
}

type ServerConfig struct {
	NodeID          string        `mapstructure:"node_id"`    // 节点ID，写入 presence 与事件头
	SnowflakeNode   int64         `mapstructure:"snowflake"`  // 0~1023
	HTTPAddr        string        `mapstructure:"http_addr"`  // gin 监听地址
	GRPCAddr        string        `mapstructure:"grpc_addr"`  // 健康检查，为空则不启动
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type LogConfig struct {
	Level      string `mapstructure:"level"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

type WSConfig struct {
	SendBuffer     int           `mapstructure:"send_buffer"`
	ReadLimit      int64         `mapstructure:"read_limit"`
	PongWait       time.Duration `mapstructure:"pong_wait"`
	PingPeriod     time.Duration `mapstructure:"ping_period"`
	WriteWait      time.Duration `mapstructure:"write_wait"`
	AllowedOrigins []string      `mapstructure:"allowed_origins"` // 为空时放行所有来源
}

type StoreConfig struct {
	Driver    string        `mapstructure:"driver"`
	OpTimeout time.Duration `mapstructure:"op_timeout"`
}

type MongoConfig struct {
	URI         string        `mapstructure:"uri"`
	Database    string        `mapstructure:"database"`
	Username    string        `mapstructure:"username"`
	Password    string        `mapstructure:"password"`
	AuthSource  string        `mapstructure:"auth_source"`
	MaxPoolSize uint64        `mapstructure:"max_pool_size"`
	MaxRetry    int           `mapstructure:"max_retry"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

type RedisConfig struct {
	Addr        string        `mapstructure:"addr"` // 为空则关闭 presence 镜像
	Password    string        `mapstructure:"password"`
	DB          int           `mapstructure:"db"`
	PoolSize    int           `mapstructure:"pool_size"`
	PresenceTTL time.Duration `mapstructure:"presence_ttl"`
}

type EventsConfig struct {
	Driver string `mapstructure:"driver"`
	Prefix string `mapstructure:"prefix"` // subject/topic 前缀
}

type NatsConfig struct {
	Servers  []string      `mapstructure:"servers"`
	Name     string        `mapstructure:"name"`
	User     string        `mapstructure:"user"`
	Password string        `mapstructure:"password"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

type KafkaConfig struct {
	Brokers     []string `mapstructure:"brokers"`
	Version     string   `mapstructure:"version"`
	Retries     int      `mapstructure:"retries"`
	Compression string   `mapstructure:"compression"`
}

type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"` // 为空时不校验连接令牌
	JWTAlg    string `mapstructure:"jwt_alg"`
}

type RTCConfig struct {
	AppID          string        `mapstructure:"app_id"`
	AppCertificate string        `mapstructure:"app_certificate"`
	TokenTTL       time.Duration `mapstructure:"token_ttl"`
}
