package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const EnvPrefix = "PPHUB"

var defaults = map[string]any{
	"server.node_id":          "hub-1",
	"server.snowflake":        1,
	"server.http_addr":        ":8080",
	"server.grpc_addr":        ":50052",
	"server.shutdown_timeout": 10 * time.Second,

	"log.level":        "info",
	"log.max_size_mb":  100,
	"log.max_backups":  10,
	"log.max_age_days": 30,
	"log.file":         "",
	"log.compress":     false,

	"ws.send_buffer":     256,
	"ws.read_limit":      1 << 20,
	"ws.pong_wait":       60 * time.Second,
	"ws.ping_period":     54 * time.Second,
	"ws.write_wait":      10 * time.Second,
	"ws.allowed_origins": []string{},

	"store.driver":     StoreDriverMongo,
	"store.op_timeout": 5 * time.Second,

	"mongo.uri":           "mongodb://localhost:27017",
	"mongo.database":      "pphub",
	"mongo.max_pool_size": 20,
	"mongo.max_retry":     3,
	"mongo.timeout":       10 * time.Second,
	"mongo.username":      "",
	"mongo.password":      "",
	"mongo.auth_source":   "",

	"redis.presence_ttl": 2 * time.Minute,
	"redis.pool_size":    10,
	"redis.addr":         "",
	"redis.password":     "",
	"redis.db":           0,

	"events.driver": EventsDriverNone,
	"events.prefix": "pphub",

	"nats.servers":  []string{"nats://127.0.0.1:4222"},
	"nats.name":     "pphub",
	"nats.timeout":  3 * time.Second,
	"nats.user":     "",
	"nats.password": "",

	"kafka.brokers":     []string{"127.0.0.1:9092"},
	"kafka.version":     "2.8.0",
	"kafka.retries":     3,
	"kafka.compression": "none",

	"auth.jwt_alg":    "HS256",
	"auth.jwt_secret": "", // 空值也需注册，否则 AutomaticEnv 不参与 Unmarshal

	"rtc.token_ttl":       24 * time.Hour,
	"rtc.app_id":          "",
	"rtc.app_certificate": "",
}

// Load reads the optional config file at path, overlays PPHUB_* environment
// variables and applies defaults for every key.
func Load(path string) (*AppConfig, error) {
	v := viper.New()
	for k, d := range defaults {
		v.SetDefault(k, d)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg AppConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *AppConfig) Validate() error {
	switch c.Store.Driver {
	case StoreDriverMongo, StoreDriverMemory:
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}
	switch c.Events.Driver {
	case EventsDriverNone, EventsDriverNats, EventsDriverKafka:
	default:
		return fmt.Errorf("unknown events driver %q", c.Events.Driver)
	}
	if c.WS.PingPeriod >= c.WS.PongWait {
		return errors.New("ws.ping_period must be shorter than ws.pong_wait")
	}
	if c.WS.SendBuffer <= 0 {
		return errors.New("ws.send_buffer must be positive")
	}
	return nil
}
