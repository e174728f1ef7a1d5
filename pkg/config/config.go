package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix 環境變數前綴，例如 ROOM_MANAGER_DB_HOST
const EnvPrefix = "ROOM_MANAGER"

type Config struct {
	Server  ServerConfig
	DB      DBConfig
	Storage StorageConfig
	Redis   RedisConfig
	JWT     JWTConfig
	Log     LogConfig
	Rooms   RoomsConfig
	CORS    CORSConfig
}

type ServerConfig struct {
	Address         string
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type DBConfig struct {
	Host         string
	User         string
	Password     string
	Name         string
	Port         int
	SSLMode      string `mapstructure:"sslmode"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
}

// StorageConfig 選擇資料儲存後端：postgres 或 memory
type StorageConfig struct {
	Driver string
}

type RedisConfig struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int
	Channel  string
}

type JWTConfig struct {
	Secret string
	TTL    time.Duration
}

type LogConfig struct {
	Level  string
	Format string
}

type RoomsConfig struct {
	MaxCodeAttempts int `mapstructure:"max_code_attempts"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.user", "postgres")
	v.SetDefault("db.password", "postgres")
	v.SetDefault("db.name", "room_manager")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.max_open_conns", 25)
	v.SetDefault("db.max_idle_conns", 5)

	v.SetDefault("storage.driver", "memory")

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.channel", "room_manager:events")

	v.SetDefault("jwt.secret", "change-me")
	v.SetDefault("jwt.ttl", 240*time.Hour)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("rooms.max_code_attempts", 300)

	v.SetDefault("cors.allowed_origins", []string{"http://localhost:3000"})
}

// Load 載入應用程式配置
//
// 優先順序：環境變數 > config.yaml > 預設值。
// .env 檔案（若存在）會先被載入到環境變數中。
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./pkg/config")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Validate 檢查配置值是否合理
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case "postgres", "memory":
	default:
		return fmt.Errorf("config: unknown storage driver %q", c.Storage.Driver)
	}
	if c.Rooms.MaxCodeAttempts <= 0 {
		return fmt.Errorf("config: rooms.max_code_attempts must be positive, got %d", c.Rooms.MaxCodeAttempts)
	}
	if c.JWT.Secret == "" {
		return errors.New("config: jwt.secret must not be empty")
	}
	return nil
}
