package config

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

type HTTP struct {
	Host              string
	Port              int
	ReadTimeoutSec    int   `mapstructure:"read_timeout_sec"`
	WriteTimeoutSec   int   `mapstructure:"write_timeout_sec"`
	IdleTimeoutSec    int   `mapstructure:"idle_timeout_sec"`
	MaxBodyBytes      int64 `mapstructure:"max_body_bytes"`
	MaxInFlight       int64 `mapstructure:"max_in_flight"`
	RequestTimeoutSec int   `mapstructure:"request_timeout_sec"`
}

type App struct {
	Name     string
	Env      string
	Timezone string // 日期类字段（活动日期、下一步行动）按此时区解释
	HTTP     HTTP
}

type FileRotate struct {
	Enable     bool
	Filename   string
	MaxSizeMB  int `mapstructure:"max_size_mb"`
	MaxBackups int `mapstructure:"max_backups"`
	MaxAgeDays int `mapstructure:"max_age_days"`
	Compress   bool
}

type Log struct {
	Level string
	JSON  bool
	File  FileRotate
}

type CORS struct {
	AllowOrigins []string `mapstructure:"allow_origins"`
}

type Session struct {
	CookieName         string `mapstructure:"cookie_name"`
	Secret             string
	Issuer             string
	TTLHours           int  `mapstructure:"ttl_hours"`
	Secure             bool // true: Secure + SameSite=None
	Domain             string
	CleanupIntervalMin int `mapstructure:"cleanup_interval_min"`
	CacheTTLSec        int `mapstructure:"cache_ttl_sec"`
}

type Redis struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type DB struct {
	Driver             string
	DSN                string
	Username           string
	Password           string
	MaxOpenConns       int    `mapstructure:"max_open_conns"`
	MaxIdleConns       int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetimeMin int    `mapstructure:"conn_max_lifetime_min"`
	AutoMigrate        bool   `mapstructure:"auto_migrate"`
	LogLevel           string `mapstructure:"log_level"`
}

type Security struct {
	BcryptCost int `mapstructure:"bcrypt_cost"`
}

// Bootstrap users 表为空时创建的初始管理员
type Bootstrap struct {
	Enable   bool
	Username string
	Password string
	Name     string
	Email    string
}

type Config struct {
	App       App
	CORS      CORS `mapstructure:"cors"`
	Log       Log
	DB        DB
	Redis     Redis `mapstructure:"redis"`
	Session   Session
	Security  Security
	Bootstrap Bootstrap
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "crm-api")
	v.SetDefault("app.env", "local")
	v.SetDefault("app.timezone", "Asia/Tokyo")
	v.SetDefault("app.http.host", "0.0.0.0")
	v.SetDefault("app.http.port", 3001)
	v.SetDefault("app.http.read_timeout_sec", 10)
	v.SetDefault("app.http.write_timeout_sec", 15)
	v.SetDefault("app.http.idle_timeout_sec", 60)
	v.SetDefault("app.http.max_body_bytes", 1<<20)
	v.SetDefault("app.http.max_in_flight", 256)
	v.SetDefault("app.http.request_timeout_sec", 10)

	v.SetDefault("cors.allow_origins", []string{"http://localhost:3000"})

	v.SetDefault("log.level", "info")
	v.SetDefault("log.json", false)
	v.SetDefault("log.file.filename", "logs/app.log")
	v.SetDefault("log.file.max_size_mb", 100)
	v.SetDefault("log.file.max_backups", 7)
	v.SetDefault("log.file.max_age_days", 30)

	v.SetDefault("db.driver", "postgres")
	v.SetDefault("db.dsn", "")
	v.SetDefault("db.username", "")
	v.SetDefault("db.password", "")
	v.SetDefault("db.auto_migrate", false)
	v.SetDefault("db.max_open_conns", 50)
	v.SetDefault("db.max_idle_conns", 10)
	v.SetDefault("db.conn_max_lifetime_min", 30)
	v.SetDefault("db.log_level", "warn")

	// 空默认值让 APP_* 环境变量参与 Unmarshal
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("session.cookie_name", "crm_session")
	v.SetDefault("session.secret", "")
	v.SetDefault("session.secure", false)
	v.SetDefault("session.domain", "")
	v.SetDefault("session.issuer", "crm")
	v.SetDefault("session.ttl_hours", 24)
	v.SetDefault("session.cleanup_interval_min", 15)
	v.SetDefault("session.cache_ttl_sec", 60)

	v.SetDefault("security.bcrypt_cost", 10)

	v.SetDefault("bootstrap.enable", true)
	v.SetDefault("bootstrap.username", "admin")
	v.SetDefault("bootstrap.password", "admin123")
	v.SetDefault("bootstrap.name", "管理者")
	v.SetDefault("bootstrap.email", "")
}

// Source 持有 viper 实例，支持热更新回调
type Source struct {
	v  *viper.Viper
	mu sync.Mutex
}

func Open(path string) (*Source, error) {
	v := viper.New()
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
		if path == "" {
			path = "./configs/config.local.yaml"
		}
	}
	setDefaults(v)
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// 没有配置文件时只用默认值 + 环境变量
		if !os.IsNotExist(err) {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("read config %s: %w", path, err)
			}
		}
	}
	return &Source{v: v}, nil
}

func (s *Source) Config() (*Config, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var c Config
	if err := s.v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// OnChange 配置文件变更后回调最新配置；解析失败的版本被忽略
func (s *Source) OnChange(fn func(*Config, fsnotify.Event)) {
	s.v.OnConfigChange(func(e fsnotify.Event) {
		c, err := s.Config()
		if err != nil {
			return
		}
		fn(c, e)
	})
	s.v.WatchConfig()
}

func Load(path string) (*Config, error) {
	s, err := Open(path)
	if err != nil {
		return nil, err
	}
	return s.Config()
}

func (c *Config) Validate() error {
	switch c.DB.Driver {
	case "postgres", "mysql":
	default:
		return fmt.Errorf("config: unsupported db.driver %q", c.DB.Driver)
	}
	if c.Session.TTLHours <= 0 {
		return fmt.Errorf("config: session.ttl_hours must be positive")
	}
	if c.Session.Secret == "" && c.App.Env != "local" && c.App.Env != "test" {
		return fmt.Errorf("config: session.secret is required outside local env")
	}
	return nil
}
