package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config 全局配置
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Mailer   MailerConfig   `mapstructure:"mailer"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Sentry   SentryConfig   `mapstructure:"sentry"`
	Trace    TraceConfig    `mapstructure:"trace"`
	Log      LogConfig      `mapstructure:"log"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // debug / release
}

type DatabaseConfig struct {
	Driver          string `mapstructure:"driver"` // postgres / sqlite
	DSN             string `mapstructure:"dsn"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"` // 秒
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// MailerConfig 邮件外发队列配置
type MailerConfig struct {
	ServiceURL     string        `mapstructure:"service_url"`     // 通知服务地址
	CronSecret     string        `mapstructure:"cron_secret"`     // 定时任务端点共享密钥
	MaxRetries     int           `mapstructure:"max_retries"`     // 最大重试次数
	RetentionDays  int           `mapstructure:"retention_days"`  // 已发送记录保留天数
	SendTimeout    time.Duration `mapstructure:"send_timeout"`    // 单次投递超时
	RatePerSecond  float64       `mapstructure:"rate_per_second"` // 投递限速
	StaleThreshold time.Duration `mapstructure:"stale_threshold"` // processing 卡死回收阈值
	StatsCacheTTL  time.Duration `mapstructure:"stats_cache_ttl"`
}

type JWTConfig struct {
	Secret string `mapstructure:"secret"`
	Expire time.Duration `mapstructure:"expire"`
}

type SentryConfig struct {
	DSN string `mapstructure:"dsn"`
}

type TraceConfig struct {
	Endpoint string `mapstructure:"endpoint"` // OTLP HTTP endpoint，空则不启用
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

// Load 读取 config.yaml 并允许环境变量覆盖（CROAK_MAILER_CRON_SECRET 等）
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetEnvPrefix("CROAK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// 配置文件缺失时仅靠默认值 + 环境变量
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "release")
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "croak.db")
	v.SetDefault("database.max_open_conns", 50)
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.conn_max_lifetime", 300)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("mailer.service_url", "https://croak-notifications.vercel.app")
	v.SetDefault("mailer.max_retries", 3)
	v.SetDefault("mailer.retention_days", 30)
	v.SetDefault("mailer.send_timeout", 10*time.Second)
	v.SetDefault("mailer.rate_per_second", 2.0)
	v.SetDefault("mailer.stale_threshold", 15*time.Minute)
	v.SetDefault("mailer.stats_cache_ttl", 30*time.Second)
	v.SetDefault("jwt.expire", 24*time.Hour)
	v.SetDefault("log.level", "info")
}
