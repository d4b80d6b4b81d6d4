package config

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/cafe-next/internal/logger"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config 应用配置结构
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Log      LogConfig      `mapstructure:"log"`
	Database DatabaseConfig `mapstructure:"database"`
	UserJWT  JWTConfig      `mapstructure:"user_jwt"`
	AdminJWT JWTConfig      `mapstructure:"admin_jwt"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Queue    QueueConfig    `mapstructure:"queue"`
	CORS     CORSConfig     `mapstructure:"cors"`
	Security SecurityConfig `mapstructure:"security"`
	Order    OrderConfig    `mapstructure:"order"`
	Voucher  VoucherConfig  `mapstructure:"voucher"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // debug / release

	ReadTimeoutSeconds     int `mapstructure:"read_timeout_seconds"`
	WriteTimeoutSeconds    int `mapstructure:"write_timeout_seconds"`
	ShutdownTimeoutSeconds int `mapstructure:"shutdown_timeout_seconds"`
}

// LogConfig 日志配置
type LogConfig struct {
	Dir        string `mapstructure:"dir"`
	Filename   string `mapstructure:"filename"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
	Level      string `mapstructure:"level"`   // 覆盖运行模式的日志级别
	Stdout     bool   `mapstructure:"stdout"`  // release 模式同时输出到 stdout
	Service    string `mapstructure:"service"` // 日志 service 字段
}

// ToLoggerOptions 转换为 logger 配置
func (c LogConfig) ToLoggerOptions() logger.Options {
	return logger.Options{
		Dir:        c.Dir,
		Filename:   c.Filename,
		MaxSizeMB:  c.MaxSizeMB,
		MaxBackups: c.MaxBackups,
		MaxAgeDays: c.MaxAgeDays,
		Compress:   c.Compress,
		Level:      c.Level,
		Stdout:     c.Stdout,
		Service:    c.Service,
	}
}

// DatabasePoolConfig 数据库连接池配置
type DatabasePoolConfig struct {
	MaxOpenConns           int `mapstructure:"max_open_conns"`
	MaxIdleConns           int `mapstructure:"max_idle_conns"`
	ConnMaxLifetimeSeconds int `mapstructure:"conn_max_lifetime_seconds"`
	ConnMaxIdleTimeSeconds int `mapstructure:"conn_max_idle_time_seconds"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Driver   string             `mapstructure:"driver"`    // 数据库驱动（sqlite/postgres/mysql）
	DSN      string             `mapstructure:"dsn"`       // 数据库连接串
	LogLevel string             `mapstructure:"log_level"` // SQL 日志级别（silent/error/warn/info）
	Pool     DatabasePoolConfig `mapstructure:"pool"`
}

// JWTConfig JWT 校验配置（令牌由外部身份服务签发）
type JWTConfig struct {
	SecretKey string `mapstructure:"secret"`
	Issuer    string `mapstructure:"issuer"`
}

// RedisConfig Redis 配置
type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

// Addr 返回 host:port，缺省 127.0.0.1:6379
func (c RedisConfig) Addr() string {
	return redisAddr(c.Host, c.Port)
}

// QueueConfig 异步队列配置
type QueueConfig struct {
	Enabled     bool           `mapstructure:"enabled"`
	Host        string         `mapstructure:"host"`
	Port        int            `mapstructure:"port"`
	Password    string         `mapstructure:"password"`
	DB          int            `mapstructure:"db"`
	Concurrency int            `mapstructure:"concurrency"`
	Queues      map[string]int `mapstructure:"queues"`
}

// Addr 返回队列 Redis 的 host:port
func (c QueueConfig) Addr() string {
	return redisAddr(c.Host, c.Port)
}

func redisAddr(host string, port int) string {
	host = strings.TrimSpace(host)
	if host == "" {
		host = "127.0.0.1"
	}
	if port <= 0 {
		port = 6379
	}
	return net.JoinHostPort(host, strconv.Itoa(port))
}

// CORSConfig 跨域配置
type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age"`
}

// SecurityConfig 安全配置
type SecurityConfig struct {
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
}

// RateLimitConfig 接口限流配置
type RateLimitConfig struct {
	Checkout       RateLimitRuleConfig `mapstructure:"checkout"`
	VoucherPreview RateLimitRuleConfig `mapstructure:"voucher_preview"`
}

// RateLimitRuleConfig 单条限流规则
type RateLimitRuleConfig struct {
	WindowSeconds int `mapstructure:"window_seconds"`
	MaxRequests   int `mapstructure:"max_requests"`
	BlockSeconds  int `mapstructure:"block_seconds"`
}

// OrderConfig 订单配置
type OrderConfig struct {
	ShippingFee   string `mapstructure:"shipping_fee"`   // 固定配送费
	CodePrefix    string `mapstructure:"code_prefix"`    // 订单编号前缀
	SnowflakeNode int64  `mapstructure:"snowflake_node"` // 订单编号生成节点号（0-1023）
}

// ShippingFeeDecimal 解析配送费，非法值回落为 0
func (c OrderConfig) ShippingFeeDecimal() decimal.Decimal {
	fee, err := decimal.NewFromString(strings.TrimSpace(c.ShippingFee))
	if err != nil || fee.IsNegative() {
		return decimal.Zero
	}
	return fee.Round(2)
}

// VoucherConfig 优惠券配置
type VoucherConfig struct {
	SweepCron        string `mapstructure:"sweep_cron"`         // 有效期巡检 cron 表达式（含秒）
	SweepLockSeconds int    `mapstructure:"sweep_lock_seconds"` // 巡检分布式锁有效期
}

// EnvPrefix 环境变量前缀，例如 CAFE_SERVER_PORT 覆盖 server.port
const EnvPrefix = "CAFE"

// Load 加载配置：path 非空时必须存在，否则按默认目录查找 config.yml，找不到时使用环境变量与默认值
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path = strings.TrimSpace(path); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		for _, dir := range []string{".", "./etc", "../"} {
			v.AddConfigPath(dir)
		}
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
			logger.Warnw("config_file_not_found", "fallback", "env_or_defaults")
		}
	}
	if used := v.ConfigFileUsed(); used != "" {
		logger.Infow("config_file_loaded", "file", used)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate 校验启动必需的配置项
func (c *Config) Validate() error {
	var errs []error
	switch strings.ToLower(strings.TrimSpace(c.Database.Driver)) {
	case "sqlite", "postgres", "postgresql", "mysql", "mariadb":
	default:
		errs = append(errs, fmt.Errorf("database.driver %q is not supported", c.Database.Driver))
	}
	if strings.TrimSpace(c.Database.DSN) == "" {
		errs = append(errs, errors.New("database.dsn is required"))
	}
	if strings.TrimSpace(c.Server.Port) == "" {
		errs = append(errs, errors.New("server.port is required"))
	}
	if c.Order.SnowflakeNode < 0 || c.Order.SnowflakeNode > 1023 {
		errs = append(errs, fmt.Errorf("order.snowflake_node %d out of range 0-1023", c.Order.SnowflakeNode))
	}
	if strings.TrimSpace(c.Order.ShippingFee) != "" {
		if _, err := decimal.NewFromString(strings.TrimSpace(c.Order.ShippingFee)); err != nil {
			errs = append(errs, fmt.Errorf("order.shipping_fee %q is not a decimal", c.Order.ShippingFee))
		}
	}
	return errors.Join(errs...)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.read_timeout_seconds", 15)
	v.SetDefault("server.write_timeout_seconds", 30)
	v.SetDefault("server.shutdown_timeout_seconds", 10)
	v.SetDefault("log.dir", "")
	v.SetDefault("log.filename", "cafe.log")
	v.SetDefault("log.max_size_mb", 100)
	v.SetDefault("log.max_backups", 7)
	v.SetDefault("log.max_age_days", 30)
	v.SetDefault("log.compress", true)
	v.SetDefault("log.level", "")
	v.SetDefault("log.stdout", false)
	v.SetDefault("log.service", "cafe-next")
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "./db/cafe.db")
	v.SetDefault("database.log_level", "warn")
	v.SetDefault("database.pool.max_open_conns", 1)
	v.SetDefault("database.pool.max_idle_conns", 1)
	v.SetDefault("database.pool.conn_max_lifetime_seconds", 0)
	v.SetDefault("database.pool.conn_max_idle_time_seconds", 0)
	v.SetDefault("user_jwt.secret", "user-change-me-in-production")
	v.SetDefault("user_jwt.issuer", "")
	v.SetDefault("admin_jwt.secret", "admin-change-me-in-production")
	v.SetDefault("admin_jwt.issuer", "")
	v.SetDefault("redis.enabled", true)
	v.SetDefault("redis.host", "127.0.0.1")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.prefix", "cafe")
	v.SetDefault("queue.enabled", true)
	v.SetDefault("queue.host", "127.0.0.1")
	v.SetDefault("queue.port", 6379)
	v.SetDefault("queue.password", "")
	v.SetDefault("queue.db", 1)
	v.SetDefault("queue.concurrency", 10)
	v.SetDefault("queue.queues", map[string]int{
		"default":  10,
		"critical": 5,
	})
	v.SetDefault("cors.allowed_origins", []string{"*"})
	v.SetDefault("cors.allowed_methods", []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"})
	v.SetDefault("cors.allowed_headers", []string{
		"Content-Type",
		"Content-Length",
		"Accept-Encoding",
		"Authorization",
		"Cache-Control",
		"X-Requested-With",
	})
	v.SetDefault("cors.allow_credentials", true)
	v.SetDefault("cors.max_age", 600)
	v.SetDefault("security.rate_limit.checkout.window_seconds", 60)
	v.SetDefault("security.rate_limit.checkout.max_requests", 10)
	v.SetDefault("security.rate_limit.checkout.block_seconds", 120)
	v.SetDefault("security.rate_limit.voucher_preview.window_seconds", 60)
	v.SetDefault("security.rate_limit.voucher_preview.max_requests", 30)
	v.SetDefault("security.rate_limit.voucher_preview.block_seconds", 60)
	v.SetDefault("order.shipping_fee", "0")
	v.SetDefault("order.code_prefix", "CF")
	v.SetDefault("order.snowflake_node", 1)
	v.SetDefault("voucher.sweep_cron", "0 */5 * * * *")
	v.SetDefault("voucher.sweep_lock_seconds", 60)
}
