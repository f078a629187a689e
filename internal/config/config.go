package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server" yaml:"server"`
	Sheets    SheetsConfig    `mapstructure:"sheets" yaml:"sheets"`
	Database  DatabaseConfig  `mapstructure:"database" yaml:"database"`
	Redis     RedisConfig     `mapstructure:"redis" yaml:"redis"`
	Lock      LockConfig      `mapstructure:"lock" yaml:"lock"`
	Retry     RetryConfig     `mapstructure:"retry" yaml:"retry"`
	Form      FormConfig      `mapstructure:"form" yaml:"form"`
	Token     TokenConfig     `mapstructure:"token" yaml:"token"`
	Log       LogConfig       `mapstructure:"log" yaml:"log"`
	Tracing   TracingConfig   `mapstructure:"tracing" yaml:"tracing"`
	CORS      CORSConfig      `mapstructure:"cors" yaml:"cors"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit" yaml:"rate_limit"`
}

type ServerConfig struct {
	Port string `mapstructure:"port" yaml:"port"`
	Mode string `mapstructure:"mode" yaml:"mode"`
}

// SheetsConfig 选择表格后端并描述工作簿位置
type SheetsConfig struct {
	Backend         string `mapstructure:"backend" yaml:"backend"`
	SpreadsheetKey  string `mapstructure:"spreadsheet_key" yaml:"spreadsheet_key"`
	CredentialsFile string `mapstructure:"credentials_file" yaml:"credentials_file"`
	CredentialsJSON string `mapstructure:"credentials_json" yaml:"credentials_json"`
	AnswerSheet     string `mapstructure:"answer_sheet" yaml:"answer_sheet"`
	QuestionSheet   string `mapstructure:"question_sheet" yaml:"question_sheet"`
	// 以秒为单位，加载后转换为 time.Duration
	CacheTTL time.Duration `mapstructure:"cache_ttl_seconds" yaml:"cache_ttl_seconds"`
}

type DatabaseConfig struct {
	Host      string `mapstructure:"host" yaml:"host"`
	Port      int    `mapstructure:"port" yaml:"port"`
	User      string `mapstructure:"user" yaml:"user"`
	Password  string `mapstructure:"password" yaml:"password"`
	DBName    string `mapstructure:"dbname" yaml:"dbname"`
	Charset   string `mapstructure:"charset" yaml:"charset"`
	ParseTime bool   `mapstructure:"parsetime" yaml:"parsetime"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host" yaml:"host"`
	Port     int    `mapstructure:"port" yaml:"port"`
	Password string `mapstructure:"password" yaml:"password"`
	DB       int    `mapstructure:"db" yaml:"db"`
}

type LockConfig struct {
	Type string `mapstructure:"type" yaml:"type"`
	// 以秒为单位
	TTL time.Duration `mapstructure:"ttl_seconds" yaml:"ttl_seconds"`
}

type RetryConfig struct {
	MaxAttempts int `mapstructure:"max_attempts" yaml:"max_attempts"`
	// 以毫秒为单位
	BaseDelay time.Duration `mapstructure:"base_delay_ms" yaml:"base_delay_ms"`
}

type FormConfig struct {
	Timezone       string   `mapstructure:"timezone" yaml:"timezone"`
	QuestionLabels []string `mapstructure:"question_labels" yaml:"question_labels"`
}

type TokenConfig struct {
	Secret string `mapstructure:"secret" yaml:"secret"`
	// 以分钟为单位
	ExpireTime time.Duration `mapstructure:"expire_minutes" yaml:"expire_minutes"`
}

type LogConfig struct {
	File string `mapstructure:"file" yaml:"file"`
}

type TracingConfig struct {
	Enabled           bool   `mapstructure:"enabled" yaml:"enabled"`
	CollectorEndpoint string `mapstructure:"collector_endpoint" yaml:"collector_endpoint"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins" yaml:"allowed_origins"`
}

type RateLimitConfig struct {
	MaxRequests   int `mapstructure:"max_requests" yaml:"max_requests"`
	WindowMinutes int `mapstructure:"window_minutes" yaml:"window_minutes"`
}

const (
	BackendGoogle = "google"
	BackendMySQL  = "mysql"

	LockLocal = "local"
	LockRedis = "redis"
)

// DefaultQuestionLabels 工作坊问题列表，顺序决定答案所在列
var DefaultQuestionLabels = []string{
	"ワーク2-1 プロンプト",
	"ワーク2-1 ChatGPTの回答",
	"ワーク2-2 プロンプト",
	"ワーク2-2 ChatGPTの回答",
	"ワーク2-3 プロンプト",
	"ワーク2-3 ChatGPTの回答",
	"ワーク2-4 プロンプト",
	"ワーク2-4 ChatGPTの回答",
	"ワーク2-5 プロンプト",
	"ワーク2-5 ChatGPTの回答",
	"ワーク2-6 プロンプト",
	"ワーク2-6 ChatGPTの回答",
	"ワーク3-1 プロンプト",
	"ワーク3-1 ChatGPTの回答",
	"ワーク4-1 プロンプト",
	"ワーク4-1 ChatGPTの回答",
	"ワーク4-2 プロンプト",
	"ワーク4-2 ChatGPTの回答",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "debug")

	v.SetDefault("sheets.backend", BackendGoogle)
	v.SetDefault("sheets.question_sheet", "質問")
	v.SetDefault("sheets.cache_ttl_seconds", 3600)

	v.SetDefault("database.port", 3306)
	v.SetDefault("database.charset", "utf8mb4")
	v.SetDefault("database.parsetime", true)

	v.SetDefault("redis.port", 6379)

	v.SetDefault("lock.type", LockLocal)
	v.SetDefault("lock.ttl_seconds", 30)

	v.SetDefault("retry.max_attempts", 3)
	v.SetDefault("retry.base_delay_ms", 2000)

	v.SetDefault("form.timezone", "Asia/Tokyo")
	v.SetDefault("form.question_labels", DefaultQuestionLabels)

	v.SetDefault("token.expire_minutes", 10)
	v.SetDefault("log.file", "logs/app.log")

	v.SetDefault("rate_limit.max_requests", 600)
	v.SetDefault("rate_limit.window_minutes", 1)
}

func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.SetEnvPrefix("WORKSHOP_FORM")
	v.AutomaticEnv()
	setDefaults(v)

	// Sheets
	v.BindEnv("sheets.spreadsheet_key", "SPREADSHEET_KEY")
	v.BindEnv("sheets.credentials_file", "GOOGLE_APPLICATION_CREDENTIALS")
	v.BindEnv("sheets.credentials_json", "GCP_SERVICE_ACCOUNT_JSON")
	v.BindEnv("sheets.backend", "SHEETS_BACKEND")

	// Database
	v.BindEnv("database.host", "DATABASE_HOST")
	v.BindEnv("database.port", "DATABASE_PORT")
	v.BindEnv("database.user", "DATABASE_USER")
	v.BindEnv("database.password", "DATABASE_PASSWORD")
	v.BindEnv("database.dbname", "DATABASE_NAME")

	// Redis
	v.BindEnv("redis.host", "REDIS_HOST")
	v.BindEnv("redis.port", "REDIS_PORT")
	v.BindEnv("redis.password", "REDIS_PASSWORD")

	// Token
	v.BindEnv("token.secret", "TOKEN_SECRET")

	// Server
	v.BindEnv("server.mode", "SERVER_MODE")
	v.BindEnv("server.port", "PORT")

	// Tracing
	v.BindEnv("tracing.enabled", "TRACING_ENABLED")
	v.BindEnv("tracing.collector_endpoint", "TRACING_COLLECTOR_ENDPOINT")

	if err := v.ReadInConfig(); err != nil {
		// 没有配置文件时完全依赖默认值与环境变量
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	cfg.Normalize()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Normalize 把配置文件里的整数单位换算成 time.Duration
func (c *Config) Normalize() {
	c.Sheets.CacheTTL = c.Sheets.CacheTTL * time.Second
	c.Lock.TTL = c.Lock.TTL * time.Second
	c.Retry.BaseDelay = c.Retry.BaseDelay * time.Millisecond
	c.Token.ExpireTime = c.Token.ExpireTime * time.Minute
}

func (c *Config) Validate() error {
	switch c.Sheets.Backend {
	case BackendGoogle:
		if c.Sheets.SpreadsheetKey == "" {
			return fmt.Errorf("sheets.spreadsheet_key is required for the %s backend", BackendGoogle)
		}
	case BackendMySQL:
	default:
		return fmt.Errorf("unknown sheets backend %q", c.Sheets.Backend)
	}

	switch c.Lock.Type {
	case LockLocal, LockRedis:
	default:
		return fmt.Errorf("unknown lock type %q", c.Lock.Type)
	}

	if c.Retry.MaxAttempts < 1 {
		return fmt.Errorf("retry.max_attempts must be at least 1, got %d", c.Retry.MaxAttempts)
	}

	if len(c.Form.QuestionLabels) == 0 {
		return fmt.Errorf("form.question_labels must not be empty")
	}

	// 生产环境校验令牌密钥强度
	if c.Server.Mode == "release" && len(c.Token.Secret) < 32 {
		return fmt.Errorf("token secret is too short (%d chars), must be at least 32 characters in release mode", len(c.Token.Secret))
	}

	return nil
}
