package config

import (
	"fmt"
	"time"

	"lingua_exam_backend/internal/adaptive"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Log       LogConfig
	Database  DatabaseConfig
	JWT       JWTConfig
	Tracing   TracingConfig `mapstructure:"tracing"`
	Redis     RedisConfig
	CORS      CORSConfig      `mapstructure:"cors"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Exam      ExamConfig

	MigrateOnly bool `mapstructure:"-"` // set from the command line
}

type ServerConfig struct {
	Port string
	Mode string
}

type LogConfig struct {
	File string
}

type DatabaseConfig struct {
	Driver    string // mysql | sqlite
	Host      string
	Port      int
	User      string
	Password  string
	DBName    string
	Charset   string
	ParseTime bool
	Path      string // sqlite file, ":memory:" allowed
	LogSQL    bool   `mapstructure:"log_sql"`
}

type JWTConfig struct {
	Secret string `mapstructure:"secret"`
}

type TracingConfig struct {
	Enabled           bool   `mapstructure:"enabled"`
	ServiceName       string `mapstructure:"service_name"`
	CollectorEndpoint string `mapstructure:"collector_endpoint"`
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type RateLimitConfig struct {
	MaxRequests   int `mapstructure:"max_requests"`
	WindowMinutes int `mapstructure:"window_minutes"`
}

type ExamConfig struct {
	ExpirySweepSeconds int             `mapstructure:"expiry_sweep_seconds"`
	ExpiryBatchSize    int             `mapstructure:"expiry_batch_size"`
	SweepConcurrency   int             `mapstructure:"sweep_concurrency"`
	LockBackend        string          `mapstructure:"lock_backend"` // memory | redis
	LockTTLSeconds     int             `mapstructure:"lock_ttl_seconds"`
	LockWaitMillis     int             `mapstructure:"lock_wait_millis"`
	PartialMultiSelect bool            `mapstructure:"partial_multi_select"`
	Adaptive           adaptive.Config `mapstructure:"adaptive"`
}

func (e ExamConfig) SweepInterval() time.Duration {
	return time.Duration(e.ExpirySweepSeconds) * time.Second
}

func (e ExamConfig) LockTTL() time.Duration {
	return time.Duration(e.LockTTLSeconds) * time.Second
}

func (e ExamConfig) LockWait() time.Duration {
	return time.Duration(e.LockWaitMillis) * time.Millisecond
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "debug")
	v.SetDefault("database.driver", "mysql")
	v.SetDefault("database.charset", "utf8mb4")
	v.SetDefault("database.parsetime", true)
	v.SetDefault("tracing.service_name", "lingua-exam")
	v.SetDefault("rate_limit.max_requests", 100)
	v.SetDefault("rate_limit.window_minutes", 1)
	v.SetDefault("exam.expiry_sweep_seconds", 30)
	v.SetDefault("exam.expiry_batch_size", 200)
	v.SetDefault("exam.sweep_concurrency", 4)
	v.SetDefault("exam.lock_backend", "memory")
	v.SetDefault("exam.lock_ttl_seconds", 15)
	v.SetDefault("exam.lock_wait_millis", 3000)

	d := adaptive.DefaultConfig()
	v.SetDefault("exam.adaptive.start_tier", d.StartTier)
	v.SetDefault("exam.adaptive.step_up", d.StepUp)
	v.SetDefault("exam.adaptive.step_down", d.StepDown)
	v.SetDefault("exam.adaptive.streak_to_step_up", d.StreakToStepUp)
	v.SetDefault("exam.adaptive.max_questions", d.MaxQuestions)
}

func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.SetEnvPrefix("EXAM")
	v.AutomaticEnv()
	setDefaults(v)

	// Database
	v.BindEnv("database.driver", "DATABASE_DRIVER")
	v.BindEnv("database.host", "DATABASE_HOST")
	v.BindEnv("database.port", "DATABASE_PORT")
	v.BindEnv("database.user", "DATABASE_USER")
	v.BindEnv("database.password", "DATABASE_PASSWORD")
	v.BindEnv("database.dbname", "DATABASE_NAME")
	v.BindEnv("database.path", "DATABASE_PATH")

	// JWT
	v.BindEnv("jwt.secret", "JWT_SECRET")

	// Redis
	v.BindEnv("redis.enabled", "REDIS_ENABLED")
	v.BindEnv("redis.host", "REDIS_HOST")
	v.BindEnv("redis.port", "REDIS_PORT")
	v.BindEnv("redis.password", "REDIS_PASSWORD")

	// Server
	v.BindEnv("server.mode", "SERVER_MODE")
	v.BindEnv("server.port", "SERVER_PORT")

	// Tracing
	v.BindEnv("tracing.enabled", "TRACING_ENABLED")
	v.BindEnv("tracing.collector_endpoint", "TRACING_COLLECTOR_ENDPOINT")

	// Exam
	v.BindEnv("exam.lock_backend", "EXAM_LOCK_BACKEND")

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.Server.Mode == "release" && len(cfg.JWT.Secret) < 32 {
		return nil, fmt.Errorf("JWT secret is too short (%d chars), must be at least 32 characters in release mode", len(cfg.JWT.Secret))
	}
	if cfg.Exam.LockBackend == "redis" && !cfg.Redis.Enabled {
		return nil, fmt.Errorf("exam.lock_backend is redis but redis is disabled")
	}
	switch cfg.Database.Driver {
	case "mysql", "sqlite":
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
	}

	return &cfg, nil
}
