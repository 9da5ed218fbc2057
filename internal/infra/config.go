package infra

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config: корневая структура конфигурации бота.
type Config struct {
	Discord    DiscordConfig    `mapstructure:"discord"`
	Health     HealthConfig     `mapstructure:"health"`
	Backup     BackupConfig     `mapstructure:"backup"`
	Audit      AuditConfig      `mapstructure:"audit"`
	Operations OperationsConfig `mapstructure:"operations"`
	Assistant  AssistantConfig  `mapstructure:"assistant"`
	Gate       GateConfig       `mapstructure:"gate"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Console    ConsoleConfig    `mapstructure:"console"`
	Logger     LoggerConfig     `mapstructure:"logger"`
}

// DiscordConfig описывает подключение к платформе и защиту исходящих уведомлений.
type DiscordConfig struct {
	Token string `mapstructure:"token"`

	// Лимит исходящих сообщений (rate.Limiter)
	NotifyRate  float64 `mapstructure:"notify_rate"`
	NotifyBurst int     `mapstructure:"notify_burst"`

	// Настройки Circuit Breaker для отправки уведомлений
	CBMaxRequests uint32        `mapstructure:"cb_max_requests"`
	CBInterval    time.Duration `mapstructure:"cb_interval"`
	CBTimeout     time.Duration `mapstructure:"cb_timeout"`
}

// HealthConfig настраивает проверку здоровья каналов.
type HealthConfig struct {
	InitialDelay        time.Duration `mapstructure:"initial_delay"`
	Interval            time.Duration `mapstructure:"interval"`
	InactivityThreshold time.Duration `mapstructure:"inactivity_threshold"`
	AdminMarkers        []string      `mapstructure:"admin_markers"`
	MaxTrackedChannels  int           `mapstructure:"max_tracked_channels"` // 0 = без ограничения
}

type BackupConfig struct {
	Dir          string        `mapstructure:"dir"`
	InitialDelay time.Duration `mapstructure:"initial_delay"`
	Interval     time.Duration `mapstructure:"interval"`
	Retention    time.Duration `mapstructure:"retention"`
}

// AuditConfig: журнал аудита в JSON-файлах по дням.
type AuditConfig struct {
	Dir           string        `mapstructure:"dir"`
	BufferSize    int           `mapstructure:"buffer_size"`
	BatchSize     int           `mapstructure:"batch_size"`
	FlushInterval time.Duration `mapstructure:"flush_interval"`
	RecentSize    int           `mapstructure:"recent_size"`
}

type OperationsConfig struct {
	WelcomeMarkers  []string      `mapstructure:"welcome_markers"`
	ActivityLogSize int           `mapstructure:"activity_log_size"`
	ReportInterval  time.Duration `mapstructure:"report_interval"`
}

type AssistantConfig struct {
	Prefix             string   `mapstructure:"prefix"`
	ModerationKeywords []string `mapstructure:"moderation_keywords"`
}

// GateConfig выбирает хранилище флага инициализации: memory или redis.
type GateConfig struct {
	Backend string `mapstructure:"backend"`
}

// RedisConfig описывает подключение к Redis (используется только gate.backend=redis).
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// ConsoleConfig описывает операторский HTTP API.
type ConsoleConfig struct {
	Addr          string        `mapstructure:"addr"`
	ReadTimeout   time.Duration `mapstructure:"read_timeout"`
	WriteTimeout  time.Duration `mapstructure:"write_timeout"`
	PublicKeyPath string        `mapstructure:"public_key_path"`
	TokenIssuer   string        `mapstructure:"token_issuer"`
	TokenAudience string        `mapstructure:"token_audience"`
	PublicKey     []byte
}

// LoggerConfig настраивает поведение zap логгера.
type LoggerConfig struct {
	Level      string `mapstructure:"level"`  // debug, info, warn, error
	Format     string `mapstructure:"format"` // json, console
	Output     string `mapstructure:"output"` // stdout, file, both
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

// LoadConfig объединяет .env, файл конфигурации, ENV и значения по умолчанию.
// path может быть пустым, тогда config.yaml ищется в . и ./configs.
func LoadConfig(path string) (*Config, error) {
	// .env необязателен: в Docker/K8s переменные приходят из окружения
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("error reading .env file: %w", err)
	}

	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
	}

	// Позволяет перекрывать конфиг: HEALTH_INTERVAL=30m перекроет health.interval
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	_ = v.BindEnv("discord.token", "DISCORD_TOKEN", "BOT_TOKEN")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Если файла нет, работаем на ENV и дефолтах
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}

	cfg.Console.PublicKey = loadKeyResource(cfg.Console.PublicKeyPath, "CONSOLE_PUBLIC_KEY_DATA")

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("discord.notify_rate", 5.0)
	v.SetDefault("discord.notify_burst", 5)
	v.SetDefault("discord.cb_max_requests", 3)
	v.SetDefault("discord.cb_interval", 30*time.Second)
	v.SetDefault("discord.cb_timeout", time.Minute)

	v.SetDefault("health.initial_delay", 10*time.Minute)
	v.SetDefault("health.interval", time.Hour)
	v.SetDefault("health.inactivity_threshold", 7*24*time.Hour)
	v.SetDefault("health.admin_markers", []string{"admin", "log", "管理"})
	v.SetDefault("health.max_tracked_channels", 0)

	v.SetDefault("backup.dir", "./backups")
	v.SetDefault("backup.initial_delay", 5*time.Minute)
	v.SetDefault("backup.interval", 24*time.Hour)
	v.SetDefault("backup.retention", 7*24*time.Hour)

	v.SetDefault("audit.dir", "./logs")
	v.SetDefault("audit.buffer_size", 10000)
	v.SetDefault("audit.batch_size", 100)
	v.SetDefault("audit.flush_interval", 5*time.Minute)
	v.SetDefault("audit.recent_size", 1000)

	v.SetDefault("operations.welcome_markers", []string{"welcome", "欢迎"})
	v.SetDefault("operations.activity_log_size", 1000)
	v.SetDefault("operations.report_interval", time.Hour)

	v.SetDefault("assistant.prefix", "!")
	v.SetDefault("assistant.moderation_keywords", []string{"spam", "广告", "骚扰"})

	v.SetDefault("gate.backend", "memory")
	v.SetDefault("redis.addr", "localhost:6379")

	v.SetDefault("console.addr", ":8080")
	v.SetDefault("console.read_timeout", 5*time.Second)
	v.SetDefault("console.write_timeout", 10*time.Second)
	v.SetDefault("console.token_issuer", "guildkeeper")
	v.SetDefault("console.token_audience", "guildkeeper-console")

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.output", "stdout")
	v.SetDefault("logger.file", "./logs/guildkeeper.log")
	v.SetDefault("logger.max_size_mb", 50)
	v.SetDefault("logger.max_backups", 7)
	v.SetDefault("logger.max_age_days", 30)
}

// loadKeyResource: ключ берется из ENV (PEM целиком) или из файла по пути из конфига
func loadKeyResource(path string, envDataKey string) []byte {
	if data := os.Getenv(envDataKey); data != "" {
		return []byte(data)
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err == nil {
			return data
		}
	}
	return nil
}
