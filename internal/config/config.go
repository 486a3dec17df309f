package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server     ServerConfig
	DB         DBConfig
	S3         S3Config
	Log        LogConfig
	Extraction ExtractionConfig
	Metrics    MetricsConfig
	Providers  ProvidersConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port          string        `mapstructure:"port"`
	ReadTimeout   time.Duration `mapstructure:"read_timeout"`
	WriteTimeout  time.Duration `mapstructure:"write_timeout"`
	Environment   string        `mapstructure:"environment"`
	MaxUploadSize int64         `mapstructure:"max_upload_mb"`

	// AllowedOrigins lists CORS origins; "*" allows any.
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// DBConfig holds change-log database settings.
type DBConfig struct {
	Driver     string `mapstructure:"driver"`
	Host       string `mapstructure:"host"`
	Port       int    `mapstructure:"port"`
	User       string `mapstructure:"user"`
	Password   string `mapstructure:"password"`
	Name       string `mapstructure:"name"`
	SSLMode    string `mapstructure:"sslmode"`
	SQLitePath string `mapstructure:"sqlite_path"`
	MaxOpen    int    `mapstructure:"max_open"`
	MaxIdle    int    `mapstructure:"max_idle"`
}

// DSN returns the PostgreSQL connection string.
func (d *DBConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// S3Config holds AWS S3 settings for dataset exports.
type S3Config struct {
	Region        string `mapstructure:"region"`
	Bucket        string `mapstructure:"bucket"`
	Endpoint      string `mapstructure:"endpoint"`
	AccessKey     string `mapstructure:"access_key"`
	SecretKey     string `mapstructure:"secret_key"`
	PresignExpiry int64  `mapstructure:"presign_expiry"`
}

// Enabled reports whether exports can be uploaded.
func (s *S3Config) Enabled() bool {
	return s.Bucket != ""
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

// ExtractionConfig holds orchestrator settings.
type ExtractionConfig struct {
	// RowWorkers is the number of rows extracted concurrently. 1 keeps the
	// strictly sequential row-by-row behavior.
	RowWorkers          int `mapstructure:"row_workers"`
	ProviderTimeoutSecs int `mapstructure:"provider_timeout_secs"`
}

// ProviderTimeout returns the per-call provider timeout.
func (e *ExtractionConfig) ProviderTimeout() time.Duration {
	if e.ProviderTimeoutSecs <= 0 {
		return 60 * time.Second
	}
	return time.Duration(e.ProviderTimeoutSecs) * time.Second
}

// MetricsConfig holds Prometheus exporter settings.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// ProviderConfig holds settings for a single extraction provider.
type ProviderConfig struct {
	Name        string            `mapstructure:"name" yaml:"name" json:"name"`
	Kind        string            `mapstructure:"kind" yaml:"kind" json:"kind"`
	APIKey      string            `mapstructure:"api_key" yaml:"api_key,omitempty" json:"api_key,omitempty"`
	AppID       string            `mapstructure:"app_id" yaml:"app_id,omitempty" json:"app_id,omitempty"`
	Endpoint    string            `mapstructure:"endpoint" yaml:"endpoint,omitempty" json:"endpoint,omitempty"`
	Model       string            `mapstructure:"model" yaml:"model,omitempty" json:"model,omitempty"`
	TimeoutSecs int               `mapstructure:"timeout_secs" yaml:"timeout_secs,omitempty" json:"timeout_secs,omitempty"`
	Settings    map[string]string `mapstructure:"settings" yaml:"settings,omitempty" json:"settings,omitempty"`
}

// Timeout returns the HTTP timeout for the provider, defaulting to 30s.
func (p *ProviderConfig) Timeout() time.Duration {
	if p.TimeoutSecs <= 0 {
		return 30 * time.Second
	}
	return time.Duration(p.TimeoutSecs) * time.Second
}

// ProvidersConfig holds the provider list and the file it is persisted to.
type ProvidersConfig struct {
	SettingsFile string           `mapstructure:"settings_file"`
	List         []ProviderConfig `mapstructure:"list"`
}

// Load reads configuration from environment variables with the REFINENER_
// prefix and, when REFINENER_CONFIG is set, from that config file.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("REFINENER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path := os.Getenv("REFINENER_CONFIG"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
	}

	// Server defaults
	v.SetDefault("server.port", ":8080")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "60s")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.max_upload_mb", 50)
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000", "http://127.0.0.1:3000"})

	// DB defaults
	v.SetDefault("db.driver", "sqlite")
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.user", "refinener")
	v.SetDefault("db.password", "refinener_secret")
	v.SetDefault("db.name", "refinener_db")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.sqlite_path", "refinener.db")
	v.SetDefault("db.max_open", 25)
	v.SetDefault("db.max_idle", 10)

	// S3 defaults
	v.SetDefault("s3.region", "us-east-1")
	v.SetDefault("s3.bucket", "")
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.presign_expiry", 3600)

	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", 100)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age_days", 28)

	// Extraction defaults
	v.SetDefault("extraction.row_workers", 1)
	v.SetDefault("extraction.provider_timeout_secs", 60)

	// Metrics defaults
	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.path", "/metrics")

	// Provider defaults
	v.SetDefault("providers.settings_file", "")

	envBindings := map[string]string{
		"server.port":                      "REFINENER_SERVER_PORT",
		"server.read_timeout":              "REFINENER_SERVER_READ_TIMEOUT",
		"server.write_timeout":             "REFINENER_SERVER_WRITE_TIMEOUT",
		"server.environment":               "REFINENER_SERVER_ENVIRONMENT",
		"server.max_upload_mb":             "REFINENER_SERVER_MAX_UPLOAD_MB",
		"server.allowed_origins":           "REFINENER_SERVER_ALLOWED_ORIGINS",
		"db.driver":                        "REFINENER_DB_DRIVER",
		"db.host":                          "REFINENER_DB_HOST",
		"db.port":                          "REFINENER_DB_PORT",
		"db.user":                          "REFINENER_DB_USER",
		"db.password":                      "REFINENER_DB_PASSWORD",
		"db.name":                          "REFINENER_DB_NAME",
		"db.sslmode":                       "REFINENER_DB_SSLMODE",
		"db.sqlite_path":                   "REFINENER_DB_SQLITE_PATH",
		"db.max_open":                      "REFINENER_DB_MAX_OPEN",
		"db.max_idle":                      "REFINENER_DB_MAX_IDLE",
		"s3.region":                        "REFINENER_S3_REGION",
		"s3.bucket":                        "REFINENER_S3_BUCKET",
		"s3.endpoint":                      "REFINENER_S3_ENDPOINT",
		"s3.access_key":                    "REFINENER_S3_ACCESS_KEY",
		"s3.secret_key":                    "REFINENER_S3_SECRET_KEY",
		"s3.presign_expiry":                "REFINENER_S3_PRESIGN_EXPIRY",
		"log.level":                        "REFINENER_LOG_LEVEL",
		"log.format":                       "REFINENER_LOG_FORMAT",
		"log.file":                         "REFINENER_LOG_FILE",
		"log.max_size_mb":                  "REFINENER_LOG_MAX_SIZE_MB",
		"log.max_backups":                  "REFINENER_LOG_MAX_BACKUPS",
		"log.max_age_days":                 "REFINENER_LOG_MAX_AGE_DAYS",
		"extraction.row_workers":           "REFINENER_EXTRACTION_ROW_WORKERS",
		"extraction.provider_timeout_secs": "REFINENER_EXTRACTION_PROVIDER_TIMEOUT_SECS",
		"metrics.enabled":                  "REFINENER_METRICS_ENABLED",
		"metrics.path":                     "REFINENER_METRICS_PATH",
		"providers.settings_file":          "REFINENER_PROVIDERS_SETTINGS_FILE",
	}
	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}

	cfg := &Config{}

	// Railway/Heroku/Render set a PORT env var. Use it if REFINENER_SERVER_PORT is not explicitly set.
	serverPort := v.GetString("server.port")
	if port := os.Getenv("PORT"); port != "" && os.Getenv("REFINENER_SERVER_PORT") == "" {
		serverPort = ":" + port
	}

	cfg.Server = ServerConfig{
		Port:           serverPort,
		ReadTimeout:    v.GetDuration("server.read_timeout"),
		WriteTimeout:   v.GetDuration("server.write_timeout"),
		Environment:    v.GetString("server.environment"),
		MaxUploadSize:  v.GetInt64("server.max_upload_mb"),
		AllowedOrigins: v.GetStringSlice("server.allowed_origins"),
	}

	cfg.DB = DBConfig{
		Driver:     v.GetString("db.driver"),
		Host:       v.GetString("db.host"),
		Port:       v.GetInt("db.port"),
		User:       v.GetString("db.user"),
		Password:   v.GetString("db.password"),
		Name:       v.GetString("db.name"),
		SSLMode:    v.GetString("db.sslmode"),
		SQLitePath: v.GetString("db.sqlite_path"),
		MaxOpen:    v.GetInt("db.max_open"),
		MaxIdle:    v.GetInt("db.max_idle"),
	}
	cfg.S3 = S3Config{
		Region:        v.GetString("s3.region"),
		Bucket:        v.GetString("s3.bucket"),
		Endpoint:      v.GetString("s3.endpoint"),
		AccessKey:     v.GetString("s3.access_key"),
		SecretKey:     v.GetString("s3.secret_key"),
		PresignExpiry: v.GetInt64("s3.presign_expiry"),
	}
	cfg.Log = LogConfig{
		Level:      v.GetString("log.level"),
		Format:     v.GetString("log.format"),
		File:       v.GetString("log.file"),
		MaxSizeMB:  v.GetInt("log.max_size_mb"),
		MaxBackups: v.GetInt("log.max_backups"),
		MaxAgeDays: v.GetInt("log.max_age_days"),
	}
	cfg.Extraction = ExtractionConfig{
		RowWorkers:          v.GetInt("extraction.row_workers"),
		ProviderTimeoutSecs: v.GetInt("extraction.provider_timeout_secs"),
	}
	if cfg.Extraction.RowWorkers < 1 {
		cfg.Extraction.RowWorkers = 1
	}
	cfg.Metrics = MetricsConfig{
		Enabled: v.GetBool("metrics.enabled"),
		Path:    v.GetString("metrics.path"),
	}

	cfg.Providers = ProvidersConfig{
		SettingsFile: v.GetString("providers.settings_file"),
	}
	if err := v.UnmarshalKey("providers.list", &cfg.Providers.List); err != nil {
		return nil, fmt.Errorf("decoding providers.list: %w", err)
	}
	if len(cfg.Providers.List) == 0 {
		cfg.Providers.List = DefaultProviders()
	}

	return cfg, nil
}

// DefaultProviders is the provider list used when none is configured.
func DefaultProviders() []ProviderConfig {
	return []ProviderConfig{
		{Name: "DBpedia Spotlight", Kind: "spotlight"},
		{Name: "Dandelion", Kind: "dandelion"},
		{Name: "Claude", Kind: "claude"},
		{Name: "OpenAI", Kind: "openai"},
	}
}
