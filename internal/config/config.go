package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"
	_ "time/tzdata" // NEM timezone on hosts without zoneinfo

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	"scadapulse/internal/dataprocessing"
	apperrors "scadapulse/internal/errors"
	"scadapulse/internal/retrieval"
	"scadapulse/pkg/contracts/domain"
)

const (
	// EnvPrefix namespaces every environment variable, e.g. SCADA_SERVER_PORT.
	EnvPrefix = "SCADA"
	// ConfigFileEnv names an explicit YAML file.
	ConfigFileEnv = "SCADA_CONFIG_FILE"
	// DefaultTimezone is NEM time (AEST, no daylight saving).
	DefaultTimezone = "Australia/Brisbane"
)

// Config represents the complete application configuration
type Config struct {
	Server    ServerConfig     `yaml:"server" envconfig:"SERVER"`
	Logging   LoggingConfig    `yaml:"logging" envconfig:"LOGGING"`
	Paths     PathsConfig      `yaml:"paths" envconfig:"PATHS"`
	WebSocket WebSocketConfig  `yaml:"websocket" envconfig:"WEBSOCKET"`
	Retrieval retrieval.Config `yaml:"retrieval" envconfig:"RETRIEVAL"`
	Analysis  AnalysisConfig   `yaml:"analysis" envconfig:"ANALYSIS"`
	Schedule  ScheduleConfig   `yaml:"schedule" envconfig:"SCHEDULE"`
	Narrative NarrativeConfig  `yaml:"narrative" envconfig:"NARRATIVE"`
	Storage   StorageConfig    `yaml:"storage" envconfig:"STORAGE"`
	Status    StatusConfig     `yaml:"status" envconfig:"STATUS"`
	Telemetry TelemetryConfig  `yaml:"telemetry" envconfig:"TELEMETRY"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port            int             `yaml:"port" envconfig:"PORT" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration   `yaml:"read_timeout" envconfig:"READ_TIMEOUT" validate:"gt=0"`
	WriteTimeout    time.Duration   `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" validate:"gt=0"`
	IdleTimeout     time.Duration   `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT"`
	ShutdownTimeout time.Duration   `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT"`
	RunTimeout      time.Duration   `yaml:"run_timeout" envconfig:"RUN_TIMEOUT" validate:"gt=0"`
	RateLimit       RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
	// CORSOrigins lists browser origins allowed on /api; empty allows any.
	CORSOrigins []string `yaml:"cors_origins" envconfig:"CORS_ORIGINS"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED"`
	RPS     float64 `yaml:"rps" envconfig:"RPS" validate:"gte=0"`
	Burst   int     `yaml:"burst" envconfig:"BURST" validate:"gte=0"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn warning error"`
	Format   string `yaml:"format" envconfig:"FORMAT" validate:"oneof=json text"`
	Output   string `yaml:"output" envconfig:"OUTPUT" validate:"oneof=console file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH"`
}

// PathsConfig contains file system paths configuration
type PathsConfig struct {
	DataDir string `yaml:"data_dir" envconfig:"DATA_DIR" validate:"required"`
	LogsDir string `yaml:"logs_dir" envconfig:"LOGS_DIR" validate:"required"`
	// RetentionDays bounds how long readings CSVs and zips are kept; zero keeps all.
	RetentionDays int `yaml:"retention_days" envconfig:"RETENTION_DAYS" validate:"gte=0"`
}

// WebSocketConfig contains WebSocket configuration
type WebSocketConfig struct {
	ReadBufferSize  int           `yaml:"read_buffer_size" envconfig:"READ_BUFFER_SIZE" validate:"min=1"`
	WriteBufferSize int           `yaml:"write_buffer_size" envconfig:"WRITE_BUFFER_SIZE" validate:"min=1"`
	PingPeriod      time.Duration `yaml:"ping_period" envconfig:"PING_PERIOD" validate:"gt=0"`
	PongWait        time.Duration `yaml:"pong_wait" envconfig:"PONG_WAIT" validate:"gtfield=PingPeriod"`
	// AllowedOrigins restricts browser origins; empty allows any.
	AllowedOrigins []string `yaml:"allowed_origins" envconfig:"ALLOWED_ORIGINS"`
}

// AnalysisConfig holds the summary and forecast parameters.
type AnalysisConfig struct {
	// Timezone settlement dates are interpreted in.
	Timezone string                          `yaml:"timezone" envconfig:"TIMEZONE" validate:"required"`
	Summary  dataprocessing.SummarizerConfig `yaml:"summary" envconfig:"SUMMARY"`
	Forecast domain.ForecastConfig           `yaml:"forecast" envconfig:"FORECAST"`
}

// Location loads the configured time zone.
func (a AnalysisConfig) Location() (*time.Location, error) {
	return time.LoadLocation(a.Timezone)
}

// HasFixedOffset reports whether loc keeps one UTC offset through year.
// Trading days are 288 five-minute slots from midnight, which only holds
// without daylight saving.
func HasFixedOffset(loc *time.Location, year int) bool {
	_, base := time.Date(year, time.January, 1, 12, 0, 0, 0, loc).Zone()
	for m := time.February; m <= time.December; m++ {
		if _, off := time.Date(year, m, 1, 12, 0, 0, 0, loc).Zone(); off != base {
			return false
		}
	}
	return true
}

// ScheduleConfig drives the daily run of the previous trading day.
type ScheduleConfig struct {
	Enabled bool `yaml:"enabled" envconfig:"ENABLED"`
	// Spec is a five-field cron expression evaluated in the analysis timezone.
	Spec  string   `yaml:"spec" envconfig:"SPEC" validate:"required_if=Enabled true"`
	Units []string `yaml:"units" envconfig:"UNITS"`
	Mode  string   `yaml:"mode" envconfig:"MODE" validate:"omitempty,oneof=auto archive current"`
	// PruneSpec fires the retention pass when Paths.RetentionDays is set.
	PruneSpec string `yaml:"prune_spec" envconfig:"PRUNE_SPEC"`
}

// NarrativeConfig controls the optional operator narrative.
type NarrativeConfig struct {
	Enabled bool `yaml:"enabled" envconfig:"ENABLED"`
	// MaxPerMonth caps newly generated narratives per calendar month; 0 disables the cap.
	MaxPerMonth int `yaml:"max_per_month" envconfig:"MAX_PER_MONTH" validate:"gte=0"`
	// Provider is "template" for the built-in rule-based text or "chat" for
	// an OpenAI-compatible chat completions endpoint.
	Provider    string        `yaml:"provider" envconfig:"PROVIDER" validate:"oneof=template chat"`
	Endpoint    string        `yaml:"endpoint" envconfig:"ENDPOINT" validate:"omitempty,url"`
	Model       string        `yaml:"model" envconfig:"MODEL"`
	APIKey      string        `yaml:"api_key" envconfig:"API_KEY"`
	MaxTokens   int           `yaml:"max_tokens" envconfig:"MAX_TOKENS" validate:"gte=1"`
	Temperature float64       `yaml:"temperature" envconfig:"TEMPERATURE" validate:"gte=0,lte=2"`
	Timeout     time.Duration `yaml:"timeout" envconfig:"TIMEOUT"`
}

// StorageConfig configures publishing of flat outputs to S3-compatible storage.
type StorageConfig struct {
	Enabled   bool   `yaml:"enabled" envconfig:"ENABLED"`
	Endpoint  string `yaml:"endpoint" envconfig:"ENDPOINT" validate:"required_if=Enabled true"`
	Bucket    string `yaml:"bucket" envconfig:"BUCKET" validate:"required_if=Enabled true"`
	AccessKey string `yaml:"access_key" envconfig:"ACCESS_KEY"`
	SecretKey string `yaml:"secret_key" envconfig:"SECRET_KEY"`
	UseSSL    bool   `yaml:"use_ssl" envconfig:"USE_SSL"`
	Prefix    string `yaml:"prefix" envconfig:"PREFIX"`
}

// StatusConfig selects where run status is kept.
type StatusConfig struct {
	Backend       string        `yaml:"backend" envconfig:"BACKEND" validate:"oneof=memory redis"`
	RedisAddr     string        `yaml:"redis_addr" envconfig:"REDIS_ADDR" validate:"required_if=Backend redis"`
	RedisPassword string        `yaml:"redis_password" envconfig:"REDIS_PASSWORD"`
	RedisDB       int           `yaml:"redis_db" envconfig:"REDIS_DB" validate:"gte=0"`
	TTL           time.Duration `yaml:"ttl" envconfig:"TTL" validate:"gt=0"`
}

// TelemetryConfig configures OpenTelemetry exporters.
type TelemetryConfig struct {
	ServiceName    string  `yaml:"service_name" envconfig:"SERVICE_NAME"`
	Environment    string  `yaml:"environment" envconfig:"ENVIRONMENT"`
	TraceExporter  string  `yaml:"trace_exporter" envconfig:"TRACE_EXPORTER" validate:"oneof=stdout none"`
	MetricExporter string  `yaml:"metric_exporter" envconfig:"METRIC_EXPORTER" validate:"oneof=prometheus none"`
	SampleRatio    float64 `yaml:"sample_ratio" envconfig:"SAMPLE_RATIO" validate:"gte=0,lte=1"`
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			RunTimeout:      30 * time.Minute,
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     20,
				Burst:   40,
			},
		},
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "console",
			FilePath: "logs/scadapulse.log",
		},
		Paths: PathsConfig{
			DataDir: "data",
			LogsDir: "logs",
		},
		WebSocket: WebSocketConfig{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			PingPeriod:      30 * time.Second,
			PongWait:        60 * time.Second,
		},
		Retrieval: retrieval.DefaultConfig(),
		Analysis: AnalysisConfig{
			Timezone: DefaultTimezone,
			Summary:  dataprocessing.DefaultSummarizerConfig(),
			Forecast: domain.DefaultForecastConfig(),
		},
		Schedule: ScheduleConfig{
			Spec:      "30 6 * * *",
			PruneSpec: "0 3 * * *",
			Units:     []string{"*"},
			Mode:      retrieval.ModeAuto,
		},
		Narrative: NarrativeConfig{
			MaxPerMonth: 31,
			Provider:    "template",
			Endpoint:    "https://api.openai.com/v1/chat/completions",
			Model:       "gpt-4o-mini",
			MaxTokens:   350,
			Temperature: 0.1,
			Timeout:     30 * time.Second,
		},
		Storage: StorageConfig{
			Prefix: "scadapulse",
		},
		Status: StatusConfig{
			Backend: "memory",
			TTL:     24 * time.Hour,
		},
		Telemetry: TelemetryConfig{
			ServiceName:    "scadapulse",
			Environment:    "development",
			TraceExporter:  "none",
			MetricExporter: "prometheus",
			SampleRatio:    1.0,
		},
	}
}

// Load builds the configuration from defaults, an optional YAML file, an
// optional .env file and the environment, in increasing precedence.
func Load() (*Config, error) {
	return LoadFrom(getConfigFilePath())
}

// LoadFrom is Load with an explicit YAML path; an empty path skips the file.
func LoadFrom(configFile string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, apperrors.NewConfigError("failed to read .env file", err)
	}

	cfg := Default()

	if configFile != "" {
		if err := loadFromFile(configFile, cfg); err != nil {
			return nil, apperrors.NewConfigError(fmt.Sprintf("failed to load config file %s", configFile), err)
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, apperrors.NewConfigError("failed to load config from env", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadFromFile overlays the keys present in a YAML file onto cfg.
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// Validate checks struct constraints and the cross-field rules.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return apperrors.NewConfigError("config validation failed", err)
	}

	if err := c.Analysis.Forecast.Validate(); err != nil {
		return apperrors.NewConfigError("invalid forecast config", err)
	}

	loc, err := c.Analysis.Location()
	if err != nil {
		return apperrors.NewConfigError(fmt.Sprintf("unknown timezone %q", c.Analysis.Timezone), err)
	}
	if !HasFixedOffset(loc, time.Now().Year()) {
		return apperrors.NewConfigError(fmt.Sprintf("timezone %q observes daylight saving; use market time such as %s", c.Analysis.Timezone, DefaultTimezone), nil)
	}

	if (c.Logging.Output == "file" || c.Logging.Output == "both") && c.Logging.FilePath == "" {
		return apperrors.NewConfigError("logging file_path is required for file output", nil)
	}

	return nil
}

// getConfigFilePath returns the path to the config file
func getConfigFilePath() string {
	if path := os.Getenv(ConfigFileEnv); path != "" {
		return path
	}

	locations := []string{
		"config.yaml",
		"configs/config.yaml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return "" // No config file found, use env vars only
}
