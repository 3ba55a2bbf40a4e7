package retrieval

import "time"

// Source modes.
const (
	ModeAuto    = "auto"
	ModeArchive = "archive"
	ModeCurrent = "current"
)

// Config holds the NEMWeb endpoints and the politeness settings of the client.
type Config struct {
	ArchiveBaseURL string `yaml:"archive_base_url" envconfig:"ARCHIVE_BASE_URL" validate:"required,url"`
	CurrentBaseURL string `yaml:"current_base_url" envconfig:"CURRENT_BASE_URL" validate:"required,url"`
	Mode           string `yaml:"mode" envconfig:"MODE" validate:"oneof=auto archive current"`

	Timeout    time.Duration `yaml:"timeout" envconfig:"TIMEOUT" validate:"gt=0"`
	MaxRetries int           `yaml:"max_retries" envconfig:"MAX_RETRIES" validate:"min=0,max=10"`
	// Backoff is the base delay; attempt n waits Backoff * 2^n.
	Backoff time.Duration `yaml:"backoff" envconfig:"BACKOFF" validate:"gte=0"`

	RequestsPerSecond float64 `yaml:"requests_per_second" envconfig:"REQUESTS_PER_SECOND" validate:"gt=0"`
	Burst             int     `yaml:"burst" envconfig:"BURST" validate:"min=1"`
	UserAgent         string  `yaml:"user_agent" envconfig:"USER_AGENT"`

	// Workers bounds concurrent downloads of CURRENT interval files.
	Workers int `yaml:"workers" envconfig:"WORKERS" validate:"min=1,max=32"`
}

// DefaultConfig returns settings for the public NEMWeb site.
func DefaultConfig() Config {
	return Config{
		ArchiveBaseURL:    "https://www.nemweb.com.au/REPORTS/ARCHIVE/Dispatch_SCADA",
		CurrentBaseURL:    "https://www.nemweb.com.au/REPORTS/CURRENT/Dispatch_SCADA",
		Mode:              ModeAuto,
		Timeout:           60 * time.Second,
		MaxRetries:        5,
		Backoff:           500 * time.Millisecond,
		RequestsPerSecond: 5,
		Burst:             5,
		UserAgent:         "scadapulse-fetcher/1.0",
		Workers:           4,
	}
}
