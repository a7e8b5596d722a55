package types

import "time"

// HTTPConfig holds the fetch session settings shared by every outbound request.
type HTTPConfig struct {
	// Timeout is the per-request timeout (default 5s).
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with every request.
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`

	// Headers are extra headers sent with every request (Connection,
	// Accept-Encoding). Keys are canonicalised by net/http.
	Headers map[string]string `json:"headers" yaml:"headers" mapstructure:"headers"`

	Retry RetryConfig `json:"retry" yaml:"retry" mapstructure:"retry"`
}

// RetryConfig controls status-code retries in the fetch session.
type RetryConfig struct {
	// MaxRetries is the number of retries after the first attempt (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`

	// BaseDelay is the first backoff delay; it doubles per retry (default 1s).
	BaseDelay time.Duration `json:"base_delay" yaml:"base_delay" mapstructure:"base_delay"`

	// StatusCodes lists the HTTP statuses that trigger a retry
	// (default 429, 500, 502, 503, 504).
	StatusCodes []int `json:"status_codes" yaml:"status_codes" mapstructure:"status_codes"`
}

// ExtractionBackend identifies how page text is pulled out of the source document.
type ExtractionBackend string

const (
	BackendNative    ExtractionBackend = "native"
	BackendContainer ExtractionBackend = "container"
	BackendText      ExtractionBackend = "text"
)

// OrderMode selects how extracted triples are ordered in the output.
type OrderMode string

const (
	// OrderDedup removes duplicate triples and sorts by word, case-insensitively.
	OrderDedup OrderMode = "dedup"
	// OrderByLevel keeps duplicates and stably sorts by (level, word).
	OrderByLevel OrderMode = "sorted"
)

// ExtractionConfig holds settings for the extraction stage.
type ExtractionConfig struct {
	Backend ExtractionBackend `json:"backend" yaml:"backend" mapstructure:"backend"`
	Order   OrderMode         `json:"order" yaml:"order" mapstructure:"order"`

	// ContainerImage is the pdftotext image used by the container backend.
	ContainerImage string `json:"container_image" yaml:"container_image" mapstructure:"container_image"`
}

// EnrichmentConfig holds settings for the enrichment stage.
type EnrichmentConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// SearchURL is the dictionary search endpoint; the word is sent as q=.
	SearchURL string `json:"search_url" yaml:"search_url" mapstructure:"search_url"`

	// BatchSize is the number of input rows read at a time (default 10).
	BatchSize int `json:"batch_size" yaml:"batch_size" mapstructure:"batch_size"`

	// DelayMin and DelayMax bound the random pause after each word (1s..3s).
	DelayMin time.Duration `json:"delay_min" yaml:"delay_min" mapstructure:"delay_min"`
	DelayMax time.Duration `json:"delay_max" yaml:"delay_max" mapstructure:"delay_max"`

	// ImagesDir is where thumbnails are saved when DownloadImages is set.
	ImagesDir      string `json:"images_dir" yaml:"images_dir" mapstructure:"images_dir"`
	DownloadImages bool   `json:"download_images" yaml:"download_images" mapstructure:"download_images"`

	// CachePath is an optional sqlite file caching fetched pages.
	CachePath string `json:"cache_path,omitempty" yaml:"cache_path,omitempty" mapstructure:"cache_path"`

	// POSMapPath is an optional YAML file extending the abbreviation table.
	POSMapPath string `json:"pos_map,omitempty" yaml:"pos_map,omitempty" mapstructure:"pos_map"`

	// ReportPath is an optional YAML file receiving the run summary.
	ReportPath string `json:"report,omitempty" yaml:"report,omitempty" mapstructure:"report"`
}

// Defaults used when the config file, environment and flags leave a value unset.
const (
	DefaultSearchURL      = "https://www.oxfordlearnersdictionaries.com/search/english/direct/"
	DefaultUserAgent      = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/58.0.3029.110 Safari/537.3"
	DefaultTimeout        = 5 * time.Second
	DefaultMaxRetries     = 3
	DefaultRetryBaseDelay = 1 * time.Second
	DefaultBatchSize      = 10
	DefaultDelayMin       = 1 * time.Second
	DefaultDelayMax       = 3 * time.Second
	DefaultImagesDir      = "images"
	DefaultContainerImage = "pdftotext:latest"
)

// DefaultRetryStatusCodes are the statuses retried by the fetch session.
var DefaultRetryStatusCodes = []int{429, 500, 502, 503, 504}

// DefaultHeaders returns the fixed header set sent alongside User-Agent.
func DefaultHeaders() map[string]string {
	return map[string]string{
		"Connection":      "keep-alive",
		"Accept-Encoding": "gzip, deflate",
	}
}

// WithDefaults fills zero fields of cfg with the package defaults.
func (cfg EnrichmentConfig) WithDefaults() EnrichmentConfig {
	if cfg.SearchURL == "" {
		cfg.SearchURL = DefaultSearchURL
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.Headers == nil {
		cfg.Headers = DefaultHeaders()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Retry.MaxRetries <= 0 {
		cfg.Retry.MaxRetries = DefaultMaxRetries
	}
	if cfg.Retry.BaseDelay <= 0 {
		cfg.Retry.BaseDelay = DefaultRetryBaseDelay
	}
	if len(cfg.Retry.StatusCodes) == 0 {
		cfg.Retry.StatusCodes = DefaultRetryStatusCodes
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.DelayMin <= 0 && cfg.DelayMax <= 0 {
		cfg.DelayMin, cfg.DelayMax = DefaultDelayMin, DefaultDelayMax
	}
	if cfg.DelayMax < cfg.DelayMin {
		cfg.DelayMax = cfg.DelayMin
	}
	if cfg.ImagesDir == "" {
		cfg.ImagesDir = DefaultImagesDir
	}
	return cfg
}
