package config

import (
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the overall application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Pricing    PricingConfig    `yaml:"pricing"`
	Sweep      SweepConfig      `yaml:"sweep"`
	Push       PushConfig       `yaml:"push"`
	Events     EventsConfig     `yaml:"events"`
	WorkerPool WorkerPoolConfig `yaml:"worker_pool"`
	Catalog    string           `yaml:"catalog_path"`
}

// ServerConfig holds the server-related configuration.
type ServerConfig struct {
	Port            int     `yaml:"port"`
	RateLimitPerSec float64 `yaml:"rate_limit_per_sec"`
	RateLimitBurst  int     `yaml:"rate_limit_burst"`
	CacheTTLSeconds int     `yaml:"cache_ttl_seconds"`
}

// DatabaseConfig holds the database connection configuration.
type DatabaseConfig struct {
	DSN                    string `yaml:"dsn"`
	MaxOpenConns           int    `yaml:"max_open_conns"`
	MaxIdleConns           int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `yaml:"conn_max_lifetime_minutes"`
}

// PricingConfig holds the batch scheduling and reservation policy knobs.
// The lock fee itself is configured per item in the venue catalog.
type PricingConfig struct {
	ValidityWindowMinutes int           `yaml:"validity_window_minutes"`
	BatchSlotMinutes      int           `yaml:"batch_slot_minutes"`
	PrepLeadMinutes       int           `yaml:"prep_lead_minutes"`
	UrgentETAThresholdMin int           `yaml:"urgent_eta_threshold_minutes"`
	PrepTriggerETAMin     int           `yaml:"prep_trigger_eta_minutes"`
	RefundExpiredFee      bool          `yaml:"refund_expired_fee"`
	ValidityWindow        time.Duration `yaml:"-"` // Ignored by YAML parser
	BatchSlot             time.Duration `yaml:"-"`
	PrepLead              time.Duration `yaml:"-"`
}

// SweepConfig controls the periodic expiry/lifecycle sweep.
type SweepConfig struct {
	Enabled         bool          `yaml:"enabled"`
	IntervalSeconds int           `yaml:"interval_seconds"`
	Interval        time.Duration `yaml:"-"` // Ignored by YAML parser
}

// PushConfig holds the VAPID keys for web push notifications.
type PushConfig struct {
	PublicKey  string `yaml:"vapid_public_key"`
	PrivateKey string `yaml:"vapid_private_key"`
	Subject    string `yaml:"subject"`
	TTL        int    `yaml:"ttl"`
}

// EventsConfig configures the optional AMQP domain-event publisher.
// Publishing is disabled when the URL is empty.
type EventsConfig struct {
	URL string `yaml:"amqp_url"`
}

// WorkerPoolConfig holds the configuration for the notification worker pool.
type WorkerPoolConfig struct {
	Size int `yaml:"size"`
}

// Load reads the configuration from the given path.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, err
	}

	if cfg.Pricing.ValidityWindowMinutes <= 0 {
		cfg.Pricing.ValidityWindowMinutes = 120
	}
	if cfg.Pricing.BatchSlotMinutes <= 0 {
		cfg.Pricing.BatchSlotMinutes = 30
	}
	if cfg.Pricing.PrepLeadMinutes <= 0 {
		cfg.Pricing.PrepLeadMinutes = 5
	}
	if cfg.Pricing.UrgentETAThresholdMin <= 0 {
		cfg.Pricing.UrgentETAThresholdMin = 5
	}
	if cfg.Pricing.PrepTriggerETAMin <= 0 {
		cfg.Pricing.PrepTriggerETAMin = cfg.Pricing.UrgentETAThresholdMin
	}
	cfg.Pricing.ValidityWindow = time.Duration(cfg.Pricing.ValidityWindowMinutes) * time.Minute
	cfg.Pricing.BatchSlot = time.Duration(cfg.Pricing.BatchSlotMinutes) * time.Minute
	cfg.Pricing.PrepLead = time.Duration(cfg.Pricing.PrepLeadMinutes) * time.Minute

	if cfg.Sweep.IntervalSeconds <= 0 {
		cfg.Sweep.IntervalSeconds = 60
	}
	cfg.Sweep.Interval = time.Duration(cfg.Sweep.IntervalSeconds) * time.Second

	if cfg.Push.TTL <= 0 {
		cfg.Push.TTL = 3600
	}

	if cfg.Server.RateLimitPerSec <= 0 {
		cfg.Server.RateLimitPerSec = 10
	}
	if cfg.Server.RateLimitBurst <= 0 {
		cfg.Server.RateLimitBurst = 5
	}
	if cfg.Server.CacheTTLSeconds <= 0 {
		cfg.Server.CacheTTLSeconds = 5
	}

	if cfg.WorkerPool.Size <= 0 {
		log.Printf("worker_pool.size is not set or invalid; defaulting to 1")
		cfg.WorkerPool.Size = 1
	}

	return &cfg, nil
}
