package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	yaml "go.yaml.in/yaml/v3"
)

// DefaultOptionsPath is where the add-on runtime mounts the options file.
const DefaultOptionsPath = "/data/options.json"

// DefaultAdvanceDays is the stock checkpoint set.
var DefaultAdvanceDays = []int{30, 14, 7, 3, 1}

// AppConfig holds all configuration for the agent. Built once at startup,
// never mutated afterwards.
type AppConfig struct {
	ExpiryDate      string
	ExpiryTime      string        // HH:MM, 24-hour
	DateFormat      string        // auto | iso | us | eu
	TimeZone        string        // IANA zone name for the expiry instant
	NotifyService   string        // dotted "domain.service" identifier
	PushCount       int           // attempts per notification, all always issued
	PushInterval    time.Duration // delay between successive attempts
	Debug           bool
	AdvanceDays     []int // day-offsets before expiry that trigger a notification
	ResourceName    string
	SupervisorURL   string
	SupervisorToken string // may be empty; the scheduler refuses to start without it
	Environment     string
}

// options mirrors the options file schema. The file is parsed as YAML, which
// is a superset of JSON, so a plain options.json works unchanged. Pointer
// fields distinguish "absent" from zero values.
type options struct {
	ExpiryDate      *string `yaml:"expiry_date"`
	ExpiryTime      *string `yaml:"expiry_time"`
	DateFormat      *string `yaml:"date_format"`
	TimeZone        *string `yaml:"time_zone"`
	NotifyService   *string `yaml:"notify_service"`
	PushCount       *int    `yaml:"push_count"`
	PushIntervalMin *int    `yaml:"push_interval_min"`
	Debug           *bool   `yaml:"debug"`
	AdvanceDays     []int   `yaml:"advance_days"`
	ResourceName    *string `yaml:"resource_name"`
}

// Load builds the configuration from defaults, then the options file (if
// present), then environment variables, in increasing precedence. A .env
// file is honored the same way it is everywhere else in this stack.
func Load() (*AppConfig, error) {
	// Attempt to load .env file. Errors are ignored if the file doesn't exist.
	// godotenv.Load will not override existing env variables.
	_ = godotenv.Load()

	cfg := &AppConfig{
		ExpiryDate:    "31/12/2025",
		ExpiryTime:    "12:00",
		DateFormat:    "auto",
		TimeZone:      "UTC",
		NotifyService: "notify.mobile_app_myphone",
		PushCount:     1,
		PushInterval:  60 * time.Minute,
		AdvanceDays:   DefaultAdvanceDays,
		ResourceName:  "Tuya IOT",
		SupervisorURL: "http://supervisor",
		Environment:   "development",
	}

	if err := applyOptionsFile(cfg); err != nil {
		return nil, err
	}
	if err := applyEnv(cfg); err != nil {
		return nil, err
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyOptionsFile(cfg *AppConfig) error {
	path := os.Getenv("OPTIONS_FILE")
	if path == "" {
		path = DefaultOptionsPath
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read options file %s: %w", path, err)
	}

	var opts options
	if err := yaml.Unmarshal(data, &opts); err != nil {
		return fmt.Errorf("parse options file %s: %w", path, err)
	}

	if opts.ExpiryDate != nil {
		cfg.ExpiryDate = *opts.ExpiryDate
	}
	if opts.ExpiryTime != nil {
		cfg.ExpiryTime = *opts.ExpiryTime
	}
	if opts.DateFormat != nil {
		cfg.DateFormat = *opts.DateFormat
	}
	if opts.TimeZone != nil {
		cfg.TimeZone = *opts.TimeZone
	}
	if opts.NotifyService != nil {
		cfg.NotifyService = *opts.NotifyService
	}
	if opts.PushCount != nil {
		cfg.PushCount = *opts.PushCount
	}
	if opts.PushIntervalMin != nil {
		cfg.PushInterval = time.Duration(*opts.PushIntervalMin) * time.Minute
	}
	if opts.Debug != nil {
		cfg.Debug = *opts.Debug
	}
	if len(opts.AdvanceDays) > 0 {
		cfg.AdvanceDays = opts.AdvanceDays
	}
	if opts.ResourceName != nil {
		cfg.ResourceName = *opts.ResourceName
	}
	return nil
}

func applyEnv(cfg *AppConfig) error {
	if v := os.Getenv("EXPIRY_DATE"); v != "" {
		cfg.ExpiryDate = v
	}
	if v := os.Getenv("EXPIRY_TIME"); v != "" {
		cfg.ExpiryTime = v
	}
	if v := os.Getenv("DATE_FORMAT"); v != "" {
		cfg.DateFormat = strings.ToLower(v)
	}
	if v := os.Getenv("TIME_ZONE"); v != "" {
		cfg.TimeZone = v
	}
	if v := os.Getenv("NOTIFY_SERVICE"); v != "" {
		cfg.NotifyService = v
	}
	if v := os.Getenv("PUSH_COUNT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid PUSH_COUNT: %w", err)
		}
		cfg.PushCount = n
	}
	if v := os.Getenv("PUSH_INTERVAL_MIN"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid PUSH_INTERVAL_MIN: %w", err)
		}
		cfg.PushInterval = time.Duration(n) * time.Minute
	}
	if v := os.Getenv("DEBUG"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid DEBUG: %w", err)
		}
		cfg.Debug = b
	}
	if v := os.Getenv("ADVANCE_DAYS"); v != "" {
		days, err := parseDayList(v)
		if err != nil {
			return fmt.Errorf("invalid ADVANCE_DAYS: %w", err)
		}
		cfg.AdvanceDays = days
	}
	if v := os.Getenv("RESOURCE_NAME"); v != "" {
		cfg.ResourceName = v
	}
	if v := os.Getenv("SUPERVISOR_URL"); v != "" {
		cfg.SupervisorURL = strings.TrimSuffix(v, "/")
	}
	if v := os.Getenv("ENVIRONMENT"); v != "" {
		cfg.Environment = strings.ToLower(v)
	}

	// May legitimately be empty: scheduling is then disabled, not the process.
	cfg.SupervisorToken = os.Getenv("SUPERVISOR_TOKEN")
	return nil
}

func validate(cfg *AppConfig) error {
	switch cfg.DateFormat {
	case "auto", "iso", "us", "eu":
	default:
		return fmt.Errorf("invalid date_format %q: must be auto, iso, us or eu", cfg.DateFormat)
	}
	if cfg.PushCount < 1 {
		return fmt.Errorf("push_count must be at least 1, got %d", cfg.PushCount)
	}
	if cfg.PushInterval < 0 {
		return fmt.Errorf("push_interval_min must not be negative")
	}
	if !strings.Contains(cfg.NotifyService, ".") {
		return fmt.Errorf("invalid notify_service %q: expected \"domain.service\"", cfg.NotifyService)
	}
	return nil
}

func parseDayList(raw string) ([]int, error) {
	var days []int
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("bad day offset %q: %w", part, err)
		}
		days = append(days, n)
	}
	if len(days) == 0 {
		return nil, fmt.Errorf("no day offsets given")
	}
	return days, nil
}
