package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// ConfigPath is the default config location relative to the working
// directory.
const ConfigPath = "config.yaml"

// FileConfig represents configuration loaded from YAML.
type FileConfig struct {
	Port     string `yaml:"port"`
	LogLevel string `yaml:"logLevel"`
	LogsDir  string `yaml:"logsDir"`

	DatabaseURL string `yaml:"databaseURL"`

	RedisAddr     string `yaml:"redisAddr"`
	RedisPassword string `yaml:"redisPassword"`

	SessionSecret   string `yaml:"sessionSecret"`
	SessionTTLHours int    `yaml:"sessionTTLHours"`

	StorageEndpoint      string `yaml:"storageEndpoint"`
	StorageAccessKey     string `yaml:"storageAccessKey"`
	StorageSecretKey     string `yaml:"storageSecretKey"`
	StorageBucket        string `yaml:"storageBucket"`
	StoragePublicBaseURL string `yaml:"storagePublicBaseURL"`
	StorageUseSSL        bool   `yaml:"storageUseSSL"`

	AIProvider string `yaml:"aiProvider"`
	AIBaseURL  string `yaml:"aiBaseURL"`
	AIAPIKey   string `yaml:"aiAPIKey"`
	AIModel    string `yaml:"aiModel"`

	ExtractorURL string `yaml:"extractorURL"`

	SMTPHost     string `yaml:"smtpHost"`
	SMTPPort     int    `yaml:"smtpPort"`
	SMTPUsername string `yaml:"smtpUsername"`
	SMTPPassword string `yaml:"smtpPassword"`
	SMTPFrom     string `yaml:"smtpFrom"`

	NotifyStream            string `yaml:"notifyStream"`
	NotifyGroup             string `yaml:"notifyGroup"`
	NotifyConcurrency       int    `yaml:"notifyConcurrency"`
	NotifyMaxRetries        int    `yaml:"notifyMaxRetries"`
	NotifyRetryDelaySeconds int    `yaml:"notifyRetryDelaySeconds"`

	SecureCookies bool `yaml:"secureCookies"`

	TrustedProxies []string `yaml:"trustedProxies"`
	AllowedOrigins []string `yaml:"allowedOrigins"`
}

// Load reads config from path (defaults to config.yaml).
func Load(path string) (FileConfig, error) {
	cfg := FileConfig{}
	if path == "" {
		path = ConfigPath
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	// Override with environment variables
	if v := os.Getenv("PORT"); v != "" {
		cfg.Port = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("LOGS_DIR"); v != "" {
		cfg.LogsDir = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.DatabaseURL = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.RedisAddr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.RedisPassword = v
	}
	if v := os.Getenv("HIREFLOW_SESSION_SECRET"); v != "" {
		cfg.SessionSecret = v
	}
	if v := os.Getenv("HIREFLOW_SESSION_TTL_HOURS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.SessionTTLHours = n
		}
	}
	if v := os.Getenv("STORAGE_ENDPOINT"); v != "" {
		cfg.StorageEndpoint = v
	}
	if v := os.Getenv("STORAGE_ACCESS_KEY"); v != "" {
		cfg.StorageAccessKey = v
	}
	if v := os.Getenv("STORAGE_SECRET_KEY"); v != "" {
		cfg.StorageSecretKey = v
	}
	if v := os.Getenv("STORAGE_BUCKET"); v != "" {
		cfg.StorageBucket = v
	}
	if v := os.Getenv("STORAGE_PUBLIC_BASE_URL"); v != "" {
		cfg.StoragePublicBaseURL = v
	}
	if v := os.Getenv("STORAGE_USE_SSL"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.StorageUseSSL = b
		}
	}
	if v := os.Getenv("AI_PROVIDER"); v != "" {
		cfg.AIProvider = v
	}
	if v := os.Getenv("AI_BASE_URL"); v != "" {
		cfg.AIBaseURL = v
	}
	if v := os.Getenv("AI_API_KEY"); v != "" {
		cfg.AIAPIKey = v
	}
	if v := os.Getenv("AI_MODEL"); v != "" {
		cfg.AIModel = v
	}
	if v := os.Getenv("EXTRACTOR_URL"); v != "" {
		cfg.ExtractorURL = v
	}
	if v := os.Getenv("SMTP_HOST"); v != "" {
		cfg.SMTPHost = v
	}
	if v := os.Getenv("SMTP_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.SMTPPort = n
		}
	}
	if v := os.Getenv("SMTP_USERNAME"); v != "" {
		cfg.SMTPUsername = v
	}
	if v := os.Getenv("SMTP_PASSWORD"); v != "" {
		cfg.SMTPPassword = v
	}
	if v := os.Getenv("SMTP_FROM"); v != "" {
		cfg.SMTPFrom = v
	}
	if v := os.Getenv("NOTIFY_STREAM"); v != "" {
		cfg.NotifyStream = v
	}
	if v := os.Getenv("NOTIFY_GROUP"); v != "" {
		cfg.NotifyGroup = v
	}
	if v := os.Getenv("NOTIFY_CONCURRENCY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.NotifyConcurrency = n
		}
	}
	if v := os.Getenv("NOTIFY_MAX_RETRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.NotifyMaxRetries = n
		}
	}
	if v := os.Getenv("NOTIFY_RETRY_DELAY_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.NotifyRetryDelaySeconds = n
		}
	}
	if v := os.Getenv("SECURE_COOKIES"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.SecureCookies = b
		}
	}
	if v := os.Getenv("TRUSTED_PROXIES"); v != "" {
		cfg.TrustedProxies = splitCSV(v)
	}
	if v := os.Getenv("ALLOWED_ORIGINS"); v != "" {
		cfg.AllowedOrigins = splitCSV(v)
	}
	if err := validateConfig(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func validateConfig(cfg FileConfig) error {
	if cfg.Port == "" {
		return errors.New("config: port is required (set in config.yaml)")
	}
	if strings.TrimSpace(cfg.SessionSecret) == "" {
		return errors.New("config: sessionSecret is required (set in config.yaml or HIREFLOW_SESSION_SECRET)")
	}
	if cfg.SessionTTLHours < 0 {
		return errors.New("config: sessionTTLHours must be >= 0")
	}
	if cfg.RedisAddr == "" {
		return errors.New("config: redisAddr is required (set in config.yaml or REDIS_ADDR)")
	}
	if cfg.StorageEndpoint == "" || cfg.StorageAccessKey == "" || cfg.StorageSecretKey == "" || cfg.StorageBucket == "" {
		return errors.New("config: resume storage requires storageEndpoint, storageAccessKey, storageSecretKey and storageBucket")
	}
	switch strings.TrimSpace(cfg.AIProvider) {
	case "", "openai", "gemini":
	default:
		return fmt.Errorf("config: unknown aiProvider %q (expected openai or gemini)", cfg.AIProvider)
	}
	if cfg.AIProvider == "gemini" && strings.TrimSpace(cfg.AIBaseURL) != "" {
		return errors.New("config: aiBaseURL applies only to aiProvider=openai")
	}
	if cfg.NotifyConcurrency < 0 {
		return errors.New("config: notifyConcurrency must be >= 0")
	}
	if cfg.NotifyMaxRetries < 0 {
		return errors.New("config: notifyMaxRetries must be >= 0")
	}
	if cfg.NotifyRetryDelaySeconds < 0 {
		return errors.New("config: notifyRetryDelaySeconds must be >= 0")
	}
	if cfg.SMTPHost != "" && strings.TrimSpace(cfg.SMTPFrom) == "" {
		return errors.New("config: smtpFrom is required when smtpHost is set")
	}
	return nil
}
