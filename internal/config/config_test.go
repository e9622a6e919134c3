package config

import (
	"os"
	"path/filepath"
	"testing"
)

const baseYAML = `
port: "8080"
logLevel: "info"
sessionSecret: "test-secret"
redisAddr: "localhost:6379"
storageEndpoint: "localhost:9000"
storageAccessKey: "minio"
storageSecretKey: "minio123"
storageBucket: "resumes"
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(cfgPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return cfgPath
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("AI_PROVIDER", "openai")
	t.Setenv("AI_API_KEY", "sk-test")
	t.Setenv("AI_MODEL", "gpt-test")
	t.Setenv("NOTIFY_CONCURRENCY", "4")
	t.Setenv("TRUSTED_PROXIES", "10.0.0.1, 10.0.0.2")

	cfg, err := Load(writeConfig(t, baseYAML))
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Port != "9090" {
		t.Errorf("port = %q, want 9090", cfg.Port)
	}
	if cfg.AIProvider != "openai" || cfg.AIAPIKey != "sk-test" || cfg.AIModel != "gpt-test" {
		t.Errorf("ai config = %q/%q/%q", cfg.AIProvider, cfg.AIAPIKey, cfg.AIModel)
	}
	if cfg.NotifyConcurrency != 4 {
		t.Errorf("notifyConcurrency = %d, want 4", cfg.NotifyConcurrency)
	}
	if len(cfg.TrustedProxies) != 2 || cfg.TrustedProxies[0] != "10.0.0.1" {
		t.Errorf("trustedProxies = %v", cfg.TrustedProxies)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestValidateConfigRequiresStorage(t *testing.T) {
	cfg := FileConfig{
		Port:          "8080",
		SessionSecret: "s",
		RedisAddr:     "localhost:6379",
	}
	if err := validateConfig(cfg); err == nil {
		t.Fatal("expected error for missing storage settings")
	}
}

func TestValidateConfigRequiresSessionSecret(t *testing.T) {
	cfg := FileConfig{
		Port:             "8080",
		SessionSecret:    "   ",
		RedisAddr:        "localhost:6379",
		StorageEndpoint:  "localhost:9000",
		StorageAccessKey: "minio",
		StorageSecretKey: "minio123",
		StorageBucket:    "resumes",
	}
	if err := validateConfig(cfg); err == nil {
		t.Fatal("expected error for blank session secret")
	}
}

func TestValidateConfigRejectsUnknownAIProvider(t *testing.T) {
	cfg, err := Load(writeConfig(t, baseYAML+`aiProvider: "anthropic"`))
	if err == nil {
		t.Fatalf("expected error for unknown provider, got %+v", cfg)
	}
}

func TestValidateConfigAllowsMissingAIKey(t *testing.T) {
	cfg, err := Load(writeConfig(t, baseYAML))
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.AIAPIKey != "" {
		t.Errorf("expected empty ai key, got %q", cfg.AIAPIKey)
	}
}
