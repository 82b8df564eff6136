package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Classifier.BatchSize != 15 {
		t.Errorf("default batch size = %d, want 15", cfg.Classifier.BatchSize)
	}
	if cfg.Classifier.MaxRetries != 3 {
		t.Errorf("default max retries = %d, want 3", cfg.Classifier.MaxRetries)
	}
	if cfg.Classifier.BudgetUSD != 5.0 {
		t.Errorf("default budget = %v, want 5.0", cfg.Classifier.BudgetUSD)
	}
	if cfg.Cache.TTLHours != 168 {
		t.Errorf("default cache TTL = %d hours, want 168", cfg.Cache.TTLHours)
	}
	if cfg.Notify.CriticalThreshold != 5 {
		t.Errorf("default critical threshold = %d, want 5", cfg.Notify.CriticalThreshold)
	}
	if cfg.Store.RetentionDays != 30 {
		t.Errorf("default retention = %d days, want 30", cfg.Store.RetentionDays)
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte(`
brand:
  name: Acme
  keywords: ["acme", "@acme"]
classifier:
  provider: anthropic
  batch_size: 10
  budget_usd: 2.5
notify:
  critical_threshold: 3
`)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile() error: %v", err)
	}

	if cfg.Brand.Name != "Acme" {
		t.Errorf("brand name = %q, want Acme", cfg.Brand.Name)
	}
	if cfg.Classifier.BatchSize != 10 {
		t.Errorf("batch size = %d, want 10", cfg.Classifier.BatchSize)
	}
	if cfg.Classifier.BudgetUSD != 2.5 {
		t.Errorf("budget = %v, want 2.5", cfg.Classifier.BudgetUSD)
	}
	if cfg.Notify.CriticalThreshold != 3 {
		t.Errorf("critical threshold = %d, want 3", cfg.Notify.CriticalThreshold)
	}
	// Values not in the file keep their defaults.
	if cfg.Classifier.MaxRetries != 3 {
		t.Errorf("max retries = %d, want default 3", cfg.Classifier.MaxRetries)
	}
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("BRANDPULSE_CLASSIFIER_ANTHROPIC_KEY", "sk-ant-test-123456")
	t.Setenv("BRANDPULSE_NOTIFY_WEBHOOK_URL", "https://hooks.slack.com/services/T/B/X")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Classifier.AnthropicKey != "sk-ant-test-123456" {
		t.Errorf("anthropic key not overridden from env: %q", cfg.Classifier.AnthropicKey)
	}
	if cfg.Notify.WebhookURL != "https://hooks.slack.com/services/T/B/X" {
		t.Errorf("webhook URL not overridden from env: %q", cfg.Notify.WebhookURL)
	}
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			Brand: BrandConfig{Name: "Acme", Keywords: []string{"acme"}},
			Classifier: ClassifierConfig{
				Provider:     "anthropic",
				AnthropicKey: "sk-ant-x",
				BatchSize:    15,
				BudgetUSD:    5,
			},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"missing brand", func(c *Config) { c.Brand.Name = "" }, true},
		{"no keywords", func(c *Config) { c.Brand.Keywords = nil }, true},
		{"missing anthropic key", func(c *Config) { c.Classifier.AnthropicKey = "" }, true},
		{"unknown provider", func(c *Config) { c.Classifier.Provider = "cohere" }, true},
		{"zero batch size", func(c *Config) { c.Classifier.BatchSize = 0 }, true},
		{"zero budget", func(c *Config) { c.Classifier.BudgetUSD = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestCheckCredentials(t *testing.T) {
	cfg := &Config{}
	cfg.Classifier.AnthropicKey = "sk-ant-abcdef123456"

	statuses := CheckCredentials(cfg)
	if len(statuses) != 5 {
		t.Fatalf("expected 5 credential statuses, got %d", len(statuses))
	}

	anthropic := statuses[0]
	if !anthropic.IsSet {
		t.Error("anthropic key should be reported as set")
	}
	if anthropic.Masked != "sk-...456" {
		t.Errorf("masked key = %q, want sk-...456", anthropic.Masked)
	}

	twitter := statuses[2]
	if twitter.IsSet || twitter.Source != SourceNone {
		t.Errorf("unset credential should report none, got %+v", twitter)
	}
}
