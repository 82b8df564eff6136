package config

import "os"

// CredentialSource represents where a credential comes from.
type CredentialSource string

const (
	SourceEnv    CredentialSource = "env"
	SourceConfig CredentialSource = "config"
	SourceNone   CredentialSource = "none"
)

// KeyStatus represents the status of a configured credential.
type KeyStatus struct {
	Name   string           `json:"name"`
	Source CredentialSource `json:"source"`
	IsSet  bool             `json:"is_set"`
	Masked string           `json:"masked,omitempty"` // e.g., "sk-...abc"
}

// CheckCredentials returns the status of all credentials the pipeline uses.
func CheckCredentials(cfg *Config) []KeyStatus {
	return []KeyStatus{
		checkKey("Anthropic API Key", cfg.Classifier.AnthropicKey, "BRANDPULSE_CLASSIFIER_ANTHROPIC_KEY"),
		checkKey("OpenAI API Key", cfg.Classifier.OpenAIKey, "BRANDPULSE_CLASSIFIER_OPENAI_KEY"),
		checkKey("Twitter Bearer Token", cfg.Sources.Twitter.BearerToken, "BRANDPULSE_SOURCES_TWITTER_BEARER_TOKEN"),
		checkKey("Slack Webhook URL", cfg.Notify.WebhookURL, "BRANDPULSE_NOTIFY_WEBHOOK_URL"),
		checkKey("Slack Bot Token", cfg.Notify.BotToken, "BRANDPULSE_NOTIFY_BOT_TOKEN"),
	}
}

// checkKey checks if a credential is set and where it came from.
func checkKey(name, value, envVar string) KeyStatus {
	status := KeyStatus{
		Name:  name,
		IsSet: value != "",
	}

	if value != "" {
		if os.Getenv(envVar) != "" {
			status.Source = SourceEnv
		} else {
			status.Source = SourceConfig
		}
		status.Masked = maskKey(value)
	} else {
		status.Source = SourceNone
	}

	return status
}

// maskKey masks a credential for display, showing only first 3 and last 3 chars.
func maskKey(key string) string {
	if len(key) <= 8 {
		return "***"
	}
	return key[:3] + "..." + key[len(key)-3:]
}
