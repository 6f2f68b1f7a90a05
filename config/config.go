package config

import (
	"fmt"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"github.com/vectorpilot87/elastic-agent-builder-openclaw-skill/internal/credentials"
)

// Config holds the resolved connection settings for the Kibana Agent Builder
// API. Several settings accept more than one environment variable name; the
// raw fields below capture each spelling and Load resolves the precedence.
type Config struct {
	ElasticsearchURL string `envconfig:"ELASTICSEARCH_URL"`
	KibanaURL        string `envconfig:"KIBANA_URL"`

	ElasticsearchAPIKey string `envconfig:"ELASTICSEARCH_API_KEY"`
	KibanaAPIKey        string `envconfig:"KIBANA_API_KEY"`
	PlainAPIKey         string `envconfig:"API_KEY"`

	ElasticSpaceID string `envconfig:"ELASTIC_SPACE_ID"`
	KibanaSpaceID  string `envconfig:"KIBANA_SPACE_ID"`

	ElasticVerifySSL string `envconfig:"ELASTIC_VERIFY_SSL"`
	KibanaVerifySSL  string `envconfig:"KIBANA_VERIFY_SSL"`

	ElasticTimeoutS int `envconfig:"ELASTIC_TIMEOUT_S"`
	KibanaTimeoutS  int `envconfig:"KIBANA_TIMEOUT_S"`

	DefaultAgentID string `envconfig:"DEFAULT_AGENT_ID" default:"elastic-ai-agent"`
	LogLevel       string `envconfig:"LOG_LEVEL" default:"info"`
	ServerPort     int    `envconfig:"SERVER_PORT" default:"8080"`

	// Resolved values, populated by Load.
	BaseURL   string `ignored:"true"`
	APIKey    string `ignored:"true"`
	SpaceID   string `ignored:"true"`
	VerifySSL bool   `ignored:"true"`
	TimeoutS  int    `ignored:"true"`
}

// ParseBool interprets boolean-ish environment values: "1", "true", "yes",
// "y" and "on" (case-insensitive, trimmed) mean true; anything else means
// false; an empty/unset value yields the default.
func ParseBool(val string, def bool) bool {
	if val == "" {
		return def
	}
	switch strings.ToLower(strings.TrimSpace(val)) {
	case "1", "true", "yes", "y", "on":
		return true
	}
	return false
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// Load reads the process environment exactly once and resolves fallback
// chains and keychain-stored credentials into a Config.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	cfg.BaseURL = firstNonEmpty(cfg.ElasticsearchURL, cfg.KibanaURL)
	cfg.APIKey = firstNonEmpty(cfg.ElasticsearchAPIKey, cfg.KibanaAPIKey, cfg.PlainAPIKey)
	cfg.SpaceID = firstNonEmpty(cfg.ElasticSpaceID, cfg.KibanaSpaceID)

	cfg.BaseURL = credentials.GetOrEnv(credentials.KeyBaseURL, cfg.BaseURL)
	cfg.APIKey = credentials.GetOrEnv(credentials.KeyAPIKey, cfg.APIKey)
	cfg.SpaceID = credentials.GetOrEnv(credentials.KeySpaceID, cfg.SpaceID)

	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	cfg.VerifySSL = ParseBool(cfg.ElasticVerifySSL, ParseBool(cfg.KibanaVerifySSL, true))

	cfg.TimeoutS = cfg.ElasticTimeoutS
	if cfg.TimeoutS == 0 {
		cfg.TimeoutS = cfg.KibanaTimeoutS
	}
	if cfg.TimeoutS == 0 {
		cfg.TimeoutS = 300
	}

	cfg.DefaultAgentID = strings.TrimSpace(cfg.DefaultAgentID)

	return &cfg, nil
}

// Validate checks that the settings required before any network call are
// present. The message doubles as remediation text for the terminal.
func (c *Config) Validate() error {
	if c.BaseURL == "" || c.APIKey == "" {
		return fmt.Errorf("missing KIBANA_URL/ELASTICSEARCH_URL or KIBANA_API_KEY/ELASTICSEARCH_API_KEY\n" +
			"Set in the environment (or store with `agentctl config setup`):\n" +
			"  KIBANA_URL=https://your-kibana:5601\n" +
			"  KIBANA_API_KEY=...\n" +
			"Optional:\n" +
			"  KIBANA_SPACE_ID=default\n" +
			"  KIBANA_VERIFY_SSL=true\n" +
			"  DEFAULT_AGENT_ID=elastic-ai-agent")
	}
	return nil
}
