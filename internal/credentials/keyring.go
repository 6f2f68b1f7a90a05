package credentials

import (
	"fmt"

	"github.com/zalando/go-keyring"
)

const serviceName = "agentctl"

type KeyType string

const (
	KeyAPIKey  KeyType = "kibana_api_key"
	KeyBaseURL KeyType = "kibana_url"
	KeySpaceID KeyType = "kibana_space_id"
)

func Set(key KeyType, value string) error {
	return keyring.Set(serviceName, string(key), value)
}

func Get(key KeyType) (string, error) {
	return keyring.Get(serviceName, string(key))
}

func Delete(key KeyType) error {
	return keyring.Delete(serviceName, string(key))
}

// GetOrEnv prefers the environment-derived value; the keychain is only a
// fallback, so exported variables always win.
func GetOrEnv(key KeyType, envValue string) string {
	if envValue != "" {
		return envValue
	}
	val, err := Get(key)
	if err != nil {
		return ""
	}
	return val
}

func ListConfigured() map[KeyType]bool {
	result := make(map[KeyType]bool)

	keys := []KeyType{KeyAPIKey, KeyBaseURL, KeySpaceID}
	for _, k := range keys {
		_, err := Get(k)
		result[k] = err == nil
	}

	return result
}

func ClearAll() error {
	var lastErr error
	keys := []KeyType{KeyAPIKey, KeyBaseURL, KeySpaceID}
	for _, k := range keys {
		if err := Delete(k); err != nil {
			lastErr = err
		}
	}
	return lastErr
}

func Setup(apiKey, baseURL, spaceID string) error {
	if apiKey != "" {
		if err := Set(KeyAPIKey, apiKey); err != nil {
			return fmt.Errorf("failed to store API key: %w", err)
		}
	}

	if baseURL != "" {
		if err := Set(KeyBaseURL, baseURL); err != nil {
			return fmt.Errorf("failed to store Kibana URL: %w", err)
		}
	}

	if spaceID != "" {
		if err := Set(KeySpaceID, spaceID); err != nil {
			return fmt.Errorf("failed to store space id: %w", err)
		}
	}

	return nil
}
