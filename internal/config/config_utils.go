package config

import (
	"fmt"
	"os"
	"strings"
)

// applyFallbacks fills values that depend on other values or on legacy variables.
func (c *Config) applyFallbacks() {
	c.applyAPIKeyFallbacks()
	c.applyTLSDefaults()
	c.applyObservabilityDefaults()

	if c.Matching.Concurrency == 0 {
		c.Matching.Concurrency = 1
	}
}

// applyAPIKeyFallbacks accepts GEMINI_API_KEY and a comma separated server key list.
func (c *Config) applyAPIKeyFallbacks() {
	if c.AI.APIKey == "" {
		if key := os.Getenv("GEMINI_API_KEY"); key != "" {
			c.AI.APIKey = key
		}
	}

	// env values arrive comma separated and possibly padded
	c.Server.APIKeys = splitKeys(strings.Join(c.Server.APIKeys, ","))
	if len(c.Server.APIKeys) == 0 {
		if env := os.Getenv(EnvPrefix + "_SERVER_APIKEYS"); env != "" {
			c.Server.APIKeys = splitKeys(env)
		}
	}
}

func splitKeys(s string) []string {
	var keys []string
	for _, key := range strings.Split(s, ",") {
		if key = strings.TrimSpace(key); key != "" {
			keys = append(keys, key)
		}
	}
	return keys
}

func (c *Config) applyTLSDefaults() {
	if c.Server.TLS.Mode == "" {
		c.Server.TLS.Mode = "disabled"
	}
	if c.Server.TLS.Mode == "mutual" && c.Server.TLS.ClientAuthPolicy == "" {
		c.Server.TLS.ClientAuthPolicy = "require"
	}
	if c.Server.TLS.MinVersion == "" && c.Server.TLS.Mode != "disabled" {
		c.Server.TLS.MinVersion = "1.2"
	}
}

func (c *Config) applyObservabilityDefaults() {
	if c.Observability.ServiceInstance == "" {
		c.Observability.ServiceInstance = generateServiceInstanceID(c.Observability.ServiceName)
	}
}

func generateServiceInstanceID(serviceName string) string {
	if hostname, err := os.Hostname(); err == nil {
		return fmt.Sprintf("%s-%s", serviceName, hostname)
	}
	return fmt.Sprintf("%s-1", serviceName)
}

// logConfigurationSources prints where the configuration came from, masking secrets.
func (c *Config) logConfigurationSources(configFileUsed string) {
	if configFileUsed != "" {
		logf("Config file: %s", configFileUsed)
	} else {
		logf("Config file: none (defaults and environment)")
	}

	for _, env := range []string{
		EnvPrefix + "_AI_APIKEY",
		EnvPrefix + "_AI_MODEL",
		EnvPrefix + "_SERVER_PORT",
		EnvPrefix + "_SERVER_HOST",
		EnvPrefix + "_STORAGE_PATH",
		EnvPrefix + "_APP_LOGLEVEL",
		EnvPrefix + "_VAULT_ENABLED",
		"GEMINI_API_KEY",
	} {
		value := os.Getenv(env)
		if value == "" {
			continue
		}
		if strings.Contains(strings.ToLower(env), "key") {
			value = "***MASKED***"
		}
		logf("  %s=%s", env, value)
	}

	logf("AI: provider=%s model=%s key_configured=%t", c.AI.Provider, c.AI.Model, c.AIEnabled())
	logf("Server: %s:%s tls=%s api_keys=%d", c.Server.Host, c.Server.Port, c.Server.TLS.Mode, len(c.Server.APIKeys))
	logf("Storage: enabled=%t path=%s", c.Storage.Enabled, c.Storage.Path)
	logf("Leave policy file: %q (watch=%t)", c.Leave.PolicyFile, c.Leave.WatchPolicy)
	logf("Vault enabled: %t", c.Vault.Enabled)
}
