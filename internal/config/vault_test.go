package config

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"hrassist/internal/errors"

	"github.com/hashicorp/vault/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger() *errors.Logger {
	logger, _ := errors.New("debug")
	return logger
}

type fakeSecrets map[string]*VaultSecret

func (f fakeSecrets) GetSecretV2(_ context.Context, path string) (*VaultSecret, error) {
	if s, ok := f[path]; ok {
		return s, nil
	}
	return nil, fmt.Errorf("secret not found at path: %s", path)
}

func TestParseVersionValue(t *testing.T) {
	tests := []struct {
		name        string
		input       any
		expected    int64
		expectError bool
	}{
		{name: "int64 value", input: int64(42), expected: 42},
		{name: "int value", input: 7, expected: 7},
		{name: "float64 value", input: float64(42.0), expected: 42},
		{name: "string value", input: "42", expected: 42},
		{name: "json number", input: json.Number("12"), expected: 12},
		{name: "invalid string value", input: "not-a-number", expectError: true},
		{name: "unsupported type", input: []string{"42"}, expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := parseVersionValue(tt.input, "secret/data/test")
			if tt.expectError {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestApplyGeminiKeyToConfig(t *testing.T) {
	cfg := &Config{AI: AIConfig{
		JobExtraction: OperationAIConfig{APIKey: "existing-job-key"},
	}}

	applyGeminiKeyToConfig(cfg, "vault-key")

	assert.Equal(t, "vault-key", cfg.AI.APIKey)
	assert.Equal(t, "vault-key", cfg.AI.ResumeExtraction.APIKey)
	assert.Equal(t, "existing-job-key", cfg.AI.JobExtraction.APIKey)
	assert.Equal(t, "vault-key", cfg.AI.LeaveSummary.APIKey)
}

func TestResolveVaultToken(t *testing.T) {
	logger := newTestLogger()

	t.Run("token from config", func(t *testing.T) {
		token, err := resolveVaultToken(VaultConfig{Token: "direct-token"}, logger)
		assert.NoError(t, err)
		assert.Equal(t, "direct-token", token)
	})

	t.Run("token from file", func(t *testing.T) {
		tokenFile := filepath.Join(t.TempDir(), "vault-token")
		require.NoError(t, os.WriteFile(tokenFile, []byte("  file-token  \n"), 0600))

		token, err := resolveVaultToken(VaultConfig{TokenFile: tokenFile}, logger)
		assert.NoError(t, err)
		assert.Equal(t, "file-token", token)
	})

	t.Run("missing token file", func(t *testing.T) {
		_, err := resolveVaultToken(VaultConfig{TokenFile: "/nonexistent/token/file"}, logger)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to read vault token file")
	})

	t.Run("no token provided", func(t *testing.T) {
		_, err := resolveVaultToken(VaultConfig{}, logger)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "vault token is required")
	})
}

func TestApplySecrets(t *testing.T) {
	secrets := fakeSecrets{
		"secret/data/api":     {Data: map[string]any{"keys": "k1, k2,,k3"}, Version: 3},
		"secret/data/gemini":  {Data: map[string]any{"api_key": "gm-key"}, Version: 1},
		"secret/data/tls":     {Data: map[string]any{"cert": "cert-pem", "key": "key-pem"}, Version: 1},
		"secret/data/storage": {Data: map[string]any{"path": "/var/lib/hrassist/hr.db"}, Version: 2},
	}

	cfg := &Config{Vault: VaultConfig{Enabled: true, Secrets: VaultSecrets{
		APIKeys:   "secret/data/api",
		GeminiKey: "secret/data/gemini",
		TLSCerts:  "secret/data/tls",
		Storage:   "secret/data/storage",
	}}}

	require.NoError(t, applySecrets(context.Background(), secrets, cfg, newTestLogger()))

	assert.Equal(t, []string{"k1", "k2", "k3"}, cfg.Server.APIKeys)
	assert.Equal(t, "gm-key", cfg.AI.APIKey)
	assert.Equal(t, "gm-key", cfg.AI.LeaveSummary.APIKey)
	assert.Equal(t, "cert-pem", cfg.Server.TLS.CertContent)
	assert.Equal(t, "key-pem", cfg.Server.TLS.KeyContent)
	assert.Empty(t, cfg.Server.TLS.CAContent)
	assert.Equal(t, "/var/lib/hrassist/hr.db", cfg.Storage.Path)
}

func TestApplySecretsErrors(t *testing.T) {
	t.Run("missing secret", func(t *testing.T) {
		cfg := &Config{Vault: VaultConfig{Secrets: VaultSecrets{GeminiKey: "secret/data/nope"}}}
		err := applySecrets(context.Background(), fakeSecrets{}, cfg, newTestLogger())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Gemini API key")
	})

	t.Run("non string field", func(t *testing.T) {
		secrets := fakeSecrets{"secret/data/api": {Data: map[string]any{"keys": 12}}}
		cfg := &Config{Vault: VaultConfig{Secrets: VaultSecrets{APIKeys: "secret/data/api"}}}
		err := applySecrets(context.Background(), secrets, cfg, newTestLogger())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "is not a string")
	})
}

func TestApplyVaultSecretsDisabled(t *testing.T) {
	cfg := &Config{Vault: VaultConfig{Enabled: false}}
	assert.NoError(t, ApplyVaultSecrets(context.Background(), cfg, newTestLogger()))
}

func TestExtractSecretData(t *testing.T) {
	tests := []struct {
		name        string
		secret      *api.Secret
		expectError bool
		expected    map[string]any
	}{
		{
			name: "valid KVv2 secret",
			secret: &api.Secret{Data: map[string]any{
				"data": map[string]any{"key1": "value1", "key2": "value2"},
			}},
			expected: map[string]any{"key1": "value1", "key2": "value2"},
		},
		{
			name:        "missing data field",
			secret:      &api.Secret{Data: map[string]any{"metadata": map[string]any{}}},
			expectError: true,
		},
		{
			name:        "data field wrong type",
			secret:      &api.Secret{Data: map[string]any{"data": "not-a-map"}},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := extractSecretData(tt.secret, "secret/test")
			if tt.expectError {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestExtractSecretVersion(t *testing.T) {
	tests := []struct {
		name        string
		secret      *api.Secret
		expectError bool
		expected    int64
	}{
		{
			name:     "version as json number",
			secret:   &api.Secret{Data: map[string]any{"metadata": map[string]any{"version": json.Number("5")}}},
			expected: 5,
		},
		{
			name:     "version as float64",
			secret:   &api.Secret{Data: map[string]any{"metadata": map[string]any{"version": float64(42)}}},
			expected: 42,
		},
		{
			name:        "missing metadata field",
			secret:      &api.Secret{Data: map[string]any{"data": map[string]any{}}},
			expectError: true,
		},
		{
			name:        "missing version field",
			secret:      &api.Secret{Data: map[string]any{"metadata": map[string]any{"other": "value"}}},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := extractSecretVersion(tt.secret, "secret/test")
			if tt.expectError {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestMaskSecret(t *testing.T) {
	assert.Equal(t, "abcd****wxyz", maskSecret("abcdefghijklmnopqrstuvwxyz"))
	assert.Equal(t, "****", maskSecret("short"))
	assert.Equal(t, "", maskSecret(""))
}
