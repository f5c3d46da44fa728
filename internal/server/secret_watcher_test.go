package server

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"hrassist/internal/config"
)

// fakeVault serves versioned secrets and can be updated while a watcher polls it.
type fakeVault struct {
	mu      sync.Mutex
	secrets map[string]*config.VaultSecret
}

func (f *fakeVault) GetSecretV2(_ context.Context, path string) (*config.VaultSecret, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	secret, ok := f.secrets[path]
	if !ok {
		return nil, fmt.Errorf("secret not found at path: %s", path)
	}
	return secret, nil
}

func (f *fakeVault) set(path, keys string, version int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.secrets[path] = &config.VaultSecret{Data: map[string]any{"keys": keys}, Version: version}
}

func TestSecretWatcherCheckForUpdates(t *testing.T) {
	vault := &fakeVault{secrets: map[string]*config.VaultSecret{}}
	vault.set("secret/data/api", "k1, k2", 2)
	sw := NewSecretWatcher(vault, "secret/data/api", time.Minute, func([]string) {}, nil)
	ctx := context.Background()

	keys, changed, err := sw.checkForUpdates(ctx)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, []string{"k1", "k2"}, keys)

	_, changed, err = sw.checkForUpdates(ctx)
	require.NoError(t, err)
	assert.False(t, changed, "same version must not trigger a reload")

	vault.set("secret/data/api", "k3", 3)
	keys, changed, err = sw.checkForUpdates(ctx)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, []string{"k3"}, keys)
	assert.Equal(t, int64(3), sw.Status()["last_version"])
}

func TestSecretWatcherErrors(t *testing.T) {
	vault := &fakeVault{secrets: map[string]*config.VaultSecret{
		"secret/data/bad": {Data: map[string]any{"keys": 42}, Version: 1},
	}}

	sw := NewSecretWatcher(vault, "secret/data/missing", time.Minute, nil, nil)
	_, _, err := sw.checkForUpdates(context.Background())
	assert.ErrorContains(t, err, "failed to read secret")

	sw = NewSecretWatcher(vault, "secret/data/bad", time.Minute, nil, nil)
	_, _, err = sw.checkForUpdates(context.Background())
	assert.ErrorContains(t, err, "is not a string")
	assert.Equal(t, int64(0), sw.Status()["last_version"])
}

func TestSecretWatcherRotatesServerKeys(t *testing.T) {
	defer goleak.VerifyNone(t)

	vault := &fakeVault{secrets: map[string]*config.VaultSecret{}}
	vault.set("secret/data/api", "rotated-key", 1)

	s := NewServer(ServerConfig{APIKeys: []string{"initial-key"}}, Dependencies{}, nil)
	rotated := make(chan struct{}, 1)
	sw := NewSecretWatcher(vault, "secret/data/api", 10*time.Millisecond, func(keys []string) {
		s.SetAPIKeys(keys)
		select {
		case rotated <- struct{}{}:
		default:
		}
	}, nil)

	require.NoError(t, sw.Start(context.Background()))
	assert.Error(t, sw.Start(context.Background()), "second start must fail")

	select {
	case <-rotated:
	case <-time.After(2 * time.Second):
		t.Fatal("keys were not rotated")
	}
	sw.Stop()
	sw.Stop()

	assert.True(t, s.validAPIKey("rotated-key"))
	assert.False(t, s.validAPIKey("initial-key"))
	assert.Equal(t, false, sw.Status()["running"])
}
