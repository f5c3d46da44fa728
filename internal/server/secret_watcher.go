package server

import (
	"context"
	"fmt"
	"sync"
	"time"

	"hrassist/internal/config"
	"hrassist/internal/errors"
)

// KeysCallback receives the API keys of a new secret version.
type KeysCallback func(keys []string)

// SecretWatcher polls the Vault API key secret and hands every new version's keys
// to a callback. The first poll after Start always delivers the current keys.
type SecretWatcher struct {
	mu sync.RWMutex

	client       config.SecretReader
	secretPath   string
	pollInterval time.Duration
	onKeys       KeysCallback
	logger       *errors.Logger

	stop        context.CancelFunc
	done        chan struct{}
	running     bool
	lastVersion int64
	lastError   string
	lastChecked time.Time
}

// NewSecretWatcher creates a watcher for the secret at secretPath.
func NewSecretWatcher(client config.SecretReader, secretPath string, pollInterval time.Duration, onKeys KeysCallback, logger *errors.Logger) *SecretWatcher {
	if logger == nil {
		logger = errors.Discard()
	}
	if pollInterval <= 0 {
		pollInterval = time.Minute
	}
	return &SecretWatcher{
		client:       client,
		secretPath:   secretPath,
		pollInterval: pollInterval,
		onKeys:       onKeys,
		logger:       logger,
	}
}

// Start begins polling until ctx is done or Stop is called.
func (sw *SecretWatcher) Start(ctx context.Context) error {
	sw.mu.Lock()
	defer sw.mu.Unlock()
	if sw.running {
		return fmt.Errorf("secret watcher is already running")
	}

	ctx, sw.stop = context.WithCancel(ctx)
	sw.done = make(chan struct{})
	sw.running = true
	go sw.pollLoop(ctx, sw.done)

	sw.logger.Info("Secret watcher started", "secret_path", sw.secretPath, "poll_interval", sw.pollInterval)
	return nil
}

// Stop stops polling and waits for the loop to exit.
func (sw *SecretWatcher) Stop() {
	sw.mu.Lock()
	if !sw.running {
		sw.mu.Unlock()
		return
	}
	sw.stop()
	done := sw.done
	sw.running = false
	sw.mu.Unlock()

	<-done
	sw.logger.Info("Secret watcher stopped")
}

func (sw *SecretWatcher) pollLoop(ctx context.Context, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(sw.pollInterval)
	defer ticker.Stop()

	for {
		sw.poll(ctx)
		select {
		case <-ticker.C:
		case <-ctx.Done():
			return
		}
	}
}

func (sw *SecretWatcher) poll(ctx context.Context) {
	keys, changed, err := sw.checkForUpdates(ctx)

	sw.mu.Lock()
	sw.lastChecked = time.Now()
	sw.lastError = ""
	if err != nil {
		sw.lastError = err.Error()
	}
	sw.mu.Unlock()

	if err != nil {
		sw.logger.LogError(err, "Failed to check Vault for API key updates", "secret_path", sw.secretPath)
		return
	}
	if !changed {
		return
	}
	if len(keys) == 0 {
		sw.logger.Warn("API key secret is empty, keeping current keys", "secret_path", sw.secretPath)
		return
	}

	sw.logger.Info("API keys rotated from Vault", "count", len(keys))
	sw.onKeys(keys)
}

// checkForUpdates reads the secret and reports its keys when the version moved forward.
func (sw *SecretWatcher) checkForUpdates(ctx context.Context) ([]string, bool, error) {
	secret, err := sw.client.GetSecretV2(ctx, sw.secretPath)
	if err != nil {
		return nil, false, fmt.Errorf("failed to read secret: %w", err)
	}
	if secret == nil {
		return nil, false, fmt.Errorf("secret %s not found", sw.secretPath)
	}

	sw.mu.Lock()
	defer sw.mu.Unlock()
	if secret.Version <= sw.lastVersion {
		return nil, false, nil
	}

	keys, err := config.APIKeysFromSecret(secret, sw.secretPath)
	if err != nil {
		return nil, false, err
	}
	sw.lastVersion = secret.Version
	return keys, true, nil
}

// Status returns the current status of the watcher for health reporting
func (sw *SecretWatcher) Status() map[string]any {
	sw.mu.RLock()
	defer sw.mu.RUnlock()
	return map[string]any{
		"running":       sw.running,
		"poll_interval": sw.pollInterval.String(),
		"secret_path":   sw.secretPath,
		"last_version":  sw.lastVersion,
		"last_error":    sw.lastError,
		"last_checked":  sw.lastChecked,
	}
}
