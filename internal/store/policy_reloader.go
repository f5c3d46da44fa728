package store

import (
	"context"
	"os"
	"time"

	"hrassist/internal/errors"
	"hrassist/internal/leave"
	"hrassist/internal/watch"
)

// ImportPolicyFile loads a YAML policy file into the repository.
func ImportPolicyFile(ctx context.Context, repo *PolicyRepository, path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, errors.NewIOError(errors.ErrCodeFileNotReadable, "failed to read policy file", err).
			WithContext("file", path)
	}
	set, err := leave.ParsePolicyYAML(data)
	if err != nil {
		return 0, err
	}
	if err := repo.Replace(ctx, set); err != nil {
		return 0, err
	}
	return len(set), nil
}

// PolicyReloader re-imports a policy file whenever it changes on disk.
type PolicyReloader struct {
	repo    *PolicyRepository
	path    string
	timeout time.Duration
	watcher *watch.FileWatcher
	logger  *errors.Logger
}

// NewPolicyReloader creates a reloader for path. Call Start to import and begin watching.
func NewPolicyReloader(repo *PolicyRepository, path string, debounce time.Duration, logger *errors.Logger) (*PolicyReloader, error) {
	if logger == nil {
		logger = errors.Discard()
	}
	r := &PolicyReloader{repo: repo, path: path, timeout: 10 * time.Second, logger: logger}

	w, err := watch.NewFileWatcher([]string{path}, debounce, r.reload, logger)
	if err != nil {
		return nil, err
	}
	r.watcher = w
	return r, nil
}

// Start imports the file once and then watches it.
func (r *PolicyReloader) Start(ctx context.Context) error {
	n, err := ImportPolicyFile(ctx, r.repo, r.path)
	if err != nil {
		return err
	}
	r.logger.Info("Leave policies imported", "file", r.path, "leave_types", n)
	return r.watcher.Start()
}

// Stop stops watching.
func (r *PolicyReloader) Stop() error {
	return r.watcher.Stop()
}

func (r *PolicyReloader) reload() {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	n, err := ImportPolicyFile(ctx, r.repo, r.path)
	if err != nil {
		// keep serving the previous policies
		r.logger.LogError(err, "Failed to reload leave policies", "file", r.path)
		return
	}
	r.logger.Info("Leave policies reloaded", "file", r.path, "leave_types", n)
}
