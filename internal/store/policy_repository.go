package store

import (
	"context"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"hrassist/internal/errors"
	"hrassist/internal/leave"
	"hrassist/internal/types"
)

// Policy sources reported alongside a policy set.
const (
	PolicySourceStore   = "store"
	PolicySourceDefault = "default"
)

const (
	policyDocument       = "company_policies"
	defaultPolicyTTL     = 30 * time.Second
	defaultPolicyEntries = 8
)

// PolicyBackend is where policies are persisted.
type PolicyBackend interface {
	GetPolicies(ctx context.Context) (types.PolicySet, error)
	UpdatePolicy(ctx context.Context, leaveType string, p types.LeavePolicy) (types.LeavePolicy, error)
	ReplacePolicies(ctx context.Context, set types.PolicySet) error
}

type policyEntry struct {
	set      types.PolicySet
	storedAt time.Time
}

// PolicyRepository serves leave policies from a short-lived cache in front of the
// backend. Reads never fail: without a usable backend the built-in defaults are served.
type PolicyRepository struct {
	backend PolicyBackend
	cache   *lru.Cache[string, policyEntry]
	ttl     time.Duration
	logger  *errors.Logger
}

// NewPolicyRepository creates a repository. backend may be nil.
func NewPolicyRepository(backend PolicyBackend, ttl time.Duration, logger *errors.Logger) *PolicyRepository {
	if ttl <= 0 {
		ttl = defaultPolicyTTL
	}
	if logger == nil {
		logger = errors.Discard()
	}
	cache, _ := lru.New[string, policyEntry](defaultPolicyEntries)
	return &PolicyRepository{backend: backend, cache: cache, ttl: ttl, logger: logger}
}

// Available reports whether policies can be changed.
func (r *PolicyRepository) Available() bool {
	return r.backend != nil
}

// Policies returns the current policy set and where it came from. An empty backend
// is seeded with the defaults.
func (r *PolicyRepository) Policies(ctx context.Context) types.PolicyListing {
	if r.backend == nil {
		return types.PolicyListing{Policies: leave.DefaultPolicies(), Source: PolicySourceDefault}
	}

	if entry, ok := r.cache.Get(policyDocument); ok {
		if time.Since(entry.storedAt) < r.ttl {
			return types.PolicyListing{Policies: leave.ClonePolicies(entry.set), Source: PolicySourceStore}
		}
		r.cache.Remove(policyDocument)
	}

	set, err := r.backend.GetPolicies(ctx)
	if err != nil {
		r.logger.LogError(err, "Falling back to default leave policies")
		return types.PolicyListing{Policies: leave.DefaultPolicies(), Source: PolicySourceDefault}
	}

	if len(set) == 0 {
		set = leave.DefaultPolicies()
		if err := r.backend.ReplacePolicies(ctx, set); err != nil {
			r.logger.LogError(err, "Failed to seed default leave policies")
			return types.PolicyListing{Policies: set, Source: PolicySourceDefault}
		}
		r.logger.Info("Seeded default leave policies", "leave_types", leave.LeaveTypes(set))
	}

	r.cache.Add(policyDocument, policyEntry{set: leave.ClonePolicies(set), storedAt: time.Now()})
	return types.PolicyListing{Policies: set, Source: PolicySourceStore}
}

// Update changes the policy of one leave type and returns the stored policy.
func (r *PolicyRepository) Update(ctx context.Context, leaveType string, p types.LeavePolicy) (types.LeavePolicy, error) {
	if r.backend == nil {
		return types.LeavePolicy{}, errors.NewStorageError(errors.ErrCodeStoreUnavailable,
			"policy updates need a database connection", nil)
	}
	// make sure the defaults exist so a single update does not leave the other types undefined
	r.Policies(ctx)

	updated, err := r.backend.UpdatePolicy(ctx, leaveType, p)
	r.cache.Remove(policyDocument)
	if err != nil {
		return types.LeavePolicy{}, err
	}
	return updated, nil
}

// Replace swaps the whole policy set.
func (r *PolicyRepository) Replace(ctx context.Context, set types.PolicySet) error {
	if r.backend == nil {
		return errors.NewStorageError(errors.ErrCodeStoreUnavailable,
			"policy updates need a database connection", nil)
	}
	err := r.backend.ReplacePolicies(ctx, set)
	r.cache.Remove(policyDocument)
	return err
}

// Invalidate drops cached policies so the next read goes to the backend.
func (r *PolicyRepository) Invalidate() {
	r.cache.Purge()
}
