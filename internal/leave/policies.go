package leave

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"

	"hrassist/internal/errors"
	"hrassist/internal/types"
)

// DefaultPolicies returns the built-in company policy set. Each call returns a fresh copy.
func DefaultPolicies() types.PolicySet {
	return types.PolicySet{
		types.LeaveCasual: {MaxDaysPerRequest: IntPtr(5), RequiresNotice: 1},
		types.LeaveSick:   {MaxDaysPerRequest: IntPtr(10), RequiresNotice: 0, RequiresMedicalCertificateAfter: IntPtr(3)},
		types.LeaveAnnual: {MaxDaysPerRequest: IntPtr(15), RequiresNotice: 7},
	}
}

// ClonePolicies deep-copies a policy set so callers can mutate the result freely.
func ClonePolicies(src types.PolicySet) types.PolicySet {
	out := make(types.PolicySet, len(src))
	for name, p := range src {
		out[name] = ClonePolicy(p)
	}
	return out
}

// ClonePolicy deep-copies a single policy.
func ClonePolicy(p types.LeavePolicy) types.LeavePolicy {
	c := types.LeavePolicy{RequiresNotice: p.RequiresNotice}
	if p.MaxDaysPerRequest != nil {
		c.MaxDaysPerRequest = IntPtr(*p.MaxDaysPerRequest)
	}
	if p.RequiresMedicalCertificateAfter != nil {
		c.RequiresMedicalCertificateAfter = IntPtr(*p.RequiresMedicalCertificateAfter)
	}
	return c
}

// LeaveTypes returns the policy names in sorted order.
func LeaveTypes(policies types.PolicySet) []string {
	return slices.Sorted(maps.Keys(policies))
}

// NormalizeLeaveType lower-cases and trims a leave type name.
func NormalizeLeaveType(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// ValidatePolicy rejects negative limits.
func ValidatePolicy(p types.LeavePolicy) error {
	if p.MaxDaysPerRequest != nil && *p.MaxDaysPerRequest < 0 {
		return errors.NewValidationError(errors.ErrCodeInvalidPolicy,
			"max_days_per_request must not be negative", nil).
			WithContext("max_days_per_request", *p.MaxDaysPerRequest)
	}
	if p.RequiresNotice < 0 {
		return errors.NewValidationError(errors.ErrCodeInvalidPolicy,
			"requires_notice must not be negative", nil).
			WithContext("requires_notice", p.RequiresNotice)
	}
	if p.RequiresMedicalCertificateAfter != nil && *p.RequiresMedicalCertificateAfter < 0 {
		return errors.NewValidationError(errors.ErrCodeInvalidPolicy,
			"requires_medical_certificate_after must not be negative", nil).
			WithContext("requires_medical_certificate_after", *p.RequiresMedicalCertificateAfter)
	}
	return nil
}

// policyFile is the YAML layout of a policy seed file.
type policyFile struct {
	LeaveTypes map[string]map[string]any `yaml:"leave_types"`
}

// ParsePolicyYAML reads a policy seed document of the form
//
//	leave_types:
//	  casual:
//	    max_days_per_request: 5
//	    requires_notice: 1
func ParsePolicyYAML(data []byte) (types.PolicySet, error) {
	var doc policyFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.NewValidationError(errors.ErrCodeInvalidFormat, "failed to parse policy YAML", err)
	}
	if len(doc.LeaveTypes) == 0 {
		return nil, errors.NewValidationError(errors.ErrCodeInvalidPolicy, "policy file defines no leave_types", nil)
	}
	return DecodePolicies(doc.LeaveTypes)
}

// DecodePolicies converts loosely typed maps (from YAML or viper) into a policy set.
func DecodePolicies(raw map[string]map[string]any) (types.PolicySet, error) {
	set := make(types.PolicySet, len(raw))
	for name, fields := range raw {
		p, err := DecodePolicy(fields)
		if err != nil {
			return nil, fmt.Errorf("leave type %q: %w", name, err)
		}
		set[NormalizeLeaveType(name)] = p
	}
	return set, nil
}

// DecodePolicy converts one loosely typed policy map into a LeavePolicy.
func DecodePolicy(fields map[string]any) (types.LeavePolicy, error) {
	var p types.LeavePolicy
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &p,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
	})
	if err != nil {
		return p, errors.NewInternalError(errors.ErrCodeInvalidPolicy, "failed to create policy decoder", err)
	}
	if err := decoder.Decode(fields); err != nil {
		return p, errors.NewValidationError(errors.ErrCodeInvalidPolicy, "invalid policy fields", err)
	}
	if err := ValidatePolicy(p); err != nil {
		return p, err
	}
	return p, nil
}

// MarshalPolicyYAML renders a policy set in the seed file layout.
func MarshalPolicyYAML(policies types.PolicySet) ([]byte, error) {
	doc := struct {
		LeaveTypes types.PolicySet `yaml:"leave_types"`
	}{LeaveTypes: policies}
	return yaml.Marshal(doc)
}

// IntPtr returns a pointer to v, for building policies inline.
func IntPtr(v int) *int { return &v }
