package store

import (
	"context"
	"database/sql"

	"hrassist/internal/errors"
	"hrassist/internal/leave"
	"hrassist/internal/types"
)

// GetPolicies returns the stored policy set. An empty set means nothing has been stored yet.
func (s *Store) GetPolicies(ctx context.Context) (types.PolicySet, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT leave_type, body FROM policies`)
	if err != nil {
		return nil, storageErr("load policies", err)
	}
	defer rows.Close()

	set := types.PolicySet{}
	for rows.Next() {
		var name, body string
		if err := rows.Scan(&name, &body); err != nil {
			return nil, storageErr("scan policy", err)
		}
		var p types.LeavePolicy
		if err := decode(body, &p); err != nil {
			return nil, err
		}
		set[name] = p
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("load policies", err)
	}
	return set, nil
}

// UpdatePolicy inserts or replaces the policy of one leave type.
func (s *Store) UpdatePolicy(ctx context.Context, leaveType string, p types.LeavePolicy) (types.LeavePolicy, error) {
	leaveType = leave.NormalizeLeaveType(leaveType)
	if leaveType == "" {
		return types.LeavePolicy{}, errors.NewValidationError(errors.ErrCodeInvalidPolicy, "leave type is required", nil)
	}
	if err := leave.ValidatePolicy(p); err != nil {
		return types.LeavePolicy{}, err
	}
	body, err := encode(p)
	if err != nil {
		return types.LeavePolicy{}, err
	}

	_, err = s.db.ExecContext(ctx, `INSERT INTO policies (leave_type, body, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(leave_type) DO UPDATE SET body = excluded.body, updated_at = excluded.updated_at`,
		leaveType, body, s.timestamp())
	if err != nil {
		return types.LeavePolicy{}, storageErr("update policy", err)
	}

	s.logger.Info("Leave policy updated", "leave_type", leaveType)
	return p, nil
}

// ReplacePolicies swaps the whole policy set atomically.
func (s *Store) ReplacePolicies(ctx context.Context, set types.PolicySet) error {
	for name, p := range set {
		if err := leave.ValidatePolicy(p); err != nil {
			if appErr, ok := err.(*errors.AppError); ok {
				return appErr.WithContext("leave_type", name)
			}
			return err
		}
	}

	now := s.timestamp()
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM policies`); err != nil {
			return storageErr("clear policies", err)
		}
		for name, p := range set {
			body, err := encode(p)
			if err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO policies (leave_type, body, updated_at) VALUES (?, ?, ?)`,
				leave.NormalizeLeaveType(name), body, now); err != nil {
				return storageErr("insert policy", err)
			}
		}
		return nil
	})
}
