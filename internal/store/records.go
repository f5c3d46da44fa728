package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"hrassist/internal/errors"
	"hrassist/internal/types"
)

// SaveMatches replaces every stored match of a job with results.
func (s *Store) SaveMatches(ctx context.Context, jobName string, results []types.MatchResult) error {
	if strings.TrimSpace(jobName) == "" {
		return errors.NewValidationError(errors.ErrCodeInvalidRequest, "job name is required", nil)
	}

	now := s.timestamp()
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM matches WHERE job_name = ?`, jobName); err != nil {
			return storageErr("clear matches", err)
		}
		stmt, err := tx.PrepareContext(ctx, `INSERT INTO matches
			(id, job_name, resume_filename, match_percentage, body, created_at) VALUES (?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return storageErr("prepare match insert", err)
		}
		defer stmt.Close()

		for _, m := range results {
			m.JobName = jobName
			body, err := encode(m)
			if err != nil {
				return err
			}
			if _, err := stmt.ExecContext(ctx, newID(), jobName, m.ResumeFilename, m.MatchPercentage, body, now); err != nil {
				return storageErr("insert match", err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Debug("Matches saved", "job", jobName, "count", len(results))
	return nil
}

// MatchesForJob returns the stored matches of a job in matching.RankMatches order.
func (s *Store) MatchesForJob(ctx context.Context, jobName string) ([]types.MatchResult, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT body FROM matches WHERE job_name = ?
		ORDER BY match_percentage DESC, json_extract(body, '$.name'), resume_filename`, jobName)
	if err != nil {
		return nil, storageErr("list matches", err)
	}
	defer rows.Close()

	out := []types.MatchResult{}
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, storageErr("scan match", err)
		}
		var m types.MatchResult
		if err := decode(body, &m); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("list matches", err)
	}
	return out, nil
}

// RecordLeave stores a leave request together with its decision.
func (s *Store) RecordLeave(ctx context.Context, req types.LeaveRequest, decision types.LeaveDecision) (types.LeaveRecord, error) {
	rec := types.LeaveRecord{
		ID:        newID(),
		Request:   req,
		Decision:  decision,
		CreatedAt: s.now().UTC(),
	}
	body, err := encode(rec)
	if err != nil {
		return types.LeaveRecord{}, err
	}

	_, err = s.db.ExecContext(ctx, `INSERT INTO leave_requests
		(id, employee_id, employee_name, leave_type, status, body, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, req.EmployeeID, req.EmployeeName, req.LeaveType, decision.Status, body, s.timestamp())
	if err != nil {
		return types.LeaveRecord{}, storageErr("record leave request", err)
	}
	return rec, nil
}

// LeaveHistory returns the recorded requests of an employee, newest first.
func (s *Store) LeaveHistory(ctx context.Context, employeeID string) ([]types.LeaveRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT body FROM leave_requests WHERE employee_id = ?
		ORDER BY created_at DESC, rowid DESC`, employeeID)
	if err != nil {
		return nil, storageErr("list leave requests", err)
	}
	defer rows.Close()

	out := []types.LeaveRecord{}
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, storageErr("scan leave request", err)
		}
		var rec types.LeaveRecord
		if err := decode(body, &rec); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("list leave requests", err)
	}
	return out, nil
}

// Stats counts the stored documents.
func (s *Store) Stats(ctx context.Context) (types.StoreStats, error) {
	counts, err := s.Collections(ctx)
	if err != nil {
		return types.StoreStats{}, err
	}
	return types.StoreStats{
		TotalResumes:         counts["resumes"],
		TotalJobDescriptions: counts["job_descriptions"],
		TotalMatches:         counts["matches"],
		TotalLeaveRequests:   counts["leave_requests"],
		Database:             DatabaseName(s.dsn),
		Connection:           RedactDSN(s.dsn),
	}, nil
}

// Collections returns every table with its row count.
func (s *Store) Collections(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name`)
	if err != nil {
		return nil, storageErr("list tables", err)
	}
	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			rows.Close()
			return nil, storageErr("scan table name", err)
		}
		tables = append(tables, name)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, storageErr("list tables", err)
	}

	counts := make(map[string]int, len(tables))
	for _, table := range tables {
		var n int
		if err := s.db.QueryRowContext(ctx, fmt.Sprintf(`SELECT COUNT(*) FROM %q`, table)).Scan(&n); err != nil {
			return nil, storageErr("count "+table, err)
		}
		counts[table] = n
	}
	return counts, nil
}
