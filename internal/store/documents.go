package store

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"strings"

	"hrassist/internal/errors"
	"hrassist/internal/types"
)

const (
	docTypeResume = "resume"
	docTypeJob    = "job_description"
)

// UpsertResume inserts or replaces a resume keyed by its filename.
func (s *Store) UpsertResume(ctx context.Context, r types.Resume) (types.StoredDocument, error) {
	return s.upsert(ctx, "resumes", docTypeResume, r.Filename, r)
}

// UpsertJob inserts or replaces a job description keyed by its filename.
func (s *Store) UpsertJob(ctx context.Context, j types.JobDescription) (types.StoredDocument, error) {
	return s.upsert(ctx, "job_descriptions", docTypeJob, j.Filename, j)
}

// GetResume loads one resume.
func (s *Store) GetResume(ctx context.Context, filename string) (types.Resume, error) {
	var r types.Resume
	err := s.get(ctx, "resumes", filename, &r)
	return r, err
}

// GetJob loads one job description.
func (s *Store) GetJob(ctx context.Context, filename string) (types.JobDescription, error) {
	var j types.JobDescription
	err := s.get(ctx, "job_descriptions", filename, &j)
	return j, err
}

// ListResumes returns every stored resume ordered by filename.
func (s *Store) ListResumes(ctx context.Context) ([]types.Resume, error) {
	out := []types.Resume{}
	err := s.list(ctx, "resumes", func(body string) error {
		var r types.Resume
		if err := decode(body, &r); err != nil {
			return err
		}
		out = append(out, r)
		return nil
	})
	return out, err
}

// ListJobs returns every stored job description ordered by filename.
func (s *Store) ListJobs(ctx context.Context) ([]types.JobDescription, error) {
	out := []types.JobDescription{}
	err := s.list(ctx, "job_descriptions", func(body string) error {
		var j types.JobDescription
		if err := decode(body, &j); err != nil {
			return err
		}
		out = append(out, j)
		return nil
	})
	return out, err
}

func (s *Store) upsert(ctx context.Context, table, docType, filename string, doc any) (types.StoredDocument, error) {
	filename = strings.TrimSpace(filename)
	if filename == "" {
		return types.StoredDocument{}, errors.NewValidationError(errors.ErrCodeInvalidRequest,
			docType+" filename is required", nil)
	}
	body, err := encode(doc)
	if err != nil {
		return types.StoredDocument{}, err
	}

	now := s.timestamp()
	query := fmt.Sprintf(`INSERT INTO %s (filename, id, body, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(filename) DO UPDATE SET body = excluded.body, updated_at = excluded.updated_at`, table)
	if _, err := s.db.ExecContext(ctx, query, filename, newID(), body, now, now); err != nil {
		return types.StoredDocument{}, storageErr("upsert "+docType, err)
	}

	var (
		stored           types.StoredDocument
		created, updated string
	)
	row := s.db.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT id, filename, created_at, updated_at FROM %s WHERE filename = ?`, table), filename)
	if err := row.Scan(&stored.ID, &stored.Filename, &created, &updated); err != nil {
		return types.StoredDocument{}, storageErr("read back "+docType, err)
	}
	stored.DocumentType = docType
	stored.CreatedAt = parseTimestamp(created)
	stored.UpdatedAt = parseTimestamp(updated)

	s.logger.Debug("Document saved", "type", docType, "filename", filename, "id", stored.ID)
	return stored, nil
}

func (s *Store) get(ctx context.Context, table, filename string, v any) error {
	var body string
	err := s.db.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT body FROM %s WHERE filename = ?`, table), filename).Scan(&body)
	if stderrors.Is(err, sql.ErrNoRows) {
		return errors.NewNotFoundError(errors.ErrCodeDocumentNotFound,
			fmt.Sprintf("%s %q not found", strings.TrimSuffix(table, "s"), filename), nil)
	}
	if err != nil {
		return storageErr("load "+table, err)
	}
	return decode(body, v)
}

func (s *Store) list(ctx context.Context, table string, each func(body string) error) error {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`SELECT body FROM %s ORDER BY filename`, table))
	if err != nil {
		return storageErr("list "+table, err)
	}
	defer rows.Close()

	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return storageErr("scan "+table, err)
		}
		if err := each(body); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return storageErr("list "+table, err)
	}
	return nil
}
