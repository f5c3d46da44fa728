package assistant

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"hrassist/internal/errors"
	"hrassist/internal/matching"
	"hrassist/internal/observability"
	"hrassist/internal/types"
	"hrassist/internal/utils"
)

const mimePDF = utils.MIMETypePDF

// Extractor turns raw documents into structured ones.
type Extractor interface {
	ExtractResume(ctx context.Context, doc types.ResumeDocument) (types.Resume, error)
	ExtractJob(ctx context.Context, doc types.JobDocument) (types.JobDescription, error)
}

// DocumentStore is the part of the store the recruit assistant writes to.
type DocumentStore interface {
	UpsertResume(ctx context.Context, r types.Resume) (types.StoredDocument, error)
	UpsertJob(ctx context.Context, j types.JobDescription) (types.StoredDocument, error)
	MatchesForJob(ctx context.Context, jobName string) ([]types.MatchResult, error)
	matching.Repository
}

// RecruitAssistant extracts resumes and job descriptions and matches them.
type RecruitAssistant struct {
	extractor   Extractor
	store       DocumentStore
	metrics     *observability.Metrics
	logger      *errors.Logger
	concurrency int
}

// NewRecruitAssistant creates a recruit assistant. store may be nil, in which case
// nothing is persisted.
func NewRecruitAssistant(extractor Extractor, store DocumentStore, metrics *observability.Metrics, logger *errors.Logger, concurrency int) *RecruitAssistant {
	if logger == nil {
		logger = errors.Discard()
	}
	if concurrency < 1 {
		concurrency = matching.DefaultConcurrency
	}
	return &RecruitAssistant{
		extractor:   extractor,
		store:       store,
		metrics:     metrics,
		logger:      logger,
		concurrency: concurrency,
	}
}

// UploadAndMatch extracts a resume and a job description, stores both and matches
// them. When the candidate matches, the result joins the stored matches of the job.
func (a *RecruitAssistant) UploadAndMatch(ctx context.Context, resumeDoc types.ResumeDocument, jobDoc types.JobDocument) (types.MatchResult, bool, error) {
	resumeDoc.Filename = utils.DocumentName(resumeDoc.Filename)
	if strings.TrimSpace(jobDoc.Name) == "" {
		return types.MatchResult{}, false, errors.NewValidationError(errors.ErrCodeInvalidRequest,
			"job name is required", nil)
	}
	if jobDoc.Empty() {
		return types.MatchResult{}, false, errors.NewValidationError(errors.ErrCodeInvalidRequest,
			"job description text is required", nil)
	}
	if len(resumeDoc.Data) == 0 {
		return types.MatchResult{}, false, errors.NewValidationError(errors.ErrCodeInvalidRequest,
			"resume is empty", nil)
	}

	var resume types.Resume
	var job types.JobDescription
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		resume, err = a.extractResume(gctx, resumeDoc)
		return err
	})
	g.Go(func() error {
		var err error
		job, err = a.extractJob(gctx, jobDoc)
		return err
	})
	if err := g.Wait(); err != nil {
		return types.MatchResult{}, false, err
	}

	if a.store != nil {
		if _, err := a.store.UpsertResume(ctx, resume); err != nil {
			return types.MatchResult{}, false, err
		}
		if _, err := a.store.UpsertJob(ctx, job); err != nil {
			return types.MatchResult{}, false, err
		}
	}

	result, ok := matching.MatchCandidate(resume, job)
	if !ok {
		a.logger.Info("Candidate did not meet job requirements",
			"resume", resume.Filename,
			"job", job.Filename)
		return types.MatchResult{}, false, nil
	}
	a.metrics.RecordMatchScore(ctx, job.Filename, result.MatchPercentage)

	if a.store != nil {
		if err := a.addMatch(ctx, result); err != nil {
			return result, true, err
		}
	}

	a.logger.Info("Candidate matched",
		"resume", resume.Filename,
		"job", job.Filename,
		"match_percentage", result.MatchPercentage)
	return result, true, nil
}

// MatchAll rematches every stored resume against every stored job.
func (a *RecruitAssistant) MatchAll(ctx context.Context) (types.MatchRunSummary, error) {
	if a.store == nil {
		return types.MatchRunSummary{}, errors.NewStorageError(errors.ErrCodeStoreUnavailable,
			"matching requires the document store", nil)
	}
	summary, err := matching.NewEngine(a.store, a.logger, a.concurrency).MatchAll(ctx)
	a.metrics.RecordMatchRun(ctx, summary, err)
	return summary, err
}

// addMatch replaces the candidate's previous match for the job and keeps the others.
func (a *RecruitAssistant) addMatch(ctx context.Context, result types.MatchResult) error {
	existing, err := a.store.MatchesForJob(ctx, result.JobName)
	if err != nil {
		return err
	}
	merged := slices.DeleteFunc(existing, func(m types.MatchResult) bool {
		return m.ResumeFilename == result.ResumeFilename
	})
	merged = append(merged, result)
	matching.RankMatches(merged)
	return a.store.SaveMatches(ctx, result.JobName, merged)
}

func (a *RecruitAssistant) extractResume(ctx context.Context, doc types.ResumeDocument) (types.Resume, error) {
	resume, err := a.extractor.ExtractResume(ctx, doc)
	a.metrics.RecordDocumentExtracted(ctx, "resume", err == nil)
	if err != nil {
		return types.Resume{}, fmt.Errorf("extract resume %s: %w", doc.Filename, err)
	}
	resume.Filename = doc.Filename
	return resume, nil
}

func (a *RecruitAssistant) extractJob(ctx context.Context, doc types.JobDocument) (types.JobDescription, error) {
	job, err := a.extractor.ExtractJob(ctx, doc)
	a.metrics.RecordDocumentExtracted(ctx, "job", err == nil)
	if err != nil {
		return types.JobDescription{}, fmt.Errorf("extract job %s: %w", doc.Name, err)
	}
	job.Filename = doc.Name
	return job, nil
}

// ParseDirectories extracts every resume (.pdf, .txt) under resumesDir and every job
// description (.txt, .md, .pdf) under jobsDir and stores them. A failing document is
// reported and skipped. Either directory may be empty to skip it.
func (a *RecruitAssistant) ParseDirectories(ctx context.Context, resumesDir, jobsDir string) (types.ParseReport, error) {
	report := types.ParseReport{Resumes: []string{}, Jobs: []string{}, Failed: map[string]string{}}
	if a.store == nil {
		return report, errors.NewStorageError(errors.ErrCodeStoreUnavailable,
			"parsing documents requires the document store", nil)
	}

	var resumeFiles, jobFiles []string
	var err error
	if resumesDir != "" {
		if resumeFiles, err = listDocuments(resumesDir, ".pdf", ".txt"); err != nil {
			return report, err
		}
	}
	if jobsDir != "" {
		if jobFiles, err = listDocuments(jobsDir, ".txt", ".md", ".pdf"); err != nil {
			return report, err
		}
	}

	var mu sync.Mutex
	record := func(list *[]string, path, name string, err error) {
		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			report.Failed[path] = err.Error()
			a.logger.Warn("Skipping document", "path", path, "error", err.Error())
			return
		}
		*list = append(*list, name)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.concurrency)

	for _, path := range resumeFiles {
		g.Go(func() error {
			name, err := a.parseResume(gctx, path)
			record(&report.Resumes, path, name, err)
			return gctx.Err()
		})
	}
	for _, path := range jobFiles {
		g.Go(func() error {
			name, err := a.parseJob(gctx, path)
			record(&report.Jobs, path, name, err)
			return gctx.Err()
		})
	}

	if err := g.Wait(); err != nil {
		return report, err
	}
	slices.Sort(report.Resumes)
	slices.Sort(report.Jobs)

	a.logger.Info("Document parsing completed",
		"resumes", len(report.Resumes),
		"jobs", len(report.Jobs),
		"failed", len(report.Failed))
	return report, nil
}

func (a *RecruitAssistant) parseResume(ctx context.Context, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	doc := types.ResumeDocument{Filename: utils.DocumentName(path), MIMEType: utils.MIMEType(path), Data: data}
	resume, err := a.extractResume(ctx, doc)
	if err != nil {
		return "", err
	}
	if _, err := a.store.UpsertResume(ctx, resume); err != nil {
		return "", err
	}
	return resume.Filename, nil
}

func (a *RecruitAssistant) parseJob(ctx context.Context, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	job, err := a.extractJob(ctx, utils.NewJobDocument(utils.DocumentName(path), path, data))
	if err != nil {
		return "", err
	}
	if _, err := a.store.UpsertJob(ctx, job); err != nil {
		return "", err
	}
	return job.Filename, nil
}

// listDocuments returns the files directly under dir with one of exts, sorted.
func listDocuments(dir string, exts ...string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.NewIOError(errors.ErrCodeFileNotFound,
			fmt.Sprintf("cannot read directory %s", dir), err)
	}
	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if slices.Contains(exts, utils.GetFileExtension(entry.Name())) {
			files = append(files, filepath.Join(dir, entry.Name()))
		}
	}
	return files, nil
}
