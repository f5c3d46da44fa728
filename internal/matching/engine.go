package matching

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"hrassist/internal/errors"
	"hrassist/internal/types"
)

// Repository is the slice of the document store the engine needs.
type Repository interface {
	ListResumes(ctx context.Context) ([]types.Resume, error)
	ListJobs(ctx context.Context) ([]types.JobDescription, error)
	SaveMatches(ctx context.Context, jobName string, results []types.MatchResult) error
}

// DefaultConcurrency bounds how many jobs are matched at once.
const DefaultConcurrency = 4

// Engine runs every stored resume against every stored job.
type Engine struct {
	repo        Repository
	logger      *errors.Logger
	concurrency int
}

// NewEngine creates a matching engine. A concurrency below one uses DefaultConcurrency.
func NewEngine(repo Repository, logger *errors.Logger, concurrency int) *Engine {
	if concurrency < 1 {
		concurrency = DefaultConcurrency
	}
	if logger == nil {
		logger = errors.Discard()
	}
	return &Engine{repo: repo, logger: logger, concurrency: concurrency}
}

// MatchJob scores every resume against one job and returns the ranked matches.
func MatchJob(job types.JobDescription, resumes []types.Resume) []types.MatchResult {
	results := []types.MatchResult{}
	for _, resume := range resumes {
		if m, ok := MatchCandidate(resume, job); ok {
			results = append(results, m)
		}
	}
	RankMatches(results)
	return results
}

// MatchAll matches all stored resumes to all stored jobs and replaces the stored
// matches of each job with the new results.
func (e *Engine) MatchAll(ctx context.Context) (types.MatchRunSummary, error) {
	summary := types.MatchRunSummary{PerJob: map[string]int{}}

	resumes, err := e.repo.ListResumes(ctx)
	if err != nil {
		return summary, err
	}
	jobs, err := e.repo.ListJobs(ctx)
	if err != nil {
		return summary, err
	}

	if len(resumes) == 0 {
		summary.Message = "No resumes in database"
		return summary, nil
	}
	if len(jobs) == 0 {
		summary.Message = "No JDs in database"
		return summary, nil
	}

	e.logger.Info("Starting candidate matching",
		"resumes", len(resumes),
		"jobs", len(jobs),
		"concurrency", e.concurrency)

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)

	for _, job := range jobs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			results := MatchJob(job, resumes)
			if err := e.repo.SaveMatches(gctx, job.Filename, results); err != nil {
				return fmt.Errorf("save matches for %s: %w", job.Filename, err)
			}

			e.logger.Debug("Job matched", "job", job.Filename, "matches", len(results))

			mu.Lock()
			summary.PerJob[job.Filename] = len(results)
			summary.TotalMatches += len(results)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return summary, err
	}

	lines := make([]string, 0, len(jobs)+1)
	lines = append(lines, fmt.Sprintf("Matching completed - %d total matches saved to database", summary.TotalMatches))
	for _, job := range jobs {
		lines = append(lines, fmt.Sprintf("%s: %d matches saved", job.Filename, summary.PerJob[job.Filename]))
	}
	summary.Message = strings.Join(lines, "\n")

	e.logger.Info("Candidate matching completed", "total_matches", summary.TotalMatches)
	return summary, nil
}
