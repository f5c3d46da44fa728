package matching

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hrassist/internal/types"
)

type fakeRepo struct {
	mu      sync.Mutex
	resumes []types.Resume
	jobs    []types.JobDescription
	saved   map[string][]types.MatchResult
	saveErr error
}

func (r *fakeRepo) ListResumes(context.Context) ([]types.Resume, error) { return r.resumes, nil }

func (r *fakeRepo) ListJobs(context.Context) ([]types.JobDescription, error) { return r.jobs, nil }

func (r *fakeRepo) SaveMatches(_ context.Context, job string, results []types.MatchResult) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saved == nil {
		r.saved = map[string][]types.MatchResult{}
	}
	r.saved[job] = results
	return nil
}

func TestEngineMatchAll(t *testing.T) {
	repo := &fakeRepo{
		resumes: []types.Resume{
			{Filename: "a.pdf", Name: "A", IntermediatePercentage: f(90), TechnicalSkills: []string{"go", "sql"}},
			{Filename: "b.pdf", Name: "B", IntermediatePercentage: f(65), TechnicalSkills: []string{"go"}},
			{Filename: "c.pdf", Name: "C", TechnicalSkills: []string{"java"}, ProfessionalSkills: []string{"teamwork"}},
		},
		jobs: []types.JobDescription{
			sampleJob(),
			{Filename: "java-dev", RequiredTechnicalSkills: []string{"java"}},
		},
	}

	summary, err := NewEngine(repo, nil, 2).MatchAll(context.Background())
	require.NoError(t, err)

	// backend-intern: only A passes the 12th cutoff; java-dev: only C knows java
	assert.Equal(t, 2, summary.TotalMatches)
	assert.Equal(t, map[string]int{"backend-intern": 1, "java-dev": 1}, summary.PerJob)
	assert.Equal(t,
		"Matching completed - 2 total matches saved to database\nbackend-intern: 1 matches saved\njava-dev: 1 matches saved",
		summary.Message)

	require.Len(t, repo.saved["backend-intern"], 1)
	assert.Equal(t, "A", repo.saved["backend-intern"][0].Name)
	assert.Equal(t, "C", repo.saved["java-dev"][0].Name)
}

func TestEngineMatchAllEmpty(t *testing.T) {
	summary, err := NewEngine(&fakeRepo{jobs: []types.JobDescription{sampleJob()}}, nil, 0).MatchAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "No resumes in database", summary.Message)

	summary, err = NewEngine(&fakeRepo{resumes: []types.Resume{{Name: "x"}}}, nil, 0).MatchAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "No JDs in database", summary.Message)
}

func TestEngineMatchAllSaveError(t *testing.T) {
	repo := &fakeRepo{
		resumes: []types.Resume{{Name: "A", IntermediatePercentage: f(90), TechnicalSkills: []string{"go"}}},
		jobs:    []types.JobDescription{sampleJob()},
		saveErr: errors.New("disk full"),
	}

	_, err := NewEngine(repo, nil, 1).MatchAll(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}

func TestMatchJobReturnsEmptySlice(t *testing.T) {
	got := MatchJob(sampleJob(), nil)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}
