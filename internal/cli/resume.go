package cli

import (
	"cmp"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"

	"hrassist/internal/common"
	"hrassist/internal/errors"
	"hrassist/internal/matching"
	"hrassist/internal/types"
	"hrassist/internal/utils"
)

const notMatchedMessage = "Candidate did not meet job requirements"

var errNotMatched = stderrors.New(notMatchedMessage)

func newResumeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resume",
		Short: "Extract resumes and job descriptions and match candidates",
	}
	cmd.AddCommand(
		newResumeMatchCmd(),
		newResumeUploadCmd(),
		newResumeParseCmd(),
		newResumeMatchAllCmd(),
		newResumeMatchesCmd(),
		newResumeStatsCmd(),
	)
	return cmd
}

// reportNotMatched turns errNotMatched into a printed message.
func reportNotMatched(out io.Writer, err error) error {
	if stderrors.Is(err, errNotMatched) {
		_, werr := fmt.Fprintln(out, notMatchedMessage)
		return werr
	}
	return err
}

type matchInput struct {
	resume types.Resume
	job    types.JobDescription
}

func decodeStructured(contents [][]byte) (matchInput, error) {
	var in matchInput
	if err := json.Unmarshal(contents[0], &in.resume); err != nil {
		return in, errors.NewValidationError(errors.ErrCodeInvalidFormat, "resume file is not valid resume JSON", err)
	}
	if err := json.Unmarshal(contents[1], &in.job); err != nil {
		return in, errors.NewValidationError(errors.ErrCodeInvalidFormat, "job file is not valid job description JSON", err)
	}
	return in, nil
}

func newResumeMatchCmd() *cobra.Command {
	var (
		output     outputFlags
		resumeFile string
		jobFile    string
	)

	cmd := &cobra.Command{
		Use:   "match",
		Short: "Match a structured resume against a structured job description",
		Long: `Match a resume against a job description, both given as the JSON produced by
extraction. No AI call is made: eligibility cutoffs are checked and the skill
overlap and experience give the match percentage.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := getApp(ctx)
			if err != nil {
				return err
			}
			cfg, err := a.outputConfig(output)
			if err != nil {
				return err
			}

			err = common.RunCommand(ctx, a.runner(cmd.OutOrStdout()), cfg,
				[]string{resumeFile, jobFile},
				decodeStructured,
				func(_ context.Context, in matchInput) (types.MatchResult, error) {
					if in.resume.Filename == "" {
						in.resume.Filename = utils.DocumentName(resumeFile)
					}
					if in.job.Filename == "" {
						in.job.Filename = utils.DocumentName(jobFile)
					}
					result, ok := matching.MatchCandidate(in.resume, in.job)
					if !ok {
						return result, errNotMatched
					}
					return result, nil
				},
				nil)
			return reportNotMatched(cmd.OutOrStdout(), err)
		},
	}

	cmd.Flags().StringVar(&resumeFile, "resume", "", "Resume JSON file")
	cmd.Flags().StringVar(&jobFile, "job", "", "Job description JSON file")
	_ = cmd.MarkFlagRequired("resume")
	_ = cmd.MarkFlagRequired("job")
	output.register(cmd)
	return cmd
}

type uploadInput struct {
	resume types.ResumeDocument
	job    types.JobDocument
}

func newResumeUploadCmd() *cobra.Command {
	var (
		output     outputFlags
		resumeFile string
		jobFile    string
		jobName    string
	)

	cmd := &cobra.Command{
		Use:   "upload",
		Short: "Extract a resume and a job description with AI, store and match them",
		Long: `Extract a resume (PDF or text) and a job description (text) with the AI model,
store both and match the candidate. The match joins the job's ranked matches.`,
		Example: `  hrassist resume upload --resume asha.pdf --job backend.txt --job-name backend`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := getApp(ctx)
			if err != nil {
				return err
			}
			cfg, err := a.outputConfig(output)
			if err != nil {
				return err
			}
			recruit, err := a.recruitAssistant()
			if err != nil {
				return err
			}

			err = common.RunCommand(ctx, a.runner(cmd.OutOrStdout()), cfg,
				[]string{resumeFile, jobFile},
				func(contents [][]byte) (uploadInput, error) {
					return uploadInput{
						resume: types.ResumeDocument{
							Filename: filepath.Base(resumeFile),
							MIMEType: utils.MIMEType(resumeFile),
							Data:     contents[0],
						},
						job: utils.NewJobDocument(cmp.Or(jobName, utils.DocumentName(jobFile)), jobFile, contents[1]),
					}, nil
				},
				func(ctx context.Context, in uploadInput) (types.MatchResult, error) {
					result, matched, err := recruit.UploadAndMatch(ctx, in.resume, in.job)
					if err != nil {
						return result, err
					}
					if !matched {
						return result, errNotMatched
					}
					return result, nil
				},
				func(in uploadInput, cfg common.CommandConfig) {
					a.logger.Info("Uploading resume",
						"resume", in.resume.Filename,
						"mime_type", in.resume.MIMEType,
						"job", in.job.Name,
						"output_format", cfg.OutputFormat)
				})
			return reportNotMatched(cmd.OutOrStdout(), err)
		},
	}

	cmd.Flags().StringVar(&resumeFile, "resume", "", "Resume file (PDF or text)")
	cmd.Flags().StringVar(&jobFile, "job", "", "Job description text file")
	cmd.Flags().StringVar(&jobName, "job-name", "", "Job name (default: job file name without extension)")
	_ = cmd.MarkFlagRequired("resume")
	_ = cmd.MarkFlagRequired("job")
	output.register(cmd)
	return cmd
}

func newResumeParseCmd() *cobra.Command {
	var (
		output     outputFlags
		resumesDir string
		jobsDir    string
	)

	cmd := &cobra.Command{
		Use:   "parse",
		Short: "Extract and store every resume and job description in directories",
		Long: `Extract every resume (.pdf, .txt) in --resumes and every job description
(.txt, .md) in --jobs with the AI model and store them. Documents that fail are
reported and skipped. Run "resume match-all" afterwards to match them.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if resumesDir == "" && jobsDir == "" {
				return errors.NewValidationError(errors.ErrCodeInvalidRequest,
					"at least one of --resumes or --jobs is required", nil)
			}
			ctx := cmd.Context()
			a, err := getApp(ctx)
			if err != nil {
				return err
			}
			cfg, err := a.outputConfig(output)
			if err != nil {
				return err
			}
			recruit, err := a.recruitAssistant()
			if err != nil {
				return err
			}
			return common.RunCommand(ctx, a.runner(cmd.OutOrStdout()), cfg, nil,
				func([][]byte) ([2]string, error) { return [2]string{resumesDir, jobsDir}, nil },
				func(ctx context.Context, dirs [2]string) (types.ParseReport, error) {
					return recruit.ParseDirectories(ctx, dirs[0], dirs[1])
				},
				nil)
		},
	}

	cmd.Flags().StringVar(&resumesDir, "resumes", "", "Directory of resumes")
	cmd.Flags().StringVar(&jobsDir, "jobs", "", "Directory of job descriptions")
	output.register(cmd)
	return cmd
}

// runStoreCommand runs a read or batch operation that needs nothing but the app.
func runStoreCommand[Output any](cmd *cobra.Command, output outputFlags, op func(context.Context, *app) (Output, error)) error {
	ctx := cmd.Context()
	a, err := getApp(ctx)
	if err != nil {
		return err
	}
	cfg, err := a.outputConfig(output)
	if err != nil {
		return err
	}
	return common.RunCommand(ctx, a.runner(cmd.OutOrStdout()), cfg, nil,
		func([][]byte) (*app, error) { return a, nil },
		op,
		nil)
}

func newResumeMatchAllCmd() *cobra.Command {
	var output outputFlags
	cmd := &cobra.Command{
		Use:   "match-all",
		Short: "Rematch every stored resume against every stored job description",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStoreCommand(cmd, output, func(ctx context.Context, a *app) (types.MatchRunSummary, error) {
				recruit, err := a.recruitAssistant()
				if err != nil {
					return types.MatchRunSummary{}, err
				}
				return recruit.MatchAll(ctx)
			})
		},
	}
	output.register(cmd)
	return cmd
}

func newResumeMatchesCmd() *cobra.Command {
	var output outputFlags
	cmd := &cobra.Command{
		Use:   "matches <job-name>",
		Short: "Show the ranked matches of a job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStoreCommand(cmd, output, func(ctx context.Context, a *app) ([]types.MatchResult, error) {
				db, err := a.requireStore()
				if err != nil {
					return nil, err
				}
				return db.MatchesForJob(ctx, args[0])
			})
		},
	}
	output.register(cmd)
	return cmd
}

func newResumeStatsCmd() *cobra.Command {
	var output outputFlags
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show document store statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStoreCommand(cmd, output, func(ctx context.Context, a *app) (types.StoreStats, error) {
				db, err := a.requireStore()
				if err != nil {
					return types.StoreStats{}, err
				}
				stats, err := db.Stats(ctx)
				if err != nil {
					return stats, err
				}
				stats.PolicySource = a.policies.Policies(ctx).Source
				return stats, nil
			})
		},
	}
	output.register(cmd)
	return cmd
}
