package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/revloop-dev/revloop/internal/core/domain"
	"github.com/revloop-dev/revloop/internal/core/ports/driving"
	"github.com/revloop-dev/revloop/internal/logger"
)

var (
	reviewFindingsPath string
	reviewFilesDir     string
	reviewDryRun       bool
	reviewNoFetch      bool
	reviewJSON         bool
)

var reviewCmd = &cobra.Command{
	Use:   "review [owner/repo] [pr-number]",
	Short: "Filter candidate findings and publish the survivors",
	Long: `Reads candidate findings as JSON, runs them through the filter
chain and publishes the survivors as comments on the pull request.

Candidates are read from the file given with --findings, or from stdin
when the path is "-". The expected shape is a JSON array:

  [{"file": "pkg/server/handler.go", "line": 42,
    "description": "...", "category": "Logic Error",
    "severity": "medium", "confidence": 0.8, "evidence": "..."}]`,
	Args: cobra.ExactArgs(2),
	RunE: runReview,
}

func init() {
	reviewCmd.Flags().StringVarP(&reviewFindingsPath, "findings", "f", "-", "path to candidate findings JSON, - for stdin")
	reviewCmd.Flags().StringVar(&reviewFilesDir, "files-dir", "", "local checkout to read file content from instead of fetching")
	reviewCmd.Flags().BoolVar(&reviewDryRun, "dry-run", false, "run the chain without publishing or persisting")
	reviewCmd.Flags().BoolVar(&reviewNoFetch, "no-fetch", false, "skip fetching file content for evidence verification")
	reviewCmd.Flags().BoolVar(&reviewJSON, "json", false, "output the result as JSON")
	rootCmd.AddCommand(reviewCmd)
}

// candidateInput is the JSON wire shape of one candidate finding.
type candidateInput struct {
	File        string  `json:"file"`
	Line        *int    `json:"line,omitempty"`
	Description string  `json:"description"`
	Category    string  `json:"category,omitempty"`
	Severity    string  `json:"severity"`
	Confidence  float64 `json:"confidence"`
	Evidence    string  `json:"evidence,omitempty"`
}

func runReview(cmd *cobra.Command, args []string) error {
	if reviewService == nil {
		return errors.New("review service not configured")
	}

	repoScope := args[0]
	prNumber, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("invalid pull request number %q", args[1])
	}

	candidates, err := readCandidates(reviewFindingsPath)
	if err != nil {
		return err
	}
	if len(candidates) == 0 {
		cmd.Println("No candidates to review.")
		return nil
	}

	ctx := context.Background()

	var fileContents map[string]string
	switch {
	case reviewFilesDir != "":
		fileContents, err = readFilesDir(reviewFilesDir, candidates)
		if err != nil {
			return fmt.Errorf("read files dir: %w", err)
		}
	case reviewNoFetch:
		// Evidence verification degrades to pass-through.
	case fileFetcher == nil:
		logger.Warn("No GitHub credentials configured, skipping evidence verification")
	default:
		fileContents, err = fileFetcher.ChangedFiles(ctx, repoScope, prNumber)
		if err != nil {
			return fmt.Errorf("fetch changed files: %w", err)
		}
	}

	result, err := reviewService.Review(ctx, driving.ReviewRequest{
		Context:      domain.ReviewContext{RepoScope: repoScope, PRNumber: prNumber},
		Candidates:   candidates,
		FileContents: fileContents,
		DryRun:       reviewDryRun,
	})
	if err != nil {
		return fmt.Errorf("review failed: %w", err)
	}

	if reviewJSON {
		return outputReviewJSON(cmd, result)
	}
	return outputReviewSummary(cmd, result)
}

// readCandidates loads and converts the candidate JSON.
func readCandidates(path string) ([]domain.Finding, error) {
	var r io.Reader
	if path == "-" {
		r = os.Stdin
	} else {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open findings file: %w", err)
		}
		defer f.Close()
		r = f
	}

	var inputs []candidateInput
	if err := json.NewDecoder(r).Decode(&inputs); err != nil {
		return nil, fmt.Errorf("decode findings: %w", err)
	}

	candidates := make([]domain.Finding, 0, len(inputs))
	for _, in := range inputs {
		candidates = append(candidates, domain.Finding{
			FilePath:        in.File,
			LineNumber:      in.Line,
			Description:     in.Description,
			Category:        domain.Category(in.Category),
			Severity:        domain.Severity(in.Severity),
			Confidence:      in.Confidence,
			EvidenceSnippet: in.Evidence,
		})
	}
	return candidates, nil
}

// readFilesDir loads the files the candidates refer to from a local
// checkout. Only referenced paths are read; a missing file simply leaves
// that finding unverified.
func readFilesDir(dir string, candidates []domain.Finding) (map[string]string, error) {
	contents := make(map[string]string)
	for _, f := range candidates {
		if f.FilePath == "" {
			continue
		}
		if _, ok := contents[f.FilePath]; ok {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, f.FilePath))
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, err
		}
		contents[f.FilePath] = string(data)
	}
	return contents, nil
}

func outputReviewJSON(cmd *cobra.Command, result *driving.ReviewResult) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputReviewSummary(cmd *cobra.Command, result *driving.ReviewResult) error {
	stats := result.Stats

	verb := "published"
	if reviewDryRun {
		verb = "would be published"
	}
	cmd.Printf("%d of %d findings %s.\n", len(result.Survivors), stats.TotalGenerated, verb)

	if len(stats.Reasons) > 0 {
		cmd.Println()
		cmd.Println("Filtered:")
		reasons := make([]string, 0, len(stats.Reasons))
		for reason := range stats.Reasons {
			reasons = append(reasons, reason)
		}
		sort.Strings(reasons)
		for _, reason := range reasons {
			cmd.Printf("  %-22s %d\n", reason, stats.Reasons[reason])
		}
	}

	if len(stats.Warnings) > 0 {
		cmd.Println()
		cmd.Printf("Warnings: %d (run with --verbose for details)\n", len(stats.Warnings))
	}

	for _, f := range result.Survivors {
		location := f.FilePath
		if f.LineNumber != nil {
			location = fmt.Sprintf("%s:%d", f.FilePath, *f.LineNumber)
		}
		cmd.Printf("  [%s] %s (%.0f%%)\n", f.Severity, location, f.Confidence*100)
	}
	return nil
}
