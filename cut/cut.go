// Package cut extracts a history-preserving slice of a repository into a
// portable bundle. Plan is the read-only dry run; Cut performs the
// extraction against a temporary clone so the source repository is never
// rewritten.
package cut

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/zhubert/clip-core/clip"
	cexec "github.com/zhubert/clip-core/exec"
	"github.com/zhubert/clip-core/expand"
	"github.com/zhubert/clip-core/git"
	"github.com/zhubert/clip-core/logger"
)

// Request describes one cut.
type Request struct {
	RepoPath      string
	Paths         []string
	OutDir        string
	Name          string // clip base name; timestamped default when empty
	ToSubdir      string // re-root content under this subdirectory
	FollowRenames bool
	Force         bool // overwrite existing outputs
	KeepTemp      bool // keep the temporary clone for debugging
	PruneSource   bool // remove the cut paths from the source and commit
	RequireAck    string // ack file that must exist before pruning
	MaxFiles      int    // per-directory rename-follow cap; default when zero
}

// PathMapping is one entry in a plan's path mapping preview.
type PathMapping struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// PlanOutputs names the files a cut would create.
type PlanOutputs struct {
	Bundle   string `json:"bundle"`
	Metadata string `json:"metadata"`
	OutDir   string `json:"out_dir"`
}

// PlanResult is the dry-run report: what would be included and written,
// with nothing created.
type PlanResult struct {
	Repo                     string              `json:"repo"`
	Paths                    []string            `json:"paths"`
	ExpandedPaths            []string            `json:"expanded_paths"`
	ToSubdir                 string              `json:"to_subdir,omitempty"`
	FollowRenames            bool                `json:"follow_renames"`
	FollowDetails            map[string][]string `json:"follow_details"`
	CommitCountTouchingPaths string              `json:"commit_count_touching_paths"`
	SampleCommits            []string            `json:"sample_commits"`
	PathMappingPreview       []PathMapping       `json:"path_mapping_preview"`
	Outputs                  PlanOutputs         `json:"outputs"`
	Warnings                 []string            `json:"warnings"`
	Note                     string              `json:"note"`
}

// Result reports a completed cut.
type Result struct {
	BundlePath string
	MetaPath   string
	Meta       *clip.Meta
	TempRepo   string   // non-empty only when the clone was kept
	Warnings   []string // non-fatal problems (pointer update, missing paths)
	Pruned     bool
}

// Cutter orchestrates cuts. FilterRepo is the detected invocation for
// git-filter-repo (either {"git", "filter-repo"} or {"git-filter-repo"});
// it runs through the same runner as everything else.
type Cutter struct {
	Service    *git.GitService
	Runner     cexec.GitRunner
	FilterRepo []string
}

// NewCutter returns a Cutter using the given runner for both git and
// filter-repo invocations.
func NewCutter(runner cexec.GitRunner, filterRepo []string) *Cutter {
	return &Cutter{
		Service:    git.NewGitServiceWithRunner(runner),
		Runner:     runner,
		FilterRepo: filterRepo,
	}
}

func (c *Cutter) expander(maxFiles int) *expand.Expander {
	e := expand.NewExpander(c.Service)
	if maxFiles > 0 {
		e.MaxFiles = maxFiles
	}
	return e
}

// clipPaths resolves the bundle and metadata paths for a request.
func clipPaths(req *Request) (bundle, meta, outDir string) {
	name := req.Name
	if name == "" {
		name = clip.DefaultClipName(time.Now())
	}
	outDir = req.OutDir
	if outDir == "" {
		outDir = ".git-clipboard"
	}
	return filepath.Join(outDir, name+".bundle"), filepath.Join(outDir, name+".json"), outDir
}

// missingPathsWarning returns a warning when none of the requested paths
// exist in the working tree. The cut still proceeds: the paths may exist
// only in history, which is exactly what a history-preserving extraction
// is for.
func missingPathsWarning(repoPath string, paths []string) string {
	for _, p := range paths {
		if _, err := os.Stat(filepath.Join(repoPath, p)); err == nil {
			return ""
		}
	}
	return "none of the specified paths exist in the current working tree; proceeding anyway"
}

// Plan reports what a cut would do without creating anything. Expansion
// runs against the source repository directly since nothing is rewritten.
func (c *Cutter) Plan(ctx context.Context, req *Request) (*PlanResult, error) {
	if !c.Service.IsGitRepo(ctx, req.RepoPath) {
		return nil, fmt.Errorf("%s is not a git repository", req.RepoPath)
	}

	bundlePath, metaPath, outDir := clipPaths(req)

	plan := &PlanResult{
		Repo:          req.RepoPath,
		Paths:         req.Paths,
		ExpandedPaths: req.Paths,
		ToSubdir:      req.ToSubdir,
		FollowRenames: req.FollowRenames,
		FollowDetails: map[string][]string{},
		SampleCommits: []string{},
		Outputs:       PlanOutputs{Bundle: bundlePath, Metadata: metaPath, OutDir: outDir},
		Warnings:      []string{},
		Note:          "No files created due to --dry-run",
	}

	if req.FollowRenames {
		expansion := c.expander(req.MaxFiles).Expand(ctx, req.RepoPath, req.Paths)
		plan.ExpandedPaths = expansion.Paths
		plan.FollowDetails = expansion.Audit
		for _, w := range expansion.Warnings {
			plan.Warnings = append(plan.Warnings, w.Message)
		}
	}
	if w := missingPathsWarning(req.RepoPath, req.Paths); w != "" {
		plan.Warnings = append(plan.Warnings, w)
	}

	plan.CommitCountTouchingPaths = c.Service.RevisionCountPaths(ctx, req.RepoPath, plan.ExpandedPaths)
	plan.SampleCommits = c.Service.RecentCommits(ctx, req.RepoPath, 5, plan.ExpandedPaths)

	for _, p := range plan.ExpandedPaths {
		dst := p
		if req.ToSubdir != "" {
			dst = strings.TrimSuffix(req.ToSubdir, "/") + "/" + p
		}
		plan.PathMappingPreview = append(plan.PathMappingPreview, PathMapping{From: p, To: dst})
	}

	return plan, nil
}

// Cut performs the extraction. The source repository is cloned, the clone
// is rewritten with filter-repo to contain only the expanded paths, and
// the rewritten history is bundled. The source is modified only when
// pruning was requested, and then only by removing paths with an ordinary
// commit.
func (c *Cutter) Cut(ctx context.Context, req *Request) (*Result, error) {
	log := logger.WithComponent("cut")

	if !c.Service.IsGitRepo(ctx, req.RepoPath) {
		return nil, fmt.Errorf("%s is not a git repository", req.RepoPath)
	}
	if len(c.FilterRepo) == 0 {
		return nil, fmt.Errorf("git-filter-repo invocation not configured")
	}

	bundlePath, metaPath, outDir := clipPaths(req)
	if !req.Force {
		for _, p := range []string{bundlePath, metaPath} {
			if _, err := os.Stat(p); err == nil {
				return nil, fmt.Errorf("%s already exists; use force to overwrite", p)
			}
		}
	}

	result := &Result{BundlePath: bundlePath, MetaPath: metaPath}
	if w := missingPathsWarning(req.RepoPath, req.Paths); w != "" {
		result.Warnings = append(result.Warnings, w)
	}

	clipID := uuid.NewString()
	tempDir := filepath.Join(os.TempDir(), "git-cut-"+clipID)
	tempRepo := filepath.Join(tempDir, "repo")
	if err := os.MkdirAll(tempDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create temp directory: %w", err)
	}
	defer func() {
		if req.KeepTemp {
			result.TempRepo = tempRepo
			return
		}
		os.RemoveAll(tempDir)
	}()

	if err := c.Service.Clone(ctx, req.RepoPath, tempRepo); err != nil {
		return nil, err
	}

	expandedPaths := req.Paths
	details := map[string][]string{}
	var expansionWarnings []string
	if req.FollowRenames {
		expansion := c.expander(req.MaxFiles).Expand(ctx, tempRepo, req.Paths)
		expandedPaths = expansion.Paths
		details = expansion.Audit
		for _, w := range expansion.Warnings {
			expansionWarnings = append(expansionWarnings, w.Message)
		}
	} else {
		for _, p := range req.Paths {
			details[p] = []string{p}
		}
	}

	if err := c.filterRepo(ctx, tempRepo, expandedPaths, req.ToSubdir); err != nil {
		return nil, err
	}

	defaultBranch := c.Service.DefaultBranch(ctx, tempRepo)

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	if req.Force {
		os.Remove(bundlePath)
	}
	if err := c.Service.CreateBundle(ctx, tempRepo, bundlePath); err != nil {
		return nil, err
	}

	gitVersion, _ := c.Service.Version(ctx)
	meta := &clip.Meta{
		Version:              clip.MetaVersion,
		ID:                   clipID,
		CreatedAt:            time.Now().Format(time.RFC3339),
		SourceRepo:           req.RepoPath,
		Paths:                req.Paths,
		ExpandedPaths:        expandedPaths,
		ToSubdir:             req.ToSubdir,
		FollowRenames:        req.FollowRenames,
		Bundle:               bundlePath,
		GitVersion:           gitVersion,
		FilterRepoInvocation: strings.Join(c.FilterRepo, " "),
		DefaultBranch:        defaultBranch,
		SourceRemotes:        c.Service.ListRemotes(ctx, req.RepoPath),
		AckFileSuggestion:    strings.TrimSuffix(metaPath, ".json") + ".ack",
		FollowDetails:        details,
		Warnings:             append([]string{}, expansionWarnings...),
	}
	if err := meta.Save(metaPath); err != nil {
		return nil, err
	}
	result.Meta = meta
	result.Warnings = append(result.Warnings, expansionWarnings...)

	pointer := &clip.Pointer{Bundle: bundlePath, Meta: metaPath}
	if err := pointer.Save(); err != nil {
		result.Warnings = append(result.Warnings, fmt.Sprintf("could not update global clipboard pointer: %v", err))
	}

	if req.PruneSource {
		if err := c.prune(ctx, req, filepath.Base(bundlePath)); err != nil {
			return nil, err
		}
		result.Pruned = true
	}

	log.Info("cut complete", "bundle", bundlePath, "paths", len(expandedPaths), "pruned", result.Pruned)
	return result, nil
}

// filterRepo rewrites the clone to contain only the expanded paths,
// optionally re-rooted under a subdirectory.
func (c *Cutter) filterRepo(ctx context.Context, tempRepo string, paths []string, toSubdir string) error {
	args := append([]string{}, c.FilterRepo[1:]...)
	args = append(args, "--force")
	for _, p := range paths {
		args = append(args, "--path", p)
	}
	if toSubdir != "" {
		args = append(args, "--to-subdirectory-filter", toSubdir)
	}

	output, err := c.Runner.CombinedOutput(ctx, tempRepo, c.FilterRepo[0], args...)
	if err != nil {
		return fmt.Errorf("git-filter-repo failed: %s: %w", strings.TrimSpace(string(output)), err)
	}
	return nil
}

// prune removes the originally requested paths from the source repository
// and commits the removal. Requires a clean working tree, and an ack file
// when one was demanded.
func (c *Cutter) prune(ctx context.Context, req *Request, bundleName string) error {
	clean, err := c.Service.StatusClean(ctx, req.RepoPath)
	if err != nil {
		return err
	}
	if !clean {
		return fmt.Errorf("working tree not clean; aborting prune")
	}
	if req.RequireAck != "" {
		if _, err := os.Stat(req.RequireAck); err != nil {
			return fmt.Errorf("ack file not found: %s", req.RequireAck)
		}
	}

	head, err := c.Service.ShortHead(ctx, req.RepoPath)
	if err != nil {
		return err
	}
	message := fmt.Sprintf("Move to new repo via clip %s (cut from %s)", bundleName, head)
	return c.Service.RemoveAndCommit(ctx, req.RepoPath, req.Paths, message)
}
