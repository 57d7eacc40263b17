package git

import (
	"context"
	"fmt"
	"strings"

	"github.com/zhubert/clip-core/logger"
)

// MergeOptions controls how Merge runs.
type MergeOptions struct {
	Squash                  bool
	NoFF                    bool
	AllowUnrelatedHistories bool
	Message                 string // optional merge commit message
}

// MergeBase returns the most recent common ancestor of refA and refB.
// The boolean is false when the refs share no common ancestor (unrelated
// histories) or the query fails.
func (s *GitService) MergeBase(ctx context.Context, repoPath, refA, refB string) (string, bool) {
	output, err := s.runner.Output(ctx, repoPath, "git", "merge-base", refA, refB)
	if err != nil {
		logger.WithComponent("git").Debug("merge-base failed", "refA", refA, "refB", refB, "error", err)
		return "", false
	}

	base := strings.TrimSpace(string(output))
	if base == "" {
		return "", false
	}
	return base, true
}

// MergeTree computes what a three-way merge of refA and refB over base would
// contain, without creating a commit or touching any ref. The returned text
// contains conflict marker sequences when the merge would conflict.
func (s *GitService) MergeTree(ctx context.Context, repoPath, base, refA, refB string) (string, error) {
	output, err := s.runner.Output(ctx, repoPath, "git", "merge-tree", base, refA, refB)
	if err != nil {
		return "", fmt.Errorf("git merge-tree failed: %w", err)
	}
	return string(output), nil
}

// Merge merges branch into the currently checked out branch.
func (s *GitService) Merge(ctx context.Context, repoPath, branch string, opts MergeOptions) error {
	args := []string{"merge"}
	if opts.Squash {
		args = append(args, "--squash")
	}
	if opts.NoFF {
		args = append(args, "--no-ff")
	}
	if opts.AllowUnrelatedHistories {
		args = append(args, "--allow-unrelated-histories")
	}
	if opts.Message != "" {
		args = append(args, "-m", opts.Message)
	}
	if !opts.Squash && opts.Message == "" {
		args = append(args, "--no-edit")
	}
	args = append(args, branch)

	output, err := s.runner.CombinedOutput(ctx, repoPath, "git", args...)
	if err != nil {
		return fmt.Errorf("merge failed: %s: %w", strings.TrimSpace(string(output)), err)
	}

	logger.WithComponent("git").Info("merged branch", "branch", branch, "repoPath", repoPath, "squash", opts.Squash)
	return nil
}

// Rebase replays branch on top of onto, leaving branch checked out.
func (s *GitService) Rebase(ctx context.Context, repoPath, onto, branch string) error {
	output, err := s.runner.CombinedOutput(ctx, repoPath, "git", "rebase", onto, branch)
	if err != nil {
		return fmt.Errorf("rebase failed: %s: %w", strings.TrimSpace(string(output)), err)
	}
	return nil
}

// AbortMerge aborts an in-progress merge.
func (s *GitService) AbortMerge(ctx context.Context, repoPath string) error {
	output, err := s.runner.CombinedOutput(ctx, repoPath, "git", "merge", "--abort")
	if err != nil {
		return fmt.Errorf("failed to abort merge: %s: %w", strings.TrimSpace(string(output)), err)
	}
	return nil
}

// ConflictedFiles returns the list of files with merge conflicts in a repo.
func (s *GitService) ConflictedFiles(ctx context.Context, repoPath string) ([]string, error) {
	output, err := s.runner.Output(ctx, repoPath, "git", "diff", "--name-only", "--diff-filter=U")
	if err != nil {
		return nil, fmt.Errorf("failed to get conflicted files: %w", err)
	}

	outputStr := strings.TrimSpace(string(output))
	if outputStr == "" {
		return nil, nil
	}
	return strings.Split(outputStr, "\n"), nil
}
