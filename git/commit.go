package git

import (
	"context"
	"fmt"
	"strings"

	"github.com/zhubert/clip-core/logger"
)

// StatusClean reports whether the working tree has no uncommitted changes.
func (s *GitService) StatusClean(ctx context.Context, repoPath string) (bool, error) {
	output, err := s.runner.Output(ctx, repoPath, "git", "status", "--porcelain")
	if err != nil {
		return false, fmt.Errorf("git status failed: %w", err)
	}
	return strings.TrimSpace(string(output)) == "", nil
}

// Commit creates a commit with the given message from whatever is staged.
func (s *GitService) Commit(ctx context.Context, repoPath, message string) error {
	output, err := s.runner.CombinedOutput(ctx, repoPath, "git", "commit", "-m", message)
	if err != nil {
		return fmt.Errorf("git commit failed: %s: %w", strings.TrimSpace(string(output)), err)
	}
	return nil
}

// RemoveAndCommit removes the given paths from the index and working tree
// and commits the removal. Paths that no longer match anything are ignored.
// This implements pruning the source repository after a successful cut.
func (s *GitService) RemoveAndCommit(ctx context.Context, repoPath string, removePaths []string, message string) error {
	log := logger.WithComponent("git")

	args := append([]string{"rm", "-r", "--ignore-unmatch", "--"}, removePaths...)
	if output, err := s.runner.CombinedOutput(ctx, repoPath, "git", args...); err != nil {
		return fmt.Errorf("git rm failed: %s: %w", strings.TrimSpace(string(output)), err)
	}

	if err := s.Commit(ctx, repoPath, message); err != nil {
		return err
	}

	log.Info("pruned paths from source", "repoPath", repoPath, "paths", len(removePaths))
	return nil
}

// LastCommitMessage returns the full message of the most recent commit.
func (s *GitService) LastCommitMessage(ctx context.Context, repoPath string) (string, error) {
	output, err := s.runner.Output(ctx, repoPath, "git", "log", "-1", "--pretty=%B")
	if err != nil {
		return "", fmt.Errorf("failed to read last commit message: %w", err)
	}
	return strings.TrimSpace(string(output)), nil
}

// AmendMessage rewrites the most recent commit's message without changing
// its tree. Used to append clip trailers after a merge commit.
func (s *GitService) AmendMessage(ctx context.Context, repoPath, message string) error {
	output, err := s.runner.CombinedOutput(ctx, repoPath, "git", "commit", "--amend", "-m", message)
	if err != nil {
		return fmt.Errorf("git commit --amend failed: %s: %w", strings.TrimSpace(string(output)), err)
	}
	return nil
}
