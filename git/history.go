package git

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/zhubert/clip-core/logger"
)

// RenameEvent records one rename-classified change in a file's history.
// Both paths are repo-root relative. Events are derived per query and never
// persisted.
type RenameEvent struct {
	OldPath string
	NewPath string
}

// ListTrackedFiles lists tracked files matching a path (file or directory).
// Returns repo-root relative paths. A pattern matching nothing yields an
// empty slice and no error.
func (s *GitService) ListTrackedFiles(ctx context.Context, repoPath, pattern string) ([]string, error) {
	output, err := s.runner.Output(ctx, repoPath, "git", "ls-files", "--", pattern)
	if err != nil {
		return nil, fmt.Errorf("git ls-files failed for %q: %w", pattern, err)
	}

	var files []string
	for _, line := range strings.Split(string(output), "\n") {
		if f := strings.TrimSpace(line); f != "" {
			files = append(files, f)
		}
	}
	return files, nil
}

// FollowRenames returns the rename events in the history of one tracked file,
// following renames across its whole history. Only rename-classified changes
// are reported; a file that was only ever added and modified yields an empty
// slice.
func (s *GitService) FollowRenames(ctx context.Context, repoPath, filePath string) ([]RenameEvent, error) {
	output, err := s.runner.Output(ctx, repoPath, "git",
		"log", "--follow", "--name-status", "--diff-filter=R", "--pretty=format:", "--", filePath)
	if err != nil {
		return nil, fmt.Errorf("git log --follow failed for %q: %w", filePath, err)
	}

	var events []RenameEvent
	for _, line := range strings.Split(string(output), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		// Name-status rename lines look like "R100\told/path\tnew/path".
		parts := strings.Split(line, "\t")
		if len(parts) < 3 || !strings.HasPrefix(parts[0], "R") {
			continue
		}
		oldPath := strings.TrimSpace(parts[1])
		newPath := strings.TrimSpace(parts[2])
		if oldPath == "" && newPath == "" {
			continue
		}
		events = append(events, RenameEvent{OldPath: oldPath, NewPath: newPath})
	}
	return events, nil
}

// RevisionCount returns the number of commits reachable from ref.
// Failure to compute yields 0, never an error.
func (s *GitService) RevisionCount(ctx context.Context, repoPath, ref string) int {
	output, err := s.runner.Output(ctx, repoPath, "git", "rev-list", "--count", ref)
	if err != nil {
		logger.WithComponent("git").Debug("rev-list --count failed", "ref", ref, "error", err)
		return 0
	}

	count, err := strconv.Atoi(strings.TrimSpace(string(output)))
	if err != nil {
		return 0
	}
	return count
}

// RevisionCountPaths returns the number of commits across all refs that touch
// any of the given paths, as a string. Returns "unknown" on failure; this
// feeds a dry-run plan where a missing count should not abort anything.
func (s *GitService) RevisionCountPaths(ctx context.Context, repoPath string, paths []string) string {
	args := append([]string{"rev-list", "--all", "--count", "--"}, paths...)
	output, err := s.runner.Output(ctx, repoPath, "git", args...)
	if err != nil {
		return "unknown"
	}
	return strings.TrimSpace(string(output))
}

// RecentCommits returns up to n one-line commit descriptions touching the
// given paths. Failures yield an empty slice.
func (s *GitService) RecentCommits(ctx context.Context, repoPath string, n int, paths []string) []string {
	args := append([]string{"log", "--oneline", "-n", strconv.Itoa(n), "--"}, paths...)
	output, err := s.runner.Output(ctx, repoPath, "git", args...)
	if err != nil {
		return nil
	}

	var commits []string
	for _, line := range strings.Split(strings.TrimSpace(string(output)), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			commits = append(commits, line)
		}
	}
	return commits
}
