package git

import (
	"context"
	"fmt"
	"strings"

	"github.com/zhubert/clip-core/logger"
)

// IsGitRepo reports whether path is inside a git working tree.
func (s *GitService) IsGitRepo(ctx context.Context, path string) bool {
	err := s.runner.Run(ctx, path, "git", "rev-parse", "--is-inside-work-tree")
	return err == nil
}

// HasCommits reports whether the repository has at least one commit.
func (s *GitService) HasCommits(ctx context.Context, repoPath string) bool {
	err := s.runner.Run(ctx, repoPath, "git", "rev-parse", "-q", "--verify", "HEAD")
	return err == nil
}

// RefExists reports whether ref resolves in the repository.
func (s *GitService) RefExists(ctx context.Context, repoPath, ref string) bool {
	err := s.runner.Run(ctx, repoPath, "git", "rev-parse", "--verify", ref)
	return err == nil
}

// ResolveRef resolves a ref to its commit SHA.
func (s *GitService) ResolveRef(ctx context.Context, repoPath, ref string) (string, error) {
	output, err := s.runner.Output(ctx, repoPath, "git", "rev-parse", ref)
	if err != nil {
		return "", fmt.Errorf("failed to resolve ref %s: %w", ref, err)
	}
	return strings.TrimSpace(string(output)), nil
}

// ShortHead returns the abbreviated SHA of HEAD.
func (s *GitService) ShortHead(ctx context.Context, repoPath string) (string, error) {
	output, err := s.runner.Output(ctx, repoPath, "git", "rev-parse", "--short", "HEAD")
	if err != nil {
		return "", fmt.Errorf("failed to resolve HEAD: %w", err)
	}
	return strings.TrimSpace(string(output)), nil
}

// CurrentBranch returns the name of the currently checked out branch.
// Returns an error if HEAD is detached or the command fails.
func (s *GitService) CurrentBranch(ctx context.Context, repoPath string) (string, error) {
	output, err := s.runner.Output(ctx, repoPath, "git", "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return "", fmt.Errorf("failed to get current branch: %w", err)
	}

	branch := strings.TrimSpace(string(output))
	if branch == "HEAD" {
		return "", fmt.Errorf("HEAD is detached (not on a branch)")
	}

	return branch, nil
}

// DefaultBranch returns the default branch name for the repository.
// It prefers the symbolic HEAD ref, then falls back to the current branch.
// Returns "" when neither resolves (e.g. an empty repository).
func (s *GitService) DefaultBranch(ctx context.Context, repoPath string) string {
	output, err := s.runner.Output(ctx, repoPath, "git", "symbolic-ref", "-q", "--short", "HEAD")
	if err == nil {
		if ref := strings.TrimSpace(string(output)); ref != "" {
			return ref
		}
	}

	output, err = s.runner.Output(ctx, repoPath, "git", "rev-parse", "--abbrev-ref", "HEAD")
	if err == nil {
		if ref := strings.TrimSpace(string(output)); ref != "" && ref != "HEAD" {
			return ref
		}
	}

	return ""
}

// ListRemotes returns a map of remote name to URL. Remotes whose URL cannot
// be read are included with an empty URL; a failure listing remotes yields an
// empty map.
func (s *GitService) ListRemotes(ctx context.Context, repoPath string) map[string]string {
	remotes := make(map[string]string)

	output, err := s.runner.Output(ctx, repoPath, "git", "remote")
	if err != nil {
		return remotes
	}

	for _, line := range strings.Split(strings.TrimSpace(string(output)), "\n") {
		name := strings.TrimSpace(line)
		if name == "" {
			continue
		}
		url, err := s.runner.Output(ctx, repoPath, "git", "remote", "get-url", name)
		if err != nil {
			remotes[name] = ""
			continue
		}
		remotes[name] = strings.TrimSpace(string(url))
	}

	return remotes
}

// Version returns the git version string (e.g. "git version 2.43.0").
func (s *GitService) Version(ctx context.Context) (string, error) {
	output, err := s.runner.Output(ctx, "", "git", "--version")
	if err != nil {
		return "", fmt.Errorf("failed to check git version: %w", err)
	}
	return strings.TrimSpace(string(output)), nil
}

// Clone clones src into dst with --no-local --no-hardlinks so the clone is a
// fully independent object store, safe to rewrite with filter-repo.
func (s *GitService) Clone(ctx context.Context, src, dst string) error {
	output, err := s.runner.CombinedOutput(ctx, "", "git", "clone", "--no-local", "--no-hardlinks", src, dst)
	if err != nil {
		return fmt.Errorf("git clone failed: %s: %w", strings.TrimSpace(string(output)), err)
	}

	logger.WithComponent("git").Info("cloned repository", "src", src, "dst", dst)
	return nil
}

// Checkout checks out the specified branch.
func (s *GitService) Checkout(ctx context.Context, repoPath, branch string) error {
	output, err := s.runner.CombinedOutput(ctx, repoPath, "git", "checkout", branch)
	if err != nil {
		return fmt.Errorf("git checkout failed: %s: %w", strings.TrimSpace(string(output)), err)
	}
	return nil
}

// CreateBranch creates a branch pointing at startPoint without checking it out.
func (s *GitService) CreateBranch(ctx context.Context, repoPath, branch, startPoint string) error {
	output, err := s.runner.CombinedOutput(ctx, repoPath, "git", "branch", branch, startPoint)
	if err != nil {
		return fmt.Errorf("git branch failed: %s: %w", strings.TrimSpace(string(output)), err)
	}
	return nil
}

// RemoteBranches returns the remote-tracking branch names that belong to the
// given remote, in the order git reports them.
func (s *GitService) RemoteBranches(ctx context.Context, repoPath, remote string) ([]string, error) {
	output, err := s.runner.Output(ctx, repoPath, "git", "branch", "-r")
	if err != nil {
		return nil, fmt.Errorf("failed to list remote branches: %w", err)
	}

	var branches []string
	for _, line := range strings.Split(string(output), "\n") {
		name := strings.TrimSpace(line)
		if strings.HasPrefix(name, remote+"/") {
			branches = append(branches, name)
		}
	}
	return branches, nil
}
