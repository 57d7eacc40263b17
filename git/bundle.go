package git

import (
	"context"
	"fmt"
	"strings"

	"github.com/zhubert/clip-core/logger"
)

// BundleHead is one ref recorded in a bundle.
type BundleHead struct {
	SHA string `json:"sha"`
	Ref string `json:"ref"`
}

// CreateBundle writes a bundle containing all refs of the repository.
func (s *GitService) CreateBundle(ctx context.Context, repoPath, bundlePath string) error {
	output, err := s.runner.CombinedOutput(ctx, repoPath, "git", "bundle", "create", bundlePath, "--all")
	if err != nil {
		return fmt.Errorf("git bundle create failed: %s: %w", strings.TrimSpace(string(output)), err)
	}

	logger.WithComponent("git").Info("created bundle", "bundle", bundlePath, "repoPath", repoPath)
	return nil
}

// BundleHeads lists the refs a bundle contains.
func (s *GitService) BundleHeads(ctx context.Context, bundlePath string) ([]BundleHead, error) {
	output, err := s.runner.Output(ctx, "", "git", "bundle", "list-heads", bundlePath)
	if err != nil {
		return nil, fmt.Errorf("git bundle list-heads failed for %q: %w", bundlePath, err)
	}

	var heads []BundleHead
	for _, line := range strings.Split(string(output), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		parts := strings.Fields(line)
		if len(parts) >= 2 {
			heads = append(heads, BundleHead{SHA: parts[0], Ref: parts[1]})
		}
	}
	return heads, nil
}

// AddRemote adds a remote pointing at url. If the remote already exists its
// URL is updated instead.
func (s *GitService) AddRemote(ctx context.Context, repoPath, name, url string) error {
	if _, err := s.runner.CombinedOutput(ctx, repoPath, "git", "remote", "add", name, url); err == nil {
		return nil
	}

	output, err := s.runner.CombinedOutput(ctx, repoPath, "git", "remote", "set-url", name, url)
	if err != nil {
		return fmt.Errorf("failed to add remote %s: %s: %w", name, strings.TrimSpace(string(output)), err)
	}
	return nil
}

// RemoveRemote removes a remote. Missing remotes are not an error.
func (s *GitService) RemoveRemote(ctx context.Context, repoPath, name string) error {
	output, err := s.runner.CombinedOutput(ctx, repoPath, "git", "remote", "remove", name)
	if err != nil {
		if strings.Contains(string(output), "No such remote") {
			return nil
		}
		return fmt.Errorf("failed to remove remote %s: %s: %w", name, strings.TrimSpace(string(output)), err)
	}
	return nil
}

// Fetch fetches the given refspec from a remote.
func (s *GitService) Fetch(ctx context.Context, repoPath, remote, refspec string) error {
	output, err := s.runner.CombinedOutput(ctx, repoPath, "git", "fetch", remote, refspec)
	if err != nil {
		return fmt.Errorf("git fetch failed: %s: %w", strings.TrimSpace(string(output)), err)
	}
	return nil
}
