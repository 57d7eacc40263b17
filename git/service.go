package git

import (
	cexec "github.com/zhubert/clip-core/exec"
)

// GitService provides git operations with explicit dependency injection.
// Each GitService instance holds its own runner, enabling proper testing and
// avoiding global state.
type GitService struct {
	runner cexec.GitRunner
}

// NewGitService creates a new GitService with the default real runner.
func NewGitService() *GitService {
	return &GitService{runner: cexec.NewRealRunner()}
}

// NewGitServiceWithRunner creates a new GitService with a custom runner.
// This is primarily used for testing where a scripted runner is needed.
func NewGitServiceWithRunner(runner cexec.GitRunner) *GitService {
	return &GitService{runner: runner}
}
