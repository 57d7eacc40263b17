package git

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/zhubert/clip-core/logger"
)

// ChangeRecord is one per-file change from a name-status diff. Rename records
// carry From and To; plain change records carry Path.
type ChangeRecord struct {
	Status string `json:"status"`
	Path   string `json:"path,omitempty"`
	From   string `json:"from,omitempty"`
	To     string `json:"to,omitempty"`
}

// IsRename reports whether the record is a rename-classified change.
func (c ChangeRecord) IsRename() bool {
	return c.Status == "R"
}

var (
	shortstatFiles      = regexp.MustCompile(`(\d+) files? changed`)
	shortstatInsertions = regexp.MustCompile(`(\d+) insertions?\(\+\)`)
	shortstatDeletions  = regexp.MustCompile(`(\d+) deletions?\(-\)`)
)

// DiffShortstat returns (files changed, insertions, deletions) for the given
// range expression (e.g. "base..source"). Failures yield zeros.
func (s *GitService) DiffShortstat(ctx context.Context, repoPath, rangeExpr string) (filesChanged, insertions, deletions int) {
	output, err := s.runner.Output(ctx, repoPath, "git", "diff", "--shortstat", rangeExpr)
	if err != nil {
		logger.WithComponent("git").Debug("diff --shortstat failed", "range", rangeExpr, "error", err)
		return 0, 0, 0
	}

	stat := strings.TrimSpace(string(output))
	filesChanged = matchCount(shortstatFiles, stat)
	insertions = matchCount(shortstatInsertions, stat)
	deletions = matchCount(shortstatDeletions, stat)
	return filesChanged, insertions, deletions
}

func matchCount(re *regexp.Regexp, s string) int {
	m := re.FindStringSubmatch(s)
	if m == nil {
		return 0
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	return n
}

// DiffNameStatus returns per-file change records for the given range
// expression, with rename detection at the given similarity threshold
// (e.g. "50%"). Rename-classified changes are recorded as (from, to) pairs
// rather than flattened to a single path.
func (s *GitService) DiffNameStatus(ctx context.Context, repoPath, rangeExpr, renameThreshold string) ([]ChangeRecord, error) {
	output, err := s.runner.Output(ctx, repoPath, "git",
		"diff", "--name-status", "--find-renames="+renameThreshold, rangeExpr)
	if err != nil {
		return nil, fmt.Errorf("git diff --name-status failed for %q: %w", rangeExpr, err)
	}

	var records []ChangeRecord
	for _, line := range strings.Split(string(output), "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		parts := strings.Split(line, "\t")
		code := parts[0]
		switch {
		case strings.HasPrefix(code, "R") && len(parts) >= 3:
			records = append(records, ChangeRecord{Status: "R", From: parts[1], To: parts[2]})
		case len(parts) >= 2:
			records = append(records, ChangeRecord{Status: code, Path: parts[1]})
		}
	}
	return records, nil
}
