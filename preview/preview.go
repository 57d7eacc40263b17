// Package preview implements read-only merge analysis: branch summaries,
// conflict detection via merge-tree, and bounded diff sampling. Nothing in
// this package writes to a repository except Engine.Apply, which only runs
// when a caller explicitly invokes it after a preview.
package preview

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/zhubert/clip-core/git"
	"github.com/zhubert/clip-core/logger"
)

// Conflicts is the tri-state outcome of conflict detection. The zero value
// is ConflictsUnknown: absence of evidence is never reported as absence of
// conflicts.
type Conflicts int

const (
	ConflictsUnknown Conflicts = iota
	ConflictsFalse
	ConflictsTrue
)

func (c Conflicts) String() string {
	switch c {
	case ConflictsFalse:
		return "false"
	case ConflictsTrue:
		return "true"
	default:
		return "unknown"
	}
}

// MarshalJSON renders unknown as null so consumers can distinguish "no
// conflicts detected" from "could not determine".
func (c Conflicts) MarshalJSON() ([]byte, error) {
	switch c {
	case ConflictsFalse:
		return []byte("false"), nil
	case ConflictsTrue:
		return []byte("true"), nil
	default:
		return []byte("null"), nil
	}
}

func (c *Conflicts) UnmarshalJSON(data []byte) error {
	switch strings.TrimSpace(string(data)) {
	case "false":
		*c = ConflictsFalse
	case "true":
		*c = ConflictsTrue
	case "null":
		*c = ConflictsUnknown
	default:
		return fmt.Errorf("invalid conflicts value: %s", data)
	}
	return nil
}

// MaxDiffSample caps how many per-file change records a preview carries.
const MaxDiffSample = 50

// DiffSummary is a bounded summary of the changes a merge would introduce.
type DiffSummary struct {
	Range         string             `json:"range"`
	FilesChanged  int                `json:"files_changed"`
	Insertions    int                `json:"insertions"`
	Deletions     int                `json:"deletions"`
	ChangesSample []git.ChangeRecord `json:"changes_sample"`
}

// MergePreviewResult is the read-only analysis of a prospective merge of
// Source into Target.
type MergePreviewResult struct {
	Action        string         `json:"action"`
	Target        string         `json:"target"`
	Source        string         `json:"source"`
	Base          string         `json:"base,omitempty"`
	Conflicts     Conflicts      `json:"conflicts"`
	SourceSummary *BranchSummary `json:"source_summary,omitempty"`
	DiffSummary   *DiffSummary   `json:"diff_summary,omitempty"`
	Note          string         `json:"note,omitempty"`
}

// JSON renders the preview for display.
func (r *MergePreviewResult) JSON() (string, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode preview: %w", err)
	}
	return string(data), nil
}

// Decision is the recorded outcome of a previewed merge.
type Decision string

const (
	DecisionPreviewed Decision = "PREVIEWED"
	DecisionAccepted  Decision = "ACCEPTED"
	DecisionSkipped   Decision = "SKIPPED"
)

// Decide resolves a preview into an outcome. A merge is accepted only when
// detection affirmatively found no conflicts and the operator approved;
// conflicting and unknown previews are both skipped.
func Decide(result *MergePreviewResult, operatorApproved bool) Decision {
	if result.Conflicts == ConflictsFalse && operatorApproved {
		return DecisionAccepted
	}
	return DecisionSkipped
}

// Engine runs merge previews and, separately, applies approved merges.
type Engine struct {
	Service *git.GitService
}

// NewEngine returns an Engine backed by the given service.
func NewEngine(s *git.GitService) *Engine {
	return &Engine{Service: s}
}

// Preview analyzes what merging source into target would do, without
// touching the working tree, the index, or any ref. It returns an error
// only when target or source does not resolve; every downstream analysis
// failure degrades into the result instead (unknown conflicts, zeroed
// counters).
func (e *Engine) Preview(ctx context.Context, repoPath, target, source string) (*MergePreviewResult, error) {
	log := logger.WithComponent("preview")

	if !e.Service.RefExists(ctx, repoPath, target) {
		return nil, fmt.Errorf("target ref %q does not resolve", target)
	}
	if !e.Service.RefExists(ctx, repoPath, source) {
		return nil, fmt.Errorf("source ref %q does not resolve", source)
	}

	result := &MergePreviewResult{
		Action: "merge-preview",
		Target: target,
		Source: source,
	}

	base, ok := e.Service.MergeBase(ctx, repoPath, target, source)
	if !ok {
		result.Note = "Could not determine merge-base; conflict status unknown"
	} else {
		result.Base = base
		if output, err := e.Service.MergeTree(ctx, repoPath, base, target, source); err != nil {
			log.Debug("merge-tree failed, leaving conflicts unknown", "error", err)
		} else if strings.Contains(output, "<<<<<<<") || strings.Contains(output, ">>>>>>>") {
			result.Conflicts = ConflictsTrue
		} else {
			result.Conflicts = ConflictsFalse
		}
	}

	// The diff baseline is the merge-base when one exists; for unrelated
	// histories the target itself stands in so the sample still shows
	// what the merge would bring over.
	left := base
	if left == "" {
		left = target
	}
	result.DiffSummary = e.diffSummary(ctx, repoPath, left, source)
	result.SourceSummary = Summarize(ctx, e.Service, repoPath, source)

	log.Info("merge preview",
		"target", target, "source", source,
		"base", result.Base, "conflicts", result.Conflicts.String())
	return result, nil
}

// diffSummary builds a bounded change summary for left..right. Sub-query
// failures degrade to an empty sample and zero counters.
func (e *Engine) diffSummary(ctx context.Context, repoPath, left, right string) *DiffSummary {
	rangeExpr := left + ".." + right

	summary := &DiffSummary{Range: rangeExpr, ChangesSample: []git.ChangeRecord{}}
	summary.FilesChanged, summary.Insertions, summary.Deletions = e.Service.DiffShortstat(ctx, repoPath, rangeExpr)

	records, err := e.Service.DiffNameStatus(ctx, repoPath, rangeExpr, "50%")
	if err != nil {
		logger.WithComponent("preview").Debug("name-status diff failed", "range", rangeExpr, "error", err)
		return summary
	}
	if len(records) > MaxDiffSample {
		records = records[:MaxDiffSample]
	}
	summary.ChangesSample = records
	return summary
}

// Apply performs the merge a preview described. It is the second phase of
// the two-phase flow: callers gate it on Decide returning ACCEPTED. When
// the preview found no merge-base the unrelated-histories override is added
// automatically, since that is the only way the merge can proceed.
func (e *Engine) Apply(ctx context.Context, repoPath string, result *MergePreviewResult, opts git.MergeOptions) error {
	if result.Base == "" {
		opts.AllowUnrelatedHistories = true
	}

	if err := e.Service.Checkout(ctx, repoPath, result.Target); err != nil {
		return err
	}
	if err := e.Service.Merge(ctx, repoPath, result.Source, opts); err != nil {
		return err
	}

	logger.WithComponent("preview").Info("merge applied",
		"target", result.Target, "source", result.Source, "squash", opts.Squash)
	return nil
}
