package preview

import (
	"context"
	"sort"

	"github.com/dustin/go-humanize"
	"github.com/zhubert/clip-core/git"
	"github.com/zhubert/clip-core/logger"
)

// Bounds for summary output. Summaries appear inline in JSON previews, so
// both lists are capped with explicit truncation signals rather than
// dumping an entire tree.
const (
	MaxTopLevelPaths = 50
	MaxLargestFiles  = 10
)

// LargestFile is one entry in a summary's largest-files sample.
type LargestFile struct {
	Path string `json:"path"`
	Size int64  `json:"size"`
}

// BranchSummary describes the contents and history of one branch or ref.
type BranchSummary struct {
	CommitCount            int           `json:"commit_count"`
	TopLevelPaths          []string      `json:"top_level_paths"`
	TopLevelPathsTotal     int           `json:"top_level_paths_total"`
	TopLevelPathsTruncated bool          `json:"top_level_paths_truncated"`
	FileCount              int           `json:"file_count"`
	TotalSizeBytes         int64         `json:"total_size_bytes"`
	LargestFiles           []LargestFile `json:"largest_files"`
}

// TotalSizeHuman renders the aggregate size for display ("1.5 MB").
func (b *BranchSummary) TotalSizeHuman() string {
	return humanize.Bytes(uint64(b.TotalSizeBytes))
}

// Summarize builds a BranchSummary for ref. Every sub-query degrades
// independently: a failed commit count reports 0, a failed tree listing
// reports no entries. Summarize never returns an error — a summary of
// a broken ref is an empty summary, not a failed preview.
func Summarize(ctx context.Context, s *git.GitService, repoPath, ref string) *BranchSummary {
	log := logger.WithComponent("preview")

	summary := &BranchSummary{
		CommitCount:   s.RevisionCount(ctx, repoPath, ref),
		TopLevelPaths: []string{},
		LargestFiles:  []LargestFile{},
	}

	if entries, err := s.ListTree(ctx, repoPath, ref, false, false); err != nil {
		log.Debug("top-level listing failed", "ref", ref, "error", err)
	} else {
		summary.TopLevelPathsTotal = len(entries)
		summary.TopLevelPathsTruncated = len(entries) > MaxTopLevelPaths
		for i, e := range entries {
			if i >= MaxTopLevelPaths {
				break
			}
			summary.TopLevelPaths = append(summary.TopLevelPaths, e.Path)
		}
	}

	entries, err := s.ListTree(ctx, repoPath, ref, true, true)
	if err != nil {
		log.Debug("recursive listing failed", "ref", ref, "error", err)
		return summary
	}

	for _, e := range entries {
		if !e.IsBlob() {
			continue
		}
		size := e.Size
		if size < 0 {
			size = 0
		}
		summary.FileCount++
		summary.TotalSizeBytes += size
		summary.LargestFiles = recordLargest(summary.LargestFiles, LargestFile{Path: e.Path, Size: size})
	}

	return summary
}

// recordLargest maintains a bounded largest-files sample, descending by
// size with ties kept in discovery order.
func recordLargest(largest []LargestFile, f LargestFile) []LargestFile {
	if len(largest) < MaxLargestFiles {
		largest = append(largest, f)
	} else if f.Size > largest[len(largest)-1].Size {
		largest[len(largest)-1] = f
	} else {
		return largest
	}
	sort.SliceStable(largest, func(i, j int) bool {
		return largest[i].Size > largest[j].Size
	})
	return largest
}
