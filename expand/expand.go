// Package expand reconstructs the historical identity of tracked paths.
//
// A path selected for extraction must carry every name it has ever had, or
// history filtering silently truncates at the most recent rename. RenameChain
// discovers all names one file has held; Expander applies it across a list of
// requested paths and directories, producing the full path set to hand to the
// history filter along with an audit trail of what was discovered.
package expand

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/zhubert/clip-core/git"
	"github.com/zhubert/clip-core/logger"
)

// Configuration defaults for expansion.
const (
	// DefaultMaxFiles caps how many files in a directory get individual
	// rename-following. Each file costs one full history query; past this
	// bound the directory is included literally instead.
	DefaultMaxFiles = 1000

	// DefaultWorkers bounds the worker pool for per-file history queries in
	// the directory case. Queries are read-only and independent.
	DefaultWorkers = 4
)

// Warning is a diagnostic tied to one input path, emitted when expansion for
// that path was skipped or truncated. A warning never aborts processing of
// other paths.
type Warning struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// Result is the outcome of expanding a list of requested paths.
type Result struct {
	// Paths is the deduplicated, sorted union of every audit entry. Safe to
	// pass directly to history filtering: every entry existed as a tracked
	// name at some point, or is an explicit passthrough for untracked input.
	Paths []string

	// Audit maps each originally requested path to the complete sorted set of
	// names discovered for it, including itself.
	Audit map[string][]string

	// Warnings collects per-path diagnostics.
	Warnings []Warning
}

// RenameChain returns every path the given tracked file has ever been known
// by, including its current path, sorted. The result always contains path:
// a file with no rename events yields {path}, and so does any failure while
// querying history — resilience takes priority over completeness here.
func RenameChain(ctx context.Context, s *git.GitService, repoPath, filePath string) []string {
	names := map[string]struct{}{filePath: {}}

	events, err := s.FollowRenames(ctx, repoPath, filePath)
	if err != nil {
		logger.WithComponent("expand").Debug("rename discovery failed, using path alone",
			"path", filePath, "error", err)
	} else {
		for _, ev := range events {
			if ev.OldPath != "" {
				names[ev.OldPath] = struct{}{}
			}
			if ev.NewPath != "" {
				names[ev.NewPath] = struct{}{}
			}
		}
	}

	return sortedKeys(names)
}

// pathKind classifies one requested path; each kind has its own expansion
// strategy.
type pathKind int

const (
	kindUntracked pathKind = iota
	kindSingleFile
	kindDirectory
)

// Expander expands requested paths across renames.
type Expander struct {
	Service  *git.GitService
	MaxFiles int // per-directory file cap; DefaultMaxFiles when zero
	Workers  int // worker pool size for directory expansion; DefaultWorkers when zero
}

// NewExpander returns an Expander with default limits.
func NewExpander(s *git.GitService) *Expander {
	return &Expander{Service: s, MaxFiles: DefaultMaxFiles, Workers: DefaultWorkers}
}

// Expand expands every requested path. Each input is classified as untracked,
// a single tracked file, or a directory/multi-match, then expanded by the
// strategy for that kind. Failures and over-cap directories degrade to
// literal passthrough; no input ever halts processing of its siblings.
func (e *Expander) Expand(ctx context.Context, repoPath string, inputs []string) *Result {
	log := logger.WithComponent("expand")

	result := &Result{Audit: make(map[string][]string, len(inputs))}
	union := make(map[string]struct{})

	for _, p := range inputs {
		kind, tracked := e.classify(ctx, repoPath, p)

		var names []string
		switch kind {
		case kindUntracked:
			// Untracked or absent at HEAD; include as-is with no discovery.
			names = []string{p}

		case kindSingleFile:
			names = RenameChain(ctx, e.Service, repoPath, p)

		case kindDirectory:
			if len(tracked) > e.maxFiles() {
				result.Warnings = append(result.Warnings, Warning{
					Path: p,
					Message: fmt.Sprintf("Skipping follow-renames for '%s' - too many files (%d > %d)",
						p, len(tracked), e.maxFiles()),
				})
				names = []string{p}
				break
			}
			names = e.expandDirectory(ctx, repoPath, tracked)
			if len(names) == 0 {
				// An empty union degrades to the literal path. Unreachable in
				// practice since every chain is seeded with its own file.
				names = []string{p}
			}
		}

		sort.Strings(names)
		result.Audit[p] = names
		for _, n := range names {
			union[n] = struct{}{}
		}

		log.Debug("expanded input", "path", p, "kind", int(kind), "names", len(names))
	}

	result.Paths = sortedKeys(union)
	return result
}

// classify decides the expansion strategy for one input path. A failure
// listing tracked files is treated as untracked, never as fatal.
func (e *Expander) classify(ctx context.Context, repoPath, p string) (pathKind, []string) {
	tracked, err := e.Service.ListTrackedFiles(ctx, repoPath, p)
	if err != nil || len(tracked) == 0 {
		return kindUntracked, nil
	}
	if len(tracked) == 1 && tracked[0] == p {
		return kindSingleFile, tracked
	}
	return kindDirectory, tracked
}

// expandDirectory runs RenameChain over every matched file through a bounded
// worker pool and returns the sorted union. Results are merged after sorting
// so the output is deterministic regardless of completion order.
func (e *Expander) expandDirectory(ctx context.Context, repoPath string, files []string) []string {
	workers := e.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}
	if workers > len(files) {
		workers = len(files)
	}

	jobs := make(chan string)
	chains := make(chan []string, len(files))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for f := range jobs {
				chains <- RenameChain(ctx, e.Service, repoPath, f)
			}
		}()
	}

	for _, f := range files {
		jobs <- f
	}
	close(jobs)
	wg.Wait()
	close(chains)

	union := make(map[string]struct{})
	for chain := range chains {
		for _, n := range chain {
			union[n] = struct{}{}
		}
	}
	return sortedKeys(union)
}

func (e *Expander) maxFiles() int {
	if e.MaxFiles <= 0 {
		return DefaultMaxFiles
	}
	return e.MaxFiles
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
