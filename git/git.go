// Package git provides the read-only query surface and the small set of
// mutation commands gitclip needs against a repository.
//
// The package is organized into focused modules:
//   - service.go: GitService struct and constructor
//   - repo.go: repository probes, default branch, remotes, cloning
//   - history.go: tracked-file listing, rename-following history, revision counts
//   - tree.go: tree listings with size metadata
//   - diff.go: shortstat and name-status diff summaries
//   - merge.go: merge-base, non-destructive merge-tree, merge execution
//   - commit.go: working-tree status, prune commits, message amending
//   - bundle.go: bundle creation, head listing, import fetches
//
// All queries are synchronous and degrade per caller policy: a failed read is
// never retried, since every query runs against immutable history.
package git
