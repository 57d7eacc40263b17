package git

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// TreeEntry is one entry from a tree listing.
type TreeEntry struct {
	Mode string
	Type string // "blob", "tree", or "commit" (submodule link)
	Size int64  // -1 when no size applies (trees, submodules, listings without --long)
	Path string
}

// IsBlob reports whether the entry is a regular file object.
func (e TreeEntry) IsBlob() bool {
	return e.Type == "blob"
}

// ListTree lists the tree of ref. With recursive set it walks the full tree;
// with withSizes set each entry carries object sizes (ls-tree --long).
// Malformed size fields parse to 0 rather than failing the listing.
func (s *GitService) ListTree(ctx context.Context, repoPath, ref string, recursive, withSizes bool) ([]TreeEntry, error) {
	args := []string{"ls-tree"}
	if recursive {
		args = append(args, "-r")
	}
	if withSizes {
		args = append(args, "--long")
	}
	args = append(args, ref)

	output, err := s.runner.Output(ctx, repoPath, "git", args...)
	if err != nil {
		return nil, fmt.Errorf("git ls-tree failed for %q: %w", ref, err)
	}

	var entries []TreeEntry
	for _, line := range strings.Split(string(output), "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		entry, ok := parseTreeLine(line, withSizes)
		if !ok {
			continue
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// parseTreeLine parses one ls-tree output line:
//
//	<mode> <type> <object>\t<path>            (plain)
//	<mode> <type> <object> <size>\t<path>     (--long; size is "-" for non-blobs)
func parseTreeLine(line string, withSizes bool) (TreeEntry, bool) {
	meta, path, ok := strings.Cut(line, "\t")
	if !ok {
		return TreeEntry{}, false
	}

	fields := strings.Fields(meta)
	if len(fields) < 3 {
		return TreeEntry{}, false
	}

	entry := TreeEntry{
		Mode: fields[0],
		Type: fields[1],
		Size: -1,
		Path: path,
	}

	if withSizes && len(fields) >= 4 && fields[3] != "-" {
		size, err := strconv.ParseInt(fields[3], 10, 64)
		if err != nil {
			size = 0
		}
		entry.Size = size
	}

	return entry, true
}
