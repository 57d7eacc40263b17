// Package clip defines the persistent artifacts of a clip: the metadata
// JSON written beside each bundle, the global last-clip pointer, per-repo
// options, and the trailer block appended to import commits.
package clip

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// MetaVersion is the current metadata schema version.
const MetaVersion = 1

// Meta describes one clip: what was cut, from where, and how. It is written
// as <name>.json beside the bundle and travels with it.
type Meta struct {
	Version              int                 `json:"version"`
	ID                   string              `json:"id,omitempty"`
	CreatedAt            string              `json:"created_at"`
	SourceRepo           string              `json:"source_repo"`
	Paths                []string            `json:"paths"`
	ExpandedPaths        []string            `json:"expanded_paths"`
	ToSubdir             string              `json:"to_subdir,omitempty"`
	FollowRenames        bool                `json:"follow_renames"`
	Bundle               string              `json:"bundle"`
	GitVersion           string              `json:"git_version,omitempty"`
	FilterRepoInvocation string              `json:"filter_repo_invocation,omitempty"`
	DefaultBranch        string              `json:"default_branch,omitempty"`
	SourceRemotes        map[string]string   `json:"source_remotes,omitempty"`
	AckFileSuggestion    string              `json:"ack_file_suggestion,omitempty"`
	FollowDetails        map[string][]string `json:"follow_details,omitempty"`
	Warnings             []string            `json:"warnings"`
}

// MetaPathFor returns the metadata path beside a bundle: the bundle path
// with its extension replaced by .json.
func MetaPathFor(bundlePath string) string {
	ext := filepath.Ext(bundlePath)
	return strings.TrimSuffix(bundlePath, ext) + ".json"
}

// DefaultClipName returns a timestamped clip base name.
func DefaultClipName(now time.Time) string {
	return now.Format("clip-20060102-150405")
}

// LoadMeta reads clip metadata from path.
func LoadMeta(path string) (*Meta, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read clip metadata: %w", err)
	}

	var m Meta
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse clip metadata %s: %w", path, err)
	}
	return &m, nil
}

// LoadMetaFor reads the metadata beside a bundle. A missing or unreadable
// file yields nil: metadata is advisory and its absence never blocks a
// paste.
func LoadMetaFor(bundlePath string) *Meta {
	m, err := LoadMeta(MetaPathFor(bundlePath))
	if err != nil {
		return nil
	}
	return m
}

// Save writes the metadata to path.
func (m *Meta) Save(path string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode clip metadata: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write clip metadata: %w", err)
	}
	return nil
}

// CreatedAtTime parses the creation timestamp. Returns the zero time when
// the field is absent or unparseable.
func (m *Meta) CreatedAtTime() time.Time {
	if m.CreatedAt == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, m.CreatedAt); err == nil {
			return t
		}
	}
	return time.Time{}
}

// Age renders how long ago the clip was created ("3 minutes ago"), or ""
// when the timestamp cannot be parsed.
func (m *Meta) Age() string {
	t := m.CreatedAtTime()
	if t.IsZero() {
		return ""
	}
	return humanize.Time(t)
}
