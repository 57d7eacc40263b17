package clip

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// OptionsFileName is the per-repo options file, read from the repository
// root.
const OptionsFileName = ".gitclip.yaml"

// MergeOptions carries per-repo merge preferences for paste.
type MergeOptions struct {
	Squash   bool `yaml:"squash"`
	NoFF     bool `yaml:"no_ff"`
	Trailers bool `yaml:"trailers"`
}

// Options are per-repo defaults for cut and paste. Command-line flags
// override everything here.
type Options struct {
	OutDir        string       `yaml:"out_dir"`
	ToSubdir      string       `yaml:"to_subdir"`
	FollowRenames *bool        `yaml:"follow_renames"`
	MaxFiles      int          `yaml:"max_files"`
	Merge         MergeOptions `yaml:"merge"`
}

// DefaultOptions returns the options used when a repo has no options file.
func DefaultOptions() *Options {
	return &Options{
		OutDir:   ".git-clipboard",
		MaxFiles: 1000,
	}
}

// FollowRenamesEnabled reports the follow-renames setting; unset means on.
func (o *Options) FollowRenamesEnabled() bool {
	if o.FollowRenames == nil {
		return true
	}
	return *o.FollowRenames
}

// LoadOptions reads .gitclip.yaml from the repository root. A missing file
// yields defaults and no error; a present but malformed file is an error,
// since silently ignoring a typo'd config is worse than failing.
func LoadOptions(repoPath string) (*Options, error) {
	data, err := os.ReadFile(filepath.Join(repoPath, OptionsFileName))
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultOptions(), nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", OptionsFileName, err)
	}

	opts := DefaultOptions()
	if err := yaml.Unmarshal(data, opts); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", OptionsFileName, err)
	}
	if opts.OutDir == "" {
		opts.OutDir = ".git-clipboard"
	}
	if opts.MaxFiles <= 0 {
		opts.MaxFiles = 1000
	}
	return opts, nil
}
