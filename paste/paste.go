// Package paste reintegrates a clip bundle into a target repository: the
// bundle's history is imported as a branch, the prospective merge is
// previewed read-only, and the merge itself runs only after an explicit
// decision.
package paste

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/zhubert/clip-core/clip"
	"github.com/zhubert/clip-core/git"
	"github.com/zhubert/clip-core/logger"
	"github.com/zhubert/clip-core/preview"
)

// Paster orchestrates bundle imports and merges.
type Paster struct {
	Service *git.GitService
	Engine  *preview.Engine
}

// NewPaster returns a Paster backed by the given service.
func NewPaster(s *git.GitService) *Paster {
	return &Paster{Service: s, Engine: preview.NewEngine(s)}
}

// NormalizeRef qualifies a short branch name as a full head ref.
func NormalizeRef(r string) string {
	if strings.HasPrefix(r, "refs/") {
		return r
	}
	return "refs/heads/" + r
}

// bundleStem is the bundle file name without its extension.
func bundleStem(bundlePath string) string {
	base := filepath.Base(bundlePath)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// DefaultAsBranch names the branch a bundle imports as.
func DefaultAsBranch(bundlePath string) string {
	return "clip/" + bundleStem(bundlePath)
}

// DefaultRemoteName names the throwaway remote a bundle is fetched through.
func DefaultRemoteName(bundlePath string) string {
	return "bundle-" + bundleStem(bundlePath)
}

// ListRefsResult reports the refs a bundle contains.
type ListRefsResult struct {
	Action     string           `json:"action"`
	Bundle     string           `json:"bundle"`
	Refs       []git.BundleHead `json:"refs"`
	DefaultRef string           `json:"default_ref,omitempty"`
}

// ListRefs lists the refs in a bundle, annotated with the metadata's
// default branch when one is recorded.
func (p *Paster) ListRefs(ctx context.Context, bundlePath string, meta *clip.Meta) (*ListRefsResult, error) {
	heads, err := p.Service.BundleHeads(ctx, bundlePath)
	if err != nil {
		return nil, err
	}

	result := &ListRefsResult{Action: "list-refs", Bundle: bundlePath, Refs: heads}
	if meta != nil && meta.DefaultBranch != "" {
		result.DefaultRef = NormalizeRef(meta.DefaultBranch)
	}
	return result, nil
}

// SelectRef picks the ref to import. An explicit ref must exist in the
// bundle; otherwise the metadata's default branch is used when present,
// and failing that the bundle's first head. Returns "" when the bundle
// has no heads at all.
func SelectRef(heads []git.BundleHead, explicit string, meta *clip.Meta) (string, error) {
	refs := make([]string, 0, len(heads))
	for _, h := range heads {
		refs = append(refs, h.Ref)
	}
	contains := func(r string) bool {
		for _, ref := range refs {
			if ref == r {
				return true
			}
		}
		return false
	}

	if explicit != "" {
		sel := NormalizeRef(explicit)
		if !contains(sel) {
			return "", fmt.Errorf("ref not found in bundle: %s (available: %s)",
				explicit, strings.Join(refs, ", "))
		}
		return sel, nil
	}
	if meta != nil && meta.DefaultBranch != "" {
		if cand := NormalizeRef(meta.DefaultBranch); contains(cand) {
			return cand, nil
		}
	}
	if len(refs) > 0 {
		return refs[0], nil
	}
	return "", nil
}

// ImportRequest describes one bundle import.
type ImportRequest struct {
	RepoPath   string
	BundlePath string
	Meta       *clip.Meta // optional; influences ref selection
	Ref        string     // explicit ref to import; selection rules apply when empty
	AsBranch   string     // branch to create; clip/<stem> when empty
	RemoteName string     // remote to fetch through; bundle-<stem> when empty
}

// ImportResult reports an imported branch.
type ImportResult struct {
	Action        string                 `json:"action"`
	AsBranch      string                 `json:"as_branch"`
	SourceRef     string                 `json:"source_ref"`
	Remote        string                 `json:"remote"`
	Head          string                 `json:"head"`
	SourceSummary *preview.BranchSummary `json:"source_summary,omitempty"`
}

// Import fetches a bundle's selected ref into the repository as a new
// branch. When the selected ref cannot be fetched directly, all heads are
// fetched as remote-tracking refs and the branch is created from the first
// one. The remote stays registered until RemoveRemote is called, so a
// failed paste can be inspected.
func (p *Paster) Import(ctx context.Context, req *ImportRequest) (*ImportResult, error) {
	log := logger.WithComponent("paste")

	if _, err := os.Stat(req.BundlePath); err != nil {
		return nil, fmt.Errorf("bundle not found: %s", req.BundlePath)
	}
	if !p.Service.IsGitRepo(ctx, req.RepoPath) {
		return nil, fmt.Errorf("target is not a git repository: %s", req.RepoPath)
	}

	heads, err := p.Service.BundleHeads(ctx, req.BundlePath)
	if err != nil {
		return nil, err
	}
	refspec, err := SelectRef(heads, req.Ref, req.Meta)
	if err != nil {
		return nil, err
	}

	asBranch := req.AsBranch
	if asBranch == "" {
		asBranch = DefaultAsBranch(req.BundlePath)
	}
	remote := req.RemoteName
	if remote == "" {
		remote = DefaultRemoteName(req.BundlePath)
	}

	if err := p.Service.AddRemote(ctx, req.RepoPath, remote, req.BundlePath); err != nil {
		return nil, err
	}

	sourceRef := refspec
	if refspec != "" {
		if err := p.Service.Fetch(ctx, req.RepoPath, remote, refspec+":"+asBranch); err != nil {
			return nil, err
		}
	} else {
		if err := p.Service.Fetch(ctx, req.RepoPath, remote, "refs/heads/*:refs/remotes/"+remote+"/*"); err != nil {
			return nil, err
		}
		branches, err := p.Service.RemoteBranches(ctx, req.RepoPath, remote)
		if err != nil {
			return nil, err
		}
		if len(branches) == 0 {
			return nil, fmt.Errorf("no heads found in bundle")
		}
		sourceRef = branches[0]
		if err := p.Service.CreateBranch(ctx, req.RepoPath, asBranch, sourceRef); err != nil {
			return nil, err
		}
	}

	head, err := p.Service.ResolveRef(ctx, req.RepoPath, asBranch)
	if err != nil {
		return nil, err
	}

	log.Info("imported bundle", "bundle", req.BundlePath, "branch", asBranch, "ref", sourceRef)
	return &ImportResult{
		Action:        "import-branch",
		AsBranch:      asBranch,
		SourceRef:     sourceRef,
		Remote:        remote,
		Head:          head,
		SourceSummary: preview.Summarize(ctx, p.Service, req.RepoPath, asBranch),
	}, nil
}

// RemoveRemote drops the bundle remote registered by Import. Failures are
// logged and swallowed; a leftover remote is cosmetic.
func (p *Paster) RemoveRemote(ctx context.Context, repoPath, remote string) {
	if err := p.Service.RemoveRemote(ctx, repoPath, remote); err != nil {
		logger.WithComponent("paste").Warn("could not remove bundle remote", "remote", remote, "error", err)
	}
}

// DryRunWorkspace clones the target into a throwaway directory so a
// dry-run paste can import and preview without touching the real
// repository. The returned cleanup removes the clone.
func (p *Paster) DryRunWorkspace(ctx context.Context, repoPath string) (string, func(), error) {
	tempDir := filepath.Join(os.TempDir(), "git-paste-dry-"+uuid.NewString())
	workRepo := filepath.Join(tempDir, "repo")
	if err := os.MkdirAll(tempDir, 0o755); err != nil {
		return "", nil, fmt.Errorf("failed to create dry-run workspace: %w", err)
	}
	if err := p.Service.Clone(ctx, repoPath, workRepo); err != nil {
		os.RemoveAll(tempDir)
		return "", nil, err
	}
	return workRepo, func() { os.RemoveAll(tempDir) }, nil
}
