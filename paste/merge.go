package paste

import (
	"context"
	"fmt"
	"strings"

	"github.com/zhubert/clip-core/clip"
	"github.com/zhubert/clip-core/git"
	"github.com/zhubert/clip-core/logger"
	"github.com/zhubert/clip-core/preview"
)

// MergeRequest describes merging an imported branch into the target.
type MergeRequest struct {
	RepoPath       string
	TargetBranch   string // current branch when empty
	AsBranch       string // the imported branch
	Squash         bool
	NoFF           bool
	Rebase         bool // rebase AsBranch onto the target before merging
	AllowUnrelated bool
	Message        string
	Trailers       bool // record clip provenance on the merge commit

	// Provenance for the trailer block.
	BundlePath string
	Meta       *clip.Meta
	RefUsed    string
	HeadSHA    string
}

// EmptyTargetNote explains why an empty target repository gets no merge.
const EmptyTargetNote = "Target repo has no commits; merge would effectively adopt imported branch after creation."

// PreviewMerge analyzes merging the imported branch into the target
// branch without modifying anything. An empty target repository yields a
// synthetic clean preview carrying EmptyTargetNote, since there is nothing
// to conflict with. A detached HEAD with no explicit target branch is an
// input error.
func (p *Paster) PreviewMerge(ctx context.Context, repoPath, targetBranch, asBranch string) (*preview.MergePreviewResult, error) {
	if !p.Service.HasCommits(ctx, repoPath) {
		return &preview.MergePreviewResult{
			Action:    "merge-preview",
			Source:    asBranch,
			Conflicts: preview.ConflictsFalse,
			Note:      EmptyTargetNote,
		}, nil
	}

	if targetBranch == "" {
		current, err := p.Service.CurrentBranch(ctx, repoPath)
		if err != nil {
			return nil, fmt.Errorf("cannot merge onto detached HEAD; specify a target branch: %w", err)
		}
		targetBranch = current
	}

	return p.Engine.Preview(ctx, repoPath, targetBranch, asBranch)
}

// Merge performs the merge a preview described. Callers gate the call on
// preview.Decide; Merge itself only validates inputs and executes. The
// unrelated-histories override is added automatically when no merge-base
// exists, matching Engine.Apply.
func (p *Paster) Merge(ctx context.Context, req *MergeRequest) error {
	log := logger.WithComponent("paste")

	targetBranch := req.TargetBranch
	if targetBranch == "" {
		current, err := p.Service.CurrentBranch(ctx, req.RepoPath)
		if err != nil {
			return fmt.Errorf("cannot merge onto detached HEAD; specify a target branch: %w", err)
		}
		targetBranch = current
	}
	if !p.Service.RefExists(ctx, req.RepoPath, targetBranch) {
		return fmt.Errorf("target branch %q does not resolve", targetBranch)
	}

	if req.Rebase {
		if err := p.Service.Rebase(ctx, req.RepoPath, targetBranch, req.AsBranch); err != nil {
			return err
		}
	}
	if err := p.Service.Checkout(ctx, req.RepoPath, targetBranch); err != nil {
		return err
	}

	trailers := ""
	if req.Trailers {
		trailers = clip.Trailers(req.BundlePath, req.Meta, req.RefUsed, req.HeadSHA)
	}

	opts := git.MergeOptions{
		Squash:                  req.Squash,
		NoFF:                    req.NoFF,
		AllowUnrelatedHistories: req.AllowUnrelated,
		Message:                 req.Message,
	}
	if _, ok := p.Service.MergeBase(ctx, req.RepoPath, targetBranch, req.AsBranch); !ok {
		opts.AllowUnrelatedHistories = true
	}
	if !req.Squash && opts.Message != "" && trailers != "" {
		opts.Message = opts.Message + "\n\n" + trailers
	}

	if err := p.Service.Merge(ctx, req.RepoPath, req.AsBranch, opts); err != nil {
		conflicted, cerr := p.Service.ConflictedFiles(ctx, req.RepoPath)
		if cerr != nil || len(conflicted) == 0 {
			return err
		}
		// Leave the tree as the caller found it before reporting.
		if aerr := p.Service.AbortMerge(ctx, req.RepoPath); aerr != nil {
			log.Warn("failed to abort conflicted merge", "error", aerr)
		}
		return fmt.Errorf("merge of %s into %s conflicts in: %s: %w",
			req.AsBranch, targetBranch, strings.Join(conflicted, ", "), err)
	}

	if req.Squash {
		// A squash merge stages changes without committing; the commit
		// carries the import message and any trailers.
		message := req.Message
		if message == "" {
			message = "Squash import from " + req.AsBranch
		}
		if trailers != "" {
			message = message + "\n\n" + trailers
		}
		if err := p.Service.Commit(ctx, req.RepoPath, message); err != nil {
			return err
		}
	} else if trailers != "" && req.Message == "" {
		// The merge commit already exists with git's default message;
		// append the trailer block by amending.
		existing, err := p.Service.LastCommitMessage(ctx, req.RepoPath)
		if err != nil {
			return err
		}
		if err := p.Service.AmendMessage(ctx, req.RepoPath, existing+"\n\n"+trailers); err != nil {
			return err
		}
	}

	log.Info("merged imported branch",
		"branch", req.AsBranch, "target", targetBranch, "squash", req.Squash, "rebase", req.Rebase)
	return nil
}
