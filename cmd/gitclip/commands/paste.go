package commands

import (
	"bufio"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zhubert/clip-core/cli"
	"github.com/zhubert/clip-core/clip"
	cexec "github.com/zhubert/clip-core/exec"
	"github.com/zhubert/clip-core/git"
	"github.com/zhubert/clip-core/paste"
	"github.com/zhubert/clip-core/preview"
)

// PasteCommand holds the configuration for the paste command.
type PasteCommand struct {
	meta           string
	repo           string
	branch         string
	asBranch       string
	ref            string
	listRefs       bool
	merge          bool
	squash         bool
	rebase         bool
	remoteName     string
	noFF           bool
	message        string
	dryRun         bool
	allowUnrelated bool
	promptMerge    bool
	trailers       bool
}

// NewPasteCommand creates and configures the paste command.
func NewPasteCommand() *cobra.Command {
	pc := &PasteCommand{}

	cobraCmd := &cobra.Command{
		Use:   "paste [bundle]",
		Short: "Import a clip bundle into a repository",
		Long: `Import a clip bundle as a branch and optionally merge it.

Without a bundle argument the last clip recorded by cut is used.
When no merge flags are given the prospective merge is previewed and,
if no conflicts are detected, you are asked whether to apply it.`,
		Args: cobra.MaximumNArgs(1),
		RunE: pc.run,
	}

	cobraCmd.Flags().StringVarP(&pc.meta, "meta", "m", "", "Path to the clip metadata JSON (default: beside the bundle)")
	cobraCmd.Flags().StringVarP(&pc.repo, "repo", "r", ".", "Target repository")
	cobraCmd.Flags().StringVarP(&pc.branch, "branch", "b", "", "Branch to merge into (default: current branch)")
	cobraCmd.Flags().StringVarP(&pc.asBranch, "as-branch", "a", "", "Branch to create from the bundle (default: clip/<bundle-name>)")
	cobraCmd.Flags().StringVar(&pc.ref, "ref", "", "Specific ref to import from the bundle")
	cobraCmd.Flags().BoolVarP(&pc.listRefs, "list-refs", "L", false, "List refs in the bundle and exit")
	cobraCmd.Flags().BoolVarP(&pc.merge, "merge", "M", false, "Merge the imported branch")
	cobraCmd.Flags().BoolVarP(&pc.squash, "squash", "s", false, "Use a squash merge")
	cobraCmd.Flags().BoolVarP(&pc.rebase, "rebase", "R", false, "Rebase the imported branch onto the target before merging")
	cobraCmd.Flags().StringVarP(&pc.remoteName, "remote-name", "u", "", "Remote name for the bundle (default: bundle-<bundle-name>)")
	cobraCmd.Flags().BoolVarP(&pc.noFF, "no-ff", "F", false, "Disable fast-forward during merge")
	cobraCmd.Flags().StringVarP(&pc.message, "message", "j", "", "Custom merge commit message")
	cobraCmd.Flags().BoolVarP(&pc.dryRun, "dry-run", "d", false, "Preview import and merge against a temporary clone")
	cobraCmd.Flags().BoolVarP(&pc.allowUnrelated, "allow-unrelated-histories", "U", false, "Allow merging unrelated histories")
	cobraCmd.Flags().BoolVarP(&pc.promptMerge, "prompt-merge", "p", false, "Prompt to merge when the preview is clean")
	cobraCmd.Flags().BoolVarP(&pc.trailers, "trailers", "T", false, "Record clip provenance as commit message trailers")

	return cobraCmd
}

// resolveBundle returns the bundle path from the argument or the global
// last-clip pointer, made absolute since imports may run from a temporary
// clone.
func (pc *PasteCommand) resolveBundle(args []string) (string, error) {
	bundle := ""
	if len(args) > 0 {
		bundle = args[0]
	} else {
		pointer, err := clip.LoadPointer()
		if err != nil {
			return "", fmt.Errorf("no bundle specified and no last clip recorded: %w", err)
		}
		bundle = pointer.Bundle
	}
	return filepath.Abs(bundle)
}

func (pc *PasteCommand) loadMeta(bundle string) *clip.Meta {
	if pc.meta != "" {
		m, err := clip.LoadMeta(pc.meta)
		if err != nil {
			return nil
		}
		return m
	}
	return clip.LoadMetaFor(bundle)
}

func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}

func (pc *PasteCommand) run(cmd *cobra.Command, args []string) error {
	if err := cli.ValidateRequired(cli.DefaultPrerequisites()); err != nil {
		return err
	}

	bundle, err := pc.resolveBundle(args)
	if err != nil {
		return err
	}
	meta := pc.loadMeta(bundle)

	runner := cexec.NewRealRunner()
	p := paste.NewPaster(git.NewGitServiceWithRunner(runner))
	ctx := cmd.Context()

	if pc.listRefs {
		result, err := p.ListRefs(ctx, bundle, meta)
		if err != nil {
			return err
		}
		return printJSON(cmd, result)
	}

	workRepo := pc.repo
	if pc.dryRun {
		var cleanup func()
		workRepo, cleanup, err = p.DryRunWorkspace(ctx, pc.repo)
		if err != nil {
			return err
		}
		defer cleanup()
	}

	imported, err := p.Import(ctx, &paste.ImportRequest{
		RepoPath:   workRepo,
		BundlePath: bundle,
		Meta:       meta,
		Ref:        pc.ref,
		AsBranch:   pc.asBranch,
		RemoteName: pc.remoteName,
	})
	if err != nil {
		return err
	}
	defer p.RemoveRemote(ctx, workRepo, imported.Remote)

	if pc.dryRun {
		if err := printJSON(cmd, imported); err != nil {
			return err
		}
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "Imported branch: %s\n", imported.AsBranch)
		if s := imported.SourceSummary; s != nil {
			fmt.Fprintf(cmd.OutOrStdout(), "Source: %d commits, %d files, %s\n",
				s.CommitCount, s.FileCount, s.TotalSizeHuman())
		}
	}

	// Explicit merge flags merge directly; everything else goes through
	// the preview. With no flags at all ("obvious" mode) a clean preview
	// is offered for auto-merge.
	explicit := pc.merge || pc.squash || pc.rebase
	obvious := !explicit && !pc.dryRun && !pc.promptMerge

	previewResult, err := p.PreviewMerge(ctx, workRepo, pc.branch, imported.AsBranch)
	if err != nil {
		return err
	}

	if !explicit || pc.dryRun {
		text, err := previewResult.JSON()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), text)
	}
	if pc.dryRun || previewResult.Note == paste.EmptyTargetNote {
		return nil
	}

	if obvious || pc.promptMerge {
		approved := false
		if previewResult.Conflicts == preview.ConflictsFalse {
			approved = pc.confirm(cmd, "Auto-merge now? [y/N]: ")
			if !approved {
				fmt.Fprintln(cmd.OutOrStdout(), "Merge skipped.")
				return nil
			}
		}
		if preview.Decide(previewResult, approved) != preview.DecisionAccepted {
			fmt.Fprintln(cmd.OutOrStdout(), "Conflicts likely or unknown; not auto-merging.")
			return nil
		}
	}

	err = p.Merge(ctx, &paste.MergeRequest{
		RepoPath:       workRepo,
		TargetBranch:   previewResult.Target,
		AsBranch:       imported.AsBranch,
		Squash:         pc.squash,
		NoFF:           pc.noFF,
		Rebase:         pc.rebase,
		AllowUnrelated: pc.allowUnrelated,
		Message:        pc.message,
		Trailers:       pc.trailers,
		BundlePath:     bundle,
		Meta:           meta,
		RefUsed:        imported.SourceRef,
		HeadSHA:        imported.Head,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Merged %s into %s\n", imported.AsBranch, previewResult.Target)
	return nil
}

// confirm reads a yes/no answer from the command's input.
func (pc *PasteCommand) confirm(cmd *cobra.Command, prompt string) bool {
	fmt.Fprint(cmd.OutOrStdout(), prompt)
	scanner := bufio.NewScanner(cmd.InOrStdin())
	if !scanner.Scan() {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(scanner.Text()))
	return answer == "y" || answer == "yes"
}
