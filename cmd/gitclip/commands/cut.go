package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/zhubert/clip-core/cli"
	"github.com/zhubert/clip-core/clip"
	"github.com/zhubert/clip-core/cut"
	cexec "github.com/zhubert/clip-core/exec"
)

// CutCommand holds the configuration for the cut command.
type CutCommand struct {
	repo          string
	toSubdir      string
	outDir        string
	name          string
	force         bool
	dryRun        bool
	keepTemp      bool
	pruneSource   bool
	requireAck    string
	followRenames bool
}

// NewCutCommand creates and configures the cut command.
func NewCutCommand() *cobra.Command {
	cc := &CutCommand{}

	cobraCmd := &cobra.Command{
		Use:   "cut <paths...>",
		Short: "Extract paths with full history into a clip bundle",
		Long: `Extract the selected paths, including their complete commit history
and any names they held before renames, into a portable bundle.

The source repository is cloned and the clone rewritten; the source
itself is only modified when --prune-source is given.`,
		Args: cobra.MinimumNArgs(1),
		RunE: cc.run,
	}

	cobraCmd.Flags().StringVarP(&cc.repo, "repo", "r", ".", "Source git repository")
	cobraCmd.Flags().StringVarP(&cc.toSubdir, "to-subdir", "t", "", "Re-root content under this subdirectory inside the clip")
	cobraCmd.Flags().StringVarP(&cc.outDir, "out-dir", "o", "", "Directory for the bundle and metadata (default: ./.git-clipboard)")
	cobraCmd.Flags().StringVarP(&cc.name, "name", "n", "", "Base name for the clip files (default: clip-YYYYmmdd-HHMMSS)")
	cobraCmd.Flags().BoolVarP(&cc.force, "force", "f", false, "Overwrite existing output files")
	cobraCmd.Flags().BoolVarP(&cc.dryRun, "dry-run", "d", false, "Show what would be included without creating anything")
	cobraCmd.Flags().BoolVarP(&cc.keepTemp, "keep-temp", "k", false, "Keep the temporary clone for debugging")
	cobraCmd.Flags().BoolVarP(&cc.pruneSource, "prune-source", "p", false, "Remove the cut paths from the source and commit the removal")
	cobraCmd.Flags().StringVarP(&cc.requireAck, "require-ack", "A", "", "Only prune when this ack file exists")
	cobraCmd.Flags().BoolVar(&cc.followRenames, "follow-renames", true, "Follow renames to include historical names")

	return cobraCmd
}

func (cc *CutCommand) run(cmd *cobra.Command, args []string) error {
	if err := cli.ValidateRequired(cli.DefaultPrerequisites()); err != nil {
		return err
	}

	opts, err := clip.LoadOptions(cc.repo)
	if err != nil {
		return err
	}

	runner := cexec.NewRealRunner()
	req := &cut.Request{
		RepoPath:      cc.repo,
		Paths:         args,
		OutDir:        cc.outDir,
		Name:          cc.name,
		ToSubdir:      cc.toSubdir,
		FollowRenames: cc.followRenames,
		Force:         cc.force,
		KeepTemp:      cc.keepTemp,
		PruneSource:   cc.pruneSource,
		RequireAck:    cc.requireAck,
		MaxFiles:      opts.MaxFiles,
	}

	// Repo options fill in what flags left unset.
	if req.OutDir == "" {
		req.OutDir = opts.OutDir
	}
	if req.ToSubdir == "" {
		req.ToSubdir = opts.ToSubdir
	}
	if !cmd.Flags().Changed("follow-renames") {
		req.FollowRenames = opts.FollowRenamesEnabled()
	}

	if cc.dryRun {
		c := cut.NewCutter(runner, nil)
		plan, err := c.Plan(cmd.Context(), req)
		if err != nil {
			return err
		}
		data, err := json.MarshalIndent(plan, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	}

	filterRepo, err := cli.DetectFilterRepo(cmd.Context(), runner)
	if err != nil {
		return err
	}

	c := cut.NewCutter(runner, filterRepo)
	result, err := c.Cut(cmd.Context(), req)
	if err != nil {
		return err
	}

	for _, w := range result.Warnings {
		fmt.Fprintf(os.Stderr, "Warning: %s\n", w)
	}
	fmt.Fprintln(cmd.OutOrStdout(), result.BundlePath)
	fmt.Fprintln(cmd.OutOrStdout(), result.MetaPath)
	if result.TempRepo != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "Temp repo kept at: %s\n", result.TempRepo)
	}
	return nil
}
