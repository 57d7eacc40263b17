package commands

import (
	"github.com/spf13/cobra"

	"github.com/zhubert/clip-core/clip"
	cexec "github.com/zhubert/clip-core/exec"
	"github.com/zhubert/clip-core/git"
	"github.com/zhubert/clip-core/paste"
)

// NewRefsCommand creates the refs command, which lists the refs a bundle
// contains.
func NewRefsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "refs <bundle>",
		Short: "List the refs a bundle contains",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p := paste.NewPaster(git.NewGitServiceWithRunner(cexec.NewRealRunner()))
			result, err := p.ListRefs(cmd.Context(), args[0], clip.LoadMetaFor(args[0]))
			if err != nil {
				return err
			}
			return printJSON(cmd, result)
		},
	}
}
