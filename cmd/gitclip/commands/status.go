package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zhubert/clip-core/clip"
)

// NewStatusCommand creates the status command, which reports the last clip
// recorded by cut.
func NewStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the last clip",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			pointer, err := clip.LoadPointer()
			if err != nil {
				return fmt.Errorf("no clipboard pointer found (run cut to create one): %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Bundle: %s\n", pointer.Bundle)
			fmt.Fprintf(out, "Meta:   %s\n", pointer.Meta)

			meta, err := clip.LoadMeta(pointer.Meta)
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "Warning: could not read metadata: %v\n", err)
				return nil
			}

			fmt.Fprintln(out, "--- Metadata ---")
			created := meta.CreatedAt
			if age := meta.Age(); age != "" {
				created = fmt.Sprintf("%s (%s)", created, age)
			}
			fmt.Fprintf(out, "created_at: %s\n", created)
			fmt.Fprintf(out, "paths:      %s\n", strings.Join(meta.Paths, ", "))
			fmt.Fprintf(out, "to_subdir:  %s\n", meta.ToSubdir)
			fmt.Fprintf(out, "default_branch: %s\n", meta.DefaultBranch)
			return nil
		},
	}
}
