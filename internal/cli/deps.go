package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/vk/datumgraph/internal/datumid"
	"github.com/vk/datumgraph/internal/presentation"
)

type depsParams struct {
	reverse bool
}

func newDepsCommand(flags *globalFlags) *cobra.Command {
	params := &depsParams{}
	cmd := &cobra.Command{
		Use:   "deps FILE NODE.FIELD",
		Short: "Print the dependency tree of a datum",
		Long: `Evaluate a datum and print the datums it read, recursively.

With --reverse the tree lists the datums that read it instead. Dependencies
are recorded by evaluation, so a datum that was never evaluated has none.`,
		Args: exactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref, err := datumid.Parse(args[1])
			if err != nil {
				return usageError(err)
			}
			a, err := flags.openApp(cmd, args[0])
			if err != nil {
				return err
			}
			defer a.Close()

			g := a.Graph()
			if params.reverse {
				// Dependents are only known once the readers have evaluated.
				_ = g.Refresh(a.Context())
			} else if _, err := g.Get(a.Context(), ref.Node, ref.Field); err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), "warning:", err)
			}

			next := g.Dependencies
			if params.reverse {
				next = g.Dependents
			}
			if _, err := next(ref.Node, ref.Field); err != nil {
				return err
			}
			presentation.PrintTree(cmd.OutOrStdout(), ref, func(r datumid.Ref) []datumid.Ref {
				refs, _ := next(r.Node, r.Field)
				return refs
			})
			return nil
		},
	}
	cmd.Flags().BoolVarP(&params.reverse, "reverse", "r", false, "print the datums that read NODE.FIELD")
	return cmd
}
