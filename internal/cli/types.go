package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/vk/datumgraph/internal/app"
	"github.com/vk/datumgraph/internal/presentation"
	"github.com/vk/datumgraph/internal/registry"
)

func newTypesCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "types [TYPE]",
		Short: "List node types, or print the fields and control of one",
		Args: func(cmd *cobra.Command, args []string) error {
			if err := cobra.MaximumNArgs(1)(cmd, args); err != nil {
				return usageError(err)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.config("")
			if err != nil {
				return err
			}
			a, err := app.NewApp(cmd.ErrOrStderr(), cfg)
			if err != nil {
				return err
			}
			reg := a.Registry()
			out := cmd.OutOrStdout()

			if len(args) == 0 {
				presentation.PrintNodeTypes(out, reg.NodeTypes())
				return nil
			}

			t, ok := reg.NodeType(args[0])
			if !ok {
				_, err := reg.NewNode(args[0], args[0])
				return err
			}
			presentation.PrintNodeTypes(out, []*registry.NodeType{t})
			if factory, ok := reg.Control(t.Name); ok {
				n, err := t.New(t.Name)
				if err != nil {
					return fmt.Errorf("building %s: %w", t.Name, err)
				}
				presentation.PrintControl(out, factory(n))
			}
			return nil
		},
	}
}
