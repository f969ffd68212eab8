package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/vk/datumgraph/internal/datum"
	"github.com/vk/datumgraph/internal/datumid"
	"github.com/vk/datumgraph/internal/presentation"
)

type evalParams struct {
	format string
}

func newEvalCommand(flags *globalFlags) *cobra.Command {
	params := &evalParams{}
	cmd := &cobra.Command{
		Use:   "eval FILE [NODE.FIELD...]",
		Short: "Evaluate datums of a document",
		Long: `Evaluate datums of a document and print their values.

Without references every field of every node is evaluated. FILE may be a
single .hcl file or a directory of them.`,
		Args: minimumArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := presentation.ParseFormat(params.format)
			if err != nil {
				return usageError(err)
			}
			refs, err := parseRefs(args[1:])
			if err != nil {
				return usageError(err)
			}
			a, err := flags.openApp(cmd, args[0])
			if err != nil {
				return err
			}
			defer a.Close()
			a.Start()

			g := a.Graph()
			if len(refs) == 0 {
				refs = allRefs(g)
			}
			results := evaluate(a.Context(), g, refs)
			if err := presentation.PrintResults(cmd.OutOrStdout(), format, results); err != nil {
				return err
			}

			failed := 0
			for _, r := range results {
				if r.Err != nil {
					failed++
				}
			}
			if failed > 0 {
				return &ExitError{Code: 1, Message: fmt.Sprintf("%d of %d datums failed", failed, len(results))}
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&params.format, "format", "f", string(presentation.FormatTable), fmt.Sprintf("output format, one of %v", presentation.Formats))
	return cmd
}

func parseRefs(args []string) ([]datumid.Ref, error) {
	refs := make([]datumid.Ref, 0, len(args))
	for _, raw := range args {
		ref, err := datumid.Parse(raw)
		if err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
	return refs, nil
}

func allRefs(g *datum.Graph) []datumid.Ref {
	var refs []datumid.Ref
	for _, n := range g.Nodes() {
		for _, field := range n.Fields() {
			refs = append(refs, datumid.New(n.Name(), field))
		}
	}
	return refs
}

func evaluate(ctx context.Context, g *datum.Graph, refs []datumid.Ref) []presentation.Result {
	results := make([]presentation.Result, 0, len(refs))
	for _, ref := range refs {
		res := presentation.Result{Ref: ref}
		if n, ok := g.Node(ref.Node); ok {
			if d, ok := n.Datum(ref.Field); ok {
				res.Kind = d.Kind()
			}
		}
		res.Value, res.Err = g.Get(ctx, ref.Node, ref.Field)
		results = append(results, res)
	}
	return results
}
