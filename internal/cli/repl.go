package cli

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/vk/datumgraph/internal/repl"
	"github.com/vk/datumgraph/internal/uihook"
)

const historyFile = ".datumgraph_history"

type replParams struct {
	history string
}

func newREPLCommand(flags *globalFlags) *cobra.Command {
	params := &replParams{}
	cmd := &cobra.Command{
		Use:   "repl FILE",
		Short: "Start an interactive shell over a document",
		Long: `Load a document and start an interactive shell over its graph.

Every datum invalidated by a command is re-evaluated and printed, the way a
UI would refresh the widgets bound to it. Type "help" for the commands.`,
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			printer := uihook.NewPrinter(cmd.Context(), cmd.OutOrStdout(), nil)
			a, err := flags.openApp(cmd, args[0], printer)
			if err != nil {
				return err
			}
			defer a.Close()
			printer.Attach(a.Graph())
			a.Start()

			banner := "datumgraph: " + args[0] + "\nType 'help' for a list of commands, 'exit' or Ctrl+D to leave."
			r := repl.New(a.Context(), a.Graph(), a.Registry(), params.history, cmd.OutOrStdout(), banner)
			return r.Loop()
		},
	}
	cmd.Flags().StringVar(&params.history, "history", defaultHistoryPath(), "file keeping the shell history; empty disables it")
	return cmd
}

func defaultHistoryPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, historyFile)
}
