// Package repl implements an interactive shell over a datum graph: reading
// and writing datums, replacing expressions, removing and adding nodes and
// inspecting dependencies.
package repl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/peterh/liner"
	"github.com/vk/datumgraph/internal/datum"
	"github.com/vk/datumgraph/internal/datumid"
	"github.com/vk/datumgraph/internal/presentation"
	"github.com/vk/datumgraph/internal/registry"
	"github.com/zclconf/go-cty/cty"
)

// REPL represents an instance of the interactive shell.
type REPL struct {
	ctx         context.Context
	output      io.Writer
	graph       *datum.Graph
	registry    *registry.Registry
	format      presentation.Format
	historyPath string
	prompt      string
	banner      string
}

// New returns a new instance of the REPL.
func New(ctx context.Context, g *datum.Graph, reg *registry.Registry, historyPath string, output io.Writer, banner string) *REPL {
	return &REPL{
		ctx:         ctx,
		output:      output,
		graph:       g,
		registry:    reg,
		format:      presentation.FormatTable,
		historyPath: historyPath,
		prompt:      "> ",
		banner:      banner,
	}
}

// stop is returned by the exit command.
type stop struct{}

func (stop) Error() string { return "<stop>" }

// Loop will run until the user enters "exit", Ctrl+C, Ctrl+D, or an
// unexpected error occurs.
func (r *REPL) Loop() error {
	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)
	r.loadHistory(line)

	if len(r.banner) > 0 {
		fmt.Fprintln(r.output, r.banner)
	}
	line.SetCompleter(r.complete)

	defer r.saveHistory(line)
	for {
		input, err := line.Prompt(r.prompt)
		if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
			fmt.Fprintln(r.output, "Exiting")
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading input: %w", err)
		}

		if strings.TrimSpace(input) != "" {
			line.AppendHistory(input)
		}
		if err := r.OneShot(input); err != nil {
			if errors.As(err, new(stop)) {
				return nil
			}
			fmt.Fprintln(r.output, "error:", err)
		}
	}
}

// OneShot evaluates the line and prints the result. If an error occurs it
// is returned for the caller to display.
func (r *REPL) OneShot(line string) error {
	op, rest := splitWord(strings.TrimSpace(line))
	if op == "" {
		return nil
	}
	cmd, ok := lookupCommand(op)
	if !ok {
		return fmt.Errorf("unknown command %q; type help for a list", op)
	}
	return cmd.run(r, rest)
}

// splitWord splits off the first whitespace-separated word.
func splitWord(s string) (string, string) {
	i := strings.IndexAny(s, " \t")
	if i < 0 {
		return s, ""
	}
	return s[:i], strings.TrimSpace(s[i+1:])
}

func (r *REPL) cmdGet(args string) error {
	fields := strings.Fields(args)
	if len(fields) == 0 {
		return errors.New("usage: get NODE.FIELD [NODE.FIELD...]")
	}
	results := make([]presentation.Result, 0, len(fields))
	for _, raw := range fields {
		ref, err := datumid.Parse(raw)
		if err != nil {
			return err
		}
		res := presentation.Result{Ref: ref}
		if n, ok := r.graph.Node(ref.Node); ok {
			if d, ok := n.Datum(ref.Field); ok {
				res.Kind = d.Kind()
			}
		}
		res.Value, res.Err = r.graph.Get(r.ctx, ref.Node, ref.Field)
		results = append(results, res)
	}
	return presentation.PrintResults(r.output, r.format, results)
}

func (r *REPL) cmdSet(args string) error {
	raw, text := splitWord(args)
	if raw == "" || text == "" {
		return errors.New("usage: set NODE.FIELD VALUE")
	}
	ref, err := datumid.Parse(raw)
	if err != nil {
		return err
	}
	v, err := parseLiteral(text)
	if err != nil {
		return fmt.Errorf("%s: %w: %w", ref, datum.ErrInvalidAssignment, err)
	}
	return r.graph.Set(r.ctx, ref.Node, ref.Field, v)
}

// parseLiteral reads a number, a quoted string, or else the bare text as
// a string.
func parseLiteral(text string) (cty.Value, error) {
	if f, err := strconv.ParseFloat(text, 64); err == nil {
		if math.IsNaN(f) {
			return cty.NilVal, fmt.Errorf("%q is not a number value", text)
		}
		return cty.NumberFloatVal(f), nil
	}
	if s, err := strconv.Unquote(text); err == nil {
		return cty.StringVal(s), nil
	}
	return cty.StringVal(text), nil
}

func (r *REPL) cmdExpr(args string) error {
	raw, text := splitWord(args)
	if raw == "" || text == "" {
		return errors.New("usage: expr NODE.FIELD EXPRESSION")
	}
	ref, err := datumid.Parse(raw)
	if err != nil {
		return err
	}
	return r.graph.SetExpression(r.ctx, ref.Node, ref.Field, text)
}

func (r *REPL) cmdDeps(args string) error {
	ref, err := datumid.Parse(strings.TrimSpace(args))
	if err != nil {
		return err
	}
	if _, err := r.graph.Get(r.ctx, ref.Node, ref.Field); err != nil {
		fmt.Fprintln(r.output, "warning:", err)
	}
	presentation.PrintTree(r.output, ref, func(ref datumid.Ref) []datumid.Ref {
		deps, _ := r.graph.Dependencies(ref.Node, ref.Field)
		return deps
	})
	return nil
}

func (r *REPL) cmdUses(args string) error {
	ref, err := datumid.Parse(strings.TrimSpace(args))
	if err != nil {
		return err
	}
	presentation.PrintTree(r.output, ref, func(ref datumid.Ref) []datumid.Ref {
		deps, _ := r.graph.Dependents(ref.Node, ref.Field)
		return deps
	})
	return nil
}

func (r *REPL) cmdRemove(args string) error {
	name := strings.TrimSpace(args)
	if name == "" {
		return errors.New("usage: rm NODE")
	}
	return r.graph.RemoveNode(r.ctx, name)
}

func (r *REPL) cmdAdd(args string) error {
	fields := strings.Fields(args)
	if len(fields) != 2 {
		return errors.New("usage: add TYPE NAME")
	}
	n, err := r.registry.NewNode(fields[0], fields[1])
	if err != nil {
		return err
	}
	return r.graph.AddNode(r.ctx, n)
}

func (r *REPL) cmdNodes() error {
	for _, n := range r.graph.Nodes() {
		fmt.Fprintf(r.output, "%s (%s): %s\n", n.Name(), n.Type(), strings.Join(n.Fields(), ", "))
	}
	return nil
}

func (r *REPL) cmdShow() error {
	presentation.PrintNodes(r.output, r.graph.Nodes())
	return nil
}

func (r *REPL) cmdRefresh() error {
	if err := r.graph.Refresh(r.ctx); err != nil {
		return err
	}
	fmt.Fprintln(r.output, "all datums valid")
	return nil
}

// cmdControl prints the control of a node, or of a fresh node of a type.
func (r *REPL) cmdControl(args string) error {
	name := strings.TrimSpace(args)
	if name == "" {
		return errors.New("usage: control NODE|TYPE")
	}
	n, ok := r.graph.Node(name)
	if !ok {
		var err error
		if n, err = r.registry.NewNode(name, name); err != nil {
			return err
		}
	}
	factory, ok := r.registry.Control(n.Type())
	if !ok {
		return fmt.Errorf("no control registered for node type %q", n.Type())
	}
	presentation.PrintControl(r.output, factory(n))
	return nil
}

func (r *REPL) cmdFormat(args string) error {
	f, err := presentation.ParseFormat(strings.TrimSpace(args))
	if err != nil {
		return err
	}
	r.format = f
	return nil
}

func (r *REPL) cmdTypes() error {
	presentation.PrintNodeTypes(r.output, r.registry.NodeTypes())
	return nil
}

func (r *REPL) cmdHelp() error {
	width := 0
	for _, c := range commands {
		width = max(width, len(c.syntax()))
	}
	for _, c := range commands {
		fmt.Fprintf(r.output, "%-*s  %s\n", width, c.syntax(), c.help)
	}
	return nil
}

func (r *REPL) complete(line string) []string {
	op, rest := splitWord(line)
	if !strings.ContainsAny(line, " \t") {
		var out []string
		for _, c := range commands {
			if strings.HasPrefix(c.name, op) {
				out = append(out, c.name+" ")
			}
		}
		return out
	}
	var out []string
	for _, n := range r.graph.Nodes() {
		for _, f := range n.Fields() {
			ref := n.Name() + "." + f
			if strings.HasPrefix(ref, rest) {
				out = append(out, op+" "+ref)
			}
		}
	}
	sort.Strings(out)
	return out
}

func (r *REPL) loadHistory(prompt *liner.State) {
	if r.historyPath == "" {
		return
	}
	if f, err := os.Open(r.historyPath); err == nil {
		prompt.ReadHistory(f)
		f.Close()
	}
}

func (r *REPL) saveHistory(prompt *liner.State) {
	if r.historyPath == "" {
		return
	}
	if f, err := os.Create(r.historyPath); err == nil {
		prompt.WriteHistory(f)
		f.Close()
	}
}
