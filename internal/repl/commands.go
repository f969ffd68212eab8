package repl

type commandDesc struct {
	name string
	args []string
	help string
	run  func(r *REPL, args string) error
}

func (c commandDesc) syntax() string {
	s := c.name
	for _, a := range c.args {
		s += " " + a
	}
	return s
}

var commands []commandDesc

func init() {
	commands = []commandDesc{
		{name: "get", args: []string{"REF..."}, help: "evaluate and print datums", run: (*REPL).cmdGet},
		{name: "set", args: []string{"REF", "VALUE"}, help: "write a literal datum", run: (*REPL).cmdSet},
		{name: "expr", args: []string{"REF", "TEXT"}, help: "replace the text of an expression datum", run: (*REPL).cmdExpr},
		{name: "deps", args: []string{"REF"}, help: "print what a datum reads, recursively", run: (*REPL).cmdDeps},
		{name: "uses", args: []string{"REF"}, help: "print what reads a datum, recursively", run: (*REPL).cmdUses},
		{name: "add", args: []string{"TYPE", "NAME"}, help: "add a node with default fields", run: (*REPL).cmdAdd},
		{name: "rm", args: []string{"NODE"}, help: "remove a node", run: (*REPL).cmdRemove},
		{name: "nodes", help: "list nodes and their fields", run: func(r *REPL, _ string) error { return r.cmdNodes() }},
		{name: "show", help: "print every datum with its state and cached value", run: func(r *REPL, _ string) error { return r.cmdShow() }},
		{name: "refresh", help: "evaluate every datum that is not valid", run: func(r *REPL, _ string) error { return r.cmdRefresh() }},
		{name: "control", args: []string{"NODE|TYPE"}, help: "print the UI control of a node or node type", run: (*REPL).cmdControl},
		{name: "types", help: "list node types", run: func(r *REPL, _ string) error { return r.cmdTypes() }},
		{name: "format", args: []string{"table|json|yaml"}, help: "set the output format of get", run: (*REPL).cmdFormat},
		{name: "help", help: "print this message", run: func(r *REPL, _ string) error { return r.cmdHelp() }},
		{name: "exit", help: "leave the shell", run: func(*REPL, string) error { return stop{} }},
	}
}

func lookupCommand(name string) (commandDesc, bool) {
	for _, c := range commands {
		if c.name == name {
			return c, true
		}
	}
	return commandDesc{}, false
}
