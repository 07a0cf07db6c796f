package cli

import (
	"fmt"
	"io"
	"os"
	"sort"
)

// Command is one top-level blogly-cli command
type Command interface {
	Name() string
	Description() string
	Run(args []string) error
}

// Registry dispatches the first argument to the command of that name
type Registry struct {
	commands map[string]Command
	out      io.Writer
}

// NewRegistry creates an empty registry printing usage to stderr
func NewRegistry() *Registry {
	return &Registry{commands: make(map[string]Command), out: os.Stderr}
}

// Register adds cmd, replacing any command with the same name
func (r *Registry) Register(cmd Command) {
	r.commands[cmd.Name()] = cmd
}

// Run executes the command named by args[0] with the remaining arguments
func (r *Registry) Run(args []string) error {
	if len(args) < 1 || args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		r.printUsage()
		if len(args) < 1 {
			return fmt.Errorf("command required")
		}
		return nil
	}

	cmd, ok := r.commands[args[0]]
	if !ok {
		r.printUsage()
		return fmt.Errorf("unknown command: %s", args[0])
	}
	return cmd.Run(args[1:])
}

func (r *Registry) printUsage() {
	names := make([]string, 0, len(r.commands))
	for name := range r.commands {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Fprintf(r.out, "Usage: blogly-cli <command> [args]\n\n")
	fmt.Fprintf(r.out, "Commands:\n")
	for _, name := range names {
		fmt.Fprintf(r.out, "  %-10s %s\n", name, r.commands[name].Description())
	}
}
