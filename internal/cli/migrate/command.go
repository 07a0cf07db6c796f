package migrate

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/Anvoria/blogly/internal/cli"
	"github.com/Anvoria/blogly/internal/migrations"
)

// Command applies and inspects schema migrations
type Command struct{}

func (c *Command) Name() string {
	return "migrate"
}

func (c *Command) Description() string {
	return "Database schema migrations (up, status)"
}

func (c *Command) Run(args []string) error {
	if len(args) < 1 {
		c.printUsage()
		return fmt.Errorf("subcommand required")
	}

	switch args[0] {
	case "up":
		return c.runUp(args[1:])
	case "status":
		return c.runStatus(args[1:])
	default:
		c.printUsage()
		return fmt.Errorf("unknown subcommand: %s", args[0])
	}
}

func (c *Command) printUsage() {
	fmt.Fprintf(os.Stderr, "Usage: blogly-cli migrate <subcommand>\n\n")
	fmt.Fprintf(os.Stderr, "Subcommands:\n")
	fmt.Fprintf(os.Stderr, "  up       Apply all pending migrations\n")
	fmt.Fprintf(os.Stderr, "  status   Show the applied version and the embedded files\n")
}

func (c *Command) runUp(args []string) error {
	fs := flag.NewFlagSet("up", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := cli.LoadConfig()
	if err != nil {
		return err
	}
	if err := migrations.RunMigrations(cfg); err != nil {
		return err
	}

	version, _, err := migrations.Version(cfg)
	if err != nil {
		return err
	}
	fmt.Printf("Schema is at version %d\n", version)
	return nil
}

func (c *Command) runStatus(args []string) error {
	fs := flag.NewFlagSet("status", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := cli.LoadConfig()
	if err != nil {
		return err
	}

	version, dirty, err := migrations.Version(cfg)
	if err != nil {
		return err
	}
	names, err := migrations.Names()
	if err != nil {
		return err
	}
	return printStatus(os.Stdout, version, dirty, names)
}

func printStatus(w io.Writer, version uint, dirty bool, names []string) error {
	state := "clean"
	if dirty {
		state = "DIRTY"
	}
	fmt.Fprintf(w, "Applied version: %d (%s)\n", version, state)
	fmt.Fprintf(w, "Embedded migrations:\n")
	for _, name := range names {
		fmt.Fprintf(w, "  %s\n", name)
	}
	return nil
}
