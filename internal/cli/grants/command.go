package grants

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/Anvoria/blogly/internal/cli"
	"github.com/Anvoria/blogly/internal/database"
	"github.com/Anvoria/blogly/internal/domain/grant"
)

// Command implements maintenance of comment deletion grants
type Command struct{}

func (c *Command) Name() string {
	return "grants"
}

func (c *Command) Description() string {
	return "Maintain comment deletion grants (sweep)"
}

func (c *Command) Run(args []string) error {
	if len(args) < 1 {
		c.printUsage()
		return fmt.Errorf("subcommand required")
	}

	switch args[0] {
	case "sweep":
		return c.runSweep(args[1:])
	default:
		c.printUsage()
		return fmt.Errorf("unknown subcommand: %s", args[0])
	}
}

func (c *Command) printUsage() {
	fmt.Fprintf(os.Stderr, "Usage: blogly-cli grants <subcommand>\n\n")
	fmt.Fprintf(os.Stderr, "Subcommands:\n")
	fmt.Fprintf(os.Stderr, "  sweep   Delete expired deletion grants once\n")
}

func (c *Command) runSweep(args []string) error {
	fs := flag.NewFlagSet("sweep", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := cli.LoadConfig()
	if err != nil {
		return err
	}
	if err := cli.OpenDatabase(cfg); err != nil {
		return err
	}
	defer database.Close()

	ledger := grant.NewLedger(grant.NewRepository(database.DB), cfg.Comments.DeletionWindow())
	return sweep(context.Background(), os.Stdout, ledger)
}

func sweep(ctx context.Context, w io.Writer, ledger grant.Ledger) error {
	n, err := ledger.SweepExpired(ctx)
	if err != nil {
		return fmt.Errorf("failed to sweep grants: %w", err)
	}
	fmt.Fprintf(w, "Removed %d expired grant(s)\n", n)
	return nil
}
