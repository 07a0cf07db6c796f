package main

import (
	"fmt"
	"os"

	"github.com/Anvoria/blogly/internal/cli"
	"github.com/Anvoria/blogly/internal/cli/admin"
	"github.com/Anvoria/blogly/internal/cli/grants"
	"github.com/Anvoria/blogly/internal/cli/keys"
	"github.com/Anvoria/blogly/internal/cli/migrate"
)

func main() {
	registry := cli.NewRegistry()

	// Register commands
	registry.Register(&keys.Command{})
	registry.Register(&admin.Command{})
	registry.Register(&grants.Command{})
	registry.Register(&migrate.Command{})

	if err := registry.Run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
