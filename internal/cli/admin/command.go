package admin

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"text/tabwriter"
	"time"

	"github.com/Anvoria/blogly/internal/cache"
	"github.com/Anvoria/blogly/internal/cli"
	"github.com/Anvoria/blogly/internal/config"
	"github.com/Anvoria/blogly/internal/database"
	"github.com/Anvoria/blogly/internal/domain/admin"
	"github.com/Anvoria/blogly/internal/domain/auth"
)

const defaultTokenTTL = time.Hour

// Command implements the admin registry command
type Command struct{}

func (c *Command) Name() string {
	return "admin"
}

func (c *Command) Description() string {
	return "Manage blog administrators (add, remove, list, token)"
}

func (c *Command) Run(args []string) error {
	if len(args) < 1 {
		c.printUsage()
		return fmt.Errorf("subcommand required")
	}

	subcmd := args[0]
	switch subcmd {
	case "add":
		return c.runAdd(args[1:])
	case "remove":
		return c.runRemove(args[1:])
	case "list":
		return c.runList(args[1:])
	case "token":
		return c.runToken(args[1:])
	default:
		c.printUsage()
		return fmt.Errorf("unknown subcommand: %s", subcmd)
	}
}

func (c *Command) printUsage() {
	fmt.Fprintf(os.Stderr, "Usage: blogly-cli admin <subcommand> [args]\n\n")
	fmt.Fprintf(os.Stderr, "Subcommands:\n")
	fmt.Fprintf(os.Stderr, "  add -user <sub> [-email <email>] [-note <text>]   Grant admin rights to an identity-provider user\n")
	fmt.Fprintf(os.Stderr, "  remove -user <sub>                                Revoke admin rights\n")
	fmt.Fprintf(os.Stderr, "  list                                              List administrators\n")
	fmt.Fprintf(os.Stderr, "  token -user <sub> [-email <email>] [-ttl 1h]      Sign a development token with the local keys\n")
}

// openService connects the database and, when configured, Redis so revocations reach the cache
func openService(cfg *config.Config) (admin.Service, error) {
	if err := cli.OpenDatabase(cfg); err != nil {
		return nil, err
	}
	if err := cache.ConnectRedis(&cfg.Redis); err != nil {
		slog.Warn("Continuing without Redis; cached admin flags expire on their own", "error", err)
	}
	return admin.NewService(admin.NewRepository(database.DB), cache.NewAdminCache(cache.RedisClient)), nil
}

func withService(fn func(ctx context.Context, svc admin.Service) error) error {
	cfg, err := cli.LoadConfig()
	if err != nil {
		return err
	}

	svc, err := openService(cfg)
	if err != nil {
		return err
	}
	defer database.Close()
	defer cache.CloseRedis()

	return fn(context.Background(), svc)
}

func (c *Command) runAdd(args []string) error {
	fs := flag.NewFlagSet("add", flag.ContinueOnError)
	user := fs.String("user", "", "Identity provider subject (required)")
	email := fs.String("email", "", "Contact email")
	note := fs.String("note", "", "Free-form note")

	if err := fs.Parse(args); err != nil {
		return err
	}

	return withService(func(ctx context.Context, svc admin.Service) error {
		return addAdmin(ctx, os.Stdout, svc, *user, *email, *note)
	})
}

func (c *Command) runRemove(args []string) error {
	fs := flag.NewFlagSet("remove", flag.ContinueOnError)
	user := fs.String("user", "", "Identity provider subject (required)")

	if err := fs.Parse(args); err != nil {
		return err
	}

	return withService(func(ctx context.Context, svc admin.Service) error {
		return removeAdmin(ctx, os.Stdout, svc, *user)
	})
}

func (c *Command) runList(args []string) error {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	return withService(func(ctx context.Context, svc admin.Service) error {
		return listAdmins(ctx, os.Stdout, svc)
	})
}

func (c *Command) runToken(args []string) error {
	fs := flag.NewFlagSet("token", flag.ContinueOnError)
	user := fs.String("user", "", "Identity provider subject (required)")
	email := fs.String("email", "", "Email claim")
	ttl := fs.Duration("ttl", defaultTokenTTL, "Token lifetime")

	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := cli.LoadConfig()
	if err != nil {
		return err
	}

	keyStore, err := auth.LoadKeys(cfg.Auth.KeysPath, cfg.Auth.ActiveKID)
	if err != nil {
		return fmt.Errorf("failed to load keys: %w", err)
	}

	return issueToken(os.Stdout, keyStore, &cfg.Auth, *user, *email, *ttl)
}

func addAdmin(ctx context.Context, w io.Writer, svc admin.Service, userID, email, note string) error {
	a, err := svc.Grant(ctx, userID, email, note)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Admin added: %s\n", a.UserID)
	return nil
}

func removeAdmin(ctx context.Context, w io.Writer, svc admin.Service, userID string) error {
	if err := svc.Revoke(ctx, userID); err != nil {
		return err
	}
	fmt.Fprintf(w, "Admin removed: %s\n", userID)
	return nil
}

func listAdmins(ctx context.Context, w io.Writer, svc admin.Service) error {
	admins, err := svc.List(ctx)
	if err != nil {
		return err
	}
	if len(admins) == 0 {
		fmt.Fprintln(w, "No administrators registered")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "USER ID\tEMAIL\tADDED\tNOTE")
	for _, a := range admins {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", a.UserID, a.Email, a.CreatedAt.Format(time.RFC3339), a.Note)
	}
	return tw.Flush()
}

func issueToken(w io.Writer, keyStore *auth.KeyStore, cfg *config.AuthConfig, userID, email string, ttl time.Duration) error {
	if userID == "" {
		return admin.ErrInvalidUserID
	}
	if ttl <= 0 {
		return fmt.Errorf("ttl must be positive")
	}

	token, err := keyStore.IssueToken(userID, email, cfg.Issuer, cfg.Audience, ttl)
	if err != nil {
		return fmt.Errorf("failed to issue token: %w", err)
	}
	fmt.Fprintln(w, token)
	return nil
}
