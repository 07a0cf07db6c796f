package keys

import (
	"crypto/rsa"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/Anvoria/blogly/internal/cli"
	"github.com/Anvoria/blogly/internal/domain/auth"
	"github.com/lestrrat-go/jwx/v3/jwk"
)

// Command implements the keys management command
type Command struct{}

func (c *Command) Name() string {
	return "keys"
}

func (c *Command) Description() string {
	return "Manage local token signing keys (generate, list, jwks)"
}

func (c *Command) Run(args []string) error {
	if len(args) < 1 {
		c.printUsage()
		return fmt.Errorf("subcommand required")
	}

	subcmd := args[0]
	switch subcmd {
	case "generate":
		return c.runGenerate(args[1:])
	case "list":
		return c.runList(args[1:])
	case "jwks":
		return c.runJWKS(args[1:])
	default:
		c.printUsage()
		return fmt.Errorf("unknown subcommand: %s", subcmd)
	}
}

func (c *Command) printUsage() {
	fmt.Fprintf(os.Stderr, "Usage: blogly-cli keys <subcommand> [args]\n\n")
	fmt.Fprintf(os.Stderr, "Subcommands:\n")
	fmt.Fprintf(os.Stderr, "  generate              Generate a new RSA key pair\n")
	fmt.Fprintf(os.Stderr, "    -kid <id>           Key ID (required)\n")
	fmt.Fprintf(os.Stderr, "    -bits <size>        Key size: 2048, 3072, or 4096 (default: 2048)\n")
	fmt.Fprintf(os.Stderr, "    -path <dir>         Custom keys directory (overrides config)\n")
	fmt.Fprintf(os.Stderr, "  list                  List all available keys\n")
	fmt.Fprintf(os.Stderr, "  jwks                  Print the public key set as JSON\n")
}

// keysPath resolves the keys directory and active kid, loading the config only when needed
func keysPath(customPath string) (string, string, error) {
	if customPath != "" {
		return customPath, "", nil
	}
	cfg, err := cli.LoadConfig()
	if err != nil {
		return "", "", err
	}
	return cfg.Auth.KeysPath, cfg.Auth.ActiveKID, nil
}

func (c *Command) runGenerate(args []string) error {
	fs := flag.NewFlagSet("generate", flag.ContinueOnError)
	kid := fs.String("kid", "", "Key ID (required)")
	bits := fs.Int("bits", 2048, "Key size in bits (2048, 3072, or 4096)")
	customPath := fs.String("path", "", "Custom keys directory path (overrides config)")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if *kid == "" {
		return fmt.Errorf("key ID is required")
	}

	path, _, err := keysPath(*customPath)
	if err != nil {
		return err
	}
	return generateKey(os.Stdout, path, *kid, *bits)
}

func (c *Command) runList(args []string) error {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	customPath := fs.String("path", "", "Custom keys directory path (overrides config)")
	activeKID := fs.String("active", "", "Active key ID to mark (defaults to config)")

	if err := fs.Parse(args); err != nil {
		return err
	}

	path, configured, err := keysPath(*customPath)
	if err != nil {
		return err
	}
	if *activeKID != "" {
		configured = *activeKID
	}
	return listKeys(os.Stdout, path, configured)
}

func (c *Command) runJWKS(args []string) error {
	fs := flag.NewFlagSet("jwks", flag.ContinueOnError)
	customPath := fs.String("path", "", "Custom keys directory path (overrides config)")

	if err := fs.Parse(args); err != nil {
		return err
	}

	path, _, err := keysPath(*customPath)
	if err != nil {
		return err
	}
	return printJWKS(os.Stdout, path)
}

func generateKey(w io.Writer, keysPath, kid string, bits int) error {
	fmt.Fprintf(w, "Generating %d-bit RSA key pair...\n", bits)
	if err := auth.GenerateKeyPair(keysPath, kid, bits); err != nil {
		return err
	}

	fmt.Fprintf(w, "Key pair generated successfully\n")
	fmt.Fprintf(w, "  Key ID: %s\n", kid)
	fmt.Fprintf(w, "  Path:   %s\n", keysPath)
	return nil
}

func listKeys(w io.Writer, keysPath, activeKID string) error {
	keyStore, err := auth.LoadKeys(keysPath, activeKID)
	if err != nil {
		return fmt.Errorf("failed to load keys: %w", err)
	}

	keySet := keyStore.JWKS()
	if keySet.Len() == 0 {
		fmt.Fprintf(w, "No keys found in %s\n", keysPath)
		return nil
	}

	fmt.Fprintf(w, "Keys in %s:\n\n", keysPath)
	active := ""
	if activeKID != "" {
		active = auth.KeyID(activeKID)
	}

	for i := 0; i < keySet.Len(); i++ {
		key, ok := keySet.Key(i)
		if !ok {
			continue
		}

		kid, _ := key.KeyID()
		marker := ""
		if kid == active {
			marker = " (ACTIVE)"
		}
		bare := strings.TrimPrefix(kid, "key-")

		var rawKey any
		if err := jwk.Export(key, &rawKey); err != nil {
			fmt.Fprintf(w, "  %s: skipped (export failed: %v)\n", kid, err)
			continue
		}
		rsaKey, ok := rawKey.(*rsa.PublicKey)
		if !ok {
			fmt.Fprintf(w, "  %s: skipped (not an RSA key)\n", kid)
			continue
		}
		fmt.Fprintf(w, "  %s%s\n", kid, marker)
		fmt.Fprintf(w, "    Key size: %d bits\n", rsaKey.N.BitLen())
		fmt.Fprintf(w, "    Private:  private-%s.pem\n", bare)
		fmt.Fprintf(w, "    Public:   public-%s.pem\n", bare)
		fmt.Fprintln(w)
	}

	if activeKID != "" {
		fmt.Fprintf(w, "Active KID: %s\n", activeKID)
	}
	return nil
}

func printJWKS(w io.Writer, keysPath string) error {
	keyStore, err := auth.LoadKeys(keysPath, "")
	if err != nil {
		return fmt.Errorf("failed to load keys: %w", err)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(keyStore.JWKS())
}
