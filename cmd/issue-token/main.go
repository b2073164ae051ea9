// Command issue-token prints an operator access token for the /v1 API,
// signed with the JWT settings from the environment (or .env).
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/Roeeht/Agent-Messiah/internal/auth"
	"github.com/Roeeht/Agent-Messiah/internal/config"
	"github.com/Roeeht/Agent-Messiah/internal/rbac"
)

func main() {
	user := flag.String("user", "", "user id placed in the token (required)")
	role := flag.String("role", rbac.RoleOperator, "role: admin, operator or viewer")
	ttl := flag.Duration("ttl", 0, "token lifetime; 0 uses JWT_ACCESS_TTL")
	flag.Parse()

	if err := run(*user, *role, *ttl); err != nil {
		fmt.Fprintln(os.Stderr, "issue-token:", err)
		os.Exit(1)
	}
}

func run(user, role string, ttl time.Duration) error {
	if user == "" {
		return errors.New("-user is required")
	}
	if !rbac.IsKnown(role) {
		return fmt.Errorf("unknown role %q", role)
	}
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}
	cfg, err := config.LoadAuth()
	if err != nil {
		return err
	}
	m, err := auth.NewManager(cfg)
	if err != nil {
		return err
	}
	tok, err := m.IssueAccess(time.Now(), user, role, ttl)
	if err != nil {
		return err
	}
	fmt.Println(tok)
	return nil
}
