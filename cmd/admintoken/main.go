// Command admintoken issues a bearer token for GET /api/contacts.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"nexulsly-backend/pkg/auth"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func newRootCmd(out io.Writer, now func() time.Time) *cobra.Command {
	var (
		subject string
		ttl     time.Duration
		secret  string
	)

	cmd := &cobra.Command{
		Use:   "admintoken",
		Short: "Issue an admin token for the contact listing endpoint",
		Long: `Issue an HS256 admin token signed with ADMIN_JWT_SECRET.

Example:
  admintoken --subject ops@nexulsly.com --ttl 24h
  curl -H "Authorization: Bearer $(admintoken)" http://localhost:8080/api/contacts`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if secret == "" {
				secret = os.Getenv("ADMIN_JWT_SECRET")
			}
			if secret == "" {
				return errors.New("ADMIN_JWT_SECRET is not set; pass --secret or export it")
			}
			if ttl <= 0 {
				return errors.New("--ttl must be positive")
			}

			token, err := auth.IssueAdminToken(secret, subject, ttl, now())
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(out, token)
			return err
		},
	}

	cmd.Flags().StringVar(&subject, "subject", "admin", "token subject, usually the operator's email")
	cmd.Flags().DurationVar(&ttl, "ttl", 12*time.Hour, "token lifetime")
	cmd.Flags().StringVar(&secret, "secret", "", "signing secret (defaults to ADMIN_JWT_SECRET)")
	return cmd
}

func main() {
	_ = godotenv.Load()

	if err := newRootCmd(os.Stdout, time.Now).Execute(); err != nil {
		os.Exit(1)
	}
}
