// Command devtoken mints an access token for local testing of the monitor
// API and realtime feed, signed with JWT_SECRET.
package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/iliyamo/crowdsafe/internal/middleware"
	"github.com/iliyamo/crowdsafe/internal/utils"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "devtoken",
	Short: "Mint a CrowdSafe access token for local testing",
	Long: `devtoken signs an HS256 access token with JWT_SECRET (read from the
environment or a .env file) and prints it to stdout.

Use it as a Bearer header for /v1 routes or as ?token= on /realtime.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		_ = godotenv.Load()
		user, _ := cmd.Flags().GetUint64("user")
		role, _ := cmd.Flags().GetString("role")
		ttl, _ := cmd.Flags().GetDuration("ttl")

		secret := os.Getenv("JWT_SECRET")
		if secret == "" {
			return errors.New("JWT_SECRET is not set")
		}
		r := strings.ToUpper(role)
		if r != middleware.RoleOrganizer && r != middleware.RoleScanner {
			return fmt.Errorf("unknown role %q", role)
		}
		tok, err := utils.NewAccessToken(secret, user, r, ttl)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), tok.Token)
		return nil
	},
}

func init() {
	rootCmd.Flags().Uint64("user", 1, "Subject (user id) to embed")
	rootCmd.Flags().String("role", middleware.RoleOrganizer, "ORGANIZER or SCANNER")
	rootCmd.Flags().Duration("ttl", 12*time.Hour, "Token lifetime")
}
