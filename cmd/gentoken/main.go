// cmd/gentoken mints a signed access token for local development, standing
// in for the identity provider.
// Usage: go run ./cmd/gentoken --user jdoe --role service_desk
package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"assettracker/internal/config"
	"assettracker/internal/middleware"

	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/cobra"
)

func main() {
	var (
		user string
		role string
		ttl  time.Duration
	)

	cmd := &cobra.Command{
		Use:          "gentoken",
		Short:        "Mint a development JWT signed with JWT_SECRET",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.JWTSecret == "" {
				return errors.New("JWT_SECRET is not set")
			}

			now := time.Now()
			claims := middleware.JWTClaims{
				Username: user,
				Role:     role,
				RegisteredClaims: jwt.RegisteredClaims{
					Subject:   user,
					IssuedAt:  jwt.NewNumericDate(now),
					ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
				},
			}
			signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.JWTSecret))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), signed)
			return nil
		},
	}
	cmd.Flags().StringVar(&user, "user", "dev.admin", "Username recorded as the actor")
	cmd.Flags().StringVar(&role, "role", middleware.RoleAdmin, "admin | service_desk | viewer")
	cmd.Flags().DurationVar(&ttl, "ttl", 8*time.Hour, "Token lifetime")

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
