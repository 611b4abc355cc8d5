package main

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	jwttoken "marathon/internal/jwt_token"
	"marathon/internal/platform/config"
)

var (
	tokenParticipant string
	tokenRole        string
	tokenTTL         time.Duration
)

// tokenCmd mints an access token signed with the configured key, for
// exercising the API without the account service.
var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Print a signed access token for local testing",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load(envFile, configFile)
		if err != nil {
			return err
		}
		participant := uuid.New()
		if tokenParticipant != "" {
			participant, err = uuid.Parse(tokenParticipant)
			if err != nil {
				return fmt.Errorf("invalid --participant: %w", err)
			}
		}
		svc := jwttoken.NewJWTService(cfg.Auth.JWTSigningKey, cfg.Auth.JWTIssuer, cfg.Auth.JWTAudience)
		token, err := svc.GenerateAccessToken(participant, tokenRole, tokenTTL)
		if err != nil {
			return err
		}
		cmd.Println(token)
		return nil
	},
}

func init() {
	tokenCmd.Flags().StringVar(&tokenParticipant, "participant", "", "participant id (random when empty)")
	tokenCmd.Flags().StringVar(&tokenRole, "role", "participant", "role claim (participant or admin)")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", time.Hour, "token lifetime")
}
