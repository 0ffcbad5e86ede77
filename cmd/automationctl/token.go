package main

import (
	"fmt"

	"github.com/avrvenkatesa/multi-project-tracker-sub006/internal/middleware"
	"github.com/avrvenkatesa/multi-project-tracker-sub006/internal/utils"
	"github.com/spf13/cobra"
)

var (
	tokenUserID   uint
	tokenUsername string
	tokenRole     string
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue a bearer token signed with the configured secret",
	Long: `Issue a bearer token for scripts and local testing. Production tokens come
from the identity service; this signs with the same shared secret.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		utils.SetJWTSecret(cfg.JWT.Secret)
		token, err := utils.GenerateToken(tokenUserID, tokenUsername, tokenRole, cfg.JWT.ExpireHour)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(map[string]string{"token": token})
		}
		fmt.Println(token)
		return nil
	},
}

func init() {
	tokenCmd.Flags().UintVar(&tokenUserID, "user-id", 1, "User id claim")
	tokenCmd.Flags().StringVar(&tokenUsername, "username", "admin", "Username claim")
	tokenCmd.Flags().StringVar(&tokenRole, "role", middleware.RoleAdmin, "Role claim (admin or user)")
}
