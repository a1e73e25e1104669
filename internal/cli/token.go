package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/shaiso/QuietHours/internal/api"
)

// NewTokenCmd создаёт команду выпуска токена пользователя для локальной
// разработки: подписывает его тем же AUTH_JWT_SECRET, что и API.
func NewTokenCmd(outputFn func() *Output) *cobra.Command {
	var secret, userID, email string

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a user access token signed with AUTH_JWT_SECRET (local development)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if secret == "" {
				return errors.New("--secret or AUTH_JWT_SECRET is required")
			}

			id := uuid.New()
			if userID != "" {
				parsed, err := uuid.Parse(userID)
				if err != nil {
					return fmt.Errorf("invalid --user: %w", err)
				}
				id = parsed
			}

			token, err := api.IssueToken([]byte(secret), id, email)
			if err != nil {
				return fmt.Errorf("sign token: %w", err)
			}

			outputFn().Value("token", token)
			return nil
		},
	}

	cmd.Flags().StringVar(&secret, "secret", os.Getenv("AUTH_JWT_SECRET"), "JWT signing secret")
	cmd.Flags().StringVar(&userID, "user", "", "User ID (random when empty)")
	cmd.Flags().StringVar(&email, "email", "", "Email claim")

	return cmd
}
