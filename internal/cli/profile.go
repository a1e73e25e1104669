package cli

import (
	"github.com/spf13/cobra"
)

var profileHeaders = []string{"ID", "EMAIL", "NAME", "CREATED_AT"}

// NewProfileCmd создаёт группу команд для своего профиля.
func NewProfileCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show or update your profile",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Show your profile",
			RunE: func(cmd *cobra.Command, args []string) error {
				profile, err := clientFn().GetProfile()
				if err != nil {
					return err
				}
				outputFn().Print(profileHeaders, [][]string{profileRow(profile)}, profile)
				return nil
			},
		},
		newProfileSetCmd(clientFn, outputFn),
	)

	return cmd
}

func newProfileSetCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var req UpdateProfileRequest

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Create or update your profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := outputFn()

			profile, err := clientFn().UpdateProfile(req)
			if err != nil {
				return err
			}

			out.Success("Profile saved")
			out.Print(profileHeaders, [][]string{profileRow(profile)}, profile)
			return nil
		},
	}

	cmd.Flags().StringVar(&req.Email, "email", "", "Email (ignored when the token carries one)")
	cmd.Flags().StringVar(&req.FullName, "name", "", "Full name")
	cmd.Flags().StringVar(&req.AvatarURL, "avatar-url", "", "Avatar URL")

	return cmd
}

func profileRow(p *ProfileResponse) []string {
	return []string{p.ID, p.Email, p.FullName, p.CreatedAt}
}
