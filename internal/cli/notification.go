package cli

import (
	"github.com/spf13/cobra"
)

// NewNotificationCmd создаёт группу команд для просмотра напоминаний.
func NewNotificationCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "notification",
		Aliases: []string{"notifications"},
		Short:   "Inspect email reminders",
	}

	cmd.AddCommand(newNotificationListCmd(clientFn, outputFn))

	return cmd
}

func newNotificationListCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var opts ListNotificationsOpts

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List reminders",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			notifications, err := client.ListNotifications(opts)
			if err != nil {
				return err
			}

			headers := []string{"ID", "QUIET_BLOCK_ID", "SCHEDULED", "SENT_AT", "ERROR", "STATUS"}
			rows := make([][]string, len(notifications))
			for i, n := range notifications {
				rows[i] = []string{
					n.ID, n.QuietBlockID, n.ScheduledTime, n.SentAt, n.ErrorMessage,
					out.Status(n.Status),
				}
			}

			out.Print(headers, rows, notifications)
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.Status, "status", "", "Filter by status (pending, processing, sent, failed)")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "Max results")

	return cmd
}
