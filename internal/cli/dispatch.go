package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

// NewDispatchCmd создаёт команду ручного запуска рассылки.
// Требует --cron-secret.
func NewDispatchCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "dispatch",
		Short: "Send reminders that are due in the next 10 minutes",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			result, err := client.Dispatch()
			if err != nil {
				return err
			}

			out.Success(result.Message)
			if result.Processed != nil {
				return nil
			}
			out.Print(
				[]string{"TOTAL", "SUCCESS", "FAILURES"},
				[][]string{{
					strconv.Itoa(result.Total),
					strconv.Itoa(result.Success),
					strconv.Itoa(result.Failures),
				}},
				result,
			)
			return nil
		},
	}
}

// NewEmailCmd создаёт группу команд для писем.
func NewEmailCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "email",
		Short: "Email templates",
	}

	cmd.AddCommand(newEmailTestCmd(clientFn, outputFn))

	return cmd
}

func newEmailTestCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var req TestEmailRequest

	cmd := &cobra.Command{
		Use:   "test welcome|reminder EMAIL",
		Short: "Send a test email",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			req.Type, req.Email = args[0], args[1]
			result, err := client.TestEmail(req)
			if err != nil {
				return err
			}

			out.Success(fmt.Sprintf("%s (id %s)", result.Message, result.Data.ID))
			return nil
		},
	}

	cmd.Flags().StringVar(&req.Name, "name", "", "Recipient name")
	cmd.Flags().StringVar(&req.Title, "title", "", "Reminder title")
	cmd.Flags().StringVar(&req.Description, "description", "", "Reminder description")
	cmd.Flags().StringVar(&req.Date, "date", "", "Reminder date as shown in the email")
	cmd.Flags().StringVar(&req.StartTime, "start", "", "Reminder start time as shown in the email")
	cmd.Flags().StringVar(&req.EndTime, "end", "", "Reminder end time as shown in the email")

	return cmd
}
