package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var blockHeaders = []string{"ID", "TITLE", "DATE", "START", "END", "REMINDER", "STATE"}

func blockRow(out *Output, b QuietBlockResponse) []string {
	reminder := "-"
	if b.Reminder != nil {
		reminder = b.Reminder.Status
	}
	return []string{b.ID, b.Title, b.Date, b.StartTime, b.EndTime, reminder, out.Active(b.IsActive)}
}

// NewBlockCmd создаёт группу команд для управления quiet blocks.
func NewBlockCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "block",
		Aliases: []string{"blocks"},
		Short:   "Manage quiet blocks",
	}

	cmd.AddCommand(
		newBlockListCmd(clientFn, outputFn),
		newBlockCreateCmd(clientFn, outputFn),
		newBlockShowCmd(clientFn, outputFn),
		newBlockUpdateCmd(clientFn, outputFn),
		newBlockDeactivateCmd(clientFn, outputFn),
		newBlockDeleteCmd(clientFn, outputFn),
	)

	return cmd
}

func newBlockListCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var opts ListBlocksOpts

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List quiet blocks",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			blocks, err := client.ListBlocks(opts)
			if err != nil {
				return err
			}

			rows := make([][]string, len(blocks))
			for i, b := range blocks {
				rows[i] = blockRow(out, b)
			}

			out.Print(blockHeaders, rows, blocks)
			return nil
		},
	}

	cmd.Flags().BoolVar(&opts.IncludeInactive, "all", false, "Include inactive blocks")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "Max results")

	return cmd
}

func newBlockCreateCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var req CreateQuietBlockRequest

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a quiet block",
		Example: `  quiethours block create --title "Deep work" --date 2025-03-10 --start 09:00 --end 10:30`,
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			block, err := client.CreateBlock(req)
			if err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Quiet block created: %s", block.ID))
			if block.Reminder != nil {
				out.Success(fmt.Sprintf("Reminder scheduled at %s", block.Reminder.ScheduledTime))
			} else if block.ReminderError != "" {
				out.Error(block.ReminderError)
			}
			out.Print(blockHeaders, [][]string{blockRow(out, *block)}, block)
			return nil
		},
	}

	cmd.Flags().StringVar(&req.Title, "title", "", "Title (required)")
	cmd.Flags().StringVar(&req.Description, "description", "", "Description")
	cmd.Flags().StringVar(&req.Date, "date", "", "Date, YYYY-MM-DD (required)")
	cmd.Flags().StringVar(&req.StartTime, "start", "", "Start time, HH:MM (required)")
	cmd.Flags().StringVar(&req.EndTime, "end", "", "End time, HH:MM (required)")
	cmd.MarkFlagRequired("title")
	cmd.MarkFlagRequired("date")
	cmd.MarkFlagRequired("start")
	cmd.MarkFlagRequired("end")

	return cmd
}

func newBlockShowCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show quiet block details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			block, err := client.GetBlock(args[0])
			if err != nil {
				return err
			}

			out.Print(blockHeaders, [][]string{blockRow(out, *block)}, block)
			return nil
		},
	}
}

func newBlockUpdateCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var title, description, date, start, end string
	var active bool

	cmd := &cobra.Command{
		Use:   "update ID",
		Short: "Update a quiet block",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			req := UpdateQuietBlockRequest{}
			if cmd.Flags().Changed("title") {
				req.Title = &title
			}
			if cmd.Flags().Changed("description") {
				req.Description = &description
			}
			if cmd.Flags().Changed("date") {
				req.Date = &date
			}
			if cmd.Flags().Changed("start") {
				req.StartTime = &start
			}
			if cmd.Flags().Changed("end") {
				req.EndTime = &end
			}
			if cmd.Flags().Changed("active") {
				req.IsActive = &active
			}

			block, err := client.UpdateBlock(args[0], req)
			if err != nil {
				return err
			}

			out.Success("Quiet block updated")
			out.Print(blockHeaders, [][]string{blockRow(out, *block)}, block)
			return nil
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "New title")
	cmd.Flags().StringVar(&description, "description", "", "New description")
	cmd.Flags().StringVar(&date, "date", "", "New date, YYYY-MM-DD")
	cmd.Flags().StringVar(&start, "start", "", "New start time, HH:MM")
	cmd.Flags().StringVar(&end, "end", "", "New end time, HH:MM")
	cmd.Flags().BoolVar(&active, "active", true, "Set active flag")

	return cmd
}

func newBlockDeactivateCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "deactivate ID",
		Short: "Hide a quiet block without deleting it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			block, err := client.DeactivateBlock(args[0])
			if err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Quiet block %s deactivated", args[0]))
			out.Print(blockHeaders, [][]string{blockRow(out, *block)}, block)
			return nil
		},
	}
}

func newBlockDeleteCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a quiet block and its reminder",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			if err := client.DeleteBlock(args[0]); err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Quiet block %s deleted", args[0]))
			return nil
		},
	}
}
