package cli

import (
	"github.com/spf13/cobra"
)

// NewTelegramCmd создаёт группу команд для привязки Telegram.
func NewTelegramCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "telegram",
		Short: "Link Telegram for reminders",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "link",
		Short: "Get a one-time code for the Telegram bot",
		RunE: func(cmd *cobra.Command, args []string) error {
			link, err := clientFn().CreateTelegramLink()
			if err != nil {
				return err
			}

			out := outputFn()
			out.Print(
				[]string{"CODE", "EXPIRES", "SEND TO BOT"},
				[][]string{{link.Code, link.ExpiresAt, link.Command}},
				link,
			)
			if link.BotURL != "" {
				out.Success("Or open: " + link.BotURL)
			}
			return nil
		},
	})

	return cmd
}
