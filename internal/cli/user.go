package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

// NewUserCmd создаёт группу команд для аккаунта.
func NewUserCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage your account",
	}

	cmd.AddCommand(
		newUserRegisterCmd(clientFn, outputFn),
		newUserLoginCmd(clientFn, outputFn),
		newUserLogoutCmd(clientFn, outputFn),
		newUserMeCmd(clientFn, outputFn),
	)

	return cmd
}

var userHeaders = []string{"ID", "EMAIL", "CITY", "TELEGRAM", "CREATED"}

func userRow(u UserResponse) []string {
	return []string{u.ID, u.Email, u.City, strconv.FormatBool(u.TelegramLinked), u.CreatedAt}
}

func newUserRegisterCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var req RegisterRequest

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account",
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := clientFn().Register(req)
			if err != nil {
				return err
			}

			out := outputFn()
			out.Success(fmt.Sprintf("User registered: %s", user.Email))
			out.Print(userHeaders, [][]string{userRow(*user)}, user)
			return nil
		},
	}

	cmd.Flags().StringVar(&req.Email, "email", "", "Email (required)")
	cmd.Flags().StringVar(&req.Password, "password", "", "Password (required)")
	cmd.Flags().StringVar(&req.Phone, "phone", "", "Phone number")
	cmd.Flags().StringVar(&req.City, "city", "", "City")
	cmd.MarkFlagRequired("email")
	cmd.MarkFlagRequired("password")

	return cmd
}

func newUserLoginCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Get an access token",
		RunE: func(cmd *cobra.Command, args []string) error {
			login, err := clientFn().Login(email, password)
			if err != nil {
				return err
			}

			out := outputFn()
			out.Success("Logged in. Pass the token with --token or HABIT_TOKEN.")
			out.Print(
				[]string{"TOKEN", "EXPIRES_IN"},
				[][]string{{login.Token, strconv.Itoa(login.ExpiresIn) + "s"}},
				login,
			)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Email (required)")
	cmd.Flags().StringVar(&password, "password", "", "Password (required)")
	cmd.MarkFlagRequired("email")
	cmd.MarkFlagRequired("password")

	return cmd
}

func newUserLogoutCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Revoke the current token",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := clientFn().Logout(); err != nil {
				return err
			}
			outputFn().Success("Logged out")
			return nil
		},
	}
}

func newUserMeCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "me",
		Short: "Show your profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := clientFn().Me()
			if err != nil {
				return err
			}
			outputFn().Detail([]Field{
				{"ID", user.ID},
				{"Email", user.Email},
				{"Phone", user.Phone},
				{"City", user.City},
				{"Telegram linked", strconv.FormatBool(user.TelegramLinked)},
				{"Created", user.CreatedAt},
			}, user)
			return nil
		},
	}
}
