// Habit CLI: инструмент командной строки для работы
// с привычками через HTTP API.
//
// Использование:
//
//	habit [--api-url URL] [--token TOKEN] [--json] <command> <subcommand> [flags]
//
// Команды:
//
//	user      Регистрация, вход, профиль
//	habit     Управление привычками
//	telegram  Привязка Telegram
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ViktorShadr/habit-reminder-api/internal/cli"
)

// version задаётся через ldflags при сборке.
var version = "dev"

func main() {
	var apiURL string
	var token string
	var jsonOutput bool

	rootCmd := &cobra.Command{
		Use:           "habit",
		Short:         "Habit CLI: habit tracker with Telegram reminders",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	defaultURL := os.Getenv("HABIT_API_URL")
	if defaultURL == "" {
		defaultURL = "http://localhost:8080"
	}

	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", defaultURL, "API server URL")
	rootCmd.PersistentFlags().StringVar(&token, "token", os.Getenv("HABIT_TOKEN"), "Session token (env HABIT_TOKEN)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")

	clientFn := func() *cli.Client { return cli.NewClient(apiURL, token) }
	outputFn := func() *cli.Output { return cli.NewOutput(jsonOutput) }

	rootCmd.AddCommand(
		cli.NewUserCmd(clientFn, outputFn),
		cli.NewHabitCmd(clientFn, outputFn),
		cli.NewTelegramCmd(clientFn, outputFn),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
