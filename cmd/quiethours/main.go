// QuietHours CLI — инструмент командной строки для управления
// quiet blocks, напоминаниями и профилем через HTTP API.
//
// Использование:
//
//	quiethours [--api-url URL] [--token JWT] [--json] <command> <subcommand> [flags]
//
// Команды:
//
//	block         Управление quiet blocks
//	notification  Просмотр напоминаний
//	profile       Профиль пользователя
//	email         Тестовые письма
//	dispatch      Ручной запуск рассылки
//	token         Токен пользователя для локальной разработки
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/shaiso/QuietHours/internal/cli"
)

// version задаётся через ldflags при сборке.
var version = "dev"

func main() {
	var apiURL, token, cronSecret string
	var jsonOutput bool

	rootCmd := &cobra.Command{
		Use:           "quiethours",
		Short:         "QuietHours CLI — quiet study sessions with email reminders",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "http://localhost:8080", "API server URL")
	rootCmd.PersistentFlags().StringVar(&token, "token", os.Getenv("QUIETHOURS_TOKEN"), "User access token (JWT)")
	rootCmd.PersistentFlags().StringVar(&cronSecret, "cron-secret", os.Getenv("CRON_SECRET"), "Secret for service endpoints")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")

	clientFn := func() *cli.Client {
		return cli.NewClient(cli.ClientConfig{BaseURL: apiURL, Token: token, CronSecret: cronSecret})
	}
	outputFn := func() *cli.Output { return cli.NewOutput(jsonOutput) }

	rootCmd.AddCommand(
		cli.NewBlockCmd(clientFn, outputFn),
		cli.NewNotificationCmd(clientFn, outputFn),
		cli.NewProfileCmd(clientFn, outputFn),
		cli.NewEmailCmd(clientFn, outputFn),
		cli.NewDispatchCmd(clientFn, outputFn),
		cli.NewTokenCmd(outputFn),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
