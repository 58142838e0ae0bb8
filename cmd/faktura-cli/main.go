// Faktura CLI — инструмент командной строки для управления
// инвойсами и задачами генерации PDF через HTTP API.
//
// Использование:
//
//	faktura [--api-url URL] [--json] <command> <subcommand> [flags]
//
// Команды:
//
//	invoice    Управление инвойсами
//	report     Генерация и скачивание PDF
//	health     Статус компонентов
//	db-status  Статус базы данных
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/shaiso/Faktura/internal/cli"
)

// version задаётся через ldflags при сборке.
var version = "dev"

func main() {
	var apiURL string
	var jsonOutput bool

	rootCmd := &cobra.Command{
		Use:           "faktura",
		Short:         "Faktura CLI — invoice PDF generation tool",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "http://localhost:8080", "API server URL")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")

	clientFn := func() *cli.Client { return cli.NewClient(apiURL) }
	outputFn := func() *cli.Output { return cli.NewOutput(jsonOutput) }

	rootCmd.AddCommand(
		cli.NewInvoiceCmd(clientFn, outputFn),
		cli.NewReportCmd(clientFn, outputFn),
		cli.NewHealthCmd(clientFn, outputFn),
		cli.NewDBStatusCmd(clientFn, outputFn),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
