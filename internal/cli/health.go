package cli

import (
	"github.com/spf13/cobra"
)

// NewHealthCmd создаёт команду проверки статуса компонентов.
func NewHealthCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Show API, broker and worker health",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			health, err := client.Health()
			if err != nil {
				return err
			}

			out.Print(
				[]string{"API", "BROKER", "WORKER"},
				[][]string{{health.API, health.Broker, health.Worker}},
				health,
			)
			return nil
		},
	}
}

// NewDBStatusCmd создаёт команду проверки базы данных.
func NewDBStatusCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "db-status",
		Short: "Show database connectivity",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			status, err := client.DBStatus()
			if err != nil {
				return err
			}

			out.Print(
				[]string{"DATABASE"},
				[][]string{{status.Database}},
				status,
			)
			return nil
		},
	}
}
