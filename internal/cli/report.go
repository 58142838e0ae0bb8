package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewReportCmd создаёт группу команд для задач генерации PDF.
func NewReportCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Manage PDF report generation",
	}

	cmd.AddCommand(
		newReportStartCmd(clientFn, outputFn),
		newReportStatusCmd(clientFn, outputFn),
		newReportJobCmd(clientFn, outputFn),
		newReportDownloadCmd(clientFn, outputFn),
	)

	return cmd
}

func newReportStartCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "start INVOICE_ID",
		Short: "Dispatch PDF generation for an invoice",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			resp, err := client.DispatchReport(args[0])
			if err != nil {
				return err
			}

			switch resp.Status {
			case "skipped":
				out.Success(fmt.Sprintf("Generation skipped, existing job: %s", resp.JobID))
			default:
				out.Success(fmt.Sprintf("Generation started, job: %s", resp.JobID))
			}

			out.Print(
				[]string{"JOB_ID", "STATUS"},
				[][]string{{resp.JobID, resp.Status}},
				resp,
			)
			return nil
		},
	}
}

func newReportStatusCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "status INVOICE_ID",
		Short: "Show the latest generation job for an invoice",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			job, err := client.LatestJobStatus(args[0])
			if err != nil {
				return err
			}

			printJob(out, job)
			return nil
		},
	}
}

func newReportJobCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "job JOB_ID",
		Short: "Show a generation job by its ID",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			job, err := client.JobStatus(args[0])
			if err != nil {
				return err
			}

			printJob(out, job)
			return nil
		},
	}
}

func newReportDownloadCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var outPath string

	cmd := &cobra.Command{
		Use:   "download INVOICE_ID",
		Short: "Download the generated PDF",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			path := outPath
			if path == "" {
				path = fmt.Sprintf("report_%s.pdf", args[0])
			}

			f, err := os.Create(path)
			if err != nil {
				return fmt.Errorf("create %s: %w", path, err)
			}
			defer f.Close()

			n, err := client.DownloadReport(args[0], f)
			if err != nil {
				os.Remove(path)
				return err
			}

			out.Success(fmt.Sprintf("Saved %s (%d bytes)", path, n))
			return nil
		},
	}

	cmd.Flags().StringVarP(&outPath, "output", "o", "", "Output file (default report_<id>.pdf)")

	return cmd
}

// printJob выводит задачу в табличном или JSON виде.
func printJob(out *Output, job *JobStatusResponse) {
	duration := "-"
	if job.DurationSeconds != nil {
		duration = fmt.Sprintf("%.2fs", *job.DurationSeconds)
	}

	out.Print(
		[]string{"JOB_ID", "STATUS", "QUEUED", "DURATION", "RESULT"},
		[][]string{{job.JobID, job.Status, job.QueuedAt, duration, job.Result}},
		job,
	)
}
