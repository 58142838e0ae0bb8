package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

// NewInvoiceCmd создаёт группу команд для управления инвойсами.
func NewInvoiceCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "invoice",
		Short: "Manage invoices",
	}

	cmd.AddCommand(
		newInvoiceListCmd(clientFn, outputFn),
		newInvoiceCreateCmd(clientFn, outputFn),
		newInvoiceShowCmd(clientFn, outputFn),
	)

	return cmd
}

func newInvoiceListCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List invoices",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			invoices, err := client.ListInvoices(limit)
			if err != nil {
				return err
			}

			headers := []string{"ID", "COMPANY", "TOTAL", "PDF", "CREATED"}
			rows := make([][]string, len(invoices))
			for i, inv := range invoices {
				pdf := "-"
				if inv.PDFSize != nil {
					pdf = fmt.Sprintf("%d bytes", *inv.PDFSize)
				}
				rows[i] = []string{
					strconv.FormatInt(inv.ID, 10),
					inv.CompanyName,
					inv.GrandTotal,
					pdf,
					inv.CreatedAt,
				}
			}

			out.Print(headers, rows, invoices)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of results")

	return cmd
}

func newInvoiceCreateCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var fromFile string
	var company string
	var address string
	var logoKey string
	var customerName string
	var customerEmail string
	var items []string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an invoice",
		Long: `Create an invoice from a JSON file (--file) or from flags.

Each --item has the form NAME:QTY:PRICE, e.g. --item "Consulting:10:150.00".`,
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			var req CreateInvoiceRequest
			if fromFile != "" {
				data, err := os.ReadFile(fromFile)
				if err != nil {
					return fmt.Errorf("read %s: %w", fromFile, err)
				}
				if err := json.Unmarshal(data, &req); err != nil {
					return fmt.Errorf("parse %s: %w", fromFile, err)
				}
			} else {
				req.CompanyName = company
				req.Address = address
				req.LogoKey = logoKey
				if customerName != "" {
					req.Customer = &CustomerRequest{Name: customerName, Email: customerEmail}
				}
				for _, spec := range items {
					item, err := parseItemSpec(spec)
					if err != nil {
						return err
					}
					req.Items = append(req.Items, item)
				}
			}

			inv, err := client.CreateInvoice(req)
			if err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Invoice created: %d", inv.ID))
			out.Print(
				[]string{"ID", "COMPANY", "ITEMS", "TOTAL", "CREATED"},
				[][]string{{
					strconv.FormatInt(inv.ID, 10),
					inv.CompanyName,
					strconv.Itoa(len(inv.Items)),
					inv.GrandTotal,
					inv.CreatedAt,
				}},
				inv,
			)
			return nil
		},
	}

	cmd.Flags().StringVarP(&fromFile, "file", "f", "", "JSON file with the invoice")
	cmd.Flags().StringVar(&company, "company", "", "Company name")
	cmd.Flags().StringVar(&address, "address", "", "Company address")
	cmd.Flags().StringVar(&logoKey, "logo", "", "Logo key in the artifact store")
	cmd.Flags().StringVar(&customerName, "customer-name", "", "Customer name")
	cmd.Flags().StringVar(&customerEmail, "customer-email", "", "Customer email")
	cmd.Flags().StringSliceVar(&items, "item", nil, "Invoice item as NAME:QTY:PRICE (repeatable)")

	return cmd
}

func newInvoiceShowCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show invoice details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			inv, err := client.GetInvoice(args[0])
			if err != nil {
				return err
			}

			headers := []string{"ITEM", "QTY", "UNIT_PRICE", "LINE_TOTAL"}
			rows := make([][]string, len(inv.Items))
			for i, it := range inv.Items {
				rows[i] = []string{it.Name, strconv.Itoa(it.Quantity), it.UnitPrice, it.LineTotal}
			}
			rows = append(rows, []string{"TOTAL", "", "", inv.GrandTotal})

			out.Print(headers, rows, inv)
			return nil
		},
	}
}

// parseItemSpec разбирает NAME:QTY:PRICE. Имя может содержать двоеточия —
// QTY и PRICE берутся с конца.
func parseItemSpec(spec string) (ItemRequest, error) {
	parts := strings.Split(spec, ":")
	if len(parts) < 3 {
		return ItemRequest{}, fmt.Errorf("invalid item %q, expected NAME:QTY:PRICE", spec)
	}

	price := parts[len(parts)-1]
	qtyStr := parts[len(parts)-2]
	name := strings.Join(parts[:len(parts)-2], ":")

	qty, err := strconv.Atoi(qtyStr)
	if err != nil {
		return ItemRequest{}, fmt.Errorf("invalid quantity in item %q: %w", spec, err)
	}

	return ItemRequest{Name: name, Quantity: qty, UnitPrice: price}, nil
}
