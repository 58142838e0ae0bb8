package render

import (
	"bytes"
	"context"
	"fmt"
	"strconv"

	"github.com/go-pdf/fpdf"
)

// Ширины колонок таблицы позиций, мм.
const (
	colName  = 80.0
	colQty   = 25.0
	colPrice = 40.0
	colTotal = 40.0
	rowH     = 8.0
)

// PDF — рендерер отчётов на основе fpdf.
// Потокобезопасен: каждый вызов Render создаёт свой документ.
type PDF struct{}

// NewPDF создаёт PDF-рендерер.
func NewPDF() *PDF {
	return &PDF{}
}

// Render генерирует PDF-отчёт: шапка компании, покупатель,
// таблица позиций, итоговая сумма.
func (r *PDF) Render(ctx context.Context, p *Payload) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	doc := fpdf.New("P", "mm", "A4", "")
	doc.AddPage()

	// Шапка
	doc.SetFont("Helvetica", "B", 18)
	doc.Cell(0, 10, p.Company)
	doc.Ln(8)
	doc.SetFont("Helvetica", "", 11)
	doc.Cell(0, 8, p.Address)
	doc.Ln(6)
	doc.SetFont("Helvetica", "", 9)
	doc.Cell(0, 8, p.Date)
	doc.Ln(6)
	if p.LogoKey != "" {
		doc.Cell(0, 8, "Logo: "+p.LogoKey)
		doc.Ln(6)
	}

	if p.Customer != nil {
		doc.Ln(4)
		doc.SetFont("Helvetica", "B", 11)
		doc.Cell(0, 8, "Bill to")
		doc.Ln(6)
		doc.SetFont("Helvetica", "", 10)
		doc.Cell(0, 6, p.Customer.Name)
		doc.Ln(5)
		for _, line := range []string{p.Customer.Address, p.Customer.Email, p.Customer.Phone} {
			if line == "" {
				continue
			}
			doc.Cell(0, 6, line)
			doc.Ln(5)
		}
	}

	// Таблица позиций
	doc.Ln(6)
	doc.SetFont("Helvetica", "B", 10)
	doc.SetFillColor(230, 230, 230)
	doc.CellFormat(colName, rowH, "Item", "1", 0, "L", true, 0, "")
	doc.CellFormat(colQty, rowH, "Qty", "1", 0, "R", true, 0, "")
	doc.CellFormat(colPrice, rowH, "Unit price", "1", 0, "R", true, 0, "")
	doc.CellFormat(colTotal, rowH, "Total", "1", 1, "R", true, 0, "")

	doc.SetFont("Helvetica", "", 10)
	for i := range p.Items {
		item := &p.Items[i]
		doc.CellFormat(colName, rowH, item.Name, "1", 0, "L", false, 0, "")
		doc.CellFormat(colQty, rowH, strconv.Itoa(item.Quantity), "1", 0, "R", false, 0, "")
		doc.CellFormat(colPrice, rowH, item.UnitPrice.StringFixed(2), "1", 0, "R", false, 0, "")
		doc.CellFormat(colTotal, rowH, item.Total.StringFixed(2), "1", 1, "R", false, 0, "")
	}

	// Итог
	doc.SetFont("Helvetica", "B", 11)
	doc.CellFormat(colName+colQty+colPrice, rowH, "Grand total", "1", 0, "R", false, 0, "")
	doc.CellFormat(colTotal, rowH, p.Total.StringFixed(2), "1", 1, "R", false, 0, "")

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
