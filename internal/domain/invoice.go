package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Invoice — бизнес-сущность инвойса.
//
// С точки зрения подсистемы генерации отчётов инвойс read-only:
// воркер читает его для построения payload рендера, но не изменяет
// бизнес-полей. Единственное исключение — кэш метаданных PDF
// (PDFSize, PDFGeneratedAt), который обновляется после успешной
// генерации для отображения в UI. Это кэш для удобства, не источник истины.
type Invoice struct {
	ID          int64         `json:"id"`
	CompanyName string        `json:"company_name"`
	Address     string        `json:"address"`
	LogoKey     string        `json:"logo_key,omitempty"`
	Customer    *Customer     `json:"customer,omitempty"`
	Items       []InvoiceItem `json:"items,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`

	// Кэш метаданных последнего сгенерированного PDF.
	PDFSize        *int64     `json:"pdf_size,omitempty"`
	PDFGeneratedAt *time.Time `json:"pdf_generated_at,omitempty"`
}

// ArtifactKey возвращает детерминированный ключ PDF в хранилище артефактов.
// Следующая генерация перезаписывает тот же ключ — актуальный PDF
// для инвойса всегда один.
func (inv *Invoice) ArtifactKey() string {
	return fmt.Sprintf("report_%d.pdf", inv.ID)
}

// HasItems возвращает true, если у инвойса есть хотя бы одна позиция.
// Инвойс без позиций не подлежит dispatch.
func (inv *Invoice) HasItems() bool {
	return len(inv.Items) > 0
}

// GrandTotal возвращает итоговую сумму инвойса — сумму line totals
// всех позиций. Считается в точной десятичной арифметике.
func (inv *Invoice) GrandTotal() decimal.Decimal {
	total := decimal.Zero
	for i := range inv.Items {
		total = total.Add(inv.Items[i].LineTotal())
	}
	return total
}

// Customer — покупатель, опциональная ссылка инвойса.
type Customer struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Address string `json:"address,omitempty"`
}

// InvoiceItem — позиция инвойса.
type InvoiceItem struct {
	ID        int64           `json:"id"`
	InvoiceID int64           `json:"invoice_id"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// LineTotal возвращает сумму позиции: quantity × unit_price.
func (it *InvoiceItem) LineTotal() decimal.Decimal {
	return it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity)))
}

// Validate проверяет позицию по правилам создания инвойса.
func (it *InvoiceItem) Validate() error {
	if it.Name == "" {
		return fmt.Errorf("item name is required")
	}
	if it.Quantity <= 0 {
		return fmt.Errorf("item quantity must be greater than zero")
	}
	if it.UnitPrice.IsNegative() {
		return fmt.Errorf("item unit price cannot be negative")
	}
	return nil
}
