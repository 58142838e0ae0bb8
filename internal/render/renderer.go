// Package render — генерация PDF-отчёта по инвойсу.
//
// С точки зрения воркера рендерер — внешний коллаборатор: на входе
// структурированный payload, на выходе байты PDF либо ошибка.
// Воркер не заглядывает внутрь процесса рендеринга.
package render

import (
	"context"

	"github.com/shopspring/decimal"
)

// Renderer превращает payload в бинарный артефакт.
type Renderer interface {
	Render(ctx context.Context, p *Payload) ([]byte, error)
}

// Payload — проекция инвойса в форму, ожидаемую рендерером.
// Все суммы посчитаны заранее в точной десятичной арифметике.
type Payload struct {
	// Company, Address — шапка отчёта.
	Company string
	Address string

	// LogoKey — ссылка на логотип (может быть пустой).
	LogoKey string

	// Date — дата генерации в отображаемом формате.
	Date string

	// Customer — покупатель (может быть nil).
	Customer *CustomerInfo

	// Items — позиции с посчитанными line totals.
	Items []Line

	// Total — итоговая сумма: сумма line totals.
	Total decimal.Decimal
}

// CustomerInfo — данные покупателя для отчёта.
type CustomerInfo struct {
	Name    string
	Email   string
	Phone   string
	Address string
}

// Line — позиция отчёта.
type Line struct {
	Name      string
	Quantity  int
	UnitPrice decimal.Decimal
	Total     decimal.Decimal
}
