package dispatch

import "errors"

// Ошибки предусловий dispatch. Отклоняются синхронно, задача в очередь
// не попадает и строка в журнале не создаётся.
var (
	// ErrInvoiceNotFound — инвойс не существует.
	ErrInvoiceNotFound = errors.New("invoice not found")

	// ErrInvoiceEmpty — у инвойса нет ни одной позиции,
	// генерировать нечего.
	ErrInvoiceEmpty = errors.New("invoice has no items")
)
