// Package cli реализует инструмент командной строки Faktura.
//
// # Обзор
//
// CLI — клиентская утилита для взаимодействия с Faktura API.
// Работает через HTTP, не импортирует внутренние пакеты системы.
// CLI используется для управления инвойсами и задачами генерации PDF.
//
// # Ключевые компоненты
//
// ## Client
//
// HTTP-клиент для Faktura API. Инкапсулирует все HTTP-запросы,
// парсинг ответов (DataResponse, ListResponse, ErrorResponse)
// и обработку ошибок.
//
//	client := cli.NewClient("http://localhost:8080")
//	invoices, err := client.ListInvoices(0)
//
// ## Output
//
// Форматирование вывода. Поддерживает два режима:
//   - Таблицы (text/tabwriter) — по умолчанию
//   - JSON (json.MarshalIndent) — с флагом --json
//
// Данные выводятся в stdout, сообщения (Success/Error) — в stderr.
// Это позволяет использовать pipe: faktura invoice list --json | jq .
//
// ## Commands
//
// Cobra-команды организованы по ресурсам:
//   - invoice: list, create, show
//   - report: start, status, job, download
//   - health, db-status
//
// Каждая группа создаётся через фабричную функцию (NewInvoiceCmd и т.д.),
// принимающую clientFn и outputFn — замыкания для ленивого создания
// Client и Output после парсинга PersistentFlags.
package cli
