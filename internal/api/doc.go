// Package api содержит HTTP API сервер.
//
// Структура:
//   - handler.go         — Handler с DI (репозитории, dispatcher, store, logger)
//   - routes.go          — регистрация маршрутов
//   - middleware.go      — middleware (logging, recovery)
//   - response.go        — унифицированные JSON-ответы и обработка ошибок
//   - dto.go             — Data Transfer Objects (request/response)
//   - invoice_handler.go — обработчики для /invoices
//   - report_handler.go  — постановка генерации, статус задач, выдача PDF
//   - health_handler.go  — health, db-status
//
// API предоставляет REST endpoints для инвойсов и задач генерации PDF.
package api
