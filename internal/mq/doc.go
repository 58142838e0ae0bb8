// Package mq — инфраструктура RabbitMQ.
//
// Структура:
//   - connection.go — соединение с reconnect и graceful shutdown
//   - topology.go   — объявление exchange, очередей и binding'ов
//   - publisher.go  — публикация сообщений
//   - consumer.go   — потребление сообщений воркером
//
// Типы сообщений:
//   - report.requested — Dispatcher поставил задачу генерации в очередь
//
// Exchanges:
//   - faktura.reports — события генерации отчётов
//   - faktura.dlq     — dead letter queue для некорректных сообщений
package mq
