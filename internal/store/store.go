// Package store — хранилище артефактов (сгенерированных PDF).
//
// Артефакт адресуется детерминированным ключом report_<invoice_id>.pdf;
// повторная генерация перезаписывает тот же ключ. Существование ключа —
// сигнал идемпотентности для Dispatcher'а.
//
// Две взаимозаменяемые реализации за одним интерфейсом: локальная
// файловая система для разработки и S3 для production.
package store

import (
	"context"
	"io"
)

// Store — интерфейс хранилища артефактов.
type Store interface {
	// Exists сообщает, существует ли артефакт с данным ключом.
	Exists(ctx context.Context, key string) (bool, error)

	// Write сохраняет артефакт, перезаписывая существующий,
	// и возвращает его разрешимое расположение (путь или URL).
	Write(ctx context.Context, key string, data []byte) (string, error)

	// Open открывает артефакт на чтение.
	Open(ctx context.Context, key string) (io.ReadCloser, error)

	// Location возвращает расположение артефакта без обращения
	// к хранилищу.
	Location(key string) string
}
