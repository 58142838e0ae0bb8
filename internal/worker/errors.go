package worker

import "errors"

// Ожидаемые ситуации при обработке сообщений очереди:
// сообщение подтверждается, повторная доставка не нужна.
var (
	// ErrJobNotFound — задача отсутствует в журнале.
	ErrJobNotFound = errors.New("job not found")

	// ErrJobNotQueued — задача уже не в QUEUED: её взял другой воркер
	// или это дубликат доставки.
	ErrJobNotQueued = errors.New("job not queued")
)
