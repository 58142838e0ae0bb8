package domain

// JobStatus — статус задачи генерации отчёта.
//
// Жизненный цикл:
//
//	QUEUED → RUNNING → COMPLETED
//	                 ↘ FAILED
//
// Переход RUNNING → FAILED может быть выполнен принудительно Reaper'ом,
// если heartbeat задачи протух. Из COMPLETED и FAILED переходов нет.
type JobStatus string

const (
	// JobStatusQueued — задача поставлена в очередь, ожидает воркера.
	JobStatusQueued JobStatus = "QUEUED"

	// JobStatusRunning — задача выполняется воркером.
	JobStatusRunning JobStatus = "RUNNING"

	// JobStatusCompleted — PDF сгенерирован и сохранён в хранилище.
	JobStatusCompleted JobStatus = "COMPLETED"

	// JobStatusFailed — генерация завершилась ошибкой
	// (или задача признана протухшей Reaper'ом).
	JobStatusFailed JobStatus = "FAILED"
)

// IsTerminal возвращает true, если статус финальный.
func (s JobStatus) IsTerminal() bool {
	switch s {
	case JobStatusCompleted, JobStatusFailed:
		return true
	default:
		return false
	}
}

// IsActive возвращает true, если задача ещё не завершена.
// Активная задача блокирует повторный dispatch для того же инвойса.
func (s JobStatus) IsActive() bool {
	return s == JobStatusQueued || s == JobStatusRunning
}

// String возвращает строковое представление JobStatus.
func (s JobStatus) String() string {
	return string(s)
}
