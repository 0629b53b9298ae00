package service

import (
	"context"
	"errors"

	"github.com/issafronov/urlscan/internal/app/models"
)

// ErrMissingAPIKey — не задан ключ API репутации
var ErrMissingAPIKey = errors.New("Server misconfiguration: Missing API Key")

// QueuedMessage — пояснение для клиента, когда URL отправлен на анализ
const QueuedMessage = "Scan started. Please try again in a few seconds."

// State — состояние результата проверки
type State int

const (
	// StateTerminal — сервис вернул готовый анализ
	StateTerminal State = iota + 1
	// StatePending — URL отправлен на анализ, результата ещё нет
	StatePending
	// StateError — проверка не удалась, причина возвращается ошибкой
	StateError
)

func (s State) String() string {
	switch s {
	case StateTerminal:
		return "terminal"
	case StatePending:
		return "pending"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// Outcome — результат проверки URL. Вердикт доступен только в состоянии
// StateTerminal, поэтому отложенный результат нельзя положить в кеш.
type Outcome struct {
	state   State
	verdict models.Verdict
	cached  bool
}

func terminal(v models.Verdict, cached bool) Outcome {
	return Outcome{state: StateTerminal, verdict: v, cached: cached}
}

func pending() Outcome {
	return Outcome{state: StatePending}
}

func failed() Outcome {
	return Outcome{state: StateError}
}

// State возвращает состояние результата
func (o Outcome) State() State {
	return o.state
}

// Verdict возвращает итоговый вердикт; false для отложенного и ошибочного результата
func (o Outcome) Verdict() (models.Verdict, bool) {
	if o.state != StateTerminal {
		return models.Verdict{}, false
	}
	return o.verdict, true
}

// Cached сообщает, что вердикт взят из кеша
func (o Outcome) Cached() bool {
	return o.cached
}

// Service определяет бизнес-логику проверки URL
type Service interface {
	// Allow учитывает запрос клиента и сообщает, не превышен ли лимит
	Allow(ctx context.Context, clientID string) (bool, error)

	// Scan возвращает вердикт по URL: из кеша, из сервиса репутации
	// или отправляет URL на анализ
	Scan(ctx context.Context, rawURL string) (Outcome, error)

	// Ping пингует хранилище
	Ping(ctx context.Context) error
}
