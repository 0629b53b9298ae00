// Package reputation — клиент API репутации URL в формате VirusTotal v3.
package reputation

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotFound — сервис ещё не анализировал URL с таким идентификатором
var ErrNotFound = errors.New("url report not found")

// ErrMalformedReport — ответ сервиса не содержит ожидаемых полей
var ErrMalformedReport = errors.New("unexpected VirusTotal response: missing data")

// Операции, для которых возвращается APIError
const (
	OpLookup = "lookup"
	OpSubmit = "submit"
)

// APIError — сервис ответил неуспешным статусом
type APIError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	if e.Op == OpSubmit {
		return fmt.Sprintf("Failed to submit URL for scanning: %s", e.Body)
	}
	return fmt.Sprintf("VirusTotal API Error: %d %s", e.StatusCode, e.Body)
}

// Категории движков
const (
	CategoryMalicious  = "malicious"
	CategorySuspicious = "suspicious"
	CategoryHarmless   = "harmless"
	CategoryUndetected = "undetected"
)

// Stats — количество движков в каждой категории
type Stats struct {
	Malicious  int
	Harmless   int
	Suspicious int
	Undetected int
}

// Total — сумма всех четырёх категорий
func (s Stats) Total() int {
	return s.Malicious + s.Harmless + s.Suspicious + s.Undetected
}

// EngineResult — вердикт одного движка
type EngineResult struct {
	Engine     string
	Category   string
	Result     string
	EngineName string
}

// Report — последний анализ URL. Results идут в порядке ответа сервиса.
type Report struct {
	Stats   Stats
	Results []EngineResult
}

// Client описывает обращения к сервису репутации
type Client interface {
	// Lookup возвращает отчёт по идентификатору URL или ErrNotFound
	Lookup(ctx context.Context, id string) (*Report, error)
	// Submit ставит URL в очередь на анализ и не ждёт результата
	Submit(ctx context.Context, rawURL string) error
}
