// Package ratelimit ограничивает число запросов клиента в фиксированном окне.
//
// Счётчик читается и записывается отдельными операциями хранилища:
// конкурентные запросы одного клиента могут прочитать одно и то же значение
// и превысить Limit в пределах окна.
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/issafronov/urlscan/internal/app/storage"
)

const (
	// Limit — допустимое число запросов клиента в одном окне
	Limit = 10
	// Window — длина окна
	Window = 60 * time.Second

	keyPrefix = "rate:"
)

// Limiter считает запросы клиентов в хранилище
type Limiter struct {
	store storage.Storage
}

// NewLimiter создаёт ограничитель поверх хранилища
func NewLimiter(store storage.Storage) *Limiter {
	return &Limiter{store: store}
}

// Key возвращает ключ счётчика клиента в хранилище
func Key(clientID string) string {
	return keyPrefix + clientID
}

// Allow проверяет счётчик клиента. Если лимит исчерпан, возвращает false и
// ничего не записывает; иначе увеличивает счётчик и продлевает его на Window.
func (l *Limiter) Allow(ctx context.Context, clientID string) (bool, error) {
	key := Key(clientID)

	count := 0
	raw, err := l.store.Get(ctx, key)
	switch {
	case errors.Is(err, storage.ErrNotFound):
	case err != nil:
		return false, fmt.Errorf("read rate counter: %w", err)
	default:
		// повреждённое значение считаем нулём, как отсутствующее
		if n, convErr := strconv.Atoi(raw); convErr == nil {
			count = n
		}
	}

	if count >= Limit {
		return false, nil
	}

	if err := l.store.Put(ctx, key, strconv.Itoa(count+1), Window); err != nil {
		return false, fmt.Errorf("write rate counter: %w", err)
	}
	return true, nil
}
