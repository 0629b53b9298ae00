package storage

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound возвращается, когда ключ отсутствует или срок его жизни истёк
var ErrNotFound = errors.New("key not found")

// Storage — хранилище ключ-значение с временем жизни записей.
//
// Хранилище не предоставляет атомарного инкремента: последовательность
// Get → Put у вызывающей стороны не транзакционна, и конкурентные
// запросы могут перезаписать значения друг друга.
type Storage interface {
	// Get возвращает значение по ключу или ErrNotFound
	Get(ctx context.Context, key string) (string, error)
	// Put сохраняет значение, которое перестанет быть доступным через ttl
	Put(ctx context.Context, key, value string, ttl time.Duration) error
	// Ping проверяет доступность хранилища
	Ping(ctx context.Context) error
}
