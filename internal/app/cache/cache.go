package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/issafronov/urlscan/internal/app/models"
	"github.com/issafronov/urlscan/internal/app/storage"
)

// TTL — срок хранения итогового вердикта
const TTL = 24 * time.Hour

// VerdictCache хранит итоговые вердикты в хранилище под идентификатором URL
type VerdictCache struct {
	store storage.Storage
}

// NewVerdictCache создаёт кеш вердиктов поверх хранилища
func NewVerdictCache(store storage.Storage) *VerdictCache {
	return &VerdictCache{store: store}
}

// Get возвращает сохранённый вердикт. Второе значение false означает промах.
func (c *VerdictCache) Get(ctx context.Context, id string) (models.Verdict, bool, error) {
	raw, err := c.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return models.Verdict{}, false, nil
		}
		return models.Verdict{}, false, fmt.Errorf("read cached verdict: %w", err)
	}

	var v models.Verdict
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return models.Verdict{}, false, fmt.Errorf("decode cached verdict: %w", err)
	}
	return v, true, nil
}

// Put сохраняет итоговый вердикт на TTL
func (c *VerdictCache) Put(ctx context.Context, id string, v models.Verdict) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if err := c.store.Put(ctx, id, string(data), TTL); err != nil {
		return fmt.Errorf("write cached verdict: %w", err)
	}
	return nil
}
