package service

import (
	"context"
	"errors"

	"github.com/issafronov/urlscan/internal/app/cache"
	"github.com/issafronov/urlscan/internal/app/models"
	"github.com/issafronov/urlscan/internal/app/ratelimit"
	"github.com/issafronov/urlscan/internal/app/reputation"
	"github.com/issafronov/urlscan/internal/app/storage"
	"github.com/issafronov/urlscan/internal/app/urlid"
	"github.com/issafronov/urlscan/internal/middleware/logger"
	"go.uber.org/zap"
)

type scanService struct {
	storage       storage.Storage
	limiter       *ratelimit.Limiter
	cache         *cache.VerdictCache
	client        reputation.Client
	strictDetails bool
}

// Option настраивает сервис
type Option func(*scanService)

// WithStrictDetails включает в details движки с категорией suspicious
func WithStrictDetails(strict bool) Option {
	return func(s *scanService) {
		s.strictDetails = strict
	}
}

// NewService создаёт новый экземпляр сервиса. Хранилище используется и для
// счётчиков лимита, и для кеша вердиктов.
func NewService(store storage.Storage, client reputation.Client, opts ...Option) Service {
	s := &scanService{
		storage: store,
		limiter: ratelimit.NewLimiter(store),
		cache:   cache.NewVerdictCache(store),
		client:  client,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Allow применяет лимит запросов к клиенту
func (s *scanService) Allow(ctx context.Context, clientID string) (bool, error) {
	return s.limiter.Allow(ctx, clientID)
}

// Scan проверяет URL.
//
//	LOOKUP → найден → terminal (кешируется)
//	LOOKUP → 404 → SUBMIT → pending (не кешируется)
//	любая ошибка → error, в кеш ничего не пишется
func (s *scanService) Scan(ctx context.Context, rawURL string) (Outcome, error) {
	normalized := urlid.Normalize(rawURL)
	id := urlid.Identifier(normalized)

	if v, ok, err := s.cache.Get(ctx, id); err != nil {
		return failed(), err
	} else if ok {
		logger.Log.Debug("Verdict served from cache", zap.String("id", id))
		return terminal(v, true), nil
	}

	report, err := s.client.Lookup(ctx, id)
	if errors.Is(err, reputation.ErrNotFound) {
		return s.submit(ctx, rawURL, id)
	}
	if err != nil {
		logger.Log.Info("Failed to look up URL", zap.String("id", id), zap.Error(err))
		return failed(), err
	}

	outcome := terminal(s.buildVerdict(report, normalized), false)
	if err := s.remember(ctx, id, outcome); err != nil {
		return failed(), err
	}
	return outcome, nil
}

func (s *scanService) submit(ctx context.Context, rawURL, id string) (Outcome, error) {
	if err := s.client.Submit(ctx, rawURL); err != nil {
		logger.Log.Info("Failed to submit URL", zap.String("id", id), zap.Error(err))
		return failed(), err
	}
	logger.Log.Info("URL submitted for analysis", zap.String("id", id))
	return pending(), nil
}

// remember кладёт в кеш только итоговый вердикт
func (s *scanService) remember(ctx context.Context, id string, o Outcome) error {
	v, ok := o.Verdict()
	if !ok {
		return nil
	}
	if err := s.cache.Put(ctx, id, v); err != nil {
		logger.Log.Info("Failed to cache verdict", zap.String("id", id), zap.Error(err))
		return err
	}
	return nil
}

func (s *scanService) buildVerdict(report *reputation.Report, normalized string) models.Verdict {
	details := make([]string, 0)
	for _, r := range report.Results {
		if !s.flags(r.Category) {
			continue
		}
		details = append(details, describe(r))
	}

	status := models.StatusSafe
	if report.Stats.Malicious > 0 {
		status = models.StatusMalicious
	}

	return models.Verdict{
		Positives:  report.Stats.Malicious,
		Total:      report.Stats.Total(),
		Details:    details,
		Status:     status,
		ScannedURL: normalized,
	}
}

func (s *scanService) flags(category string) bool {
	if category == reputation.CategoryMalicious {
		return true
	}
	return s.strictDetails && category == reputation.CategorySuspicious
}

func describe(r reputation.EngineResult) string {
	verdict := r.Result
	if verdict == "" {
		verdict = r.EngineName
	}
	if verdict == "" {
		return r.Engine
	}
	return r.Engine + ": " + verdict
}

func (s *scanService) Ping(ctx context.Context) error {
	return s.storage.Ping(ctx)
}
