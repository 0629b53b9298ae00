package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/issafronov/urlscan/internal/app/config"
	"github.com/issafronov/urlscan/internal/app/models"
	"github.com/issafronov/urlscan/internal/app/service"
	"github.com/issafronov/urlscan/internal/middleware/clientip"
	"github.com/issafronov/urlscan/internal/middleware/logger"
	"go.uber.org/zap"
)

// CacheHeader — заголовок, сообщающий, взят ли ответ из кеша
const CacheHeader = "X-Cache"

// Значения CacheHeader
const (
	CacheHit  = "HIT"
	CacheMiss = "MISS"
)

// Сообщения об ошибках, которые видит клиент
const (
	msgMethodNotAllowed = "Method Not Allowed"
	msgURLRequired      = "URL is required"
	msgInvalidBody      = "Invalid request body"
	msgRateLimited      = "Rate limit exceeded. Try again in a minute."
)

// maxBodySize ограничивает размер тела запроса
const maxBodySize = 64 << 10

// Handler обрабатывает запросы на проверку URL
type Handler struct {
	config  *config.Config
	service service.Service
}

// NewHandler создаёт обработчик
func NewHandler(config *config.Config, service service.Service) (*Handler, error) {
	if config == nil {
		return nil, errors.New("config is required")
	}
	if service == nil {
		return nil, errors.New("service is required")
	}
	return &Handler{config: config, service: service}, nil
}

// ScanHandle принимает POST с JSON {"url": "..."} и возвращает вердикт.
//
// Порядок обработки: метод, ключ API, тело запроса, лимит клиента,
// затем кеш и сервис репутации. Ответы об ошибках имеют вид {"error": "..."}.
func (h *Handler) ScanHandle(res http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodPost {
		writeError(res, http.StatusMethodNotAllowed, msgMethodNotAllowed)
		return
	}

	if h.config.APIKey == "" {
		logger.Log.Error("Reputation API key is not configured")
		writeError(res, http.StatusInternalServerError, service.ErrMissingAPIKey.Error())
		return
	}

	var data models.ScanRequest
	if err := json.NewDecoder(http.MaxBytesReader(res, req.Body, maxBodySize)).Decode(&data); err != nil {
		logger.Log.Debug("Failed to decode scan request", zap.Error(err))
		writeError(res, http.StatusBadRequest, msgInvalidBody)
		return
	}

	if data.URL == "" {
		writeError(res, http.StatusBadRequest, msgURLRequired)
		return
	}

	ctx := req.Context()
	clientID := clientip.FromContext(ctx)
	log := logger.FromContext(ctx).With(zap.String("client", clientID))

	allowed, err := h.service.Allow(ctx, clientID)
	if err != nil {
		log.Error("Rate limiter failed", zap.Error(err))
		writeError(res, http.StatusInternalServerError, err.Error())
		return
	}
	if !allowed {
		log.Info("Rate limit exceeded")
		writeError(res, http.StatusTooManyRequests, msgRateLimited)
		return
	}

	outcome, err := h.service.Scan(ctx, data.URL)
	if err != nil {
		log.Error("Scan failed", zap.String("url", data.URL), zap.Error(err))
		writeError(res, http.StatusInternalServerError, err.Error())
		return
	}

	switch outcome.State() {
	case service.StateTerminal:
		v, _ := outcome.Verdict()
		cacheStatus := CacheMiss
		if outcome.Cached() {
			cacheStatus = CacheHit
		}
		res.Header().Set(CacheHeader, cacheStatus)
		writeJSON(res, http.StatusOK, models.ScanResponse{
			Positives:  v.Positives,
			Total:      v.Total,
			Details:    v.Details,
			Status:     v.Status,
			ScannedURL: v.ScannedURL,
			Cached:     outcome.Cached(),
		})
	case service.StatePending:
		res.Header().Set(CacheHeader, CacheMiss)
		writeJSON(res, http.StatusOK, models.ScanResponse{
			Positives: 0,
			Total:     0,
			Details:   []string{service.QueuedMessage},
			Status:    models.StatusQueued,
			Message:   service.QueuedMessage,
		})
	default:
		writeError(res, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
	}
}

func writeJSON(res http.ResponseWriter, status int, body interface{}) {
	res.Header().Set("Content-Type", "application/json")
	res.WriteHeader(status)
	if err := json.NewEncoder(res).Encode(body); err != nil {
		logger.Log.Info("Failed to write response", zap.Error(err))
	}
}

func writeError(res http.ResponseWriter, status int, message string) {
	writeJSON(res, status, models.ErrorResponse{Error: message})
}
