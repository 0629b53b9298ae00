package logger

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/issafronov/urlscan/internal/app/contextkeys"
	"go.uber.org/zap"
)

// Log — глобальный логгер, инициализируемый через функцию Initialize
var Log *zap.Logger = zap.NewNop()

// RequestIDHeader — заголовок, в котором клиенту возвращается идентификатор запроса
const RequestIDHeader = "X-Request-ID"

// cacheHeader дублирует handlers.CacheHeader, чтобы не импортировать обработчики
const cacheHeader = "X-Cache"

// statusRecorder запоминает статус и размер ответа
type statusRecorder struct {
	http.ResponseWriter
	status int
	size   int
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	n, err := r.ResponseWriter.Write(b)
	r.size += n
	return n, err
}

func (r *statusRecorder) WriteHeader(statusCode int) {
	if r.status == 0 {
		r.status = statusCode
	}
	r.ResponseWriter.WriteHeader(statusCode)
}

// Initialize настраивает глобальный логгер Log в соответствии с уровнем логирования
func Initialize(level string) error {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return err
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = lvl
	zl, err := cfg.Build()
	if err != nil {
		return err
	}

	Log = zl
	return nil
}

// RequestID возвращает идентификатор текущего запроса из контекста
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(contextkeys.RequestIDKey).(string)
	return id
}

// FromContext возвращает Log с полем request_id, если оно есть в контексте
func FromContext(ctx context.Context) *zap.Logger {
	if id := RequestID(ctx); id != "" {
		return Log.With(zap.String("request_id", id))
	}
	return Log
}

// RequestLogger присваивает запросу идентификатор (заголовок X-Request-ID)
// и пишет в лог итог обработки. Ответы 5xx пишутся уровнем Error, остальные Debug
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		requestID := uuid.NewString()
		w.Header().Set(RequestIDHeader, requestID)
		ctx := context.WithValue(r.Context(), contextkeys.RequestIDKey, requestID)

		rec := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r.WithContext(ctx))

		if rec.status == 0 {
			rec.status = http.StatusOK
		}

		logFn := Log.Debug
		if rec.status >= http.StatusInternalServerError {
			logFn = Log.Error
		}
		logFn("HTTP request handled",
			zap.String("request_id", requestID),
			zap.String("uri", r.RequestURI),
			zap.String("method", r.Method),
			zap.Int("status", rec.status),
			zap.Duration("duration", time.Since(start)),
			zap.Int("size", rec.size),
			zap.String("cache", w.Header().Get(cacheHeader)),
		)
	})
}
