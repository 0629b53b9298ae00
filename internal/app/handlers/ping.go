package handlers

import (
	"net/http"

	"github.com/issafronov/urlscan/internal/middleware/logger"
	"go.uber.org/zap"
)

// Ping отвечает 200, если хранилище счётчиков и кеша доступно, иначе 503
func (h *Handler) Ping(res http.ResponseWriter, req *http.Request) {
	if err := h.service.Ping(req.Context()); err != nil {
		logger.FromContext(req.Context()).Warn("Store is unavailable", zap.Error(err))
		writeError(res, http.StatusServiceUnavailable, err.Error())
		return
	}
	res.WriteHeader(http.StatusOK)
}
