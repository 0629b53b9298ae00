package testutils

import (
	"context"
	"net/http"

	"github.com/issafronov/urlscan/internal/app/contextkeys"
)

// WithTestClientContext подставляет идентификатор клиента в контекст запроса
func WithTestClientContext(r *http.Request, clientID string) *http.Request {
	ctx := context.WithValue(r.Context(), contextkeys.ClientIDKey, clientID)
	return r.WithContext(ctx)
}
