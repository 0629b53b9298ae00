package clientip

import (
	"context"
	"net"
	"net/http"
	"strings"

	"github.com/issafronov/urlscan/internal/app/contextkeys"
)

// Resolve определяет идентификатор клиента по метаданным соединения.
//
// Без trustedNet используется IP из заголовка header. Если trustedNet задан,
// заголовок учитывается только для соединений из этой подсети, иначе
// идентификатором становится адрес соединения. Если ничего определить не
// удалось, возвращается contextkeys.UnknownClient.
func Resolve(r *http.Request, header string, trustedNet *net.IPNet) string {
	if trustedNet == nil {
		if ip := headerIP(r, header); ip != nil {
			return ip.String()
		}
		return contextkeys.UnknownClient
	}

	peer := peerIP(r)
	if peer != nil && trustedNet.Contains(peer) {
		if ip := headerIP(r, header); ip != nil {
			return ip.String()
		}
	}
	if peer != nil {
		return peer.String()
	}
	return contextkeys.UnknownClient
}

// Middleware кладёт идентификатор клиента в контекст запроса
func Middleware(header string, trustedNet *net.IPNet) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := Resolve(r, header, trustedNet)
			ctx := context.WithValue(r.Context(), contextkeys.ClientIDKey, id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// FromContext возвращает идентификатор клиента из контекста
func FromContext(ctx context.Context) string {
	id, ok := ctx.Value(contextkeys.ClientIDKey).(string)
	if !ok || id == "" {
		return contextkeys.UnknownClient
	}
	return id
}

func headerIP(r *http.Request, header string) net.IP {
	if header == "" {
		return nil
	}
	value := r.Header.Get(header)
	// X-Forwarded-For: client, proxy1, proxy2
	if i := strings.IndexByte(value, ','); i >= 0 {
		value = value[:i]
	}
	return net.ParseIP(strings.TrimSpace(value))
}

func peerIP(r *http.Request) net.IP {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return net.ParseIP(host)
}
