package contextkeys

type contextKey string

const (
	// ClientIDKey используется для хранения идентификатора клиента (IP или "unknown") в контексте запроса.
	ClientIDKey contextKey = "ClientID"
	// RequestIDKey используется для хранения идентификатора запроса в контексте.
	RequestIDKey contextKey = "RequestID"
)

// UnknownClient — идентификатор клиента, когда определить его не удалось
const UnknownClient = "unknown"
