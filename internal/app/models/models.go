package models

// ScanRequest представляет входную структуру запроса на проверку URL
type ScanRequest struct {
	URL string `json:"url"`
}

// Verdict — нормализованный итог проверки URL, который кешируется и отдаётся клиенту
type Verdict struct {
	Positives  int      `json:"positives"`
	Total      int      `json:"total"`
	Details    []string `json:"details"`
	Status     string   `json:"status,omitempty"`
	ScannedURL string   `json:"scannedUrl,omitempty"`
}

// ScanResponse — ответ на запрос проверки.
// Для результата из кеша выставляется Cached, для поставленного в очередь URL — Status "queued" и Message
type ScanResponse struct {
	Positives  int      `json:"positives"`
	Total      int      `json:"total"`
	Details    []string `json:"details"`
	Status     string   `json:"status,omitempty"`
	ScannedURL string   `json:"scannedUrl,omitempty"`
	Message    string   `json:"message,omitempty"`
	Cached     bool     `json:"cached,omitempty"`
}

// ErrorResponse — тело ответа с ошибкой
type ErrorResponse struct {
	Error string `json:"error"`
}

// Значения поля Status
const (
	StatusMalicious = "malicious"
	StatusSafe      = "safe"
	StatusQueued    = "queued"
)
