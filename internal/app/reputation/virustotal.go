package reputation

import (
	"context"
	"net/http"

	"github.com/go-resty/resty/v2"
	"github.com/issafronov/urlscan/internal/middleware/logger"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

const apiKeyHeader = "x-apikey"

// VirusTotalClient обращается к API через resty
type VirusTotalClient struct {
	http *resty.Client
}

// NewVirusTotalClient создаёт клиент для baseURL (например, https://www.virustotal.com/api/v3)
func NewVirusTotalClient(baseURL, apiKey string) *VirusTotalClient {
	client := resty.New().
		SetBaseURL(baseURL).
		SetHeader(apiKeyHeader, apiKey).
		SetHeader("Accept", "application/json").
		SetLogger(logger.Log.Sugar())

	return &VirusTotalClient{http: client}
}

// Lookup запрашивает GET /urls/{id}
func (c *VirusTotalClient) Lookup(ctx context.Context, id string) (*Report, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("id", id).
		Get("/urls/{id}")
	if err != nil {
		return nil, err
	}

	if resp.StatusCode() == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if !resp.IsSuccess() {
		logger.Log.Info("Reputation lookup failed",
			zap.String("id", id),
			zap.Int("status", resp.StatusCode()),
		)
		return nil, &APIError{Op: OpLookup, StatusCode: resp.StatusCode(), Body: resp.String()}
	}

	return parseReport(resp.Body())
}

// Submit отправляет POST /urls с полем url в form-urlencoded теле
func (c *VirusTotalClient) Submit(ctx context.Context, rawURL string) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetFormData(map[string]string{"url": rawURL}).
		Post("/urls")
	if err != nil {
		return err
	}

	if !resp.IsSuccess() {
		logger.Log.Info("Reputation submit failed",
			zap.String("url", rawURL),
			zap.Int("status", resp.StatusCode()),
		)
		return &APIError{Op: OpSubmit, StatusCode: resp.StatusCode(), Body: resp.String()}
	}
	return nil
}

func parseReport(body []byte) (*Report, error) {
	if !gjson.ValidBytes(body) {
		return nil, ErrMalformedReport
	}

	attrs := gjson.GetBytes(body, "data.attributes")
	stats := attrs.Get("last_analysis_stats")
	if !attrs.Exists() || !stats.IsObject() {
		return nil, ErrMalformedReport
	}

	report := &Report{
		Stats: Stats{
			Malicious:  int(stats.Get(CategoryMalicious).Int()),
			Harmless:   int(stats.Get(CategoryHarmless).Int()),
			Suspicious: int(stats.Get(CategorySuspicious).Int()),
			Undetected: int(stats.Get(CategoryUndetected).Int()),
		},
	}

	attrs.Get("last_analysis_results").ForEach(func(engine, result gjson.Result) bool {
		report.Results = append(report.Results, EngineResult{
			Engine:     engine.String(),
			Category:   result.Get("category").String(),
			Result:     result.Get("result").String(),
			EngineName: result.Get("engine_name").String(),
		})
		return true
	})

	return report, nil
}
