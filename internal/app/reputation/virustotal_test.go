package reputation

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const reportFixture = `{
  "data": {
    "id": "abc",
    "type": "url",
    "attributes": {
      "last_analysis_stats": {"malicious": 2, "harmless": 50, "suspicious": 1, "undetected": 17, "timeout": 0},
      "last_analysis_results": {
        "Fortinet": {"category": "malicious", "result": "phishing", "engine_name": "Fortinet"},
        "Kaspersky": {"category": "harmless", "result": "clean", "engine_name": "Kaspersky"},
        "Sophos": {"category": "suspicious", "result": "suspicious", "engine_name": "Sophos"},
        "ESET": {"category": "malicious", "result": "", "engine_name": "ESET-NOD32"}
      }
    }
  }
}`

func TestLookup_Found(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/v3/urls/abc", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-apikey"))
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, reportFixture)
	}))
	defer srv.Close()

	c := NewVirusTotalClient(srv.URL+"/api/v3", "test-key")
	report, err := c.Lookup(context.Background(), "abc")
	require.NoError(t, err)

	assert.Equal(t, Stats{Malicious: 2, Harmless: 50, Suspicious: 1, Undetected: 17}, report.Stats)
	assert.Equal(t, 70, report.Stats.Total())
	require.Len(t, report.Results, 4)
	// порядок движков совпадает с порядком в ответе
	assert.Equal(t, EngineResult{Engine: "Fortinet", Category: "malicious", Result: "phishing", EngineName: "Fortinet"}, report.Results[0])
	assert.Equal(t, "ESET", report.Results[3].Engine)
	assert.Equal(t, "ESET-NOD32", report.Results[3].EngineName)
}

func TestLookup_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		io.WriteString(w, `{"error":{"code":"NotFoundError"}}`)
	}))
	defer srv.Close()

	_, err := NewVirusTotalClient(srv.URL, "k").Lookup(context.Background(), "abc")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLookup_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		io.WriteString(w, "WrongCredentialsError")
	}))
	defer srv.Close()

	_, err := NewVirusTotalClient(srv.URL, "bad").Lookup(context.Background(), "abc")
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Equal(t, "VirusTotal API Error: 401 WrongCredentialsError", err.Error())
}

func TestLookup_Malformed(t *testing.T) {
	bodies := []string{
		`not json`,
		`{"data": {}}`,
		`{"data": {"attributes": {"last_analysis_results": {}}}}`,
	}
	for _, body := range bodies {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			io.WriteString(w, body)
		}))

		_, err := NewVirusTotalClient(srv.URL, "k").Lookup(context.Background(), "abc")
		assert.ErrorIs(t, err, ErrMalformedReport, body)
		srv.Close()
	}
}

func TestLookup_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	_, err := NewVirusTotalClient(srv.URL, "k").Lookup(context.Background(), "abc")
	assert.Error(t, err)
}

func TestSubmit(t *testing.T) {
	var gotURL, gotContentType, gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/urls", r.URL.Path)
		gotContentType = r.Header.Get("Content-Type")
		gotKey = r.Header.Get("x-apikey")
		body, _ := io.ReadAll(r.Body)
		values, err := url.ParseQuery(string(body))
		require.NoError(t, err)
		gotURL = values.Get("url")
		io.WriteString(w, `{"data":{"type":"analysis","id":"u-abc"}}`)
	}))
	defer srv.Close()

	err := NewVirusTotalClient(srv.URL, "k").Submit(context.Background(), "https://example.com/a b?x=1&y=2")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/a b?x=1&y=2", gotURL)
	assert.Contains(t, gotContentType, "application/x-www-form-urlencoded")
	assert.Equal(t, "k", gotKey)
}

func TestSubmit_Error(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		io.WriteString(w, "QuotaExceededError")
	}))
	defer srv.Close()

	err := NewVirusTotalClient(srv.URL, "k").Submit(context.Background(), "https://example.com/")
	require.Error(t, err)
	assert.Equal(t, "Failed to submit URL for scanning: QuotaExceededError", err.Error())
}
