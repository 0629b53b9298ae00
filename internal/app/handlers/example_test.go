package handlers_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/issafronov/urlscan/internal/app/config"
	"github.com/issafronov/urlscan/internal/app/handlers"
	"github.com/issafronov/urlscan/internal/app/reputation"
	"github.com/issafronov/urlscan/internal/app/service"
	"github.com/issafronov/urlscan/internal/app/storage"
)

// Example of checking a URL the reputation service already knows.
func ExampleHandler_ScanHandle() {
	client := &mockClient{
		LookupFunc: func(ctx context.Context, id string) (*reputation.Report, error) {
			return &reputation.Report{
				Stats: reputation.Stats{Malicious: 1, Harmless: 69},
				Results: []reputation.EngineResult{
					{Engine: "Fortinet", Category: "malicious", Result: "phishing"},
				},
			}, nil
		},
	}
	svc := service.NewService(storage.NewMemoryStorage(), client)
	h, _ := handlers.NewHandler(&config.Config{APIKey: "key"}, svc)

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"url":"https://example.com"}`))
		w := httptest.NewRecorder()
		h.ScanHandle(w, req)

		resp := w.Result()
		fmt.Println("Status:", resp.StatusCode, resp.Header.Get("X-Cache"))
		resp.Body.Close()
	}

	// Output:
	// Status: 200 MISS
	// Status: 200 HIT
}

// Example of checking a URL the reputation service has not seen yet.
func ExampleHandler_ScanHandle_queued() {
	svc := service.NewService(storage.NewMemoryStorage(), &mockClient{})
	h, _ := handlers.NewHandler(&config.Config{APIKey: "key"}, svc)

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"url":"https://new.example"}`))
	w := httptest.NewRecorder()
	h.ScanHandle(w, req)

	resp := w.Result()
	defer resp.Body.Close()

	fmt.Println("Status:", resp.StatusCode)
	fmt.Print(w.Body.String())

	// Output:
	// Status: 200
	// {"positives":0,"total":0,"details":["Scan started. Please try again in a few seconds."],"status":"queued","message":"Scan started. Please try again in a few seconds."}
}
