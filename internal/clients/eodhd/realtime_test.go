package eodhd

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestGetRealTimeQuote_ParsesResponse(t *testing.T) {
	ts := int64(1711670340) // 2024-03-28 23:59:00 UTC
	mockResp := map[string]interface{}{
		"code":          "AAPL.US",
		"timestamp":     ts,
		"open":          171.10,
		"high":          172.50,
		"low":           170.80,
		"close":         171.48,
		"volume":        float64(5000000),
		"previousClose": 170.00,
		"change":        1.48,
		"change_p":      0.8706,
	}

	var capturedPath, capturedToken string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturedPath = r.URL.Path
		capturedToken = r.URL.Query().Get("api_token")
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(mockResp)
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	quote, err := client.GetRealTimeQuote(context.Background(), "AAPL.US")
	if err != nil {
		t.Fatalf("GetRealTimeQuote failed: %v", err)
	}

	if capturedPath != "/real-time/AAPL.US" {
		t.Errorf("expected path /real-time/AAPL.US, got %s", capturedPath)
	}
	if capturedToken != "test-key" {
		t.Errorf("expected api_token test-key, got %s", capturedToken)
	}
	if quote.Code != "AAPL.US" {
		t.Errorf("expected code AAPL.US, got %s", quote.Code)
	}
	if quote.Close != 171.48 {
		t.Errorf("expected close 171.48, got %.2f", quote.Close)
	}
	if quote.PreviousClose != 170.00 {
		t.Errorf("expected previous close 170.00, got %.2f", quote.PreviousClose)
	}
	if quote.ChangePct != 0.8706 {
		t.Errorf("expected change_p 0.8706, got %.4f", quote.ChangePct)
	}
	if quote.Volume != 5000000 {
		t.Errorf("expected volume 5000000, got %d", quote.Volume)
	}
	expectedTime := time.Unix(ts, 0)
	if !quote.Timestamp.Equal(expectedTime) {
		t.Errorf("expected timestamp %v, got %v", expectedTime, quote.Timestamp)
	}
}

func TestGetRealTimeQuote_ForexTicker(t *testing.T) {
	mockResp := map[string]interface{}{
		"code":      "USDKRW.FOREX",
		"timestamp": int64(1711670000),
		"close":     1352.4,
	}

	var capturedPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturedPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(mockResp)
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	quote, err := client.GetRealTimeQuote(context.Background(), "USDKRW.FOREX")
	if err != nil {
		t.Fatalf("GetRealTimeQuote failed: %v", err)
	}

	if capturedPath != "/real-time/USDKRW.FOREX" {
		t.Errorf("expected path /real-time/USDKRW.FOREX, got %s", capturedPath)
	}
	if quote.Close != 1352.4 {
		t.Errorf("expected close 1352.4, got %.2f", quote.Close)
	}
}

func TestGetRealTimeQuote_NotAvailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"code":"XYZ.US","timestamp":"NA","open":"NA","high":"NA","low":"NA","close":"NA","volume":"NA","previousClose":"NA","change":"NA","change_p":"NA"}`))
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	quote, err := client.GetRealTimeQuote(context.Background(), "XYZ.US")
	if err != nil {
		t.Fatalf("GetRealTimeQuote failed: %v", err)
	}
	if quote.Close != 0 {
		t.Errorf("expected close 0 for NA, got %.2f", quote.Close)
	}
	if !quote.Timestamp.IsZero() {
		t.Errorf("expected zero timestamp for NA, got %v", quote.Timestamp)
	}
}

func TestGetRealTimeQuote_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte("ticker not found"))
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	_, err := client.GetRealTimeQuote(context.Background(), "INVALID.XX")
	if err == nil {
		t.Fatal("expected error for invalid ticker")
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %T", err)
	}
	if apiErr.StatusCode != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", apiErr.StatusCode)
	}
}

func TestGetRealTimeQuote_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(2 * time.Second)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL), WithTimeout(100*time.Millisecond))
	_, err := client.GetRealTimeQuote(context.Background(), "AAPL.US")
	if err == nil {
		t.Fatal("expected timeout error")
	}
}

func TestGetRealTimeQuote_CancelledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"close":1}`))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	if _, err := client.GetRealTimeQuote(ctx, "AAPL.US"); err == nil {
		t.Fatal("expected error on cancelled context")
	}
}

func TestFlexFloat64(t *testing.T) {
	cases := map[string]float64{
		`12.5`:   12.5,
		`"12.5"`: 12.5,
		`"NA"`:   0,
		`""`:     0,
		`"junk"`: 0,
	}
	for in, want := range cases {
		var f flexFloat64
		if err := json.Unmarshal([]byte(in), &f); err != nil {
			t.Fatalf("unmarshal %s: %v", in, err)
		}
		if float64(f) != want {
			t.Errorf("%s: expected %v, got %v", in, want, float64(f))
		}
	}
}
