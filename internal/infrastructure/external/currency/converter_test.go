package currency

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"go.uber.org/zap"
)

func newRateServer(calls *int64) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(calls, 1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"base":"EUR","rates":{"USD":1.1,"GBP":0.85}}`))
	}))
}

func TestConvert(t *testing.T) {
	var calls int64
	server := newRateServer(&calls)
	defer server.Close()

	conv := NewConverterWithURL(server.URL, zap.NewNop())

	got, err := conv.Convert(context.Background(), 100, "EUR", "USD")
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}
	if got != 110 {
		t.Errorf("Convert() = %v, want 110", got)
	}
}

func TestConvert_SameCurrencySkipsNetwork(t *testing.T) {
	var calls int64
	server := newRateServer(&calls)
	defer server.Close()

	conv := NewConverterWithURL(server.URL, zap.NewNop())

	got, err := conv.Convert(context.Background(), 42, "usd", "USD")
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}
	if got != 42 {
		t.Errorf("Convert() = %v, want 42", got)
	}
	if calls != 0 {
		t.Errorf("expected no API calls, got %d", calls)
	}
}

func TestConvert_CachesRates(t *testing.T) {
	var calls int64
	server := newRateServer(&calls)
	defer server.Close()

	conv := NewConverterWithURL(server.URL, zap.NewNop())

	for i := 0; i < 3; i++ {
		if _, err := conv.Convert(context.Background(), 10, "EUR", "GBP"); err != nil {
			t.Fatalf("Convert() error = %v", err)
		}
	}
	if calls != 1 {
		t.Errorf("expected 1 API call with caching, got %d", calls)
	}
}

func TestConvert_UnknownCurrency(t *testing.T) {
	var calls int64
	server := newRateServer(&calls)
	defer server.Close()

	conv := NewConverterWithURL(server.URL, zap.NewNop())

	if _, err := conv.Convert(context.Background(), 10, "EUR", "XXX"); err == nil {
		t.Error("expected error for unknown target currency")
	}
}

func TestConvert_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	conv := NewConverterWithURL(server.URL, zap.NewNop())

	if _, err := conv.Convert(context.Background(), 10, "EUR", "USD"); err == nil {
		t.Error("expected error for upstream failure")
	}
}
