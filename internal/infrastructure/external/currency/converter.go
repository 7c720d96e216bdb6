// Package currency converts amounts between currencies using an
// external exchange-rate API, with a short-lived in-memory rate cache.
package currency

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/expenseflow/expenseflow/internal/application/port"
)

const defaultBaseURL = "https://api.exchangerate-api.com/v4/latest"

// cacheTTL bounds how stale a rate table may get before refetching
const cacheTTL = 10 * time.Minute

type rateTable struct {
	rates     map[string]float64
	fetchedAt time.Time
}

// Converter implements port.CurrencyConverter against a rate API
type Converter struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger

	mu    sync.Mutex
	cache map[string]rateTable // keyed by base currency
}

// NewConverter creates a converter talking to the default rate API
func NewConverter(logger *zap.Logger) *Converter {
	return NewConverterWithURL(defaultBaseURL, logger)
}

// NewConverterWithURL creates a converter against a custom endpoint
func NewConverterWithURL(baseURL string, logger *zap.Logger) *Converter {
	return &Converter{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 10 * time.Second},
		logger:  logger,
		cache:   make(map[string]rateTable),
	}
}

// Convert converts amount from one currency into another. Identical
// currencies pass through without touching the network.
func (c *Converter) Convert(ctx context.Context, amount float64, from, to string) (float64, error) {
	from = strings.ToUpper(strings.TrimSpace(from))
	to = strings.ToUpper(strings.TrimSpace(to))
	if from == "" || to == "" {
		return 0, fmt.Errorf("currency codes are required")
	}
	if from == to {
		return amount, nil
	}

	rates, err := c.ratesFor(ctx, from)
	if err != nil {
		return 0, err
	}

	rate, ok := rates[to]
	if !ok {
		return 0, fmt.Errorf("no rate from %s to %s", from, to)
	}
	return amount * rate, nil
}

func (c *Converter) ratesFor(ctx context.Context, base string) (map[string]float64, error) {
	c.mu.Lock()
	if table, ok := c.cache[base]; ok && time.Since(table.fetchedAt) < cacheTTL {
		c.mu.Unlock()
		return table.rates, nil
	}
	c.mu.Unlock()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/"+base, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build rate request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Error("Rate API request failed", zap.String("base", base), zap.Error(err))
		return nil, fmt.Errorf("rate lookup failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("rate API returned status %d", resp.StatusCode)
	}

	var payload struct {
		Rates map[string]float64 `json:"rates"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode rate response: %w", err)
	}
	if len(payload.Rates) == 0 {
		return nil, fmt.Errorf("rate API returned no rates for %s", base)
	}

	c.mu.Lock()
	c.cache[base] = rateTable{rates: payload.Rates, fetchedAt: time.Now()}
	c.mu.Unlock()

	c.logger.Info("Fetched exchange rates", zap.String("base", base), zap.Int("count", len(payload.Rates)))
	return payload.Rates, nil
}

var _ port.CurrencyConverter = (*Converter)(nil)
