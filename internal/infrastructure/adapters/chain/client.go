// Package chain implements the outbound balance source used by the
// balance oracle adapter. The client talks to a JSON balance backend
// over HTTP; circuit breaking and rate limiting keep a degraded backend
// from stalling UI-driven reads.
package chain

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const defaultTimeout = 10 * time.Second

// Config represents chain client configuration
type Config struct {
	BaseURL            string
	SecondaryTokenHash string
	Timeout            time.Duration
	RequestsPerSecond  int
}

// Client fetches per-address token balances
type Client struct {
	config         Config
	httpClient     *http.Client
	circuitBreaker *gobreaker.CircuitBreaker
	rateLimiter    *rate.Limiter
	logger         *zap.Logger
}

// NewClient creates a new chain balance client
func NewClient(config Config, logger *zap.Logger) *Client {
	if config.Timeout == 0 {
		config.Timeout = defaultTimeout
	}
	if config.RequestsPerSecond == 0 {
		config.RequestsPerSecond = 5
	}

	cbSettings := gobreaker.Settings{
		Name:        "ChainBalanceAPI",
		MaxRequests: 5,
		Interval:    10 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Info("Chain client circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	}

	return &Client{
		config:         config,
		httpClient:     &http.Client{Timeout: config.Timeout},
		circuitBreaker: gobreaker.NewCircuitBreaker(cbSettings),
		rateLimiter:    rate.NewLimiter(rate.Limit(config.RequestsPerSecond), 1),
		logger:         logger,
	}
}

type balanceResponse struct {
	Address string `json:"address"`
	Balance string `json:"balance"`
}

// FetchNativeBalance returns the native token balance for an address
func (c *Client) FetchNativeBalance(ctx context.Context, address string) (decimal.Decimal, error) {
	endpoint := fmt.Sprintf("/v1/balances/native/%s", url.PathEscape(address))
	return c.fetchBalance(ctx, endpoint)
}

// FetchSecondaryBalance returns the secondary token balance for an address
func (c *Client) FetchSecondaryBalance(ctx context.Context, address string) (decimal.Decimal, error) {
	endpoint := fmt.Sprintf("/v1/balances/token/%s/%s",
		url.PathEscape(c.config.SecondaryTokenHash), url.PathEscape(address))
	return c.fetchBalance(ctx, endpoint)
}

func (c *Client) fetchBalance(ctx context.Context, endpoint string) (decimal.Decimal, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return decimal.Zero, classify(err)
	}

	result, err := c.circuitBreaker.Execute(func() (interface{}, error) {
		return c.doRequest(ctx, endpoint)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return decimal.Zero, fmt.Errorf("%w: circuit open", ErrUnreachable)
		}
		return decimal.Zero, err
	}
	return result.(decimal.Decimal), nil
}

func (c *Client) doRequest(ctx context.Context, endpoint string) (decimal.Decimal, error) {
	fullURL := c.config.BaseURL + endpoint

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return decimal.Zero, classify(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: read body: %v", ErrUnreachable, err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return decimal.Zero, ErrAddressNotFound
	case resp.StatusCode >= 500:
		return decimal.Zero, fmt.Errorf("%w: status %d", ErrUnreachable, resp.StatusCode)
	case resp.StatusCode >= 400:
		return decimal.Zero, fmt.Errorf("%w: status %d, body: %s", ErrUnreachable, resp.StatusCode, string(body))
	}

	var parsed balanceResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return decimal.Zero, fmt.Errorf("%w: unmarshal response: %v", ErrUnreachable, err)
	}

	balance, err := decimal.NewFromString(parsed.Balance)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: invalid balance %q", ErrUnreachable, parsed.Balance)
	}
	return balance, nil
}

// classify maps transport errors onto the balance source taxonomy
func classify(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return fmt.Errorf("%w: %v", ErrUnreachable, err)
}
