package chain

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestClient(baseURL string) *Client {
	return NewClient(Config{
		BaseURL:            baseURL,
		SecondaryTokenHash: "0xtokenhash",
		RequestsPerSecond:  1000,
	}, zap.NewNop())
}

func TestFetchNativeBalance(t *testing.T) {
	t.Run("parses the balance on success", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/v1/balances/native/NAddr123", r.URL.Path)
			json.NewEncoder(w).Encode(balanceResponse{Address: "NAddr123", Balance: "2.5"})
		}))
		defer server.Close()

		client := newTestClient(server.URL)
		balance, err := client.FetchNativeBalance(context.Background(), "NAddr123")

		require.NoError(t, err)
		assert.True(t, balance.Equal(decimal.RequireFromString("2.5")))
	})

	t.Run("maps 404 to address not found", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer server.Close()

		client := newTestClient(server.URL)
		_, err := client.FetchNativeBalance(context.Background(), "NAddr123")

		assert.ErrorIs(t, err, ErrAddressNotFound)
	})

	t.Run("maps server errors to unreachable", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		client := newTestClient(server.URL)
		_, err := client.FetchNativeBalance(context.Background(), "NAddr123")

		assert.ErrorIs(t, err, ErrUnreachable)
	})

	t.Run("maps a malformed balance to unreachable", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(balanceResponse{Address: "NAddr123", Balance: "not a number"})
		}))
		defer server.Close()

		client := newTestClient(server.URL)
		_, err := client.FetchNativeBalance(context.Background(), "NAddr123")

		assert.ErrorIs(t, err, ErrUnreachable)
	})

	t.Run("maps a timeout to the timeout error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(200 * time.Millisecond)
		}))
		defer server.Close()

		client := NewClient(Config{
			BaseURL:           server.URL,
			Timeout:           50 * time.Millisecond,
			RequestsPerSecond: 1000,
		}, zap.NewNop())

		_, err := client.FetchNativeBalance(context.Background(), "NAddr123")
		assert.ErrorIs(t, err, ErrTimeout)
	})
}

func TestFetchSecondaryBalance(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/balances/token/0xtokenhash/NAddr123", r.URL.Path)
		json.NewEncoder(w).Encode(balanceResponse{Address: "NAddr123", Balance: "140"})
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	balance, err := client.FetchSecondaryBalance(context.Background(), "NAddr123")

	require.NoError(t, err)
	assert.True(t, balance.Equal(decimal.RequireFromString("140")))
}

func TestCircuitBreakerOpens(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		_, err := client.FetchNativeBalance(ctx, "NAddr123")
		require.Error(t, err)
	}

	// After enough consecutive failures the breaker short-circuits
	_, err := client.FetchNativeBalance(ctx, "NAddr123")
	assert.ErrorIs(t, err, ErrUnreachable)
}
