package razorpay

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(Config{KeyID: "rzp_test_key", KeySecret: "secret", BaseURL: server.URL + "/"})
	require.NoError(t, err)
	return client
}

func TestNewClient_InvalidConfig(t *testing.T) {
	_, err := NewClient(Config{KeyID: "id"})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestCreateOrder_Success(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/orders", r.URL.Path)

		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "rzp_test_key", user)
		assert.Equal(t, "secret", pass)

		var req CreateOrderRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, int64(125050), req.Amount)
		assert.Equal(t, "INR", req.Currency)
		assert.Equal(t, "LL-20240315-12345", req.Receipt)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(Order{ID: "order_abc", Amount: req.Amount, Currency: req.Currency, Receipt: req.Receipt, Status: "created"})
	})

	order, err := client.CreateOrder(context.Background(), CreateOrderRequest{
		Amount:   125050,
		Currency: "INR",
		Receipt:  "LL-20240315-12345",
	})
	require.NoError(t, err)
	assert.Equal(t, "order_abc", order.ID)
	assert.Equal(t, "created", order.Status)
}

func TestCreateOrder_ErrorMapping(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		wantErr error
	}{
		{name: "Bad request", status: http.StatusBadRequest, wantErr: ErrInvalidRequest},
		{name: "Unauthorized", status: http.StatusUnauthorized, wantErr: ErrUnauthorized},
		{name: "Server error", status: http.StatusInternalServerError, wantErr: ErrGatewayFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(`{"error":{"code":"BAD_REQUEST_ERROR","description":"nope"}}`))
			})

			_, err := client.CreateOrder(context.Background(), CreateOrderRequest{Amount: 100, Currency: "INR", Receipt: "r"})
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestCreateOrder_RejectsNonPositiveAmount(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("gateway must not be called")
	})
	_, err := client.CreateOrder(context.Background(), CreateOrderRequest{Amount: 0, Currency: "INR"})
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestVerifySignature(t *testing.T) {
	valid := Signature("secret", "order_abc", "pay_xyz")
	assert.Len(t, valid, 64)

	assert.NoError(t, VerifySignature("secret", "order_abc", "pay_xyz", valid))
	assert.ErrorIs(t, VerifySignature("secret", "order_abc", "pay_other", valid), ErrSignatureMismatch)
	assert.ErrorIs(t, VerifySignature("other", "order_abc", "pay_xyz", valid), ErrSignatureMismatch)
	assert.ErrorIs(t, VerifySignature("secret", "order_abc", "pay_xyz", ""), ErrSignatureMismatch)
}
