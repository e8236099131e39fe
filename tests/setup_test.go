//nolint:errcheck // unchecked errors are acceptable in test files
package tests

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/atlasmarket/payments/internal/config"
	"github.com/atlasmarket/payments/internal/db"
	"github.com/atlasmarket/payments/internal/handlers"
	"github.com/atlasmarket/payments/internal/middleware"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

const testJWTSecret = "integration-test-secret"
const testStripeWebhookSecret = "whsec_integration"

// TestServer wraps the HTTP test server, the database, and a fake Stripe
// backend for integration tests.
type TestServer struct {
	Server   *httptest.Server
	Database *db.DB
	// Redis is nil when no server is reachable; caching is then disabled
	// and cache-dependent tests skip themselves.
	Redis *redis.Client
	t     *testing.T

	// intentCount tracks payment intents created against the fake Stripe
	// backend, which also seeds each intent id.
	intentCount atomic.Int64
}

// SetupTest creates a new test server with a clean database state. Tests
// are skipped when no database is reachable.
func SetupTest(t *testing.T) *TestServer {
	t.Helper()

	t.Setenv("JWT_SECRET", testJWTSecret)
	cfg, err := config.Load()
	require.NoError(t, err, "failed to load config")

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	database, err := db.Connect(ctx, &cfg.Database, logger)
	if err != nil {
		t.Skipf("test database unavailable: %v", err)
	}

	resetTestData(t, database)

	ts := &TestServer{Database: database, t: t}

	stripeBackend := httptest.NewServer(http.HandlerFunc(ts.fakeStripe))
	t.Cleanup(stripeBackend.Close)

	cfg.Stripe.SecretKey = "sk_test_integration"
	cfg.Stripe.WebhookSecret = testStripeWebhookSecret
	cfg.Stripe.BaseURL = stripeBackend.URL

	ts.Redis = connectTestRedis(t)

	router := handlers.NewRouter(database, ts.Redis, cfg, logger)
	ts.Server = httptest.NewServer(router)

	return ts
}

// connectTestRedis returns a client for the test Redis instance, or nil when
// none is reachable.
func connectTestRedis(t *testing.T) *redis.Client {
	t.Helper()

	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	client := redis.NewClient(&redis.Options{Addr: addr})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil
	}

	t.Cleanup(func() { _ = client.Close() })
	return client
}

// Close shuts down the test server and database connection.
func (ts *TestServer) Close() {
	ts.Server.Close()
	_ = ts.Database.Close()
}

// URL returns the full URL for a given path.
func (ts *TestServer) URL(path string) string {
	return ts.Server.URL + path
}

// fakeStripe answers payment-intent creation with sequential intent ids.
func (ts *TestServer) fakeStripe(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/v1/payment_intents" || r.Method != http.MethodPost {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	n := ts.intentCount.Add(1)
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprintf(w, `{"id":"pi_itest_%d","client_secret":"pi_itest_%d_secret"}`, n, n)
}

func resetTestData(t *testing.T, database *db.DB) {
	t.Helper()

	schema, err := os.ReadFile("../internal/db/migrations/000001_init.up.sql")
	require.NoError(t, err, "failed to read schema")
	_, err = database.ExecContext(context.Background(), string(schema))
	require.NoError(t, err, "failed to apply schema")

	_, err = database.ExecContext(context.Background(), `
		TRUNCATE TABLE transactions CASCADE;
		TRUNCATE TABLE gateway_events CASCADE;
		TRUNCATE TABLE idempotency_keys CASCADE;
	`)
	require.NoError(t, err, "failed to reset test data")
}

// MintToken signs a short-lived token for the given actor.
func MintToken(t *testing.T, actorID uuid.UUID, role string) string {
	t.Helper()

	claims := middleware.Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   actorID.String(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testJWTSecret))
	require.NoError(t, err)
	return token
}

// InitiatePayment sends an authenticated POST to create a payment.
func (ts *TestServer) InitiatePayment(t *testing.T, token string, body map[string]any, idempotencyKey string) *http.Response {
	t.Helper()

	jsonBody, _ := json.Marshal(body)

	req, err := http.NewRequest(http.MethodPost, ts.URL("/api/v1/payments"), bytes.NewReader(jsonBody))
	require.NoError(t, err)

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	if idempotencyKey != "" {
		req.Header.Set("Idempotency-Key", idempotencyKey)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)

	return resp
}

// DeliverStripeWebhook signs a payload the way Stripe does and posts it.
func (ts *TestServer) DeliverStripeWebhook(t *testing.T, eventType, intentID string) *http.Response {
	t.Helper()

	payload := []byte(fmt.Sprintf(`{"type":%q,"data":{"object":{"id":%q}}}`, eventType, intentID))

	timestamp := time.Now().Unix()
	mac := hmac.New(sha256.New, []byte(testStripeWebhookSecret))
	fmt.Fprintf(mac, "%d.", timestamp)
	mac.Write(payload)
	signature := fmt.Sprintf("t=%d,v1=%s", timestamp, hex.EncodeToString(mac.Sum(nil)))

	req, err := http.NewRequest(http.MethodPost, ts.URL("/api/v1/webhooks/stripe"), bytes.NewReader(payload))
	require.NoError(t, err)

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Stripe-Signature", signature)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)

	return resp
}

// GetTransaction fetches one transaction as the given actor.
func (ts *TestServer) GetTransaction(t *testing.T, token, id string) *http.Response {
	t.Helper()

	req, err := http.NewRequest(http.MethodGet, ts.URL("/api/v1/transactions/"+id), nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)

	return resp
}

// ListTransactions fetches the actor's transactions.
func (ts *TestServer) ListTransactions(t *testing.T, token string) *http.Response {
	t.Helper()

	req, err := http.NewRequest(http.MethodGet, ts.URL("/api/v1/transactions"), nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)

	return resp
}

// Refund posts the administrative refund override.
func (ts *TestServer) Refund(t *testing.T, token, id string) *http.Response {
	t.Helper()

	req, err := http.NewRequest(http.MethodPost, ts.URL("/api/v1/transactions/"+id+"/refund"), nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)

	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	resp.Body.Close()
	return body
}
