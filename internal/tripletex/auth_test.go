package tripletex

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidTokenReusesFreshToken(t *testing.T) {
	fake := newFakeTripletex(t)
	client := fake.client(nil)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	client.auth.now = func() time.Time { return now }

	require.NoError(t, client.auth.cache.Set(context.Background(), SessionToken{
		Token:     "cached",
		ExpiresAt: now.Add(time.Hour),
	}))

	token, err := client.Auth().ValidToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "cached", token)
	assert.Equal(t, 0, fake.sessionCount())
}

func TestValidTokenRefreshesTokenInsideBuffer(t *testing.T) {
	fake := newFakeTripletex(t)
	client := fake.client(nil)
	now := time.Now()
	client.auth.now = func() time.Time { return now }

	require.NoError(t, client.auth.cache.Set(context.Background(), SessionToken{
		Token:     "stale",
		ExpiresAt: now.Add(5 * time.Minute),
	}))

	token, err := client.Auth().ValidToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "session-1", token)
	assert.Equal(t, 1, fake.sessionCount())

	cached, err := client.auth.cache.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "session-1", cached.Token)

	var body map[string]string
	bodies := fake.requestBodies(http.MethodPost, "/token/session/:create")
	require.Len(t, bodies, 1)
	require.NoError(t, json.Unmarshal([]byte(bodies[0]), &body))
	assert.Equal(t, "consumer", body["consumerToken"])
	assert.Equal(t, "employee", body["employeeToken"])
	assert.Equal(t, now.Add(48*time.Hour).Format("2006-01-02"), body["expirationDate"])
}

func TestSessionExpiryPolicy(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name       string
		expiration any
		want       time.Time
	}{
		{name: "bare date", expiration: "2026-03-03", want: time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC)},
		{name: "timestamp", expiration: "2026-03-02T08:30:00Z", want: time.Date(2026, 3, 2, 8, 30, 0, 0, time.UTC)},
		{name: "local timestamp", expiration: "2026-03-02T08:30:00", want: time.Date(2026, 3, 2, 8, 30, 0, 0, time.UTC)},
		{name: "missing", expiration: nil, want: now.Add(55 * time.Minute)},
		{name: "unparseable", expiration: "soon", want: now.Add(55 * time.Minute)},
		{name: "today", expiration: "2026-03-01", want: now.Add(55 * time.Minute)},
		{name: "inside buffer", expiration: "2026-03-01T12:05:00Z", want: now.Add(55 * time.Minute)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := newFakeTripletex(t)
			fake.sessionResponse = func(w http.ResponseWriter, _ int) {
				writeJSON(w, http.StatusOK, map[string]any{"value": map[string]any{
					"token":          "abc",
					"expirationDate": tt.expiration,
				}})
			}
			client := fake.client(nil)
			client.auth.now = func() time.Time { return now }

			_, err := client.Auth().ValidToken(context.Background())
			require.NoError(t, err)
			cached, err := client.auth.cache.Get(context.Background())
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(cached.ExpiresAt), "got %s", cached.ExpiresAt)
		})
	}
}

func TestSessionMissingToken(t *testing.T) {
	fake := newFakeTripletex(t)
	fake.sessionResponse = func(w http.ResponseWriter, _ int) {
		writeJSON(w, http.StatusOK, map[string]any{"value": map[string]any{"expirationDate": "2030-01-01"}})
	}
	client := fake.client(nil)

	_, err := client.Auth().ValidToken(context.Background())
	assert.True(t, IsCode(err, CodeSessionMissing))
}

func TestSessionHTTPError(t *testing.T) {
	fake := newFakeTripletex(t)
	fake.sessionResponse = func(w http.ResponseWriter, _ int) {
		writeJSON(w, http.StatusForbidden, map[string]any{"message": "invalid employee token"})
	}
	client := fake.client(nil)

	_, err := client.Request(context.Background(), http.MethodGet, "/customer/1", nil)
	ttxErr, ok := AsError(err)
	require.True(t, ok)
	assert.Equal(t, CodeSessionHTTP, ttxErr.Code)
	assert.Equal(t, http.StatusForbidden, ttxErr.HTTPStatus)
	assert.Equal(t, "req-123", ttxErr.RequestID)
	assert.NotNil(t, ttxErr.Details["body"])
	assert.Equal(t, 0, fake.callCount(http.MethodGet, "/customer/1"))
}

func TestSessionTransportError(t *testing.T) {
	client := NewClient(Options{
		BaseURL:     "http://tripletex.invalid/v2",
		Credentials: Credentials{ConsumerToken: "c", EmployeeToken: "e"},
		HTTPClient: &http.Client{Transport: roundTripperFunc(func(*http.Request) (*http.Response, error) {
			return nil, assert.AnError
		})},
	})
	client.sleep = func(context.Context, time.Duration) error { return nil }

	_, err := client.Auth().ValidToken(context.Background())
	ttxErr, ok := AsError(err)
	require.True(t, ok)
	assert.Equal(t, CodeSessionTransport, ttxErr.Code)
	assert.Equal(t, CodeTransport, ttxErr.Details["cause"])
}

func TestCredentialsValidate(t *testing.T) {
	assert.NoError(t, Credentials{ConsumerToken: "c", EmployeeToken: "e"}.Validate())
	assert.True(t, IsCode(Credentials{ConsumerToken: "c"}.Validate(), CodeTokensMissing))
	assert.True(t, IsCode(Credentials{EmployeeToken: " "}.Validate(), CodeTokensMissing))
}
