package tripletex

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// fakeTripletex is a minimal Tripletex API double counting the calls it receives
type fakeTripletex struct {
	t      *testing.T
	server *httptest.Server

	mu       sync.Mutex
	sessions int
	calls    map[string]int
	bodies   map[string][]string
	headers  []http.Header

	// sessionResponse answers session creations; defaults to a fresh token valid for two days
	sessionResponse func(w http.ResponseWriter, number int)
	// handler answers every other request; number counts calls per method and path
	handler func(w http.ResponseWriter, r *http.Request, number int)
}

func newFakeTripletex(t *testing.T) *fakeTripletex {
	fake := &fakeTripletex{
		t:      t,
		calls:  map[string]int{},
		bodies: map[string][]string{},
	}
	fake.server = httptest.NewServer(http.HandlerFunc(fake.serve))
	t.Cleanup(fake.server.Close)
	return fake
}

func (fake *fakeTripletex) serve(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	key := r.Method + " " + r.URL.Path

	fake.mu.Lock()
	if r.URL.Path == "/v2/token/session/:create" {
		fake.sessions++
		number := fake.sessions
		fake.bodies[key] = append(fake.bodies[key], string(body))
		fake.mu.Unlock()
		if fake.sessionResponse != nil {
			fake.sessionResponse(w, number)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"value": map[string]any{
			"token":          fmt.Sprintf("session-%d", number),
			"expirationDate": time.Now().Add(48 * time.Hour).UTC().Format("2006-01-02"),
		}})
		return
	}
	fake.calls[key]++
	number := fake.calls[key]
	fake.bodies[key] = append(fake.bodies[key], string(body))
	fake.headers = append(fake.headers, r.Header.Clone())
	fake.mu.Unlock()

	if fake.handler == nil {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	fake.handler(w, r, number)
}

func (fake *fakeTripletex) sessionCount() int {
	fake.mu.Lock()
	defer fake.mu.Unlock()
	return fake.sessions
}

func (fake *fakeTripletex) callCount(method, path string) int {
	fake.mu.Lock()
	defer fake.mu.Unlock()
	return fake.calls[method+" /v2"+path]
}

func (fake *fakeTripletex) requestBodies(method, path string) []string {
	fake.mu.Lock()
	defer fake.mu.Unlock()
	return append([]string(nil), fake.bodies[method+" /v2"+path]...)
}

func (fake *fakeTripletex) lastHeader() http.Header {
	fake.mu.Lock()
	defer fake.mu.Unlock()
	require.NotEmpty(fake.t, fake.headers)
	return fake.headers[len(fake.headers)-1]
}

// client creates a client against the fake whose sleeps are recorded instead of performed
func (fake *fakeTripletex) client(sleeps *[]time.Duration) *Client {
	client := NewClient(Options{
		BaseURL: fake.server.URL + "/v2",
		Credentials: Credentials{
			ConsumerToken: "consumer",
			EmployeeToken: "employee",
			CompanyID:     7,
		},
		Timeout: 5 * time.Second,
	})
	var mu sync.Mutex
	client.sleep = func(_ context.Context, duration time.Duration) error {
		mu.Lock()
		defer mu.Unlock()
		if sleeps != nil {
			*sleeps = append(*sleeps, duration)
		}
		return nil
	}
	return client
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("x-tlx-request-id", "req-123")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (fn roundTripperFunc) RoundTrip(request *http.Request) (*http.Response, error) {
	return fn(request)
}
