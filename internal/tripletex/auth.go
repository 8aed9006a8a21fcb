package tripletex

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	sessionCreatePath      = "/token/session/:create"
	defaultSessionLifetime = 48 * time.Hour
	fallbackSessionExpiry  = 55 * time.Minute
)

// Credentials holds the static Tripletex API credentials
type Credentials struct {
	ConsumerToken string
	EmployeeToken string
	CompanyID     int
}

// Validate checks that both tokens are present
func (creds Credentials) Validate() error {
	if strings.TrimSpace(creds.ConsumerToken) == "" || strings.TrimSpace(creds.EmployeeToken) == "" {
		return newError(CodeTokensMissing, "consumer and employee tokens are required")
	}
	return nil
}

// Requester performs a single logical Tripletex request
type Requester interface {
	Request(ctx context.Context, method, path string, opts *RequestOptions) (*Response, error)
}

// AuthManager guarantees a usable session token, creating a new session when needed
type AuthManager struct {
	creds     Credentials
	cache     TokenCache
	requester Requester
	lifetime  time.Duration
	now       func() time.Time
}

// NewAuthManager creates a new auth manager.
// A lifetime of zero uses the default session lifetime of 48 hours.
func NewAuthManager(creds Credentials, cache TokenCache, requester Requester, lifetime time.Duration) *AuthManager {
	if lifetime <= 0 {
		lifetime = defaultSessionLifetime
	}
	return &AuthManager{
		creds:     creds,
		cache:     cache,
		requester: requester,
		lifetime:  lifetime,
		now:       time.Now,
	}
}

// ValidToken returns a session token that stays valid for at least SessionBuffer
func (manager *AuthManager) ValidToken(ctx context.Context) (string, error) {
	if err := manager.creds.Validate(); err != nil {
		return "", err
	}

	now := manager.now()
	cached, err := manager.cache.Get(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("Could not read the cached Tripletex session token.")
	} else if cached.Usable(now) {
		return cached.Token, nil
	}

	token, err := manager.createSession(ctx, now)
	if err != nil {
		return "", err
	}
	if err := manager.cache.Set(ctx, *token); err != nil {
		log.Warn().Err(err).Msg("Could not cache the Tripletex session token.")
	}
	return token.Token, nil
}

// Invalidate clears the cached session token
func (manager *AuthManager) Invalidate(ctx context.Context) error {
	return manager.cache.Clear(ctx)
}

func (manager *AuthManager) createSession(ctx context.Context, now time.Time) (*SessionToken, error) {
	body := map[string]string{
		"consumerToken":  manager.creds.ConsumerToken,
		"employeeToken":  manager.creds.EmployeeToken,
		"expirationDate": now.Add(manager.lifetime).Format("2006-01-02"),
	}
	response, err := manager.requester.Request(ctx, http.MethodPost, sessionCreatePath, &RequestOptions{
		Body:     body,
		SkipAuth: true,
	})
	if err != nil {
		return nil, sessionError(err)
	}

	var payload struct {
		Token          string `json:"token"`
		ExpirationDate string `json:"expirationDate"`
	}
	if err := response.Decode(&payload); err != nil {
		ttxErr := newError(CodeSessionHTTP, "session response is not valid JSON")
		ttxErr.HTTPStatus = response.Status
		ttxErr.RequestID = response.RequestID
		ttxErr.Details["body"] = string(response.Raw)
		return nil, ttxErr
	}
	if strings.TrimSpace(payload.Token) == "" {
		ttxErr := newError(CodeSessionMissing, "session response carries no token")
		ttxErr.HTTPStatus = response.Status
		ttxErr.RequestID = response.RequestID
		return nil, ttxErr
	}

	expiresAt, ok := parseExpiration(payload.ExpirationDate)
	if !ok || !expiresAt.After(now.Add(SessionBuffer)) {
		expiresAt = now.Add(fallbackSessionExpiry)
	}
	log.Debug().Time("expires_at", expiresAt).Msg("Created a new Tripletex session.")
	return &SessionToken{Token: payload.Token, ExpiresAt: expiresAt}, nil
}

func sessionError(err error) error {
	ttxErr, ok := AsError(err)
	if !ok {
		return err
	}
	wrapped := *ttxErr
	wrapped.Details = make(map[string]any, len(ttxErr.Details)+1)
	for key, value := range ttxErr.Details {
		wrapped.Details[key] = value
	}
	wrapped.Details["cause"] = ttxErr.Code
	switch ttxErr.Kind() {
	case KindTransport:
		wrapped.Code = CodeSessionTransport
	case KindHTTP, KindParse:
		wrapped.Code = CodeSessionHTTP
	default:
		return ttxErr
	}
	wrapped.Message = "could not create session: " + ttxErr.Message
	return &wrapped
}

// parseExpiration parses a session expiry.
// Full timestamps are used as is, a bare date maps to midnight UTC of that date.
func parseExpiration(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05"} {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return parsed, true
		}
	}
	if parsed, err := time.ParseInLocation("2006-01-02", raw, time.UTC); err == nil {
		return parsed, true
	}
	return time.Time{}, false
}
