package tripletex

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lavendelhygiene/ttx-bridge/internal/random"
	"github.com/lavendelhygiene/ttx-bridge/internal/secret"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// Version is reported in the User-Agent of every outbound request
const Version = "1.4.0"

const (
	DefaultBaseURL   = "https://tripletex.no/v2"
	DefaultTimeout   = 20 * time.Second
	DefaultUserAgent = "LavendelhygieneTripletex/" + Version

	maxAttempts      = 3
	maxResponseBytes = 10 << 20

	headerRequestID  = "x-tlx-request-id"
	headerRetryAfter = "Retry-After"
)

// Options configures a Tripletex client
type Options struct {
	BaseURL         string
	Credentials     Credentials
	Timeout         time.Duration
	UserAgent       string
	SessionLifetime time.Duration

	// TokenCache defaults to an in-memory cache
	TokenCache TokenCache

	// Limiter is waited on before each attempt if set
	Limiter *rate.Limiter

	HTTPClient *http.Client
}

// RequestOptions describes a single logical request
type RequestOptions struct {
	Query    map[string]any
	Body     any
	Header   http.Header
	Timeout  time.Duration
	SkipAuth bool
}

// Client is the Tripletex API client.
// It is safe for concurrent use.
type Client struct {
	baseURL   string
	creds     Credentials
	timeout   time.Duration
	userAgent string
	limiter   *rate.Limiter
	http      *http.Client
	auth      *AuthManager

	sleep  func(ctx context.Context, duration time.Duration) error
	jitter func(min, max time.Duration) time.Duration
}

var _ Requester = (*Client)(nil)

// NewClient creates a new Tripletex client
func NewClient(opts Options) *Client {
	client := &Client{
		baseURL:   strings.TrimRight(opts.BaseURL, "/"),
		creds:     opts.Credentials,
		timeout:   opts.Timeout,
		userAgent: opts.UserAgent,
		limiter:   opts.Limiter,
		http:      opts.HTTPClient,
		sleep:     sleepContext,
		jitter:    random.Duration,
	}
	if client.baseURL == "" {
		client.baseURL = DefaultBaseURL
	}
	if client.timeout <= 0 {
		client.timeout = DefaultTimeout
	}
	if client.userAgent == "" {
		client.userAgent = DefaultUserAgent
	}
	if client.http == nil {
		client.http = new(http.Client)
	}
	cache := opts.TokenCache
	if cache == nil {
		cache = NewMemoryTokenCache()
	}
	client.auth = NewAuthManager(opts.Credentials, cache, client, opts.SessionLifetime)
	return client
}

// Auth returns the auth manager of the client
func (client *Client) Auth() *AuthManager {
	return client.auth
}

// Request performs a logical request including authentication, retries and envelope normalization
func (client *Client) Request(ctx context.Context, method, path string, opts *RequestOptions) (*Response, error) {
	if opts == nil {
		opts = new(RequestOptions)
	}
	target := client.buildURL(path, opts.Query)

	var body []byte
	if opts.Body != nil {
		encoded, err := json.Marshal(opts.Body)
		if err != nil {
			return nil, newError(CodeEncode, "could not encode request body: "+err.Error())
		}
		body = encoded
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = client.timeout
	}

	logger := log.With().Str("call_id", uuid.NewString()).Str("method", method).Str("url", target).Logger()

	refreshed := false
	var lastErr *Error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if client.limiter != nil {
			if err := client.limiter.Wait(ctx); err != nil {
				return nil, transportError(err)
			}
		}

		header, err := client.buildHeader(ctx, opts)
		if err != nil {
			return nil, err
		}

		logger.Debug().Int("attempt", attempt).Interface("headers", redactHeaders(header)).Msg("Sending Tripletex request.")
		status, responseHeader, responseBody, err := client.do(ctx, method, target, header, body, timeout)
		if err != nil {
			lastErr = transportError(err)
			logger.Warn().Err(err).Int("attempt", attempt).Msg("Tripletex request failed on transport level.")
			if ctx.Err() != nil || attempt == maxAttempts {
				break
			}
			if err := client.sleep(ctx, client.jitter(200*time.Millisecond, 500*time.Millisecond)); err != nil {
				return nil, transportError(err)
			}
			continue
		}

		requestID := responseHeader.Get(headerRequestID)
		logger.Debug().Int("attempt", attempt).Int("status", status).Str("request_id", requestID).Int("bytes", len(responseBody)).Msg("Received Tripletex response.")
		switch {
		case status >= 200 && status < 300:
			return client.buildResponse(status, requestID, responseBody)

		case status == http.StatusUnauthorized && !opts.SkipAuth && !refreshed && attempt < maxAttempts:
			refreshed = true
			logger.Info().Str("request_id", requestID).Msg("Tripletex rejected the session token, refreshing it.")
			if err := client.auth.Invalidate(ctx); err != nil {
				logger.Warn().Err(err).Msg("Could not clear the cached Tripletex session token.")
			}
			continue

		case status == http.StatusTooManyRequests && attempt < maxAttempts:
			delay := rateLimitDelay(responseHeader.Get(headerRetryAfter)) + client.jitter(0, 250*time.Millisecond)
			logger.Warn().Dur("delay", delay).Str("request_id", requestID).Msg("Tripletex rate limit hit, backing off.")
			if err := client.sleep(ctx, delay); err != nil {
				return nil, transportError(err)
			}
			continue

		case status >= 500 && attempt < maxAttempts:
			logger.Warn().Int("status", status).Str("request_id", requestID).Msg("Tripletex answered with a server error, retrying.")
			if err := client.sleep(ctx, client.jitter(300*time.Millisecond, 700*time.Millisecond)); err != nil {
				return nil, transportError(err)
			}
			continue
		}

		ttxErr := httpError(status, requestID, responseBody)
		logger.Error().
			Int("status", status).
			Interface("upstream_code", ttxErr.Details["code"]).
			Str("request_id", requestID).
			Msg("Tripletex request failed.")
		return nil, ttxErr
	}

	if lastErr == nil {
		lastErr = newError(CodeUnknown, "request did not complete")
	}
	return nil, lastErr
}

func (client *Client) buildURL(path string, query map[string]any) string {
	target := client.baseURL + "/" + strings.TrimLeft(path, "/")
	if encoded := EncodeQuery(query); encoded != "" {
		target += "?" + encoded
	}
	return target
}

func (client *Client) buildHeader(ctx context.Context, opts *RequestOptions) (http.Header, error) {
	header := make(http.Header, 4+len(opts.Header))
	for key, values := range opts.Header {
		header[key] = append([]string(nil), values...)
	}
	header.Set("Accept", "application/json")
	header.Set("Content-Type", "application/json; charset=utf-8")
	header.Set("User-Agent", client.userAgent)
	if !opts.SkipAuth {
		token, err := client.auth.ValidToken(ctx)
		if err != nil {
			return nil, err
		}
		credential := base64.StdEncoding.EncodeToString([]byte(strconv.Itoa(client.creds.CompanyID) + ":" + token))
		header.Set("Authorization", "Basic "+credential)
	}
	return header, nil
}

func (client *Client) do(ctx context.Context, method, target string, header http.Header, body []byte, timeout time.Duration) (int, http.Header, []byte, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	request, err := http.NewRequestWithContext(attemptCtx, method, target, reader)
	if err != nil {
		return 0, nil, nil, err
	}
	request.Header = header

	response, err := client.http.Do(request)
	if err != nil {
		return 0, nil, nil, err
	}
	defer response.Body.Close()

	responseBody, err := io.ReadAll(io.LimitReader(response.Body, maxResponseBytes+1))
	if err != nil {
		return 0, nil, nil, err
	}
	if len(responseBody) > maxResponseBytes {
		return 0, nil, nil, fmt.Errorf("response body exceeds %d bytes", maxResponseBytes)
	}
	return response.StatusCode, response.Header, responseBody, nil
}

func (client *Client) buildResponse(status int, requestID string, body []byte) (*Response, error) {
	response := &Response{Status: status, RequestID: requestID}
	if len(bytes.TrimSpace(body)) == 0 {
		return response, nil
	}
	if !json.Valid(body) {
		ttxErr := newError(CodeJSON, "response body is not valid JSON")
		ttxErr.HTTPStatus = status
		ttxErr.RequestID = requestID
		ttxErr.Details["body"] = string(body)
		return nil, ttxErr
	}
	response.Raw = Unwrap(body)
	return response, nil
}

func transportError(err error) *Error {
	ttxErr := newError(CodeTransport, err.Error())
	if errors.Is(err, context.DeadlineExceeded) {
		ttxErr.Details["timeout"] = true
	}
	return ttxErr
}

func httpError(status int, requestID string, body []byte) *Error {
	ttxErr := newError(CodeHTTP, http.StatusText(status))
	ttxErr.HTTPStatus = status
	ttxErr.RequestID = requestID

	var decoded map[string]any
	if err := json.Unmarshal(body, &decoded); err != nil {
		if len(body) > 0 {
			ttxErr.Details["body"] = string(body)
		}
		return ttxErr
	}
	ttxErr.Details["body"] = decoded
	if message, ok := decoded["message"].(string); ok && message != "" {
		ttxErr.Message = message
	}
	for _, key := range []string{"code", "developerMessage", "validationMessages"} {
		if value, ok := decoded[key]; ok && value != nil {
			ttxErr.Details[key] = value
		}
	}
	return ttxErr
}

// rateLimitDelay converts a Retry-After header into a back-off between one and eight seconds
func rateLimitDelay(retryAfter string) time.Duration {
	const (
		min = time.Second
		max = 8 * time.Second
	)
	retryAfter = strings.TrimSpace(retryAfter)
	delay := min
	if seconds, err := strconv.ParseFloat(retryAfter, 64); err == nil || errors.Is(err, strconv.ErrRange) {
		if math.IsNaN(seconds) {
			return min
		}
		// Clamp before converting so huge values cannot overflow
		seconds = math.Max(min.Seconds(), math.Min(max.Seconds(), seconds))
		delay = time.Duration(seconds * float64(time.Second))
	} else if at, err := http.ParseTime(retryAfter); err == nil {
		delay = time.Until(at)
	}
	if delay < min {
		return min
	}
	if delay > max {
		return max
	}
	return delay
}

func redactHeaders(header http.Header) map[string]string {
	out := make(map[string]string, len(header))
	for key, values := range header {
		value := strings.Join(values, ", ")
		if strings.EqualFold(key, "Authorization") {
			value = secret.MaskAuthorization(value)
		}
		out[key] = value
	}
	return out
}

func sleepContext(ctx context.Context, duration time.Duration) error {
	timer := time.NewTimer(duration)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
