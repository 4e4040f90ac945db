package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/i474232898/weather-bot/internal/weather"
)

// HTTPClientConfig bundles the HTTP client and the outbound rate limit.
type HTTPClientConfig struct {
	Client  *http.Client
	Limiter *rate.Limiter
}

var (
	errRateLimited  = errors.New("rate limited")
	errServerError  = errors.New("server error")
	errUnexpected   = errors.New("unexpected status code")
	errNoHTTPClient = errors.New("http client not configured")
)

// maxErrorBody caps how much of an error response is read for its message.
const maxErrorBody = 4 << 10

// NewLimiter returns a limiter allowing perMinute requests per minute.
// A non-positive value disables limiting.
func NewLimiter(perMinute int) *rate.Limiter {
	if perMinute <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	burst := 5
	if perMinute < burst {
		burst = perMinute
	}
	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), burst)
}

// doRequest executes a single GET and decodes the JSON body into dest.
// There are no retries: every failure is returned as a *weather.FetchError.
func doRequest(ctx context.Context, op string, cfg HTTPClientConfig, rawURL string, dest any) error {
	if cfg.Client == nil {
		return &weather.FetchError{Op: op, Reason: "request failed", Err: errNoHTTPClient}
	}

	if cfg.Limiter != nil {
		if err := cfg.Limiter.Wait(ctx); err != nil {
			return &weather.FetchError{Op: op, Reason: "rate limiter wait", Err: err}
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return &weather.FetchError{Op: op, Reason: "invalid request", Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := cfg.Client.Do(req)
	if err != nil {
		reason := "request failed"
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			reason = "request timed out"
		}
		return &weather.FetchError{Op: op, Reason: reason, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var cause error
		switch {
		case resp.StatusCode == http.StatusTooManyRequests:
			cause = errRateLimited
		case resp.StatusCode >= 500:
			cause = errServerError
		default:
			cause = errUnexpected
		}
		return &weather.FetchError{
			Op:     op,
			Status: resp.StatusCode,
			Reason: providerMessage(resp.Body),
			Err:    cause,
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return &weather.FetchError{Op: op, Status: resp.StatusCode, Reason: "malformed payload", Err: err}
	}
	return nil
}

// providerMessage extracts the "message" field OpenWeather puts into error bodies.
func providerMessage(body io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(body, maxErrorBody))
	if err != nil || len(raw) == 0 {
		return "provider returned an error"
	}
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &payload); err == nil && payload.Message != "" {
		return fmt.Sprintf("provider returned an error: %s", payload.Message)
	}
	return "provider returned an error"
}
