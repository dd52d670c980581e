package steamweb

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"

	"github.com/cstatsentry/backend/internal/platform/logging"
	"github.com/cstatsentry/backend/internal/platform/resilience"
	"github.com/cstatsentry/backend/internal/usecase"
)

const (
	defaultBaseURL   = "https://api.steampowered.com"
	nextCodePath     = "/ICSGOPlayers_730/GetNextMatchSharingCode/v1"
	noMoreCodeSignal = "n/a"
	maxBodyBytes     = 6 << 20
)

var steamKeyParamRegex = regexp.MustCompile(`(key|steamidkey)=[^&\s"']+`)
var errSteamTransient = crerr.New("steam web api transient failure")

type ClientConfig struct {
	HTTPClient     *http.Client
	BaseURL        string
	APIKey         string
	Timeout        time.Duration
	MaxRetries     int
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
}

// Client wraps the Steam Web API operations we use, which today is the
// match-history "next share code" chain.
type Client struct {
	httpClient     *http.Client
	baseURL        string
	apiKey         string
	maxRetries     int
	logger         *logging.Logger
	breaker        *resilience.CircuitBreaker
	circuitEnabled bool
	flight         resilience.SingleFlight
}

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = 20 * time.Second
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	breakerCfg := resilience.NormalizeCircuitBreakerConfig(cfg.CircuitBreaker)

	return &Client{
		httpClient:     httpClient,
		baseURL:        baseURL,
		apiKey:         strings.TrimSpace(cfg.APIKey),
		maxRetries:     maxInt(cfg.MaxRetries, 0),
		logger:         logger,
		breaker:        resilience.NewCircuitBreaker(breakerCfg.FailureThreshold, breakerCfg.OpenTimeout, breakerCfg.HalfOpenMaxReq),
		circuitEnabled: breakerCfg.Enabled,
	}
}

type nextCodeEnvelope struct {
	Result struct {
		NextCode *string `json:"nextcode"`
	} `json:"result"`
}

// GetNextMatchSharingCode asks Steam for the share code that follows
// knownCode in the user's match history. ok=false means the chain is
// exhausted.
func (c *Client) GetNextMatchSharingCode(ctx context.Context, steamID, authCode, knownCode string) (string, bool, error) {
	if c.apiKey == "" {
		return "", false, fmt.Errorf("%w: steam api key is not configured", usecase.ErrDependencyUnavailable)
	}
	steamID = strings.TrimSpace(steamID)
	authCode = strings.TrimSpace(authCode)
	knownCode = strings.TrimSpace(knownCode)
	if steamID == "" || authCode == "" || knownCode == "" {
		return "", false, fmt.Errorf("steamid, steamidkey and knowncode are all required")
	}

	query := url.Values{}
	query.Set("key", c.apiKey)
	query.Set("steamid", steamID)
	query.Set("steamidkey", authCode)
	query.Set("knowncode", knownCode)

	var out nextCodeEnvelope
	if err := c.doJSON(ctx, nextCodePath, query, &out); err != nil {
		return "", false, err
	}

	if out.Result.NextCode == nil {
		return "", false, nil
	}
	next := strings.TrimSpace(*out.Result.NextCode)
	if next == "" || strings.EqualFold(next, noMoreCodeSignal) {
		return "", false, nil
	}
	return next, true, nil
}

func (c *Client) doJSON(ctx context.Context, path string, query url.Values, target any) error {
	if c.circuitEnabled {
		if err := c.breaker.Allow(); err != nil {
			c.logger.WarnContext(ctx, "steam web api circuit breaker rejected request", "state", c.breaker.State())
			return fmt.Errorf("%w: steam web api is temporarily unavailable", usecase.ErrDependencyUnavailable)
		}
	}

	fullURL := c.baseURL + path
	if encoded := query.Encode(); encoded != "" {
		fullURL += "?" + encoded
	}

	out, err, _ := c.flight.Do(fullURL, func() (any, error) {
		raw, reqErr := c.executeRequest(ctx, fullURL)
		if c.circuitEnabled {
			if reqErr != nil && crerr.Is(reqErr, errSteamTransient) {
				c.breaker.RecordFailure()
			} else {
				c.breaker.RecordSuccess()
			}
		}
		return raw, reqErr
	})
	if err != nil {
		return err
	}

	raw, ok := out.([]byte)
	if !ok {
		return fmt.Errorf("unexpected response payload type %T", out)
	}
	if err := sonic.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("decode steam payload: %w", err)
	}
	return nil
}

func (c *Client) executeRequest(ctx context.Context, fullURL string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("%w: send request: %s", errSteamTransient, sanitizeSensitiveText(err.Error(), c.apiKey))
		} else {
			raw, readErr := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
			_ = resp.Body.Close()
			if readErr != nil {
				lastErr = fmt.Errorf("%w: read response body: %v", errSteamTransient, readErr)
			} else if resp.StatusCode >= 200 && resp.StatusCode < 300 {
				return raw, nil
			} else {
				if isRetryableStatus(resp.StatusCode) {
					lastErr = fmt.Errorf("%w: steam status=%d body=%s", errSteamTransient, resp.StatusCode, abbreviateBody(raw))
				} else {
					return nil, fmt.Errorf("steam status=%d body=%s", resp.StatusCode, abbreviateBody(raw))
				}
			}
		}

		if attempt == c.maxRetries {
			break
		}
		backoff := time.Duration(attempt+1) * time.Second
		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("steam request failed")
	}
	c.logger.WarnContext(ctx, "steam web api request failed", "url", redactSteamURL(fullURL), "error", lastErr)
	return nil, lastErr
}

func sanitizeSensitiveText(value, key string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return value
	}
	if key != "" {
		value = strings.ReplaceAll(value, key, "REDACTED")
	}
	return steamKeyParamRegex.ReplaceAllString(value, "$1=REDACTED")
}

func redactSteamURL(rawURL string) string {
	return steamKeyParamRegex.ReplaceAllString(rawURL, "$1=REDACTED")
}

func isRetryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

func abbreviateBody(body []byte) string {
	const limit = 512
	trimmed := strings.TrimSpace(string(body))
	if len(trimmed) > limit {
		return trimmed[:limit] + "..."
	}
	return trimmed
}

func maxInt(left, right int) int {
	if left > right {
		return left
	}
	return right
}
