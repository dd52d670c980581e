package leetify

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"

	"github.com/cstatsentry/backend/internal/domain/match"
	"github.com/cstatsentry/backend/internal/domain/sharecode"
	"github.com/cstatsentry/backend/internal/domain/user"
	"github.com/cstatsentry/backend/internal/platform/logging"
	"github.com/cstatsentry/backend/internal/platform/resilience"
	"github.com/cstatsentry/backend/internal/usecase"
)

const (
	defaultBaseURL = "https://api.leetify.com"
	maxBodyBytes   = 6 << 20
)

var bearerHeaderRegex = regexp.MustCompile(`Bearer [^\s"']+`)
var errLeetifyTransient = crerr.New("leetify transient failure")

type ClientConfig struct {
	HTTPClient     *http.Client
	BaseURL        string
	Timeout        time.Duration
	MaxRetries     int
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
}

// Client talks to the Leetify games API. It implements
// usecase.MatchProvider; bearer tokens are held per steam id so
// concurrent syncs for different users never share auth state.
type Client struct {
	httpClient     *http.Client
	baseURL        string
	maxRetries     int
	logger         *logging.Logger
	breaker        *resilience.CircuitBreaker
	circuitEnabled bool
	flight         resilience.SingleFlight

	mu     sync.RWMutex
	tokens map[string]string
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
		maxRetries:     maxInt(cfg.MaxRetries, 0),
		logger:         logger,
		breaker:        resilience.NewCircuitBreaker(breakerCfg.FailureThreshold, breakerCfg.OpenTimeout, breakerCfg.HalfOpenMaxReq),
		circuitEnabled: breakerCfg.Enabled,
		tokens:         make(map[string]string),
	}
}

func (c *Client) Name() string {
	return match.SourceLeetify
}

type authRequest struct {
	SteamID string `json:"steam_id"`
}

type authResponse struct {
	Token string `json:"token"`
}

// Authenticate exchanges the steam id for a bearer token.
func (c *Client) Authenticate(ctx context.Context, u user.User) error {
	steamID := strings.TrimSpace(u.SteamID)
	if steamID == "" {
		return fmt.Errorf("steam id is required")
	}

	body, err := sonic.Marshal(authRequest{SteamID: steamID})
	if err != nil {
		return fmt.Errorf("encode auth request: %w", err)
	}

	var out authResponse
	if _, err := c.doJSON(ctx, http.MethodPost, "/api/auth/token", "", body, &out); err != nil {
		return fmt.Errorf("exchange auth token: %w", err)
	}
	if strings.TrimSpace(out.Token) == "" {
		return fmt.Errorf("provider returned an empty token")
	}

	c.mu.Lock()
	c.tokens[steamID] = out.Token
	c.mu.Unlock()
	return nil
}

type gamesEnvelope struct {
	Games []gameItem `json:"games"`
}

type gameItem struct {
	ID         string           `json:"id"`
	FinishedAt int64            `json:"finished_at"`
	MapName    string           `json:"map_name"`
	TeamScores map[string]int   `json:"team_scores"`
	UserTeam   string           `json:"user_team"`
	ShareCode  string           `json:"share_code"`
	Players    []gamePlayerItem `json:"players"`
}

type gamePlayerItem struct {
	Steam64ID string `json:"steam64_id"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatar_url"`
	Team      string `json:"team"`
	Score     int    `json:"score"`
	Kills     int    `json:"kills"`
	Deaths    int    `json:"deaths"`
	Assists   int    `json:"assists"`
	Headshots int    `json:"headshots"`
}

func (c *Client) FetchRecentMatches(ctx context.Context, u user.User, limit int) ([]usecase.ExternalMatch, error) {
	steamID := strings.TrimSpace(u.SteamID)
	token := c.tokenFor(steamID)
	if token == "" {
		return nil, fmt.Errorf("not authenticated for steam_id=%s", steamID)
	}
	if limit <= 0 {
		limit = 10
	}

	path := fmt.Sprintf("/api/profile/%s/games?limit=%d&offset=0", steamID, limit)
	var out gamesEnvelope
	if _, err := c.doJSON(ctx, http.MethodGet, path, token, nil, &out); err != nil {
		return nil, fmt.Errorf("list games steam_id=%s: %w", steamID, err)
	}

	items := make([]usecase.ExternalMatch, 0, len(out.Games))
	for _, game := range out.Games {
		mapped, ok := mapGameToExternalMatch(game)
		if !ok {
			continue
		}
		items = append(items, mapped)
	}
	return items, nil
}

// FetchMatchDetails loads the box score for one game. The id here is the
// Leetify game id; a 404 from the provider means absent, not failure.
func (c *Client) FetchMatchDetails(ctx context.Context, matchID, steamID string) (usecase.ExternalMatchDetail, bool, error) {
	token := c.tokenFor(strings.TrimSpace(steamID))
	if token == "" {
		return usecase.ExternalMatchDetail{}, false, fmt.Errorf("not authenticated for steam_id=%s", steamID)
	}
	gameID := strings.TrimSpace(matchID)
	if gameID == "" {
		return usecase.ExternalMatchDetail{}, false, fmt.Errorf("game id is required")
	}

	var out gameItem
	if _, err := c.doJSON(ctx, http.MethodGet, "/api/games/"+gameID, token, nil, &out); err != nil {
		if isNotFoundErr(err) {
			return usecase.ExternalMatchDetail{}, false, nil
		}
		return usecase.ExternalMatchDetail{}, false, fmt.Errorf("fetch game id=%s: %w", gameID, err)
	}

	mapped, ok := mapGameToExternalMatch(out)
	if !ok {
		return usecase.ExternalMatchDetail{}, false, nil
	}

	players := make([]usecase.ExternalPlayerStat, 0, len(out.Players))
	for _, item := range out.Players {
		if strings.TrimSpace(item.Steam64ID) == "" {
			continue
		}
		players = append(players, usecase.ExternalPlayerStat{
			SteamID:   item.Steam64ID,
			Name:      item.Name,
			AvatarURL: item.AvatarURL,
			Team:      teamNumber(item.Team),
			Score:     item.Score,
			Kills:     item.Kills,
			Deaths:    item.Deaths,
			Assists:   item.Assists,
			Headshots: item.Headshots,
		})
	}

	return usecase.ExternalMatchDetail{Match: mapped, Players: players}, true, nil
}

func (c *Client) Close() error {
	c.mu.Lock()
	c.tokens = make(map[string]string)
	c.mu.Unlock()
	return nil
}

func mapGameToExternalMatch(game gameItem) (usecase.ExternalMatch, bool) {
	gameID := strings.TrimSpace(game.ID)
	if gameID == "" {
		return usecase.ExternalMatch{}, false
	}

	out := usecase.ExternalMatch{
		ID:         gameID,
		Source:     match.SourceLeetify,
		LeetifyID:  gameID,
		MapName:    strings.TrimSpace(game.MapName),
		ScoreTeam1: game.TeamScores["A"],
		ScoreTeam2: game.TeamScores["B"],
		UserTeam:   teamNumber(game.UserTeam),
		HasDetails: true,
	}
	if game.FinishedAt > 0 {
		out.PlayedAt = time.UnixMilli(game.FinishedAt).UTC()
	}

	if code := strings.TrimSpace(game.ShareCode); code != "" {
		decoded, err := sharecode.Decode(code)
		if err == nil {
			out.ID = strconv.FormatUint(decoded.MatchID, 10)
			out.ShareCode = code
			out.DemoURL = sharecode.DemoURL(decoded.MatchID, decoded.OutcomeID, sharecode.DefaultDemoServer)
		}
	}
	return out, true
}

// teamNumber maps the provider's team label onto scoreboard side 1 or 2.
// Anything unrecognized lands on side 1.
func teamNumber(label string) int {
	if strings.EqualFold(strings.TrimSpace(label), "B") {
		return 2
	}
	return 1
}

func (c *Client) tokenFor(steamID string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.tokens[steamID]
}

type notFoundError struct{ path string }

func (e notFoundError) Error() string {
	return fmt.Sprintf("provider status=404 path=%s", e.path)
}

func isNotFoundErr(err error) bool {
	var target notFoundError
	return crerr.As(err, &target)
}

func (c *Client) doJSON(ctx context.Context, method, path, token string, body []byte, target any) ([]byte, error) {
	if c.circuitEnabled {
		if err := c.breaker.Allow(); err != nil {
			c.logger.WarnContext(ctx, "leetify circuit breaker rejected request", "state", c.breaker.State())
			return nil, fmt.Errorf("%w: leetify is temporarily unavailable", usecase.ErrDependencyUnavailable)
		}
	}

	fullURL := c.baseURL + path

	run := func() (any, error) {
		raw, reqErr := c.executeRequest(ctx, method, fullURL, token, body)
		if c.circuitEnabled {
			if reqErr != nil && isCircuitFailure(reqErr) {
				c.breaker.RecordFailure()
			} else {
				c.breaker.RecordSuccess()
			}
		}
		return raw, reqErr
	}

	var out any
	var err error
	if method == http.MethodGet {
		out, err, _ = c.flight.Do(method+" "+path, run)
	} else {
		out, err = run()
	}
	if err != nil {
		return nil, err
	}

	raw, ok := out.([]byte)
	if !ok {
		return nil, fmt.Errorf("unexpected response payload type %T", out)
	}
	if err := sonic.Unmarshal(raw, target); err != nil {
		return nil, fmt.Errorf("decode provider payload: %w", err)
	}
	return raw, nil
}

func (c *Client) executeRequest(ctx context.Context, method, fullURL, token string, body []byte) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		var reader io.Reader
		if len(body) > 0 {
			reader = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, fullURL, reader)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("accept", "application/json")
		if len(body) > 0 {
			req.Header.Set("content-type", "application/json")
		}
		if token != "" {
			req.Header.Set("authorization", "Bearer "+token)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("%w: send request: %s", errLeetifyTransient, sanitizeSensitiveText(err.Error(), token))
		} else {
			raw, readErr := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
			_ = resp.Body.Close()
			if readErr != nil {
				lastErr = fmt.Errorf("%w: read response body: %v", errLeetifyTransient, readErr)
			} else if resp.StatusCode >= 200 && resp.StatusCode < 300 {
				return raw, nil
			} else if resp.StatusCode == http.StatusNotFound {
				return nil, notFoundError{path: redactURL(fullURL)}
			} else {
				if isRetryableStatus(resp.StatusCode) {
					lastErr = fmt.Errorf("%w: provider status=%d body=%s", errLeetifyTransient, resp.StatusCode, abbreviateBody(raw))
				} else {
					return nil, fmt.Errorf("provider status=%d body=%s", resp.StatusCode, abbreviateBody(raw))
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
		lastErr = fmt.Errorf("provider request failed")
	}
	c.logger.WarnContext(ctx, "leetify request failed", "url", redactURL(fullURL), "error", lastErr)
	return nil, lastErr
}

func sanitizeSensitiveText(value, token string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return value
	}
	if token != "" {
		value = strings.ReplaceAll(value, token, "REDACTED")
	}
	return bearerHeaderRegex.ReplaceAllString(value, "Bearer REDACTED")
}

func redactURL(rawURL string) string {
	if idx := strings.Index(rawURL, "?"); idx >= 0 {
		return rawURL[:idx]
	}
	return rawURL
}

func isCircuitFailure(err error) bool {
	return crerr.Is(err, errLeetifyTransient)
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
