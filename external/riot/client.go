package riot

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"golang.org/x/sync/singleflight"

	"github.com/riskibarqy/focus-tracker/internal/domain/match"
	"github.com/riskibarqy/focus-tracker/internal/domain/tracking"
	"github.com/riskibarqy/focus-tracker/internal/platform/cache"
	"github.com/riskibarqy/focus-tracker/internal/platform/logging"
	"github.com/riskibarqy/focus-tracker/internal/platform/resilience"
	"github.com/riskibarqy/focus-tracker/internal/usecase"
)

const (
	DefaultBaseURLTemplate = "https://{routing}.api.riotgames.com"
	routingPlaceholder     = "{routing}"
	maxResponseBytes       = 6 << 20
	maxMatchIDCount        = 100
)

var (
	ErrMissingAPIKey  = crerr.New("riot api key is not configured")
	errRiotTransient  = crerr.New("riot transient failure")
	riotKeyParamRegex = regexp.MustCompile(`RGAPI-[0-9a-fA-F-]+`)
)

// Metrics receives one observation per logical upstream call.
type Metrics interface {
	ObserveUpstreamRequest(endpoint, outcome string, elapsed time.Duration)
}

type ClientConfig struct {
	HTTPClient      *http.Client
	BaseURLTemplate string
	APIKey          string
	Timeout         time.Duration
	MaxRetries      int
	RetryBackoff    time.Duration
	RateLimit       resilience.RateLimitConfig
	AccountCacheTTL time.Duration
	Logger          *logging.Logger
	CircuitBreaker  resilience.CircuitBreakerConfig
	Metrics         Metrics
}

// Client talks to the Riot account-v1 and match-v5 APIs.
type Client struct {
	httpClient      *http.Client
	baseURLTemplate string
	apiKey          string
	maxRetries      int
	retryBackoff    time.Duration
	logger          *logging.Logger
	breaker         *resilience.CircuitBreaker
	circuitEnabled  bool
	limiter         *resilience.Limiter
	flight          singleflight.Group
	accounts        *cache.Store[usecase.Account]
	metrics         Metrics
}

var _ usecase.GameDataProvider = (*Client)(nil)

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
		httpClient.Timeout = 10 * time.Second
	}

	baseURLTemplate := strings.TrimRight(strings.TrimSpace(cfg.BaseURLTemplate), "/")
	if baseURLTemplate == "" {
		baseURLTemplate = DefaultBaseURLTemplate
	}
	retryBackoff := cfg.RetryBackoff
	if retryBackoff <= 0 {
		retryBackoff = time.Second
	}

	breakerCfg := resilience.NormalizeCircuitBreakerConfig(cfg.CircuitBreaker)
	breaker := resilience.NewCircuitBreaker("riot", breakerCfg)
	breaker.OnStateChange(func(name string, from, to resilience.CircuitState) {
		logger.Warn("circuit breaker state changed", "breaker", name, "from", from, "to", to)
	})

	return &Client{
		httpClient:      httpClient,
		baseURLTemplate: baseURLTemplate,
		apiKey:          strings.TrimSpace(cfg.APIKey),
		maxRetries:      maxInt(cfg.MaxRetries, 0),
		retryBackoff:    retryBackoff,
		logger:          logger,
		breaker:         breaker,
		circuitEnabled:  breakerCfg.Enabled,
		limiter:         resilience.NewLimiter(cfg.RateLimit),
		accounts:        cache.NewStore[usecase.Account](cfg.AccountCacheTTL),
		metrics:         cfg.Metrics,
	}
}

// Configured reports whether an API key is present.
func (c *Client) Configured() bool {
	return c.apiKey != ""
}

// ResolveAccount looks up a Riot ID. routingHint is a regional routing key; the
// account API has no sea cluster, so sea lookups go to asia.
func (c *Client) ResolveAccount(ctx context.Context, name, tag, routingHint string) (usecase.Account, error) {
	name = strings.TrimSpace(name)
	tag = strings.TrimPrefix(strings.TrimSpace(tag), "#")
	if name == "" || tag == "" {
		return usecase.Account{}, fmt.Errorf("%w: riot id needs a name and a tag", usecase.ErrInvalidInput)
	}

	routing := accountRouting(routingHint)
	key := routing + ":" + strings.ToLower(name+"#"+tag)
	return c.accounts.GetOrLoad(ctx, key, func(ctx context.Context) (usecase.Account, error) {
		path := "/riot/account/v1/accounts/by-riot-id/" + url.PathEscape(name) + "/" + url.PathEscape(tag)
		var payload accountDTO
		if err := c.doJSON(ctx, "riot.ResolveAccount", routing, path, nil, &payload); err != nil {
			return usecase.Account{}, err
		}
		if strings.TrimSpace(payload.PUUID) == "" {
			return usecase.Account{}, &usecase.ProviderError{
				Kind: usecase.KindUnknown,
				Op:   "riot.ResolveAccount",
				Err:  crerr.New("account payload has no puuid"),
			}
		}
		return usecase.Account{
			ExternalID: payload.PUUID,
			GameName:   firstNonEmpty(payload.GameName, name),
			TagLine:    firstNonEmpty(payload.TagLine, tag),
		}, nil
	})
}

// ListRecentMatchIDs returns up to count match ids, most recent first.
func (c *Client) ListRecentMatchIDs(ctx context.Context, externalID string, count int, routingKey string) ([]string, error) {
	externalID = strings.TrimSpace(externalID)
	if externalID == "" {
		return nil, fmt.Errorf("%w: external id is required", usecase.ErrInvalidInput)
	}
	if count <= 0 {
		count = tracking.DefaultBatchSize
	}
	if count > maxMatchIDCount {
		count = maxMatchIDCount
	}

	query := url.Values{}
	query.Set("start", "0")
	query.Set("count", strconv.Itoa(count))

	var ids []string
	path := "/lol/match/v5/matches/by-puuid/" + url.PathEscape(externalID) + "/ids"
	if err := c.doJSON(ctx, "riot.ListRecentMatchIDs", matchRouting(routingKey), path, query, &ids); err != nil {
		return nil, err
	}

	out := make([]string, 0, len(ids))
	for _, matchID := range ids {
		if matchID = strings.TrimSpace(matchID); matchID != "" {
			out = append(out, matchID)
		}
	}
	return out, nil
}

func (c *Client) FetchMatchDetail(ctx context.Context, matchID, routingKey string) (match.Detail, error) {
	matchID = strings.TrimSpace(matchID)
	if matchID == "" {
		return match.Detail{}, fmt.Errorf("%w: match id is required", usecase.ErrInvalidInput)
	}

	var payload matchDTO
	path := "/lol/match/v5/matches/" + url.PathEscape(matchID)
	if err := c.doJSON(ctx, "riot.FetchMatchDetail", matchRouting(routingKey), path, nil, &payload); err != nil {
		return match.Detail{}, err
	}
	return payload.toDomain(matchID), nil
}

func (c *Client) doJSON(ctx context.Context, op, routing, path string, query url.Values, target any) (err error) {
	start := time.Now()
	defer func() {
		c.observe(op, err, time.Since(start))
	}()

	if !c.Configured() {
		return &usecase.ProviderError{Kind: usecase.KindForbidden, Op: op, Err: ErrMissingAPIKey}
	}
	if c.circuitEnabled {
		if allowErr := c.breaker.Allow(); allowErr != nil {
			c.logger.WarnContext(ctx, "riot circuit breaker rejected request", "op", op, "state", c.breaker.State())
			return &usecase.ProviderError{
				Kind: usecase.KindUnknown,
				Op:   op,
				Err:  fmt.Errorf("%w: %v", usecase.ErrDependencyUnavailable, allowErr),
			}
		}
	}

	fullURL := c.buildURL(routing, path, query)
	out, err, _ := c.flight.Do(fullURL, func() (any, error) {
		raw, reqErr := c.executeRequest(ctx, op, fullURL)
		if c.circuitEnabled {
			c.breaker.Record(isRiotCircuitFailure(reqErr))
		}
		return raw, reqErr
	})
	if err != nil {
		return err
	}

	raw, ok := out.([]byte)
	if !ok {
		return &usecase.ProviderError{Kind: usecase.KindUnknown, Op: op, Err: crerr.Newf("unexpected response payload type %T", out)}
	}
	if err := sonic.Unmarshal(raw, target); err != nil {
		return &usecase.ProviderError{Kind: usecase.KindUnknown, Op: op, Err: crerr.Wrap(err, "decode riot payload")}
	}
	return nil
}

// executeRequest retries only transport failures and 5xx responses. A 429 is
// handed back immediately so the caller can abandon the entity for this cycle.
func (c *Client) executeRequest(ctx context.Context, op, fullURL string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, crerr.Wrap(err, "wait for riot rate limiter")
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
		if err != nil {
			return nil, &usecase.ProviderError{Kind: usecase.KindUnknown, Op: op, Err: crerr.Wrap(err, "build request")}
		}
		req.Header.Set("accept", "application/json")
		req.Header.Set("X-Riot-Token", c.apiKey)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = &usecase.ProviderError{
				Kind: usecase.KindUnknown,
				Op:   op,
				Err:  fmt.Errorf("%w: send request: %s", errRiotTransient, sanitizeSensitiveText(err.Error(), c.apiKey)),
			}
		} else {
			raw, readErr := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
			_ = resp.Body.Close()
			switch {
			case readErr != nil:
				lastErr = &usecase.ProviderError{
					Kind:   usecase.KindUnknown,
					Op:     op,
					Status: resp.StatusCode,
					Err:    fmt.Errorf("%w: read response body: %v", errRiotTransient, readErr),
				}
			case resp.StatusCode >= 200 && resp.StatusCode < 300:
				return raw, nil
			case isRetryableStatus(resp.StatusCode):
				lastErr = &usecase.ProviderError{
					Kind:   usecase.KindUnknown,
					Op:     op,
					Status: resp.StatusCode,
					Err:    fmt.Errorf("%w: upstream status=%d body=%s", errRiotTransient, resp.StatusCode, abbreviateBody(raw)),
				}
			default:
				return nil, &usecase.ProviderError{
					Kind:   usecase.KindForStatus(resp.StatusCode),
					Op:     op,
					Status: resp.StatusCode,
					Err:    fmt.Errorf("upstream status=%d body=%s", resp.StatusCode, abbreviateBody(raw)),
				}
			}
		}

		if attempt == c.maxRetries {
			break
		}
		backoff := time.Duration(attempt+1) * c.retryBackoff
		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	if lastErr == nil {
		lastErr = &usecase.ProviderError{Kind: usecase.KindUnknown, Op: op, Err: crerr.New("riot request failed")}
	}
	c.logger.WarnContext(ctx, "riot request failed", "op", op, "url", fullURL, "error", lastErr)
	return nil, lastErr
}

func (c *Client) buildURL(routing, path string, query url.Values) string {
	base := strings.ReplaceAll(c.baseURLTemplate, routingPlaceholder, routing)
	fullURL := base + path
	if encoded := query.Encode(); encoded != "" {
		fullURL += "?" + encoded
	}
	return fullURL
}

func (c *Client) observe(op string, err error, elapsed time.Duration) {
	if c.metrics == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = string(usecase.KindOf(err))
	}
	c.metrics.ObserveUpstreamRequest(op, outcome, elapsed)
}

func matchRouting(routingKey string) string {
	routingKey = strings.ToLower(strings.TrimSpace(routingKey))
	if routingKey == "" {
		return tracking.DefaultRoutingKey
	}
	return routingKey
}

func accountRouting(routingKey string) string {
	routing := matchRouting(routingKey)
	if routing == "sea" {
		return "asia"
	}
	return routing
}

func isRiotCircuitFailure(err error) bool {
	if err == nil {
		return false
	}
	return stderrors.Is(err, errRiotTransient)
}

func isRetryableStatus(code int) bool {
	return code >= http.StatusInternalServerError
}

func sanitizeSensitiveText(value, apiKey string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return value
	}
	if apiKey != "" {
		value = strings.ReplaceAll(value, apiKey, "REDACTED")
	}
	return riotKeyParamRegex.ReplaceAllString(value, "REDACTED")
}

func abbreviateBody(body []byte) string {
	text := strings.TrimSpace(string(body))
	if len(text) <= 240 {
		return text
	}
	return text[:240] + "..."
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return value
		}
	}
	return ""
}

func maxInt(left, right int) int {
	if left > right {
		return left
	}
	return right
}
