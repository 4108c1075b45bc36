package helen

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/angas/helen-go/session"
)

const (
	HelenAPIURLV14       = "https://api.omahelen.fi/v14"
	MeasurementsEndpoint = "/measurements/electricity"
	TransferEndpoint     = "/measurements/electricity-transfer"
	SpotPricesEndpoint   = MeasurementsEndpoint + "/spot-prices"
	ContractEndpoint     = "/contract/list"

	DefaultTax    = 0.24
	DefaultMargin = 0.38

	// The provider doesn't tell how long a session lasts, an hour has proven safe.
	sessionValidity = time.Hour
)

// Authenticator logs in to Oma Helen and provides the API access token.
// *session.Session implements it.
type Authenticator interface {
	Login(ctx context.Context, username, password string) error
	AccessToken() (string, error)
	Close()
}

type Config struct {
	APIURL  string         // default HelenAPIURLV14
	Tax     *float64       // VAT, default 0.24
	Margin  *float64       // seller margin in c/kWh added to spot prices, default 0.38
	Session session.Config // login chain endpoints
}

func (c Config) GetTax() float64 {
	if c.Tax == nil {
		return DefaultTax
	}
	return *c.Tax
}

func (c Config) GetMargin() float64 {
	if c.Margin == nil {
		return DefaultMargin
	}
	return *c.Margin
}

// Client is an Oma Helen REST API client. It is not safe for concurrent use.
type Client struct {
	logger      *slog.Logger
	apiURL      string
	tax         float64
	margin      float64
	httpClient  *http.Client
	newSession  func() Authenticator
	session     Authenticator
	latestLogin time.Time
	now         func() time.Time
	metrics     *Metrics
	cacheTTL    time.Duration

	dailyCache   *memo[MeasurementResponse]
	monthlyCache *memo[MeasurementResponse]
	hourlyCache  *memo[MeasurementResponse]
	spotCache    *memo[SpotPricesResponse]
	contracts    *memo[[]Contract]
}

type Option func(*Client)

// WithAuthenticator replaces the login chain, e.g. in tests.
func WithAuthenticator(newSession func() Authenticator) Option {
	return func(c *Client) { c.newSession = newSession }
}

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) { c.httpClient = httpClient }
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

func WithMetrics(m *Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// WithCacheTTL sets how long accessor results are reused, default one hour.
func WithCacheTTL(ttl time.Duration) Option {
	return func(c *Client) { c.cacheTTL = ttl }
}

func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

func NewClient(cfg Config, opts ...Option) *Client {
	c := &Client{
		logger:     slog.Default().With("module", "helen"),
		apiURL:     cfg.APIURL,
		tax:        cfg.GetTax(),
		margin:     cfg.GetMargin(),
		httpClient: &http.Client{Timeout: session.HTTPReadTimeout},
		now:        time.Now,
		cacheTTL:   DefaultCacheTTL,
	}
	if c.apiURL == "" {
		c.apiURL = HelenAPIURLV14
	}
	c.newSession = func() Authenticator {
		s := session.New(cfg.Session)
		s.SetLogger(c.logger.With("module", "session"))
		return s
	}

	for _, opt := range opts {
		opt(c)
	}

	c.dailyCache = newMemo[MeasurementResponse](c, "daily_measurements", 4)
	c.monthlyCache = newMemo[MeasurementResponse](c, "monthly_measurements", 2)
	c.hourlyCache = newMemo[MeasurementResponse](c, "hourly_measurements", 4)
	c.spotCache = newMemo[SpotPricesResponse](c, "hourly_spot_prices", 4)
	c.contracts = newMemo[[]Contract](c, "contracts", 2)

	return c
}

// Login creates a new session. The previous session, if any, is closed
// once the new one is in place.
func (c *Client) Login(ctx context.Context, username, password string) error {
	s := c.newSession()
	if err := s.Login(ctx, username, password); err != nil {
		return err
	}
	if c.session != nil {
		c.session.Close()
	}
	c.session = s
	c.latestLogin = c.now()
	return nil
}

// IsSessionValid reports whether the latest login happened within the last hour.
func (c *Client) IsSessionValid() bool {
	if c.latestLogin.IsZero() {
		return false
	}
	now := c.now()
	return !c.latestLogin.Before(now.Add(-sessionValidity)) && !c.latestLogin.After(now)
}

func (c *Client) Close() {
	if c.session != nil {
		c.session.Close()
		c.session = nil
	}
	c.latestLogin = time.Time{}
}

func (c *Client) Tax() float64 {
	return c.tax
}

func (c *Client) SetTax(tax float64) {
	c.tax = tax
}

func (c *Client) Margin() float64 {
	return c.margin
}

func (c *Client) SetMargin(margin float64) {
	c.margin = margin
}

// PurgeCache drops all memoized responses.
func (c *Client) PurgeCache() {
	c.dailyCache.purge()
	c.monthlyCache.purge()
	c.hourlyCache.purge()
	c.spotCache.purge()
	c.contracts.purge()
}

// AccessToken returns the token of the current session.
func (c *Client) AccessToken() (string, error) {
	if c.session == nil {
		return "", session.ErrMissingToken
	}
	return c.session.AccessToken()
}

func (c *Client) getJSON(ctx context.Context, endpoint string, params url.Values, out any) error {
	token, err := c.AccessToken()
	if err != nil {
		return err
	}

	u := c.apiURL + endpoint
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)
	if err != nil {
		c.metrics.observeRequest(endpoint, 0, duration)
		return fmt.Errorf("failed to fetch %s: %w", endpoint, err)
	}
	defer resp.Body.Close()
	c.metrics.observeRequest(endpoint, resp.StatusCode, duration)

	c.logger.Debug("API request",
		slog.String("endpoint", endpoint),
		slog.String("authorization", maskToken(token)),
		slog.Int("status", resp.StatusCode),
		slog.Duration("duration", duration))

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &APIError{StatusCode: resp.StatusCode, Endpoint: endpoint, Message: string(body)}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", endpoint, err)
	}
	return nil
}

func maskToken(token string) string {
	if len(token) > 12 {
		return token[:6] + "..." + token[len(token)-4:]
	}
	return "***"
}
