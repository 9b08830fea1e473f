package reddit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"botreplymsg/pkg/logx"
)

const (
	DefaultAPIBase           = "https://oauth.reddit.com"
	DefaultTokenURL          = "https://www.reddit.com/api/v1/access_token"
	DefaultRequestTimeout    = 15 * time.Second
	DefaultRequestsPerMinute = 60

	maxBodyBytes  = 8 << 20
	maxErrorBytes = 1 << 10
)

// Config configures a script-app client (password grant).
type Config struct {
	ClientID     string
	ClientSecret string
	Username     string
	Password     string
	UserAgent    string

	APIBase  string
	TokenURL string

	RequestTimeout    time.Duration
	RequestsPerMinute int
}

// Client talks to the Reddit OAuth API. It implements the lookup and
// messaging capabilities the relay needs.
type Client struct {
	cfg     Config
	base    *url.URL
	http    *http.Client
	limiter *rate.Limiter
	log     logx.Logger
}

func NewClient(cfg Config, log logx.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.ClientID) == "" || strings.TrimSpace(cfg.Username) == "" {
		return nil, errors.New("reddit: client_id and username are required")
	}
	if cfg.APIBase == "" {
		cfg.APIBase = DefaultAPIBase
	}
	if cfg.TokenURL == "" {
		cfg.TokenURL = DefaultTokenURL
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = DefaultRequestTimeout
	}
	if cfg.RequestsPerMinute <= 0 {
		cfg.RequestsPerMinute = DefaultRequestsPerMinute
	}
	if strings.TrimSpace(cfg.UserAgent) == "" {
		cfg.UserAgent = "botreplymsg/1.0 (by u/" + cfg.Username + ")"
	}
	base, err := url.Parse(cfg.APIBase)
	if err != nil {
		return nil, fmt.Errorf("reddit: api_base: %w", err)
	}

	// Token requests and API requests share the same User-Agent transport.
	baseClient := &http.Client{
		Timeout:   cfg.RequestTimeout,
		Transport: &userAgentTransport{ua: cfg.UserAgent, next: http.DefaultTransport},
	}
	tokenCtx := context.WithValue(context.Background(), oauth2.HTTPClient, baseClient)
	oc := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Endpoint: oauth2.Endpoint{
			TokenURL:  cfg.TokenURL,
			AuthStyle: oauth2.AuthStyleInHeader,
		},
	}
	src := oauth2.ReuseTokenSource(nil, &passwordSource{ctx: tokenCtx, conf: oc, user: cfg.Username, pass: cfg.Password})
	hc := oauth2.NewClient(tokenCtx, src)
	hc.Timeout = cfg.RequestTimeout

	// Reddit allows a short burst on top of the per-minute quota.
	per := time.Minute / time.Duration(cfg.RequestsPerMinute)
	return &Client{
		cfg:     cfg,
		base:    base,
		http:    hc,
		limiter: rate.NewLimiter(rate.Every(per), 5),
		log:     log.With(logx.String("comp", "reddit")),
	}, nil
}

// Username is the account the client is authenticated as.
func (c *Client) Username() string { return c.cfg.Username }

// passwordSource fetches a fresh token with the password grant. Reddit does
// not issue refresh tokens to script apps, so expiry means a new grant.
type passwordSource struct {
	ctx        context.Context
	conf       *oauth2.Config
	user, pass string
}

func (p *passwordSource) Token() (*oauth2.Token, error) {
	tok, err := p.conf.PasswordCredentialsToken(p.ctx, p.user, p.pass)
	if err != nil {
		return nil, fmt.Errorf("reddit: token: %w", err)
	}
	return tok, nil
}

type userAgentTransport struct {
	ua   string
	next http.RoundTripper
}

func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	r := req.Clone(req.Context())
	r.Header.Set("User-Agent", t.ua)
	return t.next.RoundTrip(r)
}

// call performs one API request. endpoint is a fixed metrics label. When
// form is non-nil the request is a form POST. out may be nil.
func (c *Client) call(ctx context.Context, endpoint, method, path string, query, form url.Values, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	u := c.base.JoinPath(path)
	if query == nil {
		query = url.Values{}
	}
	query.Set("raw_json", "1")
	u.RawQuery = query.Encode()

	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	requestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	if err != nil {
		requestsTotal.WithLabelValues(endpoint, "0").Inc()
		return fmt.Errorf("reddit %s: %w", endpoint, err)
	}
	defer resp.Body.Close()
	requestsTotal.WithLabelValues(endpoint, strconv.Itoa(resp.StatusCode)).Inc()
	c.trackRateLimit(resp.Header)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBytes))
		return &APIError{Status: resp.StatusCode, Message: strings.TrimSpace(string(msg))}
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(out); err != nil {
		return fmt.Errorf("reddit %s: decode: %w", endpoint, err)
	}
	return nil
}

func (c *Client) trackRateLimit(h http.Header) {
	v := h.Get("X-Ratelimit-Remaining")
	if v == "" {
		return
	}
	remaining, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return
	}
	rateLimitRemaining.Set(remaining)
	if remaining < 5 {
		c.log.Warn("reddit rate limit nearly exhausted",
			logx.Float64("remaining", remaining),
			logx.String("reset_s", h.Get("X-Ratelimit-Reset")),
		)
	}
}
