// Package apiclient talks to the remote wallet HTTP API.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"wallet/internal/cache"
	"wallet/internal/core"
	"wallet/internal/log"
	"wallet/internal/metrics"
	"wallet/internal/middleware/trace"
)

const (
	pathLogin        = "/auth/login"
	pathLogout       = "/auth/logout"
	pathTransactions = "/transactions"
	pathCategories   = "/categories"
	pathTxCategories = "/transactions/categories"

	// routeTransaction labels per-transaction calls in metrics and logs
	// so ids never become label values.
	routeTransaction = "/transactions/{id}"
)

// Options configures a Client
type Options struct {
	BaseURL     string
	Timeout     time.Duration
	RPS         float64
	CategoryTTL time.Duration
	HTTPClient  *http.Client
	Logger      *log.Logger
	Metrics     metrics.Recorder
}

// Client is safe for concurrent use; the bearer token travels in the
// request context (see WithToken).
type Client struct {
	baseURL    *url.URL
	http       *http.Client
	limiter    *rate.Limiter
	categories *cache.LRUCache[[]core.Category]
	logger     *log.Logger

	// genMu guards categoryGen, bumped whenever a token's cached listing
	// is invalidated, and every write to the category cache.
	genMu       sync.Mutex
	categoryGen map[string]uint64
	metrics    metrics.Recorder
}

// New validates options and builds a Client
func New(opts Options) (*Client, error) {
	base, err := url.Parse(opts.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse API base URL: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("API base URL %q: scheme must be http or https", opts.BaseURL)
	}

	hc := opts.HTTPClient
	if hc == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		hc = &http.Client{Timeout: timeout}
	}

	limit := rate.Inf
	burst := 1
	if opts.RPS > 0 {
		limit = rate.Limit(opts.RPS)
		burst = max(1, int(opts.RPS))
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	rec := opts.Metrics
	if rec == nil {
		rec = metrics.Nop{}
	}

	c := &Client{
		baseURL: base,
		http:    hc,
		limiter: rate.NewLimiter(limit, burst),
		logger:  logger.WithComponent(log.ComponentAPI),
		metrics: rec,

		categoryGen: map[string]uint64{},
	}
	if opts.CategoryTTL > 0 {
		c.categories = cache.NewLRUCache[[]core.Category](1000, opts.CategoryTTL)
	}
	return c, nil
}

// CategoryCache exposes the category cache for the cleanup manager; nil
// when caching is disabled.
func (c *Client) CategoryCache() *cache.LRUCache[[]core.Category] {
	return c.categories
}

// LoginResult is the API's answer to a successful login
type LoginResult struct {
	Token string    `json:"token"`
	User  core.User `json:"user"`
}

// Login exchanges credentials for a bearer token
func (c *Client) Login(ctx context.Context, email, password string) (LoginResult, error) {
	var res LoginResult
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, pathLogin, pathLogin, body, &res); err != nil {
		return LoginResult{}, err
	}
	if res.Token == "" {
		return LoginResult{}, &APIError{StatusCode: http.StatusBadGateway, Message: "Login response did not contain a token"}
	}
	return res, nil
}

// Logout invalidates the token server-side and drops its cached categories
func (c *Client) Logout(ctx context.Context) error {
	token := TokenFrom(ctx)
	c.invalidateCategories(token)
	c.genMu.Lock()
	delete(c.categoryGen, token)
	c.genMu.Unlock()
	return c.do(ctx, http.MethodPost, pathLogout, pathLogout, nil, nil)
}

// ListCategories returns the user's categories, cached per token
func (c *Client) ListCategories(ctx context.Context) ([]core.Category, error) {
	key := TokenFrom(ctx)
	if c.categories != nil {
		if cats, ok := c.categories.Get(key); ok {
			c.metrics.CacheLookup("categories", true)
			return append([]core.Category(nil), cats...), nil
		}
		c.metrics.CacheLookup("categories", false)
	}

	gen := c.categoryGeneration(key)
	var cats []core.Category
	if err := c.do(ctx, http.MethodGet, pathTxCategories, pathTxCategories, nil, &cats); err != nil {
		return nil, err
	}
	c.storeCategories(key, gen, cats)
	return cats, nil
}

func (c *Client) categoryGeneration(token string) uint64 {
	c.genMu.Lock()
	defer c.genMu.Unlock()
	return c.categoryGen[token]
}

// storeCategories caches cats unless the token's listing was invalidated
// after the request started; such a response may predate the change.
func (c *Client) storeCategories(token string, gen uint64, cats []core.Category) {
	if c.categories == nil {
		return
	}
	c.genMu.Lock()
	defer c.genMu.Unlock()
	if c.categoryGen[token] != gen {
		return
	}
	c.categories.Set(token, append([]core.Category(nil), cats...))
}

func (c *Client) invalidateCategories(token string) {
	if c.categories == nil {
		return
	}
	c.genMu.Lock()
	defer c.genMu.Unlock()
	c.categoryGen[token]++
	c.categories.Delete(token)
}

// CreateCategory posts {name, type}; the category cache for this token is
// dropped so the next listing includes it.
func (c *Client) CreateCategory(ctx context.Context, cat core.Category) (core.Category, error) {
	body := struct {
		Name string               `json:"name"`
		Type core.TransactionType `json:"type"`
	}{Name: cat.Name, Type: cat.Type}

	var created core.Category
	if err := c.do(ctx, http.MethodPost, pathCategories, pathCategories, body, &created); err != nil {
		return core.Category{}, err
	}
	c.invalidateCategories(TokenFrom(ctx))
	return created, nil
}

// ListTransactions returns every transaction of the user
func (c *Client) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	var txs []core.Transaction
	if err := c.do(ctx, http.MethodGet, pathTransactions, pathTransactions, nil, &txs); err != nil {
		return nil, err
	}
	return txs, nil
}

// CreateTransaction posts a transaction and returns the stored one,
// including the balance the API computed.
func (c *Client) CreateTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	var created core.Transaction
	if err := c.do(ctx, http.MethodPost, pathTransactions, pathTransactions, tx, &created); err != nil {
		return core.Transaction{}, err
	}
	return created, nil
}

// UpdateTransaction replaces the transaction with tx.ID by tx as a whole
// (PUT, no partial update) and returns the stored copy.
func (c *Client) UpdateTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	if tx.ID == "" {
		return core.Transaction{}, fmt.Errorf("update transaction: %w", core.ErrMissingID)
	}
	var updated core.Transaction
	if err := c.do(ctx, http.MethodPut, routeTransaction, transactionPath(tx.ID), tx, &updated); err != nil {
		return core.Transaction{}, err
	}
	return updated, nil
}

// DeleteTransaction removes a transaction by id
func (c *Client) DeleteTransaction(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, routeTransaction, transactionPath(id), nil, nil)
}

func transactionPath(id string) string {
	return pathTransactions + "/" + url.PathEscape(id)
}

// do sends one request. route is the path template used for metric labels
// and logs; path is the concrete path requested.
func (c *Client) do(ctx context.Context, method, route, path string, body, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s %s body: %w", method, path, err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL.JoinPath(path).String(), reader)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := TokenFrom(ctx); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	requestID := trace.GetRequestID(ctx)
	if requestID == "" {
		requestID = uuid.NewString()
	}
	req.Header.Set(trace.RequestIDHeader, requestID)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.metrics.ObserveAPICall(route, method, 0, time.Since(start))
		c.logger.WarnContext(ctx, "Wallet API request failed",
			log.FieldAPIEndpoint, route,
			log.FieldMethod, method,
			log.FieldRequestID, requestID,
			"error_type", log.ErrorTypeNetwork,
			log.FieldError, err)
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	c.metrics.ObserveAPICall(route, method, resp.StatusCode, time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := decodeAPIError(resp)
		c.logger.WarnContext(ctx, "Wallet API returned an error",
			log.FieldAPIEndpoint, route,
			log.FieldMethod, method,
			log.FieldStatusCode, resp.StatusCode,
			log.FieldRequestID, requestID,
			"error_type", log.ErrorTypeAPI,
			log.FieldError, apiErr.Message)
		return fmt.Errorf("%s %s: %w", method, path, apiErr)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", method, path, err)
	}
	return nil
}
