// Package stockapi is the typed gateway to the remote forecast backend.
// It owns request construction and response decoding and nothing else:
// no retries, no caching, no state. Callers decide how failures degrade.
package stockapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/nomixtrade/marketsync/pkg/logger"
	"github.com/nomixtrade/marketsync/pkg/metrics"
	"github.com/nomixtrade/marketsync/pkg/models"
)

// Client talks HTTP/JSON to the forecast backend.
type Client struct {
	baseURL string
	http    *http.Client
}

// New constructs a Client with a tuned transport. One Client is meant to
// be shared by every component of the process.
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		http: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 5,
				IdleConnTimeout:     30 * time.Second,
			},
		},
	}
}

// ListStocks fetches the stock set for one trading date.
func (c *Client) ListStocks(ctx context.Context, targetDate time.Time) ([]models.Stock, error) {
	q := url.Values{"target_date": {targetDate.Format(models.TradeDateLayout)}}
	var stocks []models.Stock
	if err := c.get(ctx, "list_stocks", "/stocks", q, &stocks); err != nil {
		return nil, err
	}
	return stocks, nil
}

// GetIndexSnapshot fetches the index state for one trading date.
// A backend 404 means "no data for this date" and yields (nil, nil).
func (c *Client) GetIndexSnapshot(ctx context.Context, targetDate time.Time) (*models.IndexSnapshot, error) {
	q := url.Values{"target_date": {targetDate.Format(models.TradeDateLayout)}}
	var snap models.IndexSnapshot
	err := c.get(ctx, "index_snapshot", "/index_data", q, &snap)
	if err != nil {
		if isStatus(err, http.StatusNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &snap, nil
}

// GetCompany fetches a company's profile together with its latest market
// snapshot. Unknown symbols yield ErrNotFound.
func (c *Client) GetCompany(ctx context.Context, symbol string) (models.CompanyDetails, error) {
	var details models.CompanyDetails
	err := c.get(ctx, "company", "/company/"+url.PathEscape(symbol), nil, &details)
	if err != nil {
		if isStatus(err, http.StatusNotFound) {
			return details, fmt.Errorf("company %s: %w", symbol, ErrNotFound)
		}
		return details, err
	}
	return details, nil
}

// GetCompanyGraph fetches the time-ordered forecast series for a symbol.
func (c *Client) GetCompanyGraph(ctx context.Context, symbol string) ([]models.GraphPoint, error) {
	var series []models.GraphPoint
	err := c.get(ctx, "company_graph", "/company/"+url.PathEscape(symbol)+"/graph", nil, &series)
	if err != nil {
		if isStatus(err, http.StatusNotFound) {
			return nil, fmt.Errorf("graph for %s: %w", symbol, ErrNotFound)
		}
		return nil, err
	}
	return series, nil
}

// ListFavorites fetches the favorited symbols of a user.
func (c *Client) ListFavorites(ctx context.Context, userID int64) ([]string, error) {
	var symbols []string
	if err := c.get(ctx, "list_favorites", "/favorites/"+strconv.FormatInt(userID, 10), nil, &symbols); err != nil {
		return nil, err
	}
	return symbols, nil
}

type favoriteRequest struct {
	UserID      int64  `json:"user_id"`
	StockSymbol string `json:"stock_symbol"`
}

// AddFavorite records a favorite on the backend.
func (c *Client) AddFavorite(ctx context.Context, userID int64, symbol string) error {
	return c.post(ctx, "add_favorite", "/favorites/add", favoriteRequest{UserID: userID, StockSymbol: symbol}, nil)
}

// RemoveFavorite deletes a favorite on the backend.
func (c *Client) RemoveFavorite(ctx context.Context, userID int64, symbol string) error {
	return c.post(ctx, "remove_favorite", "/favorites/remove", favoriteRequest{UserID: userID, StockSymbol: symbol}, nil)
}

// Signup registers a new account. The request is validated locally
// before any network traffic.
func (c *Client) Signup(ctx context.Context, req models.SignupRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}
	return c.post(ctx, "signup", "/signup", req, nil)
}

// Login exchanges credentials for the user's identity. Callers feed the
// result into session.Context.Login.
func (c *Client) Login(ctx context.Context, email, password string) (models.LoginResult, error) {
	req := models.LoginRequest{Email: email, Password: password}
	var result models.LoginResult
	if err := req.Validate(); err != nil {
		return result, err
	}
	if err := c.post(ctx, "login", "/login", req, &result); err != nil {
		return result, err
	}
	return result, nil
}

// get issues a GET and decodes the 2xx body into out.
func (c *Client) get(ctx context.Context, op, path string, query url.Values, out interface{}) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("%s: building request: %w", op, err)
	}
	return c.do(op, req, out)
}

// post issues a POST with a JSON body and decodes the 2xx body into out
// when out is non-nil.
func (c *Client) post(ctx context.Context, op, path string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("%s: encoding request: %w", op, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("%s: building request: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(op, req, out)
}

// do executes the request, recording duration and classifying failures
// into the NetworkError / ServiceError taxonomy.
func (c *Client) do(op string, req *http.Request, out interface{}) error {
	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.observe(op, "network_error", start)
		metrics.GatewayErrors.WithLabelValues(op).Inc()
		return &NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail := decodeDetail(resp.Body)
		c.observe(op, strconv.Itoa(resp.StatusCode), start)
		if resp.StatusCode != http.StatusNotFound {
			metrics.GatewayErrors.WithLabelValues(op).Inc()
			logger.Log.Warn("backend rejected request",
				zap.String("operation", op),
				zap.Int("status", resp.StatusCode),
				zap.String("detail", detail))
		}
		return &ServiceError{Status: resp.StatusCode, Detail: detail}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			c.observe(op, "decode_error", start)
			metrics.GatewayErrors.WithLabelValues(op).Inc()
			return &NetworkError{Op: op, Err: fmt.Errorf("decoding response: %w", err)}
		}
	}
	c.observe(op, "success", start)
	return nil
}

func (c *Client) observe(op, status string, start time.Time) {
	metrics.GatewayRequestDuration.WithLabelValues(op, status).Observe(time.Since(start).Seconds())
}

// decodeDetail pulls the backend's {"detail": "..."} message if present.
func decodeDetail(r io.Reader) string {
	var body struct {
		Detail string `json:"detail"`
	}
	if err := json.NewDecoder(r).Decode(&body); err != nil {
		return ""
	}
	return body.Detail
}

// isStatus reports whether err is a ServiceError with the given status.
func isStatus(err error, status int) bool {
	var se *ServiceError
	return errors.As(err, &se) && se.Status == status
}
