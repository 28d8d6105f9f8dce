package clients

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"gocatalog_crawler/pkg/logger"
	"gocatalog_crawler/pkg/middleware"
)

// NewHTTPClient builds the transport shared by every client of one process.
func NewHTTPClient(connectTimeout, requestTimeout time.Duration, mws ...middleware.Middleware) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DialContext = (&net.Dialer{Timeout: connectTimeout, KeepAlive: 30 * time.Second}).DialContext
	transport.TLSHandshakeTimeout = connectTimeout
	transport.MaxIdleConnsPerHost = 16
	return &http.Client{Timeout: requestTimeout, Transport: middleware.Chain(transport, mws...)}
}

type BaseClient struct {
	ApiURL    string
	UserAgent string
	log       logger.Logger
	client    *http.Client
}

func NewBaseClient(apiURL, userAgent string, client *http.Client, log logger.Logger) *BaseClient {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &BaseClient{
		ApiURL:    apiURL,
		UserAgent: userAgent,
		log:       log,
		client:    client,
	}
}

// doRequest issues a GET and returns the status code with the raw body.
func (c *BaseClient) doRequest(ctx context.Context, endpoint string, query url.Values) (int, []byte, error) {
	target := fmt.Sprintf("%s%s", c.ApiURL, endpoint)
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.UserAgent)
	req.Header.Set("Accept", "application/xml")

	resp, err := c.client.Do(req)
	if err != nil {
		select {
		case <-ctx.Done():
			return 0, nil, fmt.Errorf("request was cancelled: %w", ctx.Err())
		default:
			return 0, nil, fmt.Errorf("failed to execute request: %w", err)
		}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return resp.StatusCode, body, nil
}
