package clients

import (
	"bytes"
	"context"
	"errors"
	"net"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"gocatalog_crawler/pkg/logger"
)

const searchEndpoint = "/busqueda_avanzada_fc_xml.php"

type Outcome string

const (
	OutcomeFetched   Outcome = "fetched"
	OutcomeEmpty     Outcome = "empty"
	OutcomeRejected  Outcome = "rejected"
	OutcomeTimeout   Outcome = "timeout"
	OutcomeTransport Outcome = "transport_error"
)

// Response is the result of one search term, retries included.
type Response struct {
	Body       []byte
	Outcome    Outcome
	Attempts   int
	StatusCode int
	Duration   time.Duration
	Err        error
}

// Absent reports whether the term produced no usable payload.
func (r Response) Absent() bool { return r.Outcome != OutcomeFetched }

type SearchOptions struct {
	UserID            string
	Concurrency       int
	MinDelay          time.Duration
	RequestsPerSecond float64
	MaxRetries        int
	RetryInterval     time.Duration
}

// SearchClient queries the Daterium search endpoint under a fixed pool of permits.
type SearchClient struct {
	BaseClient
	opts    SearchOptions
	permits *semaphore.Weighted
	limiter *rate.Limiter
}

func NewSearchClient(base *BaseClient, opts SearchOptions) *SearchClient {
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	c := &SearchClient{
		BaseClient: *base,
		opts:       opts,
		permits:    semaphore.NewWeighted(int64(opts.Concurrency)),
	}
	if opts.RequestsPerSecond > 0 {
		burst := int(opts.RequestsPerSecond)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), burst)
	}
	c.log = base.log.Named("search")
	return c
}

func (c *SearchClient) Concurrency() int { return c.opts.Concurrency }

// Acquire blocks until a permit is free. The caller must invoke release once.
func (c *SearchClient) Acquire(ctx context.Context) (func(), error) {
	if err := c.permits.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	return func() { c.permits.Release(1) }, nil
}

// Fetch runs one search. Timeouts are retried, anything else is final.
func (c *SearchClient) Fetch(ctx context.Context, term string) Response {
	started := time.Now()
	query := url.Values{}
	query.Set("userID", c.opts.UserID)
	query.Set("searchbox", term)

	var resp Response
	for attempt := 1; attempt <= c.opts.MaxRetries+1; attempt++ {
		resp.Attempts = attempt
		if err := c.pace(ctx, attempt); err != nil {
			resp.Outcome, resp.Err = OutcomeTransport, err
			break
		}

		status, body, err := c.doRequest(ctx, searchEndpoint, query)
		resp.StatusCode = status
		if err != nil {
			resp.Err = err
			if isTimeout(err) && ctx.Err() == nil {
				resp.Outcome = OutcomeTimeout
				c.log.Debug("Search request timed out",
					logger.String("term", term),
					logger.Int("attempt", attempt))
				continue
			}
			resp.Outcome = OutcomeTransport
			break
		}

		resp.Err = nil
		switch {
		case status < 200 || status > 299:
			resp.Outcome = OutcomeRejected
		case len(bytes.TrimSpace(body)) == 0:
			resp.Outcome = OutcomeEmpty
		default:
			resp.Outcome = OutcomeFetched
			resp.Body = body
		}
		break
	}
	resp.Duration = time.Since(started)
	return resp
}

// pace applies the minimum delay, the retry interval and the global rate.
func (c *SearchClient) pace(ctx context.Context, attempt int) error {
	wait := c.opts.MinDelay
	if attempt > 1 && c.opts.RetryInterval > wait {
		wait = c.opts.RetryInterval
	}
	if err := sleep(ctx, wait); err != nil {
		return err
	}
	if c.limiter != nil {
		return c.limiter.Wait(ctx)
	}
	return nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// EntryQuery is the search term that returns the ficha with the given id.
func EntryQuery(id int64) string {
	return strconv.FormatInt(id, 10)
}
