// Package kobo loads form submissions from a KoboToolbox-compatible API.
package kobo

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/tidwall/gjson"

	"surveydash/adapters/ratelimit"
	"surveydash/domain/dataset"
	"surveydash/internal"
	apperrors "surveydash/internal/errors"
)

const submissionTimeLayout = "2006-01-02T15:04:05"

// Config configures the API client
type Config struct {
	BaseURL   string
	Token     string
	Timeout   time.Duration
	PageSize  int
	RateLimit int // requests per minute, 0 disables pacing
}

// Client fetches submissions page by page
type Client struct {
	config      Config
	httpClient  *http.Client
	rateLimiter *ratelimit.RateLimiter
	logger      *internal.Logger
}

// NewClient creates a client for the given API root (for example
// https://eu.kobotoolbox.org/api/v2)
func NewClient(config Config) *Client {
	if config.PageSize <= 0 {
		config.PageSize = 1000
	}
	c := &Client{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
		logger:     internal.DefaultLogger.WithComponent("KoboSource"),
	}
	if config.RateLimit > 0 {
		c.rateLimiter = ratelimit.NewRateLimiter(config.RateLimit, 1)
	}
	return c
}

// Load fetches every submission of the asset, following pagination. Columns
// appear in the order they are first seen.
func (c *Client) Load(ctx context.Context, query dataset.Query) (*dataset.Table, error) {
	start := time.Now()
	table := dataset.New()

	next := c.firstPageURL(query)
	pages := 0
	for next != "" {
		body, err := c.get(ctx, next)
		if err != nil {
			return nil, apperrors.ExternalServiceError("kobo", err)
		}

		results := gjson.GetBytes(body, "results")
		if !results.IsArray() {
			return nil, apperrors.ExternalServiceError("kobo", fmt.Errorf("page %d has no results array", pages+1))
		}
		results.ForEach(func(_, record gjson.Result) bool {
			appendRecord(table, record)
			return true
		})

		pages++
		next = gjson.GetBytes(body, "next").String()
	}

	c.logger.Info("loaded %d submissions for %s in %d pages (%.2fms)",
		table.Len(), query.AssetUID, pages, float64(time.Since(start).Nanoseconds())/1e6)
	return table, nil
}

func (c *Client) firstPageURL(query dataset.Query) string {
	params := url.Values{}
	params.Set("format", "json")
	params.Set("limit", fmt.Sprint(c.config.PageSize))
	if !query.SubmittedAfter.IsZero() {
		after := query.SubmittedAfter.UTC().Format(submissionTimeLayout)
		params.Set("query", fmt.Sprintf(`{"_submission_time": {"$gt": %q}}`, after))
	}
	return fmt.Sprintf("%s/assets/%s/data/?%s", c.config.BaseURL, url.PathEscape(query.AssetUID), params.Encode())
}

func (c *Client) get(ctx context.Context, pageURL string) ([]byte, error) {
	if c.rateLimiter != nil {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.config.Token != "" {
		req.Header.Set("Authorization", "Token "+c.config.Token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API returned status %d: %s", resp.StatusCode, truncate(body, 256))
	}
	return body, nil
}

// appendRecord adds one submission. Nested arrays and objects (repeat
// groups, attachments) are kept as raw JSON text.
func appendRecord(table *dataset.Table, record gjson.Result) {
	values := make(map[string]dataset.Value)
	record.ForEach(func(key, value gjson.Result) bool {
		column := key.String()
		table.EnsureColumn(column)
		values[column] = cellFromJSON(value)
		return true
	})
	table.AppendRow(values)
}

func cellFromJSON(v gjson.Result) dataset.Value {
	switch v.Type {
	case gjson.String:
		return dataset.NewString(v.Str)
	case gjson.Number:
		return dataset.NewNumber(v.Num)
	case gjson.True, gjson.False:
		return dataset.NewString(v.Raw)
	case gjson.JSON:
		return dataset.NewString(v.Raw)
	}
	return dataset.Missing()
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}

// Close stops request pacing
func (c *Client) Close() {
	if c.rateLimiter != nil {
		c.rateLimiter.Stop()
	}
}
