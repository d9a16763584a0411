// Package redash pulls delivery-exception records from the Redash query
// service with the refresh → poll → fetch cycle its API requires.
package redash

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/vnbi/hco-tools/internal/config"
	"github.com/vnbi/hco-tools/internal/domain"
	"github.com/vnbi/hco-tools/internal/pkg/logger"
	"github.com/vnbi/hco-tools/internal/pkg/retry"
)

// ErrConnectivity marks failures to get an answer out of the query service
// after the retry policies are exhausted.
var ErrConnectivity = errors.New("query service connectivity error")

// chunkSize caps the number of keys per query to respect request-size limits.
const chunkSize = 1000

// HTTPDoer is the interface for executing HTTP requests.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client is a Redash API client bound to one saved query.
type Client struct {
	baseURL    string
	apiKey     string
	queryID    int
	httpClient HTTPDoer

	refreshPolicy retry.Policy
	pollPolicy    retry.Policy
}

// NewClient creates a new Redash client.
func NewClient(cfg config.RedashConfig) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		queryID: cfg.QueryID,
		httpClient: &http.Client{
			Timeout: cfg.Timeout(),
		},
		refreshPolicy: retry.Policy{MaxAttempts: 7, Wait: 10 * time.Second},
		// Poll until the job settles; a queued query can sit for a while.
		pollPolicy: retry.Policy{MaxAttempts: 0, Wait: 10 * time.Second},
	}
}

// Query runs the saved query for the given tracking ids and returns the
// combined result set. The id list is split into chunks of at most 1000 and
// one refresh/poll/fetch cycle is issued per chunk; row order across chunks
// is not significant.
func (c *Client) Query(ctx context.Context, trackingIDs []string) ([]domain.Record, error) {
	var records []domain.Record

	chunks := chunk(trackingIDs, chunkSize)
	for i, ids := range chunks {
		logger.Info("querying chunk", "chunk", i+1, "chunks", len(chunks), "keys", len(ids))
		rows, err := c.queryChunk(ctx, ids)
		if err != nil {
			return nil, fmt.Errorf("chunk %d/%d: %w", i+1, len(chunks), err)
		}
		for _, row := range rows {
			records = append(records, recordFromRow(row))
		}
	}

	logger.Info("query complete", "records", len(records))
	return records, nil
}

func (c *Client) queryChunk(ctx context.Context, ids []string) ([]map[string]interface{}, error) {
	jobID, err := c.refresh(ctx, ids)
	if err != nil {
		return nil, err
	}

	resultID, err := c.pollJob(ctx, jobID)
	if err != nil {
		return nil, err
	}

	return c.fetchResult(ctx, resultID)
}

// refresh submits a query refresh and returns the job handle. Any
// non-success response is retried under the refresh policy.
func (c *Client) refresh(ctx context.Context, ids []string) (string, error) {
	body, err := json.Marshal(refreshRequest{
		MaxAge:     0,
		Parameters: map[string]string{"tracking_id": inClause(ids)},
	})
	if err != nil {
		return "", fmt.Errorf("encoding refresh request: %w", err)
	}

	var jobID string
	err = retry.Do(ctx, "refresh query", c.refreshPolicy, func() (retry.Outcome, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost,
			fmt.Sprintf("%s/api/queries/%d/results", c.baseURL, c.queryID),
			bytes.NewReader(body))
		if err != nil {
			return retry.Fatal, err
		}
		c.setHeaders(req)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return retry.Again, fmt.Errorf("%w: %v", ErrConnectivity, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			io.Copy(io.Discard, resp.Body)
			return retry.Again, fmt.Errorf("%w: refresh returned status %d", ErrConnectivity, resp.StatusCode)
		}

		var jr jobResponse
		if err := json.NewDecoder(resp.Body).Decode(&jr); err != nil {
			return retry.Again, fmt.Errorf("%w: decoding refresh response: %v", ErrConnectivity, err)
		}
		jobID = jr.Job.ID
		return retry.Done, nil
	})
	return jobID, err
}

// pollJob waits for the job to finish and returns the result handle.
// Queued/started jobs keep the poll loop going; failed or cancelled jobs are
// a connectivity error.
func (c *Client) pollJob(ctx context.Context, jobID string) (int, error) {
	var resultID int
	err := retry.Do(ctx, "poll job", c.pollPolicy, func() (retry.Outcome, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet,
			fmt.Sprintf("%s/api/jobs/%s", c.baseURL, jobID), nil)
		if err != nil {
			return retry.Fatal, err
		}
		c.setHeaders(req)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return retry.Again, fmt.Errorf("%w: %v", ErrConnectivity, err)
		}
		defer resp.Body.Close()

		var jr jobResponse
		if err := json.NewDecoder(resp.Body).Decode(&jr); err != nil {
			return retry.Again, fmt.Errorf("%w: decoding job status: %v", ErrConnectivity, err)
		}

		switch jr.Job.Status {
		case jobFinished:
			resultID = jr.Job.QueryResultID
			return retry.Done, nil
		case jobQueued, jobStarted:
			return retry.Again, fmt.Errorf("job %s still pending", jobID)
		default:
			return retry.Fatal, fmt.Errorf("%w: job %s failed: %s", ErrConnectivity, jobID, jr.Job.Error)
		}
	})
	return resultID, err
}

// fetchResult downloads the finished result rows. Not retried: by the time a
// result id exists the data is materialized, and a failure here is reported
// as a connectivity error.
func (c *Client) fetchResult(ctx context.Context, resultID int) ([]map[string]interface{}, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/api/query_results/%d", c.baseURL, resultID), nil)
	if err != nil {
		return nil, err
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnectivity, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: fetch result returned status %d", ErrConnectivity, resp.StatusCode)
	}

	var qr queryResultResponse
	if err := json.NewDecoder(resp.Body).Decode(&qr); err != nil {
		return nil, fmt.Errorf("%w: decoding query result: %v", ErrConnectivity, err)
	}
	return qr.QueryResult.Data.Rows, nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Key "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
}

// inClause renders the ids the way the saved query's IN-clause parameter
// expects: 'a', 'b', 'c'.
func inClause(ids []string) string {
	return "'" + strings.Join(ids, "', '") + "'"
}

func chunk(ids []string, size int) [][]string {
	if len(ids) == 0 {
		return nil
	}
	var out [][]string
	for start := 0; start < len(ids); start += size {
		end := start + size
		if end > len(ids) {
			end = len(ids)
		}
		out = append(out, ids[start:end])
	}
	return out
}
