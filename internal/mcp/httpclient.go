package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/claude/repcount/internal/models"
	"github.com/claude/repcount/internal/storage"
)

// HTTPClient implements DataSource by calling the RepCount REST API.
// Used for remote MCP mode where the binary runs locally (stdio) but
// data lives on the remote server (accessed over Tailscale).
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
}

// Compile-time check: HTTPClient satisfies DataSource.
var _ DataSource = (*HTTPClient)(nil)

// NewHTTPClient creates an HTTPClient targeting the given base URL.
func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *HTTPClient) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("httpclient: create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("httpclient: %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("httpclient: read body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("httpclient: %s returned %d: %s", path, resp.StatusCode, body)
	}

	return body, nil
}

func timeParams(start, end time.Time) url.Values {
	v := url.Values{}
	v.Set("start", start.Format(time.RFC3339))
	v.Set("end", end.Format(time.RFC3339))
	return v
}

func (c *HTTPClient) QuerySessions(ctx context.Context, start, end time.Time) ([]models.SessionRow, error) {
	body, err := c.get(ctx, "/api/v1/history", timeParams(start, end))
	if err != nil {
		return nil, err
	}

	var sessions []models.SessionRow
	if err := json.Unmarshal(body, &sessions); err != nil {
		return nil, fmt.Errorf("httpclient: decode history: %w", err)
	}
	return sessions, nil
}

func (c *HTTPClient) GetSession(ctx context.Context, id uuid.UUID) (*storage.SessionDetail, error) {
	body, err := c.get(ctx, "/api/v1/history/"+id.String(), nil)
	if err != nil {
		return nil, err
	}

	var detail storage.SessionDetail
	if err := json.Unmarshal(body, &detail); err != nil {
		return nil, fmt.Errorf("httpclient: decode session: %w", err)
	}
	return &detail, nil
}

// statsEnvelope matches the combined /api/v1/stats response.
type statsEnvelope struct {
	Totals *storage.TrainingStats `json:"totals"`
	Daily  []storage.DailyTotal   `json:"daily"`
	Best   *models.SessionRow     `json:"best"`
}

func (c *HTTPClient) stats(ctx context.Context, start, end time.Time) (*statsEnvelope, error) {
	body, err := c.get(ctx, "/api/v1/stats", timeParams(start, end))
	if err != nil {
		return nil, err
	}

	var env statsEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("httpclient: decode stats: %w", err)
	}
	return &env, nil
}

func (c *HTTPClient) GetTrainingStats(ctx context.Context, start, end time.Time) (*storage.TrainingStats, error) {
	env, err := c.stats(ctx, start, end)
	if err != nil {
		return nil, err
	}
	return env.Totals, nil
}

func (c *HTTPClient) GetDailyTotals(ctx context.Context, start, end time.Time) ([]storage.DailyTotal, error) {
	env, err := c.stats(ctx, start, end)
	if err != nil {
		return nil, err
	}
	return env.Daily, nil
}

func (c *HTTPClient) GetBestSession(ctx context.Context, start, end time.Time) (*models.SessionRow, error) {
	env, err := c.stats(ctx, start, end)
	if err != nil {
		return nil, err
	}
	return env.Best, nil
}
