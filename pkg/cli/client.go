package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// APIError is a non-2xx response from the catalog API.
type APIError struct {
	HTTPStatus int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s (HTTP %d)", e.Message, e.HTTPStatus)
}

// Client is a thin JSON client for the catalog HTTP API.
type Client struct {
	host string
	http *http.Client
}

// NewClient creates a client for the given host URL.
func NewClient(host string) *Client {
	return &Client{
		host: strings.TrimRight(host, "/"),
		http: &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.host+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode >= 400 {
		var payload struct {
			Error string `json:"error"`
		}
		message := resp.Status
		if json.NewDecoder(resp.Body).Decode(&payload) == nil && payload.Error != "" {
			message = payload.Error
		}
		return &APIError{HTTPStatus: resp.StatusCode, Message: message}
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// Column mirrors the API's column payload.
type Column struct {
	Name string `json:"name"`
	Type string `json:"type,omitempty"`
}

// Dataset mirrors the API's dataset payload.
type Dataset struct {
	ID          string    `json:"id"`
	FQN         string    `json:"fqn"`
	Layer       string    `json:"layer"`
	Columns     []Column  `json:"columns"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// LineageNode mirrors the API's lineage response.
type LineageNode struct {
	FQN        string    `json:"fqn"`
	Upstream   []Dataset `json:"upstream"`
	Downstream []Dataset `json:"downstream"`
}

// SearchHit mirrors one entry of the API's search response.
type SearchHit struct {
	Dataset        Dataset  `json:"dataset"`
	MatchField     string   `json:"match_field"`
	Priority       int      `json:"priority"`
	UpstreamFQNs   []string `json:"upstream_fqns,omitempty"`
	DownstreamFQNs []string `json:"downstream_fqns,omitempty"`
}

// RegisterDataset creates a new dataset.
func (c *Client) RegisterDataset(ctx context.Context, fqn, layer string, columns []Column, description string) (*Dataset, error) {
	var out Dataset
	err := c.do(ctx, http.MethodPost, "/v1/datasets", map[string]interface{}{
		"fqn":         fqn,
		"layer":       layer,
		"columns":     columns,
		"description": description,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// GetDataset fetches a dataset by FQN.
func (c *Client) GetDataset(ctx context.Context, fqn string) (*Dataset, error) {
	var out Dataset
	if err := c.do(ctx, http.MethodGet, "/v1/datasets/"+url.PathEscape(fqn), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListDatasets fetches one page of datasets.
func (c *Client) ListDatasets(ctx context.Context) ([]Dataset, error) {
	var out struct {
		Datasets []Dataset `json:"datasets"`
	}
	if err := c.do(ctx, http.MethodGet, "/v1/datasets", nil, &out); err != nil {
		return nil, err
	}
	return out.Datasets, nil
}

// DeleteDataset removes a dataset by FQN.
func (c *Client) DeleteDataset(ctx context.Context, fqn string) error {
	return c.do(ctx, http.MethodDelete, "/v1/datasets/"+url.PathEscape(fqn), nil, nil)
}

// AddLineage creates a lineage edge between two registered datasets.
func (c *Client) AddLineage(ctx context.Context, upstreamFQN, downstreamFQN string) error {
	return c.do(ctx, http.MethodPost, "/v1/lineage", map[string]string{
		"upstream_fqn":   upstreamFQN,
		"downstream_fqn": downstreamFQN,
	}, nil)
}

// GetLineage fetches upstream and downstream datasets for an FQN.
func (c *Client) GetLineage(ctx context.Context, fqn string, depth int) (*LineageNode, error) {
	path := "/v1/datasets/" + url.PathEscape(fqn) + "/lineage"
	if depth > 0 {
		path += fmt.Sprintf("?depth=%d", depth)
	}
	var out LineageNode
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Search queries the catalog.
func (c *Client) Search(ctx context.Context, query string, includeLineage bool) ([]SearchHit, error) {
	params := url.Values{}
	params.Set("q", query)
	if includeLineage {
		params.Set("include_lineage", "true")
	}
	var out struct {
		Results []SearchHit `json:"results"`
	}
	if err := c.do(ctx, http.MethodGet, "/v1/search?"+params.Encode(), nil, &out); err != nil {
		return nil, err
	}
	return out.Results, nil
}
