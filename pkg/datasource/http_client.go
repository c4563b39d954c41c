package datasource

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"

	"github.com/goliatone/go-appinsights/components/dashboard"
	"github.com/goliatone/go-appinsights/components/tabular"
)

// HTTPConfig configures the remote record client.
type HTTPConfig struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
}

// HTTPClient reads and writes collections exposed by a remote REST backend.
// Each collection lives at {base}/{collection} and {base}/{collection}/{id}.
type HTTPClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewHTTPClient builds a client for a remote collection backend.
func NewHTTPClient(cfg HTTPConfig) (*HTTPClient, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("datasource: base url is required")
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("datasource: invalid base url: %w", err)
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &HTTPClient{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		client:  httpClient,
	}, nil
}

// Collection returns a repository bound to one remote collection.
func (c *HTTPClient) Collection(name, entity string) dashboard.Repository {
	return &remoteCollection{client: c, name: name, entity: entity}
}

// Repositories binds every known collection.
func (c *HTTPClient) Repositories() Repositories {
	return Repositories{
		Apps:     c.Collection(dashboard.CollectionApps, "App"),
		Users:    c.Collection(dashboard.CollectionUsers, "User"),
		Logs:     c.Collection(dashboard.CollectionLogs, "Log"),
		Comments: c.Collection(dashboard.CollectionComments, "Comment"),
	}
}

type remoteCollection struct {
	client *HTTPClient
	name   string
	entity string
}

func (r *remoteCollection) All(ctx context.Context) ([]tabular.Record, error) {
	var out []tabular.Record
	if _, err := r.client.do(ctx, http.MethodGet, "/"+r.name, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *remoteCollection) Get(ctx context.Context, id int) (tabular.Record, error) {
	return r.one(ctx, http.MethodGet, id, nil)
}

func (r *remoteCollection) Create(ctx context.Context, record tabular.Record) (tabular.Record, error) {
	var out tabular.Record
	if _, err := r.client.do(ctx, http.MethodPost, "/"+r.name, record, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *remoteCollection) Update(ctx context.Context, id int, patch tabular.Record) (tabular.Record, error) {
	return r.one(ctx, http.MethodPut, id, patch)
}

func (r *remoteCollection) Delete(ctx context.Context, id int) (tabular.Record, error) {
	return r.one(ctx, http.MethodDelete, id, nil)
}

func (r *remoteCollection) one(ctx context.Context, method string, id int, payload any) (tabular.Record, error) {
	var out tabular.Record
	status, err := r.client.do(ctx, method, "/"+r.name+"/"+strconv.Itoa(id), payload, &out)
	if status == http.StatusNotFound {
		return nil, &dashboard.NotFoundError{Entity: r.entity, ID: id}
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *HTTPClient) do(ctx context.Context, method, path string, payload any, target any) (int, error) {
	var body io.Reader
	if payload != nil {
		data, err := sonic.Marshal(payload)
		if err != nil {
			return 0, fmt.Errorf("datasource: encode payload: %w", err)
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return 0, fmt.Errorf("datasource: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("datasource: http request: %w", err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, fmt.Errorf("datasource: read response: %w", err)
	}
	if resp.StatusCode >= 300 {
		return resp.StatusCode, fmt.Errorf("datasource: remote error %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}
	if target == nil || len(bytes.TrimSpace(data)) == 0 {
		return resp.StatusCode, nil
	}
	if err := sonic.Unmarshal(data, target); err != nil {
		return resp.StatusCode, fmt.Errorf("datasource: decode response: %w", err)
	}
	return resp.StatusCode, nil
}
