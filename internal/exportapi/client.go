// Copyright (C) 2025 CardinalHQ, Inc
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, version 3.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <http://www.gnu.org/licenses/>.

package exportapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	// DefaultBaseURL is the public iSamples Central export service.
	DefaultBaseURL = "https://central.isample.xyz/isamples_central/export/"

	DefaultTimeout = 60 * time.Second

	// maxErrorBody bounds how much of a failed response is kept for error messages.
	maxErrorBody = 4096
)

// Options configures a Client.
type Options struct {
	// BaseURL is the export service root, e.g. https://host/isamples_central/export/
	BaseURL string

	// Token is sent as a bearer token on every request.
	Token string

	// HTTPClient is used for all requests. When nil a client with an
	// instrumented transport is created. It should not set
	// http.Client.Timeout, which would also cut off long downloads.
	HTTPClient *http.Client

	// Timeout bounds create and status calls end to end. Downloads are only
	// bounded by it while waiting for response headers, and only with the
	// default HTTP client; the body streams for as long as it takes.
	// Default: DefaultTimeout
	Timeout time.Duration
}

// Client talks to the remote export service: create, status and download.
type Client struct {
	baseURL string
	token   string
	timeout time.Duration
	client  *http.Client
}

// NewClient creates a client for the export service at opts.BaseURL.
func NewClient(opts Options) *Client {
	base := opts.BaseURL
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	hc := opts.HTTPClient
	if hc == nil {
		transport := http.DefaultTransport.(*http.Transport).Clone()
		transport.ResponseHeaderTimeout = timeout
		hc = &http.Client{Transport: otelhttp.NewTransport(transport)}
	}

	return &Client{
		baseURL: base,
		token:   opts.Token,
		timeout: timeout,
		client:  hc,
	}
}

// BaseURL returns the normalized service root.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Create submits a new export job and returns the identifier the service assigned to it.
func (c *Client) Create(ctx context.Context, query, format string) (string, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("export_format", format)

	body, err := c.getJSON(ctx, "create", params)
	if err != nil {
		return "", err
	}

	var resp struct {
		UUID string `json:"uuid"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", &ProtocolError{Op: "create", Message: "invalid JSON", Body: truncate(body), Err: err}
	}
	if resp.UUID == "" {
		return "", &ProtocolError{Op: "create", Message: "response has no uuid", Body: truncate(body)}
	}
	return resp.UUID, nil
}

// Status fetches the current state of a job.
func (c *Client) Status(ctx context.Context, jobID string) (*StatusResponse, error) {
	params := url.Values{}
	params.Set("uuid", jobID)

	body, err := c.getJSON(ctx, "status", params)
	if err != nil {
		return nil, err
	}

	var resp StatusResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &ProtocolError{Op: "status", Message: "invalid JSON", Body: truncate(body), Err: err}
	}
	resp.Raw = json.RawMessage(body)
	slog.Debug("Export job status", slog.String("jobID", jobID), slog.String("status", resp.Status))
	return &resp, nil
}

// Download starts the download of a completed job. The caller owns the
// returned body and must close it; nothing has been read from it yet.
func (c *Client) Download(ctx context.Context, jobID string) (io.ReadCloser, error) {
	params := url.Values{}
	params.Set("uuid", jobID)

	resp, err := c.do(ctx, "download", params)
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

func (c *Client) getJSON(ctx context.Context, op string, params url.Values) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.do(ctx, op, params)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("export %s: read body: %w", op, err)
	}
	return body, nil
}

// do issues a GET for op and returns the response only when it is 2xx.
func (c *Client) do(ctx context.Context, op string, params url.Values) (*http.Response, error) {
	u := c.baseURL + op
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("export %s: create request: %w", op, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("export %s: %w", op, err)
	}

	if !isExpectedStatusCode(resp.StatusCode) {
		defer func() { _ = resp.Body.Close() }()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &ProtocolError{
			Op:         op,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(body)),
		}
	}
	return resp, nil
}

func truncate(b []byte) string {
	if len(b) > maxErrorBody {
		b = b[:maxErrorBody]
	}
	return strings.TrimSpace(string(b))
}
