package smoke

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// HTTPClient wraps http.Client with the API's envelope decoding.
type HTTPClient struct {
	client  *http.Client
	baseURL string
}

func newHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
	}
}

// response is a decoded API reply. Raw holds the body as received.
type response struct {
	Status int
	Env    envelope
	Raw    []byte
	Header http.Header
}

// Do sends method to path with an optional JSON body and decodes the
// envelope when the reply has one.
func (c *HTTPClient) Do(ctx context.Context, method, path string, body any) (*response, error) {
	var rd io.Reader = http.NoBody
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("%w: marshal body: %w", ErrRequest, err)
		}
		rd = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRequest, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %w", ErrRequest, method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s %s: %w", ErrRequest, method, path, err)
	}

	out := &response{Status: resp.StatusCode, Raw: raw, Header: resp.Header}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &out.Env); err != nil {
			return nil, fmt.Errorf("%w: decoding %s %s: %w", ErrRequest, method, path, err)
		}
	}
	return out, nil
}

// records decodes the data member as a list or a single record.
func (r *response) records() []record {
	data, err := json.Marshal(r.Env.Data)
	if err != nil {
		return nil
	}
	var list []record
	if json.Unmarshal(data, &list) == nil {
		return list
	}
	var one record
	if json.Unmarshal(data, &one) == nil && one.ID != "" {
		return []record{one}
	}
	return nil
}
