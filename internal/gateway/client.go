// Package gateway holds the REST clients for the chat platform and the identity provider.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"guildlink/internal/observability"

	"go.opentelemetry.io/otel/attribute"
)

const maxErrorBody = 512

// APIError is returned for non-2xx responses.
type APIError struct {
	Operation string
	Status    int
	Body      string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: unexpected status %d: %s", e.Operation, e.Status, e.Body)
}

type restClient struct {
	httpClient *http.Client
	baseURL    string
	authHeader string
}

func newRestClient(baseURL, authHeader string, timeout time.Duration) restClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return restClient{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		authHeader: authHeader,
	}
}

// do sends body as JSON and decodes a JSON response into out when out is non-nil.
// It returns the response status for callers that branch on 2xx variants.
func (c restClient) do(ctx context.Context, operation, method, path, auth string, body, out any) (int, error) {
	defer observability.TrackGateway(operation)()
	span, ctx := observability.NewClientSpan(ctx, "gateway."+operation,
		observability.AttrOperation.String(operation),
		attribute.String("http.method", method),
		attribute.String("http.path", path),
	)
	defer span.End()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("%s: encode body: %w", operation, err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", operation, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if auth == "" {
		auth = c.authHeader
	}
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		span.SetError(err)
		return 0, fmt.Errorf("%s: %w", operation, err)
	}
	defer resp.Body.Close()
	span.AddAttributes(attribute.Int("http.status_code", resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		apiErr := &APIError{Operation: operation, Status: resp.StatusCode, Body: string(raw)}
		span.SetError(apiErr)
		return resp.StatusCode, apiErr
	}

	if out != nil && resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, fmt.Errorf("%s: decode response: %w", operation, err)
		}
	}
	return resp.StatusCode, nil
}
