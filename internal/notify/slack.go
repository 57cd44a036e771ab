package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// maxResponseBody caps how much of the destination's reply is kept for diagnostics.
const maxResponseBody = 64 * 1024

// SlackClient delivers messages to Slack incoming webhooks.
type SlackClient struct {
	HTTP *http.Client
}

// NewSlackClient returns a client using httpClient, or a fresh client with no
// timeout of its own when httpClient is nil. Request contexts bound each call.
func NewSlackClient(httpClient *http.Client) *SlackClient {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &SlackClient{HTTP: httpClient}
}

// NewHTTPClient builds the outbound client. With reuse off every delivery
// opens a fresh connection.
func NewHTTPClient(reuse bool) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DisableKeepAlives = !reuse
	return &http.Client{Transport: transport}
}

func (c *SlackClient) Deliver(ctx context.Context, url string, msg Message) (Result, error) {
	j, err := json.Marshal(msg)
	if err != nil {
		return Result{}, fmt.Errorf("marshal message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(j))
	if err != nil {
		return Result{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("http: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	res := Result{
		StatusCode: resp.StatusCode,
		Status:     statusText(resp),
		Body:       string(raw),
	}
	if err != nil {
		res.BodyErr = fmt.Errorf("read response body: %w", err)
	}
	return res, nil
}

// statusText strips the numeric code from resp.Status ("404 Not Found" -> "Not Found").
func statusText(resp *http.Response) string {
	if _, text, ok := strings.Cut(resp.Status, " "); ok && text != "" {
		return text
	}
	return http.StatusText(resp.StatusCode)
}
